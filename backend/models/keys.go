// Copyright (C) 2025 efchat.net <tj@efchat.net>
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

package models

import (
	"time"
)

// KeyRecord is a user's registered public identity key. Only public
// material is stored; private keys never leave the client.
type KeyRecord struct {
	UserID      string     `json:"user_id" db:"user_id"`
	PublicKey   string     `json:"public_key" db:"public_key"`
	Fingerprint string     `json:"fingerprint" db:"fingerprint"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
	RevokedAt   *time.Time `json:"revoked_at,omitempty" db:"revoked_at"`
}

// Active reports whether the record has not been superseded.
func (k KeyRecord) Active() bool {
	return k.RevokedAt == nil
}

type KeyRegistration struct {
	PublicKey   string `json:"public_key"`
	Fingerprint string `json:"fingerprint"`
}
