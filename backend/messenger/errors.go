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

package messenger

import (
	"errors"
	"fmt"

	"github.com/efchatnet/efcare/backend/models"
)

var (
	ErrConversationNotFound = errors.New("conversation not found")
	ErrKindMismatch         = errors.New("payload kind does not match conversation kind")
	ErrNotParticipant       = errors.New("sender is not a participant of the conversation")
	ErrInvalidArgument      = errors.New("invalid argument")
)

// KindMismatchError reports a payload sent to the wrong kind of
// conversation. It carries ids and kinds only, never payload contents.
type KindMismatchError struct {
	ConversationID string
	Kind           models.ConversationKind
	Payload        models.PayloadKind
}

func (e *KindMismatchError) Error() string {
	return fmt.Sprintf("conversation %s is %s and does not accept %s payloads", e.ConversationID, e.Kind, e.Payload)
}

func (e *KindMismatchError) Is(target error) bool {
	return target == ErrKindMismatch
}

func invalidArgument(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidArgument, fmt.Sprintf(format, args...))
}
