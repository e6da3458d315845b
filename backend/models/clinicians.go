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

// Clinician is an entry of the static roster patients pick from when
// opening a conversation.
type Clinician struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Specialty string `json:"specialty"`
	Avatar    string `json:"avatar,omitempty"`
	Online    bool   `json:"online"`
	IsAgent   bool   `json:"is_agent,omitempty"`
}

// Clinicians returns the clinic roster, ending with the agent entry
// identified by agentID.
func Clinicians(agentID string) []Clinician {
	return []Clinician{
		{ID: "doctor-1", Name: "Ivan Ivanov", Specialty: "Orthopedic vertebrologist", Online: true},
		{ID: "doctor-2", Name: "Maria Petrova", Specialty: "Exercise therapy physician", Online: false},
		{ID: "doctor-3", Name: "Alexey Sidorov", Specialty: "Orthotist", Online: true},
		{ID: agentID, Name: "AI assistant", Specialty: "Virtual assistant", Online: true, IsAgent: true},
	}
}
