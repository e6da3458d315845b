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
	"encoding/json"
	"fmt"
	"time"
)

type MessageStatus string

const (
	StatusSent      MessageStatus = "sent"
	StatusDelivered MessageStatus = "delivered"
	StatusRead      MessageStatus = "read"
)

type MessageType string

const (
	MessageText  MessageType = "text"
	MessageImage MessageType = "image"
	MessageFile  MessageType = "file"
	MessageVoice MessageType = "voice"
)

// Valid reports whether t is one of the known message types.
func (t MessageType) Valid() bool {
	switch t {
	case MessageText, MessageImage, MessageFile, MessageVoice:
		return true
	}
	return false
}

type PayloadKind string

const (
	PayloadOpaque PayloadKind = "opaque"
	PayloadPlain  PayloadKind = "plain"
)

// Payload is the body of a message: either OpaquePayload or
// PlainPayload. The set of implementations is closed.
type Payload interface {
	Kind() PayloadKind
	payload()
}

// OpaquePayload is an end-to-end encrypted body. The server relays it
// without interpreting any field.
type OpaquePayload struct {
	Ciphertext      string `json:"ciphertext"`
	IV              string `json:"iv"`
	Salt            string `json:"salt"`
	SenderPublicKey string `json:"sender_public_key"`
}

func (OpaquePayload) Kind() PayloadKind { return PayloadOpaque }
func (OpaquePayload) payload()          {}

// PlainPayload is readable text, only ever used with assisted
// conversations.
type PlainPayload struct {
	Text string `json:"text"`
}

func (PlainPayload) Kind() PayloadKind { return PayloadPlain }
func (PlainPayload) payload()          {}

// PayloadKindFor returns the only payload kind a conversation of the
// given kind may hold.
func PayloadKindFor(kind ConversationKind) PayloadKind {
	if kind == KindAssisted {
		return PayloadPlain
	}
	return PayloadOpaque
}

type Message struct {
	ID              string        `json:"id"`
	ConversationID  string        `json:"conversation_id"`
	SenderID        string        `json:"sender_id"`
	Payload         Payload       `json:"payload"`
	MessageType     MessageType   `json:"message_type"`
	ReplyToID       string        `json:"reply_to_id,omitempty"`
	Timestamp       time.Time     `json:"timestamp"`
	Status          MessageStatus `json:"status"`
	DeliveredAt     *time.Time    `json:"delivered_at,omitempty"`
	ReadAt          *time.Time    `json:"read_at,omitempty"`
	IsAgentResponse bool          `json:"is_agent_response"`
}

// Text returns the plain text of the message, or "" for opaque payloads.
func (m *Message) Text() string {
	if p, ok := m.Payload.(PlainPayload); ok {
		return p.Text
	}
	return ""
}

// Clone returns a copy that shares no mutable state with m.
func (m Message) Clone() Message {
	out := m
	if m.DeliveredAt != nil {
		t := *m.DeliveredAt
		out.DeliveredAt = &t
	}
	if m.ReadAt != nil {
		t := *m.ReadAt
		out.ReadAt = &t
	}
	return out
}

// wirePayload is the JSON form of Payload: a "type" discriminator plus
// the fields of whichever variant is set.
type wirePayload struct {
	Type            PayloadKind `json:"type"`
	Ciphertext      string      `json:"ciphertext,omitempty"`
	IV              string      `json:"iv,omitempty"`
	Salt            string      `json:"salt,omitempty"`
	SenderPublicKey string      `json:"sender_public_key,omitempty"`
	Text            string      `json:"text,omitempty"`
}

type messageAlias Message

type wireMessage struct {
	messageAlias
	Payload *wirePayload `json:"payload"`
}

func (m Message) MarshalJSON() ([]byte, error) {
	w := wireMessage{messageAlias: messageAlias(m)}
	switch p := m.Payload.(type) {
	case OpaquePayload:
		w.Payload = &wirePayload{
			Type:            PayloadOpaque,
			Ciphertext:      p.Ciphertext,
			IV:              p.IV,
			Salt:            p.Salt,
			SenderPublicKey: p.SenderPublicKey,
		}
	case PlainPayload:
		w.Payload = &wirePayload{Type: PayloadPlain, Text: p.Text}
	}
	return json.Marshal(w)
}

func (m *Message) UnmarshalJSON(data []byte) error {
	var w wireMessage
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	*m = Message(w.messageAlias)
	m.Payload = nil
	if w.Payload == nil {
		return nil
	}
	switch w.Payload.Type {
	case PayloadOpaque:
		m.Payload = OpaquePayload{
			Ciphertext:      w.Payload.Ciphertext,
			IV:              w.Payload.IV,
			Salt:            w.Payload.Salt,
			SenderPublicKey: w.Payload.SenderPublicKey,
		}
	case PayloadPlain:
		m.Payload = PlainPayload{Text: w.Payload.Text}
	default:
		return fmt.Errorf("unknown payload type %q", w.Payload.Type)
	}
	return nil
}
