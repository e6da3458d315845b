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

package agent

import (
	"log/slog"
	"sync"
	"time"

	"github.com/efchatnet/efcare/backend/clock"
)

// DefaultHandoffDelay is how long after a clinician's reply the handoff
// timer fires.
const DefaultHandoffDelay = 90 * time.Minute

type handoffEntry struct {
	timer      clock.Timer
	generation uint64
}

// HandoffTimers keeps at most one pending timer per conversation. Arming
// replaces the pending timer; a replaced or cancelled timer never fires.
type HandoffTimers struct {
	clock  clock.Clock
	delay  time.Duration
	onFire func(conversationID string)
	logger *slog.Logger

	mu         sync.Mutex
	entries    map[string]*handoffEntry
	generation uint64
}

// NewHandoffTimers creates the timer set. onFire may be nil.
func NewHandoffTimers(clk clock.Clock, delay time.Duration, onFire func(conversationID string)) *HandoffTimers {
	if delay <= 0 {
		delay = DefaultHandoffDelay
	}
	return &HandoffTimers{
		clock:   clk,
		delay:   delay,
		onFire:  onFire,
		logger:  slog.Default(),
		entries: make(map[string]*handoffEntry),
	}
}

func (h *HandoffTimers) Arm(conversationID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if prev, ok := h.entries[conversationID]; ok {
		prev.timer.Stop()
	}

	h.generation++
	gen := h.generation
	entry := &handoffEntry{generation: gen}
	h.entries[conversationID] = entry
	entry.timer = h.clock.AfterFunc(h.delay, func() { h.fire(conversationID, gen) })

	h.logger.Debug("Handoff timer armed", "conversation_id", conversationID, "delay", h.delay)
}

// Cancel stops the pending timer for the conversation and reports
// whether one existed.
func (h *HandoffTimers) Cancel(conversationID string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	entry, ok := h.entries[conversationID]
	if !ok {
		return false
	}
	entry.timer.Stop()
	delete(h.entries, conversationID)

	h.logger.Debug("Handoff timer cancelled", "conversation_id", conversationID)
	return true
}

func (h *HandoffTimers) Pending(conversationID string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	_, ok := h.entries[conversationID]
	return ok
}

// Stop cancels every pending timer.
func (h *HandoffTimers) Stop() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, entry := range h.entries {
		entry.timer.Stop()
		delete(h.entries, id)
	}
}

func (h *HandoffTimers) fire(conversationID string, gen uint64) {
	h.mu.Lock()
	entry, ok := h.entries[conversationID]
	if !ok || entry.generation != gen {
		h.mu.Unlock()
		return
	}
	delete(h.entries, conversationID)
	h.mu.Unlock()

	h.logger.Info("Handoff window elapsed", "conversation_id", conversationID)
	if h.onFire != nil {
		h.onFire(conversationID)
	}
}
