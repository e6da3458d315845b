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

package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var epoch = time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

func TestFakeAfterFuncFiresOnAdvance(t *testing.T) {
	c := Fake(epoch)
	fired := 0
	c.AfterFunc(time.Minute, func() { fired++ })

	c.Advance(59 * time.Second)
	assert.Equal(t, 0, fired)
	assert.Equal(t, 1, c.Pending())

	c.Advance(time.Second)
	assert.Equal(t, 1, fired)
	assert.Equal(t, 0, c.Pending())
	assert.Equal(t, epoch.Add(time.Minute), c.Now())
}

func TestFakeStopPreventsFire(t *testing.T) {
	c := Fake(epoch)
	fired := false
	timer := c.AfterFunc(time.Minute, func() { fired = true })

	assert.True(t, timer.Stop())
	assert.False(t, timer.Stop())
	c.Advance(time.Hour)
	assert.False(t, fired)
}

func TestFakeFiresInDeadlineOrder(t *testing.T) {
	c := Fake(epoch)
	var order []string
	c.AfterFunc(2*time.Minute, func() { order = append(order, "second") })
	c.AfterFunc(time.Minute, func() { order = append(order, "first") })

	c.Advance(time.Hour)
	assert.Equal(t, []string{"first", "second"}, order)
}

func TestFakeCallbackSeesDeadlineTime(t *testing.T) {
	c := Fake(epoch)
	var seen time.Time
	c.AfterFunc(time.Minute, func() { seen = c.Now() })

	c.Advance(time.Hour)
	assert.Equal(t, epoch.Add(time.Minute), seen)
	assert.Equal(t, epoch.Add(time.Hour), c.Now())
}

func TestFakeCallbackMayScheduleAgain(t *testing.T) {
	c := Fake(epoch)
	fired := 0
	c.AfterFunc(time.Minute, func() {
		fired++
		c.AfterFunc(time.Minute, func() { fired++ })
	})

	c.Advance(2 * time.Minute)
	assert.Equal(t, 2, fired)
}
