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
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingCloser struct{ closed int }

func (c *countingCloser) Close() error {
	c.closed++
	return nil
}

func sliceSource(chunks []Chunk, tail error) func() (Chunk, error) {
	i := 0
	return func() (Chunk, error) {
		if i >= len(chunks) {
			return Chunk{}, tail
		}
		c := chunks[i]
		i++
		return c, nil
	}
}

func TestChunkStreamCollect(t *testing.T) {
	closer := &countingCloser{}
	s := NewChunkStream(sliceSource([]Chunk{
		{Text: "Wear the brace "},
		{Text: "20 hours a day."},
		{Done: true},
		{Text: "ignored"},
	}, io.EOF), closer)

	text, err := Collect(s)
	require.NoError(t, err)
	assert.Equal(t, "Wear the brace 20 hours a day.", text)
	assert.Equal(t, 1, closer.closed)

	_, err = s.Next()
	assert.ErrorIs(t, err, io.EOF)
}

func TestChunkStreamUnexpectedEnd(t *testing.T) {
	s := NewChunkStream(sliceSource([]Chunk{{Text: "partial"}}, io.EOF), nil)

	_, err := Collect(s)
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
	assert.Equal(t, "partial", s.Text())
}

func TestChunkStreamSourceError(t *testing.T) {
	boom := errors.New("boom")
	s := NewChunkStream(sliceSource(nil, boom), nil)

	_, err := s.Next()
	assert.ErrorIs(t, err, boom)
	_, err = s.Next()
	assert.ErrorIs(t, err, io.EOF)
}

func TestChunkStreamCloseIsIdempotent(t *testing.T) {
	closer := &countingCloser{}
	s := NewChunkStream(sliceSource([]Chunk{{Text: "a"}}, io.EOF), closer)

	require.NoError(t, s.Close())
	require.NoError(t, s.Close())
	assert.Equal(t, 1, closer.closed)

	_, err := s.Next()
	assert.ErrorIs(t, err, io.EOF)
}
