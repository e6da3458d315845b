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
	"io"
	"strings"
	"sync"
)

// Chunk is a piece of generated text. The final chunk has Done set.
type Chunk struct {
	Text string `json:"text"`
	Done bool   `json:"done"`
}

// ChunkStream yields a reply piece by piece. After the Done chunk, Next
// returns io.EOF. A stream cannot be restarted; call Close when finished
// even if iteration stopped early.
//
// ChunkStream is not safe for concurrent use.
type ChunkStream struct {
	next   func() (Chunk, error)
	closer io.Closer
	text   strings.Builder
	done   bool

	closeOnce sync.Once
	closeErr  error
}

// NewChunkStream wraps a source function returning chunks in order. The
// source returns io.EOF when its input is exhausted.
func NewChunkStream(next func() (Chunk, error), closer io.Closer) *ChunkStream {
	return &ChunkStream{next: next, closer: closer}
}

func (s *ChunkStream) Next() (Chunk, error) {
	if s.done {
		return Chunk{}, io.EOF
	}

	chunk, err := s.next()
	if err == io.EOF {
		// Source ended without a completion marker.
		s.done = true
		return Chunk{}, io.ErrUnexpectedEOF
	}
	if err != nil {
		s.done = true
		return Chunk{}, err
	}

	s.text.WriteString(chunk.Text)
	if chunk.Done {
		s.done = true
	}
	return chunk, nil
}

// Text returns everything received so far.
func (s *ChunkStream) Text() string {
	return s.text.String()
}

func (s *ChunkStream) Close() error {
	s.closeOnce.Do(func() {
		s.done = true
		if s.closer != nil {
			s.closeErr = s.closer.Close()
		}
	})
	return s.closeErr
}

// Collect drains the stream and returns the complete text.
func Collect(s *ChunkStream) (string, error) {
	defer s.Close()
	for {
		_, err := s.Next()
		if err == io.EOF {
			return s.Text(), nil
		}
		if err != nil {
			return "", err
		}
	}
}
