// Copyright The Notary Project Authors.
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package io bounds the amount of content copied out of decoded messages.
package io

import (
	"errors"
	"io"
)

// ErrLimitExceeded is returned when more content than allowed is written.
var ErrLimitExceeded = errors.New("content size limit exceeded")

// LimitedWriter writes to W until N bytes remain. The write that would go
// past the limit writes what fits and fails with ErrLimitExceeded.
type LimitedWriter struct {
	W io.Writer // underlying writer
	N int64     // remaining bytes
}

// LimitWriter returns a writer that accepts at most limit bytes.
func LimitWriter(w io.Writer, limit int64) *LimitedWriter {
	return &LimitedWriter{W: w, N: limit}
}

// Write writes p to the underlying writer up to the limit.
func (l *LimitedWriter) Write(p []byte) (int, error) {
	if l.N <= 0 && len(p) > 0 {
		return 0, ErrLimitExceeded
	}
	exceeded := int64(len(p)) > l.N
	if exceeded {
		p = p[:l.N]
	}
	n, err := l.W.Write(p)
	l.N -= int64(n)
	if err == nil && exceeded {
		err = ErrLimitExceeded
	}
	return n, err
}

// Copy copies r to w. A positive limit bounds the number of bytes copied;
// content beyond it fails the copy with ErrLimitExceeded.
func Copy(w io.Writer, r io.Reader, limit int64) (int64, error) {
	if limit <= 0 {
		return io.Copy(w, r)
	}
	return io.Copy(LimitWriter(w, limit), r)
}
