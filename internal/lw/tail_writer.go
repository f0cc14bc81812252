// Copyright ©2023 Evolution. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// A bounded writer that retains only the most recent bytes written.
//
// Unlike an io.LimitedReader style counterpart, overflow is not an error:
// writes always report success and bytes that no longer fit are dropped from
// the front. Subprocess diagnostic capture depends on the tail of the stream
// (final progress line, trailing error message), so the head is what gets
// sacrificed on very verbose output.
package lw

// TailWriter implements io.Writer retaining at most Max recent bytes.
type TailWriter struct {
	buf       []byte
	max       int
	truncated bool
}

// NewTailWriter creates TailWriter retaining at most max bytes.
func NewTailWriter(max int) *TailWriter {
	return &TailWriter{max: max}
}

// Write implements io.Writer for *TailWriter. It never fails and always
// reports the full length of b as written.
func (w *TailWriter) Write(b []byte) (int, error) {
	if len(b) >= w.max {
		// Incoming chunk alone fills the cap, previous content is gone.
		if len(w.buf) > 0 || len(b) > w.max {
			w.truncated = true
		}
		w.buf = append(w.buf[:0], b[len(b)-w.max:]...)
		return len(b), nil
	}
	if drop := len(w.buf) + len(b) - w.max; drop > 0 {
		w.buf = w.buf[:copy(w.buf, w.buf[drop:])]
		w.truncated = true
	}
	w.buf = append(w.buf, b...)
	return len(b), nil
}

// Bytes returns the retained tail of the stream.
func (w *TailWriter) Bytes() []byte {
	return w.buf
}

// Truncated reports if any bytes have been dropped.
func (w *TailWriter) Truncated() bool {
	return w.truncated
}
