package stream

import "strings"

// RawBuffer accumulates the text received by one session. It only grows
// and rejects writes once frozen. Not safe for concurrent use; the session
// goroutine owns it.
type RawBuffer struct {
	b      strings.Builder
	frozen bool
}

// Append adds delta and reports whether it was accepted.
func (r *RawBuffer) Append(delta string) bool {
	if r.frozen {
		return false
	}
	r.b.WriteString(delta)
	return true
}

func (r *RawBuffer) Freeze() { r.frozen = true }

func (r *RawBuffer) Frozen() bool { return r.frozen }

func (r *RawBuffer) Len() int { return r.b.Len() }

func (r *RawBuffer) String() string { return r.b.String() }
