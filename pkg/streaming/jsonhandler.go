package streaming

import "encoding/json"

// JSONStreamHandler incrementally parses JSON values out of a text
// stream: chunks are appended to a buffer, then the buffer is
// scanned for balanced `{...}`/`[...]` spans (honoring string escapes)
// which are parsed as soon as they close. Noise before/between values
// is tolerated; on stream end an unterminated value is conservatively
// repaired by appending the brackets needed to balance it.
type JSONStreamHandler struct {
	buf []byte
	scanned int // index into buf already scanned past
	objects []any
	lastErr error
}

// NewJSONStreamHandler returns an empty handler.
func NewJSONStreamHandler() *JSONStreamHandler {
	return &JSONStreamHandler{}
}

// Feed appends text and returns the object completed by this call, if
// any (the delta replacement of: "if the handler completes an
// object, replace the delta with {kind:json, value: obj,...}").
func (h *JSONStreamHandler) Feed(text string) (any, bool) {
	h.buf = append(h.buf, text...)
	return h.scan()
}

// scan walks forward from the last scanned position looking for the
// start of a JSON value, then tracks a bracket stack (honoring string
// escapes) until it balances, parses the span, and records it.
func (h *JSONStreamHandler) scan() (any, bool) {
	i := h.scanned
	n := len(h.buf)

	for i < n && h.buf[i] != '{' && h.buf[i] != '[' {
		i++
	}
	if i >= n {
		h.scanned = i
		return nil, false
	}

	start := i
	var stack []byte
	inString := false
	escaped := false

	for; i < n; i++ {
		c := h.buf[i]

		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}

		switch c {
		case '"':
			inString = true
		case '{', '[':
			stack = append(stack, c)
		case '}', ']':
			if len(stack) == 0 {
				// Unbalanced closer before any opener on this span;
				// treat as noise and resume scanning past it.
				h.scanned = i + 1
				return h.scan()
			}
			stack = stack[:len(stack)-1]
			if len(stack) == 0 {
				span := h.buf[start: i+1]
				var obj any
				if err := json.Unmarshal(span, &obj); err != nil {
					h.lastErr = err
					h.scanned = i + 1
					return h.scan()
				}
				h.objects = append(h.objects, obj)
				h.scanned = i + 1
				return obj, true
			}
		}
	}

	// Ran off the end of the buffer mid-value; leave `start` unscanned
	// so a later Feed (or End's repair) can pick up from it.
	h.scanned = start
	return nil, false
}

// End is called on stream termination. If a value is still open, it
// attempts the "conservative repair": count unmatched openers and
// append the matching closers, then retry the parse.
func (h *JSONStreamHandler) End() (any, bool) {
	if h.scanned >= len(h.buf) {
		return nil, false
	}

	span := h.buf[h.scanned:]
	depth := 0
	inString := false
	escaped := false
	var stack []byte

	for _, c := range span {
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{', '[':
			stack = append(stack, c)
			depth++
		case '}', ']':
			if len(stack) > 0 {
				stack = stack[:len(stack)-1]
				depth--
			}
		}
	}
	if depth <= 0 {
		return nil, false
	}

	repaired := make([]byte, len(span))
	copy(repaired, span)
	for i := len(stack) - 1; i >= 0; i-- {
		if stack[i] == '{' {
			repaired = append(repaired, '}')
		} else {
			repaired = append(repaired, ']')
		}
	}

	var obj any
	if err := json.Unmarshal(repaired, &obj); err != nil {
		h.lastErr = err
		return nil, false
	}
	h.objects = append(h.objects, obj)
	h.scanned = len(h.buf)
	return obj, true
}

// GetFinalObject returns the most recently parsed object, if any.
func (h *JSONStreamHandler) GetFinalObject() (any, bool) {
	if len(h.objects) == 0 {
		return nil, false
	}
	return h.objects[len(h.objects)-1], true
}

// GetAllObjects returns every object parsed so far, in arrival order.
func (h *JSONStreamHandler) GetAllObjects() []any {
	return h.objects
}

// Err returns the last parse error encountered (noise spans are
// skipped rather than surfaced; this is diagnostic only).
func (h *JSONStreamHandler) Err() error {
	return h.lastErr
}
