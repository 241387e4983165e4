package cflist

import (
	"fmt"
	"strings"
)

// EntityError reports an '&' that does not start one of the five entities.
type EntityError struct {
	Offset int
	Text   string
}

func (e *EntityError) Error() string {
	return fmt.Sprintf("cflist: unknown entity at offset %d: %q", e.Offset, e.Text)
}

var entities = [...]struct {
	raw    byte
	entity string
}{
	{'"', "&quot;"},
	{'\'', "&apos;"},
	{'<', "&lt;"},
	{'>', "&gt;"},
	{'&', "&amp;"},
}

// escapeInto writes the escaped form of s into buf, NUL-terminated, and
// returns its length.
func escapeInto(buf []byte, s string) int {
	st := stager{buf: buf, what: "staging buffer"}
	for i := 0; i < len(s); i++ {
		ch := s[i]
		replaced := false
		for _, e := range entities {
			if ch == e.raw {
				st.writeString(e.entity)
				replaced = true
				break
			}
		}
		if !replaced {
			st.writeByte(ch)
		}
	}
	st.terminate()
	return st.off
}

// unescapeInto writes the unescaped form of s into buf, NUL-terminated, and
// returns its length.
func unescapeInto(buf []byte, s string) (int, error) {
	st := stager{buf: buf, what: "staging buffer"}
	for i := 0; i < len(s); i++ {
		if s[i] != '&' {
			st.writeByte(s[i])
			continue
		}

		matched := false
		for _, e := range entities {
			if strings.HasPrefix(s[i:], e.entity) {
				st.writeByte(e.raw)
				i += len(e.entity) - 1
				matched = true
				break
			}
		}
		if !matched {
			end := i + 6
			if end > len(s) {
				end = len(s)
			}
			return 0, &EntityError{Offset: i, Text: s[i:end]}
		}
	}
	st.terminate()
	return st.off, nil
}

// Escape replaces the five markup-significant characters with entities.
func (c *Codec) Escape(s string) string {
	var out string
	_ = c.scratch.with(func(buf []byte) error {
		n := escapeInto(buf, s)
		out = string(buf[:n])
		return nil
	})
	return out
}

// Unescape reverses Escape.
func (c *Codec) Unescape(s string) (string, error) {
	var out string
	err := c.scratch.with(func(buf []byte) error {
		n, err := unescapeInto(buf, s)
		if err != nil {
			return err
		}
		out = string(buf[:n])
		return nil
	})
	return out, err
}

// escapeStaged leaves the escaped form of s at the front of the staging
// buffer and returns its length. The buffer is released on return.
func (c *Codec) escapeStaged(s string) int {
	var n int
	_ = c.scratch.with(func(buf []byte) error {
		n = escapeInto(buf, s)
		return nil
	})
	return n
}
