package headerspace

import (
	"fmt"
	"strings"
)

// Header is a concrete value for every field of a layout.
type Header struct {
	layout *Layout
	values []uint64
}

// header assembles a Header from the value of each layout variable.
func (l *Layout) header(bit func(v int) bool) Header {
	h := Header{layout: l, values: make([]uint64, len(l.fields))}
	for i, f := range l.fields {
		offset := l.offsets[f.Name]
		var v uint64
		for b := 0; b < f.Width; b++ {
			v <<= 1
			if bit(offset + b) {
				v |= 1
			}
		}
		h.values[i] = v
	}
	return h
}

// Get returns the value of the named field.
func (h Header) Get(name string) (uint64, bool) {
	if h.layout == nil {
		return 0, false
	}
	i, ok := h.layout.index[name]
	if !ok {
		return 0, false
	}
	return h.values[i], true
}

// Matches reports whether h satisfies every field match of r.
func (h Header) Matches(r Rule) bool {
	for _, m := range r.Matches {
		v, ok := h.Get(m.Field.Name)
		if !ok {
			return false
		}
		hit := false
		for _, p := range m.Prefixes {
			shift := uint(m.Field.Width - p.Len)
			if p.Len == 0 || v>>shift == p.Value>>shift {
				hit = true
				break
			}
		}
		if !hit {
			return false
		}
	}
	return true
}

func (h Header) String() string {
	if h.layout == nil {
		return "<none>"
	}
	parts := make([]string, len(h.values))
	for i, f := range h.layout.fields {
		v := h.values[i]
		if f.Width == 32 {
			parts[i] = fmt.Sprintf("%s=%d.%d.%d.%d", f.Name, v>>24&0xff, v>>16&0xff, v>>8&0xff, v&0xff)
			continue
		}
		parts[i] = fmt.Sprintf("%s=%d", f.Name, v)
	}
	return strings.Join(parts, " ")
}
