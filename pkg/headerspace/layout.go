// Package headerspace maps packet-header matches onto regions. A Layout
// assigns every bit of every header field to one boolean variable, most
// significant bit first, so a match on a field value becomes a cube over
// those variables.
package headerspace

import (
	"fmt"
	"strings"
)

// MaxFieldWidth bounds field widths so that ranges fit in a uint64.
const MaxFieldWidth = 63

// Field is a named header field of Width bits.
type Field struct {
	Name  string `json:"name"`
	Width int    `json:"width"`
}

// Names of the fields of the IPv4 layout.
const (
	SrcIP      = "srcIp"
	DstIP      = "dstIp"
	SrcPort    = "srcPort"
	DstPort    = "dstPort"
	IPProtocol = "ipProtocol"
)

// IPv4 is the layout of the IPv4 5-tuple.
var IPv4 = MustLayout(
	Field{Name: SrcIP, Width: 32},
	Field{Name: DstIP, Width: 32},
	Field{Name: SrcPort, Width: 16},
	Field{Name: DstPort, Width: 16},
	Field{Name: IPProtocol, Width: 8},
)

// Layout is an ordered set of fields packed into consecutive variables.
type Layout struct {
	fields  []Field
	offsets map[string]int
	index   map[string]int
	bits    int
}

// NewLayout validates fields and packs them in order.
func NewLayout(fields ...Field) (*Layout, error) {
	if len(fields) == 0 {
		return nil, fmt.Errorf("layout needs at least one field")
	}
	l := &Layout{
		fields:  append([]Field(nil), fields...),
		offsets: make(map[string]int, len(fields)),
		index:   make(map[string]int, len(fields)),
	}
	for i, f := range fields {
		if f.Name == "" {
			return nil, fmt.Errorf("field %d has no name", i)
		}
		if f.Width < 1 || f.Width > MaxFieldWidth {
			return nil, fmt.Errorf("field %q has width %d, want 1-%d", f.Name, f.Width, MaxFieldWidth)
		}
		if _, ok := l.offsets[f.Name]; ok {
			return nil, fmt.Errorf("duplicate field %q", f.Name)
		}
		l.offsets[f.Name] = l.bits
		l.index[f.Name] = i
		l.bits += f.Width
	}
	return l, nil
}

// MustLayout is NewLayout for static layouts; it panics on error.
func MustLayout(fields ...Field) *Layout {
	l, err := NewLayout(fields...)
	if err != nil {
		panic(err)
	}
	return l
}

// Bits returns the total width of the layout, which is the number of
// variables a region engine needs.
func (l *Layout) Bits() int {
	return l.bits
}

// Fields returns the fields in layout order.
func (l *Layout) Fields() []Field {
	return append([]Field(nil), l.fields...)
}

// Field returns the named field and the variable of its first bit.
func (l *Layout) Field(name string) (Field, int, bool) {
	i, ok := l.index[name]
	if !ok {
		return Field{}, 0, false
	}
	return l.fields[i], l.offsets[name], true
}

func (l *Layout) String() string {
	parts := make([]string, len(l.fields))
	for i, f := range l.fields {
		parts[i] = fmt.Sprintf("%s/%d", f.Name, f.Width)
	}
	return strings.Join(parts, ",")
}
