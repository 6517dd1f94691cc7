package headerspace

import (
	"encoding/binary"
	"fmt"
	"math/bits"
	"net/netip"
	"sort"
	"strconv"
	"strings"
)

// FieldError reports a field match that cannot be parsed or does not fit
// its field.
type FieldError struct {
	Field  string
	Value  string
	Reason string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("invalid match %q for field %q: %s", e.Value, e.Field, e.Reason)
}

// Prefix matches the values of a field whose Len most significant bits
// equal those of Value.
type Prefix struct {
	Value uint64
	Len   int
}

// FieldMatch is a constraint on a single field, kept as the minimal set of
// prefixes covering the matched values.
type FieldMatch struct {
	Field    Field
	Offset   int
	Prefixes []Prefix
	text     string
}

func (m FieldMatch) String() string {
	return m.Field.Name + "=" + m.text
}

// IsAny reports whether the match accepts every value.
func (m FieldMatch) IsAny() bool {
	return len(m.Prefixes) == 1 && m.Prefixes[0].Len == 0
}

// ParseFieldMatch parses one field match of l. Accepted forms are "*",
// a number ("6", "0x800"), an inclusive range ("1024-65535"), and for
// 32-bit fields an IPv4 address or prefix ("10.0.0.1", "10.0.0.0/8").
func ParseFieldMatch(l *Layout, name, value string) (FieldMatch, error) {
	f, offset, ok := l.Field(name)
	if !ok {
		return FieldMatch{}, &FieldError{Field: name, Value: value, Reason: "unknown field"}
	}
	m := FieldMatch{Field: f, Offset: offset, text: strings.TrimSpace(value)}
	max := uint64(1)<<uint(f.Width) - 1

	fail := func(reason string) (FieldMatch, error) {
		return FieldMatch{}, &FieldError{Field: name, Value: value, Reason: reason}
	}
	s := m.text
	switch {
	case s == "" || s == "*":
		m.Prefixes = []Prefix{{}}
	case strings.Contains(s, "."):
		if f.Width != 32 {
			return fail("addresses are only valid for 32-bit fields")
		}
		if !strings.Contains(s, "/") {
			s += "/32"
		}
		p, err := netip.ParsePrefix(s)
		if err != nil || !p.Addr().Is4() {
			return fail("not an IPv4 address or prefix")
		}
		p = p.Masked()
		a := p.Addr().As4()
		m.Prefixes = []Prefix{{Value: uint64(binary.BigEndian.Uint32(a[:])), Len: p.Bits()}}
	case strings.Contains(s, "-"):
		parts := strings.SplitN(s, "-", 2)
		lo, err := strconv.ParseUint(strings.TrimSpace(parts[0]), 0, 64)
		if err != nil {
			return fail("bad range start")
		}
		hi, err := strconv.ParseUint(strings.TrimSpace(parts[1]), 0, 64)
		if err != nil {
			return fail("bad range end")
		}
		if lo > hi || hi > max {
			return fail(fmt.Sprintf("range must satisfy start <= end <= %d", max))
		}
		m.Prefixes = RangePrefixes(lo, hi, f.Width)
	default:
		v, err := strconv.ParseUint(s, 0, 64)
		if err != nil {
			return fail("not a number")
		}
		if v > max {
			return fail(fmt.Sprintf("value exceeds %d", max))
		}
		m.Prefixes = []Prefix{{Value: v, Len: f.Width}}
	}
	return m, nil
}

// RangePrefixes returns the minimal list of prefixes of a width-bit field
// covering exactly [lo, hi], in ascending order.
func RangePrefixes(lo, hi uint64, width int) []Prefix {
	var out []Prefix
	for {
		// the largest aligned block starting at lo that stays within hi
		k := width
		if lo != 0 {
			k = bits.TrailingZeros64(lo)
		}
		for k > 0 && hi-lo < uint64(1)<<uint(k)-1 {
			k--
		}
		out = append(out, Prefix{Value: lo, Len: width - k})
		end := lo + (uint64(1)<<uint(k) - 1)
		if end >= hi {
			return out
		}
		lo = end + 1
	}
}

// Rule is a conjunction of field matches. Fields without a match are
// unconstrained.
type Rule struct {
	Matches []FieldMatch
}

// ParseRule parses a field-name to match-text mapping. Matches are kept in
// layout order.
func ParseRule(l *Layout, raw map[string]string) (Rule, error) {
	var r Rule
	for name, value := range raw {
		m, err := ParseFieldMatch(l, name, value)
		if err != nil {
			return Rule{}, err
		}
		if m.IsAny() {
			continue
		}
		r.Matches = append(r.Matches, m)
	}
	sort.Slice(r.Matches, func(i, j int) bool {
		return r.Matches[i].Offset < r.Matches[j].Offset
	})
	return r, nil
}

func (r Rule) String() string {
	if len(r.Matches) == 0 {
		return "*"
	}
	parts := make([]string, len(r.Matches))
	for i, m := range r.Matches {
		parts[i] = m.String()
	}
	return strings.Join(parts, " ")
}

// Predicate is a named header space: the union of Rules minus the union
// of Except.
type Predicate struct {
	Name   string
	Rules  []Rule
	Except []Rule
}
