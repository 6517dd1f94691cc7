// Package ruleset loads named header-space predicates from YAML documents
// and compiles them into BDD regions.
package ruleset

import (
	"bytes"
	"encoding/json"
	"os"
	"strings"

	"github.com/blang/semver/v4"
	"github.com/ghodss/yaml"
	"github.com/pkg/errors"

	"github.com/netverify/aptrie/pkg/headerspace"
	"github.com/netverify/aptrie/pkg/lib/version"
	"github.com/netverify/aptrie/pkg/region/bdd"
)

// LayoutIPv4 names the built-in IPv4 5-tuple layout.
const LayoutIPv4 = "ipv4"

var supportedVersions = semver.MustParseRange(">=1.0.0 <2.0.0")

// UnsupportedVersion is returned for documents whose version is outside the
// range this package understands.
type UnsupportedVersion struct {
	Version semver.Version
}

func (e UnsupportedVersion) Error() string {
	return "unsupported ruleset version " + e.Version.String() + ", want 1.x"
}

// Match is a field match as written in a document. Bare YAML numbers are
// accepted alongside strings.
type Match string

func (m *Match) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*m = Match(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return errors.Errorf("field match must be a string or a number, got %s", b)
	}
	*m = Match(n.String())
	return nil
}

// RuleSpec maps field names to matches.
type RuleSpec map[string]Match

// PredicateSpec is a predicate as written in a document.
type PredicateSpec struct {
	Name   string     `json:"name" hash:"ignore"`
	Rules  []RuleSpec `json:"rules" hash:"set"`
	Except []RuleSpec `json:"except,omitempty" hash:"set"`
}

// Document is the serialized form of a ruleset.
type Document struct {
	Version    *version.DocumentVersion `json:"version"`
	Layout     string                   `json:"layout,omitempty"`
	Fields     []headerspace.Field      `json:"fields,omitempty"`
	Predicates []PredicateSpec          `json:"predicates"`
}

// Ruleset is a validated document: every predicate parsed against the
// document's layout.
type Ruleset struct {
	Version    semver.Version
	Predicates []headerspace.Predicate

	layout *headerspace.Layout
	specs  []PredicateSpec
	byName map[string]int
}

// NamedRegion is a predicate together with its compiled region.
type NamedRegion struct {
	Name   string
	Region *bdd.Region
}

// Load reads and parses the ruleset at path.
func Load(path string) (*Ruleset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading ruleset %s", path)
	}
	rs, err := Parse(data)
	if err != nil {
		return nil, errors.Wrapf(err, "loading ruleset %s", path)
	}
	return rs, nil
}

// Parse decodes a YAML or JSON document and validates it.
func Parse(data []byte) (*Ruleset, error) {
	raw, err := yaml.YAMLToJSON(data)
	if err != nil {
		return nil, errors.Wrap(err, "converting ruleset yaml to json")
	}
	var doc Document
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&doc); err != nil {
		return nil, errors.Wrap(err, "decoding ruleset")
	}
	return FromDocument(doc)
}

// FromDocument validates doc.
func FromDocument(doc Document) (*Ruleset, error) {
	if doc.Version == nil {
		return nil, errors.New("ruleset has no version")
	}
	v := doc.Version.Version
	if !supportedVersions(v) {
		return nil, UnsupportedVersion{Version: v}
	}

	l, err := layoutOf(doc)
	if err != nil {
		return nil, err
	}

	rs := &Ruleset{
		Version: v,
		layout:  l,
		specs:   doc.Predicates,
		byName:  make(map[string]int, len(doc.Predicates)),
	}
	for i, spec := range doc.Predicates {
		if spec.Name == "" {
			return nil, errors.Errorf("predicate %d has no name", i)
		}
		if _, ok := rs.byName[spec.Name]; ok {
			return nil, errors.Errorf("duplicate predicate name %q", spec.Name)
		}
		if len(spec.Rules) == 0 {
			return nil, errors.Errorf("predicate %q has no rules", spec.Name)
		}
		p := headerspace.Predicate{Name: spec.Name}
		if p.Rules, err = parseRules(l, spec.Rules); err != nil {
			return nil, errors.Wrapf(err, "predicate %q rules", spec.Name)
		}
		if p.Except, err = parseRules(l, spec.Except); err != nil {
			return nil, errors.Wrapf(err, "predicate %q exceptions", spec.Name)
		}
		rs.byName[spec.Name] = len(rs.Predicates)
		rs.Predicates = append(rs.Predicates, p)
	}
	return rs, nil
}

func layoutOf(doc Document) (*headerspace.Layout, error) {
	switch {
	case len(doc.Fields) > 0 && doc.Layout != "":
		return nil, errors.Errorf("ruleset sets both layout %q and custom fields", doc.Layout)
	case len(doc.Fields) > 0:
		l, err := headerspace.NewLayout(doc.Fields...)
		return l, errors.Wrap(err, "custom layout")
	case doc.Layout == "" || strings.EqualFold(doc.Layout, LayoutIPv4):
		return headerspace.IPv4, nil
	}
	return nil, errors.Errorf("unknown layout %q", doc.Layout)
}

func parseRules(l *headerspace.Layout, specs []RuleSpec) ([]headerspace.Rule, error) {
	rules := make([]headerspace.Rule, 0, len(specs))
	for i, spec := range specs {
		raw := make(map[string]string, len(spec))
		for k, v := range spec {
			raw[k] = string(v)
		}
		r, err := headerspace.ParseRule(l, raw)
		if err != nil {
			return nil, errors.Wrapf(err, "rule %d", i)
		}
		rules = append(rules, r)
	}
	return rules, nil
}

// Layout returns the header layout the predicates are written against.
func (rs *Ruleset) Layout() *headerspace.Layout {
	return rs.layout
}

// Names returns the predicate names in document order.
func (rs *Ruleset) Names() []string {
	names := make([]string, len(rs.Predicates))
	for i, p := range rs.Predicates {
		names[i] = p.Name
	}
	return names
}

// Predicate returns the named predicate.
func (rs *Ruleset) Predicate(name string) (headerspace.Predicate, bool) {
	i, ok := rs.byName[name]
	if !ok {
		return headerspace.Predicate{}, false
	}
	return rs.Predicates[i], true
}

// NewEngine returns a BDD engine with one variable per layout bit.
func (rs *Ruleset) NewEngine() (*bdd.Engine, error) {
	e, err := bdd.New(rs.layout.Bits())
	return e, errors.Wrap(err, "creating bdd engine")
}

// Compile turns every predicate into a region of e, in document order.
func (rs *Ruleset) Compile(e *bdd.Engine) ([]NamedRegion, error) {
	c, err := headerspace.NewCompiler(rs.layout, e)
	if err != nil {
		return nil, errors.Wrap(err, "compiling ruleset")
	}
	out := make([]NamedRegion, len(rs.Predicates))
	for i, p := range rs.Predicates {
		out[i] = NamedRegion{Name: p.Name, Region: c.Predicate(p)}
	}
	if err := e.Err(); err != nil {
		return nil, errors.Wrap(err, "compiling ruleset")
	}
	return out, nil
}
