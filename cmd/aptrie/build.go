package main

import (
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/netverify/aptrie/pkg/headerspace"
	"github.com/netverify/aptrie/pkg/metrics"
	"github.com/netverify/aptrie/pkg/region"
	"github.com/netverify/aptrie/pkg/region/bdd"
	"github.com/netverify/aptrie/pkg/ruleset"
	"github.com/netverify/aptrie/pkg/trie"
)

// partition is a loaded ruleset together with the trie of its predicates.
type partition struct {
	rules    *ruleset.Ruleset
	compiler *headerspace.Compiler
	named    []ruleset.NamedRegion
	trie     *trie.Trie
}

// build loads the ruleset and builds its trie, recording the outcome.
func (o *options) build() (*partition, error) {
	start := time.Now()
	p, err := o.load()
	metrics.EmitBuild(time.Since(start), err)
	if err != nil {
		return nil, err
	}
	provider := metrics.NewMetricsNil()
	if o.registry != nil {
		provider = metrics.NewMetricsTrie(p.trie)
	}
	if err := provider.HandleMetrics(); err != nil {
		return nil, err
	}
	return p, nil
}

func (o *options) load() (*partition, error) {
	logger := log.WithField("file", o.file)

	rs, err := ruleset.Load(o.file)
	if err != nil {
		return nil, err
	}
	dups, err := rs.Duplicates()
	if err != nil {
		return nil, err
	}
	for _, d := range dups {
		logger.WithFields(log.Fields{"first": d.First, "second": d.Second}).Warn("predicates are defined identically")
	}

	e, err := rs.NewEngine()
	if err != nil {
		return nil, err
	}
	c, err := headerspace.NewCompiler(rs.Layout(), e)
	if err != nil {
		return nil, errors.Wrap(err, "creating compiler")
	}
	named, err := rs.Compile(e)
	if err != nil {
		return nil, err
	}
	regions := make([]region.Region, len(named))
	for i, n := range named {
		regions[i] = n.Region
	}

	t, err := trie.New(e, regions, trie.WithLogger(logger), trie.WithRecorder(metrics.Recorder{}))
	if err != nil {
		return nil, errors.Wrap(err, "building trie")
	}
	if err := e.Err(); err != nil {
		return nil, errors.Wrap(err, "building trie")
	}
	logger.WithFields(log.Fields{
		"predicates": len(named),
		"layout":     rs.Layout(),
	}).Debug("loaded ruleset")

	return &partition{rules: rs, compiler: c, named: named, trie: t}, nil
}

// owners maps every atomic predicate id to the names of the predicates
// that contain it, in document order.
func (p *partition) owners() map[int][]string {
	out := make(map[int][]string)
	for _, n := range p.named {
		for _, id := range p.trie.AtomicPredicateIDs(n.Region) {
			out[id] = append(out[id], n.Name)
		}
	}
	return out
}

func (p *partition) witness(r region.Region) string {
	h, ok := p.compiler.Witness(r.(*bdd.Region))
	if !ok {
		return "-"
	}
	return h.String()
}
