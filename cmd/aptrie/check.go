package main

import (
	"fmt"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/netverify/aptrie/pkg/region"
)

func newCheckCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Verify the trie built from a ruleset",
		Long: `The aptrie check command builds the trie of a ruleset, validates its
        structure and verifies that its atomic predicates partition the header
        space. It exits non-zero when a check fails.

        $ aptrie check -f rules.yaml
        `,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := o.build()
			if err != nil {
				return err
			}
			return p.check(o)
		},
	}
}

func (p *partition) check(o *options) error {
	violations := p.trie.Violations()
	for _, v := range violations {
		log.WithFields(log.Fields{"kind": v.Kind, "path": v.Path, "child": v.ChildIndex}).Error(v.Message)
	}
	if len(violations) > 0 {
		return errors.Errorf("%d invariant violations", len(violations))
	}

	atoms := p.trie.AtomicPredicates()
	e := p.compiler.Engine()
	seen := e.Empty()
	for _, a := range atoms {
		if !region.Disjoint(seen, a) {
			return errors.New("atomic predicates overlap")
		}
		seen = seen.Union(a)
	}
	if !seen.IsUniversal() {
		return errors.New("atomic predicates do not cover the header space")
	}

	for _, n := range p.named {
		var parts []region.Region
		for _, id := range p.trie.AtomicPredicateIDs(n.Region) {
			r, _ := p.trie.ExclusiveRegion(id)
			parts = append(parts, r)
		}
		union := region.UnionAll(e, parts...)
		if missing := region.Difference(n.Region, union); !missing.IsEmpty() {
			return errors.Errorf("atomic predicates of %q miss %s", n.Name, p.witness(missing))
		}
		if extra := region.Difference(union, n.Region); !extra.IsEmpty() {
			return errors.Errorf("atomic predicates of %q exceed it at %s", n.Name, p.witness(extra))
		}
	}

	fmt.Fprintf(o.out, "ok: %d predicates, %d nodes, %d atomic predicates\n", len(p.named), p.trie.Len(), len(atoms))
	return nil
}
