package main

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/netverify/aptrie/pkg/ruleset"
)

func newQueryCmd(o *options) *cobra.Command {
	var workers int
	cmd := &cobra.Command{
		Use:   "query [predicate...]",
		Short: "Print the atomic predicate ids of named predicates",
		Long: `The aptrie query command prints, for each named predicate, the ids of the
        atomic predicates whose union is the predicate. Without arguments every
        predicate of the ruleset is queried.

        $ aptrie query -f rules.yaml web dns
        `,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := o.build()
			if err != nil {
				return err
			}
			if len(args) == 0 {
				args = p.rules.Names()
			}
			results, err := p.query(cmd.Context(), args, workers)
			if err != nil {
				return err
			}
			for i, name := range args {
				fmt.Fprintf(o.out, "%s: %v\n", name, results[i])
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&workers, "workers", "w", 4, "Number of concurrent queries.")
	return cmd
}

// query resolves the named predicates concurrently. Results are in the
// order of names.
func (p *partition) query(ctx context.Context, names []string, workers int) ([][]int, error) {
	byName := make(map[string]ruleset.NamedRegion, len(p.named))
	for _, n := range p.named {
		byName[n.Name] = n
	}
	for _, name := range names {
		if _, ok := byName[name]; !ok {
			return nil, errors.Errorf("unknown predicate %q", name)
		}
	}

	results := make([][]int, len(names))
	g, ctx := errgroup.WithContext(ctx)
	if workers > 0 {
		g.SetLimit(workers)
	}
	for i, name := range names {
		i, r := i, byName[name].Region
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			results[i] = p.trie.AtomicPredicateIDs(r)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
