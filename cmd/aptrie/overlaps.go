package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/netverify/aptrie/pkg/headerspace"
)

func newOverlapsCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "overlaps",
		Short: "Print pairs of predicates that share a header",
		Long: `The aptrie overlaps command checks every pair of predicates with a SAT
        solver, independently of the trie, and prints each overlapping pair
        together with a header both accept.

        $ aptrie overlaps -f rules.yaml
        `,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := o.build()
			if err != nil {
				return err
			}
			return p.overlaps(o)
		},
	}
}

func (p *partition) overlaps(o *options) error {
	l := p.rules.Layout()
	preds := p.rules.Predicates

	w := tabwriter.NewWriter(o.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "FIRST\tSECOND\tWITNESS")
	for i := range preds {
		for j := i + 1; j < len(preds); j++ {
			h, ok := headerspace.Overlap(l, preds[i], preds[j])
			if !ok {
				continue
			}
			fmt.Fprintf(w, "%s\t%s\t%s\n", preds[i].Name, preds[j].Name, h)
		}
	}
	return w.Flush()
}
