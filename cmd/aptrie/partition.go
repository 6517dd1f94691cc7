package main

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/netverify/aptrie/pkg/region/bdd"
)

func newPartitionCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "partition",
		Short: "Print the atomic predicates of a ruleset",
		Long: `The aptrie partition command builds the trie of every predicate in the
        ruleset and prints one line per atomic predicate: its id, the number of
        headers it holds, the predicates containing it and one example header.

        $ aptrie partition -f rules.yaml
        `,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := o.build()
			if err != nil {
				return err
			}
			return printPartition(o.out, p)
		},
	}
}

func printPartition(out io.Writer, p *partition) error {
	atoms := p.trie.AtomicPredicateMap()
	ids := make([]int, 0, len(atoms))
	for id := range atoms {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	owners := p.owners()

	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tHEADERS\tPREDICATES\tWITNESS")
	for _, id := range ids {
		r := atoms[id]
		names := "-"
		if len(owners[id]) > 0 {
			names = strings.Join(owners[id], ",")
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", id, r.(*bdd.Region).Satcount(), names, p.witness(r))
	}
	return w.Flush()
}
