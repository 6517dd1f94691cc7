package main

import (
	"fmt"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/netverify/aptrie/pkg/lib/filemonitor"
	"github.com/netverify/aptrie/pkg/metrics"
)

func newWatchCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Rebuild the partition whenever the ruleset changes",
		Long: `The aptrie watch command prints the partition of a ruleset, then rebuilds
        and prints it again every time the file changes, until interrupted.
        A ruleset that fails to load is reported and the previous partition is
        kept.

        $ aptrie watch -f rules.yaml
        `,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := o.build()
			if err != nil {
				return err
			}
			if err := printPartition(o.out, p); err != nil {
				return err
			}

			generation := 1
			done, err := filemonitor.WatchFile(o.signalContext(), log.StandardLogger(), o.file, func() error {
				p, err := o.build()
				metrics.EmitReload(err)
				if err != nil {
					return err
				}
				generation++
				fmt.Fprintf(o.out, "\n# generation %d\n", generation)
				return printPartition(o.out, p)
			})
			if err != nil {
				return err
			}
			<-done
			return nil
		},
	}
}
