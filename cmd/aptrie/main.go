package main

import (
	"context"
	"io"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/netverify/aptrie/pkg/lib/signals"
	"github.com/netverify/aptrie/pkg/metrics"
)

type options struct {
	file    string
	debug   bool
	metrics bool

	out           io.Writer
	registry      *prometheus.Registry
	signalContext func() context.Context
}

func main() {
	o := &options{
		out:           os.Stdout,
		signalContext: signals.Context,
	}
	if err := newRootCmd(o).Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd(o *options) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "aptrie",
		Short: "aptrie",
		Long: `A CLI tool to partition named header-space predicates into atomic
predicates and to inspect the resulting trie.`,
		SilenceUsage: true,

		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if o.debug {
				log.SetLevel(log.DebugLevel)
			}
			if o.metrics {
				o.registry = prometheus.NewRegistry()
				return metrics.Register(o.registry)
			}
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if o.registry == nil {
				return nil
			}
			return metrics.WriteText(o.out, o.registry)
		},
	}
	rootCmd.SetOut(o.out)

	o.bindFlags(rootCmd.PersistentFlags())

	rootCmd.AddCommand(
		newPartitionCmd(o),
		newQueryCmd(o),
		newCheckCmd(o),
		newOverlapsCmd(o),
		newWatchCmd(o),
		newVersionCmd(o),
	)
	return rootCmd
}

func (o *options) bindFlags(flags *pflag.FlagSet) {
	flags.StringVarP(&o.file, "file", "f", "rules.yaml", "The ruleset document to load.")
	flags.BoolVar(&o.metrics, "metrics", false, "print trie metrics in the Prometheus text format on exit")
	flags.BoolVar(&o.debug, "debug", false, "enable debug logging")
	if err := flags.MarkHidden("debug"); err != nil {
		log.Panic(err.Error())
	}
}
