package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/netverify/aptrie/pkg/version"
)

func newVersionCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the aptrie version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := fmt.Fprint(o.out, version.String())
			return err
		},
	}
}
