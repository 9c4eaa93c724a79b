package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/flowbuilder/pkg/cache"
)

func (c *CLI) snapshotCommand() *cobra.Command {
	var hashOnly bool

	cmd := &cobra.Command{
		Use:   "snapshot [graph.json]",
		Short: "Print the canonical snapshot of a graph",
		Long: `Print the canonical snapshot of a graph.

The snapshot ignores node and edge order and sub-millimetre position noise,
so two files describing the same graph print the same snapshot.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := c.openSession(cmd.Context(), args[0], true, nil)
			if err != nil {
				return err
			}
			defer sess.Close()

			snap := sess.Snapshot()
			if hashOnly {
				fmt.Fprintln(stdout, cache.Hash([]byte(snap)))
				return nil
			}
			fmt.Fprintln(stdout, snap)
			return nil
		},
	}
	cmd.Flags().BoolVar(&hashOnly, "hash", false, "print only the snapshot hash")
	return cmd
}
