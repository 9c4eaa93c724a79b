package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/flowbuilder/pkg/layout"
)

// Axes for arrange commands. Horizontal alignment puts nodes on one row;
// horizontal distribution spaces them along x.
const (
	axisHorizontal = "horizontal"
	axisVertical   = "vertical"
)

type arrangeFlags struct {
	output string
	axis   string
	nodes  []string
}

func (f *arrangeFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.output, "output", "o", "", "output file (default: rewrite the input)")
	cmd.Flags().StringVar(&f.axis, "axis", axisHorizontal, "axis: horizontal or vertical")
	cmd.Flags().StringSliceVarP(&f.nodes, "nodes", "n", nil, "node ids to arrange (default: all nodes)")
}

func (f *arrangeFlags) horizontal() (bool, error) {
	switch strings.ToLower(f.axis) {
	case axisHorizontal, "h", "x":
		return true, nil
	case axisVertical, "v", "y":
		return false, nil
	default:
		return false, fmt.Errorf("unknown axis %q (want horizontal or vertical)", f.axis)
	}
}

// arrangeCommand groups the selection-based alignment tools.
func (c *CLI) arrangeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "arrange",
		Short: "Align or distribute nodes",
	}
	cmd.AddCommand(c.alignCommand())
	cmd.AddCommand(c.distributeCommand())
	return cmd
}

func (c *CLI) alignCommand() *cobra.Command {
	var (
		flags  arrangeFlags
		anchor string
	)
	cmd := &cobra.Command{
		Use:   "align [graph.json]",
		Short: "Line nodes up on a common row or column",
		Long: `Line nodes up on a common row or column.

With --axis horizontal the nodes share a y coordinate: their top, middle or
bottom (--anchor start, center or end). With --axis vertical they share an x
coordinate: their left, center or right. Fewer than two nodes is a no-op.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			horizontal, err := flags.horizontal()
			if err != nil {
				return err
			}
			a := layout.ParseAnchor(anchor)
			return c.runArrange(cmd.Context(), args[0], flags, func(s *fileSession) bool {
				if horizontal {
					return s.AlignHorizontal(a)
				}
				return s.AlignVertical(a)
			})
		},
	}
	flags.register(cmd)
	cmd.Flags().StringVar(&anchor, "anchor", string(layout.AnchorStart), "reference line: start, center or end")
	return cmd
}

func (c *CLI) distributeCommand() *cobra.Command {
	var flags arrangeFlags
	cmd := &cobra.Command{
		Use:   "distribute [graph.json]",
		Short: "Space nodes evenly between the outermost two",
		Long: `Space nodes evenly between the outermost two.

The first and last nodes along the axis keep their positions and the others
are spread between them. At least three nodes are needed.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			horizontal, err := flags.horizontal()
			if err != nil {
				return err
			}
			return c.runArrange(cmd.Context(), args[0], flags, func(s *fileSession) bool {
				if horizontal {
					return s.DistributeHorizontally()
				}
				return s.DistributeVertically()
			})
		},
	}
	flags.register(cmd)
	return cmd
}

func (c *CLI) runArrange(ctx context.Context, input string, flags arrangeFlags, apply func(*fileSession) bool) error {
	sess, err := c.openSession(ctx, input, true, nil)
	if err != nil {
		return err
	}
	defer sess.Close()

	ids := flags.nodes
	if len(ids) == 0 {
		for _, n := range sess.Nodes() {
			ids = append(ids, n.ID)
		}
	}
	sess.Select(ids...)
	if got := len(sess.Selection()); got < len(ids) {
		printWarning("%d of %d node ids not found", len(ids)-got, len(ids))
	}

	if !apply(sess) {
		printInfo("Nothing to change")
		return nil
	}
	path, err := sess.save(flags.output)
	if err != nil {
		return err
	}
	printSuccess("Arranged %d nodes", len(sess.Selection()))
	printFile(path)
	return nil
}
