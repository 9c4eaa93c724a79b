package cli

import (
	"encoding/json"
	"errors"

	"github.com/spf13/cobra"

	"github.com/matzehuels/flowbuilder/pkg/graph"
)

// errCheckFailed makes the process exit non-zero after the report has
// been printed.
var errCheckFailed = errors.New("graph check failed")

func (c *CLI) checkCommand() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "check [graph.json]",
		Short: "Validate a graph against the node registry",
		Long: `Validate a graph against the node registry.

Errors are duplicate ids, dangling edges, incompatible ports and cycles.
Warnings are unknown node types, unconnected required inputs and isolated
nodes. The command fails when there is at least one error.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := c.openSession(cmd.Context(), args[0], true, nil)
			if err != nil {
				return err
			}
			defer sess.Close()

			report := sess.Check()
			if asJSON {
				enc := json.NewEncoder(stdout)
				enc.SetIndent("", "  ")
				if err := enc.Encode(report); err != nil {
					return err
				}
			} else {
				printReport(report)
			}
			if !report.OK() {
				return errCheckFailed
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the report as JSON")
	return cmd
}

func printReport(r graph.Report) {
	for _, is := range r.Issues {
		printIssue(is)
	}
	errs, warns := r.Count(graph.SeverityError), r.Count(graph.SeverityWarning)
	switch {
	case errs > 0:
		printNewline()
		printError("%d errors, %d warnings", errs, warns)
	case warns > 0:
		printNewline()
		printSuccess("No errors, %d warnings", warns)
	default:
		printSuccess("Graph is valid")
	}
}
