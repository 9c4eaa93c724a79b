package cli

import (
	"context"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/matzehuels/flowbuilder/pkg/graph"
	"github.com/matzehuels/flowbuilder/pkg/store"
)

// draftsCommand manages drafts in the configured store.
func (c *CLI) draftsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "drafts",
		Short: "Manage stored graph drafts",
	}

	cmd.AddCommand(c.draftsListCommand())
	cmd.AddCommand(c.draftsPushCommand())
	cmd.AddCommand(c.draftsPullCommand())
	cmd.AddCommand(c.draftsPickCommand())
	cmd.AddCommand(c.draftsDeleteCommand())

	return cmd
}

// withStore opens the store for the duration of fn.
func (c *CLI) withStore(ctx context.Context, fn func(store.Store) error) error {
	st, err := c.openStore(ctx)
	if err != nil {
		return err
	}
	defer st.Close()
	return fn(st)
}

func (c *CLI) draftsListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List stored drafts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withStore(cmd.Context(), func(st store.Store) error {
				infos, err := st.List(cmd.Context())
				if err != nil {
					return err
				}
				if len(infos) == 0 {
					printInfo("No drafts in %s", c.Config.Store.String())
					return nil
				}
				now := time.Now()
				rows := make([][]string, len(infos))
				for i, d := range infos {
					rows[i] = []string{"", d.ID, d.Name, strconv.Itoa(d.Nodes), strconv.Itoa(d.Edges), formatRelativeTime(d.UpdatedAt, now)}
				}
				fmt.Fprintln(stdout, draftTable(rows).Render())
				return nil
			})
		},
	}
}

func (c *CLI) draftsPushCommand() *cobra.Command {
	var id string

	cmd := &cobra.Command{
		Use:   "push [graph.json]",
		Short: "Store a graph file as a draft",
		Long: `Store a graph file as a draft.

The graph is normalized on the way in: invalid nodes and dangling edges are
dropped and empty handles are resolved. The draft id defaults to the file
name without its extension.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if id == "" {
				id = draftID(args[0])
			}
			sess, err := c.openSession(ctx, args[0], true, nil)
			if err != nil {
				return err
			}
			defer sess.Close()

			return c.withStore(ctx, func(st store.Store) error {
				p := sess.Payload()
				if err := st.Save(ctx, id, p); err != nil {
					return err
				}
				printSuccess("Pushed %s", id)
				printStats(len(p.Nodes), len(p.Edges), false)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&id, "id", "", "draft id (default: file name)")
	return cmd
}

func (c *CLI) draftsPullCommand() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "pull [id]",
		Short: "Write a stored draft to a file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withStore(cmd.Context(), func(st store.Store) error {
				return c.pull(cmd.Context(), st, args[0], output)
			})
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: <id>.json)")
	return cmd
}

func (c *CLI) pull(ctx context.Context, st store.Store, id, output string) error {
	p, err := st.Load(ctx, id)
	if err != nil {
		return err
	}
	if output == "" {
		output = id + ".json"
	}
	if err := graph.WritePayloadFile(p, output); err != nil {
		return err
	}
	printSuccess("Pulled %s", id)
	printFile(output)
	return nil
}

func (c *CLI) draftsPickCommand() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "pick",
		Short: "Choose a draft interactively and pull it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			return c.withStore(ctx, func(st store.Store) error {
				infos, err := st.List(ctx)
				if err != nil {
					return err
				}
				if len(infos) == 0 {
					printInfo("No drafts in %s", c.Config.Store.String())
					return nil
				}

				final, err := tea.NewProgram(NewDraftListModel(infos), tea.WithContext(ctx)).Run()
				if err != nil {
					return fmt.Errorf("draft picker: %w", err)
				}
				m, ok := final.(DraftListModel)
				if !ok || m.Selected == nil {
					printInfo("Nothing selected")
					return nil
				}
				return c.pull(ctx, st, m.Selected.ID, output)
			})
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: <id>.json)")
	return cmd
}

func (c *CLI) draftsDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "delete [id...]",
		Aliases: []string{"rm"},
		Short:   "Delete stored drafts",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withStore(cmd.Context(), func(st store.Store) error {
				for _, id := range args {
					if err := st.Delete(cmd.Context(), id); err != nil {
						return err
					}
					printSuccess("Deleted %s", id)
				}
				return nil
			})
		},
	}
}

// draftID derives a draft id from a file path.
func draftID(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
