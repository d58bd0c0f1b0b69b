package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"AgentKit-Chain/internal/schema"
)

func newActionsCmd(opts Options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "actions",
		Short: "List and execute agent actions",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List the registered actions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := buildApp(cmd, opts, true)
			if err != nil {
				return err
			}
			defer app.Close(context.WithoutCancel(cmd.Context()))

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tPARAMETERS\tDESCRIPTION")
			for _, a := range app.Actions.List() {
				names := make([]string, 0, len(a.Schema))
				for _, f := range a.Schema {
					names = append(names, f.Name)
				}
				fmt.Fprintf(w, "%s\t%v\t%s\n", a.Name, names, summary(a.Description))
			}
			return w.Flush()
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "call <name> [params-json]",
		Short: "Execute an action with a JSON object of parameters; '-' reads stdin",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			input, err := readInput(cmd, args)
			if err != nil {
				return err
			}
			params, err := schema.Decode(input)
			if err != nil {
				return exitFor(err)
			}
			app, err := buildApp(cmd, opts, true)
			if err != nil {
				return err
			}
			defer app.Close(context.WithoutCancel(cmd.Context()))

			result, err := app.Actions.Execute(cmd.Context(), args[0], params)
			if err != nil {
				return exitFor(err)
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(result)
		},
	})
	return cmd
}
