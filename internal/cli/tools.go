package cli

import (
	"context"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"AgentKit-Chain/internal/tools"
)

func newToolsCmd(opts Options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tools",
		Short: "List and call agent tools",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List the registered tools",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := buildApp(cmd, opts, true)
			if err != nil {
				return err
			}
			defer app.Close(context.WithoutCancel(cmd.Context()))

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tDESCRIPTION")
			for _, t := range app.Tools {
				fmt.Fprintf(w, "%s\t%s\n", t.Name(), summary(t.Description()))
			}
			return w.Flush()
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "call <name> [input]",
		Short: "Call a tool with a raw JSON input; '-' reads stdin",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			input, err := readInput(cmd, args)
			if err != nil {
				return err
			}
			app, err := buildApp(cmd, opts, true)
			if err != nil {
				return err
			}
			defer app.Close(context.WithoutCancel(cmd.Context()))

			tool, err := tools.Lookup(app.Tools, args[0])
			if err != nil {
				return exitFor(err)
			}
			env := tool.Run(cmd.Context(), input)
			fmt.Fprintln(cmd.OutOrStdout(), tools.Encode(env))
			if !env.Succeeded() {
				return exitError(exitToolError, "tool %s reported an error", tool.Name())
			}
			return nil
		},
	})
	return cmd
}

func readInput(cmd *cobra.Command, args []string) (string, error) {
	if len(args) < 2 {
		return "", nil
	}
	if args[1] != "-" {
		return args[1], nil
	}
	data, err := io.ReadAll(cmd.InOrStdin())
	if err != nil {
		return "", exitError(exitRuntime, "读取标准输入失败: %s", err)
	}
	return string(data), nil
}

// summary returns the first line of a description.
func summary(description string) string {
	line, _, _ := strings.Cut(strings.TrimSpace(description), "\n")
	return line
}
