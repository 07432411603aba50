// Package cli wires configuration, fetching, the search pipeline and the
// report sinks into the serprank command.
package cli

import (
	"context"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/FranksOps/serprank/internal/config"
	"github.com/FranksOps/serprank/internal/pipeline"
	"github.com/FranksOps/serprank/pkg/delay"
)

// app carries what a run needs beyond the parsed configuration.
type app struct {
	stdout io.Writer
	// baseURL overrides the search engine host.
	baseURL string
	sleeper pipeline.Sleeper
}

func newApp() *app {
	return &app{
		stdout:  os.Stdout,
		sleeper: delay.New(),
	}
}

// NewRootCmd returns the serprank command tree.
func NewRootCmd() *cobra.Command {
	return newRootCmd(newApp())
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "serprank",
		Short: "Track where a domain ranks in search results",
		Long: `serprank searches each keyword on Google or Bing, walks the result
pages until the target domain shows up and records its rank, page and URL
together with the competing results.

Results are written to a spreadsheet with one "Main Results" sheet and one
competitor sheet per keyword. Runs can also be stored as rank history.`,
		Example: `  serprank -d example.com -k "running shoes,trail shoes" -p 3
  serprank -c config.yaml --use-browser
  serprank history --history sqlite://ranks.db --keyword "running shoes"`,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
		Args:         cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.run(cmd.Context(), cmd)
		},
	}
	root.SetOut(a.stdout)

	root.Flags().StringP("config", "c", config.DefaultFile, "config file (YAML or JSON)")
	config.RegisterFlags(root.Flags())

	root.AddCommand(newHistoryCmd())
	return root
}

// Execute runs the root command with ctx.
func Execute(ctx context.Context) error {
	return NewRootCmd().ExecuteContext(ctx)
}
