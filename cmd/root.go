package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

type rootOptions struct {
	envFile string
	port    string
}

// Execute runs the command line. Without a subcommand the API server starts.
func Execute() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "apartment-booking: %v\n", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}
	serve := newServeCommand(opts)

	cmd := &cobra.Command{
		Use:           "apartment-booking",
		Short:         "Short-let apartment booking API",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          serve.RunE,
	}

	cmd.PersistentFlags().StringVar(&opts.envFile, "env", ".env", "path to the .env configuration file")
	cmd.PersistentFlags().StringVar(&opts.port, "port", "", "HTTP listen port (overrides PORT)")

	cmd.AddCommand(serve, newQuoteCommand(opts), newMigrateCommand(opts))
	return cmd
}
