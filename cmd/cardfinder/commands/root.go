package commands

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/keponer/cardmarket-card-finder/internal/app"
	"github.com/keponer/cardmarket-card-finder/internal/logging"
	"github.com/keponer/cardmarket-card-finder/pkg/config"

	"github.com/spf13/cobra"
)

const (
	ExitOK      = 0
	ExitFailure = 1
	ExitUsage   = 2
)

type options struct {
	flags   app.Flags
	config  string
	table   bool
	verbose bool
}

// NewRootCmd builds the cardfinder command reading and writing the given
// streams.
func NewRootCmd(stdin io.Reader, stdout, stderr io.Writer) *cobra.Command {
	var opts options

	cmd := &cobra.Command{
		Use:   "cardfinder",
		Short: "cardfinder finds Cardmarket sellers that offer every card you want.",
		Long: `Without flags cardfinder asks for a cookie and then for comma-separated
product URLs, and prints the sellers listed on all of them with their prices.

With --url and --cookie it fetches one page and prints its form tokens and
sellers. With --post-url it sends a multipart form and prints the result.`,
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) > 0 {
				return &app.InvalidArgumentsError{Msg: fmt.Sprintf("unexpected arguments: %v", args)}
			}
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			// flags are validated before any config or network work
			req, err := app.ParseFlags(opts.flags)
			if err != nil {
				return err
			}

			cfg, err := config.Load(opts.config)
			if err != nil {
				return err
			}
			if opts.verbose {
				cfg.Log.Level = "debug"
			}
			if opts.table {
				cfg.Output.Format = "table"
			}
			if err := logging.Setup(cfg.Log, stderr); err != nil {
				return err
			}

			return app.New(cfg, stdin, stdout, stderr).Run(cmd.Context(), req)
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.flags.URL, "url", "", "URL to GET (requires --cookie)")
	f.StringVar(&opts.flags.Cookie, "cookie", "", "Cookie header value to send")
	f.StringArrayVar(&opts.flags.Headers, "header", nil, "extra header as 'Name: value' (repeatable)")
	f.StringVar(&opts.flags.PostURL, "post-url", "", "URL to POST a multipart form to")
	f.StringArrayVar(&opts.flags.Forms, "form", nil, "form field as key=value (repeatable)")
	f.StringArrayVar(&opts.flags.Files, "file", nil, "file field as field=path (repeatable)")
	f.BoolVar(&opts.flags.Raw, "raw", false, "print the raw response instead of parsing it")
	f.StringVar(&opts.config, "config", "config.yml", "path to the config file")
	f.BoolVar(&opts.table, "table", false, "render compared prices as a table")
	f.BoolVarP(&opts.verbose, "verbose", "v", false, "enable debug logging")

	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return &app.InvalidArgumentsError{Msg: err.Error()}
	})
	cmd.SetIn(stdin)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	return cmd
}

// ExitCode maps a command error to the process exit status.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	var invalid *app.InvalidArgumentsError
	if errors.As(err, &invalid) {
		return ExitUsage
	}
	return ExitFailure
}

// Execute runs the command with args and returns the exit status. Errors
// are printed to stderr.
func Execute(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	cmd := NewRootCmd(stdin, stdout, stderr)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(ctx)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
	}
	return ExitCode(err)
}
