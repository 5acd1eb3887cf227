// Package cli holds the postdesk command tree.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/raysh454/postdesk/internal/app"
	"github.com/raysh454/postdesk/internal/logging"
)

var (
	// ErrActionFailed means the action ran and its message was an error.
	// The message has already been printed.
	ErrActionFailed = errors.New("action reported an error")

	// ErrDiverged means two backends rendered different messages.
	ErrDiverged = errors.New("backends produced different messages")
)

// Silent reports whether err was already shown to the user, so main only
// needs to set the exit status.
func Silent(err error) bool {
	return errors.Is(err, ErrActionFailed) || errors.Is(err, ErrDiverged)
}

var (
	errorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	okStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	mutedStyle = lipgloss.NewStyle().Faint(true)
)

// options are the persistent flags shared by every subcommand.
type options struct {
	configPath string
	baseURL    string
	logLevel   string

	out    io.Writer
	errOut io.Writer
}

// load resolves defaults, the config file and flags, in that order.
func (o *options) load() (*app.Config, error) {
	cfg, err := app.LoadConfig(o.configPath)
	if err != nil {
		return nil, err
	}
	if o.baseURL != "" {
		cfg.BaseURL = o.baseURL
	}
	if o.logLevel != "" {
		cfg.LogLevel = o.logLevel
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// logger writes JSON lines to w at the configured level.
func (o *options) logger(cfg *app.Config, w io.Writer) logging.Logger {
	level, _ := logging.ParseLevel(cfg.LogLevel)
	return logging.NewLogger(w, "postdesk", level)
}

// NewRootCommand builds the command tree. out receives results, errOut
// receives logs.
func NewRootCommand(out, errOut io.Writer) *cobra.Command {
	o := &options{out: out, errOut: errOut}

	root := &cobra.Command{
		Use:   "postdesk",
		Short: "Send GET, POST and PUT requests to a posts collection and show the result",
		Long: `postdesk triggers four fixed actions (fetch, xhr, post, put) against a REST
posts collection through interchangeable transport backends and renders the
outcome as a single display message. It runs as a one-shot CLI, a web page,
or a terminal UI.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(out)
	root.SetErr(errOut)

	root.PersistentFlags().StringVar(&o.configPath, "config", "", "YAML config file")
	root.PersistentFlags().StringVar(&o.baseURL, "base-url", "", "posts collection URL (default "+app.DefaultBaseURL+")")
	root.PersistentFlags().StringVar(&o.logLevel, "log-level", "", "debug|info|warn|error")

	root.AddCommand(
		newRunCommand(o),
		newCompareCommand(o),
		newServeCommand(o),
		newTUICommand(o),
		newDemoCommand(o),
		newBackendsCommand(o),
	)
	return root
}

// Execute runs the command tree with args.
func Execute(ctx context.Context, args []string, out, errOut io.Writer) error {
	root := NewRootCommand(out, errOut)
	root.SetArgs(args)
	if err := root.ExecuteContext(ctx); err != nil {
		if !Silent(err) {
			fmt.Fprintln(errOut, errorStyle.Render("Error: "+err.Error()))
		}
		return err
	}
	return nil
}
