package cli

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/sergi/go-diff/diffmatchpatch"
	"github.com/spf13/cobra"

	"github.com/raysh454/postdesk/internal/app"
	"github.com/raysh454/postdesk/internal/presenter"
	"github.com/raysh454/postdesk/internal/webclient"
)

type formFlags struct {
	id, title, body string
}

func (f *formFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.id, "id", "", "post id (PUT only)")
	cmd.Flags().StringVar(&f.title, "title", "", "post title")
	cmd.Flags().StringVar(&f.body, "body", "", "post body")
}

func (f *formFlags) form() app.Form {
	return app.Form{ID: f.id, Title: f.title, Body: f.body}
}

func printMessage(w io.Writer, msg presenter.DisplayMessage) {
	if msg.IsError {
		fmt.Fprintln(w, errorStyle.Render(msg.Text))
		return
	}
	fmt.Fprintln(w, msg.Text)
}

// shutdown gives in-flight work a few seconds before closing clients.
func shutdown(a *app.Application) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = a.Shutdown(ctx)
}

func newRunCommand(o *options) *cobra.Command {
	var (
		ff      formFlags
		backend string
	)
	cmd := &cobra.Command{
		Use:   "run <action>",
		Short: "Run one action and print its display message",
		Example: `  postdesk run fetch
  postdesk run post --title hello --body world
  postdesk run put --id 5 --title hello --body world --backend callback`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := o.load()
			if err != nil {
				return err
			}
			action := args[0]
			if backend != "" {
				b, ok := cfg.Actions[action]
				if !ok {
					return fmt.Errorf("%w: %q", app.ErrUnknownAction, action)
				}
				b.Backend = webclient.Client(backend)
				cfg.Actions[action] = b
			}

			a := app.NewApplication(cfg, o.logger(cfg, o.errOut), &presenter.Slot{}, nil)
			defer shutdown(a)

			msg, err := a.Run(cmd.Context(), action, ff.form())
			if err != nil {
				return err
			}
			printMessage(o.out, msg)
			if msg.IsError {
				return ErrActionFailed
			}
			return nil
		},
	}
	ff.register(cmd)
	cmd.Flags().StringVar(&backend, "backend", "", "override the action's transport backend")
	return cmd
}

func newCompareCommand(o *options) *cobra.Command {
	var (
		ff      formFlags
		against string
	)
	cmd := &cobra.Command{
		Use:   "compare <action>",
		Short: "Run an action through its backend and another one and diff the results",
		Example: `  postdesk compare fetch --against callback
  postdesk compare put --id 5 --title t --body b --against chromedp`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := o.load()
			if err != nil {
				return err
			}
			action := args[0]
			binding, ok := cfg.Actions[action]
			if !ok {
				return fmt.Errorf("%w: %q", app.ErrUnknownAction, action)
			}
			bound := binding.Backend
			if bound == "" {
				bound = cfg.WebClient.Client
			}

			a := app.NewApplication(cfg, o.logger(cfg, o.errOut), nil, nil)
			defer shutdown(a)

			left, right, err := a.Compare(cmd.Context(), action, webclient.Client(against), ff.form())
			if err != nil {
				return err
			}

			fmt.Fprintln(o.out, mutedStyle.Render("── "+string(bound)+" ──"))
			printMessage(o.out, left)
			fmt.Fprintln(o.out, mutedStyle.Render("── "+against+" ──"))
			printMessage(o.out, right)

			if left == right {
				fmt.Fprintln(o.out, okStyle.Render("identical"))
				return nil
			}
			fmt.Fprintln(o.out, mutedStyle.Render("── diff ──"))
			fmt.Fprintln(o.out, diffText(left, right))
			return ErrDiverged
		},
	}
	ff.register(cmd)
	cmd.Flags().StringVar(&against, "against", string(webclient.ClientCallback), "backend to compare with")
	return cmd
}

// diffText renders a character diff of two messages, including the error flag.
func diffText(left, right presenter.DisplayMessage) string {
	dmp := diffmatchpatch.New()
	diffs := dmp.DiffCleanupSemantic(dmp.DiffMain(describe(left), describe(right), false))
	return dmp.DiffPrettyText(diffs)
}

func describe(m presenter.DisplayMessage) string {
	var b strings.Builder
	if m.IsError {
		b.WriteString("[error] ")
	}
	b.WriteString(m.Text)
	return b.String()
}
