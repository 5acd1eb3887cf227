package cli

import (
	"fmt"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/raysh454/postdesk/internal/webclient"
)

func newBackendsCommand(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "backends",
		Short: "List transport backends and the actions bound to each",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := o.load()
			if err != nil {
				return err
			}

			bound := map[string][]string{}
			for _, name := range cfg.ActionNames() {
				b := cfg.Actions[name]
				backend := string(b.Backend)
				if backend == "" {
					backend = string(cfg.WebClient.Client)
				}
				bound[backend] = append(bound[backend], name+" "+b.Method)
			}

			tw := tabwriter.NewWriter(o.out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "BACKEND\tACTIONS")
			for _, name := range webclient.ListBackends() {
				actions := bound[name]
				sort.Strings(actions)
				list := strings.Join(actions, ", ")
				if list == "" {
					list = "-"
				}
				fmt.Fprintf(tw, "%s\t%s\n", name, list)
			}
			return tw.Flush()
		},
	}
}
