package commands

import (
	"fmt"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/coregx/ntfy"
)

// newServersCommand constructs the `servers` command.
func newServersCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "servers [server]",
		Short: "List configured servers and their topics",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := a.newRegistry()
			if err != nil {
				return err
			}

			profiles := reg.Servers()
			if len(args) == 1 {
				p, ok := a.cfg.Profile(args[0])
				if !ok {
					return fmt.Errorf("unknown server %q\n\nAvailable:\n%s", args[0], reg.Describe())
				}
				profiles = []ntfy.ServerProfile{p}
			}

			table := tablewriter.NewWriter(cmd.OutOrStdout())
			table.SetHeader([]string{"Server", "URL", "Auth", "Topics", "Topic IDs"})
			table.SetAutoWrapText(false)
			for _, p := range profiles {
				ids := make([]string, len(p.Topics))
				for i, t := range p.Topics {
					ids[i] = ntfy.TopicID(p.Name, t)
				}
				table.Append([]string{p.Name, p.BaseURL, authKind(p), strings.Join(p.Topics, ", "), strings.Join(ids, ", ")})
			}
			table.Render()
			return nil
		},
	}
}

func authKind(p ntfy.ServerProfile) string {
	switch {
	case p.Token != "":
		return "token"
	case p.Username != "":
		return "basic"
	default:
		return "-"
	}
}
