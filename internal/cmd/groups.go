package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/Digital-Shane/movie-meta/internal/core"
	"github.com/Digital-Shane/movie-meta/internal/group"
	"github.com/spf13/cobra"
)

var groupsCmd = &cobra.Command{
	Use:   "groups [name]",
	Short: "List scraper groups or show one group's assignments",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := ""
		if len(args) == 1 {
			name = args[0]
		}
		return runGroups(currentGlobals(), name, cmd.OutOrStdout(), cmd.ErrOrStderr())
	},
}

func init() {
	rootCmd.AddCommand(groupsCmd)
}

func runGroups(globals globalOptions, name string, stdout, stderr io.Writer) error {
	e, err := loadEnv(globals, stdout, stderr)
	if err != nil {
		return err
	}
	defer e.close()

	if name = strings.TrimSpace(name); name != "" {
		g, ok := e.groups.Group(name)
		if !ok {
			return fmt.Errorf("%w: %s", core.ErrUnknownScraperGroup, name)
		}
		renderGroup(stdout, e.theme, g, e.registry)
		return nil
	}

	names := e.groups.Names()
	groups := make([]*group.Group, 0, len(names))
	for _, n := range names {
		if g, ok := e.groups.Group(n); ok {
			groups = append(groups, g)
		}
	}
	renderGroups(stdout, e.theme, groups)
	return nil
}
