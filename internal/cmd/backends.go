package cmd

import (
	"io"

	"github.com/Digital-Shane/movie-meta/internal/provider"
	"github.com/spf13/cobra"
)

var backendsField string

var backendsCmd = &cobra.Command{
	Use:   "backends",
	Short: "List the configured backends",
	Long: `List every backend available with the current configuration. With --field, only
backends that can scrape that field are shown, followed by the choices a scraper group
may assign to it.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runBackends(currentGlobals(), backendsField, cmd.OutOrStdout(), cmd.ErrOrStderr())
	},
}

func init() {
	backendsCmd.Flags().StringVar(&backendsField, "field", "", "Only show backends supporting this field")
	rootCmd.AddCommand(backendsCmd)
}

func runBackends(globals globalOptions, fieldName string, stdout, stderr io.Writer) error {
	var (
		field    provider.Field
		filtered bool
	)
	if fieldName != "" {
		f, err := provider.ParseField(fieldName)
		if err != nil {
			return err
		}
		field, filtered = f, true
	}

	e, err := loadEnv(globals, stdout, stderr)
	if err != nil {
		return err
	}
	defer e.close()

	if !filtered {
		renderBackends(stdout, e.theme, e.registry.ListAll())
		return nil
	}
	renderBackends(stdout, e.theme, e.registry.ListSupporting(field))
	renderChoices(stdout, e.theme, field, e.registry.Choices(field, true, true))
	return nil
}
