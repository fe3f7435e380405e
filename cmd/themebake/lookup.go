package main

import (
	"context"
	"fmt"

	"github.com/artpar/themebake/app"
	"github.com/artpar/themebake/domain/theme"
	"github.com/spf13/cobra"
)

var lookupCmd = &cobra.Command{
	Use:   "lookup <theme-key> <target> <field>",
	Short: "Print the baked value of a field",
	Long: `Compose a field across a theme and every theme it includes and
print the result.

Target is one of common, desktop or mobile. An unknown theme key prints
an empty value.

Examples:
  themebake lookup 8f14e45f desktop header
  themebake lookup 8f14e45f mobile body_tag`,
	Args: cobra.ExactArgs(3),
	RunE: runLookup,
}

func init() {
	rootCmd.AddCommand(lookupCmd)
}

func runLookup(cmd *cobra.Command, args []string) error {
	target, err := theme.ParseTarget(args[1])
	if err != nil {
		return err
	}

	return withThemes(func(ctx context.Context, svc *app.ThemeService) error {
		value, err := svc.LookupField(ctx, args[0], target, args[2])
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), value)
		return nil
	})
}
