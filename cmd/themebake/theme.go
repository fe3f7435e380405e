package main

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"github.com/artpar/themebake/app"
	"github.com/artpar/themebake/domain/theme"
	"github.com/spf13/cobra"
)

var themeCmd = &cobra.Command{
	Use:   "theme",
	Short: "Manage themes",
	Long: `Manage themes, their fields and include relations.

Changes are written straight to the database and clear only this
process's cache. Running servers keep serving their old bakes until they
are told: pass --notify with a server's base URL (repeatable) and that
server drops its bakes and announces the change to its peers. Without
--notify, restart the servers or change any theme through one of them.

Examples:
  themebake theme list
  themebake theme create Dark --user-selectable
  themebake theme set 1 desktop header "<div>hi</div>"
  themebake theme include 1 2
  themebake theme delete 2 --notify http://localhost:8080`,
}

var themeListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all themes",
	RunE:  runThemeList,
}

var themeCreateCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Create a theme",
	Args:  cobra.ExactArgs(1),
	RunE:  runThemeCreate,
}

var themeSetCmd = &cobra.Command{
	Use:   "set <theme-id> <target> <field> <value>",
	Short: "Set a field value; use - to read the value from stdin",
	Args:  cobra.ExactArgs(4),
	RunE:  runThemeSet,
}

var themeIncludeCmd = &cobra.Command{
	Use:   "include <parent-id> <child-id>",
	Short: "Make a theme include another",
	Args:  cobra.ExactArgs(2),
	RunE:  runThemeInclude,
}

var themeDeleteCmd = &cobra.Command{
	Use:   "delete <theme-id>",
	Short: "Delete a theme",
	Args:  cobra.ExactArgs(1),
	RunE:  runThemeDelete,
}

var (
	themeKey            string
	themeUserSelectable bool
	themeHidden         bool
)

func init() {
	rootCmd.AddCommand(themeCmd)

	themeCmd.AddCommand(themeListCmd)
	themeCmd.AddCommand(themeCreateCmd)
	themeCmd.AddCommand(themeSetCmd)
	themeCmd.AddCommand(themeIncludeCmd)
	themeCmd.AddCommand(themeDeleteCmd)

	themeCmd.PersistentFlags().StringSliceVar(&notifyURLs, "notify", nil, "base URL of a running server to invalidate (repeatable)")

	themeCreateCmd.Flags().StringVar(&themeKey, "key", "", "theme key (generated when empty)")
	themeCreateCmd.Flags().BoolVar(&themeUserSelectable, "user-selectable", false, "let users pick this theme")
	themeCreateCmd.Flags().BoolVar(&themeHidden, "hidden", false, "hide the theme from pickers")
}

func runThemeList(cmd *cobra.Command, args []string) error {
	return withThemes(func(ctx context.Context, svc *app.ThemeService) error {
		themes, err := svc.List(ctx)
		if err != nil {
			return fmt.Errorf("failed to list themes: %w", err)
		}

		out := cmd.OutOrStdout()
		if len(themes) == 0 {
			fmt.Fprintln(out, "No themes found.")
			fmt.Fprintln(out)
			fmt.Fprintln(out, "Create one with: themebake theme create <name>")
			return nil
		}

		w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tKEY\tNAME\tSELECTABLE\tHIDDEN")
		fmt.Fprintln(w, "--\t---\t----\t----------\t------")
		for _, t := range themes {
			fmt.Fprintf(w, "%d\t%s\t%s\t%t\t%t\n", t.ID, t.Key, t.Name, t.UserSelectable, t.Hidden)
		}
		return w.Flush()
	})
}

func runThemeCreate(cmd *cobra.Command, args []string) error {
	return withThemes(func(ctx context.Context, svc *app.ThemeService) error {
		t := svc.New(args[0])
		if themeKey != "" {
			if err := t.SetKey(themeKey); err != nil {
				return err
			}
		}
		t.SetUserSelectable(themeUserSelectable)
		t.SetHidden(themeHidden)

		if err := t.Save(ctx); err != nil {
			return fmt.Errorf("failed to create theme: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Created theme %d (key %s)\n", t.ID(), t.Key())
		return notifyServers(ctx, cmd, t.ID())
	})
}

func runThemeSet(cmd *cobra.Command, args []string) error {
	id, err := parseThemeID(args[0])
	if err != nil {
		return err
	}
	target, err := theme.ParseTarget(args[1])
	if err != nil {
		return err
	}
	value := args[3]
	if value == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return fmt.Errorf("read value: %w", err)
		}
		value = string(data)
	}

	return withThemes(func(ctx context.Context, svc *app.ThemeService) error {
		t, err := svc.Get(ctx, id)
		if err != nil {
			return fmt.Errorf("failed to get theme: %w", err)
		}
		if err := t.SetField(target, args[2], value); err != nil {
			return err
		}
		if err := t.Save(ctx); err != nil {
			return fmt.Errorf("failed to save theme: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Set %s/%s on theme %d\n", target, args[2], id)
		return notifyServers(ctx, cmd, id)
	})
}

func runThemeInclude(cmd *cobra.Command, args []string) error {
	parentID, err := parseThemeID(args[0])
	if err != nil {
		return err
	}
	childID, err := parseThemeID(args[1])
	if err != nil {
		return err
	}

	return withThemes(func(ctx context.Context, svc *app.ThemeService) error {
		parent, err := svc.Get(ctx, parentID)
		if err != nil {
			return fmt.Errorf("failed to get parent: %w", err)
		}
		child, err := svc.Get(ctx, childID)
		if err != nil {
			return fmt.Errorf("failed to get child: %w", err)
		}
		if err := parent.AddChildTheme(ctx, child); err != nil {
			return fmt.Errorf("failed to include theme: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Theme %d now includes %d\n", parentID, childID)
		return notifyServers(ctx, cmd, parentID)
	})
}

func runThemeDelete(cmd *cobra.Command, args []string) error {
	id, err := parseThemeID(args[0])
	if err != nil {
		return err
	}

	return withThemes(func(ctx context.Context, svc *app.ThemeService) error {
		t, err := svc.Get(ctx, id)
		if err != nil {
			return fmt.Errorf("failed to get theme: %w", err)
		}
		// Servers cannot resolve the dependants once the relations are gone.
		deps, err := t.DependantThemes(ctx)
		if err != nil {
			return fmt.Errorf("failed to resolve dependants: %w", err)
		}
		if err := t.Destroy(ctx); err != nil {
			return fmt.Errorf("failed to delete theme: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Deleted theme %d\n", id)
		return notifyServers(ctx, cmd, append([]int64{id}, deps...)...)
	})
}

func parseThemeID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid theme id %q", s)
	}
	return id, nil
}
