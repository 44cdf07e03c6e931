package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/loykin/prnotify/internal/settings"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Import, export and list stored settings",
}

var settingsImportCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Replace the stored settings with a yaml document",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		a, err := openApp(ctx)
		if err != nil {
			return err
		}
		defer func() { _ = a.Close() }()
		if err := a.settings.ImportFile(ctx, args[0]); err != nil {
			return err
		}
		st, err := a.settings.Settings(ctx)
		if err != nil {
			return err
		}
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "imported %d notifications, %d buttons\n", len(st.Notifications), len(st.Buttons))
		return nil
	},
}

var settingsExportCmd = &cobra.Command{
	Use:   "export [file]",
	Short: "Write the stored settings as yaml (stdout when no file is given)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		a, err := openApp(ctx)
		if err != nil {
			return err
		}
		defer func() { _ = a.Close() }()
		withSecrets := viper.GetViper().GetBool("with_secrets")
		if len(args) == 0 || args[0] == "-" {
			return a.settings.ExportYAML(ctx, cmd.OutOrStdout(), withSecrets)
		}
		f, err := os.OpenFile(filepath.Clean(args[0]), os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o600) // #nosec G304 -- path is provided by the operator
		if err != nil {
			return err
		}
		if err := a.settings.ExportYAML(ctx, f, withSecrets); err != nil {
			_ = f.Close()
			return err
		}
		return f.Close()
	},
}

var settingsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List notifications and buttons",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		a, err := openApp(ctx)
		if err != nil {
			return err
		}
		defer func() { _ = a.Close() }()
		st, err := a.settings.Settings(ctx)
		if err != nil {
			return err
		}
		settings.SortNotifications(st.Notifications)
		settings.SortButtons(st.Buttons)

		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		_, _ = fmt.Fprintln(tw, "KIND\tUUID\tNAME\tSCOPE\tDETAIL")
		for _, n := range st.Notifications {
			_, _ = fmt.Fprintf(tw, "notification\t%s\t%s\t%s\t%s %s\n", n.UUID, n.Name, scope(n.ProjectKey, n.RepositorySlug), methodOrGet(string(n.Method)), n.URL)
		}
		for _, b := range st.Buttons {
			_, _ = fmt.Fprintf(tw, "button\t%s\t%s\t%s\t%s\n", b.UUID, b.Name, scope(b.ProjectKey, b.RepositorySlug), b.UserLevel)
		}
		return tw.Flush()
	},
}

func scope(projectKey, slug string) string {
	switch {
	case projectKey == "":
		return "global"
	case slug == "":
		return projectKey
	default:
		return projectKey + "/" + slug
	}
}

func methodOrGet(m string) string {
	if strings.TrimSpace(m) == "" {
		return "GET"
	}
	return m
}

func init() {
	settingsExportCmd.Flags().Bool("with-secrets", false, "include credentials instead of placeholders")
	_ = viper.GetViper().BindPFlag("with_secrets", settingsExportCmd.Flags().Lookup("with-secrets"))

	settingsCmd.AddCommand(settingsImportCmd)
	settingsCmd.AddCommand(settingsExportCmd)
	settingsCmd.AddCommand(settingsListCmd)
}
