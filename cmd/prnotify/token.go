package main

import (
	"fmt"

	"github.com/loykin/prnotify/internal/server"
	"github.com/loykin/prnotify/internal/settings"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Issue a bearer token for the REST API",
	RunE: func(cmd *cobra.Command, args []string) error {
		v := viper.GetViper()
		doc, err := loadConfig()
		if err != nil {
			return err
		}
		level, err := settings.ParseUserLevel(v.GetString("token_level"))
		if err != nil {
			return err
		}
		tok, err := doc.Server.JWT.IssueToken(server.TokenRequest{
			Subject: v.GetString("token_subject"),
			Level:   level,
			TTL:     v.GetDuration("token_ttl"),
		})
		if err != nil {
			return err
		}
		_, _ = fmt.Fprintln(cmd.OutOrStdout(), tok)
		return nil
	},
}

func init() {
	v := viper.GetViper()
	tokenCmd.Flags().String("subject", "", "token subject")
	tokenCmd.Flags().String("level", string(settings.UserLevelAdmin), "user level claim: EVERYONE, ADMIN, SYSTEM_ADMIN")
	tokenCmd.Flags().Duration("ttl", 0, "token lifetime (default 5m)")
	_ = v.BindPFlag("token_subject", tokenCmd.Flags().Lookup("subject"))
	_ = v.BindPFlag("token_level", tokenCmd.Flags().Lookup("level"))
	_ = v.BindPFlag("token_ttl", tokenCmd.Flags().Lookup("ttl"))
}
