package main

import (
	"context"
	"fmt"

	"github.com/loykin/prnotify/internal/constants"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var responsesCmd = &cobra.Command{
	Use:   "responses",
	Short: "Show the most recent notification responses",
	RunE: func(cmd *cobra.Command, args []string) error {
		v := viper.GetViper()
		limit := v.GetInt("responses_limit")
		if limit < 0 {
			return fmt.Errorf("limit must be a non-negative integer")
		}
		ctx := context.Background()
		a, err := openApp(ctx)
		if err != nil {
			return err
		}
		defer func() { _ = a.Close() }()
		list, err := a.store.ListResponses(ctx, limit)
		if err != nil {
			return err
		}
		return printResponses(cmd.OutOrStdout(), list, v.GetBool("responses_json"))
	},
}

func init() {
	v := viper.GetViper()
	responsesCmd.Flags().Int("limit", constants.DefaultResponseLimit, "number of responses to show (0 = all)")
	responsesCmd.Flags().Bool("json", false, "print the responses as json")
	_ = v.BindPFlag("responses_limit", responsesCmd.Flags().Lookup("limit"))
	_ = v.BindPFlag("responses_json", responsesCmd.Flags().Lookup("json"))
}
