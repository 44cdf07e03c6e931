package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var pressCmd = &cobra.Command{
	Use:   "press <button-uuid>",
	Short: "Press a button for a pull request event",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		v := viper.GetViper()
		ev, err := readEvent(v.GetString("press_event"))
		if err != nil {
			return err
		}
		ctx := context.Background()
		a, err := openApp(ctx)
		if err != nil {
			return err
		}
		defer func() { _ = a.Close() }()

		res, err := a.dispatcher.PressButton(ctx, args[0], ev, v.GetString("form_data"))
		if err != nil {
			return err
		}
		if err := printResponses(cmd.OutOrStdout(), res.Responses, v.GetBool("press_json")); err != nil {
			return err
		}
		if res.RedirectURL != "" && !v.GetBool("press_json") {
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "redirect:", res.RedirectURL)
		}
		return nil
	},
}

func init() {
	v := viper.GetViper()
	pressCmd.Flags().StringP("event", "e", "", "pull request event file (yaml or json, - for stdin)")
	pressCmd.Flags().String("form-data", "", "form data submitted with the button")
	pressCmd.Flags().Bool("json", false, "print the responses as json")
	_ = v.BindPFlag("press_event", pressCmd.Flags().Lookup("event"))
	_ = v.BindPFlag("form_data", pressCmd.Flags().Lookup("form-data"))
	_ = v.BindPFlag("press_json", pressCmd.Flags().Lookup("json"))
}
