package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/loykin/prnotify/internal/store"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var dispatchCmd = &cobra.Command{
	Use:   "dispatch",
	Short: "Send the notifications matching a pull request event",
	RunE: func(cmd *cobra.Command, args []string) error {
		v := viper.GetViper()
		ev, err := readEvent(v.GetString("dispatch_event"))
		if err != nil {
			return err
		}
		ctx := context.Background()
		a, err := openApp(ctx)
		if err != nil {
			return err
		}
		defer func() { _ = a.Close() }()

		responses, err := a.dispatcher.HandleEvent(ctx, ev)
		if err != nil {
			return err
		}
		return printResponses(cmd.OutOrStdout(), responses, v.GetBool("dispatch_json"))
	},
}

func init() {
	v := viper.GetViper()
	dispatchCmd.Flags().StringP("event", "e", "", "pull request event file (yaml or json, - for stdin)")
	dispatchCmd.Flags().Bool("json", false, "print the responses as json")
	_ = v.BindPFlag("dispatch_event", dispatchCmd.Flags().Lookup("event"))
	_ = v.BindPFlag("dispatch_json", dispatchCmd.Flags().Lookup("json"))
}

// printResponses writes one line per response, or a json array.
func printResponses(w io.Writer, responses []store.NotificationResponse, asJSON bool) error {
	if asJSON {
		if responses == nil {
			responses = []store.NotificationResponse{}
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(responses)
	}
	if len(responses) == 0 {
		_, _ = fmt.Fprintln(w, "no notifications sent")
		return nil
	}
	for _, r := range responses {
		result := "ok"
		if r.Failed() {
			result = "FAILED"
		}
		line := fmt.Sprintf("%-6s %-30s %s %s status=%d", result, r.NotificationName, r.Method, r.URI, r.Status)
		if r.Error != "" {
			line += " error=" + r.Error
		}
		_, _ = fmt.Fprintln(w, line)
	}
	return nil
}
