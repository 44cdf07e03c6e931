package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/loykin/prnotify/internal/render"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "Render a template against a pull request event",
	Long: "Render a template against a pull request event file. With --notification the\n" +
		"variable extraction and injection settings of that notification apply.",
	RunE: func(cmd *cobra.Command, args []string) error {
		v := viper.GetViper()
		tmpl := v.GetString("render_template")
		enc, err := render.ParseEncoding(v.GetString("render_encoding"))
		if err != nil {
			return err
		}
		ev, err := readEvent(v.GetString("render_event"))
		if err != nil {
			return err
		}
		ctx := context.Background()

		id := strings.TrimSpace(v.GetString("render_notification"))
		if id == "" {
			doc, err := loadConfig()
			if err != nil {
				return err
			}
			platform := newPlatform(doc)
			out, err := render.Render(ctx, render.NewEvalContext(ev, nil, platform), tmpl, enc)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), out)
			return nil
		}

		a, err := openApp(ctx)
		if err != nil {
			return err
		}
		defer func() { _ = a.Close() }()
		n, err := a.settings.Notification(ctx, id)
		if err != nil {
			return err
		}
		data, err := a.settings.Data(ctx)
		if err != nil {
			return err
		}
		trust := render.Trust{AcceptAnyCertificate: data.AcceptAnyCertificate, KeyStore: data.LoadKeyStore()}
		ec := render.NewEvalContext(ev, n.RenderConfig(), a.platform)
		out, err := render.New(ec, a.dispatcher.Invoker, trust).Render(ctx, tmpl, enc)
		if err != nil {
			return err
		}
		_, _ = fmt.Fprintln(cmd.OutOrStdout(), out)
		return nil
	},
}

func init() {
	v := viper.GetViper()
	renderCmd.Flags().StringP("template", "t", "", "template to render, e.g. ${PULL_REQUEST_TITLE}")
	renderCmd.Flags().StringP("event", "e", "", "pull request event file (yaml or json, - for stdin)")
	renderCmd.Flags().String("encoding", string(render.EncodingNone), "encoding applied to variable values: NONE, URL, HTML, JSON")
	renderCmd.Flags().String("notification", "", "uuid of the notification whose variable settings apply")
	_ = v.BindPFlag("render_template", renderCmd.Flags().Lookup("template"))
	_ = v.BindPFlag("render_event", renderCmd.Flags().Lookup("event"))
	_ = v.BindPFlag("render_encoding", renderCmd.Flags().Lookup("encoding"))
	_ = v.BindPFlag("render_notification", renderCmd.Flags().Lookup("notification"))
}
