package main

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/loykin/prnotify/internal/common"
	"github.com/loykin/prnotify/internal/server"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the REST API for settings, events and button presses",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		a, err := openApp(ctx)
		if err != nil {
			return err
		}
		defer func() { _ = a.Close() }()

		logger := common.GetLogger().WithComponent("main")
		if file := strings.TrimSpace(a.doc.Settings.File); file != "" && a.doc.Settings.Watch {
			if err := a.settings.WatchFile(ctx, file, nil); err != nil {
				return err
			}
		}

		addr := a.doc.Server.Addr
		if flagAddr := strings.TrimSpace(viper.GetViper().GetString("serve_addr")); flagAddr != "" {
			addr = flagAddr
		}
		if !a.doc.Server.JWT.Enabled() {
			logger.Warn("server.jwt.secret is empty, the API is not authenticated")
		}
		srv := server.New(server.Options{
			Settings:   a.settings,
			Dispatcher: a.dispatcher,
			Responses:  a.store,
			JWT:        a.doc.Server.JWT,
		})
		return srv.ListenAndServe(ctx, addr)
	},
}

func init() {
	serveCmd.Flags().String("addr", "", "listen address, overrides server.addr")
	_ = viper.GetViper().BindPFlag("serve_addr", serveCmd.Flags().Lookup("addr"))
}
