package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/loykin/prnotify/internal/common"
	"github.com/loykin/prnotify/internal/dispatch"
	"github.com/loykin/prnotify/internal/invoker"
	"github.com/loykin/prnotify/internal/pullrequest"
	"github.com/loykin/prnotify/internal/settings"
	"github.com/loykin/prnotify/internal/store"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// app holds the components every command works with.
type app struct {
	doc        ConfigDoc
	store      *store.SQLStore
	settings   *settings.Service
	dispatcher *dispatch.Dispatcher
	platform   pullrequest.Platform
}

// loadConfig reads the file named by the config flag (or PRNOTIFY_CONFIG)
// on top of the defaults and configures logging.
func loadConfig() (ConfigDoc, error) {
	doc := defaultConfig()
	if err := doc.Load(viper.GetViper().GetString("config")); err != nil {
		return doc, err
	}
	if err := doc.SetupLogging(); err != nil {
		return doc, err
	}
	return doc, nil
}

// openApp opens the store and wires settings and dispatcher. The settings
// file, when configured, is imported before anything reads the settings.
func openApp(ctx context.Context) (*app, error) {
	doc, err := loadConfig()
	if err != nil {
		return nil, err
	}
	storeCfg, err := doc.Store.StoreOptions()
	if err != nil {
		return nil, err
	}
	st, err := store.Open(ctx, storeCfg)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	svc := settings.NewService(st, doc.Settings.CacheTTL)
	if file := strings.TrimSpace(doc.Settings.File); file != "" {
		if err := svc.ImportFile(ctx, file); err != nil {
			_ = st.Close()
			return nil, fmt.Errorf("import settings %s: %w", file, err)
		}
		common.GetLogger().WithComponent("main").Info("settings imported", "path", file)
	}

	platform := newPlatform(doc)
	d := dispatch.New(svc.Cache(), invoker.NewHTTPInvoker(doc.Client.Timeout), platform)
	d.Recorder = st
	d.ClientTimeout = doc.Client.Timeout

	return &app{doc: doc, store: st, settings: svc, dispatcher: d, platform: platform}, nil
}

func newPlatform(doc ConfigDoc) pullrequest.Platform {
	return pullrequest.StaticPlatform{URL: doc.Platform.BaseURL}
}

func (a *app) Close() error {
	return a.store.Close()
}

// readEvent decodes a pull request event from a YAML or JSON file; "-"
// reads standard input.
func readEvent(path string) (pullrequest.Event, error) {
	var ev pullrequest.Event
	if strings.TrimSpace(path) == "" {
		return ev, fmt.Errorf("event file required")
	}
	var (
		b   []byte
		err error
	)
	if path == "-" {
		b, err = io.ReadAll(os.Stdin)
	} else {
		b, err = os.ReadFile(filepath.Clean(path)) // #nosec G304 -- path is provided by the operator
	}
	if err != nil {
		return ev, err
	}
	if err := yaml.Unmarshal(b, &ev); err != nil {
		return ev, fmt.Errorf("decode event %s: %w", path, err)
	}
	if ev.Action != "" {
		if ev.Action, err = pullrequest.ParseAction(string(ev.Action)); err != nil {
			return ev, err
		}
	}
	return ev, nil
}
