package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/viper"

	"ragchat/internal/answer"
	"ragchat/internal/config"
	"ragchat/internal/conversation"
	"ragchat/internal/logger"
	"ragchat/internal/storage"
	"ragchat/internal/ui"
)

// app bundles the wired components used by every command
type app struct {
	cfg     *config.Config
	client  *answer.Client
	kv      storage.Store
	store   *conversation.Store
	display *ui.Display
	// in feeds the interactive loop
	in io.Reader
	// quiet suppresses drawing on state changes, used while loading history
	// that should not be echoed.
	quiet bool
}

// newApp loads configuration and wires the conversation store to the
// answering service, the durable store and the display.
func newApp(v *viper.Viper) (*app, error) {
	cfg, err := config.Load(v, cfgFile)
	if err != nil {
		return nil, err
	}
	if v.GetBool("ephemeral") {
		cfg.Storage.Driver = config.DriverMemory
	}
	if v.GetBool("no_markdown") {
		cfg.UI.Markdown = false
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration error: %w", err)
	}

	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile, cfg.Logging.Preserve); err != nil {
		// logging is best effort; the chat still works without it
		fmt.Fprintf(os.Stderr, "warning: %v\n", err)
	}

	kv, err := storage.Open(cfg.Storage.Driver, cfg.Storage.Path)
	if err != nil {
		return nil, err
	}

	tty := ui.IsTerminal(os.Stdout)
	display := ui.NewDisplay(os.Stdout, ui.Options{
		Markdown: cfg.UI.Markdown && tty,
		Animate:  tty,
		ShowHint: cfg.UI.ShowHint,
	})

	a := &app{
		cfg:     cfg,
		client:  answer.NewClient(cfg.Answer.URL, cfg.Answer.Timeout),
		kv:      kv,
		display: display,
		in:      os.Stdin,
	}
	a.store = conversation.New(a.client, kv,
		conversation.WithKey(cfg.Storage.Key),
		conversation.WithOnChange(a.onChange),
	)

	logger.Info("ragchat started: service=%s storage=%s:%s", cfg.Answer.URL, cfg.Storage.Driver, cfg.Storage.Path)

	return a, nil
}

func (a *app) onChange(st conversation.State) {
	if a.quiet {
		return
	}
	a.display.Sync(st)
}

func (a *app) Close() {
	if err := a.kv.Close(); err != nil {
		logger.Warn("failed to close storage: %v", err)
	}
	_ = logger.Close()
}
