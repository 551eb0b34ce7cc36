package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"ragchat/internal/conversation"
	"ragchat/internal/terminal"
)

var (
	cfgFile string
	v       = viper.New()
)

var rootCmd = &cobra.Command{
	Use:   "ragchat",
	Short: "Chat with your documents",
	Long: `ragchat sends questions to a retrieval-augmented answering service and
shows each answer together with the documents it cites. The conversation is
kept between runs until it is cleared.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(v)
		if err != nil {
			return err
		}
		defer a.Close()

		return runChat(cmd.Context(), a)
	},
}

// runChat is the interactive loop
func runChat(ctx context.Context, a *app) error {
	sigChan := make(chan os.Signal, 1)
	done := make(chan struct{})
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer func() {
		signal.Stop(sigChan)
		close(done)
	}()
	go func() {
		select {
		case <-sigChan:
			a.display.PrintGoodbye()
			a.Close()
			os.Exit(0)
		case <-done:
		}
	}()

	a.display.PrintWelcome(a.cfg.Answer.URL)

	if err := a.client.HealthCheck(ctx); err != nil {
		a.display.PrintWarning(fmt.Sprintf("Answering service check failed: %v", err))
	}

	if err := a.store.Initialize(); err != nil {
		a.display.PrintWarning(fmt.Sprintf("Starting with an empty conversation: %v", err))
	}
	if len(a.store.Snapshot().Messages) == 0 {
		a.display.DrawTranscript(a.store.Snapshot())
	}

	reader := terminal.NewReader(a.in)
	reader.OnContinue = a.display.PrintContinuation

	for {
		a.display.PrintPrompt()
		text, err := reader.ReadMessage()
		if err != nil {
			break
		}

		switch strings.TrimSpace(text) {
		case "":
			continue
		case "/exit", "/quit", "exit", "quit":
			a.display.PrintGoodbye()
			return nil
		case "/clear":
			if err := a.store.Clear(); err != nil {
				a.display.PrintError(err)
			}
			a.display.Reset()
			a.display.ClearScreen()
			a.display.PrintWelcome(a.cfg.Answer.URL)
			a.display.PrintInfo("Conversation cleared")
			continue
		case "/history":
			st := a.store.Snapshot()
			a.display.DrawTranscript(st)
			if n := countQuestions(st.Messages); n > 0 {
				a.display.PrintInfo(fmt.Sprintf("%d question(s) in this conversation", n))
			}
			continue
		}

		// Input is not read again until the exchange resolves, which keeps
		// submit and clear unavailable while a request is outstanding.
		a.store.Submit(ctx, text)
	}

	a.display.PrintGoodbye()
	return nil
}

func countQuestions(msgs []conversation.Message) int {
	n := 0
	for _, m := range msgs {
		if m.IsUser() {
			n++
		}
	}
	return n
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default is ./.ragchat/settings.yaml or ~/.ragchat/settings.yaml)")

	rootCmd.PersistentFlags().StringP("url", "u", "", "answering service base URL")
	_ = v.BindPFlag("answer.url", rootCmd.PersistentFlags().Lookup("url"))

	rootCmd.PersistentFlags().Duration("timeout", 0, "answering service timeout (0 waits indefinitely)")
	_ = v.BindPFlag("answer.timeout", rootCmd.PersistentFlags().Lookup("timeout"))

	rootCmd.PersistentFlags().String("storage", "", "history storage driver: bolt, file or memory")
	_ = v.BindPFlag("storage.driver", rootCmd.PersistentFlags().Lookup("storage"))

	rootCmd.PersistentFlags().String("history-path", "", "path of the history store")
	_ = v.BindPFlag("storage.path", rootCmd.PersistentFlags().Lookup("history-path"))

	rootCmd.PersistentFlags().Bool("ephemeral", false, "keep the conversation in memory only")
	_ = v.BindPFlag("ephemeral", rootCmd.PersistentFlags().Lookup("ephemeral"))

	rootCmd.PersistentFlags().Bool("no-markdown", false, "print answers as plain text")
	_ = v.BindPFlag("no_markdown", rootCmd.PersistentFlags().Lookup("no-markdown"))

	rootCmd.PersistentFlags().StringP("log-level", "l", "", "log level (debug, info, warn, error)")
	_ = v.BindPFlag("logging.level", rootCmd.PersistentFlags().Lookup("log-level"))

	rootCmd.AddCommand(askCmd, historyCmd, clearCmd, statusCmd)
}
