package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Ask a single question and print the answer",
	Long: `Ask a single question without entering the interactive chat. The
exchange is appended to the saved conversation like any other.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		question := strings.Join(args, " ")
		if strings.TrimSpace(question) == "" {
			return errors.New("question cannot be empty")
		}

		a, err := newApp(v)
		if err != nil {
			return err
		}
		defer a.Close()

		// earlier turns stay off screen in one-shot mode
		a.quiet = true
		if err := a.store.Initialize(); err != nil {
			a.display.PrintWarning(err.Error())
		}
		a.display.MarkSeen(a.store.Snapshot())
		a.quiet = false

		a.store.Submit(cmd.Context(), question)

		if st := a.store.Snapshot(); st.LastError != "" {
			return fmt.Errorf("request failed: %s", st.LastError)
		}
		return nil
	},
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Print the saved conversation",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(v)
		if err != nil {
			return err
		}
		defer a.Close()

		a.quiet = true
		if err := a.store.Initialize(); err != nil {
			return err
		}

		st := a.store.Snapshot()
		if len(st.Messages) == 0 {
			a.display.PrintInfo("No conversation history yet")
			return nil
		}
		a.display.DrawTranscript(st)
		a.display.PrintInfo(fmt.Sprintf("%d question(s) in this conversation", countQuestions(st.Messages)))
		return nil
	},
}

var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete the saved conversation",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(v)
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.store.Clear(); err != nil {
			return err
		}
		a.display.PrintInfo("Conversation cleared")
		return nil
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Check the answering service",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(v)
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.client.HealthCheck(cmd.Context()); err != nil {
			return err
		}
		a.display.PrintInfo(fmt.Sprintf("%s is healthy", a.cfg.Answer.URL))

		info, err := a.client.Version(cmd.Context())
		if err != nil {
			a.display.PrintWarning(fmt.Sprintf("Version unavailable: %v", err))
			return nil
		}
		a.display.PrintInfo(fmt.Sprintf("%s %s (%s)", info.Service, info.Version, info.Environment))
		return nil
	},
}
