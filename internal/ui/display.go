package ui

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"ragchat/internal/conversation"
	"ragchat/internal/render"
)

// Options tweak the display
type Options struct {
	// Markdown renders assistant answers through glamour.
	Markdown bool
	// Animate draws the typing indicator as a spinner. Without it a single
	// static line is printed.
	Animate bool
	// ShowHint prints the empty-conversation hint.
	ShowHint bool
}

// Display draws conversation snapshots to a terminal
type Display struct {
	out      io.Writer
	width    int
	opts     Options
	renderer *glamour.TermRenderer

	mu sync.Mutex
	// drawn counts the resolved items already printed, so Sync only prints
	// what is new.
	drawn    int
	shownErr string

	spinnerActive bool
	spinnerDone   chan struct{}
	spinnerWG     sync.WaitGroup
}

var (
	userStyle      = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("42"))
	assistantStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
	gutterStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	sourceStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	excerptStyle   = lipgloss.NewStyle().Italic(true).Foreground(lipgloss.Color("243"))
	errorStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	warnStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	infoStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("51"))
	titleStyle     = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("51")).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("51")).
			Padding(0, 2)
)

// NewDisplay creates a display writing to out
func NewDisplay(out io.Writer, opts Options) *Display {
	width := 80
	if f, ok := out.(*os.File); ok {
		if w, _, err := term.GetSize(int(f.Fd())); err == nil && w > 20 {
			width = w
		}
	}

	d := &Display{
		out:   out,
		width: width,
		opts:  opts,
	}

	if opts.Markdown {
		renderer, err := glamour.NewTermRenderer(
			glamour.WithAutoStyle(),
			glamour.WithWordWrap(width-10),
		)
		if err == nil {
			d.renderer = renderer
		}
	}

	return d
}

// IsTerminal reports whether f is attached to a terminal
func IsTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// ClearScreen clears the terminal
func (d *Display) ClearScreen() {
	fmt.Fprint(d.out, "\033[2J\033[H")
}

// PrintWelcome displays the banner
func (d *Display) PrintWelcome(serviceURL string) {
	fmt.Fprintln(d.out, titleStyle.Render("ragchat · ask your documents"))
	fmt.Fprintf(d.out, "%s %s\n", gutterStyle.Render("Service:"), serviceURL)
	fmt.Fprintf(d.out, "%s /clear | /history | /exit\n\n", gutterStyle.Render("Commands:"))
}

// Sync brings the screen up to date with st. Resolved messages that were
// not printed yet are drawn, the typing indicator follows the pending
// placeholder, and a new last-error is shown once.
func (d *Display) Sync(st conversation.State) {
	d.mu.Lock()
	defer d.mu.Unlock()

	items := render.Messages(st)
	if len(items) < d.drawn {
		// the conversation was cleared underneath us
		d.drawn = 0
	}

	typing := false
	for d.drawn < len(items) {
		item := items[d.drawn]
		if item.Typing {
			typing = true
			break
		}
		d.stopTypingLocked()
		d.drawItem(item)
		d.drawn++
	}

	if typing && st.Busy {
		d.startTypingLocked()
	} else {
		d.stopTypingLocked()
	}

	switch {
	case st.LastError == "":
		d.shownErr = ""
	case st.LastError != d.shownErr:
		d.shownErr = st.LastError
		fmt.Fprintln(d.out, errorStyle.Render("• "+st.LastError))
	}
}

// Reset forgets what has been drawn so the next Sync redraws everything
func (d *Display) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopTypingLocked()
	d.drawn = 0
	d.shownErr = ""
}

// MarkSeen records st as already on screen without drawing it
func (d *Display) MarkSeen(st conversation.State) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.drawn = 0
	for _, m := range st.Messages {
		if m.Pending {
			break
		}
		d.drawn++
	}
	d.shownErr = st.LastError
}

// DrawTranscript prints every item of st, or the hint when there are none
func (d *Display) DrawTranscript(st conversation.State) {
	d.mu.Lock()
	defer d.mu.Unlock()

	items := render.Messages(st)
	if len(items) == 0 {
		if d.opts.ShowHint {
			fmt.Fprintln(d.out, gutterStyle.Render(render.EmptyHint))
		}
		return
	}
	for _, item := range items {
		d.drawItem(item)
	}
}

func (d *Display) drawItem(item render.Item) {
	gutter := gutterStyle.Render("│")

	if item.Role == conversation.RoleUser {
		fmt.Fprintf(d.out, "\n%s\n", userStyle.Render("┌─ You"))
	} else {
		fmt.Fprintf(d.out, "\n%s\n", assistantStyle.Render("┌─ Assistant"))
	}

	if item.Typing {
		fmt.Fprintf(d.out, "%s %s\n", gutter, gutterStyle.Render("• • •"))
	} else {
		for _, line := range strings.Split(d.formatText(item), "\n") {
			fmt.Fprintf(d.out, "%s %s\n", gutter, line)
		}
	}

	if len(item.Citations) > 0 {
		fmt.Fprintf(d.out, "%s\n%s %s\n", gutter, gutter, sourceStyle.Render("Sources:"))
		for _, c := range item.Citations {
			fmt.Fprintf(d.out, "%s   %s\n", gutter, sourceStyle.Render("• "+c.Summary))
			if c.Excerpt != "" {
				fmt.Fprintf(d.out, "%s     %s\n", gutter, excerptStyle.Render(c.Excerpt))
			}
		}
	}

	fmt.Fprintln(d.out, gutterStyle.Render("└"))
}

func (d *Display) formatText(item render.Item) string {
	if item.Role == conversation.RoleAssistant && d.renderer != nil {
		if rendered, err := d.renderer.Render(item.Text); err == nil {
			return strings.Trim(rendered, "\n")
		}
	}
	return item.Text
}

// startTypingLocked shows the typing indicator (must be called with lock held)
func (d *Display) startTypingLocked() {
	if d.spinnerActive {
		return
	}
	d.spinnerActive = true

	if !d.opts.Animate {
		fmt.Fprintln(d.out, gutterStyle.Render("• • • Thinking…"))
		return
	}

	d.spinnerDone = make(chan struct{})
	d.spinnerWG.Add(1)
	go func(done <-chan struct{}) {
		defer d.spinnerWG.Done()
		frames := []string{"•    ", "• •  ", "• • •", "  • •", "    •", "     "}
		ticker := time.NewTicker(150 * time.Millisecond)
		defer ticker.Stop()
		for i := 0; ; i = (i + 1) % len(frames) {
			fmt.Fprintf(d.out, "\r%s", gutterStyle.Render(frames[i]+" Thinking…"))
			select {
			case <-done:
				fmt.Fprint(d.out, "\r\033[2K")
				return
			case <-ticker.C:
			}
		}
	}(d.spinnerDone)
}

// stopTypingLocked removes the typing indicator (must be called with lock held)
func (d *Display) stopTypingLocked() {
	if !d.spinnerActive {
		return
	}
	d.spinnerActive = false
	if d.spinnerDone != nil {
		close(d.spinnerDone)
		d.spinnerWG.Wait()
		d.spinnerDone = nil
	}
}

// PrintInfo displays info message
func (d *Display) PrintInfo(msg string) {
	fmt.Fprintln(d.out, infoStyle.Render("ℹ "+msg))
}

// PrintWarning displays warning message
func (d *Display) PrintWarning(msg string) {
	fmt.Fprintln(d.out, warnStyle.Render("⚠ "+msg))
}

// PrintError displays error message
func (d *Display) PrintError(err error) {
	fmt.Fprintln(d.out, errorStyle.Render(fmt.Sprintf("✗ Error: %v", err)))
}

// PrintPrompt displays user input prompt
func (d *Display) PrintPrompt() {
	fmt.Fprintf(d.out, "\n%s ", userStyle.Render("❯"))
}

// PrintContinuation displays the prompt for a continued line
func (d *Display) PrintContinuation() {
	fmt.Fprintf(d.out, "%s ", gutterStyle.Render("…"))
}

// PrintGoodbye displays goodbye message
func (d *Display) PrintGoodbye() {
	fmt.Fprintf(d.out, "\n%s\n", infoStyle.Render("Goodbye!"))
}
