// Package render maps conversation snapshots to display items. It holds no
// state and performs no I/O.
package render

import (
	"strconv"
	"strings"

	"ragchat/internal/conversation"
)

// UnknownLabel is shown for a citation without a label
const UnknownLabel = "unknown"

// EmptyHint is displayed when the transcript has no messages
const EmptyHint = `Ask a question about your documents. End a line with \ to continue on the next line.`

// Item is the visual form of one message
type Item struct {
	Role conversation.Role
	// Typing marks the placeholder of an outstanding answer. It carries no
	// text and no citations.
	Typing    bool
	Text      string
	Citations []CitationLine
}

// CitationLine is one entry of an assistant message's citation block
type CitationLine struct {
	Summary string
	// Excerpt is trimmed; empty means no excerpt line.
	Excerpt string
}

// Messages derives the display list for st
func Messages(st conversation.State) []Item {
	items := make([]Item, 0, len(st.Messages))
	for _, m := range st.Messages {
		items = append(items, Message(m))
	}
	return items
}

// Message derives the display form of a single message
func Message(m conversation.Message) Item {
	if m.Pending {
		return Item{Role: m.Role, Typing: true}
	}

	item := Item{Role: m.Role, Text: m.Content}
	if m.IsAssistant() && len(m.Sources) > 0 {
		item.Citations = make([]CitationLine, len(m.Sources))
		for i, c := range m.Sources {
			item.Citations[i] = CitationLine{
				Summary: SummaryLine(c),
				Excerpt: strings.TrimSpace(c.Excerpt),
			}
		}
	}
	return item
}

// SummaryLine formats c as "label[, location][ • score <confidence>]"
func SummaryLine(c conversation.Citation) string {
	var sb strings.Builder

	if c.Label == "" {
		sb.WriteString(UnknownLabel)
	} else {
		sb.WriteString(c.Label)
	}
	if c.Location != "" {
		sb.WriteString(", ")
		sb.WriteString(c.Location)
	}
	if c.Confidence != nil {
		sb.WriteString(" • score ")
		sb.WriteString(strconv.FormatFloat(*c.Confidence, 'f', -1, 64))
	}

	return sb.String()
}
