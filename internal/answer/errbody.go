package answer

import (
	"bytes"
	"strings"

	"golang.org/x/net/html"
)

const maxBodyWords = 60

// BodyText reduces an error response body to a single line of plain text.
// Gateways and WSGI servers tend to answer failures with HTML pages; those
// are parsed and only their visible text is kept.
func BodyText(body []byte, contentType string) string {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return ""
	}

	text := string(trimmed)
	if strings.Contains(strings.ToLower(contentType), "html") || trimmed[0] == '<' {
		if extracted, ok := extractText(trimmed); ok {
			text = extracted
		}
	}

	return truncateWords(cleanText(text), maxBodyWords)
}

// extractText parses htmlContent and returns its visible text
func extractText(htmlContent []byte) (string, bool) {
	doc, err := html.Parse(bytes.NewReader(htmlContent))
	if err != nil {
		return "", false
	}
	return visibleText(doc), true
}

// visibleText collects text nodes, skipping non-content elements
func visibleText(n *html.Node) string {
	if n.Type == html.ElementNode {
		switch n.Data {
		case "script", "style", "head":
			return ""
		}
	}

	var text strings.Builder
	if n.Type == html.TextNode {
		text.WriteString(n.Data)
		text.WriteString(" ")
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		text.WriteString(visibleText(c))
	}

	return text.String()
}

// cleanText collapses whitespace runs into single spaces
func cleanText(text string) string {
	return strings.Join(strings.Fields(text), " ")
}

// truncateWords truncates text to approximately N words
func truncateWords(text string, maxWords int) string {
	words := strings.Fields(text)
	if len(words) <= maxWords {
		return text
	}
	return strings.Join(words[:maxWords], " ") + "..."
}
