// Package export writes aggregated question records to study-material
// files: a line-oriented text dump grouped by topic, and a two-column
// front/back CSV for spaced-repetition import.
package export

import (
	"encoding/csv"
	"fmt"
	"html"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/jfalgout/examdump/internal/scrape"
)

// Exporter writes result sets beneath a root directory.
type Exporter struct {
	root   string
	logger *zap.Logger
}

// New returns an Exporter rooted at dir, creating it if needed.
func New(root string, logger *zap.Logger) (*Exporter, error) {
	if err := os.MkdirAll(root, 0o750); err != nil {
		return nil, fmt.Errorf("create export dir %s: %w", root, err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Exporter{root: root, logger: logger}, nil
}

// WriteText writes the topic-grouped, question-ordered text dump and
// returns the file path. Topics appear in ascending numeric order.
func (e *Exporter) WriteText(name string, set scrape.ResultSet) (string, error) {
	var b strings.Builder
	for _, topic := range set.Topics() {
		fmt.Fprintf(&b, "Topic %d:\n", topic)
		for _, rec := range set[topic] {
			fmt.Fprintf(&b, "\nQuestion %d: %s\n", rec.Key.Question, rec.QuestionText)
			for _, choice := range rec.Choices {
				fmt.Fprintf(&b, "  %s\n", choice)
			}
			if rec.SuggestedAnswer != "" {
				fmt.Fprintf(&b, "  Suggested Answer: %s\n", rec.SuggestedAnswer)
			}
			fmt.Fprintf(&b, "  Link: %s\n", rec.Link)
		}
		b.WriteString("\n")
	}

	target := filepath.Join(e.root, name+" dumps.txt")
	if err := os.WriteFile(target, []byte(b.String()), 0o600); err != nil {
		return "", fmt.Errorf("write text dump %s: %w", target, err)
	}
	e.logger.Info("text dump written", zap.String("path", target), zap.Int("records", set.Len()))
	return target, nil
}

// WriteCards writes a two-column CSV (front, back) with HTML-formatted cell
// content, suitable for flashcard import. The front carries the question
// and its choices; the back carries the suggested answer.
func (e *Exporter) WriteCards(name string, set scrape.ResultSet) (string, error) {
	target := filepath.Join(e.root, name+" cards.csv")
	f, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return "", fmt.Errorf("create cards file %s: %w", target, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	for _, topic := range set.Topics() {
		for _, rec := range set[topic] {
			if err := w.Write([]string{cardFront(rec), cardBack(rec)}); err != nil {
				return "", fmt.Errorf("write card row: %w", err)
			}
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", fmt.Errorf("flush cards file %s: %w", target, err)
	}
	e.logger.Info("cards written", zap.String("path", target), zap.Int("records", set.Len()))
	return target, nil
}

func cardFront(rec scrape.QuestionRecord) string {
	var b strings.Builder
	fmt.Fprintf(&b, "<b>Topic %d Question %d</b><br>%s",
		rec.Key.Topic, rec.Key.Question, htmlLines(rec.QuestionText))
	if len(rec.Choices) > 0 {
		b.WriteString("<ul>")
		for _, choice := range rec.Choices {
			fmt.Fprintf(&b, "<li>%s</li>", html.EscapeString(choice))
		}
		b.WriteString("</ul>")
	}
	return b.String()
}

func cardBack(rec scrape.QuestionRecord) string {
	if rec.SuggestedAnswer == "" {
		return html.EscapeString(scrape.AnswerNotFound)
	}
	return html.EscapeString(rec.SuggestedAnswer)
}

func htmlLines(text string) string {
	return strings.ReplaceAll(html.EscapeString(text), "\n", "<br>")
}
