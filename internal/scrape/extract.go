package scrape

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// Structural markers on the discussion question page.
const (
	questionBodySelector    = "div.question-body"
	questionTextSelector    = "p.card-text"
	choicesContainerSel     = "div.question-choices-container"
	choiceItemSelector      = "li.multi-choice-item"
	answerContainerSelector = "div.question-answer"
	correctAnswerSelector   = "span.correct-answer"
)

// noiseTokens are annotations the site injects into choice text that carry
// no study value (community vote badges and the like).
var noiseTokens = []string{"Most Voted"}

// HTMLExtractor produces QuestionRecords from rendered discussion markup
// using goquery selectors. It never returns an error: any structural
// surprise degrades to the sentinel record for that single item.
type HTMLExtractor struct{}

// Extract locates the question container, choice list, and suggested answer
// within markup. A missing question container means the page was blocked or
// removed and yields the degraded variant; a missing choice list or answer
// is legitimate and degrades only that field.
func (HTMLExtractor) Extract(item LinkItem, markup string) QuestionRecord {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return FailedRecord(item)
	}

	body := doc.Find(questionBodySelector).First()
	if body.Length() == 0 {
		return FailedRecord(item)
	}

	question := normalizeLines(textWithBreaks(body.Find(questionTextSelector).First()))
	if question == "" {
		return FailedRecord(item)
	}

	choices := []string{}
	doc.Find(choicesContainerSel).First().Find(choiceItemSelector).Each(func(_ int, sel *goquery.Selection) {
		if text := cleanChoice(sel.Text()); text != "" {
			choices = append(choices, text)
		}
	})

	answer := AnswerNotFound
	if marker := doc.Find(answerContainerSelector).First().Find(correctAnswerSelector).First(); marker.Length() > 0 {
		if text := collapseSpace(marker.Text()); text != "" {
			answer = text
		}
	}

	return QuestionRecord{
		Key:             item.Key,
		Link:            item.Link,
		QuestionText:    question,
		Choices:         choices,
		SuggestedAnswer: answer,
	}
}

// textWithBreaks extracts the selection's text, converting <br> elements to
// newlines so multi-line question bodies keep their structure.
func textWithBreaks(sel *goquery.Selection) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		if n.Type == html.ElementNode && n.Data == "br" {
			b.WriteString("\n")
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	for _, n := range sel.Nodes {
		walk(n)
	}
	return b.String()
}

// normalizeLines trims every line and drops empty ones, preserving the
// remaining line breaks.
func normalizeLines(raw string) string {
	lines := strings.Split(raw, "\n")
	kept := lines[:0]
	for _, line := range lines {
		if line = strings.TrimSpace(line); line != "" {
			kept = append(kept, line)
		}
	}
	return strings.Join(kept, "\n")
}

// cleanChoice strips vote annotations and collapses runs of whitespace to
// single spaces.
func cleanChoice(raw string) string {
	for _, tok := range noiseTokens {
		raw = strings.ReplaceAll(raw, tok, "")
	}
	return collapseSpace(raw)
}

func collapseSpace(raw string) string {
	return strings.Join(strings.Fields(raw), " ")
}
