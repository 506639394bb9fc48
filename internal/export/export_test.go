package export

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jfalgout/examdump/internal/scrape"
)

func sampleSet() scrape.ResultSet {
	return scrape.Aggregate([]scrape.QuestionRecord{
		{
			Key:             scrape.Key{Topic: 2, Question: 1},
			Link:            "https://example.com/view/topic-2-question-1-discussion/",
			QuestionText:    "What is eventual consistency?",
			Choices:         []string{"A. A read model", "B. A write model"},
			SuggestedAnswer: "A",
		},
		{
			Key:             scrape.Key{Topic: 1, Question: 2},
			Link:            "https://example.com/view/topic-1-question-2-discussion/",
			QuestionText:    "Pick the <best> option.",
			Choices:         []string{"A. Yes"},
			SuggestedAnswer: "A",
		},
		{
			Key:          scrape.Key{Topic: 1, Question: 1},
			Link:         "https://example.com/view/topic-1-question-1-discussion/",
			QuestionText: "First question,\nsecond line.",
			Choices:      []string{},
		},
	})
}

func TestExporter_WriteText(t *testing.T) {
	t.Parallel()

	exp, err := New(t.TempDir(), nil)
	require.NoError(t, err)

	path, err := exp.WriteText("ACE", sampleSet())
	require.NoError(t, err)
	require.Equal(t, "ACE dumps.txt", filepath.Base(path))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	text := string(raw)

	// Topics ascend; within a topic, questions ascend.
	require.Less(t, strings.Index(text, "Topic 1:"), strings.Index(text, "Topic 2:"))
	require.Less(t, strings.Index(text, "Question 1: First question"), strings.Index(text, "Question 2: Pick"))
	require.Contains(t, text, "  A. A read model\n")
	require.Contains(t, text, "  Suggested Answer: A\n")
	require.Contains(t, text, "  Link: https://example.com/view/topic-2-question-1-discussion/\n")
	// A record without an answer gets no answer line.
	require.NotContains(t, strings.SplitN(text, "Question 2", 2)[0], "Suggested Answer")
}

func TestExporter_WriteCards(t *testing.T) {
	t.Parallel()

	exp, err := New(t.TempDir(), nil)
	require.NoError(t, err)

	path, err := exp.WriteCards("ACE", sampleSet())
	require.NoError(t, err)
	require.Equal(t, "ACE cards.csv", filepath.Base(path))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)
	for _, row := range rows {
		require.Len(t, row, 2)
	}

	first := rows[0][0]
	require.Contains(t, first, "<b>Topic 1 Question 1</b>")
	// Newlines in the question body become HTML breaks.
	require.Contains(t, first, "First question,<br>second line.")
	// Markup in scraped text is escaped, not interpreted.
	require.Contains(t, rows[1][0], "Pick the &lt;best&gt; option.")
	require.Contains(t, rows[1][0], "<li>A. Yes</li>")

	require.Equal(t, scrape.AnswerNotFound, rows[0][1])
	require.Equal(t, "A", rows[1][1])
}

func TestNew_CreatesRoot(t *testing.T) {
	t.Parallel()

	root := filepath.Join(t.TempDir(), "nested", "dumps")
	_, err := New(root, nil)
	require.NoError(t, err)

	info, err := os.Stat(root)
	require.NoError(t, err)
	require.True(t, info.IsDir())
}
