package scrape

import (
	"testing"

	"github.com/stretchr/testify/require"
)

const fullQuestionMarkup = `<html><body>
<div class="question-body">
	<p class="card-text">A company runs workloads on AWS.<br>Which service should they use?</p>
</div>
<div class="question-choices-container">
	<ul>
		<li class="multi-choice-item">A.   Amazon   EC2  Most Voted</li>
		<li class="multi-choice-item">B.
			Amazon S3</li>
	</ul>
</div>
<div class="question-answer">
	<span class="correct-answer">A</span>
</div>
</body></html>`

func testItem() LinkItem {
	return LinkItem{
		Key:  Key{Topic: 1, Question: 7},
		Link: "https://example.com/view/topic-1-question-7-discussion/",
	}
}

func TestHTMLExtractor_FullPage(t *testing.T) {
	t.Parallel()

	rec := HTMLExtractor{}.Extract(testItem(), fullQuestionMarkup)

	require.False(t, rec.Failed)
	require.Equal(t, Key{Topic: 1, Question: 7}, rec.Key)
	require.Equal(t, "A company runs workloads on AWS.\nWhich service should they use?", rec.QuestionText)
	require.Equal(t, []string{"A. Amazon EC2", "B. Amazon S3"}, rec.Choices)
	require.Equal(t, "A", rec.SuggestedAnswer)
}

func TestHTMLExtractor_MissingQuestionBodyDegrades(t *testing.T) {
	t.Parallel()

	markup := `<html><body><div class="captcha">Verify you are human</div></body></html>`
	rec := HTMLExtractor{}.Extract(testItem(), markup)

	require.True(t, rec.Failed)
	require.Equal(t, SentinelQuestionText, rec.QuestionText)
	require.Empty(t, rec.Choices)
	require.Empty(t, rec.SuggestedAnswer)
	// Key and link survive so the aggregator can still place the record.
	require.Equal(t, testItem().Key, rec.Key)
	require.Equal(t, testItem().Link, rec.Link)
}

func TestHTMLExtractor_MissingChoicesIsNotFailure(t *testing.T) {
	t.Parallel()

	markup := `<html><body>
		<div class="question-body"><p class="card-text">Orphan question?</p></div>
	</body></html>`
	rec := HTMLExtractor{}.Extract(testItem(), markup)

	require.False(t, rec.Failed)
	require.Equal(t, "Orphan question?", rec.QuestionText)
	require.Empty(t, rec.Choices)
	require.Equal(t, AnswerNotFound, rec.SuggestedAnswer)
}

func TestHTMLExtractor_MissingAnswerMarkerYieldsSentinel(t *testing.T) {
	t.Parallel()

	markup := `<html><body>
		<div class="question-body"><p class="card-text">Unanswered question?</p></div>
		<div class="question-answer"><span class="vote-pending">voting open</span></div>
	</body></html>`
	rec := HTMLExtractor{}.Extract(testItem(), markup)

	require.False(t, rec.Failed)
	require.Equal(t, AnswerNotFound, rec.SuggestedAnswer)
}

func TestHTMLExtractor_EmptyQuestionTextDegrades(t *testing.T) {
	t.Parallel()

	markup := `<html><body>
		<div class="question-body"><p class="card-text">   </p></div>
	</body></html>`
	rec := HTMLExtractor{}.Extract(testItem(), markup)

	require.True(t, rec.Failed)
	require.Equal(t, SentinelQuestionText, rec.QuestionText)
}
