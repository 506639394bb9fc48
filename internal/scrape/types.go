// Package scrape implements the discovery-and-extraction pipeline: listing
// enumeration, link keying, bounded parallel fetching, and aggregation of
// question records into topic-grouped study material.
package scrape

import "context"

// Key orders a question within a provider's exam content. Keys compare
// lexicographically on (Topic, Question).
type Key struct {
	Topic    int
	Question int
}

// Less reports whether k sorts before other.
func (k Key) Less(other Key) bool {
	if k.Topic != other.Topic {
		return k.Topic < other.Topic
	}
	return k.Question < other.Question
}

// LinkItem pairs a discussion URL with its ordering key. Items are immutable
// once created by the key resolver.
type LinkItem struct {
	Key  Key
	Link string
}

// SentinelQuestionText marks a record whose page could not be fetched or
// whose question container was missing from the rendered markup.
const SentinelQuestionText = "Question not found (page blocked or structure changed)"

// AnswerNotFound is used when a question renders but carries no visible
// suggested answer.
const AnswerNotFound = "Not found"

// QuestionRecord is the normalized result of one discussion-page fetch.
// Exactly one record exists per dispatched LinkItem; failed fetches produce
// the degraded variant instead of an error so the batch is never aborted.
type QuestionRecord struct {
	Key             Key
	Link            string
	QuestionText    string
	Choices         []string
	SuggestedAnswer string
	Failed          bool
}

// FailedRecord builds the degraded variant for item. The original key and
// link are preserved so the aggregator can still place the record.
func FailedRecord(item LinkItem) QuestionRecord {
	return QuestionRecord{
		Key:          item.Key,
		Link:         item.Link,
		QuestionText: SentinelQuestionText,
		Choices:      []string{},
		Failed:       true,
	}
}

// Session is one isolated rendering context. Implementations load a URL,
// let client-side scripts settle, and hand back the final markup. A session
// must be closed after use; it is never shared between items.
type Session interface {
	Navigate(ctx context.Context, rawURL string) error
	Content(ctx context.Context) (string, error)
	Close()
}

// SessionFactory mints fresh, isolated sessions. The enumerator holds one
// session for an entire listing walk; the coordinator opens one per item.
type SessionFactory interface {
	NewSession(ctx context.Context) (Session, error)
}

// RecordExtractor turns rendered markup for one question page into a record.
// Implementations never fail past their boundary: extraction problems yield
// the degraded variant.
type RecordExtractor interface {
	Extract(item LinkItem, markup string) QuestionRecord
}

// ListingFetcher retrieves a listing page without a rendering session. Used
// as the fast path when the static HTML already carries the listing content.
type ListingFetcher interface {
	FetchListing(ctx context.Context, rawURL string) (string, error)
}
