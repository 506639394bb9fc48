package scrape

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/jfalgout/examdump/internal/progress"
)

// fakeSessionFactory serves canned markup per URL and tracks session
// lifecycle so tests can assert the concurrency bound and release behavior.
type fakeSessionFactory struct {
	mu       sync.Mutex
	pages    map[string]string
	failNav  map[string]bool
	delay    time.Duration
	openErr  error
	open     atomic.Int32
	maxOpen  atomic.Int32
	minted   atomic.Int32
	released atomic.Int32
}

func (f *fakeSessionFactory) NewSession(context.Context) (Session, error) {
	if f.openErr != nil {
		return nil, f.openErr
	}
	f.minted.Add(1)
	now := f.open.Add(1)
	for {
		prev := f.maxOpen.Load()
		if now <= prev || f.maxOpen.CompareAndSwap(prev, now) {
			break
		}
	}
	return &fakeSession{factory: f}, nil
}

type fakeSession struct {
	factory *fakeSessionFactory
	current string
	closed  bool
}

func (s *fakeSession) Navigate(ctx context.Context, rawURL string) error {
	if s.factory.delay > 0 {
		select {
		case <-time.After(s.factory.delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	s.factory.mu.Lock()
	defer s.factory.mu.Unlock()
	if s.factory.failNav[rawURL] {
		return errors.New("simulated navigation failure")
	}
	s.current = rawURL
	return nil
}

func (s *fakeSession) Content(context.Context) (string, error) {
	s.factory.mu.Lock()
	defer s.factory.mu.Unlock()
	markup, ok := s.factory.pages[s.current]
	if !ok {
		return "", errors.New("no markup for url")
	}
	return markup, nil
}

func (s *fakeSession) Close() {
	if s.closed {
		return
	}
	s.closed = true
	s.factory.open.Add(-1)
	s.factory.released.Add(1)
}

// collectEmitter records emitted events for assertions.
type collectEmitter struct {
	mu     sync.Mutex
	events []progress.Event
}

func (c *collectEmitter) Emit(evt progress.Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, evt)
}

func (c *collectEmitter) snapshot() []progress.Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]progress.Event(nil), c.events...)
}

func questionPage(text string) string {
	return fmt.Sprintf(`<html><body>
		<div class="question-body"><p class="card-text">%s</p></div>
		<div class="question-answer"><span class="correct-answer">A</span></div>
	</body></html>`, text)
}

func testItems(n int) ([]LinkItem, map[string]string) {
	items := make([]LinkItem, 0, n)
	pages := make(map[string]string, n)
	for i := 1; i <= n; i++ {
		link := fmt.Sprintf("https://example.com/discussions/view/topic-1-question-%d-discussion/", i)
		items = append(items, LinkItem{Key: Key{Topic: 1, Question: i}, Link: link})
		pages[link] = questionPage(fmt.Sprintf("Question number %d?", i))
	}
	return items, pages
}

func TestCoordinator_FetchAll_OneRecordPerItem(t *testing.T) {
	t.Parallel()

	items, pages := testItems(4)
	factory := &fakeSessionFactory{pages: pages}
	coord := NewCoordinator(factory, HTMLExtractor{}, 3, uuid.New(), nil, nil)

	records := coord.FetchAll(context.Background(), items)

	require.Len(t, records, len(items))
	for i, rec := range records {
		require.Equal(t, items[i].Key, rec.Key)
		require.Equal(t, items[i].Link, rec.Link)
		require.False(t, rec.Failed)
	}
	require.Equal(t, int32(len(items)), factory.minted.Load())
	require.Equal(t, int32(len(items)), factory.released.Load())
}

func TestCoordinator_FetchAll_FailureIsolation(t *testing.T) {
	t.Parallel()

	items, pages := testItems(5)
	failing := items[2].Link
	factory := &fakeSessionFactory{
		pages:   pages,
		failNav: map[string]bool{failing: true},
	}
	coord := NewCoordinator(factory, HTMLExtractor{}, 2, uuid.New(), nil, nil)

	records := coord.FetchAll(context.Background(), items)

	require.Len(t, records, 5)
	healthy := 0
	for i, rec := range records {
		if rec.Failed {
			require.Equal(t, items[2].Key, rec.Key)
			require.Equal(t, failing, rec.Link)
			require.Equal(t, SentinelQuestionText, rec.QuestionText)
			require.Empty(t, rec.Choices)
			require.Empty(t, rec.SuggestedAnswer)
			continue
		}
		healthy++
		require.Equal(t, items[i].Key, rec.Key)
	}
	require.Equal(t, 4, healthy)
	// A failed item still releases its session.
	require.Equal(t, factory.minted.Load(), factory.released.Load())
}

func TestCoordinator_FetchAll_BoundedConcurrency(t *testing.T) {
	t.Parallel()

	const (
		concurrency = 2
		itemCount   = 5
		perItem     = 40 * time.Millisecond
	)
	items, pages := testItems(itemCount)
	factory := &fakeSessionFactory{pages: pages, delay: perItem}
	coord := NewCoordinator(factory, HTMLExtractor{}, concurrency, uuid.New(), nil, nil)

	start := time.Now()
	records := coord.FetchAll(context.Background(), items)
	elapsed := time.Since(start)

	require.Len(t, records, itemCount)
	require.LessOrEqual(t, factory.maxOpen.Load(), int32(concurrency))
	// ceil(5/2) batches of at least perItem each.
	require.GreaterOrEqual(t, elapsed, 3*perItem)
}

func TestCoordinator_FetchAll_SessionOpenFailureDegrades(t *testing.T) {
	t.Parallel()

	items, _ := testItems(3)
	factory := &fakeSessionFactory{openErr: errors.New("browser unavailable")}
	coord := NewCoordinator(factory, HTMLExtractor{}, 2, uuid.New(), nil, nil)

	records := coord.FetchAll(context.Background(), items)

	require.Len(t, records, 3)
	for i, rec := range records {
		require.True(t, rec.Failed)
		require.Equal(t, items[i].Key, rec.Key)
	}
}

func TestCoordinator_FetchAll_EmitsCompletionProgress(t *testing.T) {
	t.Parallel()

	items, pages := testItems(3)
	emitter := &collectEmitter{}
	factory := &fakeSessionFactory{pages: pages}
	coord := NewCoordinator(factory, HTMLExtractor{}, 2, uuid.New(), emitter, nil)

	coord.FetchAll(context.Background(), items)

	events := emitter.snapshot()
	require.Len(t, events, 3)
	seen := map[int]bool{}
	for _, evt := range events {
		require.Equal(t, progress.StageFetchDone, evt.Stage)
		require.Equal(t, 3, evt.Total)
		seen[evt.Completed] = true
	}
	// Each completion count 1..3 is reported exactly once.
	require.Equal(t, map[int]bool{1: true, 2: true, 3: true}, seen)
}
