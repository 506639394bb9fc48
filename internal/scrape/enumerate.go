package scrape

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jfalgout/examdump/internal/progress"
)

// ErrDiscovery means the listing structure was unreadable: the page-count
// indicator is missing, usually because the site changed or the fetch was
// blocked. The caller cannot recover structurally; enumeration halts.
var ErrDiscovery = errors.New("discovery: listing page indicator not found")

// Structural markers on the provider listing pages.
const (
	pageIndicatorSelector  = "span.discussion-list-page-indicator"
	discussionLinkSelector = "a.discussion-link"
)

// Enumerator walks every listing page for a provider and collects discussion
// links whose anchor text matches a search term. It holds at most one
// rendering session for the entire walk and releases it on every exit path.
type Enumerator struct {
	sessions SessionFactory
	fast     ListingFetcher
	baseURL  string
	logger   *zap.Logger
	emitter  progress.Emitter
	runID    uuid.UUID
}

// NewEnumerator builds an Enumerator. baseURL is a printf template with one
// %s verb for the lowercased provider name. fast may be nil; when set,
// listing pages are first fetched over plain HTTP and the rendering session
// is only opened for pages whose static HTML lacks the listing content.
func NewEnumerator(sessions SessionFactory, fast ListingFetcher, baseURL string, logger *zap.Logger) *Enumerator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Enumerator{
		sessions: sessions,
		fast:     fast,
		baseURL:  baseURL,
		logger:   logger,
	}
}

// SetEmitter installs an optional progress emitter; each processed listing
// page produces one advisory event.
func (e *Enumerator) SetEmitter(emitter progress.Emitter, runID uuid.UUID) {
	e.emitter = emitter
	e.runID = runID
}

func (e *Enumerator) observePage(pageURL string) {
	if e.emitter == nil {
		return
	}
	e.emitter.Emit(progress.Event{
		RunID: e.runID,
		TS:    time.Now().UTC(),
		Stage: progress.StageListing,
		URL:   pageURL,
	})
}

// Enumerate returns the deduplicated set of discussion URLs whose anchor
// text contains search (case-insensitive), across all listing pages of
// provider. The page count is read from page 1; a missing indicator returns
// an empty set together with ErrDiscovery.
func (e *Enumerator) Enumerate(ctx context.Context, provider, search string) ([]string, error) {
	base := fmt.Sprintf(e.baseURL, strings.ToLower(provider))
	walker := &listingWalker{sessions: e.sessions, fast: e.fast, logger: e.logger}
	defer walker.release()

	first, firstURL, err := walker.page(ctx, listingPageURL(base, 1), true)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDiscovery, err)
	}
	pages, err := pageCount(first)
	if err != nil {
		return nil, err
	}
	e.logger.Info("listing discovered",
		zap.String("provider", provider),
		zap.Int("pages", pages),
	)
	if pages <= 0 {
		return []string{}, nil
	}

	seen := make(map[string]struct{})
	collectLinks(first, firstURL, search, seen)
	e.observePage(firstURL.String())
	for page := 2; page <= pages; page++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		doc, pageURL, err := walker.page(ctx, listingPageURL(base, page), false)
		if err != nil {
			// One bad listing page must not sink the walk.
			e.logger.Warn("listing page skipped", zap.Int("page", page), zap.Error(err))
			continue
		}
		collectLinks(doc, pageURL, search, seen)
		e.observePage(pageURL.String())
	}

	links := make([]string, 0, len(seen))
	for link := range seen {
		links = append(links, link)
	}
	sort.Strings(links)
	return links, nil
}

func listingPageURL(base string, page int) string {
	if !strings.HasSuffix(base, "/") {
		base += "/"
	}
	return fmt.Sprintf("%s%d/", base, page)
}

// pageCount reads the total page count from the listing indicator. The
// indicator carries two numeric markers; the second is the total.
func pageCount(doc *goquery.Document) (int, error) {
	markers := doc.Find(pageIndicatorSelector).First().Find("strong")
	if markers.Length() < 2 {
		return 0, ErrDiscovery
	}
	total, err := strconv.Atoi(strings.TrimSpace(markers.Eq(1).Text()))
	if err != nil {
		return 0, fmt.Errorf("%w: bad page total: %v", ErrDiscovery, err)
	}
	return total, nil
}

// collectLinks adds every matching discussion href to seen, resolved against
// the page URL. Matching is a case-folded substring test on the anchor text.
func collectLinks(doc *goquery.Document, pageURL *url.URL, search string, seen map[string]struct{}) {
	needle := strings.ToLower(search)
	doc.Find(discussionLinkSelector).Each(func(_ int, sel *goquery.Selection) {
		if !strings.Contains(strings.ToLower(sel.Text()), needle) {
			return
		}
		href, ok := sel.Attr("href")
		if !ok || href == "" {
			return
		}
		resolved, err := pageURL.Parse(href)
		if err != nil {
			return
		}
		seen[resolved.String()] = struct{}{}
	})
}

// listingWalker fetches listing pages, preferring the fast path and lazily
// opening a single rendering session only when needed. The session, if
// opened, lives for the whole walk.
type listingWalker struct {
	sessions SessionFactory
	fast     ListingFetcher
	logger   *zap.Logger
	sess     Session
}

// page fetches one listing page. needIndicator is set for the page the walk
// reads its total page count from: a static response without the indicator
// must not short-circuit the rendered fallback there, even if it already
// carries discussion links.
func (w *listingWalker) page(ctx context.Context, rawURL string, needIndicator bool) (*goquery.Document, *url.URL, error) {
	pageURL, err := url.Parse(rawURL)
	if err != nil {
		return nil, nil, fmt.Errorf("parse listing url: %w", err)
	}

	if w.fast != nil {
		markup, err := w.fast.FetchListing(ctx, rawURL)
		if err == nil {
			if doc, derr := parseDoc(markup); derr == nil && listingUsable(doc, needIndicator) {
				return doc, pageURL, nil
			}
		}
		w.logger.Debug("fast listing path unusable, rendering", zap.String("url", rawURL))
	}

	if w.sess == nil {
		sess, err := w.sessions.NewSession(ctx)
		if err != nil {
			return nil, nil, fmt.Errorf("open listing session: %w", err)
		}
		w.sess = sess
	}
	if err := w.sess.Navigate(ctx, rawURL); err != nil {
		return nil, nil, fmt.Errorf("navigate listing %s: %w", rawURL, err)
	}
	markup, err := w.sess.Content(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("read listing %s: %w", rawURL, err)
	}
	doc, err := parseDoc(markup)
	if err != nil {
		return nil, nil, err
	}
	return doc, pageURL, nil
}

func (w *listingWalker) release() {
	if w.sess != nil {
		w.sess.Close()
		w.sess = nil
	}
}

func parseDoc(markup string) (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return nil, fmt.Errorf("parse listing markup: %w", err)
	}
	return doc, nil
}

// listingUsable reports whether statically fetched HTML already carries the
// listing content, or whether the page needs client-side rendering. When
// needIndicator is set only the page indicator counts.
func listingUsable(doc *goquery.Document, needIndicator bool) bool {
	if doc.Find(pageIndicatorSelector).Length() > 0 {
		return true
	}
	return !needIndicator && doc.Find(discussionLinkSelector).Length() > 0
}
