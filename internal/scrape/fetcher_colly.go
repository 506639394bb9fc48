package scrape

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/gocolly/colly/v2"
)

// CollyListingFetcher fetches listing pages over plain HTTP. Listing pages
// usually ship their content in the static HTML, so the heavy rendering
// session can stay closed until a page proves otherwise.
type CollyListingFetcher struct {
	baseCollector *colly.Collector
}

// NewCollyListingFetcher constructs the fast-path fetcher. The transport is
// wrapped with the cloudflare bypass so static listing fetches survive the
// site's anti-automation checks most of the time.
func NewCollyListingFetcher(userAgent string, timeout time.Duration) (*CollyListingFetcher, error) {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	base := colly.NewCollector(
		colly.UserAgent(userAgent),
	)
	base.AllowURLRevisit = true
	base.WithTransport(cloudflarebp.AddCloudFlareByPass(&http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		MaxIdleConns:          16,
		IdleConnTimeout:       30 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: timeout,
		ForceAttemptHTTP2:     true,
	}))
	base.SetRequestTimeout(timeout)
	return &CollyListingFetcher{baseCollector: base}, nil
}

// FetchListing retrieves one listing page and returns its raw HTML.
func (f *CollyListingFetcher) FetchListing(ctx context.Context, rawURL string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	collector := f.baseCollector.Clone()
	resultCh := make(chan listingResult, 1)
	var once sync.Once
	send := func(res listingResult) {
		once.Do(func() {
			resultCh <- res
		})
	}

	collector.OnRequest(func(r *colly.Request) {
		if err := ctx.Err(); err != nil {
			send(listingResult{err: err})
			r.Abort()
		}
	})
	collector.OnResponse(func(r *colly.Response) {
		if r.StatusCode != http.StatusOK {
			send(listingResult{err: errors.New("unexpected listing status")})
			return
		}
		send(listingResult{body: string(r.Body)})
	})
	collector.OnError(func(_ *colly.Response, err error) {
		if err == nil {
			err = errors.New("unknown colly error")
		}
		send(listingResult{err: err})
	})

	if err := collector.Visit(rawURL); err != nil {
		return "", err
	}
	collector.Wait()

	select {
	case res := <-resultCh:
		return res.body, res.err
	default:
		return "", errors.New("listing fetch produced no result")
	}
}

type listingResult struct {
	body string
	err  error
}
