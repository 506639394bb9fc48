package render

import (
	"time"

	"github.com/chromedp/chromedp"
)

// Settle decides how long a freshly navigated page is given to finish
// client-side rendering and anti-automation checks before its content is
// read.
type Settle interface {
	Action() chromedp.Action
}

type fixedDelay time.Duration

// FixedDelay waits a constant duration after navigation.
func FixedDelay(d time.Duration) Settle {
	return fixedDelay(d)
}

func (f fixedDelay) Action() chromedp.Action {
	return chromedp.Sleep(time.Duration(f))
}

type waitVisible struct {
	selector string
	extra    time.Duration
}

// WaitVisible polls until selector is visible, then waits extra. Preferred
// over FixedDelay when the target page has a reliable readiness marker.
func WaitVisible(selector string, extra time.Duration) Settle {
	return waitVisible{selector: selector, extra: extra}
}

func (w waitVisible) Action() chromedp.Action {
	tasks := chromedp.Tasks{chromedp.WaitVisible(w.selector, chromedp.ByQuery)}
	if w.extra > 0 {
		tasks = append(tasks, chromedp.Sleep(w.extra))
	}
	return tasks
}
