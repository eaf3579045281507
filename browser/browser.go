// Package browser wraps the driven browser page behind a narrow interface so
// the scraping state machines can run against a test double.
package browser

import "time"

// WaitState is a page readiness milestone, from least to most strict.
type WaitState string

const (
	WaitDOMContentLoaded WaitState = "domcontentloaded"
	WaitLoad             WaitState = "load"
	WaitNetworkIdle      WaitState = "networkidle"
)

// Element is a handle to a single DOM node on the driven page.
type Element interface {
	TextContent() (string, error)
	Click() error
	Fill(value string) error
	Press(key string) error
	IsVisible() (bool, error)
	QuerySelector(selector string) (Element, error)
	QuerySelectorAll(selector string) ([]Element, error)
}

// Page is the subset of browser operations the scraper drives. Every method
// is slow, fallible I/O against a live page. QuerySelector returns a nil
// Element (and nil error) when nothing matches.
type Page interface {
	Goto(url string, wait WaitState, timeout time.Duration) error
	QuerySelector(selector string) (Element, error)
	QuerySelectorAll(selector string) ([]Element, error)
	WaitForSelector(selector string, timeout time.Duration) (Element, error)
	WaitForLoadState(state WaitState, timeout time.Duration) error
	// WaitForNavigation runs trigger and waits for the navigation it causes.
	WaitForNavigation(timeout time.Duration, trigger func() error) error
	Content() (string, error)
	URL() string
	Title() (string, error)
	Evaluate(script string, arg any) (any, error)
}
