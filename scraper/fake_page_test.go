package scraper

import (
	"fmt"
	"sync"
	"time"

	"github.com/TheFoxKD/CalendarMTUSI/browser"
)

// fakeElement is an in-memory browser.Element for driving the state machines
// without a live page.
type fakeElement struct {
	text     string
	textErr  error
	clickErr error
	fillErr  error

	clicks  int
	filled  []string
	pressed []string

	// onClick runs after a successful click, typically to mutate the page.
	onClick func()
}

func (e *fakeElement) TextContent() (string, error) { return e.text, e.textErr }

func (e *fakeElement) Click() error {
	if e.clickErr != nil {
		return e.clickErr
	}
	e.clicks++
	if e.onClick != nil {
		e.onClick()
	}
	return nil
}

func (e *fakeElement) Fill(value string) error {
	if e.fillErr != nil {
		return e.fillErr
	}
	e.filled = append(e.filled, value)
	return nil
}

func (e *fakeElement) Press(key string) error {
	e.pressed = append(e.pressed, key)
	return nil
}

func (e *fakeElement) IsVisible() (bool, error) { return true, nil }

func (e *fakeElement) QuerySelector(string) (browser.Element, error) { return nil, nil }

func (e *fakeElement) QuerySelectorAll(string) ([]browser.Element, error) { return nil, nil }

type gotoCall struct {
	url  string
	wait browser.WaitState
}

// fakePage is an in-memory browser.Page. Selector lookups hit the elements
// map; a missing key means no match.
type fakePage struct {
	mu sync.Mutex

	elements map[string][]browser.Element
	content  string
	url      string
	title    string

	// gotoFunc, when set, decides the outcome of each Goto call.
	gotoFunc     func(call gotoCall) error
	gotos        []gotoCall
	loadStateErr error
	navErr       error
	evals        []any
}

func newFakePage() *fakePage {
	return &fakePage{elements: make(map[string][]browser.Element)}
}

func (p *fakePage) set(selector string, els ...browser.Element) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.elements[selector] = els
}

func (p *fakePage) remove(selector string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.elements, selector)
}

func (p *fakePage) Goto(url string, wait browser.WaitState, _ time.Duration) error {
	p.mu.Lock()
	call := gotoCall{url: url, wait: wait}
	p.gotos = append(p.gotos, call)
	fn := p.gotoFunc
	p.mu.Unlock()

	if fn != nil {
		if err := fn(call); err != nil {
			return err
		}
	}
	p.mu.Lock()
	p.url = url
	p.mu.Unlock()
	return nil
}

func (p *fakePage) QuerySelector(selector string) (browser.Element, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	els := p.elements[selector]
	if len(els) == 0 {
		return nil, nil
	}
	return els[0], nil
}

func (p *fakePage) QuerySelectorAll(selector string) ([]browser.Element, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.elements[selector], nil
}

func (p *fakePage) WaitForSelector(selector string, _ time.Duration) (browser.Element, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	els := p.elements[selector]
	if len(els) == 0 {
		return nil, fmt.Errorf("timeout waiting for %q", selector)
	}
	return els[0], nil
}

func (p *fakePage) WaitForLoadState(_ browser.WaitState, _ time.Duration) error {
	return p.loadStateErr
}

func (p *fakePage) WaitForNavigation(_ time.Duration, trigger func() error) error {
	if err := trigger(); err != nil {
		return err
	}
	return p.navErr
}

func (p *fakePage) Content() (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.content, nil
}

func (p *fakePage) URL() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.url
}

func (p *fakePage) Title() (string, error) { return p.title, nil }

func (p *fakePage) Evaluate(_ string, arg any) (any, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.evals = append(p.evals, arg)
	return nil, nil
}

var _ browser.Page = (*fakePage)(nil)
var _ browser.Element = (*fakeElement)(nil)
