package browser

import (
	"fmt"
	"time"

	"github.com/playwright-community/playwright-go"
)

// Session owns one Playwright browser and the single page a sync run drives.
type Session struct {
	pw      *playwright.Playwright
	browser playwright.Browser
	page    playwright.Page
}

// LaunchOptions configures the browser process.
type LaunchOptions struct {
	Headless bool
	SlowMo   time.Duration
}

// Launch starts Chromium and opens the page the scraper will drive.
func Launch(opts LaunchOptions) (*Session, error) {
	pw, err := playwright.Run()
	if err != nil {
		return nil, fmt.Errorf("starting playwright: %w", err)
	}

	br, err := pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(opts.Headless),
		Args:     []string{"--no-sandbox", "--disable-setuid-sandbox"},
		SlowMo:   playwright.Float(float64(opts.SlowMo.Milliseconds())),
	})
	if err != nil {
		pw.Stop()
		return nil, fmt.Errorf("launching chromium: %w", err)
	}

	ctx, err := br.NewContext(playwright.BrowserNewContextOptions{
		Viewport:  &playwright.Size{Width: 1920, Height: 1080},
		UserAgent: playwright.String("Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"),
	})
	if err != nil {
		br.Close()
		pw.Stop()
		return nil, fmt.Errorf("creating browser context: %w", err)
	}

	page, err := ctx.NewPage()
	if err != nil {
		br.Close()
		pw.Stop()
		return nil, fmt.Errorf("opening page: %w", err)
	}

	return &Session{pw: pw, browser: br, page: page}, nil
}

// Page returns the driven page behind the narrow interface.
func (s *Session) Page() Page {
	return &pwPage{page: s.page}
}

// Close tears down the browser and the Playwright driver.
func (s *Session) Close() {
	s.browser.Close()
	s.pw.Stop()
}

type pwPage struct {
	page playwright.Page
}

func (p *pwPage) Goto(url string, wait WaitState, timeout time.Duration) error {
	_, err := p.page.Goto(url, playwright.PageGotoOptions{
		WaitUntil: waitUntilState(wait),
		Timeout:   playwright.Float(float64(timeout.Milliseconds())),
	})
	return err
}

func (p *pwPage) QuerySelector(selector string) (Element, error) {
	handle, err := p.page.QuerySelector(selector)
	if err != nil {
		return nil, err
	}
	if handle == nil {
		return nil, nil
	}
	return &pwElement{handle: handle}, nil
}

func (p *pwPage) QuerySelectorAll(selector string) ([]Element, error) {
	handles, err := p.page.QuerySelectorAll(selector)
	if err != nil {
		return nil, err
	}
	elements := make([]Element, 0, len(handles))
	for _, h := range handles {
		elements = append(elements, &pwElement{handle: h})
	}
	return elements, nil
}

func (p *pwPage) WaitForSelector(selector string, timeout time.Duration) (Element, error) {
	handle, err := p.page.WaitForSelector(selector, playwright.PageWaitForSelectorOptions{
		State:   playwright.WaitForSelectorStateVisible,
		Timeout: playwright.Float(float64(timeout.Milliseconds())),
	})
	if err != nil {
		return nil, err
	}
	if handle == nil {
		return nil, fmt.Errorf("selector %q not found", selector)
	}
	return &pwElement{handle: handle}, nil
}

func (p *pwPage) WaitForLoadState(state WaitState, timeout time.Duration) error {
	return p.page.WaitForLoadState(playwright.PageWaitForLoadStateOptions{
		State:   loadState(state),
		Timeout: playwright.Float(float64(timeout.Milliseconds())),
	})
}

func (p *pwPage) WaitForNavigation(timeout time.Duration, trigger func() error) error {
	_, err := p.page.ExpectNavigation(trigger, playwright.PageExpectNavigationOptions{
		Timeout: playwright.Float(float64(timeout.Milliseconds())),
	})
	return err
}

func (p *pwPage) Content() (string, error) {
	return p.page.Content()
}

func (p *pwPage) URL() string {
	return p.page.URL()
}

func (p *pwPage) Title() (string, error) {
	return p.page.Title()
}

func (p *pwPage) Evaluate(script string, arg any) (any, error) {
	return p.page.Evaluate(script, arg)
}

type pwElement struct {
	handle playwright.ElementHandle
}

func (e *pwElement) TextContent() (string, error) {
	return e.handle.TextContent()
}

func (e *pwElement) Click() error {
	return e.handle.Click()
}

func (e *pwElement) Fill(value string) error {
	return e.handle.Fill(value)
}

func (e *pwElement) Press(key string) error {
	return e.handle.Press(key)
}

func (e *pwElement) IsVisible() (bool, error) {
	return e.handle.IsVisible()
}

func (e *pwElement) QuerySelector(selector string) (Element, error) {
	handle, err := e.handle.QuerySelector(selector)
	if err != nil {
		return nil, err
	}
	if handle == nil {
		return nil, nil
	}
	return &pwElement{handle: handle}, nil
}

func (e *pwElement) QuerySelectorAll(selector string) ([]Element, error) {
	handles, err := e.handle.QuerySelectorAll(selector)
	if err != nil {
		return nil, err
	}
	elements := make([]Element, 0, len(handles))
	for _, h := range handles {
		elements = append(elements, &pwElement{handle: h})
	}
	return elements, nil
}

func waitUntilState(state WaitState) *playwright.WaitUntilState {
	switch state {
	case WaitLoad:
		return playwright.WaitUntilStateLoad
	case WaitNetworkIdle:
		return playwright.WaitUntilStateNetworkidle
	default:
		return playwright.WaitUntilStateDomcontentloaded
	}
}

func loadState(state WaitState) *playwright.LoadState {
	switch state {
	case WaitLoad:
		return playwright.LoadStateLoad
	case WaitNetworkIdle:
		return playwright.LoadStateNetworkidle
	default:
		return playwright.LoadStateDomcontentloaded
	}
}
