package scraper

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/TheFoxKD/CalendarMTUSI/browser"
)

// Selectors on the schedule view.
const (
	dayButtonSelector    = ".button-day"
	currentDaySelector   = "h4.current-day"
	lessonSelector       = ".lesson"
	scheduleLinkSelector = "a[href='/student/schedule']"
)

// Any one of these is enough to accept that the schedule view is showing.
var scheduleIndicators = []string{
	".schedule-month",
	".button-day",
	".schedule-lessons",
	"schedule-page",
	"h4.current-day",
	".lessons-tabs",
}

// Navigator drives the schedule view's date controls and owns the retrying
// whole-page load protocol.
type Navigator struct {
	page        browser.Page
	norm        *Normalizer
	scheduleURL string
	maxAttempts int
	loadTimeout time.Duration
	backoffBase time.Duration
	log         *zap.Logger

	now   func() time.Time
	sleep func(time.Duration)
}

func NewNavigator(page browser.Page, norm *Normalizer, scheduleURL string, maxAttempts int, loadTimeout time.Duration, log *zap.Logger) *Navigator {
	if maxAttempts <= 0 {
		maxAttempts = 5
	}
	return &Navigator{
		page:        page,
		norm:        norm,
		scheduleURL: scheduleURL,
		maxAttempts: maxAttempts,
		loadTimeout: loadTimeout,
		backoffBase: time.Second,
		log:         log,
		now:         time.Now,
		sleep:       time.Sleep,
	}
}

// EnumerateDates reads every day button and resolves its label, skipping the
// ones that do not parse. The result is deduplicated by calendar date and
// sorted ascending.
func (n *Navigator) EnumerateDates() ([]DateCandidate, error) {
	buttons, err := n.page.QuerySelectorAll(dayButtonSelector)
	if err != nil {
		return nil, &Error{Code: ErrDateDiscovery.Code, Message: "failed to query day buttons", Err: err}
	}

	seen := make(map[time.Time]bool)
	var dates []DateCandidate
	for _, b := range buttons {
		label, err := b.TextContent()
		if err != nil || strings.TrimSpace(label) == "" {
			continue
		}
		date, err := n.resolveLabel(label)
		if err != nil {
			n.log.Warn("skipping unresolvable day button",
				zap.String("label", strings.TrimSpace(label)), zap.Error(err))
			continue
		}
		if seen[date] {
			continue
		}
		seen[date] = true
		dates = append(dates, DateCandidate{Label: strings.TrimSpace(label), Date: date})
	}

	sort.Slice(dates, func(i, j int) bool { return dates[i].Date.Before(dates[j].Date) })
	return dates, nil
}

// NavigateToDate re-scans the day buttons and clicks the one whose label
// resolves to target's calendar day. The settle wait after the click is
// tolerant: a networkidle timeout is logged and navigation proceeds.
func (n *Navigator) NavigateToDate(target time.Time) error {
	buttons, err := n.page.QuerySelectorAll(dayButtonSelector)
	if err != nil {
		return &Error{Code: ErrDateDiscovery.Code, Message: "failed to query day buttons", Err: err}
	}

	for _, b := range buttons {
		label, err := b.TextContent()
		if err != nil {
			continue
		}
		date, err := n.resolveLabel(label)
		if err != nil {
			continue
		}
		if !sameDay(date, target) {
			continue
		}
		if err := b.Click(); err != nil {
			return &Error{
				Code:    ErrDateNotFound.Code,
				Message: fmt.Sprintf("clicking day button for %s", target.Format("2006-01-02")),
				Err:     err,
			}
		}
		if err := n.page.WaitForLoadState(browser.WaitNetworkIdle, n.loadTimeout); err != nil {
			n.log.Warn("network idle not reached after day click, continuing", zap.Error(err))
		}
		return nil
	}

	return &Error{
		Code:    ErrDateNotFound.Code,
		Message: fmt.Sprintf("date %s not found among day buttons", target.Format("2006-01-02")),
	}
}

// LoadScheduleView opens the schedule view, relaxing the readiness criterion
// and growing the timeout as attempts fail, with exponential backoff in
// between. Once the attempt count passes the recovery threshold a direct
// schedule-link click is tried before the next retry.
func (n *Navigator) LoadScheduleView() error {
	const recoveryThreshold = 3

	var lastErr error
	for attempt := 0; attempt < n.maxAttempts; attempt++ {
		wait, timeout := n.attemptPlan(attempt)
		n.log.Info("navigating to schedule view",
			zap.Int("attempt", attempt+1),
			zap.Int("max_attempts", n.maxAttempts),
			zap.String("wait", string(wait)),
			zap.Duration("timeout", timeout))

		if err := n.page.Goto(n.scheduleURL, wait, timeout); err != nil {
			lastErr = err
			n.log.Warn("schedule view navigation failed",
				zap.Int("attempt", attempt+1), zap.Error(err))
		} else {
			// let late XHRs land before inspecting the DOM
			n.sleep(time.Second)
			if n.verifyScheduleView() {
				return nil
			}
			if attempt >= recoveryThreshold && n.clickScheduleLink() && n.verifyScheduleView() {
				n.log.Info("schedule view reached via link click")
				return nil
			}
			n.log.Warn("schedule view verification failed", zap.Int("attempt", attempt+1))
		}

		delay := n.backoffBase * (1 << attempt)
		n.log.Info("retrying schedule view", zap.Duration("delay", delay))
		n.sleep(delay)
	}

	return &Error{
		Code:    ErrScheduleUnreachable.Code,
		Message: fmt.Sprintf("schedule view did not load after %d attempts", n.maxAttempts),
		Err:     lastErr,
	}
}

// attemptPlan picks the readiness criterion and timeout for an attempt:
// content-parsed first, full load next, network idle with a doubled timeout
// last.
func (n *Navigator) attemptPlan(attempt int) (browser.WaitState, time.Duration) {
	switch {
	case attempt < 2:
		return browser.WaitDOMContentLoaded, n.loadTimeout
	case attempt < 4:
		return browser.WaitLoad, n.loadTimeout
	default:
		return browser.WaitNetworkIdle, 2 * n.loadTimeout
	}
}

func (n *Navigator) verifyScheduleView() bool {
	for _, sel := range scheduleIndicators {
		el, err := n.page.QuerySelector(sel)
		if err != nil {
			n.log.Warn("error checking schedule indicator",
				zap.String("selector", sel), zap.Error(err))
			continue
		}
		if el != nil {
			return true
		}
	}
	return strings.Contains(n.page.URL(), "schedule")
}

func (n *Navigator) clickScheduleLink() bool {
	link, err := n.page.QuerySelector(scheduleLinkSelector)
	if err != nil || link == nil {
		return false
	}
	if err := link.Click(); err != nil {
		n.log.Warn("schedule link click failed", zap.Error(err))
		return false
	}
	n.sleep(2 * time.Second)
	return true
}

func (n *Navigator) resolveLabel(label string) (time.Time, error) {
	header := ""
	if strings.Contains(label, todayLabel) {
		h, err := n.currentDayHeader()
		if err != nil {
			return time.Time{}, err
		}
		header = h
	}
	return n.norm.ResolveDateLabel(label, header, n.now().Year())
}

func (n *Navigator) currentDayHeader() (string, error) {
	el, err := n.page.QuerySelector(currentDaySelector)
	if err != nil {
		return "", err
	}
	if el == nil {
		return "", &Error{Code: ErrHeaderParse.Code, Message: "current day header not found"}
	}
	return el.TextContent()
}

func sameDay(a, b time.Time) bool {
	return a.Year() == b.Year() && a.YearDay() == b.YearDay()
}
