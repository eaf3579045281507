package scraper

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/TheFoxKD/CalendarMTUSI/browser"
)

const testScheduleURL = "https://lk.mtuci.ru/student/schedule"

func newTestNavigator(page browser.Page) *Navigator {
	n := NewNavigator(page, newTestNormalizer(true), testScheduleURL, 5, time.Second, zap.NewNop())
	n.now = func() time.Time { return time.Date(2024, time.November, 13, 12, 0, 0, 0, time.UTC) }
	n.sleep = func(time.Duration) {}
	n.backoffBase = time.Millisecond
	return n
}

func TestEnumerateDates(t *testing.T) {
	page := newFakePage()
	page.set(dayButtonSelector,
		&fakeElement{text: "Чт 14.11"},
		&fakeElement{text: "Сегодня"},
		&fakeElement{text: "Пн 11.11"},
		&fakeElement{text: "Пн 11.11"}, // duplicate button
		&fakeElement{text: "???"},      // unresolvable, skipped
		&fakeElement{text: "   "},      // blank, skipped
	)
	page.set(currentDaySelector, &fakeElement{text: "Среда, 13 ноября 2024 г."})

	nav := newTestNavigator(page)
	dates, err := nav.EnumerateDates()
	require.NoError(t, err)

	require.Len(t, dates, 3)
	assert.Equal(t, time.Date(2024, time.November, 11, 0, 0, 0, 0, time.UTC), dates[0].Date)
	assert.Equal(t, time.Date(2024, time.November, 13, 0, 0, 0, 0, time.UTC), dates[1].Date)
	assert.Equal(t, time.Date(2024, time.November, 14, 0, 0, 0, 0, time.UTC), dates[2].Date)
	assert.Equal(t, "Сегодня", dates[1].Label)
}

func TestNavigateToDateClicksMatchingButton(t *testing.T) {
	page := newFakePage()
	target := &fakeElement{text: "Чт 14.11"}
	other := &fakeElement{text: "Пн 11.11"}
	page.set(dayButtonSelector, other, target)

	nav := newTestNavigator(page)
	err := nav.NavigateToDate(time.Date(2024, time.November, 14, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, 1, target.clicks)
	assert.Equal(t, 0, other.clicks)
}

func TestNavigateToDateToleratesSettleTimeout(t *testing.T) {
	page := newFakePage()
	page.set(dayButtonSelector, &fakeElement{text: "Чт 14.11"})
	page.loadStateErr = errors.New("networkidle timeout")

	nav := newTestNavigator(page)
	err := nav.NavigateToDate(time.Date(2024, time.November, 14, 0, 0, 0, 0, time.UTC))
	assert.NoError(t, err)
}

func TestNavigateToDateUnknownDate(t *testing.T) {
	page := newFakePage()
	page.set(dayButtonSelector, &fakeElement{text: "Пн 11.11"})

	nav := newTestNavigator(page)
	err := nav.NavigateToDate(time.Date(2024, time.December, 25, 0, 0, 0, 0, time.UTC))
	assert.ErrorIs(t, err, ErrDateNotFound)
}

func TestLoadScheduleViewFirstAttempt(t *testing.T) {
	page := newFakePage()
	page.set(".button-day", &fakeElement{text: "Пн 11.11"})

	nav := newTestNavigator(page)
	require.NoError(t, nav.LoadScheduleView())
	require.Len(t, page.gotos, 1)
	assert.Equal(t, browser.WaitDOMContentLoaded, page.gotos[0].wait)
	assert.Equal(t, testScheduleURL, page.gotos[0].url)
}

func TestLoadScheduleViewRelaxesReadiness(t *testing.T) {
	page := newFakePage()
	page.gotoFunc = func(gotoCall) error { return errors.New("navigation timeout") }

	nav := newTestNavigator(page)
	err := nav.LoadScheduleView()
	require.ErrorIs(t, err, ErrScheduleUnreachable)

	var waits []browser.WaitState
	for _, c := range page.gotos {
		waits = append(waits, c.wait)
	}
	assert.Equal(t, []browser.WaitState{
		browser.WaitDOMContentLoaded,
		browser.WaitDOMContentLoaded,
		browser.WaitLoad,
		browser.WaitLoad,
		browser.WaitNetworkIdle,
	}, waits)
}

func TestLoadScheduleViewBackoffGrows(t *testing.T) {
	page := newFakePage()
	page.gotoFunc = func(gotoCall) error { return errors.New("navigation timeout") }

	nav := newTestNavigator(page)
	var delays []time.Duration
	nav.sleep = func(d time.Duration) { delays = append(delays, d) }

	require.Error(t, nav.LoadScheduleView())
	require.Len(t, delays, 5)
	for i := 1; i < len(delays); i++ {
		assert.Equal(t, 2*delays[i-1], delays[i])
	}
}

func TestLoadScheduleViewRecoveryLink(t *testing.T) {
	page := newFakePage()
	link := &fakeElement{onClick: func() {
		page.set(".button-day", &fakeElement{text: "Пн 11.11"})
	}}
	page.set(scheduleLinkSelector, link)

	// off-schedule landing page, no indicators until the link is clicked
	nav := NewNavigator(page, newTestNormalizer(true), "https://lk.mtuci.ru/student/lk", 5, time.Second, zap.NewNop())
	nav.sleep = func(time.Duration) {}
	nav.backoffBase = time.Millisecond

	require.NoError(t, nav.LoadScheduleView())
	assert.Equal(t, 1, link.clicks)
	assert.Len(t, page.gotos, 4)
}
