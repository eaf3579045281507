package scraper

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const day13HTML = `
<div class="schedule-page">
  <div class="lesson">
    <h4>Высшая математика</h4>
    <div class="text-gray">
      <div class="d-flex flex-wrap"><span>Иванов И.И.</span><span>Лекция</span></div>
      <div class="d-flex flex-wrap"><span>09:30 – 11:05</span><span>Н-310</span></div>
    </div>
  </div>
  <div class="lesson">
    <h4>Физика</h4>
    <div class="text-gray">
      <div class="d-flex flex-wrap"><span>Петров П.П.</span><span>Лабораторная работа</span></div>
      <div class="d-flex flex-wrap"><span>11:20 – 12:55</span><span>А-205</span></div>
    </div>
  </div>
</div>`

const day14HTML = `
<div class="schedule-page">
  <div class="lesson">
    <h4>Философия</h4>
    <div class="text-gray">
      <div class="d-flex flex-wrap"><span>Кузнецова А.А.</span><span>Практическое занятие</span></div>
      <div class="d-flex flex-wrap"><span>13:15 – 14:50</span><span>Online</span></div>
    </div>
  </div>
  <div class="lesson">
    <div class="text-gray">
      <div class="d-flex flex-wrap"><span>Без названия</span><span>Лекция</span></div>
      <div class="d-flex flex-wrap"><span>15:00 – 16:35</span><span>Н-1</span></div>
    </div>
  </div>
</div>`

func newTestScraper(page *fakePage) *Scraper {
	s := New(page, Config{
		Email:            "student@mtuci.ru",
		Password:         "secret",
		LoginURL:         testLoginURL,
		ScheduleURL:      testScheduleURL,
		MaxRetries:       5,
		Timeout:          time.Second,
		DefaultBuilding:  "Н",
		DefaultGroup:     "БИК2404",
		LenientTimeRange: true,
	}, zap.NewNop())
	s.nav.now = func() time.Time { return time.Date(2024, time.November, 13, 12, 0, 0, 0, time.UTC) }
	s.nav.sleep = func(time.Duration) {}
	s.nav.backoffBase = time.Millisecond
	s.auth.sleep = func(time.Duration) {}
	return s
}

// portalPage builds a fake portal that starts on the login form and, once
// submitted, exposes the schedule view with day buttons for 13.11 and 14.11.
// Clicking a day button swaps the page content to that day's lessons.
func portalPage() *fakePage {
	page := newFakePage()

	day13 := &fakeElement{text: "Ср 13.11"}
	day14 := &fakeElement{text: "Чт 14.11"}
	day13.onClick = func() { page.content = day13HTML }
	day14.onClick = func() { page.content = day14HTML }

	_, _, submit := loginForm(page)
	submit.onClick = func() {
		page.remove(loginFormSelector)
		page.set("#side-menu", &fakeElement{})
		page.set(dayButtonSelector, day13, day14)
	}
	return page
}

func TestParseScheduleFullPass(t *testing.T) {
	page := portalPage()
	s := newTestScraper(page)

	events, err := s.ParseSchedule()
	require.NoError(t, err)
	require.Len(t, events, 3, "the subjectless lesson on 14.11 is skipped")

	assert.Equal(t, "Высшая математика", events[0].Subject)
	assert.Equal(t, "Иванов И.И.", events[0].Teacher)
	assert.Equal(t, Lecture, events[0].LessonType)
	assert.Equal(t, Location{Building: "Н", Room: "310"}, events[0].Location)
	assert.Equal(t, time.Date(2024, time.November, 13, 9, 30, 0, 0, time.UTC), events[0].StartTime)

	assert.Equal(t, "Физика", events[1].Subject)
	assert.Equal(t, Laboratory, events[1].LessonType)

	assert.Equal(t, "Философия", events[2].Subject)
	assert.Equal(t, Practice, events[2].LessonType)
	assert.Equal(t, Location{Building: "Online", Room: "Online"}, events[2].Location)
	assert.Equal(t, time.Date(2024, time.November, 14, 13, 15, 0, 0, time.UTC), events[2].StartTime)

	for i := 1; i < len(events); i++ {
		assert.False(t, events[i].StartTime.Before(events[i-1].StartTime), "events must be sorted")
	}
	for _, ev := range events {
		assert.Equal(t, "БИК2404", ev.Group)
	}
}

func TestParseScheduleIdempotent(t *testing.T) {
	page := portalPage()
	s := newTestScraper(page)

	first, err := s.ParseSchedule()
	require.NoError(t, err)

	// second pass on the same, now authenticated, page
	second, err := s.ParseSchedule()
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestParseScheduleAuthFailureAborts(t *testing.T) {
	page := newFakePage()
	_, _, submit := loginForm(page)
	submit.onClick = func() {
		page.set(".alert-danger", &fakeElement{text: "Неверный логин или пароль"})
	}

	s := newTestScraper(page)
	_, err := s.ParseSchedule()
	require.ErrorIs(t, err, ErrLoginFailed)

	for _, c := range page.gotos {
		assert.NotEqual(t, testScheduleURL, c.url, "schedule must not be visited after a failed login")
	}
}

func TestParseScheduleUnreachableAborts(t *testing.T) {
	page := newFakePage()
	page.set("#side-menu", &fakeElement{})
	page.gotoFunc = func(gotoCall) error { return errors.New("navigation timeout") }

	s := newTestScraper(page)
	_, err := s.ParseSchedule()
	assert.ErrorIs(t, err, ErrScheduleUnreachable)
}

func TestParseScheduleSkipsFailingDate(t *testing.T) {
	page := newFakePage()
	page.set("#side-menu", &fakeElement{})

	day13 := &fakeElement{text: "Ср 13.11"}
	day13.onClick = func() { page.content = day13HTML }
	day14 := &fakeElement{text: "Чт 14.11", clickErr: errors.New("element detached")}
	page.set(dayButtonSelector, day13, day14)

	s := newTestScraper(page)
	events, err := s.ParseSchedule()
	require.NoError(t, err)
	require.Len(t, events, 2, "events from 13.11 survive the broken 14.11")
	assert.Equal(t, "Высшая математика", events[0].Subject)
}

func TestParseScheduleEmptyDays(t *testing.T) {
	page := newFakePage()
	page.set("#side-menu", &fakeElement{})
	day13 := &fakeElement{text: "Ср 13.11"}
	day13.onClick = func() { page.content = `<div class="schedule-page"></div>` }
	page.set(dayButtonSelector, day13)

	s := newTestScraper(page)
	events, err := s.ParseSchedule()
	require.NoError(t, err)
	assert.Empty(t, events)
}
