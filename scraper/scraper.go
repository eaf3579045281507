// Package scraper extracts the MTUCI class schedule from the student portal:
// it authenticates, walks the available dates and normalizes the rendered
// lesson nodes into ScheduleEvents.
package scraper

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/TheFoxKD/CalendarMTUSI/browser"
)

// Config carries the scraping knobs supplied at construction.
type Config struct {
	Email            string
	Password         string
	LoginURL         string
	ScheduleURL      string
	MaxRetries       int
	Timeout          time.Duration
	DefaultBuilding  string
	DefaultGroup     string
	LenientTimeRange bool
}

// Scraper composes authentication, navigation and extraction into one
// schedule pass over a single driven page.
type Scraper struct {
	page browser.Page
	auth *Authenticator
	nav  *Navigator
	ex   *Extractor
	log  *zap.Logger
}

func New(page browser.Page, cfg Config, log *zap.Logger) *Scraper {
	norm := NewNormalizer(cfg.DefaultBuilding, cfg.LenientTimeRange, log)
	return &Scraper{
		page: page,
		auth: NewAuthenticator(page, cfg.Email, cfg.Password, cfg.LoginURL, cfg.Timeout, log),
		nav:  NewNavigator(page, norm, cfg.ScheduleURL, cfg.MaxRetries, cfg.Timeout, log),
		ex:   NewExtractor(norm, cfg.DefaultGroup, log),
		log:  log,
	}
}

// ParseSchedule runs one full pass and returns all events sorted ascending
// by start time. A failed date or lesson is logged and skipped; only
// authentication and the initial schedule-view load abort the run.
func (s *Scraper) ParseSchedule() ([]ScheduleEvent, error) {
	if err := s.auth.Authenticate(); err != nil {
		return nil, err
	}
	if err := s.nav.LoadScheduleView(); err != nil {
		return nil, err
	}
	// generous settle for late XHRs; the page is usable even if it times out
	if err := s.page.WaitForLoadState(browser.WaitNetworkIdle, 30*time.Second); err != nil {
		s.log.Warn("network idle not reached after schedule load, continuing", zap.Error(err))
	}

	dates, err := s.nav.EnumerateDates()
	if err != nil {
		return nil, err
	}
	s.log.Info("found available dates", zap.Int("count", len(dates)))

	var events []ScheduleEvent
	for _, d := range dates {
		dayEvents, err := s.parseDay(d.Date)
		if err != nil {
			s.log.Warn("skipping date",
				zap.String("date", d.Date.Format("2006-01-02")), zap.Error(err))
			continue
		}
		s.log.Info("parsed day",
			zap.String("date", d.Date.Format("2006-01-02")),
			zap.Int("events", len(dayEvents)))
		events = append(events, dayEvents...)
	}

	sort.Slice(events, func(i, j int) bool { return events[i].StartTime.Before(events[j].StartTime) })
	return events, nil
}

// parseDay navigates to date and extracts every lesson node the rendered
// page contains. Individual lesson failures are logged and skipped.
func (s *Scraper) parseDay(date time.Time) ([]ScheduleEvent, error) {
	if err := s.nav.NavigateToDate(date); err != nil {
		return nil, err
	}

	html, err := s.page.Content()
	if err != nil {
		return nil, fmt.Errorf("reading schedule page content: %w", err)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parsing schedule page html: %w", err)
	}

	var events []ScheduleEvent
	doc.Find(lessonSelector).Each(func(_ int, sel *goquery.Selection) {
		ev, err := s.ex.Extract(sel, date)
		if err != nil {
			s.log.Warn("skipping lesson",
				zap.String("date", date.Format("2006-01-02")), zap.Error(err))
			return
		}
		events = append(events, ev)
	})
	return events, nil
}
