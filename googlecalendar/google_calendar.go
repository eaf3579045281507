// Package googlecalendar is the sink that pushes parsed schedule events
// into a Google Calendar.
package googlecalendar

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	calendar "google.golang.org/api/calendar/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/TheFoxKD/CalendarMTUSI/scraper"
)

const calendarTimeZone = "Europe/Moscow"

// Config for the Google Calendar sink.
type Config struct {
	CredentialsPath string
	TokenPath       string
	CalendarID      string
	CalendarName    string
}

// Service wraps the Calendar API for schedule syncing.
type Service struct {
	api        *calendar.Service
	calendarID string
	log        *zap.Logger
}

// New builds the Calendar client from stored credentials. A missing or
// invalid token file triggers the interactive authorization flow; the fresh
// token is saved back for the next run.
func New(ctx context.Context, cfg Config, log *zap.Logger) (*Service, error) {
	raw, err := os.ReadFile(cfg.CredentialsPath)
	if err != nil {
		return nil, fmt.Errorf("reading credentials file: %w", err)
	}
	oauthCfg, err := google.ConfigFromJSON(raw, calendar.CalendarScope)
	if err != nil {
		return nil, fmt.Errorf("parsing credentials file: %w", err)
	}

	token, err := tokenFromFile(cfg.TokenPath)
	if err != nil {
		token, err = tokenFromWeb(ctx, oauthCfg)
		if err != nil {
			return nil, err
		}
		if err := saveToken(cfg.TokenPath, token); err != nil {
			log.Warn("could not persist oauth token", zap.Error(err))
		}
	}

	api, err := calendar.NewService(ctx, option.WithHTTPClient(oauthCfg.Client(ctx, token)))
	if err != nil {
		return nil, fmt.Errorf("building calendar client: %w", err)
	}

	svc := &Service{api: api, calendarID: cfg.CalendarID, log: log}
	if err := svc.ensureCalendar(ctx, cfg.CalendarName); err != nil {
		return nil, err
	}
	return svc, nil
}

// CalendarID returns the id actually in use, which may differ from the
// configured one when the calendar had to be created.
func (s *Service) CalendarID() string {
	return s.calendarID
}

// ensureCalendar verifies the target calendar exists, creating it when the
// API reports 404.
func (s *Service) ensureCalendar(ctx context.Context, name string) error {
	_, err := s.api.Calendars.Get(s.calendarID).Context(ctx).Do()
	if err == nil {
		return nil
	}

	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) && apiErr.Code == http.StatusNotFound {
		created, err := s.api.Calendars.Insert(&calendar.Calendar{
			Summary:  name,
			TimeZone: calendarTimeZone,
		}).Context(ctx).Do()
		if err != nil {
			return fmt.Errorf("creating calendar: %w", err)
		}
		s.calendarID = created.Id
		s.log.Info("created calendar", zap.String("calendar_id", created.Id))
		return nil
	}

	return fmt.Errorf("checking calendar: %w", err)
}

// CreateEvents inserts every event, skipping the ones the API rejects, and
// returns the ids of those created. A per-event API error never aborts the
// batch.
func (s *Service) CreateEvents(ctx context.Context, events []scraper.ScheduleEvent) ([]string, error) {
	if len(events) == 0 {
		s.log.Warn("no events to create")
		return nil, nil
	}

	ids := make([]string, 0, len(events))
	for _, ev := range events {
		created, err := s.api.Events.Insert(s.calendarID, eventBody(ev)).Context(ctx).Do()
		if err != nil {
			s.log.Error("failed to create event",
				zap.String("subject", ev.Subject),
				zap.Time("start", ev.StartTime),
				zap.Error(err))
			continue
		}
		s.log.Info("created calendar event",
			zap.String("event_id", created.Id), zap.String("subject", ev.Subject))
		ids = append(ids, created.Id)
	}
	return ids, nil
}

func eventBody(ev scraper.ScheduleEvent) *calendar.Event {
	return &calendar.Event{
		Summary:     fmt.Sprintf("%s (%s)", ev.Subject, ev.LessonType),
		Description: fmt.Sprintf("Преподаватель: %s\nГруппа: %s", ev.Teacher, ev.Group),
		Location:    ev.Location.String(),
		ColorId:     colorID(ev.LessonType),
		Start: &calendar.EventDateTime{
			DateTime: ev.StartTime.Format(time.RFC3339),
			TimeZone: calendarTimeZone,
		},
		End: &calendar.EventDateTime{
			DateTime: ev.EndTime.Format(time.RFC3339),
			TimeZone: calendarTimeZone,
		},
	}
}

// colorID maps lesson types onto calendar colors: lectures blue, practice
// green, labs yellow.
func colorID(t scraper.LessonType) string {
	switch t {
	case scraper.Practice:
		return "2"
	case scraper.Laboratory:
		return "5"
	default:
		return "9"
	}
}

func tokenFromFile(path string) (*oauth2.Token, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	token := &oauth2.Token{}
	if err := json.NewDecoder(f).Decode(token); err != nil {
		return nil, err
	}
	return token, nil
}

// tokenFromWeb walks the user through the authorization URL and exchanges
// the pasted code.
func tokenFromWeb(ctx context.Context, cfg *oauth2.Config) (*oauth2.Token, error) {
	authURL := cfg.AuthCodeURL("state-token", oauth2.AccessTypeOffline)
	fmt.Printf("Open the following link in your browser, then paste the authorization code:\n%v\n", authURL)

	var code string
	if _, err := fmt.Scan(&code); err != nil {
		return nil, fmt.Errorf("reading authorization code: %w", err)
	}

	token, err := cfg.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("exchanging authorization code: %w", err)
	}
	return token, nil
}

func saveToken(path string, token *oauth2.Token) error {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return err
	}
	defer f.Close()
	return json.NewEncoder(f).Encode(token)
}
