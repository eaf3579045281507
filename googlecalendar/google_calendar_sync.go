package googlecalendar

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"

	"go.uber.org/zap"
	calendar "google.golang.org/api/calendar/v3"

	"github.com/TheFoxKD/CalendarMTUSI/scraper"
)

// SyncEvents reconciles the calendar against the parsed schedule: events no
// longer on the schedule are deleted, changed ones updated, new ones
// inserted through CreateEvents. Returns the ids of inserted events.
func (s *Service) SyncEvents(ctx context.Context, events []scraper.ScheduleEvent) ([]string, error) {
	existing, err := s.listAllEvents(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing calendar events: %w", err)
	}

	existingByKey := make(map[string]*calendar.Event)
	for _, ev := range existing {
		if ev == nil || ev.Status == "cancelled" || ev.Start == nil || ev.End == nil {
			continue
		}
		existingByKey[eventKey(ev.Summary, ev.Start.DateTime, ev.End.DateTime)] = ev
	}

	wanted := make(map[string]scraper.ScheduleEvent, len(events))
	for _, ev := range events {
		body := eventBody(ev)
		wanted[eventKey(body.Summary, body.Start.DateTime, body.End.DateTime)] = ev
	}

	for key, ev := range existingByKey {
		if _, ok := wanted[key]; ok {
			continue
		}
		s.log.Info("deleting stale calendar event",
			zap.String("summary", ev.Summary), zap.String("event_id", ev.Id))
		if err := s.api.Events.Delete(s.calendarID, ev.Id).Context(ctx).Do(); err != nil {
			s.log.Error("failed to delete stale event",
				zap.String("event_id", ev.Id), zap.Error(err))
		}
	}

	var missing []scraper.ScheduleEvent
	for key, ev := range wanted {
		existing, found := existingByKey[key]
		if !found {
			missing = append(missing, ev)
			continue
		}
		body := eventBody(ev)
		if existing.Location != body.Location || existing.Description != body.Description || existing.ColorId != body.ColorId {
			s.log.Info("updating calendar event", zap.String("summary", body.Summary))
			if _, err := s.api.Events.Update(s.calendarID, existing.Id, body).Context(ctx).Do(); err != nil {
				s.log.Error("failed to update event",
					zap.String("event_id", existing.Id), zap.Error(err))
			}
		}
	}

	return s.CreateEvents(ctx, missing)
}

// listAllEvents walks the paginated event list of the target calendar.
func (s *Service) listAllEvents(ctx context.Context) ([]*calendar.Event, error) {
	var all []*calendar.Event
	pageToken := ""
	for {
		call := s.api.Events.List(s.calendarID).MaxResults(250).Context(ctx)
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}
		page, err := call.Do()
		if err != nil {
			return nil, err
		}
		all = append(all, page.Items...)
		if page.NextPageToken == "" {
			return all, nil
		}
		pageToken = page.NextPageToken
	}
}

// eventKey identifies an event by its visible content, so reconciliation
// works without storing ids between runs.
func eventKey(summary, start, end string) string {
	sum := md5.Sum([]byte(summary + start + end))
	return hex.EncodeToString(sum[:])
}
