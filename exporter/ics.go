// Package exporter renders parsed schedule events as an iCalendar feed.
package exporter

import (
	"fmt"
	"io"
	"os"
	"time"

	ics "github.com/arran4/golang-ical"

	"github.com/TheFoxKD/CalendarMTUSI/scraper"
)

// GenerateICS writes the event list as an iCalendar feed.
func GenerateICS(events []scraper.ScheduleEvent, w io.Writer) error {
	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId("-//CalendarMTUSI//RU")

	now := time.Now()
	for i, ev := range events {
		uid := fmt.Sprintf("%s-%d@calendarmtusi", ev.StartTime.Format("20060102T150405"), i)
		e := cal.AddEvent(uid)
		e.SetCreatedTime(now)
		e.SetDtStampTime(now)
		e.SetModifiedAt(now)
		e.SetStartAt(ev.StartTime)
		e.SetEndAt(ev.EndTime)
		e.SetSummary(fmt.Sprintf("%s (%s)", ev.Subject, ev.LessonType))
		e.SetLocation(ev.Location.String())
		e.SetDescription(fmt.Sprintf("Преподаватель: %s\nГруппа: %s", ev.Teacher, ev.Group))
	}

	return cal.SerializeTo(w)
}

// WriteFile renders the feed to path.
func WriteFile(events []scraper.ScheduleEvent, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating ics file: %w", err)
	}
	defer f.Close()

	if err := GenerateICS(events, f); err != nil {
		return fmt.Errorf("writing ics feed: %w", err)
	}
	return nil
}
