package scraper

import (
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"
)

// Selector chains for the lesson node internals, most specific first. The
// secondary entries cover older markup shapes still seen on some portal
// deployments.
var (
	subjectSelectors = []string{"h4"}
	infoSelectors    = []string{"div.text-gray", "div.lesson-info"}
)

const rowSelector = ".d-flex.flex-wrap"

// Placeholder texts substituted when a span is missing. Partial data beats
// no data here; only a missing subject or info container disqualifies the
// node as a lesson.
const (
	defaultTeacherText  = "Преподаватель не указан"
	defaultTypeText     = "Лекция"
	defaultTimeText     = "09:00 – 10:30"
	defaultLocationText = "не указана"
)

// Extractor turns one lesson node into a ScheduleEvent.
type Extractor struct {
	norm  *Normalizer
	group string
	log   *zap.Logger
}

func NewExtractor(norm *Normalizer, group string, log *zap.Logger) *Extractor {
	return &Extractor{norm: norm, group: group, log: log}
}

// Extract parses one lesson container into an event anchored on base's day.
// A missing subject or info container fails the lesson; everything below
// that degrades to defaults.
func (e *Extractor) Extract(lesson *goquery.Selection, base time.Time) (ScheduleEvent, error) {
	subjectSel := findFirst(lesson, subjectSelectors)
	if subjectSel == nil {
		return ScheduleEvent{}, ErrSubjectNotFound
	}
	subject := strings.TrimSpace(subjectSel.Text())
	if subject == "" {
		return ScheduleEvent{}, ErrSubjectNotFound
	}

	info := findFirst(lesson, infoSelectors)
	if info == nil {
		return ScheduleEvent{}, ErrInfoNotFound
	}

	rows := info.Find(rowSelector)
	if rows.Length() < 2 {
		// looser grouping for markup without the flex classes
		rows = info.ChildrenFiltered("div")
	}
	if rows.Length() < 2 {
		return ScheduleEvent{}, ErrStructureMismatch
	}

	teacherText, typeText := spanPair(rows.Eq(0), defaultTeacherText, defaultTypeText)
	timeText, locationText := spanPair(rows.Eq(1), defaultTimeText, defaultLocationText)

	start, end, err := e.norm.ParseTimeRange(timeText)
	if err != nil {
		return ScheduleEvent{}, err
	}

	return ScheduleEvent{
		Subject:    subject,
		Teacher:    teacherText,
		LessonType: e.norm.MapLessonType(typeText),
		Location:   e.norm.ParseLocation(locationText),
		StartTime:  combine(base, start),
		EndTime:    combine(base, end),
		Group:      e.group,
	}, nil
}

// findFirst returns the first selection any of the chain's selectors
// matches under sel, or nil.
func findFirst(sel *goquery.Selection, chain []string) *goquery.Selection {
	for _, s := range chain {
		if m := sel.Find(s).First(); m.Length() > 0 {
			return m
		}
	}
	return nil
}

// spanPair reads the first two span texts under row, defaulting absent or
// empty ones.
func spanPair(row *goquery.Selection, firstDefault, secondDefault string) (string, string) {
	spans := row.Find("span")
	first, second := firstDefault, secondDefault
	if spans.Length() > 0 {
		if t := strings.TrimSpace(spans.Eq(0).Text()); t != "" {
			first = t
		}
	}
	if spans.Length() > 1 {
		if t := strings.TrimSpace(spans.Eq(1).Text()); t != "" {
			second = t
		}
	}
	return first, second
}
