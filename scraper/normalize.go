package scraper

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Separator variants seen in the portal's time ranges. The multi-byte dashes
// must be tried before the plain hyphen.
var timeRangeDashes = []string{"–", "—", "-"}

// Default window substituted for unparseable or inverted time ranges.
const (
	defaultStartClock = "09:00"
	defaultEndClock   = "10:30"
)

var locationPrefixes = []string{"Аудитория:", "Ауд.:", "Ауд."}

// Building codes the university actually uses. Anything else is treated as
// noise and replaced by the configured default.
var knownBuildings = map[string]bool{
	"Н": true,
	"А": true,
	"Б": true,
	"В": true,
	"М": true,
}

var lessonTypes = map[string]LessonType{
	"Лекция":               Lecture,
	"Практическое занятие": Practice,
	"Лабораторная работа":  Laboratory,
}

var ruMonths = map[string]time.Month{
	"января":   time.January,
	"февраля":  time.February,
	"марта":    time.March,
	"апреля":   time.April,
	"мая":      time.May,
	"июня":     time.June,
	"июля":     time.July,
	"августа":  time.August,
	"сентября": time.September,
	"октября":  time.October,
	"ноября":   time.November,
	"декабря":  time.December,
}

const todayLabel = "Сегодня"

// Normalizer turns the portal's localized free text into typed values,
// substituting deterministic defaults where parsing fails rather than
// dropping the lesson.
type Normalizer struct {
	defaultBuilding string
	lenientTime     bool
	log             *zap.Logger
}

func NewNormalizer(defaultBuilding string, lenientTime bool, log *zap.Logger) *Normalizer {
	return &Normalizer{
		defaultBuilding: defaultBuilding,
		lenientTime:     lenientTime,
		log:             log,
	}
}

// ParseTimeRange splits "HH:MM – HH:MM" on any of the dash variants. A
// malformed or inverted range degrades to the 09:00–10:30 default window
// unless lenient substitution is disabled, in which case it is an error.
func (n *Normalizer) ParseTimeRange(text string) (time.Time, time.Time, error) {
	start, end, err := splitTimeRange(text)
	if err == nil && !end.After(start) {
		err = errors.New("end time is not after start time")
	}
	if err == nil {
		return start, end, nil
	}
	if !n.lenientTime {
		return time.Time{}, time.Time{}, &Error{
			Code:    ErrTimeRangeInvalid.Code,
			Message: fmt.Sprintf("time range %q not parseable", text),
			Err:     err,
		}
	}
	n.log.Warn("substituting default time range",
		zap.String("text", text), zap.Error(err))
	start, _ = time.Parse("15:04", defaultStartClock)
	end, _ = time.Parse("15:04", defaultEndClock)
	return start, end, nil
}

func splitTimeRange(text string) (time.Time, time.Time, error) {
	for _, dash := range timeRangeDashes {
		before, after, found := strings.Cut(text, dash)
		if !found {
			continue
		}
		start, err := time.Parse("15:04", strings.TrimSpace(before))
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
		end, err := time.Parse("15:04", strings.TrimSpace(after))
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
		return start, end, nil
	}
	return time.Time{}, time.Time{}, fmt.Errorf("no time separator in %q", text)
}

// ParseLocation maps a room string to a building/room pair. Known special
// venues win over the "building-room" split; unknown building codes fall
// back to the default building. ParseLocation never fails.
func (n *Normalizer) ParseLocation(text string) Location {
	s := strings.TrimSpace(text)
	for _, prefix := range locationPrefixes {
		s = strings.TrimSpace(strings.TrimPrefix(s, prefix))
	}

	lower := strings.ToLower(s)
	switch {
	case strings.Contains(lower, "онлайн"), strings.Contains(lower, "online"):
		return Location{Building: "Online", Room: "Online"}
	case strings.Contains(lower, "зал"), strings.Contains(lower, "спортивный"):
		return Location{Building: n.defaultBuilding, Room: s}
	}

	if building, room, found := strings.Cut(s, "-"); found {
		building = strings.TrimSpace(building)
		room = strings.TrimSpace(room)
		if !knownBuildings[building] {
			n.log.Warn("unknown building code, substituting default",
				zap.String("building", building), zap.String("text", text))
			building = n.defaultBuilding
		}
		return Location{Building: building, Room: room}
	}

	return Location{Building: n.defaultBuilding, Room: s}
}

// MapLessonType is total: exact labels first, then substring heuristics,
// then Lecture with a warning.
func (n *Normalizer) MapLessonType(text string) LessonType {
	t := strings.TrimSpace(text)
	if lt, ok := lessonTypes[t]; ok {
		return lt
	}
	lower := strings.ToLower(t)
	switch {
	case strings.Contains(lower, "лекц"):
		return Lecture
	case strings.Contains(lower, "практ"):
		return Practice
	case strings.Contains(lower, "лаб"):
		return Laboratory
	}
	n.log.Warn("unknown lesson type, defaulting to lecture", zap.String("text", t))
	return Lecture
}

// ResolveDateLabel maps a day-button label to a calendar date. The "today"
// label resolves through the current-day header; other labels look like
// "Чт 07.11" with the year taken from context.
func (n *Normalizer) ResolveDateLabel(label, headerText string, year int) (time.Time, error) {
	if strings.Contains(label, todayLabel) {
		return n.ParseCurrentDayHeader(headerText)
	}

	fields := strings.Fields(label)
	if len(fields) < 2 {
		return time.Time{}, fmt.Errorf("date label %q has no day.month part", label)
	}
	dayStr, monthStr, found := strings.Cut(fields[1], ".")
	if !found {
		return time.Time{}, fmt.Errorf("date label %q has no day.month part", label)
	}
	day, err := strconv.Atoi(dayStr)
	if err != nil {
		return time.Time{}, fmt.Errorf("date label %q: %w", label, err)
	}
	month, err := strconv.Atoi(monthStr)
	if err != nil {
		return time.Time{}, fmt.Errorf("date label %q: %w", label, err)
	}
	if month < 1 || month > 12 || day < 1 || day > 31 {
		return time.Time{}, fmt.Errorf("date label %q out of range", label)
	}
	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC), nil
}

// ParseCurrentDayHeader parses a header like "Среда, 13 ноября 2024 г.".
func (n *Normalizer) ParseCurrentDayHeader(text string) (time.Time, error) {
	_, rest, found := strings.Cut(text, ",")
	if !found {
		return time.Time{}, &Error{
			Code:    ErrHeaderParse.Code,
			Message: fmt.Sprintf("header %q has no weekday separator", text),
		}
	}
	fields := strings.Fields(rest)
	if len(fields) < 3 {
		return time.Time{}, &Error{
			Code:    ErrHeaderParse.Code,
			Message: fmt.Sprintf("header %q has too few date parts", text),
		}
	}
	day, err := strconv.Atoi(fields[0])
	if err != nil {
		return time.Time{}, &Error{
			Code:    ErrHeaderParse.Code,
			Message: fmt.Sprintf("header %q day not numeric", text),
			Err:     err,
		}
	}
	month, ok := ruMonths[strings.ToLower(fields[1])]
	if !ok {
		return time.Time{}, &Error{
			Code:    ErrHeaderParse.Code,
			Message: fmt.Sprintf("header %q has unknown month %q", text, fields[1]),
		}
	}
	year, err := strconv.Atoi(fields[2])
	if err != nil {
		return time.Time{}, &Error{
			Code:    ErrHeaderParse.Code,
			Message: fmt.Sprintf("header %q year not numeric", text),
			Err:     err,
		}
	}
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC), nil
}

// combine anchors a parsed clock time onto base's calendar day.
func combine(base, clock time.Time) time.Time {
	return time.Date(base.Year(), base.Month(), base.Day(),
		clock.Hour(), clock.Minute(), 0, 0, base.Location())
}
