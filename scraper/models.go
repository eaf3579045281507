package scraper

import "time"

// LessonType is the kind of class occurrence, carrying the portal's label.
type LessonType string

const (
	Lecture    LessonType = "Лекция"
	Practice   LessonType = "Практическое занятие"
	Laboratory LessonType = "Лабораторная работа"
)

// Location of a lesson on campus.
type Location struct {
	Building string
	Room     string
}

func (l Location) String() string {
	return l.Building + ", ауд. " + l.Room
}

// ScheduleEvent is one scheduled class occurrence. It is constructed by the
// extractor from a single lesson node and immutable afterwards.
type ScheduleEvent struct {
	Subject    string
	Teacher    string
	LessonType LessonType
	Location   Location
	StartTime  time.Time
	EndTime    time.Time
	Group      string
	Subgroup   int // 0 when the portal lists no subgroup
}

// DateCandidate pairs a day-button label with the calendar date it resolved
// to. Candidates live only for the duration of one schedule pass.
type DateCandidate struct {
	Label string
	Date  time.Time
}

// AuthState is the portal's login state as observed from page content.
type AuthState int

const (
	AuthUnknown AuthState = iota
	AuthUnauthenticated
	AuthAuthenticated
)

func (s AuthState) String() string {
	switch s {
	case AuthAuthenticated:
		return "authenticated"
	case AuthUnauthenticated:
		return "unauthenticated"
	default:
		return "unknown"
	}
}
