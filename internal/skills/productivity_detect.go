package skills

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Productivity query types, in detection precedence order.
const (
	ProductivityTime  = "time"
	ProductivityTask  = "task"
	ProductivityTimer = "timer"
)

// Task query subtypes.
const (
	TaskAdd      = "add_task"
	TaskList     = "list_tasks"
	TaskComplete = "complete_task"
)

var timeKeywords = []*regexp.Regexp{
	regexp.MustCompile(`what.*time`),
	regexp.MustCompile(`current time`),
	regexp.MustCompile(`time.*now`),
	regexp.MustCompile(`what.*date`),
	regexp.MustCompile(`current date`),
	regexp.MustCompile(`today.*date`),
	regexp.MustCompile(`day.*today`),
	regexp.MustCompile(`what day`),
	regexp.MustCompile(`timezone`),
	regexp.MustCompile(`time zone`),
	regexp.MustCompile(`clock`),
	regexp.MustCompile(`hour`),
	regexp.MustCompile(`minute`),
}

// Timezone extraction: an explicit "time in <zone>" phrase, else a known
// uppercase abbreviation anywhere in the raw input.
var (
	timeInZonePattern    = regexp.MustCompile(`(?i)time (?:is it )?in ([a-zA-Z_/]+)`)
	zoneAbbrevPattern    = regexp.MustCompile(`\b(EST|PST|CST|MST|GMT|CET|JST|IST|UTC)\b`)
	twelveHourPattern    = regexp.MustCompile(`12[ -]hour`)
	twentyFourHrPattern  = regexp.MustCompile(`24[ -]hour`)
	isoFormatWordPattern = regexp.MustCompile(`\biso\b`)
)

// TimeQuery is the result of time intent detection.
type TimeQuery struct {
	IsTime   bool
	Timezone string
	Format   string
}

func DetectTime(text string) TimeQuery {
	lower := strings.ToLower(strings.TrimSpace(text))

	q := TimeQuery{Timezone: "UTC", Format: "default"}
	for _, p := range timeKeywords {
		if p.MatchString(lower) {
			q.IsTime = true
			break
		}
	}

	if m := timeInZonePattern.FindStringSubmatch(text); m != nil {
		q.Timezone = m[1]
	} else if m := zoneAbbrevPattern.FindStringSubmatch(text); m != nil {
		q.Timezone = m[1]
	}

	switch {
	case twelveHourPattern.MatchString(lower):
		q.Format = "12hour"
	case twentyFourHrPattern.MatchString(lower):
		q.Format = "24hour"
	case isoFormatWordPattern.MatchString(lower):
		q.Format = "iso"
	}
	return q
}

var addTaskKeywords = []*regexp.Regexp{
	regexp.MustCompile(`add.*task`),
	regexp.MustCompile(`create.*task`),
	regexp.MustCompile(`new task`),
	regexp.MustCompile(`remind me`),
	regexp.MustCompile(`set.*reminder`),
	regexp.MustCompile(`schedule.*task`),
	regexp.MustCompile(`todo.*add`),
	regexp.MustCompile(`need to do`),
	regexp.MustCompile(`add to.*list`),
}

var listTaskKeywords = []*regexp.Regexp{
	regexp.MustCompile(`list.*tasks`),
	regexp.MustCompile(`show.*tasks`),
	regexp.MustCompile(`my tasks`),
	regexp.MustCompile(`todo.*list`),
	regexp.MustCompile(`what.*tasks`),
	regexp.MustCompile(`pending.*tasks`),
	regexp.MustCompile(`task.*status`),
	regexp.MustCompile(`what do i need`),
	regexp.MustCompile(`schedule.*today`),
}

var completeTaskKeywords = []*regexp.Regexp{
	regexp.MustCompile(`complete.*task`),
	regexp.MustCompile(`finish.*task`),
	regexp.MustCompile(`done.*task`),
	regexp.MustCompile(`mark.*complete`),
	regexp.MustCompile(`task.*done`),
	regexp.MustCompile(`finished.*task`),
}

// TaskQuery is the result of task intent detection.
type TaskQuery struct {
	IsTask   bool
	Type     string
	Title    string
	Priority string
	DueDate  string
}

func matchAny(patterns []*regexp.Regexp, s string) bool {
	for _, p := range patterns {
		if p.MatchString(s) {
			return true
		}
	}
	return false
}

// DetectTask classifies add/list/complete task intents; add intents also
// carry extracted title, priority, and parsed due date.
func DetectTask(text string) TaskQuery {
	lower := strings.ToLower(strings.TrimSpace(text))

	q := TaskQuery{}
	switch {
	case matchAny(addTaskKeywords, lower):
		q.IsTask = true
		q.Type = TaskAdd
	case matchAny(listTaskKeywords, lower):
		q.IsTask = true
		q.Type = TaskList
	case matchAny(completeTaskKeywords, lower):
		q.IsTask = true
		q.Type = TaskComplete
	default:
		return q
	}

	if q.Type == TaskAdd {
		details := ExtractTaskDetails(text, time.Now().UTC())
		q.Title = details.Title
		q.Priority = details.Priority
		q.DueDate = details.DueDate
	}
	return q
}

var timerKeywords = []*regexp.Regexp{
	regexp.MustCompile(`start.*timer`),
	regexp.MustCompile(`pomodoro`),
	regexp.MustCompile(`set.*timer`),
	regexp.MustCompile(`timer.*minutes`),
	regexp.MustCompile(`work.*session`),
	regexp.MustCompile(`focus.*time`),
	regexp.MustCompile(`break.*timer`),
	regexp.MustCompile(`timer.*status`),
	regexp.MustCompile(`time.*tracking`),
	regexp.MustCompile(`track.*time`),
}

var durationPatterns = []struct {
	re      *regexp.Regexp
	inHours bool
}{
	{regexp.MustCompile(`(\d+)\s*minutes?`), false},
	{regexp.MustCompile(`(\d+)\s*mins?`), false},
	{regexp.MustCompile(`(\d+)\s*hour`), true},
	{regexp.MustCompile(`for (\d+)`), false},
}

// TimerQuery is the result of timer intent detection. DurationMinutes is 0
// when no duration was stated and no type default applies.
type TimerQuery struct {
	IsTimer         bool
	TimerType       string
	DurationMinutes int
}

// DetectTimer classifies timer intents and normalizes duration to minutes.
// Pomodoro defaults to 25 minutes and break to 5 when unstated.
func DetectTimer(text string) TimerQuery {
	lower := strings.ToLower(strings.TrimSpace(text))

	q := TimerQuery{IsTimer: matchAny(timerKeywords, lower)}

	for _, dp := range durationPatterns {
		if m := dp.re.FindStringSubmatch(lower); m != nil {
			n, err := strconv.Atoi(m[1])
			if err == nil {
				if dp.inHours {
					n *= 60
				}
				q.DurationMinutes = n
			}
			break
		}
	}

	switch {
	case strings.Contains(lower, "pomodoro"):
		q.TimerType = "pomodoro"
		if q.DurationMinutes == 0 {
			q.DurationMinutes = 25
		}
	case strings.Contains(lower, "break"):
		q.TimerType = "break"
		if q.DurationMinutes == 0 {
			q.DurationMinutes = 5
		}
	case strings.Contains(lower, "work") || strings.Contains(lower, "focus"):
		q.TimerType = "work"
	default:
		q.TimerType = "custom"
	}
	return q
}

// ProductivityQuery is the combined detection result. Precedence when
// several intents match: time, then task, then timer.
type ProductivityQuery struct {
	IsProductivity bool
	Type           string
	Time           TimeQuery
	Task           TaskQuery
	Timer          TimerQuery
}

func DetectProductivity(text string) ProductivityQuery {
	q := ProductivityQuery{
		Time:  DetectTime(text),
		Task:  DetectTask(text),
		Timer: DetectTimer(text),
	}
	switch {
	case q.Time.IsTime:
		q.Type = ProductivityTime
	case q.Task.IsTask:
		q.Type = ProductivityTask
	case q.Timer.IsTimer:
		q.Type = ProductivityTimer
	default:
		return q
	}
	q.IsProductivity = true
	return q
}

// TaskDetails is extracted add-task information.
type TaskDetails struct {
	Title    string
	Priority string
	DueDate  string
}

var titlePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)remind me to (.+?)(?:by|before|at|on|\.|$)`),
	regexp.MustCompile(`(?i)add.*task.*["'](.+)["']`),
	regexp.MustCompile(`(?i)need to (.+?)(?:by|before|at|on|\.|$)`),
	regexp.MustCompile(`(?i)task.*: (.+?)(?:by|before|at|on|\.|$)`),
}

var dueDatePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)by (.+?)(?:\.|$)`),
	regexp.MustCompile(`(?i)before (.+?)(?:\.|$)`),
	regexp.MustCompile(`(?i)at (.+?)(?:\.|$)`),
	regexp.MustCompile(`(?i)on (.+?)(?:\.|$)`),
}

// ExtractTaskDetails pulls a task title, priority, and natural-language due
// date out of free text.
func ExtractTaskDetails(text string, now time.Time) TaskDetails {
	details := TaskDetails{Priority: "medium"}
	lower := strings.ToLower(text)

	for _, p := range titlePatterns {
		if m := p.FindStringSubmatch(text); m != nil {
			details.Title = strings.TrimSpace(m[1])
			break
		}
	}

	switch {
	case containsAny(lower, "urgent", "asap", "immediately"):
		details.Priority = "urgent"
	case containsAny(lower, "important", "high", "priority"):
		details.Priority = "high"
	case containsAny(lower, "low", "when i can", "sometime"):
		details.Priority = "low"
	}

	for _, p := range dueDatePatterns {
		if m := p.FindStringSubmatch(text); m != nil {
			if due := ParseNaturalTime(strings.TrimSpace(m[1]), now); due != "" {
				details.DueDate = due
			}
			break
		}
	}
	return details
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

var (
	inHoursPattern   = regexp.MustCompile(`in (\d+) hours?`)
	inDaysPattern    = regexp.MustCompile(`in (\d+) days?`)
	inMinutesPattern = regexp.MustCompile(`in (\d+) minutes?`)
)

// ParseNaturalTime converts expressions like "tomorrow" or "in 2 hours" to
// an RFC 3339 timestamp relative to now. Returns "" when nothing matches.
func ParseNaturalTime(text string, now time.Time) string {
	lower := strings.ToLower(strings.TrimSpace(text))

	var at time.Time
	switch {
	case strings.Contains(lower, "tomorrow"):
		at = now.AddDate(0, 0, 1)
	case strings.Contains(lower, "next week"):
		at = now.AddDate(0, 0, 7)
	case inHoursPattern.MatchString(lower):
		n := mustAtoi(inHoursPattern.FindStringSubmatch(lower)[1])
		at = now.Add(time.Duration(n) * time.Hour)
	case inDaysPattern.MatchString(lower):
		n := mustAtoi(inDaysPattern.FindStringSubmatch(lower)[1])
		at = now.AddDate(0, 0, n)
	case inMinutesPattern.MatchString(lower):
		n := mustAtoi(inMinutesPattern.FindStringSubmatch(lower)[1])
		at = now.Add(time.Duration(n) * time.Minute)
	case strings.Contains(lower, "next monday"):
		at = now.AddDate(0, 0, daysUntil(now, time.Monday, true))
	case strings.Contains(lower, "this friday"):
		at = now.AddDate(0, 0, daysUntil(now, time.Friday, false))
	default:
		return ""
	}
	return at.Format(time.RFC3339)
}

func mustAtoi(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		panic(fmt.Sprintf("digits did not parse: %q", s))
	}
	return n
}

// daysUntil counts days ahead to the target weekday. With next set, landing
// on today rolls a full week forward.
func daysUntil(now time.Time, target time.Weekday, next bool) int {
	d := (int(target) - int(now.Weekday()) + 7) % 7
	if d == 0 && next {
		d = 7
	}
	return d
}
