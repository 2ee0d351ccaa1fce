package productivity

import (
	"fmt"
	"strings"
	"time"
)

// Common timezone abbreviations mapped to IANA zone names.
var timezoneAliases = map[string]string{
	"EST": "US/Eastern",
	"PST": "US/Pacific",
	"CST": "US/Central",
	"MST": "US/Mountain",
	"GMT": "GMT",
	"CET": "Europe/Berlin",
	"JST": "Asia/Tokyo",
	"IST": "Asia/Kolkata",
}

// TimeInfo is the current-time payload for both the HTTP endpoint and the
// voice skill.
type TimeInfo struct {
	CurrentTime   string  `json:"current_time"`
	Timezone      string  `json:"timezone"`
	ISOTime       string  `json:"iso_time"`
	UnixTimestamp float64 `json:"unix_timestamp"`
	DayOfWeek     string  `json:"day_of_week"`
	Date          string  `json:"date"`
	Time          string  `json:"time"`
}

// CurrentTime formats the current moment in the requested timezone. Unknown
// zones fall back to UTC rather than erroring; a voice reply with UTC beats
// a refusal. Formats: "default", "12hour", "24hour", "iso".
func CurrentTime(timezoneName, format string) TimeInfo {
	return currentTimeAt(time.Now(), timezoneName, format)
}

func currentTimeAt(now time.Time, timezoneName, format string) TimeInfo {
	loc := resolveLocation(timezoneName)
	now = now.In(loc)

	var formatted string
	switch format {
	case "iso":
		formatted = now.Format(time.RFC3339)
	case "12hour":
		formatted = now.Format("03:04 PM on January 02, 2006")
	case "24hour":
		formatted = now.Format("15:04 on January 02, 2006")
	default:
		formatted = now.Format("Monday, January 02, 2006 at 03:04 PM MST")
	}

	return TimeInfo{
		CurrentTime:   formatted,
		Timezone:      loc.String(),
		ISOTime:       now.Format(time.RFC3339),
		UnixTimestamp: float64(now.UnixNano()) / float64(time.Second),
		DayOfWeek:     now.Format("Monday"),
		Date:          now.Format("2006-01-02"),
		Time:          now.Format("15:04:05"),
	}
}

func resolveLocation(name string) *time.Location {
	name = strings.TrimSpace(name)
	if name == "" || strings.EqualFold(name, "UTC") {
		return time.UTC
	}
	if loc, err := time.LoadLocation(name); err == nil {
		return loc
	}
	if alias, ok := timezoneAliases[strings.ToUpper(name)]; ok {
		if loc, err := time.LoadLocation(alias); err == nil {
			return loc
		}
	}
	return time.UTC
}

// FormatTimeResponse renders TimeInfo as a spoken sentence.
func FormatTimeResponse(info TimeInfo) string {
	return fmt.Sprintf("The current time is %s", info.CurrentTime)
}

// FormatDuration renders seconds as human-readable text.
func FormatDuration(totalSeconds float64) string {
	switch {
	case totalSeconds < 60:
		return fmt.Sprintf("%d seconds", int(totalSeconds))
	case totalSeconds < 3600:
		minutes := int(totalSeconds) / 60
		seconds := int(totalSeconds) % 60
		return fmt.Sprintf("%d minutes and %d seconds", minutes, seconds)
	case totalSeconds < 86400:
		hours := int(totalSeconds) / 3600
		minutes := (int(totalSeconds) % 3600) / 60
		return fmt.Sprintf("%d hours and %d minutes", hours, minutes)
	default:
		days := int(totalSeconds) / 86400
		hours := (int(totalSeconds) % 86400) / 3600
		return fmt.Sprintf("%d days and %d hours", days, hours)
	}
}

var priorityEmoji = map[string]string{
	PriorityUrgent: "🔥",
	PriorityHigh:   "⚡",
	PriorityMedium: "📋",
	PriorityLow:    "📝",
}

// FormatTaskList renders tasks for a voice or chat reply.
func FormatTaskList(tasks []Task) string {
	if len(tasks) == 0 {
		return "You don't have any tasks at the moment."
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Here are your %d task(s):\n\n", len(tasks))
	for _, task := range tasks {
		status := "⏰"
		if task.Completed {
			status = "✅"
		}
		emoji, ok := priorityEmoji[task.Priority]
		if !ok {
			emoji = "📋"
		}
		fmt.Fprintf(&b, "%s %s **%s**", status, emoji, task.Title)
		if task.Description != "" {
			fmt.Fprintf(&b, " - %s", task.Description)
		}
		if task.DueDate != "" {
			fmt.Fprintf(&b, " (Due: %s)", formatDueDate(task.DueDate))
		}
		fmt.Fprintf(&b, " [%s priority]", task.Priority)
		if len(task.Tags) > 0 {
			fmt.Fprintf(&b, " Tags: %s", strings.Join(task.Tags, ", "))
		}
		b.WriteString("\n")
	}
	return strings.TrimSpace(b.String())
}

func formatDueDate(due string) string {
	for _, layout := range dueDateLayouts {
		if t, err := time.Parse(layout, due); err == nil {
			return t.Format("01/02/2006 03:04 PM")
		}
	}
	return due
}
