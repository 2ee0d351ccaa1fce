package skills

import (
	"testing"
	"time"
)

func TestDetectTimeQueries(t *testing.T) {
	q := DetectTime("What time is it?")
	if !q.IsTime {
		t.Fatalf("IsTime = false, want true")
	}
	if q.Timezone != "UTC" || q.Format != "default" {
		t.Fatalf("defaults = (%q, %q), want (UTC, default)", q.Timezone, q.Format)
	}

	q = DetectTime("What time is it in JST?")
	if !q.IsTime || q.Timezone != "JST" {
		t.Fatalf("DetectTime(JST) = %+v, want timezone JST", q)
	}

	q = DetectTime("current time in 24 hour format please")
	if q.Format != "24hour" {
		t.Fatalf("Format = %q, want 24hour", q.Format)
	}

	if q := DetectTime("add a task for me"); q.IsTime {
		t.Fatalf("DetectTime(task text) = true, want false")
	}
}

func TestDetectTaskAdd(t *testing.T) {
	q := DetectTask("Remind me to buy milk")
	if !q.IsTask || q.Type != TaskAdd {
		t.Fatalf("DetectTask = %+v, want add_task", q)
	}
	if q.Title != "buy milk" {
		t.Fatalf("Title = %q, want %q", q.Title, "buy milk")
	}
	if q.Priority != "medium" {
		t.Fatalf("Priority = %q, want medium", q.Priority)
	}

	q = DetectTask("Remind me to file taxes, it's urgent")
	if q.Priority != "urgent" {
		t.Fatalf("Priority = %q, want urgent", q.Priority)
	}
}

func TestDetectTaskListAndComplete(t *testing.T) {
	if q := DetectTask("show me my tasks"); !q.IsTask || q.Type != TaskList {
		t.Fatalf("DetectTask(list) = %+v, want list_tasks", q)
	}
	if q := DetectTask("mark that task done"); !q.IsTask || q.Type != TaskComplete {
		t.Fatalf("DetectTask(complete) = %+v, want complete_task", q)
	}
	if q := DetectTask("tell me about paris"); q.IsTask {
		t.Fatalf("DetectTask(chat) = %+v, want not a task", q)
	}
}

func TestDetectTimer(t *testing.T) {
	q := DetectTimer("start a pomodoro")
	if !q.IsTimer || q.TimerType != "pomodoro" {
		t.Fatalf("DetectTimer = %+v, want pomodoro", q)
	}
	if q.DurationMinutes != 25 {
		t.Fatalf("DurationMinutes = %d, want default 25", q.DurationMinutes)
	}

	q = DetectTimer("set a timer for 10 minutes")
	if !q.IsTimer || q.DurationMinutes != 10 {
		t.Fatalf("DetectTimer = %+v, want 10 minutes", q)
	}

	q = DetectTimer("start a break timer")
	if q.TimerType != "break" || q.DurationMinutes != 5 {
		t.Fatalf("DetectTimer(break) = %+v, want break/5", q)
	}

	q = DetectTimer("set a timer for 1 hour")
	if q.DurationMinutes != 60 {
		t.Fatalf("DurationMinutes = %d, want 60", q.DurationMinutes)
	}
}

func TestDetectProductivityPrecedence(t *testing.T) {
	// Time wins over timer even when both lexicons match.
	q := DetectProductivity("what time is it? also start a timer")
	if q.Type != ProductivityTime {
		t.Fatalf("Type = %q, want time", q.Type)
	}

	q = DetectProductivity("add a task to track time")
	if q.Type != ProductivityTask {
		t.Fatalf("Type = %q, want task", q.Type)
	}

	q = DetectProductivity("how are you today?")
	if q.IsProductivity {
		t.Fatalf("IsProductivity = true for chat, want false")
	}
}

func TestParseNaturalTime(t *testing.T) {
	now := time.Date(2026, 8, 26, 10, 0, 0, 0, time.UTC) // a Wednesday

	cases := []struct {
		text string
		want string
	}{
		{"tomorrow", "2026-08-27T10:00:00Z"},
		{"next week", "2026-09-02T10:00:00Z"},
		{"in 2 hours", "2026-08-26T12:00:00Z"},
		{"in 3 days", "2026-08-29T10:00:00Z"},
		{"in 45 minutes", "2026-08-26T10:45:00Z"},
		{"next monday", "2026-08-31T10:00:00Z"},
		{"this friday", "2026-08-28T10:00:00Z"},
		{"whenever", ""},
	}
	for _, tc := range cases {
		if got := ParseNaturalTime(tc.text, now); got != tc.want {
			t.Fatalf("ParseNaturalTime(%q) = %q, want %q", tc.text, got, tc.want)
		}
	}
}

func TestExtractTaskDetailsDueDate(t *testing.T) {
	now := time.Date(2026, 8, 26, 10, 0, 0, 0, time.UTC)
	details := ExtractTaskDetails("remind me to submit the report by tomorrow", now)
	if details.Title != "submit the report" {
		t.Fatalf("Title = %q, want %q", details.Title, "submit the report")
	}
	if details.DueDate != "2026-08-27T10:00:00Z" {
		t.Fatalf("DueDate = %q, want tomorrow", details.DueDate)
	}
}
