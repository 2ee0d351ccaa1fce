package productivity

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestAddTaskDefaultsAndValidation(t *testing.T) {
	m := NewManager()

	task, err := m.AddTask("s1", AddTaskInput{Title: "buy milk"})
	if err != nil {
		t.Fatalf("AddTask() error = %v", err)
	}
	if task.Priority != PriorityMedium {
		t.Fatalf("Priority = %q, want %q", task.Priority, PriorityMedium)
	}
	if task.Tags == nil {
		t.Fatalf("Tags = nil, want empty slice")
	}
	if task.ID == "" {
		t.Fatalf("ID is empty")
	}

	if _, err := m.AddTask("s1", AddTaskInput{Title: "x", DueDate: "next tuesday"}); !errors.Is(err, ErrInvalidDueDate) {
		t.Fatalf("AddTask(bad due date) error = %v, want ErrInvalidDueDate", err)
	}
	if _, err := m.AddTask("s1", AddTaskInput{Title: "x", DueDate: "2026-09-01T10:00:00"}); err != nil {
		t.Fatalf("AddTask(zoneless ISO due date) error = %v", err)
	}
}

func TestListTasksSortsByPriorityThenDueDate(t *testing.T) {
	m := NewManager()
	if _, err := m.AddTask("s1", AddTaskInput{Title: "later", Priority: "low"}); err != nil {
		t.Fatalf("AddTask() error = %v", err)
	}
	if _, err := m.AddTask("s1", AddTaskInput{Title: "fire", Priority: "urgent"}); err != nil {
		t.Fatalf("AddTask() error = %v", err)
	}
	if _, err := m.AddTask("s1", AddTaskInput{Title: "due soon", Priority: "high", DueDate: "2026-09-01T09:00:00"}); err != nil {
		t.Fatalf("AddTask() error = %v", err)
	}
	if _, err := m.AddTask("s1", AddTaskInput{Title: "due later", Priority: "high", DueDate: "2026-09-02T09:00:00"}); err != nil {
		t.Fatalf("AddTask() error = %v", err)
	}

	tasks := m.ListTasks("s1", nil, "")
	got := make([]string, len(tasks))
	for i, task := range tasks {
		got[i] = task.Title
	}
	want := []string{"fire", "due soon", "due later", "later"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("task order = %v, want %v", got, want)
		}
	}
}

func TestListTasksFilters(t *testing.T) {
	m := NewManager()
	task, _ := m.AddTask("s1", AddTaskInput{Title: "done", Priority: "high"})
	if _, err := m.AddTask("s1", AddTaskInput{Title: "open", Priority: "low"}); err != nil {
		t.Fatalf("AddTask() error = %v", err)
	}
	if _, err := m.CompleteTask("s1", task.ID); err != nil {
		t.Fatalf("CompleteTask() error = %v", err)
	}

	completed := true
	list := m.ListTasks("s1", &completed, "")
	if len(list) != 1 || list[0].Title != "done" {
		t.Fatalf("completed filter = %+v, want only %q", list, "done")
	}
	list = m.ListTasks("s1", nil, "LOW")
	if len(list) != 1 || list[0].Title != "open" {
		t.Fatalf("priority filter = %+v, want only %q", list, "open")
	}
}

func TestCompleteTaskIsOneWay(t *testing.T) {
	m := NewManager()
	task, _ := m.AddTask("s1", AddTaskInput{Title: "t"})

	first, err := m.CompleteTask("s1", task.ID)
	if err != nil {
		t.Fatalf("CompleteTask() error = %v", err)
	}
	if !first.Completed || first.CompletedAt == nil {
		t.Fatalf("CompleteTask() = %+v, want completed with timestamp", first)
	}

	second, err := m.CompleteTask("s1", task.ID)
	if err != nil {
		t.Fatalf("CompleteTask(again) error = %v", err)
	}
	if !second.CompletedAt.Equal(*first.CompletedAt) {
		t.Fatalf("CompletedAt changed on second completion: %v vs %v", second.CompletedAt, first.CompletedAt)
	}

	if _, err := m.CompleteTask("s1", "nope"); !errors.Is(err, ErrTaskNotFound) {
		t.Fatalf("CompleteTask(missing) error = %v, want ErrTaskNotFound", err)
	}
	if _, err := m.CompleteTask("other", task.ID); !errors.Is(err, ErrTaskNotFound) {
		t.Fatalf("CompleteTask(wrong session) error = %v, want ErrTaskNotFound", err)
	}
}

func TestTimerLazyFinishIsIdempotent(t *testing.T) {
	m := NewManager()
	current := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)
	m.SetClock(func() time.Time { return current })

	timer := m.StartTimer("s1", "focus", 25, "")
	if timer.TimerType != TimerPomodoro {
		t.Fatalf("TimerType = %q, want %q", timer.TimerType, TimerPomodoro)
	}

	current = current.Add(10 * time.Minute)
	status, err := m.CheckTimer("s1", timer.ID)
	if err != nil {
		t.Fatalf("CheckTimer() error = %v", err)
	}
	if status.IsFinished || !status.IsActive {
		t.Fatalf("mid-run status = %+v, want active and unfinished", status)
	}
	if status.RemainingSeconds != 15*60 {
		t.Fatalf("RemainingSeconds = %d, want %d", status.RemainingSeconds, 15*60)
	}
	if status.ProgressPercent != 40.0 {
		t.Fatalf("ProgressPercent = %v, want 40.0", status.ProgressPercent)
	}

	current = current.Add(20 * time.Minute)
	status, err = m.CheckTimer("s1", timer.ID)
	if err != nil {
		t.Fatalf("CheckTimer() error = %v", err)
	}
	if !status.IsFinished || status.IsActive || status.EndTime == nil {
		t.Fatalf("expired status = %+v, want finished and inactive with end time", status)
	}
	if status.RemainingSeconds != 0 || status.ProgressPercent != 100.0 {
		t.Fatalf("expired status = %+v, want zero remaining at 100%%", status)
	}
	firstEnd := *status.EndTime

	// Reads after expiry keep reporting the same terminal state.
	current = current.Add(time.Hour)
	again, err := m.CheckTimer("s1", timer.ID)
	if err != nil {
		t.Fatalf("CheckTimer(again) error = %v", err)
	}
	if !again.IsFinished || !again.EndTime.Equal(firstEnd) {
		t.Fatalf("second expired read = %+v, want stable end time %v", again, firstEnd)
	}
	if again.TimeLeftFormatted != "Finished!" {
		t.Fatalf("TimeLeftFormatted = %q, want %q", again.TimeLeftFormatted, "Finished!")
	}

	if got := m.ActiveTimers("s1"); len(got) != 0 {
		t.Fatalf("ActiveTimers after expiry = %d entries, want 0", len(got))
	}
}

func TestTimeTracking(t *testing.T) {
	m := NewManager()
	current := time.Date(2026, 8, 28, 9, 0, 0, 0, time.UTC)
	m.SetClock(func() time.Time { return current })

	ts := m.StartTracking("s1", "write report")
	current = current.Add(90 * time.Minute)

	stopped, err := m.StopTracking("s1", ts.ID, "draft done")
	if err != nil {
		t.Fatalf("StopTracking() error = %v", err)
	}
	if stopped.DurationMinutes != 90.0 {
		t.Fatalf("DurationMinutes = %v, want 90.0", stopped.DurationMinutes)
	}
	if stopped.Notes != "draft done" {
		t.Fatalf("Notes = %q, want %q", stopped.Notes, "draft done")
	}

	if _, err := m.StopTracking("s1", ts.ID, ""); !errors.Is(err, ErrAlreadyStopped) {
		t.Fatalf("StopTracking(stopped) error = %v, want ErrAlreadyStopped", err)
	}
	if _, err := m.StopTracking("s1", "missing", ""); !errors.Is(err, ErrTrackingNotFound) {
		t.Fatalf("StopTracking(missing) error = %v, want ErrTrackingNotFound", err)
	}
}

func TestFormatDuration(t *testing.T) {
	cases := []struct {
		seconds float64
		want    string
	}{
		{45, "45 seconds"},
		{125, "2 minutes and 5 seconds"},
		{3900, "1 hours and 5 minutes"},
		{90000, "1 days and 1 hours"},
	}
	for _, tc := range cases {
		if got := FormatDuration(tc.seconds); got != tc.want {
			t.Fatalf("FormatDuration(%v) = %q, want %q", tc.seconds, got, tc.want)
		}
	}
}

func TestFormatTaskList(t *testing.T) {
	if got := FormatTaskList(nil); got != "You don't have any tasks at the moment." {
		t.Fatalf("FormatTaskList(empty) = %q", got)
	}

	m := NewManager()
	if _, err := m.AddTask("s1", AddTaskInput{Title: "ship release", Priority: "urgent", Description: "cut the tag"}); err != nil {
		t.Fatalf("AddTask() error = %v", err)
	}
	got := FormatTaskList(m.ListTasks("s1", nil, ""))
	for _, want := range []string{"Here are your 1 task(s):", "🔥", "**ship release**", "- cut the tag", "[urgent priority]"} {
		if !strings.Contains(got, want) {
			t.Fatalf("FormatTaskList() = %q, missing %q", got, want)
		}
	}
}

func TestCurrentTimeFormats(t *testing.T) {
	at := time.Date(2026, 8, 28, 15, 30, 0, 0, time.UTC)

	info := currentTimeAt(at, "UTC", "24hour")
	if info.CurrentTime != "15:30 on August 28, 2026" {
		t.Fatalf("24hour = %q", info.CurrentTime)
	}
	info = currentTimeAt(at, "UTC", "12hour")
	if info.CurrentTime != "03:30 PM on August 28, 2026" {
		t.Fatalf("12hour = %q", info.CurrentTime)
	}
	info = currentTimeAt(at, "UTC", "iso")
	if info.CurrentTime != "2026-08-28T15:30:00Z" {
		t.Fatalf("iso = %q", info.CurrentTime)
	}
	if info.DayOfWeek != "Friday" {
		t.Fatalf("DayOfWeek = %q, want Friday", info.DayOfWeek)
	}
}

func TestCurrentTimeTimezoneAliases(t *testing.T) {
	at := time.Date(2026, 8, 28, 15, 30, 0, 0, time.UTC)

	info := currentTimeAt(at, "JST", "24hour")
	if info.Timezone != "Asia/Tokyo" {
		t.Fatalf("Timezone = %q, want Asia/Tokyo", info.Timezone)
	}
	if info.Time != "00:30:00" {
		t.Fatalf("Time = %q, want 00:30:00 (UTC+9)", info.Time)
	}

	// Unknown zones fall back to UTC instead of failing.
	info = currentTimeAt(at, "Mars/Olympus", "24hour")
	if info.Timezone != "UTC" {
		t.Fatalf("Timezone = %q, want UTC fallback", info.Timezone)
	}
}
