// Package productivity implements in-memory task, timer, and time-tracking
// state keyed by session.
package productivity

import (
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

var (
	ErrTaskNotFound     = errors.New("task not found")
	ErrTimerNotFound    = errors.New("timer not found")
	ErrTrackingNotFound = errors.New("time tracking session not found")
	ErrAlreadyStopped   = errors.New("session already stopped")
	ErrInvalidDueDate   = errors.New("invalid due_date format, use ISO format (YYYY-MM-DDTHH:MM:SS)")
)

// Priority levels, most urgent first in sort order.
const (
	PriorityUrgent = "urgent"
	PriorityHigh   = "high"
	PriorityMedium = "medium"
	PriorityLow    = "low"
)

// Timer types.
const (
	TimerPomodoro = "pomodoro"
	TimerBreak    = "break"
	TimerWork     = "work"
	TimerCustom   = "custom"
)

type Task struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	DueDate     string     `json:"due_date,omitempty"`
	Priority    string     `json:"priority"`
	Completed   bool       `json:"completed"`
	CreatedAt   time.Time  `json:"created_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	Tags        []string   `json:"tags"`
}

type Timer struct {
	ID              string     `json:"id"`
	Name            string     `json:"name"`
	DurationMinutes int        `json:"duration_minutes"`
	StartTime       time.Time  `json:"start_time"`
	EndTime         *time.Time `json:"end_time,omitempty"`
	IsActive        bool       `json:"is_active"`
	TimerType       string     `json:"timer_type"`
}

// TimerStatus is a Timer snapshot with progress computed at read time.
type TimerStatus struct {
	Timer
	ElapsedSeconds    int     `json:"elapsed_seconds"`
	RemainingSeconds  int     `json:"remaining_seconds"`
	ProgressPercent   float64 `json:"progress_percent"`
	IsFinished        bool    `json:"is_finished"`
	TimeLeftFormatted string  `json:"time_left_formatted"`
}

type TimeSession struct {
	ID              string     `json:"id"`
	TaskName        string     `json:"task_name"`
	StartTime       time.Time  `json:"start_time"`
	EndTime         *time.Time `json:"end_time,omitempty"`
	DurationMinutes float64    `json:"duration_minutes,omitempty"`
	Notes           string     `json:"notes"`
}

// Manager holds all productivity state, partitioned by session id. Timers
// have no background goroutine: expiry is applied lazily whenever a timer is
// read, so repeated status checks after the deadline are idempotent.
type Manager struct {
	mu       sync.Mutex
	tasks    map[string]map[string]*Task
	timers   map[string]map[string]*Timer
	tracking map[string]map[string]*TimeSession
	now      func() time.Time
}

func NewManager() *Manager {
	return &Manager{
		tasks:    make(map[string]map[string]*Task),
		timers:   make(map[string]map[string]*Timer),
		tracking: make(map[string]map[string]*TimeSession),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// SetClock overrides the time source. Test hook.
func (m *Manager) SetClock(now func() time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = now
}

// dueDateLayouts accepts RFC3339 and the zone-less ISO shape users type.
var dueDateLayouts = []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"}

func validDueDate(s string) bool {
	for _, layout := range dueDateLayouts {
		if _, err := time.Parse(layout, s); err == nil {
			return true
		}
	}
	return false
}

type AddTaskInput struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	DueDate     string   `json:"due_date"`
	Priority    string   `json:"priority"`
	Tags        []string `json:"tags"`
}

func (m *Manager) AddTask(sessionID string, in AddTaskInput) (Task, error) {
	if in.DueDate != "" && !validDueDate(in.DueDate) {
		return Task{}, ErrInvalidDueDate
	}
	priority := strings.ToLower(strings.TrimSpace(in.Priority))
	if priority == "" {
		priority = PriorityMedium
	}
	tags := in.Tags
	if tags == nil {
		tags = []string{}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	task := &Task{
		ID:          uuid.NewString(),
		Title:       in.Title,
		Description: in.Description,
		DueDate:     in.DueDate,
		Priority:    priority,
		CreatedAt:   m.now(),
		Tags:        tags,
	}
	if m.tasks[sessionID] == nil {
		m.tasks[sessionID] = make(map[string]*Task)
	}
	m.tasks[sessionID][task.ID] = task
	return *task, nil
}

var priorityOrder = map[string]int{
	PriorityUrgent: 0,
	PriorityHigh:   1,
	PriorityMedium: 2,
	PriorityLow:    3,
}

// ListTasks returns session tasks filtered by completion and priority, sorted
// by priority, then due date (tasks without one sort last), then creation.
func (m *Manager) ListTasks(sessionID string, completed *bool, priority string) []Task {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]Task, 0, len(m.tasks[sessionID]))
	for _, t := range m.tasks[sessionID] {
		if completed != nil && t.Completed != *completed {
			continue
		}
		if priority != "" && !strings.EqualFold(t.Priority, priority) {
			continue
		}
		out = append(out, *t)
	}
	sort.Slice(out, func(i, j int) bool {
		pi, ok := priorityOrder[out[i].Priority]
		if !ok {
			pi = priorityOrder[PriorityMedium]
		}
		pj, ok := priorityOrder[out[j].Priority]
		if !ok {
			pj = priorityOrder[PriorityMedium]
		}
		if pi != pj {
			return pi < pj
		}
		di, dj := out[i].DueDate, out[j].DueDate
		if di == "" {
			di = "9999-12-31"
		}
		if dj == "" {
			dj = "9999-12-31"
		}
		if di != dj {
			return di < dj
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

// CompleteTask marks a task completed. Completion is one-way; completing an
// already-completed task refreshes nothing and still succeeds.
func (m *Manager) CompleteTask(sessionID, taskID string) (Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	task, ok := m.tasks[sessionID][taskID]
	if !ok {
		return Task{}, ErrTaskNotFound
	}
	if !task.Completed {
		task.Completed = true
		at := m.now()
		task.CompletedAt = &at
	}
	return *task, nil
}

func (m *Manager) StartTimer(sessionID, name string, durationMinutes int, timerType string) Timer {
	timerType = strings.ToLower(strings.TrimSpace(timerType))
	if timerType == "" {
		timerType = TimerPomodoro
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	timer := &Timer{
		ID:              uuid.NewString(),
		Name:            name,
		DurationMinutes: durationMinutes,
		StartTime:       m.now(),
		IsActive:        true,
		TimerType:       timerType,
	}
	if m.timers[sessionID] == nil {
		m.timers[sessionID] = make(map[string]*Timer)
	}
	m.timers[sessionID][timer.ID] = timer
	return *timer
}

// CheckTimer returns one timer's status, lazily finishing it when its
// duration has elapsed.
func (m *Manager) CheckTimer(sessionID, timerID string) (TimerStatus, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	timer, ok := m.timers[sessionID][timerID]
	if !ok {
		return TimerStatus{}, ErrTimerNotFound
	}
	return m.timerStatusLocked(timer), nil
}

// ActiveTimers returns the status of every timer still marked active, after
// lazy expiry. Timers that just expired are included once with IsFinished set.
func (m *Manager) ActiveTimers(sessionID string) []TimerStatus {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := []TimerStatus{}
	for _, timer := range m.timers[sessionID] {
		if !timer.IsActive {
			continue
		}
		out = append(out, m.timerStatusLocked(timer))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartTime.Before(out[j].StartTime) })
	return out
}

func (m *Manager) timerStatusLocked(timer *Timer) TimerStatus {
	now := m.now()
	elapsed := now.Sub(timer.StartTime).Seconds()
	total := float64(timer.DurationMinutes) * 60
	remaining := total - elapsed
	if remaining < 0 {
		remaining = 0
	}
	progress := 100.0
	if total > 0 {
		progress = elapsed / total * 100
		if progress > 100 {
			progress = 100
		}
	}
	finished := remaining <= 0
	if finished && timer.IsActive {
		timer.IsActive = false
		end := now
		timer.EndTime = &end
	}

	left := "Finished!"
	if remaining > 0 {
		left = FormatDuration(remaining)
	}
	return TimerStatus{
		Timer:             *timer,
		ElapsedSeconds:    int(elapsed),
		RemainingSeconds:  int(remaining),
		ProgressPercent:   round1(progress),
		IsFinished:        finished,
		TimeLeftFormatted: left,
	}
}

func round1(v float64) float64 {
	return float64(int(v*10+0.5)) / 10
}

func (m *Manager) StartTracking(sessionID, taskName string) TimeSession {
	m.mu.Lock()
	defer m.mu.Unlock()
	ts := &TimeSession{
		ID:        uuid.NewString(),
		TaskName:  taskName,
		StartTime: m.now(),
	}
	if m.tracking[sessionID] == nil {
		m.tracking[sessionID] = make(map[string]*TimeSession)
	}
	m.tracking[sessionID][ts.ID] = ts
	return *ts
}

func (m *Manager) StopTracking(sessionID, trackingID, notes string) (TimeSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ts, ok := m.tracking[sessionID][trackingID]
	if !ok {
		return TimeSession{}, ErrTrackingNotFound
	}
	if ts.EndTime != nil {
		return TimeSession{}, ErrAlreadyStopped
	}
	end := m.now()
	ts.EndTime = &end
	minutes := end.Sub(ts.StartTime).Minutes()
	ts.DurationMinutes = float64(int(minutes*100+0.5)) / 100
	ts.Notes = notes
	return *ts, nil
}
