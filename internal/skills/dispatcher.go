package skills

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/ariavoice/aria/internal/apikeys"
	"github.com/ariavoice/aria/internal/persona"
	"github.com/ariavoice/aria/internal/productivity"
	"github.com/ariavoice/aria/internal/weather"
)

const forecastDays = 3

// Dispatcher routes detected skill intents to the weather and productivity
// backends and renders persona-styled replies. Weather queries run first;
// productivity queries only when no weather intent matched; anything else is
// left to the LLM.
type Dispatcher struct {
	weather         *weather.Client
	keys            *apikeys.Resolver
	productivity    *productivity.Manager
	defaultLocation string
}

func NewDispatcher(w *weather.Client, keys *apikeys.Resolver, p *productivity.Manager, defaultLocation string) *Dispatcher {
	if defaultLocation == "" {
		defaultLocation = "New York"
	}
	return &Dispatcher{weather: w, keys: keys, productivity: p, defaultLocation: defaultLocation}
}

// Respond answers text when it matches a skill. The second return reports
// whether the text was handled; false means the caller should fall through
// to the LLM.
func (d *Dispatcher) Respond(ctx context.Context, sessionID, personaID, text string) (string, bool) {
	if reply, ok := d.respondWeather(ctx, sessionID, personaID, text); ok {
		return reply, true
	}
	return d.respondProductivity(sessionID, personaID, text)
}

func (d *Dispatcher) respondWeather(ctx context.Context, sessionID, personaID, text string) (string, bool) {
	q := DetectWeather(text)
	if !q.IsWeather {
		return "", false
	}
	key := d.keys.Key(apikeys.ServiceOpenWeather, sessionID)
	if key == "" {
		// No credentials: let the LLM answer from general knowledge.
		return "", false
	}

	location := q.Location
	if location == "" {
		location = d.defaultLocation
	}

	var reply string
	if q.Type == WeatherForecast {
		forecast, err := d.weather.ForecastDays(ctx, key, location, forecastDays, "celsius")
		if err != nil {
			log.Printf("weather skill: forecast for %q failed: %v", location, err)
			return fmt.Sprintf("Sorry, I couldn't get the forecast for %s: %s", location, weatherErrorText(err, location)), true
		}
		reply = weather.FormatForecast(forecast)
	} else {
		report, err := d.weather.Current(ctx, key, location, "celsius")
		if err != nil {
			log.Printf("weather skill: current conditions for %q failed: %v", location, err)
			return fmt.Sprintf("Sorry, I couldn't get the weather for %s: %s", location, weatherErrorText(err, location)), true
		}
		reply = weather.FormatReport(report)
	}
	return persona.StyleWeather(reply, personaID), true
}

func weatherErrorText(err error, location string) string {
	if errors.Is(err, weather.ErrLocationNotFound) {
		return fmt.Sprintf("Location '%s' not found", location)
	}
	return "Weather service temporarily unavailable"
}

func (d *Dispatcher) respondProductivity(sessionID, personaID, text string) (string, bool) {
	q := DetectProductivity(text)
	if !q.IsProductivity {
		return "", false
	}

	var reply string
	switch q.Type {
	case ProductivityTime:
		info := productivity.CurrentTime(q.Time.Timezone, q.Time.Format)
		reply = productivity.FormatTimeResponse(info)

	case ProductivityTask:
		switch q.Task.Type {
		case TaskAdd:
			if q.Task.Title == "" {
				reply = "I'd be happy to add a task for you! Please tell me what task you'd like me to add."
				break
			}
			task, err := d.productivity.AddTask(sessionID, productivity.AddTaskInput{
				Title:    q.Task.Title,
				Priority: q.Task.Priority,
				DueDate:  q.Task.DueDate,
			})
			if err != nil {
				reply = fmt.Sprintf("Sorry, I couldn't add that task: %s", err)
				break
			}
			dueInfo := ""
			if task.DueDate != "" {
				dueInfo = fmt.Sprintf(" (due %s)", formatSpokenDue(task.DueDate))
			}
			reply = fmt.Sprintf("✅ Perfect! I've added '%s' to your task list with %s priority%s.", task.Title, task.Priority, dueInfo)
		case TaskList:
			open := false
			tasks := d.productivity.ListTasks(sessionID, &open, "")
			reply = productivity.FormatTaskList(tasks)
		case TaskComplete:
			reply = "To complete a task, please tell me the specific task title or use the web interface to select it."
		}

	case ProductivityTimer:
		duration := q.Timer.DurationMinutes
		if duration == 0 {
			duration = 25
		}
		timerType := q.Timer.TimerType
		d.productivity.StartTimer(sessionID, titleWord(timerType)+" Session", duration, timerType)
		reply = fmt.Sprintf("⏰ %s timer started for %d minutes! Time to focus and be productive!", titleWord(timerType), duration)
	}

	if reply == "" {
		return "", false
	}
	return persona.StyleProductivity(reply, personaID), true
}

func formatSpokenDue(due string) string {
	if t, err := time.Parse(time.RFC3339, due); err == nil {
		return t.Format("January 02 at 03:04 PM")
	}
	return due
}

func titleWord(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
