package skills

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ariavoice/aria/internal/apikeys"
	"github.com/ariavoice/aria/internal/productivity"
	"github.com/ariavoice/aria/internal/weather"
)

func newWeatherDispatcher(t *testing.T, handler http.HandlerFunc, key string) *Dispatcher {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	client := weather.NewClient(srv.Client())
	client.SetBaseURLs(srv.URL+"/data/2.5", srv.URL+"/geo/1.0")
	keys := apikeys.NewResolver(map[apikeys.Service]string{apikeys.ServiceOpenWeather: key})
	return NewDispatcher(client, keys, productivity.NewManager(), "New York")
}

func TestRespondWeatherCurrent(t *testing.T) {
	d := newWeatherDispatcher(t, func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/geo/1.0/direct") {
			if got := r.URL.Query().Get("q"); got != "paris" {
				t.Errorf("geocode query = %q, want paris", got)
			}
			fmt.Fprint(w, `[{"name":"Paris","country":"FR","lat":48.85,"lon":2.35}]`)
			return
		}
		fmt.Fprint(w, `{"main":{"temp":20,"feels_like":20,"temp_min":20,"temp_max":20,"humidity":50,"pressure":1010},"weather":[{"main":"Clear","description":"clear sky"}],"wind":{"speed":2}}`)
	}, "k")

	reply, handled := d.Respond(context.Background(), "s1", "default", "What's the weather in Paris?")
	if !handled {
		t.Fatalf("handled = false, want true")
	}
	if !strings.Contains(reply, "Paris") {
		t.Fatalf("reply = %q, want it to name Paris", reply)
	}
	if !strings.Contains(reply, "☀️ Clear skies") {
		t.Fatalf("reply = %q, want formatted condition", reply)
	}
}

func TestRespondWeatherWithoutKeyFallsToLLM(t *testing.T) {
	d := newWeatherDispatcher(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected without an API key")
	}, "")

	if _, handled := d.Respond(context.Background(), "s1", "default", "What's the weather in Paris?"); handled {
		t.Fatalf("handled = true without credentials, want false")
	}
}

func TestRespondWeatherLocationNotFound(t *testing.T) {
	d := newWeatherDispatcher(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[]`)
	}, "k")

	reply, handled := d.Respond(context.Background(), "s1", "default", "What's the weather in Zzyzx?")
	if !handled {
		t.Fatalf("handled = false, want true")
	}
	if !strings.Contains(reply, "Sorry, I couldn't get the weather for zzyzx") {
		t.Fatalf("reply = %q, want apologetic not-found message", reply)
	}
}

func TestRespondProductivityTaskAdd(t *testing.T) {
	manager := productivity.NewManager()
	d := NewDispatcher(weather.NewClient(nil), apikeys.NewResolver(nil), manager, "")

	reply, handled := d.Respond(context.Background(), "s1", "default", "Remind me to buy milk")
	if !handled {
		t.Fatalf("handled = false, want true")
	}
	if !strings.Contains(reply, "I've added 'buy milk' to your task list with medium priority") {
		t.Fatalf("reply = %q, want add confirmation", reply)
	}

	tasks := manager.ListTasks("s1", nil, "")
	if len(tasks) != 1 || tasks[0].Title != "buy milk" {
		t.Fatalf("stored tasks = %+v, want one titled buy milk", tasks)
	}
}

func TestRespondProductivityTaskAddWithoutTitlePrompts(t *testing.T) {
	d := NewDispatcher(weather.NewClient(nil), apikeys.NewResolver(nil), productivity.NewManager(), "")
	reply, handled := d.Respond(context.Background(), "s1", "default", "add a new task")
	if !handled {
		t.Fatalf("handled = false, want true")
	}
	if !strings.Contains(reply, "Please tell me what task") {
		t.Fatalf("reply = %q, want title prompt", reply)
	}
}

func TestRespondProductivityTimerStarts(t *testing.T) {
	manager := productivity.NewManager()
	d := NewDispatcher(weather.NewClient(nil), apikeys.NewResolver(nil), manager, "")

	reply, handled := d.Respond(context.Background(), "s1", "default", "start a pomodoro")
	if !handled {
		t.Fatalf("handled = false, want true")
	}
	if !strings.Contains(reply, "Pomodoro timer started for 25 minutes") {
		t.Fatalf("reply = %q, want pomodoro confirmation", reply)
	}
	if timers := manager.ActiveTimers("s1"); len(timers) != 1 {
		t.Fatalf("active timers = %d, want 1", len(timers))
	}
}

func TestRespondLeavesChatToLLM(t *testing.T) {
	d := NewDispatcher(weather.NewClient(nil), apikeys.NewResolver(nil), productivity.NewManager(), "")
	if _, handled := d.Respond(context.Background(), "s1", "default", "tell me a story about dragons"); handled {
		t.Fatalf("handled = true for plain chat, want false")
	}
}
