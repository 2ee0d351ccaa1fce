package weather

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	c := NewClient(srv.Client())
	c.SetBaseURLs(srv.URL+"/data/2.5", srv.URL+"/geo/1.0")
	return c
}

func TestCurrentFormatsReport(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasPrefix(r.URL.Path, "/geo/1.0/direct"):
			fmt.Fprint(w, `[{"name":"Paris","country":"FR","lat":48.85,"lon":2.35}]`)
		case strings.HasPrefix(r.URL.Path, "/data/2.5/weather"):
			if r.URL.Query().Get("units") != "metric" {
				t.Errorf("units = %q, want metric", r.URL.Query().Get("units"))
			}
			fmt.Fprint(w, `{"main":{"temp":21.4,"feels_like":20.1,"temp_min":18.0,"temp_max":24.0,"humidity":55,"pressure":1014},"weather":[{"main":"Clear","description":"clear sky"}],"wind":{"speed":3.5,"deg":200},"visibility":10000}`)
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	})

	report, err := c.Current(context.Background(), "k", "Paris", "celsius")
	if err != nil {
		t.Fatalf("Current() error = %v", err)
	}
	if report.Location.Name != "Paris" {
		t.Fatalf("Location.Name = %q, want Paris", report.Location.Name)
	}
	if report.Temperature.Current != "21.4°C" {
		t.Fatalf("Temperature.Current = %q, want 21.4°C", report.Temperature.Current)
	}
	if report.Condition.Description != "☀️ Clear skies" {
		t.Fatalf("Condition.Description = %q", report.Condition.Description)
	}

	text := FormatReport(report)
	for _, want := range []string{
		"The weather in Paris, FR is currently ☀️ Clear skies with a temperature of 21.4°C",
		"feeling like 20.1°C",
		"The humidity is 55% and wind speed is 3.5 m/s.",
		"Today's range is 18.0°C to 24.0°C.",
	} {
		if !strings.Contains(text, want) {
			t.Fatalf("FormatReport() = %q, missing %q", text, want)
		}
	}
}

func TestCurrentLocationNotFound(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[]`)
	})
	_, err := c.Current(context.Background(), "k", "Nowhereville", "celsius")
	if !errors.Is(err, ErrLocationNotFound) {
		t.Fatalf("Current() error = %v, want ErrLocationNotFound", err)
	}
}

func TestCurrentWithoutKey(t *testing.T) {
	c := NewClient(nil)
	if _, err := c.Current(context.Background(), "", "Paris", "celsius"); !errors.Is(err, ErrNoAPIKey) {
		t.Fatalf("Current() error = %v, want ErrNoAPIKey", err)
	}
}

func TestCurrentServerError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/geo/1.0/direct") {
			fmt.Fprint(w, `[{"name":"Paris","country":"FR","lat":48.85,"lon":2.35}]`)
			return
		}
		w.WriteHeader(http.StatusBadGateway)
	})
	_, err := c.Current(context.Background(), "k", "Paris", "celsius")
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("Current() error = %v, want ErrUnavailable", err)
	}
}

func TestForecastGroupsByDay(t *testing.T) {
	base := time.Date(2026, 8, 28, 6, 0, 0, 0, time.UTC)
	var items []string
	for i := 0; i < 16; i++ {
		at := base.Add(time.Duration(i) * 3 * time.Hour)
		items = append(items, fmt.Sprintf(
			`{"dt":%d,"main":{"temp":20,"feels_like":20,"temp_min":15,"temp_max":25,"humidity":60},"weather":[{"main":"Rain","description":"rain"}],"wind":{"speed":4}}`,
			at.Unix()))
	}
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/geo/1.0/direct") {
			fmt.Fprint(w, `[{"name":"Oslo","country":"NO","lat":59.9,"lon":10.7}]`)
			return
		}
		fmt.Fprintf(w, `{"list":[%s]}`, strings.Join(items, ","))
	})

	forecast, err := c.ForecastDays(context.Background(), "k", "Oslo", 2, "celsius")
	if err != nil {
		t.Fatalf("ForecastDays() error = %v", err)
	}
	if len(forecast.Daily) != 2 {
		t.Fatalf("len(Daily) = %d, want 2", len(forecast.Daily))
	}

	text := FormatForecast(forecast)
	if !strings.Contains(text, "Here's the forecast for Oslo:") {
		t.Fatalf("FormatForecast() = %q, missing header", text)
	}
	if !strings.Contains(text, "🌧️ Rainy with highs around 25.0°C and lows around 15.0°C.") {
		t.Fatalf("FormatForecast() = %q, missing day line", text)
	}
}

func TestSearchBuildsDisplayNames(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("limit"); got != "5" {
			t.Errorf("limit = %q, want 5", got)
		}
		fmt.Fprint(w, `[{"name":"Portland","state":"Oregon","country":"US","lat":45.5,"lon":-122.6},{"name":"Portland","country":"AU","lat":-38.3,"lon":141.6}]`)
	})

	locs, err := c.Search(context.Background(), "k", "Portland")
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(locs) != 2 {
		t.Fatalf("len(locs) = %d, want 2", len(locs))
	}
	if locs[0].DisplayName != "Portland, Oregon, US" {
		t.Fatalf("DisplayName = %q", locs[0].DisplayName)
	}
	if locs[1].DisplayName != "Portland, AU" {
		t.Fatalf("DisplayName = %q", locs[1].DisplayName)
	}
}

func TestFormatTemperature(t *testing.T) {
	if got := FormatTemperature(20, "celsius"); got != "20.0°C" {
		t.Fatalf("celsius = %q", got)
	}
	if got := FormatTemperature(20, "fahrenheit"); got != "68.0°F" {
		t.Fatalf("fahrenheit = %q", got)
	}
}

func TestFormatCondition(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"clear sky", "☀️ Clear skies"},
		{"light rain", "🌧️ Rainy"},
		{"heavy intensity drizzle", "🌦️ Drizzling"},
		{"volcanic ash", "🌤️ Volcanic Ash"},
	}
	for _, tc := range cases {
		if got := FormatCondition(tc.in); got != tc.want {
			t.Fatalf("FormatCondition(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
