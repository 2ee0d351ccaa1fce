package skills

import "testing"

func TestDetectWeatherCurrentWithLocation(t *testing.T) {
	q := DetectWeather("What's the weather in Paris?")
	if !q.IsWeather {
		t.Fatalf("IsWeather = false, want true (confidence %v)", q.Confidence)
	}
	if q.Type != WeatherCurrent {
		t.Fatalf("Type = %q, want %q", q.Type, WeatherCurrent)
	}
	if q.Location != "paris" {
		t.Fatalf("Location = %q, want %q", q.Location, "paris")
	}
}

func TestDetectWeatherForecast(t *testing.T) {
	q := DetectWeather("What's the forecast for tomorrow in London?")
	if !q.IsWeather {
		t.Fatalf("IsWeather = false, want true")
	}
	if q.Type != WeatherForecast {
		t.Fatalf("Type = %q, want %q", q.Type, WeatherForecast)
	}
	if q.TimeFrame == "" {
		t.Fatalf("TimeFrame is empty, want a forecast keyword")
	}
	if q.Location != "london" {
		t.Fatalf("Location = %q, want %q", q.Location, "london")
	}
}

func TestDetectWeatherRejectsOrdinaryChat(t *testing.T) {
	for _, text := range []string{
		"Tell me a joke",
		"Who wrote War and Peace?",
		"Play some music",
	} {
		if q := DetectWeather(text); q.IsWeather {
			t.Fatalf("DetectWeather(%q).IsWeather = true, want false (confidence %v)", text, q.Confidence)
		}
	}
}

func TestDetectWeatherQuestionPatterns(t *testing.T) {
	for _, text := range []string{
		"Is it cold outside?",
		"Will it rain today?",
		"Do I need an umbrella today?",
		"How hot is it in Phoenix?",
	} {
		if q := DetectWeather(text); !q.IsWeather {
			t.Fatalf("DetectWeather(%q).IsWeather = false, want true (confidence %v)", text, q.Confidence)
		}
	}
}

func TestExtractLocation(t *testing.T) {
	cases := []struct {
		text string
		want string
	}{
		{"what's the weather in new york?", "new york"},
		{"weather of tokyo", "tokyo"},
		{"berlin weather", "berlin"},
		{"how cold is it in oslo?", "oslo"},
		{"what's the weather like today?", ""},
		{"temperature in 90210", ""},
	}
	for _, tc := range cases {
		if got := ExtractLocation(tc.text); got != tc.want {
			t.Fatalf("ExtractLocation(%q) = %q, want %q", tc.text, got, tc.want)
		}
	}
}
