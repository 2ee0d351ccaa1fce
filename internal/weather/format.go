package weather

import (
	"fmt"
	"strings"
)

// conditionPhrases maps raw OpenWeatherMap descriptions to friendlier text.
var conditionPhrases = []struct {
	match     string
	formatted string
}{
	{"clear sky", "☀️ Clear skies"},
	{"few clouds", "🌤️ Partly cloudy"},
	{"scattered clouds", "⛅ Scattered clouds"},
	{"broken clouds", "☁️ Mostly cloudy"},
	{"overcast clouds", "☁️ Overcast"},
	{"shower rain", "🌦️ Light showers"},
	{"rain", "🌧️ Rainy"},
	{"thunderstorm", "⛈️ Thunderstorms"},
	{"snow", "🌨️ Snowing"},
	{"mist", "🌫️ Misty"},
	{"fog", "🌫️ Foggy"},
	{"drizzle", "🌦️ Drizzling"},
}

// FormatCondition translates a raw description to emoji-tagged text, title
// casing unrecognized descriptions.
func FormatCondition(description string) string {
	lower := strings.ToLower(description)
	for _, c := range conditionPhrases {
		if strings.Contains(lower, c.match) {
			return c.formatted
		}
	}
	return "🌤️ " + titleWords(description)
}

func titleWords(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + strings.ToLower(w[1:])
	}
	return strings.Join(words, " ")
}

func celsiusToFahrenheit(c float64) float64 {
	return c*9/5 + 32
}

// FormatTemperature renders a Celsius reading in the requested unit.
func FormatTemperature(tempCelsius float64, unit string) string {
	if strings.EqualFold(unit, "fahrenheit") {
		return fmt.Sprintf("%.1f°F", celsiusToFahrenheit(tempCelsius))
	}
	return fmt.Sprintf("%.1f°C", tempCelsius)
}

func displayLocation(loc Location, includeCountry bool) string {
	name := loc.Name
	if loc.State != "" {
		name += ", " + loc.State
	}
	if includeCountry && loc.Country != "" && loc.Country != "US" {
		name += ", " + loc.Country
	}
	return name
}

// FormatReport renders current conditions as a spoken sentence.
func FormatReport(r Report) string {
	var b strings.Builder
	fmt.Fprintf(&b, "The weather in %s is currently %s with a temperature of %s",
		displayLocation(r.Location, true), r.Condition.Description, r.Temperature.Current)
	if r.Temperature.FeelsLike != r.Temperature.Current {
		fmt.Fprintf(&b, ", feeling like %s", r.Temperature.FeelsLike)
	}
	fmt.Fprintf(&b, ". The humidity is %s and wind speed is %s.", r.Details.Humidity, r.Details.WindSpeed)
	if r.Temperature.Min != r.Temperature.Current || r.Temperature.Max != r.Temperature.Current {
		fmt.Fprintf(&b, " Today's range is %s to %s.", r.Temperature.Min, r.Temperature.Max)
	}
	return b.String()
}

// FormatForecast renders up to three days of forecast. Each day uses the
// midday step (12:00-15:00) when present, otherwise the day's first step.
func FormatForecast(f Forecast) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Here's the forecast for %s:\n\n", displayLocation(f.Location, false))
	days := f.Daily
	if len(days) > 3 {
		days = days[:3]
	}
	for _, day := range days {
		if len(day.Items) == 0 {
			continue
		}
		pick := day.Items[0]
		for _, item := range day.Items {
			h := item.At.Hour()
			if h >= 12 && h <= 15 {
				pick = item
				break
			}
		}
		fmt.Fprintf(&b, "**%s**: %s with highs around %s and lows around %s.\n",
			day.Date, pick.Condition.Description, pick.Temperature.Max, pick.Temperature.Min)
	}
	return strings.TrimSpace(b.String())
}
