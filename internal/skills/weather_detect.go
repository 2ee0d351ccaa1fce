// Package skills detects and answers weather and productivity intents from
// raw transcript text before it reaches the LLM. Detection is weighted
// keyword and pattern scoring over a fixed lexicon, not general language
// understanding.
package skills

import (
	"regexp"
	"strings"
)

// Weather query types.
const (
	WeatherCurrent  = "current"
	WeatherForecast = "forecast"
)

var primaryWeatherKeywords = []string{
	"weather", "temperature", "temp", "forecast", "celsius", "fahrenheit",
	"degrees", "sunny", "rainy", "cloudy", "humid", "humidity", "windy",
	"stormy", "snow", "snowing", "rain", "raining", "clear", "overcast",
	"foggy", "misty", "chilly", "freezing", "boiling", "mild",
}

var secondaryWeatherKeywords = []string{
	"hot", "cold", "warm", "cool", "dry", "wet", "tomorrow", "today",
	"weekend", "tonight", "morning", "afternoon", "evening",
}

var weatherQuestionPatterns = []*regexp.Regexp{
	regexp.MustCompile(`what'?s\s+(?:the\s+)?weather`),
	regexp.MustCompile(`how'?s\s+(?:the\s+)?weather`),
	regexp.MustCompile(`is\s+it\s+(?:hot|cold|warm|cool|sunny|rainy|cloudy|windy)`),
	regexp.MustCompile(`will\s+it\s+(?:rain|snow|be\s+(?:hot|cold|warm|cool|sunny|cloudy))`),
	regexp.MustCompile(`should\s+i\s+(?:bring|wear|take).*(?:jacket|umbrella|sunscreen)`),
	regexp.MustCompile(`do\s+i\s+need.*(?:jacket|umbrella|sunscreen|coat)`),
	regexp.MustCompile(`temperature.*(?:in|at|for)`),
	regexp.MustCompile(`forecast.*(?:in|at|for)`),
	regexp.MustCompile(`how\s+(?:hot|cold|warm|cool)\s+is\s+it.*(?:in|at)`),
}

var forecastKeywords = []string{
	"forecast", "tomorrow", "next week", "this week", "weekend",
	"later", "tonight", "will it", "going to", "expect",
}

// weatherConfidenceThreshold rejects low-scoring matches so ordinary chat
// does not trigger weather lookups.
const weatherConfidenceThreshold = 0.3

// WeatherQuery is the result of weather intent detection.
type WeatherQuery struct {
	IsWeather  bool
	Type       string
	Location   string
	TimeFrame  string
	Confidence float64
}

// DetectWeather scores text against the weather lexicon. Pattern hits weigh
// 3, primary keywords 2, secondary keywords 1; confidence is the total
// normalized against 6 and clamped to 1.
func DetectWeather(text string) WeatherQuery {
	lower := strings.ToLower(strings.TrimSpace(text))

	score := 0
	for _, p := range weatherQuestionPatterns {
		if p.MatchString(lower) {
			score += 3
		}
	}
	for _, kw := range primaryWeatherKeywords {
		if strings.Contains(lower, kw) {
			score += 2
		}
	}
	for _, kw := range secondaryWeatherKeywords {
		if strings.Contains(lower, kw) {
			score += 1
		}
	}

	confidence := float64(score) / 6.0
	if confidence > 1.0 {
		confidence = 1.0
	}
	if confidence < weatherConfidenceThreshold {
		return WeatherQuery{Confidence: confidence}
	}

	q := WeatherQuery{IsWeather: true, Type: WeatherCurrent, Confidence: confidence}
	for _, kw := range forecastKeywords {
		if strings.Contains(lower, kw) {
			q.Type = WeatherForecast
			q.TimeFrame = kw
			break
		}
	}
	q.Location = ExtractLocation(lower)
	return q
}

var locationPatterns = []*regexp.Regexp{
	regexp.MustCompile(`weather\s+of\s+([a-zA-Z\s,.-]+?)(?:\?|\.|$)`),
	regexp.MustCompile(`(?:weather|temperature|temp|forecast|hot|cold|warm|cool).*?(?:in|at|for|near|around)\s+([a-zA-Z\s,.-]+?)(?:\?|\.|$)`),
	regexp.MustCompile(`^([a-zA-Z\s,.-]+?)\s+(?:weather|temperature|temp|forecast)`),
	regexp.MustCompile(`(?:what'?s|how'?s)\s+(?:the\s+)?(?:weather|temperature|temp).*?(?:in|at|for|near|around)\s+([a-zA-Z\s,.-]+?)(?:\?|\.|$)`),
	regexp.MustCompile(`how\s+(?:hot|cold|warm|cool)\s+is\s+it.*?(?:in|at|for|near|around)\s+([a-zA-Z\s,.-]+?)(?:\?|\.|$)`),
	regexp.MustCompile(`(?:in|at|for|near|around)\s+([a-zA-Z\s,.-]+?)(?:\?|\.|$)`),
}

var locationStopwords = regexp.MustCompile(`(?i)\b(?:the|like|today|tomorrow|now|currently|weather|temperature|temp|forecast|it|is|in|at|for|near|around)\b`)
var multiSpace = regexp.MustCompile(`\s+`)
var allDigits = regexp.MustCompile(`^\d+$`)

// ExtractLocation pulls a place name out of a weather query, returning ""
// when nothing usable is found.
func ExtractLocation(text string) string {
	clean := strings.ToLower(strings.TrimSpace(text))
	for _, p := range locationPatterns {
		m := p.FindStringSubmatch(clean)
		if m == nil {
			continue
		}
		location := strings.TrimSpace(m[1])
		location = locationStopwords.ReplaceAllString(location, "")
		location = multiSpace.ReplaceAllString(location, " ")
		location = strings.Trim(location, " ,.?-")
		if len(location) > 1 && !allDigits.MatchString(location) {
			return location
		}
	}
	return ""
}
