package persona

import (
	"math/rand"
	"regexp"
	"strings"
)

type weatherStyle struct {
	prefixes     []string
	replacements [][2]string
	suffixes     []string
}

var weatherStyles = map[string]weatherStyle{
	"pirate": {
		prefixes: []string{"Arr, matey!", "Shiver me timbers!", "Ahoy there!"},
		replacements: [][2]string{
			{"The weather", "The weather on the seven seas"},
			{"temperature", "the warmth of the sun"},
			{"wind", "the sea breeze"},
			{"rain", "the ocean's tears"},
			{"sunny", "blessed by Neptune"},
			{"cloudy", "the sky be lookin' moody"},
		},
		suffixes: []string{"Arr!", "Set sail when ye be ready!", "Fair winds to ye!"},
	},
	"cowboy": {
		prefixes: []string{"Well, partner,", "Howdy there,", "I reckon"},
		replacements: [][2]string{
			{"The weather", "The weather out here in these parts"},
			{"temperature", "how warm it's gettin'"},
			{"wind", "the prairie wind"},
			{"sunny", "bright as a new penny"},
			{"hot", "hotter than a brandin' iron"},
		},
		suffixes: []string{"Y'all take care now!", "Happy trails!", "Giddy up!"},
	},
	"robot": {
		prefixes: []string{"ANALYZING WEATHER DATA...", "WEATHER REPORT INITIATED.", "ATMOSPHERIC CONDITIONS:"},
		replacements: [][2]string{
			{"The weather", "Current atmospheric conditions"},
			{"temperature", "thermal readings indicate"},
			{"humidity", "moisture levels in the atmosphere"},
			{"sunny", "optimal solar radiation detected"},
		},
		suffixes: []string{"END WEATHER REPORT.", "WEATHER DATA TRANSMISSION COMPLETE.", "SYSTEM READY."},
	},
	"wizard": {
		prefixes: []string{"By my mystical powers,", "The ancient winds tell me", "Through my crystal ball I see"},
		replacements: [][2]string{
			{"The weather", "The mystical forces of nature"},
			{"temperature", "the magical warmth"},
			{"wind", "the enchanted breezes"},
			{"rain", "the tears of sky spirits"},
			{"sunny", "blessed by the sun god"},
		},
		suffixes: []string{"May the elements be with you!", "The prophecy is complete!", "So it is written!"},
	},
	"scientist": {
		prefixes: []string{"According to my meteorological analysis,", "Based on atmospheric data,", "My research indicates"},
		replacements: [][2]string{
			{"The weather", "Current meteorological conditions"},
			{"temperature", "thermal measurements show"},
			{"humidity", "relative humidity levels"},
			{"wind", "atmospheric pressure systems"},
		},
		suffixes: []string{"Fascinating weather patterns!", "Science is amazing!", "Data analysis complete!"},
	},
}

// StyleWeather rewrites a weather report in the persona's voice. The default
// persona and personas without a weather style pass through unchanged.
func StyleWeather(response, personaID string) string {
	if response == "" || personaID == DefaultID {
		return response
	}
	style, ok := weatherStyles[personaID]
	if !ok {
		return response
	}
	formatted := response
	for _, r := range style.replacements {
		formatted = strings.ReplaceAll(formatted, r[0], r[1])
	}
	prefix := style.prefixes[rand.Intn(len(style.prefixes))]
	suffix := style.suffixes[rand.Intn(len(style.suffixes))]
	return prefix + " " + formatted + " " + suffix
}

type productivityStyle struct {
	prefixes  []string
	timeWords [][2]string
	suffixes  []string
}

var productivityStyles = map[string]productivityStyle{
	"pirate": {
		prefixes:  []string{"Ahoy matey! ", "Shiver me timbers! ", "Arr, ye landlubber! "},
		timeWords: [][2]string{{"time", "ship's bell"}, {"timer", "hourglass"}, {"task", "treasure hunt"}},
		suffixes:  []string{" Arr!", " Set sail!", " Yo ho ho!"},
	},
	"cowboy": {
		prefixes:  []string{"Well partner, ", "Howdy there, ", "Listen up, partner! "},
		timeWords: [][2]string{{"time", "time on the range"}, {"timer", "pocket watch"}, {"task", "chore"}},
		suffixes:  []string{" Happy trails!", " Giddy up!", " That's how we do it in the West!"},
	},
	"robot": {
		prefixes:  []string{"PRODUCTIVITY DATA ANALYSIS: ", "TIME MANAGEMENT PROTOCOL ACTIVATED: ", "EFFICIENCY OPTIMIZATION: "},
		timeWords: [][2]string{{"time", "temporal coordinates"}, {"timer", "chronometer"}, {"task", "objective"}},
		suffixes:  []string{" End transmission.", " Protocol complete.", " Data processed."},
	},
	"wizard": {
		prefixes:  []string{"Behold, young apprentice! ", "The ancient scrolls reveal: ", "By the power of time magic, "},
		timeWords: [][2]string{{"time", "temporal enchantment"}, {"timer", "mystical hourglass"}, {"task", "quest"}},
		suffixes:  []string{" The prophecy is fulfilled!", " So the magic speaks!", " Time bends to our will!"},
	},
	"detective": {
		prefixes:  []string{"My investigation reveals: ", "The evidence shows: ", "Case analysis indicates: "},
		timeWords: [][2]string{{"time", "temporal evidence"}, {"timer", "stopwatch"}, {"task", "case"}},
		suffixes:  []string{" The case is clear!", " Elementary, my dear Watson!", " Justice prevails!"},
	},
}

var wordBoundaryCache = map[string]*regexp.Regexp{}

func init() {
	for _, style := range productivityStyles {
		for _, tw := range style.timeWords {
			if _, ok := wordBoundaryCache[tw[0]]; !ok {
				wordBoundaryCache[tw[0]] = regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(tw[0]) + `\b`)
			}
		}
	}
}

// StyleProductivity rewrites a time or task response in the persona's voice.
// Word substitutions are whole-word and case-insensitive; personas without a
// style pass through unchanged.
func StyleProductivity(response, personaID string) string {
	if response == "" {
		return response
	}
	style, ok := productivityStyles[personaID]
	if !ok {
		return response
	}
	formatted := response
	for _, tw := range style.timeWords {
		formatted = wordBoundaryCache[tw[0]].ReplaceAllString(formatted, tw[1])
	}
	prefix := style.prefixes[rand.Intn(len(style.prefixes))]
	if !strings.HasPrefix(formatted, strings.TrimSpace(prefix)) {
		formatted = prefix + formatted
	}
	suffix := style.suffixes[rand.Intn(len(style.suffixes))]
	if !strings.HasSuffix(formatted, strings.TrimSpace(suffix)) {
		formatted = strings.TrimRight(formatted, ".!") + suffix
	}
	return formatted
}
