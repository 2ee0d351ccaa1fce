package voice

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/ariavoice/aria/internal/session"
)

const skillsNote = "SKILLS: You have access to real-time weather information. When users ask about weather, temperature, forecasts, or weather conditions for any location, you can provide accurate, up-to-date information. Stay in character while delivering weather reports."

// BuildPrompt flattens the persona system prompt and conversation history
// into the plain-text prompt format the LLM is driven with.
func BuildPrompt(systemPrompt string, history []session.Message) string {
	lines := []string{"System: " + systemPrompt + "\n" + skillsNote}
	for _, m := range history {
		if strings.TrimSpace(m.Content) == "" {
			continue
		}
		role := "User"
		if m.Role == session.RoleAssistant {
			role = "Assistant"
		}
		lines = append(lines, role+": "+m.Content)
	}
	lines = append(lines, "Assistant:")
	return strings.Join(lines, "\n")
}

// ChunkText splits text into synthesis-sized chunks, preferring sentence
// boundaries and hard-splitting only sentences that exceed limit on their
// own. Limit counts runes.
func ChunkText(text string, limit int) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	if limit <= 0 || utf8.RuneCountInString(text) <= limit {
		return []string{text}
	}

	var chunks []string
	var current string
	for _, sentence := range splitSentences(text) {
		if utf8.RuneCountInString(sentence) > limit {
			if current != "" {
				chunks = append(chunks, current)
				current = ""
			}
			pieces := hardSplit(sentence, limit)
			chunks = append(chunks, pieces[:len(pieces)-1]...)
			current = pieces[len(pieces)-1]
			continue
		}
		candidate := sentence
		if current != "" {
			candidate = current + " " + sentence
		}
		if utf8.RuneCountInString(candidate) <= limit {
			current = candidate
		} else {
			chunks = append(chunks, current)
			current = sentence
		}
	}
	if current != "" {
		chunks = append(chunks, current)
	}
	return chunks
}

// Truncate caps text at limit runes.
func Truncate(text string, limit int) string {
	if limit <= 0 || utf8.RuneCountInString(text) <= limit {
		return text
	}
	return string([]rune(text)[:limit])
}

func splitSentences(text string) []string {
	runes := []rune(text)
	var out []string
	start := 0
	for i := 0; i < len(runes); i++ {
		if !isSentenceEnd(runes[i]) {
			continue
		}
		j := i
		for j+1 < len(runes) && isSentenceEnd(runes[j+1]) {
			j++
		}
		if j+1 < len(runes) && !unicode.IsSpace(runes[j+1]) {
			i = j
			continue
		}
		if sentence := strings.TrimSpace(string(runes[start : j+1])); sentence != "" {
			out = append(out, sentence)
		}
		k := j + 1
		for k < len(runes) && unicode.IsSpace(runes[k]) {
			k++
		}
		start = k
		i = k - 1
	}
	if start < len(runes) {
		if sentence := strings.TrimSpace(string(runes[start:])); sentence != "" {
			out = append(out, sentence)
		}
	}
	return out
}

func isSentenceEnd(r rune) bool {
	return r == '.' || r == '!' || r == '?'
}

func hardSplit(s string, limit int) []string {
	runes := []rune(s)
	var out []string
	for len(runes) > limit {
		out = append(out, string(runes[:limit]))
		runes = runes[limit:]
	}
	if len(runes) > 0 {
		out = append(out, string(runes))
	}
	return out
}
