package voice

import (
	"testing"

	"google.golang.org/genai"
)

func TestResolveModel(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"", "gemini-1.5-flash"},
		{"gemini-pro", "gemini-1.5-pro"},
		{"gemini-1.5-flash-8b", "gemini-1.5-flash"},
		{"gemini-2.5-pro", "gemini-1.5-pro"},
		{"gemini-2.5-flash", "gemini-1.5-flash"},
		{"gemini-1.5-pro", "gemini-1.5-pro"},
	}
	for _, tc := range cases {
		if got := ResolveModel(tc.in); got != tc.want {
			t.Fatalf("ResolveModel(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestCannedFinishText(t *testing.T) {
	for _, reason := range []genai.FinishReason{
		genai.FinishReasonSafety,
		genai.FinishReasonRecitation,
		genai.FinishReasonOther,
	} {
		if text, ok := cannedFinishText(reason); !ok || text == "" {
			t.Fatalf("cannedFinishText(%v) = (%q, %v), want a substitute reply", reason, text, ok)
		}
	}
	if _, ok := cannedFinishText(genai.FinishReasonStop); ok {
		t.Fatalf("cannedFinishText(stop) = true, want false")
	}
	if _, ok := cannedFinishText(genai.FinishReasonMaxTokens); ok {
		t.Fatalf("cannedFinishText(max tokens) = true, want text kept")
	}
}
