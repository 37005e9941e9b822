package gemini

import (
	"testing"

	"github.com/google/generative-ai-go/genai"
)

func TestPickModel(t *testing.T) {
	tests := []struct {
		name      string
		available map[string]bool
		want      string
		wantErr   bool
	}{
		{"newest wins", map[string]bool{"gemini-1.5-flash": true, "gemini-2.5-flash": true}, "gemini-2.5-flash", false},
		{"falls back", map[string]bool{"gemini-pro": true, "text-bison": true}, "gemini-pro", false},
		{"none", map[string]bool{"embedding-001": true}, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := pickModel(tt.available)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v", err)
			}
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestGetResponseText(t *testing.T) {
	resp := &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{
			{Content: &genai.Content{Parts: []genai.Part{genai.Text("bon"), genai.Text("jour")}}},
			{Content: nil},
		},
	}
	if got := getResponseText(resp); got != "bonjour" {
		t.Errorf("got %q", got)
	}
}
