package jsonextract

import (
	"errors"
	"testing"
)

func TestFirstObject(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr error
	}{
		{
			name:  "bare object",
			input: `{"a":1}`,
			want:  `{"a":1}`,
		},
		{
			name:  "prose around object",
			input: "Here is the listing:\n{\"title\":\"Mug\"}\nLet me know if you need more.",
			want:  `{"title":"Mug"}`,
		},
		{
			name:  "fenced object",
			input: "```json\n{\"tags\":[\"a\",\"b\"]}\n```",
			want:  "{\"tags\":[\"a\",\"b\"]}",
		},
		{
			name:  "nested objects",
			input: `result: {"a":{"b":{"c":1}},"d":2} trailing {"e":3}`,
			want:  `{"a":{"b":{"c":1}},"d":2}`,
		},
		{
			name:  "braces inside strings",
			input: `{"text":"use } and { freely","n":"say \"}\""}`,
			want:  `{"text":"use } and { freely","n":"say \"}\""}`,
		},
		{
			name:  "skips invalid leading braces",
			input: `{not json} then {"ok":true}`,
			want:  `{"ok":true}`,
		},
		{
			name:    "no object",
			input:   "I could not analyze this image.",
			wantErr: ErrNoJSON,
		},
		{
			name:    "unbalanced object",
			input:   `{"a": [1, 2}`,
			wantErr: ErrNoJSON,
		},
		{
			name:    "empty",
			input:   "",
			wantErr: ErrNoJSON,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := FirstObject(tt.input)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("Expected error %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("Expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestDecode(t *testing.T) {
	type payload struct {
		Titles []string `json:"titles"`
		Score  float64  `json:"score"`
	}

	got, err := Decode[payload]("```json\n{\"titles\":[\"One\",\"Two\"],\"score\":87.5}\n```")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(got.Titles) != 2 || got.Titles[1] != "Two" {
		t.Errorf("Expected two titles, got %v", got.Titles)
	}
	if got.Score != 87.5 {
		t.Errorf("Expected score 87.5, got %v", got.Score)
	}

	if _, err := Decode[payload]("no json here"); !errors.Is(err, ErrNoJSON) {
		t.Errorf("Expected ErrNoJSON, got %v", err)
	}

	if _, err := Decode[payload](`{"titles":"not a list"}`); err == nil {
		t.Error("Expected type mismatch error, got nil")
	}
}
