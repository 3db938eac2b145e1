package llm

import (
	"errors"
	"testing"
)

func TestParseJSON(t *testing.T) {
	tests := []struct {
		name     string
		response string
		want     []string
	}{
		{name: "plain", response: `["a", "b"]`, want: []string{"a", "b"}},
		{name: "json fence", response: "```json\n[\"a\"]\n```", want: []string{"a"}},
		{name: "bare fence", response: "```\n[\"a\"]\n```", want: []string{"a"}},
		{name: "inline fence", response: "```[\"a\"]```", want: []string{"a"}},
		{name: "surrounding prose", response: "Here are the claims:\n[\"a\", \"b\"]\nHope that helps.", want: []string{"a", "b"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got []string
			if err := ParseJSON(tt.response, &got); err != nil {
				t.Fatalf("ParseJSON failed: %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("Expected %v, got %v", tt.want, got)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("Expected %v, got %v", tt.want, got)
				}
			}
		})
	}
}

func TestParseJSON_Error(t *testing.T) {
	var out map[string]any
	err := ParseJSON("I could not find any claims.", &out)

	var parseErr *ParseError
	if !errors.As(err, &parseErr) {
		t.Fatalf("Expected *ParseError, got %T: %v", err, err)
	}
	if parseErr.Response != "I could not find any claims." {
		t.Errorf("Expected raw response in error, got %q", parseErr.Response)
	}
	if parseErr.Unwrap() == nil {
		t.Error("Expected wrapped decode error")
	}
}

func TestParseJSON_TruncatesResponse(t *testing.T) {
	long := make([]byte, 500)
	for i := range long {
		long[i] = 'x'
	}

	var out []string
	err := ParseJSON(string(long), &out)

	var parseErr *ParseError
	if !errors.As(err, &parseErr) {
		t.Fatalf("Expected *ParseError, got %v", err)
	}
	if len(parseErr.Response) != 203 {
		t.Errorf("Expected response truncated to 200 bytes plus ellipsis, got %d", len(parseErr.Response))
	}
}
