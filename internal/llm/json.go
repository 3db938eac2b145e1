package llm

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ParseError reports model output that could not be decoded as the expected JSON
type ParseError struct {
	Response string // Truncated raw response
	Err      error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse model output: %v (response: %s)", e.Err, e.Response)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// ParseJSON decodes a model response into v on a best-effort basis.
// Markdown code fences are stripped, and when the whole text does not decode the
// outermost JSON object or array embedded in it is tried instead.
func ParseJSON(response string, v any) error {
	cleaned := StripCodeFence(response)

	err := json.Unmarshal([]byte(cleaned), v)
	if err == nil {
		return nil
	}

	if embedded, ok := embeddedJSON(cleaned); ok && embedded != cleaned {
		err = json.Unmarshal([]byte(embedded), v)
		if err == nil {
			return nil
		}
	}

	return &ParseError{Response: truncate(cleaned, 200), Err: err}
}

// StripCodeFence removes a surrounding ``` or ```json fence
func StripCodeFence(response string) string {
	response = strings.TrimSpace(response)
	if strings.HasPrefix(response, "```") {
		response = strings.TrimPrefix(response, "```")
		if nl := strings.IndexByte(response, '\n'); nl >= 0 && !strings.ContainsAny(response[:nl], "{[") {
			response = response[nl+1:]
		} else {
			response = strings.TrimPrefix(response, "json")
		}
		response = strings.TrimSuffix(strings.TrimSpace(response), "```")
	}
	return strings.TrimSpace(response)
}

// embeddedJSON slices from the first opening bracket to the last matching closer
func embeddedJSON(text string) (string, bool) {
	start := strings.IndexAny(text, "{[")
	if start == -1 {
		return "", false
	}

	closer := "}"
	if text[start] == '[' {
		closer = "]"
	}
	end := strings.LastIndex(text, closer)
	if end <= start {
		return "", false
	}
	return text[start : end+1], true
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
