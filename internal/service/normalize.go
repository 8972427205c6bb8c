package service

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

const fence = "```"

// NormalizeResponse recovers a JSON object from a raw model reply. It tolerates
// markdown code fences and prose around the object, and fails with
// ErrMalformedResponse when nothing parseable is left.
func NormalizeResponse(raw string) (map[string]any, error) {
	s := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(raw), "\uFEFF"))
	s = stripFence(s)

	data, err := decodeObject(s)
	if err == nil {
		return data, nil
	}

	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start != -1 && end > start {
		data, braceErr := decodeObject(s[start : end+1])
		if braceErr == nil {
			return data, nil
		}
		err = braceErr
	}
	return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
}

// stripFence drops an opening fence line (with its optional language tag)
// and a closing fence when the text starts with one.
func stripFence(s string) string {
	if !strings.HasPrefix(s, fence) {
		return s
	}
	if nl := strings.Index(s, "\n"); nl != -1 {
		s = s[nl+1:]
	}
	s = strings.TrimSuffix(s, fence)
	return strings.TrimSpace(s)
}

// decodeObject parses exactly one JSON object. Numbers are kept as json.Number
// so the servings coercion can tell 7 from 7.5.
func decodeObject(s string) (map[string]any, error) {
	dec := json.NewDecoder(strings.NewReader(s))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, fmt.Errorf("unexpected data after JSON value")
	}
	obj, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("expected a JSON object, got %s", jsonKind(v))
	}
	return obj, nil
}

func jsonKind(v any) string {
	switch v.(type) {
	case []any:
		return "an array"
	case string:
		return "a string"
	case json.Number:
		return "a number"
	case bool:
		return "a boolean"
	case nil:
		return "null"
	default:
		return fmt.Sprintf("%T", v)
	}
}
