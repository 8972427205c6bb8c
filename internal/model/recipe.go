package model

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// UntitledRecipe is used when the model omits the title or returns something unusable.
const UntitledRecipe = "Untitled Recipe"

// Recipe is a validated recipe as produced by the generator.
// Tips is nil when the recipe has no tips; it is never an empty non-nil slice.
type Recipe struct {
	Title       string   `json:"title"`
	Servings    *int     `json:"servings"`
	Ingredients []string `json:"ingredients"`
	Steps       []string `json:"steps"`
	Tips        []string `json:"tips"`
}

// FromMap builds a Recipe from a decoded model response, coercing every field.
// Missing or malformed optional fields fall back to their defaults instead of failing.
func FromMap(data map[string]any) *Recipe {
	r := &Recipe{
		Title:       coerceTitle(data["title"]),
		Servings:    coerceServings(data["servings"]),
		Ingredients: coerceList(data["ingredients"]),
		Steps:       coerceList(data["steps"]),
	}
	if tips := coerceList(data["tips"]); len(tips) > 0 {
		r.Tips = tips
	}
	return r
}

// HasServings reports whether a serving count is set.
func (r *Recipe) HasServings() bool {
	return r.Servings != nil
}

func coerceTitle(v any) string {
	s, ok := v.(string)
	if !ok {
		return UntitledRecipe
	}
	if s = singleLine(s); s == "" {
		return UntitledRecipe
	}
	return s
}

// coerceServings accepts digit-only strings and whole, positive numbers.
// Ranges like "4-6", text like "N/A", negatives and fractions all become nil.
func coerceServings(v any) *int {
	var n int
	switch val := v.(type) {
	case string:
		if !isDigits(val) {
			return nil
		}
		parsed, err := strconv.Atoi(val)
		if err != nil {
			return nil
		}
		n = parsed
	case json.Number:
		f, err := val.Float64()
		if err != nil || !isWhole(f) {
			return nil
		}
		n = int(f)
	case float64:
		if !isWhole(val) {
			return nil
		}
		n = int(val)
	case float32:
		if !isWhole(float64(val)) {
			return nil
		}
		n = int(val)
	case int:
		n = val
	case int64:
		n = int(val)
	default:
		return nil
	}
	if n < 1 {
		return nil
	}
	return &n
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func isWhole(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0) && f == math.Trunc(f) && f <= math.MaxInt32
}

// coerceList stringifies every element onto a single trimmed line, dropping the empty ones.
// Anything that is not a list yields an empty, non-nil slice.
func coerceList(v any) []string {
	out := []string{}
	items, ok := v.([]any)
	if !ok {
		if strs, ok := v.([]string); ok {
			for _, s := range strs {
				if s = singleLine(s); s != "" {
					out = append(out, s)
				}
			}
		}
		return out
	}
	for _, item := range items {
		if s := singleLine(stringify(item)); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// singleLine trims s and joins its lines with single spaces, so a value can
// never open a new section or list item in the text rendering.
func singleLine(s string) string {
	s = strings.TrimSpace(s)
	if !strings.ContainsAny(s, "\r\n") {
		return s
	}
	var parts []string
	for _, line := range strings.FieldsFunc(s, func(r rune) bool { return r == '\r' || r == '\n' }) {
		if line = strings.TrimSpace(line); line != "" {
			parts = append(parts, line)
		}
	}
	return strings.Join(parts, " ")
}

func stringify(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case json.Number:
		return val.String()
	case bool, float64, float32, int, int64:
		return fmt.Sprint(val)
	default:
		b, err := json.Marshal(val)
		if err != nil {
			return fmt.Sprint(val)
		}
		return string(b)
	}
}
