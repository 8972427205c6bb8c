package model

import (
	"fmt"
	"strings"
)

// Text renders the recipe in its canonical plain-text form.
// Step numbers are 1-based and derived here, never stored.
func (r *Recipe) Text() string {
	lines := []string{"Title: " + singleLine(r.Title)}
	if r.HasServings() {
		lines = append(lines, fmt.Sprintf("Servings: %d", *r.Servings))
	}
	lines = append(lines, "\nIngredients:")
	for _, ing := range r.Ingredients {
		lines = append(lines, "- "+singleLine(ing))
	}
	lines = append(lines, "\nSteps:")
	for i, step := range r.Steps {
		lines = append(lines, fmt.Sprintf("%d. %s", i+1, singleLine(step)))
	}
	if len(r.Tips) > 0 {
		lines = append(lines, "\nTips:")
		for _, tip := range r.Tips {
			lines = append(lines, "- "+singleLine(tip))
		}
	}
	return strings.Join(lines, "\n")
}

// Markdown renders the recipe as a markdown document for the browser UI.
func (r *Recipe) Markdown() string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", singleLine(r.Title))
	if r.HasServings() {
		fmt.Fprintf(&b, "_Servings: %d_\n\n", *r.Servings)
	}
	b.WriteString("## Ingredients\n\n")
	for _, ing := range r.Ingredients {
		fmt.Fprintf(&b, "- %s\n", singleLine(ing))
	}
	b.WriteString("\n## Steps\n\n")
	for i, step := range r.Steps {
		fmt.Fprintf(&b, "%d. %s\n", i+1, singleLine(step))
	}
	if len(r.Tips) > 0 {
		b.WriteString("\n## Tips\n\n")
		for _, tip := range r.Tips {
			fmt.Fprintf(&b, "- %s\n", singleLine(tip))
		}
	}
	return b.String()
}

// TextSummary is what ParseText recovers from a plain-text rendering.
type TextSummary struct {
	Title       string
	Ingredients int
	Steps       int
}

// ParseText reads back the title and the ingredient and step counts from Text output.
func ParseText(text string) TextSummary {
	var sum TextSummary
	section := ""
	for _, line := range strings.Split(text, "\n") {
		switch {
		case strings.HasPrefix(line, "Title: ") && section == "":
			sum.Title = strings.TrimPrefix(line, "Title: ")
		case line == "Ingredients:":
			section = "ingredients"
		case line == "Steps:":
			section = "steps"
		case line == "Tips:":
			section = "tips"
		case section == "ingredients" && strings.HasPrefix(line, "- "):
			sum.Ingredients++
		case section == "steps" && isNumbered(line):
			sum.Steps++
		}
	}
	return sum
}

func isNumbered(line string) bool {
	dot := strings.Index(line, ". ")
	return dot > 0 && isDigits(line[:dot])
}
