package api

import (
	"bytes"
	"embed"
	"html/template"

	"github.com/yuin/goldmark"

	"github.com/pageza/alchemorsel-ai-recipe/backend/internal/model"
)

//go:embed templates/index.html
var templateFS embed.FS

var pageTemplate = template.Must(template.ParseFS(templateFS, "templates/index.html"))

// renderRecipeHTML converts the recipe's markdown to an HTML fragment.
// goldmark drops raw HTML by default, so model output cannot inject markup.
func renderRecipeHTML(r *model.Recipe) (string, error) {
	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(r.Markdown()), &buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}
