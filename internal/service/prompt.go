package service

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/pageza/alchemorsel-ai-recipe/backend/internal/model"
)

// Mode selects which prompt variant a GenerationRequest produces.
type Mode int

const (
	ModeQuery Mode = iota
	ModeIngredients
)

// NotSpecifiedAnswer is what the model is told to reply when the recipe does not cover a question.
const NotSpecifiedAnswer = "Not specified in this recipe."

const systemPreamble = "You are a helpful cooking assistant. Output ONLY valid JSON that matches this schema:\n" +
	"{\n  'title': str,\n  'servings': int | null,\n  'ingredients': str[],\n  'steps': str[],\n  'tips': str[] | null\n}\n" +
	"No markdown, no backticks, no commentary."

const (
	taskQuery       = "Generate a concise, tasty recipe"
	taskIngredients = "Create a simple, tasty recipe using only the provided ingredients (plus pantry basics like salt, pepper, oil)."

	constraintAccessible   = "Use accessible ingredients"
	constraintSubstitution = "If an ingredient is missing, suggest a reasonable substitution"
	constraintShortSteps   = "Keep steps short (max ~20 words each)"
	constraintMetric       = "Prefer metric units but be flexible"
	constraintNoCook       = "No cooking or heat; avoid words like bake, boil, sauté, fry, grill, roast; only no-cook methods."
)

// GenerationRequest is one recipe generation call. Ingredients being non-nil selects ingredient mode.
// An empty Model uses the generator's default model.
type GenerationRequest struct {
	Query       string
	Ingredients []string
	Servings    *int
	Diet        string
	NoCook      bool
	Temperature *float64
	Model       string
}

// Mode reports whether the request is a free-text query or an ingredient list.
func (r GenerationRequest) Mode() Mode {
	if r.Ingredients != nil {
		return ModeIngredients
	}
	return ModeQuery
}

// promptPayload fixes the key order of the serialized task. Unset optional
// fields are omitted so the model never sees an empty constraint.
type promptPayload struct {
	Task        string   `json:"task"`
	Query       string   `json:"query,omitempty"`
	Ingredients []string `json:"ingredients,omitempty"`
	Servings    *int     `json:"servings,omitempty"`
	Diet        string   `json:"diet,omitempty"`
	Constraints []string `json:"constraints"`
}

// BuildPrompt serializes a generation request into the instruction string sent to the model.
func BuildPrompt(req GenerationRequest) string {
	p := promptPayload{
		Servings: req.Servings,
		Diet:     strings.TrimSpace(req.Diet),
	}
	switch req.Mode() {
	case ModeIngredients:
		p.Task = taskIngredients
		p.Ingredients = req.Ingredients
		p.Constraints = []string{constraintSubstitution}
	default:
		p.Task = taskQuery
		p.Query = req.Query
		p.Constraints = []string{constraintAccessible}
	}
	p.Constraints = append(p.Constraints, constraintShortSteps, constraintMetric)
	if req.NoCook {
		p.Constraints = append(p.Constraints, constraintNoCook)
	}
	return systemPreamble + "\nUSER: " + marshalLiteral(p)
}

type questionRecipe struct {
	Title       string   `json:"title"`
	Servings    *int     `json:"servings"`
	Ingredients []string `json:"ingredients"`
	Steps       []string `json:"steps"`
	Tips        []string `json:"tips"`
}

type questionContext struct {
	Instruction string         `json:"instruction"`
	Recipe      questionRecipe `json:"recipe"`
	Question    string         `json:"question"`
}

// BuildQuestionPrompt embeds the whole recipe as grounding context for a follow-up question.
func BuildQuestionPrompt(recipe *model.Recipe, question string) string {
	ctx := questionContext{
		Instruction: "Answer the user's question strictly using the information in the recipe. " +
			"If the answer is not specified in the recipe, respond: '" + NotSpecifiedAnswer + "'",
		Recipe: questionRecipe{
			Title:       recipe.Title,
			Servings:    recipe.Servings,
			Ingredients: recipe.Ingredients,
			Steps:       recipe.Steps,
			Tips:        recipe.Tips,
		},
		Question: question,
	}
	return "You are a cooking assistant. Only use the provided recipe JSON as your source.\n" +
		"Respond in plain text, concise.\n\n" +
		"DATA:\n" + marshalLiteral(ctx)
}

// marshalLiteral encodes v as compact JSON without escaping <, > and &,
// so ingredient text reaches the model as written.
func marshalLiteral(v any) string {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		// The payload types only hold strings, ints and slices of strings.
		panic(err)
	}
	return strings.TrimSuffix(buf.String(), "\n")
}
