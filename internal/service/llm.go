package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/sirupsen/logrus"

	"github.com/pageza/alchemorsel-ai-recipe/backend/internal/llm"
	"github.com/pageza/alchemorsel-ai-recipe/backend/internal/model"
)

// DefaultTemperature is used when a request does not pick its own.
const DefaultTemperature = 0.6

// maxLoggedReply bounds how much of a raw model reply ends up in debug logs.
const maxLoggedReply = 512

// RecipeGenerator builds prompts, calls the model and turns the reply into a Recipe.
// It holds no per-call state, so one instance can serve concurrent requests.
type RecipeGenerator struct {
	invoker     llm.Invoker
	modelName   string
	models      map[string]llm.Invoker
	temperature float64
	log         *logrus.Entry
}

// GeneratorOption configures a RecipeGenerator.
type GeneratorOption func(*RecipeGenerator)

// WithTemperature sets the default sampling temperature.
func WithTemperature(t float64) GeneratorOption {
	return func(g *RecipeGenerator) { g.temperature = t }
}

// WithModelName records the configured model name for logging and health output.
func WithModelName(name string) GeneratorOption {
	return func(g *RecipeGenerator) { g.modelName = name }
}

// WithModel makes an additional model selectable per request.
// A nil invoker is ignored.
func WithModel(name string, invoker llm.Invoker) GeneratorOption {
	return func(g *RecipeGenerator) {
		if name == "" || invoker == nil {
			return
		}
		if g.models == nil {
			g.models = make(map[string]llm.Invoker)
		}
		g.models[name] = invoker
	}
}

// WithLogger sets the logger.
func WithLogger(log *logrus.Entry) GeneratorOption {
	return func(g *RecipeGenerator) { g.log = log }
}

// NewRecipeGenerator creates a generator around the given invoker. A nil invoker
// is allowed: every call then fails with ErrModelUnavailable.
func NewRecipeGenerator(invoker llm.Invoker, opts ...GeneratorOption) *RecipeGenerator {
	g := &RecipeGenerator{
		invoker:     invoker,
		temperature: DefaultTemperature,
		log:         logrus.WithField("component", "recipe_generator"),
	}
	for _, o := range opts {
		o(g)
	}
	return g
}

// Available reports whether a model invoker is configured.
func (g *RecipeGenerator) Available() bool {
	return g.invoker != nil
}

// ModelName returns the configured model name.
func (g *RecipeGenerator) ModelName() string {
	return g.modelName
}

// Models lists the models a request may pick, the default first.
// It is empty when no model is available.
func (g *RecipeGenerator) Models() []string {
	if g.invoker == nil {
		return nil
	}
	names := []string{g.modelName}
	extra := make([]string, 0, len(g.models))
	for name := range g.models {
		if name != g.modelName {
			extra = append(extra, name)
		}
	}
	sort.Strings(extra)
	return append(names, extra...)
}

// invokerFor returns the invoker serving the named model.
func (g *RecipeGenerator) invokerFor(name string) (llm.Invoker, error) {
	if name == "" || name == g.modelName {
		return g.invoker, nil
	}
	if inv, ok := g.models[name]; ok {
		return inv, nil
	}
	return nil, invalid("model", fmt.Sprintf("model %q is not offered here", name))
}

// Temperature returns the default temperature.
func (g *RecipeGenerator) Temperature() float64 {
	return g.temperature
}

// GenerateFromQuery generates a recipe for a free-text query.
func (g *RecipeGenerator) GenerateFromQuery(ctx context.Context, query string, servings *int, diet string, temperature *float64, noCook bool) (*model.Recipe, error) {
	return g.Generate(ctx, GenerationRequest{
		Query:       query,
		Servings:    servings,
		Diet:        diet,
		NoCook:      noCook,
		Temperature: temperature,
	})
}

// GenerateFromIngredients generates a recipe from on-hand ingredients.
// Blank entries are dropped; an empty list is rejected without calling the model.
func (g *RecipeGenerator) GenerateFromIngredients(ctx context.Context, ingredients []string, servings *int, diet string, temperature *float64, noCook bool) (*model.Recipe, error) {
	if ingredients == nil {
		ingredients = []string{}
	}
	return g.Generate(ctx, GenerationRequest{
		Ingredients: ingredients,
		Servings:    servings,
		Diet:        diet,
		NoCook:      noCook,
		Temperature: temperature,
	})
}

// Generate runs the prompt, invoke, normalize pipeline for either request mode.
// Ingredients are cleaned and the query trimmed before validation.
func (g *RecipeGenerator) Generate(ctx context.Context, req GenerationRequest) (*model.Recipe, error) {
	req = req.cleaned()
	temperature, err := g.validate(req)
	if err != nil {
		return nil, err
	}
	if g.invoker == nil {
		return nil, ErrModelUnavailable
	}
	invoker, err := g.invokerFor(req.Model)
	if err != nil {
		return nil, err
	}

	prompt := BuildPrompt(req)
	raw, err := invoker.Invoke(ctx, prompt, temperature)
	if err != nil {
		return nil, fmt.Errorf("recipe generator: invoking model: %w", err)
	}

	data, err := NormalizeResponse(raw)
	if err != nil {
		g.log.WithError(err).Warn("unparseable model reply")
		g.log.WithField("reply", truncate(raw, maxLoggedReply)).Debug("raw model reply")
		return nil, err
	}

	recipe := model.FromMap(data)
	g.log.WithFields(logrus.Fields{
		"mode":        modeName(req.Mode()),
		"model":       g.modelOf(req),
		"title":       recipe.Title,
		"ingredients": len(recipe.Ingredients),
		"steps":       len(recipe.Steps),
	}).Info("recipe generated")
	return recipe, nil
}

// AnswerQuestion answers a follow-up question using only the given recipe as context.
// The reply is free text and is returned trimmed, without any parsing.
func (g *RecipeGenerator) AnswerQuestion(ctx context.Context, recipe *model.Recipe, question string) (string, error) {
	if recipe == nil {
		return "", invalid("recipe", "a recipe is required to answer questions")
	}
	question = strings.TrimSpace(question)
	if question == "" {
		return "", invalid("question", "question must not be empty")
	}
	if g.invoker == nil {
		return "", ErrModelUnavailable
	}

	answer, err := g.invoker.Invoke(ctx, BuildQuestionPrompt(recipe, question), g.temperature)
	if err != nil {
		return "", fmt.Errorf("recipe generator: invoking model: %w", err)
	}
	return strings.TrimSpace(answer), nil
}

func (g *RecipeGenerator) validate(req GenerationRequest) (float64, error) {
	switch req.Mode() {
	case ModeIngredients:
		if len(req.Ingredients) == 0 {
			return 0, invalid("ingredients", "enter at least one ingredient")
		}
	default:
		if req.Query == "" {
			return 0, invalid("query", "query must not be empty")
		}
	}
	if req.Servings != nil && *req.Servings < 1 {
		return 0, invalid("servings", "servings must be a positive number")
	}
	temperature := g.temperature
	if req.Temperature != nil {
		temperature = *req.Temperature
	}
	if temperature < 0 || temperature > 1 {
		return 0, invalid("temperature", "temperature must be between 0 and 1")
	}
	return temperature, nil
}

// cleaned keeps the request's mode while dropping blank ingredients and
// surrounding whitespace from the query.
func (r GenerationRequest) cleaned() GenerationRequest {
	if r.Mode() == ModeIngredients {
		r.Ingredients = CleanIngredients(r.Ingredients)
		if r.Ingredients == nil {
			r.Ingredients = []string{}
		}
	}
	r.Query = strings.TrimSpace(r.Query)
	r.Model = strings.TrimSpace(r.Model)
	return r
}

func (g *RecipeGenerator) modelOf(req GenerationRequest) string {
	if req.Model != "" {
		return req.Model
	}
	return g.modelName
}

// CleanIngredients trims each entry and drops the blank ones.
func CleanIngredients(ingredients []string) []string {
	var out []string
	for _, ing := range ingredients {
		if ing = strings.TrimSpace(ing); ing != "" {
			out = append(out, ing)
		}
	}
	return out
}

// ParseIngredientLines splits textarea input into one ingredient per line.
func ParseIngredientLines(text string) []string {
	return CleanIngredients(strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n"))
}

func modeName(m Mode) string {
	if m == ModeIngredients {
		return "ingredients"
	}
	return "query"
}

// truncate cuts s to at most n bytes without splitting a rune.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n] + "..."
}
