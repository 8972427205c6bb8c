package api

import (
	"github.com/pageza/alchemorsel-ai-recipe/backend/internal/model"
	"github.com/pageza/alchemorsel-ai-recipe/backend/internal/session"
)

// GenerateOptions are the settings shared by both generation endpoints.
type GenerateOptions struct {
	Servings    *int     `json:"servings"`
	Diet        string   `json:"diet"`
	Temperature *float64 `json:"temperature"`
	NoCook      bool     `json:"no_cook"`
	// Model picks one of the offered models; empty means the default.
	Model string `json:"model"`
}

// QueryRequest asks for a recipe from a free-text description.
type QueryRequest struct {
	Query string `json:"query"`
	GenerateOptions
}

// IngredientsRequest asks for a recipe from on-hand ingredients, given either
// as a list, as one-per-line text, or both.
type IngredientsRequest struct {
	Ingredients     []string `json:"ingredients"`
	IngredientsText string   `json:"ingredients_text"`
	GenerateOptions
}

// QuestionRequest is a follow-up question about the current recipe.
type QuestionRequest struct {
	Question string `json:"question"`
}

// RecipeResponse carries a recipe and its plain-text rendering.
type RecipeResponse struct {
	Recipe *model.Recipe `json:"recipe"`
	Text   string        `json:"text"`
}

// AnswerResponse is the reply to a follow-up question.
type AnswerResponse struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// HistoryResponse lists the questions asked about the current recipe.
type HistoryResponse struct {
	History []session.QA `json:"history"`
}

// HealthResponse reports whether the service can reach a model.
type HealthResponse struct {
	Status         string   `json:"status"`
	ModelAvailable bool     `json:"model_available"`
	Model          string   `json:"model,omitempty"`
	Models         []string `json:"models,omitempty"`
}

func newRecipeResponse(r *model.Recipe) RecipeResponse {
	return RecipeResponse{Recipe: r, Text: r.Text()}
}
