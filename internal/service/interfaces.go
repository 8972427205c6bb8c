package service

import (
	"context"

	"github.com/pageza/alchemorsel-ai-recipe/backend/internal/model"
)

// IRecipeGenerator defines the recipe generation operations used by the HTTP layer
type IRecipeGenerator interface {
	Generate(ctx context.Context, req GenerationRequest) (*model.Recipe, error)
	AnswerQuestion(ctx context.Context, recipe *model.Recipe, question string) (string, error)
	Available() bool
	ModelName() string
	Models() []string
	Temperature() float64
}

var _ IRecipeGenerator = (*RecipeGenerator)(nil)
