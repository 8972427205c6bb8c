package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/pageza/alchemorsel-ai-recipe/backend/internal/model"
	"github.com/pageza/alchemorsel-ai-recipe/backend/internal/service"
)

// MockRecipeGenerator is a mock implementation of service.IRecipeGenerator
type MockRecipeGenerator struct {
	mock.Mock
}

func (m *MockRecipeGenerator) Generate(ctx context.Context, req service.GenerationRequest) (*model.Recipe, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Recipe), args.Error(1)
}

func (m *MockRecipeGenerator) AnswerQuestion(ctx context.Context, recipe *model.Recipe, question string) (string, error) {
	args := m.Called(ctx, recipe, question)
	return args.String(0), args.Error(1)
}

func (m *MockRecipeGenerator) Available() bool {
	return m.Called().Bool(0)
}

func (m *MockRecipeGenerator) ModelName() string {
	return m.Called().String(0)
}

func (m *MockRecipeGenerator) Models() []string {
	args := m.Called()
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).([]string)
}

func (m *MockRecipeGenerator) Temperature() float64 {
	args := m.Called()
	return args.Get(0).(float64)
}
