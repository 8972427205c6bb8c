// Package app wires configuration into a ready recipe generator. It is shared
// by the HTTP server and the command-line tool.
package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/pageza/alchemorsel-ai-recipe/backend/config"
	"github.com/pageza/alchemorsel-ai-recipe/backend/internal/llm"
	"github.com/pageza/alchemorsel-ai-recipe/backend/internal/service"
)

// LLMSettings maps the configuration onto invoker settings.
func LLMSettings(cfg *config.Config) llm.Settings {
	return llm.Settings{
		Provider: cfg.LLMProvider,
		Model:    cfg.LLMModel,
		APIKey:   cfg.LLMAPIKey,
		BaseURL:  cfg.LLMBaseURL,
		Timeout:  cfg.LLMTimeout,
	}
}

// NewGenerator builds the generator for cfg. A missing API key is not fatal:
// it is logged and the generator reports ErrModelUnavailable on use.
func NewGenerator(ctx context.Context, cfg *config.Config, log *logrus.Logger) (*service.RecipeGenerator, error) {
	settings := LLMSettings(cfg)
	modelName := settings.Model
	if modelName == "" {
		modelName = llm.DefaultModel(settings.Provider)
	}

	invoker, err := llm.New(ctx, settings, log.WithField("component", "llm"))
	switch {
	case errors.Is(err, llm.ErrNoCredential):
		log.WithField("provider", settings.Provider).Warn("no LLM API key found; recipe generation is disabled")
		invoker = nil
	case err != nil:
		return nil, fmt.Errorf("failed to create %s invoker: %w", settings.Provider, err)
	}

	opts := []service.GeneratorOption{
		service.WithTemperature(cfg.LLMTemperature),
		service.WithModelName(modelName),
		service.WithLogger(log.WithField("component", "recipe_generator")),
	}
	if invoker != nil {
		extra, err := alternativeModels(ctx, settings, modelName, cfg.LLMModels, log)
		if err != nil {
			return nil, err
		}
		opts = append(opts, extra...)
	}
	return service.NewRecipeGenerator(invoker, opts...), nil
}

// alternativeModels builds one invoker per extra model name, reusing the
// provider and credential of the default model.
func alternativeModels(ctx context.Context, settings llm.Settings, defaultModel string, names []string, log *logrus.Logger) ([]service.GeneratorOption, error) {
	var opts []service.GeneratorOption
	seen := map[string]bool{defaultModel: true}
	for _, name := range names {
		if seen[name] {
			continue
		}
		seen[name] = true

		s := settings
		s.Model = name
		invoker, err := llm.New(ctx, s, log.WithFields(logrus.Fields{"component": "llm", "model": name}))
		if err != nil {
			return nil, fmt.Errorf("failed to create %s invoker for model %s: %w", settings.Provider, name, err)
		}
		opts = append(opts, service.WithModel(name, invoker))
	}
	return opts, nil
}
