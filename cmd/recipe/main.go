// Command recipe generates a single recipe from the terminal, using the same
// configuration as the API server.
//
//	recipe -ingredients "eggs, spinach, feta" -servings 2
//	recipe -query "quick vegan curry" -json
//	recipe -query "pancakes" -ask "Can I make them without eggs?"
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/pageza/alchemorsel-ai-recipe/backend/config"
	"github.com/pageza/alchemorsel-ai-recipe/backend/internal/app"
	"github.com/pageza/alchemorsel-ai-recipe/backend/internal/logging"
	"github.com/pageza/alchemorsel-ai-recipe/backend/internal/model"
	"github.com/pageza/alchemorsel-ai-recipe/backend/internal/service"
)

func main() {
	query := flag.String("query", "", "describe the dish you want")
	ingredients := flag.String("ingredients", "", "comma-separated ingredients you have")
	servings := flag.Int("servings", 0, "number of servings (0 lets the model decide)")
	diet := flag.String("diet", "", "dietary preference, e.g. vegan or keto")
	noCook := flag.Bool("no-cook", false, "only no-cook preparation methods")
	temperature := flag.Float64("temperature", -1, "sampling temperature between 0 and 1 (default from LLM_TEMPERATURE)")
	asJSON := flag.Bool("json", false, "print the recipe as JSON")
	ask := flag.String("ask", "", "follow-up question about the generated recipe")
	modelName := flag.String("model", "", "model to call (default from LLM_MODEL)")
	flag.Parse()

	if _, err := config.LoadDotEnv(); err != nil {
		fmt.Fprintln(os.Stderr, err)
	}
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if *modelName != "" {
		cfg.LLMModel = *modelName
	}
	logger := logging.New(cfg.LogLevel)
	logger.SetOutput(os.Stderr)

	ctx := context.Background()
	generator, err := app.NewGenerator(ctx, cfg, logger)
	if err != nil {
		logger.Fatal(err)
	}

	var servingsPtr *int
	if *servings != 0 {
		servingsPtr = servings
	}
	var temperaturePtr *float64
	if *temperature >= 0 {
		temperaturePtr = temperature
	}

	var recipe *model.Recipe
	if *ingredients != "" {
		recipe, err = generator.GenerateFromIngredients(ctx, strings.Split(*ingredients, ","), servingsPtr, *diet, temperaturePtr, *noCook)
	} else {
		recipe, err = generator.GenerateFromQuery(ctx, *query, servingsPtr, *diet, temperaturePtr, *noCook)
	}
	if err != nil {
		exitWith(err)
	}

	if *asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(recipe); err != nil {
			exitWith(err)
		}
	} else {
		fmt.Println(recipe.Text())
	}

	if *ask != "" {
		answer, err := generator.AnswerQuestion(ctx, recipe, *ask)
		if err != nil {
			exitWith(err)
		}
		fmt.Printf("\nQ: %s\nA: %s\n", strings.TrimSpace(*ask), answer)
	}
}

// exitWith prints err and exits 2 for bad input, 1 otherwise.
func exitWith(err error) {
	fmt.Fprintln(os.Stderr, "error:", err)
	var verr *service.ValidationError
	if errors.As(err, &verr) {
		os.Exit(2)
	}
	os.Exit(1)
}
