package llm

import (
	"context"
	"strings"
)

// StaticInvoker answers without calling any service. It is meant for local
// development of the UI (LLM_PROVIDER=static).
type StaticInvoker struct {
	Recipe string
	Answer string
}

// NewStaticInvoker returns a StaticInvoker with a fenced sample recipe, so the
// normalizer's fence handling is exercised as well.
func NewStaticInvoker() *StaticInvoker {
	return &StaticInvoker{
		Recipe: "```json\n" +
			`{"title":"Tomato Feta Salad","servings":2,` +
			`"ingredients":["2 tomatoes","100 g feta","1 tbsp olive oil","salt","pepper"],` +
			`"steps":["Slice the tomatoes","Crumble feta over the top","Drizzle with oil and season"],` +
			`"tips":["Use ripe tomatoes"]}` +
			"\n```",
		Answer: "Not specified in this recipe.",
	}
}

// Invoke implements Invoker. Question prompts get Answer, everything else gets Recipe.
func (s *StaticInvoker) Invoke(ctx context.Context, prompt string, _ float64) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if strings.Contains(prompt, `"question"`) {
		return s.Answer, nil
	}
	return s.Recipe, nil
}
