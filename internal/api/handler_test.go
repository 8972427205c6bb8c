package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pageza/alchemorsel-ai-recipe/backend/internal/llm"
	"github.com/pageza/alchemorsel-ai-recipe/backend/internal/middleware"
	"github.com/pageza/alchemorsel-ai-recipe/backend/internal/service"
	"github.com/pageza/alchemorsel-ai-recipe/backend/internal/session"
)

const eggsReply = "```json\n" + `{"title":"Spinach Omelette","servings":"2","ingredients":["2 eggs","1 cup spinach"],"steps":["Whisk eggs","Cook with spinach"],"tips":[]}` + "\n```"

type fakeInvoker struct {
	mu      sync.Mutex
	reply   string
	answer  string
	err     error
	calls   int
	prompts []string
}

func (f *fakeInvoker) Invoke(_ context.Context, prompt string, _ float64) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.prompts = append(f.prompts, prompt)
	if f.err != nil {
		return "", f.err
	}
	if strings.Contains(prompt, `"question"`) {
		return f.answer, nil
	}
	return f.reply, nil
}

func (f *fakeInvoker) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func quietLogger() *logrus.Entry {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger.WithField("component", "test")
}

type testClient struct {
	t      *testing.T
	router *gin.Engine
	cookie *http.Cookie
}

func setupRouter(t *testing.T, invoker llm.Invoker) (*testClient, *session.Store) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	log := quietLogger()

	generator := service.NewRecipeGenerator(invoker, service.WithLogger(log), service.WithModelName("test-model"))
	sessions := session.NewStore(time.Hour, log)
	router := gin.New()
	NewHandler(generator, sessions, nil, log).RegisterRoutes(router)
	return &testClient{t: t, router: router}, sessions
}

// do sends a request and keeps the session cookie like a browser would.
func (tc *testClient) do(method, path, contentType string, body io.Reader) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if tc.cookie != nil {
		req.AddCookie(tc.cookie)
	}
	w := httptest.NewRecorder()
	tc.router.ServeHTTP(w, req)
	for _, c := range w.Result().Cookies() {
		if c.Name == middleware.SessionCookie {
			tc.cookie = c
		}
	}
	return w
}

func (tc *testClient) postJSON(path string, body any) *httptest.ResponseRecorder {
	data, err := json.Marshal(body)
	require.NoError(tc.t, err)
	return tc.do(http.MethodPost, path, "application/json", bytes.NewReader(data))
}

func (tc *testClient) postForm(path string, form url.Values) *httptest.ResponseRecorder {
	return tc.do(http.MethodPost, path, "application/x-www-form-urlencoded", strings.NewReader(form.Encode()))
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func TestGenerateFromIngredients(t *testing.T) {
	invoker := &fakeInvoker{reply: eggsReply}
	tc, sessions := setupRouter(t, invoker)

	w := tc.postJSON("/api/v1/recipes/ingredients", map[string]any{
		"ingredients":      []string{"eggs", "  "},
		"ingredients_text": "spinach\n\n",
		"servings":         2,
		"no_cook":          false,
	})

	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	resp := decode[RecipeResponse](t, w)
	assert.Equal(t, "Spinach Omelette", resp.Recipe.Title)
	require.NotNil(t, resp.Recipe.Servings)
	assert.Equal(t, 2, *resp.Recipe.Servings)
	assert.Nil(t, resp.Recipe.Tips)
	assert.True(t, strings.HasPrefix(resp.Text, "Title: Spinach Omelette\nServings: 2\n"))

	require.NotNil(t, tc.cookie)
	assert.True(t, tc.cookie.HttpOnly)
	assert.Equal(t, 1, sessions.Len())
	assert.Contains(t, invoker.prompts[0], `"ingredients":["eggs","spinach"]`)
}

func TestGenerateFromQuery(t *testing.T) {
	invoker := &fakeInvoker{reply: eggsReply}
	tc, _ := setupRouter(t, invoker)

	w := tc.postJSON("/api/v1/recipes/query", map[string]any{"query": "an omelette", "diet": "vegetarian", "temperature": 0.3})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = tc.do(http.MethodGet, "/api/v1/recipes/current", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Spinach Omelette", decode[RecipeResponse](t, w).Recipe.Title)
}

func TestGenerateErrors(t *testing.T) {
	tests := []struct {
		name    string
		invoker llm.Invoker
		path    string
		body    any
		status  int
		message string
		calls   int
	}{
		{
			name:    "empty ingredients",
			invoker: &fakeInvoker{reply: eggsReply},
			path:    "/api/v1/recipes/ingredients",
			body:    map[string]any{"ingredients": []string{" "}, "ingredients_text": "\n"},
			status:  http.StatusBadRequest,
			message: "enter at least one ingredient",
		},
		{
			name:    "empty query",
			invoker: &fakeInvoker{reply: eggsReply},
			path:    "/api/v1/recipes/query",
			body:    map[string]any{"query": "  "},
			status:  http.StatusBadRequest,
			message: "query must not be empty",
		},
		{
			name:    "temperature out of range",
			invoker: &fakeInvoker{reply: eggsReply},
			path:    "/api/v1/recipes/query",
			body:    map[string]any{"query": "soup", "temperature": 1.5},
			status:  http.StatusBadRequest,
			message: "temperature must be between 0 and 1",
		},
		{
			name:    "malformed reply",
			invoker: &fakeInvoker{reply: "I cannot help with that."},
			path:    "/api/v1/recipes/query",
			body:    map[string]any{"query": "soup"},
			status:  http.StatusBadGateway,
			message: "Model did not return valid JSON.",
			calls:   1,
		},
		{
			name:    "provider failure",
			invoker: &fakeInvoker{err: errors.New("upstream 500: secret detail")},
			path:    "/api/v1/recipes/query",
			body:    map[string]any{"query": "soup"},
			status:  http.StatusBadGateway,
			message: "the model request failed, please try again",
			calls:   1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tc, _ := setupRouter(t, tt.invoker)
			w := tc.postJSON(tt.path, tt.body)

			assert.Equal(t, tt.status, w.Code)
			assert.Equal(t, tt.message, decode[map[string]string](t, w)["error"])
			assert.Equal(t, tt.calls, tt.invoker.(*fakeInvoker).callCount())
		})
	}
}

func TestModelUnavailable(t *testing.T) {
	tc, _ := setupRouter(t, nil)

	w := tc.postJSON("/api/v1/recipes/query", map[string]any{"query": "soup"})
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, service.ErrModelUnavailable.Error(), decode[map[string]string](t, w)["error"])

	w = tc.do(http.MethodGet, "/healthz", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	health := decode[HealthResponse](t, w)
	assert.Equal(t, "ok", health.Status)
	assert.False(t, health.ModelAvailable)
}

func TestInvalidJSONBody(t *testing.T) {
	tc, _ := setupRouter(t, &fakeInvoker{reply: eggsReply})
	w := tc.do(http.MethodPost, "/api/v1/recipes/query", "application/json", strings.NewReader("{"))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCurrentRecipeWithoutSession(t *testing.T) {
	tc, _ := setupRouter(t, &fakeInvoker{reply: eggsReply})

	for _, path := range []string{
		"/api/v1/recipes/current",
		"/api/v1/recipes/current/text",
		"/api/v1/recipes/current/html",
		"/api/v1/recipes/current/questions",
	} {
		w := tc.do(http.MethodGet, path, "", nil)
		assert.Equal(t, http.StatusNotFound, w.Code, path)
	}

	w := tc.postJSON("/api/v1/recipes/current/questions", map[string]any{"question": "why?"})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCurrentRecipeRenderings(t *testing.T) {
	tc, _ := setupRouter(t, &fakeInvoker{reply: eggsReply})
	require.Equal(t, http.StatusCreated, tc.postJSON("/api/v1/recipes/query", map[string]any{"query": "omelette"}).Code)

	w := tc.do(http.MethodGet, "/api/v1/recipes/current/text", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Title: Spinach Omelette\nServings: 2\n\nIngredients:\n- 2 eggs\n- 1 cup spinach\n\nSteps:\n1. Whisk eggs\n2. Cook with spinach", w.Body.String())

	w = tc.do(http.MethodGet, "/api/v1/recipes/current/html", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, w.Body.String(), "<h1>Spinach Omelette</h1>")
	assert.Contains(t, w.Body.String(), "<li>Whisk eggs</li>")
}

func TestQuestions(t *testing.T) {
	invoker := &fakeInvoker{reply: eggsReply, answer: "  Yes, use kale.  "}
	tc, _ := setupRouter(t, invoker)
	require.Equal(t, http.StatusCreated, tc.postJSON("/api/v1/recipes/query", map[string]any{"query": "omelette"}).Code)

	w := tc.postJSON("/api/v1/recipes/current/questions", map[string]any{"question": "Can I swap spinach?"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "Yes, use kale.", decode[AnswerResponse](t, w).Answer)

	w = tc.postJSON("/api/v1/recipes/current/questions", map[string]any{"question": "   "})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = tc.do(http.MethodGet, "/api/v1/recipes/current/questions", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	history := decode[HistoryResponse](t, w).History
	require.Len(t, history, 1)
	assert.Equal(t, "Can I swap spinach?", history[0].Question)

	// a new recipe starts a new conversation
	require.Equal(t, http.StatusCreated, tc.postJSON("/api/v1/recipes/query", map[string]any{"query": "another"}).Code)
	w = tc.do(http.MethodGet, "/api/v1/recipes/current/questions", "", nil)
	assert.Empty(t, decode[HistoryResponse](t, w).History)
}

func TestSessionsAreIsolated(t *testing.T) {
	tc, _ := setupRouter(t, &fakeInvoker{reply: eggsReply})
	require.Equal(t, http.StatusCreated, tc.postJSON("/api/v1/recipes/query", map[string]any{"query": "omelette"}).Code)

	other := &testClient{t: t, router: tc.router}
	assert.Equal(t, http.StatusNotFound, other.do(http.MethodGet, "/api/v1/recipes/current", "", nil).Code)

	other.cookie = &http.Cookie{Name: middleware.SessionCookie, Value: "not-a-uuid"}
	assert.Equal(t, http.StatusNotFound, other.do(http.MethodGet, "/api/v1/recipes/current", "", nil).Code)
}

func TestLimiterKeysByLiveSession(t *testing.T) {
	gin.SetMode(gin.TestMode)
	log := quietLogger()
	sessions := session.NewStore(time.Hour, log)
	limiter := middleware.NewGenerationRateLimiter(nil, 1, log)
	NewHandler(service.NewRecipeGenerator(nil, service.WithLogger(log)), sessions, limiter, log)

	keyFor := func(cookie string) string {
		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		c.Request = httptest.NewRequest(http.MethodPost, "/api/v1/recipes/query", nil)
		c.Request.RemoteAddr = "10.0.0.1:1234"
		c.Request.AddCookie(&http.Cookie{Name: middleware.SessionCookie, Value: cookie})
		return limiter.Key(c)
	}

	sess := sessions.Create()
	assert.Equal(t, "session:"+sess.ID.String(), keyFor(sess.ID.String()))
	assert.Equal(t, "ip:10.0.0.1", keyFor("forged"))

	sessions.Delete(sess.ID)
	assert.Equal(t, "ip:10.0.0.1", keyFor(sess.ID.String()))
}
