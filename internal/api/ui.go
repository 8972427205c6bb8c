package api

import (
	"html/template"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/pageza/alchemorsel-ai-recipe/backend/internal/session"
)

// Diets offered by the settings form.
var Diets = []string{"vegan", "vegetarian", "gluten-free", "keto", "paleo"}

const defaultFormServings = 2

// pageData feeds templates/index.html.
type pageData struct {
	Error          string
	ModelAvailable bool
	Model          string
	Models         []string
	Diets          []string
	Form           formState
	Title          string
	RecipeHTML     template.HTML
	RecipeText     string
	History        []session.QA
}

// formState pre-fills the settings with the last request.
type formState struct {
	Mode            string
	Query           string
	IngredientsText string
	Servings        int
	UseServings     bool
	Diet            string
	NoCook          bool
	Temperature     float64
	Model           string
}

// Index handles GET / and renders the page for the caller's session.
func (h *Handler) Index(c *gin.Context) {
	data := pageData{
		Error:          c.Query("error"),
		ModelAvailable: h.generator.Available(),
		Model:          h.generator.ModelName(),
		Models:         h.generator.Models(),
		Diets:          Diets,
		Form: formState{
			Mode:        "ingredients",
			Servings:    defaultFormServings,
			UseServings: true,
			Temperature: h.generator.Temperature(),
		},
	}

	if sess, ok := h.existingSession(c); ok && sess.Recipe != nil {
		fragment, err := renderRecipeHTML(sess.Recipe)
		if err != nil {
			h.log.WithError(err).Warn("markdown rendering failed")
		}
		data.Title = sess.Recipe.Title
		data.RecipeHTML = template.HTML(fragment)
		data.RecipeText = sess.Recipe.Text()
		data.History = sess.History
		if sess.Request != nil {
			data.Form = formFromRequest(*sess.Request)
		}
	}

	c.HTML(http.StatusOK, "index.html", data)
}

// UIGenerate handles the generate form and redirects back to the page.
func (h *Handler) UIGenerate(c *gin.Context) {
	opts, err := optionsFromForm(c)
	if err != nil {
		redirectWithError(c, err.Error())
		return
	}

	if c.PostForm("mode") == "query" {
		_, err = h.generateFromQuery(c, QueryRequest{Query: c.PostForm("query"), GenerateOptions: opts})
	} else {
		_, err = h.generateFromIngredients(c, IngredientsRequest{IngredientsText: c.PostForm("ingredients_text"), GenerateOptions: opts})
	}
	if err != nil {
		if statusFor(err) >= http.StatusInternalServerError {
			h.log.WithError(err).Warn("recipe generation from form failed")
		}
		redirectWithError(c, messageFor(err))
		return
	}
	c.Redirect(http.StatusSeeOther, "/")
}

// UIAsk handles the question form and redirects back to the page.
func (h *Handler) UIAsk(c *gin.Context) {
	if _, err := h.ask(c, c.PostForm("question")); err != nil {
		redirectWithError(c, messageFor(err))
		return
	}
	c.Redirect(http.StatusSeeOther, "/#questions")
}

func optionsFromForm(c *gin.Context) (GenerateOptions, error) {
	var opts GenerateOptions
	if c.PostForm("use_servings") != "" {
		n, err := strconv.Atoi(strings.TrimSpace(c.PostForm("servings")))
		if err != nil {
			return opts, errBadForm("servings must be a whole number")
		}
		opts.Servings = &n
	}
	if t := strings.TrimSpace(c.PostForm("temperature")); t != "" {
		f, err := strconv.ParseFloat(t, 64)
		if err != nil {
			return opts, errBadForm("temperature must be a number")
		}
		opts.Temperature = &f
	}
	opts.Diet = c.PostForm("diet")
	opts.NoCook = c.PostForm("cook_mode") == "nonfire"
	opts.Model = c.PostForm("model")
	return opts, nil
}

func formFromRequest(req session.Request) formState {
	form := formState{
		Mode:            "ingredients",
		Query:           req.Query,
		IngredientsText: strings.Join(req.Ingredients, "\n"),
		Servings:        defaultFormServings,
		Diet:            req.Diet,
		NoCook:          req.NoCook,
		Temperature:     req.Temperature,
		Model:           req.Model,
	}
	if req.Query != "" {
		form.Mode = "query"
	}
	if req.Servings != nil {
		form.Servings = *req.Servings
		form.UseServings = true
	}
	return form
}

type errBadForm string

func (e errBadForm) Error() string { return string(e) }

func redirectWithError(c *gin.Context, msg string) {
	c.Redirect(http.StatusSeeOther, "/?error="+url.QueryEscape(msg))
}
