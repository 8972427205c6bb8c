package api

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/pageza/alchemorsel-ai-recipe/backend/internal/session"
)

// AskQuestion handles POST /api/v1/recipes/current/questions
func (h *Handler) AskQuestion(c *gin.Context) {
	var req QuestionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}

	qa, err := h.ask(c, req.Question)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, AnswerResponse{Question: qa.Question, Answer: qa.Answer})
}

// QuestionHistory handles GET /api/v1/recipes/current/questions
func (h *Handler) QuestionHistory(c *gin.Context) {
	sess, ok := h.existingSession(c)
	if !ok || sess.Recipe == nil {
		h.respondError(c, errNoRecipe)
		return
	}
	c.JSON(http.StatusOK, HistoryResponse{History: sess.History})
}

// ask answers a question about the session's current recipe and records it.
func (h *Handler) ask(c *gin.Context, question string) (session.QA, error) {
	sess, ok := h.existingSession(c)
	if !ok || sess.Recipe == nil {
		return session.QA{}, errNoRecipe
	}

	answer, err := h.generator.AnswerQuestion(c.Request.Context(), sess.Recipe, question)
	if err != nil {
		return session.QA{}, err
	}

	qa := session.QA{Question: strings.TrimSpace(question), Answer: answer}
	if err := h.sessions.AppendQA(sess.ID, qa); err != nil {
		h.log.WithError(err).WithField("session", sess.ID).Warn("could not record answer")
	}
	return qa, nil
}
