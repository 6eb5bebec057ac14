package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"exambuilder/services"
)

// QuestionHandler serves questions and their payloads: multiple choice
// options and formula answers.
type QuestionHandler struct {
	examService *services.ExamService
}

func NewQuestionHandler(examService *services.ExamService) *QuestionHandler {
	return &QuestionHandler{examService: examService}
}

func (h *QuestionHandler) CreateQuestion(c *gin.Context) {
	examID, ok := parseID(c, "id", "exam")
	if !ok {
		return
	}

	var req services.CreateQuestionRequest
	if !bindJSON(c, &req) {
		return
	}

	question, err := h.examService.CreateQuestion(c.Request.Context(), examID, &req)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, question)
}

func (h *QuestionHandler) UpdateQuestion(c *gin.Context) {
	questionID, ok := parseID(c, "id", "question")
	if !ok {
		return
	}

	var req services.UpdateQuestionRequest
	if !bindJSON(c, &req) {
		return
	}

	question, err := h.examService.UpdateQuestion(c.Request.Context(), questionID, &req)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, question)
}

func (h *QuestionHandler) DeleteQuestion(c *gin.Context) {
	questionID, ok := parseID(c, "id", "question")
	if !ok {
		return
	}

	deleted, err := h.examService.DeleteQuestion(c.Request.Context(), questionID)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, DeleteResponse{Deleted: deleted})
}

func (h *QuestionHandler) CreateOption(c *gin.Context) {
	questionID, ok := parseID(c, "id", "question")
	if !ok {
		return
	}

	var req services.CreateOptionRequest
	if !bindJSON(c, &req) {
		return
	}

	option, err := h.examService.CreateMultipleChoiceOption(c.Request.Context(), questionID, &req)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, option)
}

func (h *QuestionHandler) UpdateOption(c *gin.Context) {
	optionID, ok := parseID(c, "id", "option")
	if !ok {
		return
	}

	var req services.UpdateOptionRequest
	if !bindJSON(c, &req) {
		return
	}

	option, err := h.examService.UpdateMultipleChoiceOption(c.Request.Context(), optionID, &req)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, option)
}

func (h *QuestionHandler) DeleteOption(c *gin.Context) {
	optionID, ok := parseID(c, "id", "option")
	if !ok {
		return
	}

	deleted, err := h.examService.DeleteMultipleChoiceOption(c.Request.Context(), optionID)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, DeleteResponse{Deleted: deleted})
}

func (h *QuestionHandler) CreateFormulaAnswer(c *gin.Context) {
	questionID, ok := parseID(c, "id", "question")
	if !ok {
		return
	}

	var req services.CreateFormulaAnswerRequest
	if !bindJSON(c, &req) {
		return
	}

	answer, err := h.examService.CreateFormulaAnswer(c.Request.Context(), questionID, &req)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, answer)
}

func (h *QuestionHandler) UpdateFormulaAnswer(c *gin.Context) {
	answerID, ok := parseID(c, "id", "formula answer")
	if !ok {
		return
	}

	var req services.UpdateFormulaAnswerRequest
	if !bindJSON(c, &req) {
		return
	}

	answer, err := h.examService.UpdateFormulaAnswer(c.Request.Context(), answerID, &req)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, answer)
}

func (h *QuestionHandler) DeleteFormulaAnswer(c *gin.Context) {
	answerID, ok := parseID(c, "id", "formula answer")
	if !ok {
		return
	}

	deleted, err := h.examService.DeleteFormulaAnswer(c.Request.Context(), answerID)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, DeleteResponse{Deleted: deleted})
}
