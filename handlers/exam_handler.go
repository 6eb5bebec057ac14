package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"exambuilder/services"
)

type ExamHandler struct {
	examService *services.ExamService
}

func NewExamHandler(examService *services.ExamService) *ExamHandler {
	return &ExamHandler{
		examService: examService,
	}
}

func (h *ExamHandler) CreateExam(c *gin.Context) {
	var req services.CreateExamRequest
	if !bindJSON(c, &req) {
		return
	}

	exam, err := h.examService.CreateExam(c.Request.Context(), &req)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, exam)
}

func (h *ExamHandler) ListExams(c *gin.Context) {
	exams, err := h.examService.ListExams(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, exams)
}

func (h *ExamHandler) GetExam(c *gin.Context) {
	examID, ok := parseID(c, "id", "exam")
	if !ok {
		return
	}

	exam, err := h.examService.GetExamWithQuestions(c.Request.Context(), examID)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, exam)
}

func (h *ExamHandler) UpdateExam(c *gin.Context) {
	examID, ok := parseID(c, "id", "exam")
	if !ok {
		return
	}

	var req services.UpdateExamRequest
	if !bindJSON(c, &req) {
		return
	}

	exam, err := h.examService.UpdateExam(c.Request.Context(), examID, &req)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, exam)
}

func (h *ExamHandler) DeleteExam(c *gin.Context) {
	examID, ok := parseID(c, "id", "exam")
	if !ok {
		return
	}

	deleted, err := h.examService.DeleteExam(c.Request.Context(), examID)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, DeleteResponse{Deleted: deleted})
}

func (h *ExamHandler) ValidateExam(c *gin.Context) {
	examID, ok := parseID(c, "id", "exam")
	if !ok {
		return
	}

	report, err := h.examService.ValidateExam(c.Request.Context(), examID)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, report)
}
