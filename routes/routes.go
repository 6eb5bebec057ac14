package routes

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"exambuilder/handlers"
	"exambuilder/logger"
	"exambuilder/services"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

func SetupRoutes(
	router *gin.Engine,
	examHandler *handlers.ExamHandler,
	questionHandler *handlers.QuestionHandler,
	hub *services.Hub,
	log *logger.Logger,
) {
	api := router.Group("/api")
	{
		exams := api.Group("/exams")
		{
			exams.GET("", examHandler.ListExams)
			exams.POST("", examHandler.CreateExam)
			exams.GET("/:id", examHandler.GetExam)
			exams.PATCH("/:id", examHandler.UpdateExam)
			exams.DELETE("/:id", examHandler.DeleteExam)
			exams.GET("/:id/validation", examHandler.ValidateExam)
			exams.POST("/:id/questions", questionHandler.CreateQuestion)
		}

		questions := api.Group("/questions")
		{
			questions.PATCH("/:id", questionHandler.UpdateQuestion)
			questions.DELETE("/:id", questionHandler.DeleteQuestion)
			questions.POST("/:id/options", questionHandler.CreateOption)
			questions.POST("/:id/formula-answer", questionHandler.CreateFormulaAnswer)
		}

		options := api.Group("/options")
		{
			options.PATCH("/:id", questionHandler.UpdateOption)
			options.DELETE("/:id", questionHandler.DeleteOption)
		}

		answers := api.Group("/formula-answers")
		{
			answers.PATCH("/:id", questionHandler.UpdateFormulaAnswer)
			answers.DELETE("/:id", questionHandler.DeleteFormulaAnswer)
		}
	}

	// Editors watching an exam receive its change events.
	router.GET("/ws/exams/:id", func(c *gin.Context) {
		examID, err := strconv.ParseUint(c.Param("id"), 10, 32)
		if err != nil || examID == 0 {
			c.JSON(http.StatusBadRequest, handlers.ErrorResponse{Error: "Invalid exam ID"})
			return
		}
		if hub == nil {
			c.JSON(http.StatusServiceUnavailable, handlers.ErrorResponse{Error: "Live updates unavailable"})
			return
		}

		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			log.Warn("websocket upgrade failed", "exam_id", examID, "error", err)
			return
		}
		hub.RegisterClient(conn, uint(examID))
	})

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "timestamp": time.Now().UTC().Format(time.RFC3339)})
	})
}
