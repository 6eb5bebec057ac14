package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"exambuilder/logger"
	"exambuilder/services"
	"exambuilder/testutil"
)

func newRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	svc := services.NewExamService(testutil.DB(t), logger.Nop())
	exams := NewExamHandler(svc)
	questions := NewQuestionHandler(svc)

	r := gin.New()
	r.POST("/exams", exams.CreateExam)
	r.GET("/exams", exams.ListExams)
	r.GET("/exams/:id", exams.GetExam)
	r.PATCH("/exams/:id", exams.UpdateExam)
	r.DELETE("/exams/:id", exams.DeleteExam)
	r.GET("/exams/:id/validation", exams.ValidateExam)
	r.POST("/exams/:id/questions", questions.CreateQuestion)
	r.PATCH("/questions/:id", questions.UpdateQuestion)
	r.DELETE("/questions/:id", questions.DeleteQuestion)
	r.POST("/questions/:id/options", questions.CreateOption)
	r.POST("/questions/:id/formula-answer", questions.CreateFormulaAnswer)
	r.PATCH("/options/:id", questions.UpdateOption)
	r.DELETE("/options/:id", questions.DeleteOption)
	r.PATCH("/formula-answers/:id", questions.UpdateFormulaAnswer)
	r.DELETE("/formula-answers/:id", questions.DeleteFormulaAnswer)
	return r
}

func do(t *testing.T, r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), v); err != nil {
		t.Fatalf("decode %q: %v", w.Body.String(), err)
	}
}

func expectStatus(t *testing.T, w *httptest.ResponseRecorder, want int) {
	t.Helper()
	if w.Code != want {
		t.Fatalf("status = %d, want %d, body %s", w.Code, want, w.Body.String())
	}
}

func TestExamEndpoints(t *testing.T) {
	r := newRouter(t)

	w := do(t, r, http.MethodPost, "/exams", `{"title":"Algebra Quiz","description":"week 1"}`)
	expectStatus(t, w, http.StatusCreated)
	var exam struct {
		ID          uint    `json:"id"`
		Title       string  `json:"title"`
		Description *string `json:"description"`
	}
	decode(t, w, &exam)
	if exam.ID == 0 || exam.Title != "Algebra Quiz" || exam.Description == nil {
		t.Fatalf("unexpected exam %+v", exam)
	}
	path := fmt.Sprintf("/exams/%d", exam.ID)

	w = do(t, r, http.MethodPatch, path, `{"description":null}`)
	expectStatus(t, w, http.StatusOK)
	decode(t, w, &exam)
	if exam.Description != nil || exam.Title != "Algebra Quiz" {
		t.Fatalf("description not cleared: %+v", exam)
	}

	// A PATCH without a body only refreshes updated_at.
	w = do(t, r, http.MethodPatch, path, "")
	expectStatus(t, w, http.StatusOK)

	w = do(t, r, http.MethodGet, "/exams", "")
	expectStatus(t, w, http.StatusOK)
	var list []map[string]interface{}
	decode(t, w, &list)
	if len(list) != 1 {
		t.Fatalf("expected one exam, got %d", len(list))
	}
	if _, ok := list[0]["questions"]; ok {
		t.Fatalf("list must not carry questions")
	}

	w = do(t, r, http.MethodGet, path, "")
	expectStatus(t, w, http.StatusOK)
	var agg map[string]json.RawMessage
	decode(t, w, &agg)
	if string(agg["questions"]) != "[]" {
		t.Fatalf("expected empty questions array, got %s", agg["questions"])
	}

	w = do(t, r, http.MethodDelete, path, "")
	expectStatus(t, w, http.StatusOK)
	var del DeleteResponse
	decode(t, w, &del)
	if !del.Deleted {
		t.Fatalf("expected deleted=true")
	}

	w = do(t, r, http.MethodDelete, path, "")
	expectStatus(t, w, http.StatusOK)
	decode(t, w, &del)
	if del.Deleted {
		t.Fatalf("expected deleted=false on second delete")
	}

	w = do(t, r, http.MethodGet, path, "")
	expectStatus(t, w, http.StatusNotFound)
}

func TestQuestionAndPayloadEndpoints(t *testing.T) {
	r := newRouter(t)

	w := do(t, r, http.MethodPost, "/exams", `{"title":"Mixed"}`)
	expectStatus(t, w, http.StatusCreated)
	var exam struct {
		ID uint `json:"id"`
	}
	decode(t, w, &exam)

	var mc, formula struct {
		ID   uint   `json:"id"`
		Type string `json:"type"`
	}
	w = do(t, r, http.MethodPost, fmt.Sprintf("/exams/%d/questions", exam.ID),
		`{"type":"MULTIPLE_CHOICE","question_text":"2+2=?","points":1,"order_index":0}`)
	expectStatus(t, w, http.StatusCreated)
	decode(t, w, &mc)

	w = do(t, r, http.MethodPost, fmt.Sprintf("/exams/%d/questions", exam.ID),
		`{"type":"FORMULA","question_text":"d/dx x^2","points":2,"order_index":1}`)
	expectStatus(t, w, http.StatusCreated)
	decode(t, w, &formula)

	w = do(t, r, http.MethodPost, fmt.Sprintf("/questions/%d/options", mc.ID), `{"option_text":"4","is_correct":true,"order_index":0}`)
	expectStatus(t, w, http.StatusCreated)
	var option struct {
		ID uint `json:"id"`
	}
	decode(t, w, &option)

	w = do(t, r, http.MethodPost, fmt.Sprintf("/questions/%d/options", formula.ID), `{"option_text":"x"}`)
	expectStatus(t, w, http.StatusConflict)

	w = do(t, r, http.MethodPost, fmt.Sprintf("/questions/%d/formula-answer", formula.ID), `{"expected_answer":"2x"}`)
	expectStatus(t, w, http.StatusCreated)
	var answer struct {
		ID             uint   `json:"id"`
		ExpectedAnswer string `json:"expected_answer"`
	}
	decode(t, w, &answer)

	w = do(t, r, http.MethodPost, fmt.Sprintf("/questions/%d/formula-answer", formula.ID), `{"expected_answer":"2*x"}`)
	expectStatus(t, w, http.StatusConflict)

	w = do(t, r, http.MethodPatch, fmt.Sprintf("/formula-answers/%d", answer.ID), `{}`)
	expectStatus(t, w, http.StatusOK)
	decode(t, w, &answer)
	if answer.ExpectedAnswer != "2x" {
		t.Fatalf("expected unchanged answer, got %q", answer.ExpectedAnswer)
	}

	w = do(t, r, http.MethodPatch, fmt.Sprintf("/questions/%d", mc.ID), `{}`)
	expectStatus(t, w, http.StatusNotFound)

	w = do(t, r, http.MethodPatch, fmt.Sprintf("/options/%d", option.ID), `{"order_index":-1}`)
	expectStatus(t, w, http.StatusBadRequest)

	w = do(t, r, http.MethodPatch, fmt.Sprintf("/options/%d", option.ID), `{"option_text":"four"}`)
	expectStatus(t, w, http.StatusOK)

	w = do(t, r, http.MethodGet, fmt.Sprintf("/exams/%d", exam.ID), "")
	expectStatus(t, w, http.StatusOK)
	var agg struct {
		Questions []map[string]json.RawMessage `json:"questions"`
	}
	decode(t, w, &agg)
	if len(agg.Questions) != 2 {
		t.Fatalf("expected 2 questions, got %d", len(agg.Questions))
	}
	if _, ok := agg.Questions[0]["multiple_choice_options"]; !ok {
		t.Fatalf("first question lost its options: %s", w.Body.String())
	}
	if _, ok := agg.Questions[1]["formula_answer"]; !ok {
		t.Fatalf("second question lost its answer: %s", w.Body.String())
	}

	w = do(t, r, http.MethodGet, fmt.Sprintf("/exams/%d/validation", exam.ID), "")
	expectStatus(t, w, http.StatusOK)

	for _, path := range []string{
		fmt.Sprintf("/options/%d", option.ID),
		fmt.Sprintf("/formula-answers/%d", answer.ID),
		fmt.Sprintf("/questions/%d", mc.ID),
	} {
		w = do(t, r, http.MethodDelete, path, "")
		expectStatus(t, w, http.StatusOK)
		var del DeleteResponse
		decode(t, w, &del)
		if !del.Deleted {
			t.Fatalf("DELETE %s: expected deleted=true", path)
		}
	}
}

func TestBadRequests(t *testing.T) {
	r := newRouter(t)

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		want   int
	}{
		{"non numeric id", http.MethodGet, "/exams/abc", "", http.StatusBadRequest},
		{"zero id", http.MethodGet, "/exams/0", "", http.StatusBadRequest},
		{"malformed json", http.MethodPost, "/exams", `{"title":`, http.StatusBadRequest},
		{"empty title", http.MethodPost, "/exams", `{"title":"  "}`, http.StatusBadRequest},
		{"unknown type", http.MethodPost, "/exams/1/questions", `{"type":"ESSAY","question_text":"q","points":1}`, http.StatusBadRequest},
		{"question on missing exam", http.MethodPost, "/exams/99/questions", `{"type":"FORMULA","question_text":"q","points":1}`, http.StatusNotFound},
		{"missing exam update", http.MethodPatch, "/exams/99", `{"title":"x"}`, http.StatusNotFound},
		{"missing option update", http.MethodPatch, "/options/99", `{"is_correct":true}`, http.StatusNotFound},
		{"bad question id", http.MethodDelete, "/questions/-1", "", http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, r, tt.method, tt.path, tt.body)
			expectStatus(t, w, tt.want)
			var resp ErrorResponse
			decode(t, w, &resp)
			if resp.Error == "" {
				t.Fatalf("expected error message")
			}
		})
	}
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{&services.ValidationError{Field: "title", Reason: "is required"}, http.StatusBadRequest},
		{services.ErrNotFound, http.StatusNotFound},
		{services.ErrNoFieldsToUpdate, http.StatusNotFound},
		{&services.ConstraintError{Reason: "dup"}, http.StatusConflict},
		{fmt.Errorf("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := statusFor(tt.err); got != tt.want {
			t.Fatalf("statusFor(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}
