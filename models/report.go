package models

type IssueCode string

const (
	IssueDuplicateQuestionOrder IssueCode = "duplicate_question_order"
	IssueDuplicateOptionOrder   IssueCode = "duplicate_option_order"
	IssueMissingOptions         IssueCode = "missing_options"
	IssueNoCorrectOption        IssueCode = "no_correct_option"
	IssueMissingFormulaAnswer   IssueCode = "missing_formula_answer"
)

type ExamIssue struct {
	Code       IssueCode `json:"code"`
	QuestionID *uint     `json:"question_id,omitempty"`
	Message    string    `json:"message"`
}

// ExamReport lists advisory problems of an exam. None of them block writes.
type ExamReport struct {
	ExamID   uint        `json:"exam_id"`
	Complete bool        `json:"complete"`
	Issues   []ExamIssue `json:"issues"`
}
