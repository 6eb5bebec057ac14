package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"exambuilder/logger"
	"exambuilder/models"
)

// ExamService owns the exam aggregate: exams, their questions and each
// question's payload. Every method commits on its own; there are no
// multi-call transactions.
type ExamService struct {
	db       *gorm.DB
	log      *logger.Logger
	notifier Notifier
	now      func() time.Time
	tracer   trace.Tracer
}

const tracerName = "exambuilder/services"

type ServiceOption func(*ExamService)

// WithNotifier sets where committed changes are announced.
func WithNotifier(n Notifier) ServiceOption {
	return func(s *ExamService) { s.notifier = n }
}

// WithTracerProvider takes spans from tp instead of the global provider.
func WithTracerProvider(tp trace.TracerProvider) ServiceOption {
	return func(s *ExamService) { s.tracer = tp.Tracer(tracerName) }
}

// WithClock replaces time.Now, mostly for tests.
func WithClock(now func() time.Time) ServiceOption {
	return func(s *ExamService) { s.now = now }
}

func NewExamService(db *gorm.DB, log *logger.Logger, opts ...ServiceOption) *ExamService {
	if log == nil {
		log = logger.Nop()
	}
	s := &ExamService{
		db:     db,
		log:    log.With("service", "ExamService"),
		now:    time.Now,
		tracer: otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *ExamService) CreateExam(ctx context.Context, req *CreateExamRequest) (exam *models.Exam, err error) {
	ctx, span := s.startSpan(ctx, "CreateExam")
	defer func() { endSpan(span, err) }()

	if err := req.validate(); err != nil {
		return nil, err
	}

	now := s.timestamp()
	exam = &models.Exam{
		Title:       req.Title,
		Description: req.Description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.db.WithContext(ctx).Create(exam).Error; err != nil {
		return nil, s.storeError("CreateExam", err)
	}

	s.notify(ctx, EventExamCreated, exam.ID, exam.ID)
	return exam, nil
}

// ListExams returns exams without their questions, newest first.
func (s *ExamService) ListExams(ctx context.Context) (exams []models.Exam, err error) {
	ctx, span := s.startSpan(ctx, "ListExams")
	defer func() { endSpan(span, err) }()

	exams = []models.Exam{}
	if err := s.db.WithContext(ctx).
		Order("created_at DESC").
		Order("id DESC").
		Find(&exams).Error; err != nil {
		return nil, s.storeError("ListExams", err)
	}
	return exams, nil
}

// UpdateExam applies the supplied fields and always refreshes updated_at,
// even when nothing else changes.
func (s *ExamService) UpdateExam(ctx context.Context, id uint, req *UpdateExamRequest) (exam *models.Exam, err error) {
	ctx, span := s.startSpan(ctx, "UpdateExam")
	defer func() { endSpan(span, err) }()

	if err := req.validate(); err != nil {
		return nil, err
	}

	var updated models.Exam
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&updated, id).Error; err != nil {
			return err
		}

		changes := map[string]interface{}{
			"updated_at": s.nextTimestamp(updated.UpdatedAt),
		}
		if req.Title != nil {
			changes["title"] = *req.Title
		}
		if req.ClearDescription {
			changes["description"] = nil
		} else if req.Description != nil {
			changes["description"] = *req.Description
		}

		if err := tx.Model(&models.Exam{}).Where("id = ?", id).Updates(changes).Error; err != nil {
			return err
		}
		return tx.First(&updated, id).Error
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		s.log.Debug("exam not found", "op", "UpdateExam", "exam_id", id)
		return nil, notFound("exam", id)
	}
	if err != nil {
		return nil, s.storeError("UpdateExam", err)
	}

	s.notify(ctx, EventExamUpdated, updated.ID, updated.ID)
	return &updated, nil
}

// DeleteExam reports whether the exam existed. Questions, options and
// answers go with it through the foreign key cascade.
func (s *ExamService) DeleteExam(ctx context.Context, id uint) (deleted bool, err error) {
	ctx, span := s.startSpan(ctx, "DeleteExam")
	defer func() { endSpan(span, err) }()

	res := s.db.WithContext(ctx).Delete(&models.Exam{}, id)
	if res.Error != nil {
		return false, s.storeError("DeleteExam", res.Error)
	}
	if res.RowsAffected == 0 {
		return false, nil
	}

	s.notify(ctx, EventExamDeleted, id, id)
	return true, nil
}

func (s *ExamService) timestamp() time.Time {
	return s.now().UTC().Truncate(time.Microsecond)
}

// nextTimestamp never returns a value at or before prev, so updated_at moves
// forward on every mutation even within one clock tick.
func (s *ExamService) nextTimestamp(prev time.Time) time.Time {
	now := s.timestamp()
	if !now.After(prev) {
		return prev.UTC().Add(time.Microsecond)
	}
	return now
}

func (s *ExamService) notify(ctx context.Context, typ EventType, examID, entityID uint) {
	if s.notifier == nil {
		return
	}
	event := ExamEvent{Type: typ, ExamID: examID, EntityID: entityID, At: s.timestamp()}
	if err := s.notifier.Publish(ctx, event); err != nil {
		s.log.Warn("failed to publish exam event", "type", typ, "exam_id", examID, "error", err)
	}
}

func (s *ExamService) storeError(op string, err error) error {
	s.log.Error("store operation failed", "op", op, "error", err)
	return fmt.Errorf("%s: %w", op, err)
}

func (s *ExamService) startSpan(ctx context.Context, op string) (context.Context, trace.Span) {
	return s.tracer.Start(ctx, "ExamService."+op)
}

func endSpan(span trace.Span, err error) {
	if err != nil && !errors.Is(err, ErrNotFound) && !errors.Is(err, ErrValidation) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
