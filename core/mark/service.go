package mark

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"

	"github.com/ionode-cloud/ERP-Cell/core"
	"github.com/ionode-cloud/ERP-Cell/core/batch"
	"github.com/ionode-cloud/ERP-Cell/core/student"
)

var (
	// errors
	ErrNotFound = core.NewNotFoundError("mark not found")
)

type (
	Repository interface {
		// Upsert atomically inserts r or overwrites the record with the same (StudentID, Subject, ExamType, Date).
		Upsert(ctx context.Context, r Record) (Record, error)
		// ListByStudent and ListByBranch return records newest first.
		ListByStudent(ctx context.Context, studentID string) ([]Record, error)
		ListByBranch(ctx context.Context, branchID string, filter Filter) ([]Record, error)
	}

	Students interface {
		Get(ctx context.Context, id string) (student.Student, error)
	}

	Service struct {
		repo        Repository
		students    Students
		concurrency int
		logger      core.Logger
	}
)

func NewService(repo Repository, students Students, conf *core.Config, logger core.Logger) *Service {
	return &Service{
		repo:        repo,
		students:    students,
		concurrency: conf.Batch.Concurrency,
		logger:      logger,
	}
}

// Record upserts a single score. The branch is taken from the student profile.
func (svc *Service) Record(ctx context.Context, markedBy string, nm NewMark) (Record, error) {
	day, err := markDay(nm.Date)
	if err != nil {
		return Record{}, err
	}
	maxMarks := nm.MaxMarks
	if maxMarks == 0 {
		maxMarks = DefaultMaxMarks
	}
	if nm.Marks == nil {
		return Record{}, core.NewFieldValidationError("marks", "this field is required")
	}
	if err = checkScore(*nm.Marks, maxMarks); err != nil {
		return Record{}, err
	}

	s, err := svc.students.Get(ctx, nm.StudentID)
	if err != nil {
		return Record{}, err
	}
	now := time.Now().UTC()
	return svc.repo.Upsert(ctx, Record{
		StudentID: s.ID,
		BranchID:  s.BranchID,
		Subject:   nm.Subject,
		ExamType:  examType(nm.ExamType),
		Marks:     *nm.Marks,
		MaxMarks:  maxMarks,
		Date:      day,
		Remarks:   nm.Remarks,
		MarkedBy:  markedBy,
		CreatedAt: now,
		UpdatedAt: now,
	})
}

// RecordBulk upserts one score per row. Rows of unknown students are skipped.
func (svc *Service) RecordBulk(ctx context.Context, markedBy string, bm BulkMarks) (BatchResult, error) {
	if bm.Subject == "" {
		return BatchResult{}, core.NewFieldValidationError("subject", "this field is required")
	}
	day, err := markDay(bm.Date)
	if err != nil {
		return BatchResult{}, err
	}
	maxMarks := bm.MaxMarks
	if maxMarks == 0 {
		maxMarks = DefaultMaxMarks
	}
	for i, row := range bm.Records {
		if row.StudentID == "" {
			return BatchResult{}, core.NewFieldValidationError(fmt.Sprintf("records[%d].studentId", i), "this field is required")
		}
	}

	now := time.Now().UTC()
	results := batch.Run(ctx, len(bm.Records), svc.concurrency,
		func(i int) string { return bm.Records[i].StudentID },
		func(ctx context.Context, i int) (Record, error) {
			row := bm.Records[i]
			if row.Marks == nil {
				return Record{}, errors.New("marks is required")
			}
			if err := checkScore(*row.Marks, maxMarks); err != nil {
				return Record{}, err
			}
			s, err := svc.students.Get(ctx, row.StudentID)
			if err != nil {
				return Record{}, err
			}
			return svc.repo.Upsert(ctx, Record{
				StudentID: s.ID,
				BranchID:  s.BranchID,
				Subject:   bm.Subject,
				ExamType:  examType(bm.ExamType),
				Marks:     *row.Marks,
				MaxMarks:  maxMarks,
				Date:      day,
				Remarks:   row.Remarks,
				MarkedBy:  markedBy,
				CreatedAt: now,
				UpdatedAt: now,
			})
		},
	)

	sum := batch.Summarize(results)
	for _, res := range results {
		if res.Status == batch.StatusFailed {
			svc.logger.Warn(fmt.Sprintf("recording marks: row %d (student %s) failed: %s", res.Index, res.StudentID, res.Message))
		}
	}
	return BatchResult{Records: batch.Records(results), Results: results, Summary: sum}, nil
}

func (svc *Service) ListByStudent(ctx context.Context, studentID string) ([]Record, error) {
	return svc.repo.ListByStudent(ctx, studentID)
}

func (svc *Service) ListByBranch(ctx context.Context, branchID string, filter Filter) ([]Record, error) {
	branchID = core.CleanString(branchID)
	if branchID == "" || branchID == "undefined" {
		return nil, core.NewFieldValidationError("branchId", "invalid branchId")
	}
	filter.Subject = core.CleanString(filter.Subject)
	filter.ExamType = core.CleanString(filter.ExamType)
	return svc.repo.ListByBranch(ctx, branchID, filter)
}

// markDay parses the exam date, today when empty.
func markDay(date string) (time.Time, error) {
	if date == "" {
		return core.Today(), nil
	}
	day, err := core.ParseDay(date)
	if err != nil {
		return time.Time{}, core.NewFieldValidationError("date", "date must be a valid date (YYYY-MM-DD)")
	}
	return day, nil
}

func checkScore(marks, maxMarks float64) error {
	if marks < 0 || marks > maxMarks {
		return core.NewFieldValidationError("marks", fmt.Sprintf("marks must be between 0 and %g", maxMarks))
	}
	return nil
}

func examType(t string) string {
	if t == "" {
		return ExamOther
	}
	return t
}
