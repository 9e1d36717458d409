package attendance

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/pkg/errors"

	"github.com/ionode-cloud/ERP-Cell/core"
	"github.com/ionode-cloud/ERP-Cell/core/batch"
	"github.com/ionode-cloud/ERP-Cell/core/branch"
)

var (
	// errors
	ErrNotFound        = core.NewNotFoundError("attendance record not found")
	errSessionRequired = errors.New("subject, date, branchId required")
	errBranchRequired  = errors.New("branch is required")
)

type (
	Repository interface {
		// Upsert atomically inserts r or overwrites the record with the same (StudentID, Subject, Date).
		Upsert(ctx context.Context, r Record) (Record, error)
		// UpdateStatus sets the status of the session record of studentID; ErrNotFound when there is none.
		UpdateStatus(ctx context.Context, sk SessionKey, studentID, status string, updatedAt time.Time) (Record, error)
		// DeleteSession removes every record of the session and returns how many were removed.
		DeleteSession(ctx context.Context, sk SessionKey) (int, error)
		// ListByStudent and ListByBranch return records newest first.
		ListByStudent(ctx context.Context, studentID string) ([]Record, error)
		ListByBranch(ctx context.Context, branchID string, filter RecordFilter) ([]Record, error)
		// TallyByBranch counts records and Present records per branch ID.
		TallyByBranch(ctx context.Context) (map[string]Tally, error)
	}

	Branches interface {
		Query(ctx context.Context, filter branch.QueryFilter) ([]branch.Branch, error)
	}

	Service struct {
		repo        Repository
		branches    Branches
		concurrency int
		logger      core.Logger
	}
)

func NewService(repo Repository, branches Branches, conf *core.Config, logger core.Logger) *Service {
	return &Service{
		repo:        repo,
		branches:    branches,
		concurrency: conf.Batch.Concurrency,
		logger:      logger,
	}
}

// Mark upserts one record per row, concurrently and independently: a failing row leaves the others applied.
// markedBy is the marking teacher's profile ID, empty for admins.
func (svc *Service) Mark(ctx context.Context, markedBy string, mb MarkBatch) (BatchResult, error) {
	mb.clean()
	if mb.Subject == "" {
		return BatchResult{}, core.NewFieldValidationError("subject", "this field is required")
	}
	day, err := core.ParseDay(mb.Date)
	if err != nil {
		return BatchResult{}, core.NewFieldValidationError("date", "date must be a valid date (YYYY-MM-DD)")
	}
	for i, row := range mb.Records {
		if row.StudentID == "" {
			return BatchResult{}, core.NewFieldValidationError(fmt.Sprintf("records[%d].studentId", i), "this field is required")
		}
		if row.Status != "" && !validStatus(row.Status) {
			return BatchResult{}, core.NewFieldValidationError(fmt.Sprintf("records[%d].status", i), "status must be one of [Present Absent Late]")
		}
	}

	now := time.Now().UTC()
	results := batch.Run(ctx, len(mb.Records), svc.concurrency,
		func(i int) string { return mb.Records[i].StudentID },
		func(ctx context.Context, i int) (Record, error) {
			row := mb.Records[i]
			r := Record{
				StudentID: row.StudentID,
				BranchID:  row.BranchID,
				Subject:   mb.Subject,
				Date:      day,
				Status:    row.Status,
				Marks:     row.Marks,
				MarkedBy:  markedBy,
				CreatedAt: now,
				UpdatedAt: now,
			}
			if r.BranchID == "" {
				r.BranchID = mb.BranchID
			}
			if r.BranchID == "" {
				return Record{}, errBranchRequired
			}
			if r.Status == "" {
				r.Status = StatusPresent
			}
			return svc.repo.Upsert(ctx, r)
		},
	)
	return svc.report("marking attendance", results), nil
}

// UpdateSession sets the status of the listed students only. Rows without a record in the session are skipped.
func (svc *Service) UpdateSession(ctx context.Context, su SessionUpdate) (BatchResult, error) {
	su.clean()
	sk, err := su.key()
	if err != nil {
		return BatchResult{}, err
	}
	if su.Records == nil {
		return BatchResult{}, core.NewFieldValidationError("records", "this field is required")
	}
	for i, row := range su.Records {
		if !validStatus(row.Status) {
			return BatchResult{}, core.NewFieldValidationError(fmt.Sprintf("records[%d].status", i), "status must be one of [Present Absent Late]")
		}
	}

	now := time.Now().UTC()
	results := batch.Run(ctx, len(su.Records), svc.concurrency,
		func(i int) string { return su.Records[i].StudentID },
		func(ctx context.Context, i int) (Record, error) {
			row := su.Records[i]
			return svc.repo.UpdateStatus(ctx, sk, row.StudentID, row.Status, now)
		},
	)
	return svc.report("updating session", results), nil
}

// DeleteSession removes every record of the session and returns the count.
func (svc *Service) DeleteSession(ctx context.Context, sr SessionRef) (int, error) {
	sr.clean()
	sk, err := sr.key()
	if err != nil {
		return 0, err
	}
	n, err := svc.repo.DeleteSession(ctx, sk)
	if err != nil {
		return 0, errors.Wrap(err, "deleting session")
	}
	return n, nil
}

func (svc *Service) ListByStudent(ctx context.Context, studentID string) ([]Record, error) {
	return svc.repo.ListByStudent(ctx, studentID)
}

func (svc *Service) ListByBranch(ctx context.Context, branchID string, filter Filter) ([]Record, error) {
	branchID = core.CleanString(branchID)
	if branchID == "" || branchID == "undefined" {
		return nil, core.NewFieldValidationError("branchId", "invalid branchId")
	}
	rf := RecordFilter{Subject: core.CleanString(filter.Subject)}
	if filter.Date != "" {
		day, err := core.ParseDay(filter.Date)
		if err != nil {
			return nil, core.NewFieldValidationError("date", "date must be a valid date (YYYY-MM-DD)")
		}
		rf.Date = day
	}
	return svc.repo.ListByBranch(ctx, branchID, rf)
}

// Stats reduces all records to overall and per-branch presence percentages.
func (svc *Service) Stats(ctx context.Context) (Stats, error) {
	tallies, err := svc.repo.TallyByBranch(ctx)
	if err != nil {
		return Stats{}, errors.Wrap(err, "tallying attendance")
	}
	branches, err := svc.branches.Query(ctx, branch.QueryFilter{IncludeInactive: true})
	if err != nil {
		return Stats{}, errors.Wrap(err, "querying branches")
	}
	names := make(map[string]string, len(branches))
	for _, b := range branches {
		names[b.ID] = b.Name
	}

	stats := Stats{ByBranch: make([]BranchStats, 0, len(tallies))}
	for id, t := range tallies {
		stats.Total += t.Total
		stats.Present += t.Present
		stats.ByBranch = append(stats.ByBranch, BranchStats{
			BranchID:   id,
			Name:       names[id],
			Total:      t.Total,
			Present:    t.Present,
			Percentage: core.Percentage(t.Present, t.Total),
		})
	}
	stats.Percentage = core.Percentage(stats.Present, stats.Total)
	sort.Slice(stats.ByBranch, func(i, j int) bool {
		if stats.ByBranch[i].Name != stats.ByBranch[j].Name {
			return stats.ByBranch[i].Name < stats.ByBranch[j].Name
		}
		return stats.ByBranch[i].BranchID < stats.ByBranch[j].BranchID
	})
	return stats, nil
}

func (svc *Service) report(op string, results []batch.Result[Record]) BatchResult {
	sum := batch.Summarize(results)
	if sum.Failed > 0 {
		for _, res := range results {
			if res.Status == batch.StatusFailed {
				svc.logger.Warn(fmt.Sprintf("%s: row %d (student %s) failed: %s", op, res.Index, res.StudentID, res.Message))
			}
		}
	}
	return BatchResult{Records: batch.Records(results), Results: results, Summary: sum}
}

func validStatus(status string) bool {
	switch status {
	case StatusPresent, StatusAbsent, StatusLate:
		return true
	}
	return false
}
