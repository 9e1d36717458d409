package mark_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ionode-cloud/ERP-Cell/core"
	"github.com/ionode-cloud/ERP-Cell/core/batch"
	"github.com/ionode-cloud/ERP-Cell/core/mark"
	"github.com/ionode-cloud/ERP-Cell/core/student"
	testutil "github.com/ionode-cloud/ERP-Cell/tests"
)

func score(v float64) *float64 { return &v }

func TestService_Record(t *testing.T) {
	svc := testutil.NewServices(t)
	ctx := context.Background()
	cse := testutil.CreateBranch(t, svc.Branches, "Computer Science", "CSE", 0)
	s, _ := testutil.CreateStudent(t, svc.Students, "Asha Rao", "CS01", cse.ID)

	nm := mark.NewMark{StudentID: s.ID, Subject: "Maths", Marks: score(42), Date: "2024-03-01"}
	r, err := svc.Marks.Record(ctx, "t1", nm)
	require.NoError(t, err)
	assert.Equal(t, cse.ID, r.BranchID)
	assert.Equal(t, mark.ExamOther, r.ExamType)
	assert.Equal(t, float64(mark.DefaultMaxMarks), r.MaxMarks)
	assert.Equal(t, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), r.Date)
	assert.Equal(t, "t1", r.MarkedBy)

	// same identity: overwritten
	nm.Marks = score(55)
	again, err := svc.Marks.Record(ctx, "t1", nm)
	require.NoError(t, err)
	assert.Equal(t, r.ID, again.ID)
	assert.Equal(t, float64(55), again.Marks)

	// another exam type is another record
	nm.ExamType = mark.ExamQuiz
	_, err = svc.Marks.Record(ctx, "t1", nm)
	require.NoError(t, err)

	recs, err := svc.Marks.ListByStudent(ctx, s.ID)
	require.NoError(t, err)
	assert.Len(t, recs, 2)
}

func TestService_RecordErrors(t *testing.T) {
	svc := testutil.NewServices(t)
	ctx := context.Background()
	cse := testutil.CreateBranch(t, svc.Branches, "Computer Science", "CSE", 0)
	s, _ := testutil.CreateStudent(t, svc.Students, "Asha Rao", "CS01", cse.ID)

	tests := []struct {
		name      string
		nm        mark.NewMark
		wantField string
		wantErr   error
	}{
		{name: "above max", nm: mark.NewMark{StudentID: s.ID, Subject: "Maths", Marks: score(21), MaxMarks: 20}, wantField: "marks"},
		{name: "negative", nm: mark.NewMark{StudentID: s.ID, Subject: "Maths", Marks: score(-1)}, wantField: "marks"},
		{name: "bad date", nm: mark.NewMark{StudentID: s.ID, Subject: "Maths", Marks: score(1), Date: "lol"}, wantField: "date"},
		{name: "unknown student", nm: mark.NewMark{StudentID: "ghost", Subject: "Maths", Marks: score(1)}, wantErr: student.ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Marks.Record(ctx, "", tt.nm)
			if tt.wantErr != nil {
				assert.Equal(t, tt.wantErr, err)
				return
			}
			var verr *core.ValidationError
			require.True(t, errors.As(err, &verr), "want validation error, got %v", err)
			assert.Equal(t, tt.wantField, verr.Fields[0].Field)
		})
	}
}

func TestService_RecordBulk(t *testing.T) {
	svc := testutil.NewServices(t)
	ctx := context.Background()
	cse := testutil.CreateBranch(t, svc.Branches, "Computer Science", "CSE", 0)
	s1, _ := testutil.CreateStudent(t, svc.Students, "Asha Rao", "CS01", cse.ID)
	s2, _ := testutil.CreateStudent(t, svc.Students, "Ravi Kumar", "CS02", cse.ID)

	res, err := svc.Marks.RecordBulk(ctx, "t1", mark.BulkMarks{
		Subject:  "Maths",
		ExamType: mark.ExamMidTerm,
		MaxMarks: 50,
		Date:     "2024-03-01",
		Records: []mark.BulkRow{
			{StudentID: s1.ID, Marks: score(40)},
			{StudentID: "ghost", Marks: score(10)},
			{StudentID: s2.ID, Marks: score(60)},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, batch.Summary{Total: 3, OK: 1, Skipped: 1, Failed: 1}, res.Summary)
	assert.Equal(t, batch.StatusSkipped, res.Results[1].Status)
	assert.Equal(t, batch.StatusFailed, res.Results[2].Status)
	require.Len(t, res.Records, 1)
	assert.Equal(t, float64(50), res.Records[0].MaxMarks)

	recs, err := svc.Marks.ListByBranch(ctx, cse.ID, mark.Filter{ExamType: mark.ExamMidTerm})
	require.NoError(t, err)
	assert.Len(t, recs, 1)
	recs, err = svc.Marks.ListByBranch(ctx, cse.ID, mark.Filter{ExamType: mark.ExamFinal})
	require.NoError(t, err)
	assert.Empty(t, recs)
}
