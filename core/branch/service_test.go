package branch_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ionode-cloud/ERP-Cell/core"
	"github.com/ionode-cloud/ERP-Cell/core/branch"
	testutil "github.com/ionode-cloud/ERP-Cell/tests"
)

func TestService_Create(t *testing.T) {
	svc := testutil.NewServices(t)
	ctx := context.Background()

	b, err := svc.Branches.Create(ctx, branch.NewBranch{
		Name:         "Computer Science",
		Code:         "CSE",
		FeeStructure: branch.FeeStructure{TuitionFee: 800, ExamFee: 100, LabFee: 50},
	})
	require.NoError(t, err)
	assert.Equal(t, "4 Years", b.Duration)
	assert.Equal(t, 60, b.TotalSeats)
	assert.Equal(t, float64(950), b.FeeStructure.TotalFee)
	assert.True(t, b.IsActive)

	_, err = svc.Branches.Create(ctx, branch.NewBranch{Name: "Other", Code: "CSE"})
	var verr *core.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "code", verr.Fields[0].Field)
}

func TestService_Delete(t *testing.T) {
	svc := testutil.NewServices(t)
	ctx := context.Background()
	cse := testutil.CreateBranch(t, svc.Branches, "Computer Science", "CSE", 0)
	ece := testutil.CreateBranch(t, svc.Branches, "Electronics", "ECE", 0)
	s, _ := testutil.CreateStudent(t, svc.Students, "Asha Rao", "CS01", cse.ID)

	err := svc.Branches.Delete(ctx, cse.ID)
	assert.EqualError(t, err, "cannot delete branch with 1 active students")

	require.NoError(t, svc.Students.Delete(ctx, s.ID))
	require.NoError(t, svc.Branches.Delete(ctx, cse.ID))

	active, err := svc.Branches.Query(ctx, branch.QueryFilter{})
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, ece.ID, active[0].ID)

	all, err := svc.Branches.Query(ctx, branch.QueryFilter{IncludeInactive: true})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	assert.Equal(t, branch.ErrNotFound, svc.Branches.Delete(ctx, "ghost"))
}

func TestBranch_HasSubject(t *testing.T) {
	b := branch.Branch{Subjects: []string{"Algorithms", "Networks"}}
	assert.True(t, b.HasSubject("algorithms"))
	assert.False(t, b.HasSubject("Circuits"))
	assert.True(t, branch.Branch{}.HasSubject("anything"))
}
