package student_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ionode-cloud/ERP-Cell/core"
	"github.com/ionode-cloud/ERP-Cell/core/student"
	"github.com/ionode-cloud/ERP-Cell/core/user"
	testutil "github.com/ionode-cloud/ERP-Cell/tests"
)

func TestService_Create(t *testing.T) {
	svc := testutil.NewServices(t)
	ctx := context.Background()
	cse := testutil.CreateBranch(t, svc.Branches, "Computer Science", "CSE", 1200, "Algorithms", "Networks")

	s, creds, err := svc.Students.Create(ctx, student.NewStudent{
		Name:     "Asha Rao",
		Email:    "asha@college.edu",
		RollNo:   "CS01",
		BranchID: cse.ID,
	})
	require.NoError(t, err)
	assert.Equal(t, student.Credentials{LoginID: "asha@college.edu", Password: "asha@CS01"}, creds)
	assert.Equal(t, 1, s.Semester)
	assert.Equal(t, []string{"Algorithms", "Networks"}, s.Subjects)

	usr, err := svc.Users.Authenticate(ctx, creds.LoginID, creds.Password)
	require.NoError(t, err)
	assert.Equal(t, user.RoleStudent, usr.Role)
	assert.Equal(t, s.ID, usr.RefID)

	acc, err := svc.Fees.GetByStudent(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, float64(1200), acc.DueAmount)
}

func TestService_CreateErrors(t *testing.T) {
	svc := testutil.NewServices(t)
	ctx := context.Background()
	cse := testutil.CreateBranch(t, svc.Branches, "Computer Science", "CSE", 0)
	testutil.CreateStudent(t, svc.Students, "Asha Rao", "CS01", cse.ID)

	tests := []struct {
		name      string
		ns        student.NewStudent
		wantField string
	}{
		{name: "unknown branch", ns: student.NewStudent{Name: "X", Email: "x@college.edu", RollNo: "CS09", BranchID: "ghost"}, wantField: "branchId"},
		{name: "duplicate roll number", ns: student.NewStudent{Name: "X", Email: "x@college.edu", RollNo: "CS01", BranchID: cse.ID}, wantField: "rollNo"},
		{name: "duplicate email", ns: student.NewStudent{Name: "X", Email: "cs01@test.edu", RollNo: "CS09", BranchID: cse.ID}, wantField: "email"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := svc.Students.Create(ctx, tt.ns)
			var verr *core.ValidationError
			require.True(t, errors.As(err, &verr), "want validation error, got %v", err)
			assert.Equal(t, tt.wantField, verr.Fields[0].Field)
		})
	}

	// a failed enrollment leaves no account behind
	_, err := svc.Users.GetByLoginID(ctx, "x@college.edu")
	assert.Equal(t, user.ErrNotFound, err)
}

func TestService_Query(t *testing.T) {
	svc := testutil.NewServices(t)
	ctx := context.Background()
	cse := testutil.CreateBranch(t, svc.Branches, "Computer Science", "CSE", 0)
	ece := testutil.CreateBranch(t, svc.Branches, "Electronics", "ECE", 0)
	testutil.CreateStudent(t, svc.Students, "Ravi Kumar", "CS02", cse.ID)
	testutil.CreateStudent(t, svc.Students, "Asha Rao", "CS01", cse.ID)
	gone, _ := testutil.CreateStudent(t, svc.Students, "Old Timer", "CS00", cse.ID)
	testutil.CreateStudent(t, svc.Students, "Meena Iyer", "EC01", ece.ID)
	require.NoError(t, svc.Students.Delete(ctx, gone.ID))

	byRoll := []core.DBOrdering{{Field: "rollNo", Ascending: true}}
	page, err := svc.Students.Query(ctx, student.QueryFilter{BranchID: cse.ID}, byRoll, core.Pagination{Page: 1, Limit: 1})
	require.NoError(t, err)
	assert.Equal(t, 2, page.Total)
	assert.Equal(t, 2, page.Pages)
	require.Len(t, page.Students, 1)
	assert.Equal(t, "CS01", page.Students[0].RollNo)

	page, err = svc.Students.Query(ctx, student.QueryFilter{Search: "MEENA"}, nil, core.Pagination{})
	require.NoError(t, err)
	require.Len(t, page.Students, 1)
	assert.Equal(t, "EC01", page.Students[0].RollNo)

	stats, err := svc.Students.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, student.Stats{
		TotalStudents: 3,
		ByBranch: []student.BranchCount{
			{BranchID: cse.ID, Name: "Computer Science", Count: 2},
			{BranchID: ece.ID, Name: "Electronics", Count: 1},
		},
	}, stats)

	// deleting deactivates the account too
	_, err = svc.Users.Authenticate(ctx, "cs00@test.edu", "old@CS00")
	assert.Equal(t, user.ErrAccountDeactivated, err)
}

func TestService_RegenerateCredentials(t *testing.T) {
	svc := testutil.NewServices(t)
	ctx := context.Background()
	cse := testutil.CreateBranch(t, svc.Branches, "Computer Science", "CSE", 0)
	s, creds := testutil.CreateStudent(t, svc.Students, "Asha Rao", "CS01", cse.ID)

	usr, err := svc.Users.GetByLoginID(ctx, creds.LoginID)
	require.NoError(t, err)
	_, err = svc.Users.SetPassword(ctx, usr.ID, "changed")
	require.NoError(t, err)

	regen, err := svc.Students.RegenerateCredentials(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, "asha@CS01", regen.Password)
	_, err = svc.Users.Authenticate(ctx, regen.LoginID, regen.Password)
	assert.NoError(t, err)
}
