package teacher_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ionode-cloud/ERP-Cell/core"
	"github.com/ionode-cloud/ERP-Cell/core/teacher"
	"github.com/ionode-cloud/ERP-Cell/core/user"
	testutil "github.com/ionode-cloud/ERP-Cell/tests"
)

func TestService_Create(t *testing.T) {
	svc := testutil.NewServices(t)
	ctx := context.Background()
	cse := testutil.CreateBranch(t, svc.Branches, "Computer Science", "CSE", 0)

	tch, creds, err := svc.Teachers.Create(ctx, teacher.NewTeacher{
		Name:        "Suresh Patel",
		Email:       "suresh@college.edu",
		EmployeeID:  "EMP001",
		BranchID:    cse.ID,
		Subjects:    []string{"Algorithms"},
		Experience:  " 10 years ",
		JoiningDate: "2020-07-01",
	})
	require.NoError(t, err)
	assert.Equal(t, "suresh@EMP001", creds.Password)
	assert.Equal(t, "Male", tch.Gender)
	assert.Equal(t, "10 years", tch.Experience)
	require.NotNil(t, tch.JoiningDate)
	assert.Equal(t, "2020-07-01", tch.JoiningDate.Format(core.DayLayout))

	usr, err := svc.Users.Authenticate(ctx, creds.LoginID, creds.Password)
	require.NoError(t, err)
	assert.Equal(t, user.RoleTeacher, usr.Role)
	assert.Equal(t, tch.ID, usr.RefID)

	got, err := svc.Teachers.GetByUser(ctx, usr.ID)
	require.NoError(t, err)
	assert.Equal(t, tch.ID, got.ID)
}

func TestService_CreateErrors(t *testing.T) {
	svc := testutil.NewServices(t)
	ctx := context.Background()
	cse := testutil.CreateBranch(t, svc.Branches, "Computer Science", "CSE", 0)
	testutil.CreateTeacher(t, svc.Teachers, "Suresh Patel", "EMP001", cse.ID)

	tests := []struct {
		name      string
		nt        teacher.NewTeacher
		wantField string
	}{
		{name: "unknown branch", nt: teacher.NewTeacher{Name: "X", Email: "x@college.edu", EmployeeID: "EMP009", BranchID: "ghost"}, wantField: "branchId"},
		{name: "duplicate employee id", nt: teacher.NewTeacher{Name: "X", Email: "x@college.edu", EmployeeID: "EMP001", BranchID: cse.ID}, wantField: "employeeId"},
		{name: "duplicate email", nt: teacher.NewTeacher{Name: "X", Email: "emp001@test.edu", EmployeeID: "EMP009", BranchID: cse.ID}, wantField: "email"},
		{name: "bad joining date", nt: teacher.NewTeacher{Name: "X", Email: "x@college.edu", EmployeeID: "EMP009", BranchID: cse.ID, JoiningDate: "01/07/2020"}, wantField: "joiningDate"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := svc.Teachers.Create(ctx, tt.nt)
			var verr *core.ValidationError
			require.True(t, errors.As(err, &verr), "want validation error, got %v", err)
			assert.Equal(t, tt.wantField, verr.Fields[0].Field)
		})
	}

	// a failed hire leaves no account behind
	_, err := svc.Users.GetByLoginID(ctx, "x@college.edu")
	assert.Equal(t, user.ErrNotFound, err)
}

func TestService_QueryUpdateDelete(t *testing.T) {
	svc := testutil.NewServices(t)
	ctx := context.Background()
	cse := testutil.CreateBranch(t, svc.Branches, "Computer Science", "CSE", 0)
	ece := testutil.CreateBranch(t, svc.Branches, "Electronics", "ECE", 0)
	ravi, _ := testutil.CreateTeacher(t, svc.Teachers, "Ravi Iyer", "EMP02", cse.ID)
	testutil.CreateTeacher(t, svc.Teachers, "Anita Das", "EMP01", cse.ID)
	testutil.CreateTeacher(t, svc.Teachers, "Meena Shah", "EMP03", ece.ID)

	byID := []core.DBOrdering{{Field: "employeeId", Ascending: true}}
	page, err := svc.Teachers.Query(ctx, teacher.QueryFilter{BranchID: cse.ID}, byID, core.Pagination{})
	require.NoError(t, err)
	assert.Equal(t, 2, page.Total)
	require.Len(t, page.Teachers, 2)
	assert.Equal(t, "EMP01", page.Teachers[0].EmployeeID)

	page, err = svc.Teachers.Query(ctx, teacher.QueryFilter{Search: "MEENA"}, nil, core.Pagination{})
	require.NoError(t, err)
	require.Len(t, page.Teachers, 1)
	assert.Equal(t, ece.ID, page.Teachers[0].BranchID)

	// renaming the profile renames the account
	name, email := "Ravi K Iyer", "ravi@college.edu"
	updated, err := svc.Teachers.Update(ctx, ravi.ID, teacher.UpdateTeacher{Name: &name, Email: &email, BranchID: &ece.ID})
	require.NoError(t, err)
	assert.Equal(t, ece.ID, updated.BranchID)
	usr, err := svc.Users.GetByID(ctx, ravi.UserID)
	require.NoError(t, err)
	assert.Equal(t, "Ravi K Iyer", usr.Name)
	assert.Equal(t, "ravi@college.edu", usr.LoginID)

	ghost := "ghost"
	_, err = svc.Teachers.Update(ctx, ravi.ID, teacher.UpdateTeacher{BranchID: &ghost})
	var verr *core.ValidationError
	require.True(t, errors.As(err, &verr))

	counts, err := svc.Teachers.CountByBranch(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{cse.ID: 1, ece.ID: 2}, counts)

	require.NoError(t, svc.Teachers.Delete(ctx, ravi.ID))
	_, err = svc.Users.Authenticate(ctx, "ravi@college.edu", "ravi@EMP02")
	assert.Equal(t, user.ErrAccountDeactivated, err)

	counts, err = svc.Teachers.CountByBranch(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, counts[ece.ID])

	_, err = svc.Teachers.Get(ctx, "ghost")
	assert.Equal(t, teacher.ErrNotFound, err)
}

func TestService_RegenerateCredentials(t *testing.T) {
	svc := testutil.NewServices(t)
	ctx := context.Background()
	cse := testutil.CreateBranch(t, svc.Branches, "Computer Science", "CSE", 0)
	tch, creds := testutil.CreateTeacher(t, svc.Teachers, "Anita Das", "EMP01", cse.ID)

	_, err := svc.Users.SetPassword(ctx, tch.UserID, "changed")
	require.NoError(t, err)

	regen, err := svc.Teachers.RegenerateCredentials(ctx, tch.ID)
	require.NoError(t, err)
	assert.Equal(t, creds.Password, regen.Password)
	assert.Equal(t, "emp01@test.edu", regen.LoginID)
	_, err = svc.Users.Authenticate(ctx, regen.LoginID, regen.Password)
	assert.NoError(t, err)
}
