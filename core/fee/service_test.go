package fee_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ionode-cloud/ERP-Cell/core"
	"github.com/ionode-cloud/ERP-Cell/core/fee"
	emailsvc "github.com/ionode-cloud/ERP-Cell/services/email"
	testutil "github.com/ionode-cloud/ERP-Cell/tests"
)

func TestService_AddPayment(t *testing.T) {
	svc := testutil.NewServices(t)
	ctx := context.Background()
	cse := testutil.CreateBranch(t, svc.Branches, "Computer Science", "CSE", 1000)
	s, _ := testutil.CreateStudent(t, svc.Students, "Asha Rao", "CS01", cse.ID)

	acc, err := svc.Fees.GetByStudent(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, float64(1000), acc.TotalAmount)
	assert.Equal(t, float64(1000), acc.DueAmount)
	assert.Equal(t, core.AcademicYear(time.Now().UTC()), acc.AcademicYear)
	require.NotNil(t, acc.Student)
	assert.Equal(t, "CS01", acc.Student.RollNo)
	require.NotNil(t, acc.Branch)
	assert.Equal(t, "CSE", acc.Branch.Code)

	f, err := svc.Fees.AddPayment(ctx, fee.NewPayment{StudentID: s.ID, Amount: 300})
	require.NoError(t, err)
	assert.Equal(t, float64(300), f.PaidAmount)
	assert.Equal(t, float64(700), f.DueAmount)
	require.Len(t, f.Payments, 1)
	assert.Equal(t, fee.MethodCash, f.Payments[0].Method)
	assert.NotEmpty(t, f.Payments[0].ID)

	f, err = svc.Fees.AddPayment(ctx, fee.NewPayment{RollNo: "CS01", Amount: 200, Method: fee.MethodOnline})
	require.NoError(t, err)
	assert.Equal(t, float64(500), f.PaidAmount)
	assert.Equal(t, float64(500), f.DueAmount)

	_, err = svc.Fees.AddPayment(ctx, fee.NewPayment{RollNo: "NOPE", Amount: 1})
	assert.True(t, core.IsNotFound(err))
	_, err = svc.Fees.AddPayment(ctx, fee.NewPayment{StudentID: "ghost", Amount: 1})
	assert.Equal(t, fee.ErrNotFound, err)
}

func TestService_AddBranchPayment(t *testing.T) {
	svc := testutil.NewServices(t)
	ctx := context.Background()
	cse := testutil.CreateBranch(t, svc.Branches, "Computer Science", "CSE", 1000)
	ece := testutil.CreateBranch(t, svc.Branches, "Electronics", "ECE", 800)
	testutil.CreateStudent(t, svc.Students, "Asha Rao", "CS01", cse.ID)
	testutil.CreateStudent(t, svc.Students, "Ravi Kumar", "CS02", cse.ID)
	e1, _ := testutil.CreateStudent(t, svc.Students, "Meena Iyer", "EC01", ece.ID)

	fees, sum, err := svc.Fees.AddBranchPayment(ctx, fee.BranchPayment{BranchID: cse.ID, Amount: 250})
	require.NoError(t, err)
	assert.Equal(t, 2, sum.OK)
	require.Len(t, fees, 2)
	for _, f := range fees {
		assert.Equal(t, float64(750), f.DueAmount)
		assert.Equal(t, "Branch payment", f.Payments[0].Remarks)
	}

	other, err := svc.Fees.GetByStudent(ctx, e1.ID)
	require.NoError(t, err)
	assert.Equal(t, float64(0), other.PaidAmount)

	_, _, err = svc.Fees.AddBranchPayment(ctx, fee.BranchPayment{BranchID: "ghost", Amount: 1})
	assert.True(t, core.IsNotFound(err))
}

func TestService_QueryAndSummary(t *testing.T) {
	svc := testutil.NewServices(t)
	ctx := context.Background()
	cse := testutil.CreateBranch(t, svc.Branches, "Computer Science", "CSE", 1000)
	ece := testutil.CreateBranch(t, svc.Branches, "Electronics", "ECE", 800)
	s1, _ := testutil.CreateStudent(t, svc.Students, "Asha Rao", "CS01", cse.ID)
	testutil.CreateStudent(t, svc.Students, "Ravi Kumar", "CS02", cse.ID)
	testutil.CreateStudent(t, svc.Students, "Meena Iyer", "EC01", ece.ID)

	_, err := svc.Fees.AddPayment(ctx, fee.NewPayment{StudentID: s1.ID, Amount: 400})
	require.NoError(t, err)

	accs, err := svc.Fees.Query(ctx, fee.QueryFilter{BranchID: cse.ID})
	require.NoError(t, err)
	assert.Len(t, accs, 2)
	accs, err = svc.Fees.Query(ctx, fee.QueryFilter{Search: "asha"})
	require.NoError(t, err)
	require.Len(t, accs, 1)
	assert.Equal(t, s1.ID, accs[0].StudentID)

	sum, err := svc.Fees.Summary(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, sum.TotalStudents)
	assert.Equal(t, float64(2800), sum.TotalFees)
	assert.Equal(t, float64(400), sum.TotalRevenue)
	assert.Equal(t, float64(2400), sum.TotalPending)
	require.Len(t, sum.Monthly, 1)
	assert.Equal(t, time.Now().UTC().Format("Jan 06"), sum.Monthly[0].Month)
	assert.Equal(t, []fee.BranchTotals{
		{Name: "Computer Science", TotalFees: 2000, Collected: 400, Pending: 1600},
		{Name: "Electronics", TotalFees: 800, Collected: 0, Pending: 800},
	}, sum.ByBranch)
}

func TestService_SendAlerts(t *testing.T) {
	emailsvc.ResetSentMessages()
	svc := testutil.NewServices(t)
	ctx := context.Background()
	cse := testutil.CreateBranch(t, svc.Branches, "Computer Science", "CSE", 1000)
	s1, _ := testutil.CreateStudent(t, svc.Students, "Asha Rao", "CS01", cse.ID)
	testutil.CreateStudent(t, svc.Students, "Ravi Kumar", "CS02", cse.ID)

	_, err := svc.Fees.AddPayment(ctx, fee.NewPayment{StudentID: s1.ID, Amount: 1000})
	require.NoError(t, err)

	alerts, err := svc.Fees.SendAlerts(ctx, fee.AlertFilter{BranchID: cse.ID})
	require.NoError(t, err)
	require.Len(t, alerts, 1)
	assert.Equal(t, fee.Alert{Name: "Ravi Kumar", RollNo: "CS02", Email: "CS02@test.edu", DueAmount: 1000, TotalAmount: 1000}, alerts[0])

	require.Len(t, emailsvc.SentMessages, 1)
	msg := emailsvc.SentMessages[0]
	assert.Equal(t, "CS02@test.edu", msg.To[0].Address)
	assert.Contains(t, msg.TextContent, "Ravi Kumar (CS02)")
	assert.Contains(t, msg.TextContent, "1000.00")
	assert.Contains(t, msg.HTMLContent, "Amount due")
}
