package fee

import (
	"context"
	"fmt"
	"net/mail"
	"sort"
	"time"

	"github.com/pkg/errors"

	"github.com/ionode-cloud/ERP-Cell/core"
	"github.com/ionode-cloud/ERP-Cell/core/batch"
	"github.com/ionode-cloud/ERP-Cell/core/branch"
	"github.com/ionode-cloud/ERP-Cell/core/student"
)

const alertTemplate = "fee_due"

// alertData feeds the fee_due email template.
type alertData struct {
	StudentName  string
	RollNo       string
	AcademicYear string
	TotalAmount  float64
	PaidAmount   float64
	DueAmount    float64
}

var (
	// errors
	ErrNotFound      = core.NewNotFoundError("fee record not found")
	ErrAccountExists = errors.New("fee record already exists for this student")
	errNoBranchFees  = core.NewNotFoundError("no fee records found for this branch")
)

type (
	Repository interface {
		// Create fails with ErrAccountExists when the student already has a ledger.
		Create(ctx context.Context, f Fee) (Fee, error)
		GetByStudent(ctx context.Context, studentID string) (Fee, error)
		Query(ctx context.Context, filter Filter) ([]Fee, error)
		// AddPayment atomically appends p to the ledger and saves the recomputed amounts.
		AddPayment(ctx context.Context, feeID string, p Payment) (Fee, error)
	}

	Students interface {
		GetByRollNo(ctx context.Context, rollNo string) (student.Student, error)
		List(ctx context.Context, filter student.QueryFilter) ([]student.Student, error)
		Roster(ctx context.Context, ids []string) (map[string]student.Student, error)
	}

	Branches interface {
		Query(ctx context.Context, filter branch.QueryFilter) ([]branch.Branch, error)
	}

	Service struct {
		repo        Repository
		students    Students
		branches    Branches
		email       core.EmailService
		concurrency int
		logger      core.Logger
	}
)

func NewService(repo Repository, students Students, branches Branches, email core.EmailService, conf *core.Config, logger core.Logger) *Service {
	return &Service{
		repo:        repo,
		students:    students,
		branches:    branches,
		email:       email,
		concurrency: conf.Batch.Concurrency,
		logger:      logger,
	}
}

// Query lists ledgers with their student and branch. Ledgers whose student does not match the search are left out.
func (svc *Service) Query(ctx context.Context, qf QueryFilter) ([]Account, error) {
	filter := Filter{BranchID: core.CleanString(qf.BranchID)}
	search := core.CleanString(qf.Search)
	if search != "" {
		students, err := svc.students.List(ctx, student.QueryFilter{Search: search, IncludeInactive: true})
		if err != nil {
			return nil, errors.Wrap(err, "searching students")
		}
		filter.StudentIDs = make([]string, 0, len(students))
		for _, s := range students {
			filter.StudentIDs = append(filter.StudentIDs, s.ID)
		}
	}
	fees, err := svc.repo.Query(ctx, filter)
	if err != nil {
		return nil, errors.Wrap(err, "querying fees")
	}
	return svc.accounts(ctx, fees, true)
}

func (svc *Service) GetByStudent(ctx context.Context, studentID string) (Account, error) {
	f, err := svc.repo.GetByStudent(ctx, studentID)
	if err != nil {
		return Account{}, err
	}
	accs, err := svc.accounts(ctx, []Fee{f}, false)
	if err != nil {
		return Account{}, err
	}
	return accs[0], nil
}

// AddPayment records a payment for one student, found by ID or, when given, by roll number.
func (svc *Service) AddPayment(ctx context.Context, np NewPayment) (Fee, error) {
	studentID := np.StudentID
	if np.RollNo != "" {
		s, err := svc.students.GetByRollNo(ctx, np.RollNo)
		if err != nil {
			if core.IsNotFound(err) {
				return Fee{}, core.NewNotFoundError("student not found with this roll number")
			}
			return Fee{}, err
		}
		studentID = s.ID
	}
	f, err := svc.repo.GetByStudent(ctx, studentID)
	if err != nil {
		return Fee{}, err
	}
	return svc.repo.AddPayment(ctx, f.ID, Payment{
		Amount:        np.Amount,
		Date:          time.Now().UTC(),
		Method:        method(np.Method),
		TransactionID: np.TransactionID,
		Remarks:       np.Remarks,
	})
}

// AddBranchPayment applies the same payment to every ledger of a branch.
func (svc *Service) AddBranchPayment(ctx context.Context, bp BranchPayment) ([]Fee, batch.Summary, error) {
	fees, err := svc.repo.Query(ctx, Filter{BranchID: bp.BranchID})
	if err != nil {
		return nil, batch.Summary{}, errors.Wrap(err, "querying fees")
	}
	if len(fees) == 0 {
		return nil, batch.Summary{}, errNoBranchFees
	}

	remarks := bp.Remarks
	if remarks == "" {
		remarks = bp.Description
	}
	if remarks == "" {
		remarks = "Branch payment"
	}
	now := time.Now().UTC()
	results := batch.Run(ctx, len(fees), svc.concurrency,
		func(i int) string { return fees[i].StudentID },
		func(ctx context.Context, i int) (Fee, error) {
			return svc.repo.AddPayment(ctx, fees[i].ID, Payment{
				Amount:  bp.Amount,
				Date:    now,
				Method:  method(bp.Method),
				Remarks: remarks,
			})
		},
	)
	for _, res := range results {
		if res.Status == batch.StatusFailed {
			svc.logger.Warn(fmt.Sprintf("branch payment: student %s failed: %s", res.StudentID, res.Message))
		}
	}
	return batch.Records(results), batch.Summarize(results), nil
}

// SendAlerts emails every student with pending dues and returns who was alerted.
func (svc *Service) SendAlerts(ctx context.Context, af AlertFilter) ([]Alert, error) {
	filter := Filter{BranchID: core.CleanString(af.BranchID)}
	if id := core.CleanString(af.StudentID); id != "" {
		filter.StudentIDs = []string{id}
	}
	fees, err := svc.repo.Query(ctx, filter)
	if err != nil {
		return nil, errors.Wrap(err, "querying fees")
	}
	accs, err := svc.accounts(ctx, fees, true)
	if err != nil {
		return nil, err
	}

	alerts := make([]Alert, 0)
	msgs := make([]*core.EmailMessage, 0)
	for _, acc := range accs {
		if acc.DueAmount <= 0 {
			continue
		}
		alerts = append(alerts, Alert{
			Name:        acc.Student.Name,
			RollNo:      acc.Student.RollNo,
			Email:       acc.Student.Email,
			DueAmount:   acc.DueAmount,
			TotalAmount: acc.TotalAmount,
		})
		if acc.Student.Email == "" {
			continue
		}
		msgs = append(msgs, &core.EmailMessage{
			To:           []mail.Address{{Name: acc.Student.Name, Address: acc.Student.Email}},
			Subject:      "Fee payment reminder",
			TemplateName: alertTemplate,
			TemplateData: alertData{
				StudentName:  acc.Student.Name,
				RollNo:       acc.Student.RollNo,
				AcademicYear: acc.AcademicYear,
				TotalAmount:  acc.TotalAmount,
				PaidAmount:   acc.PaidAmount,
				DueAmount:    acc.DueAmount,
			},
		})
	}
	if len(msgs) > 0 {
		svc.email.SendMessages(msgs...)
	}
	return alerts, nil
}

// Summary totals every ledger: revenue, pending dues, collections per month and per branch.
func (svc *Service) Summary(ctx context.Context) (Summary, error) {
	fees, err := svc.repo.Query(ctx, Filter{})
	if err != nil {
		return Summary{}, errors.Wrap(err, "querying fees")
	}
	branches, err := svc.branches.Query(ctx, branch.QueryFilter{IncludeInactive: true})
	if err != nil {
		return Summary{}, errors.Wrap(err, "querying branches")
	}
	names := make(map[string]string, len(branches))
	for _, b := range branches {
		names[b.ID] = b.Name
	}

	sum := Summary{Monthly: []Month{}, ByBranch: []BranchTotals{}, TotalStudents: len(fees)}
	months := make(map[string]*Month)
	byBranch := make(map[string]*BranchTotals)
	branchOrder := make([]string, 0)
	for _, f := range fees {
		sum.TotalRevenue += f.PaidAmount
		sum.TotalPending += f.TotalAmount - f.PaidAmount
		sum.TotalFees += f.TotalAmount

		for _, p := range f.Payments {
			key := p.Date.UTC().Format("2006-01")
			m, ok := months[key]
			if !ok {
				m = &Month{Month: p.Date.UTC().Format("Jan 06")}
				months[key] = m
			}
			m.Amount += p.Amount
		}

		bt, ok := byBranch[f.BranchID]
		if !ok {
			name, found := names[f.BranchID]
			if !found {
				name = "Unknown"
			}
			bt = &BranchTotals{Name: name}
			byBranch[f.BranchID] = bt
			branchOrder = append(branchOrder, f.BranchID)
		}
		bt.TotalFees += f.TotalAmount
		bt.Collected += f.PaidAmount
		bt.Pending += f.TotalAmount - f.PaidAmount
	}

	keys := make([]string, 0, len(months))
	for k := range months {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		sum.Monthly = append(sum.Monthly, *months[k])
	}
	sort.SliceStable(branchOrder, func(i, j int) bool { return byBranch[branchOrder[i]].Name < byBranch[branchOrder[j]].Name })
	for _, id := range branchOrder {
		sum.ByBranch = append(sum.ByBranch, *byBranch[id])
	}
	return sum, nil
}

// accounts joins ledgers with their students and branches.
// With skipOrphans, ledgers whose student no longer exists are dropped.
func (svc *Service) accounts(ctx context.Context, fees []Fee, skipOrphans bool) ([]Account, error) {
	ids := make([]string, 0, len(fees))
	for _, f := range fees {
		ids = append(ids, f.StudentID)
	}
	roster, err := svc.students.Roster(ctx, ids)
	if err != nil {
		return nil, errors.Wrap(err, "loading students")
	}
	branches, err := svc.branches.Query(ctx, branch.QueryFilter{IncludeInactive: true})
	if err != nil {
		return nil, errors.Wrap(err, "querying branches")
	}
	refs := make(map[string]*BranchRef, len(branches))
	for _, b := range branches {
		refs[b.ID] = &BranchRef{ID: b.ID, Name: b.Name, Code: b.Code}
	}

	accs := make([]Account, 0, len(fees))
	for _, f := range fees {
		acc := Account{Fee: f, Branch: refs[f.BranchID]}
		if s, ok := roster[f.StudentID]; ok {
			acc.Student = &StudentRef{ID: s.ID, Name: s.Name, RollNo: s.RollNo, Email: s.Email}
		} else if skipOrphans {
			continue
		}
		accs = append(accs, acc)
	}
	return accs, nil
}

func method(m string) string {
	if m == "" {
		return MethodCash
	}
	return m
}
