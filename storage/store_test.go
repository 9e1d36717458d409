package storage_test

import (
	"context"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ionode-cloud/ERP-Cell/core"
	"github.com/ionode-cloud/ERP-Cell/core/attendance"
	"github.com/ionode-cloud/ERP-Cell/core/branch"
	"github.com/ionode-cloud/ERP-Cell/core/fee"
	"github.com/ionode-cloud/ERP-Cell/core/mark"
	"github.com/ionode-cloud/ERP-Cell/core/student"
	"github.com/ionode-cloud/ERP-Cell/core/user"
	"github.com/ionode-cloud/ERP-Cell/storage"
	"github.com/ionode-cloud/ERP-Cell/storage/database"
	testutil "github.com/ionode-cloud/ERP-Cell/tests"
)

var (
	day1 = time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	day2 = time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC)
)

// stores returns the in-memory store plus the mongodb and postgres ones when
// TEST_MONGODB_URI or TEST_POSTGRES_HOST point to a server. Each gets a fresh database.
func stores(t *testing.T) map[string]*storage.Store {
	t.Helper()
	ctx := context.Background()
	res := map[string]*storage.Store{"memory": storage.NewMemoryStore()}
	suffix := strings.ReplaceAll(uuid.New().String(), "-", "")[:12]

	if uri := os.Getenv("TEST_MONGODB_URI"); uri != "" {
		conf := testutil.NewConfig()
		conf.Database.Engine = core.EngineMongo
		conf.Database.URI = uri
		conf.Database.Name = "erp_test_" + suffix

		st, err := storage.Open(ctx, conf, new(testutil.Logger))
		require.NoError(t, err)
		t.Cleanup(func() {
			if client, db, err := database.OpenMongo(ctx, conf); err == nil {
				_ = db.Drop(ctx)
				_ = client.Disconnect(ctx)
			}
			_ = st.Close(ctx)
		})
		res["mongodb"] = st
	}

	if host := os.Getenv("TEST_POSTGRES_HOST"); host != "" {
		conf := testutil.NewConfig()
		conf.Database.Engine = core.EnginePostgres
		conf.Database.Host = host
		conf.Database.Name = "erp_test_" + suffix
		require.NoError(t, database.CreateIfNotExist(ctx, conf))

		st, err := storage.Open(ctx, conf, new(testutil.Logger))
		require.NoError(t, err)
		t.Cleanup(func() { _ = st.Close(ctx) })
		res["postgres"] = st
	}
	return res
}

func newBranch(t *testing.T, st *storage.Store, code string) branch.Branch {
	t.Helper()
	now := time.Now().UTC()
	b, err := st.Branches.Create(context.Background(), branch.Branch{
		Name: "Branch " + code, Code: code, Subjects: []string{"Algorithms"}, IsActive: true, CreatedAt: now, UpdatedAt: now,
	})
	require.NoError(t, err)
	return b
}

func newStudent(t *testing.T, st *storage.Store, name, rollNo, branchID string) student.Student {
	t.Helper()
	now := time.Now().UTC()
	s, err := st.Students.Create(context.Background(), student.Student{
		Name: name, Email: strings.ToLower(rollNo) + "@test.edu", RollNo: rollNo, BranchID: branchID,
		Semester: 1, IsActive: true, CreatedAt: now, UpdatedAt: now,
	})
	require.NoError(t, err)
	return s
}

func TestStore_Users(t *testing.T) {
	for name, st := range stores(t) {
		st := st
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			now := time.Now().UTC()
			usr, err := st.Users.Create(ctx, user.User{Name: "Admin", LoginID: "admin@test.edu", Role: user.RoleAdmin, IsActive: true, CreatedAt: now, UpdatedAt: now})
			require.NoError(t, err)
			assert.NotEmpty(t, usr.ID)

			_, err = st.Users.Create(ctx, user.User{Name: "Other", LoginID: "admin@test.edu", Role: user.RoleAdmin, CreatedAt: now, UpdatedAt: now})
			assert.Equal(t, user.ErrLoginIDExists, err)

			got, err := st.Users.GetByLoginID(ctx, "admin@test.edu")
			require.NoError(t, err)
			assert.Equal(t, usr.ID, got.ID)

			_, err = st.Users.Get(ctx, "not-an-id")
			assert.Equal(t, user.ErrNotFound, err)

			got.IsActive = false
			_, err = st.Users.Update(ctx, got)
			require.NoError(t, err)
			got, err = st.Users.Get(ctx, usr.ID)
			require.NoError(t, err)
			assert.False(t, got.IsActive)

			require.NoError(t, st.Users.Delete(ctx, usr.ID))
			_, err = st.Users.Get(ctx, usr.ID)
			assert.Equal(t, user.ErrNotFound, err)
		})
	}
}

func TestStore_Students(t *testing.T) {
	for name, st := range stores(t) {
		st := st
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			b := newBranch(t, st, "CSE")
			alice := newStudent(t, st, "Alice Doe", "R2", b.ID)
			bob := newStudent(t, st, "Bob Roe", "R1", b.ID)

			_, err := st.Branches.Create(ctx, branch.Branch{Name: "Dup", Code: "CSE"})
			assert.Equal(t, branch.ErrCodeExists, err)

			dup := alice
			dup.ID, dup.Email = "", "other@test.edu"
			_, err = st.Students.Create(ctx, dup)
			assert.Equal(t, student.ErrRollNoExists, err)

			got, err := st.Students.GetByRollNo(ctx, "R1")
			require.NoError(t, err)
			assert.Equal(t, bob.ID, got.ID)

			byRoll, err := st.Students.Query(ctx, student.QueryFilter{BranchID: b.ID}, []core.DBOrdering{{Field: "rollNo", Ascending: true}})
			require.NoError(t, err)
			require.Len(t, byRoll, 2)
			assert.Equal(t, []string{bob.ID, alice.ID}, []string{byRoll[0].ID, byRoll[1].ID})

			found, err := st.Students.Query(ctx, student.QueryFilter{Search: "aLiCe"}, nil)
			require.NoError(t, err)
			require.Len(t, found, 1)
			assert.Equal(t, alice.ID, found[0].ID)

			roster, err := st.Students.Query(ctx, student.QueryFilter{IDs: []string{bob.ID}}, nil)
			require.NoError(t, err)
			require.Len(t, roster, 1)

			bob.IsActive = false
			_, err = st.Students.Update(ctx, bob)
			require.NoError(t, err)
			counts, err := st.Students.CountByBranch(ctx)
			require.NoError(t, err)
			assert.Equal(t, 1, counts[b.ID])
		})
	}
}

func TestStore_AttendanceUpsert(t *testing.T) {
	for name, st := range stores(t) {
		st := st
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			created := time.Now().UTC().Truncate(time.Millisecond)
			rec := attendance.Record{
				StudentID: "s1", BranchID: "B1", Subject: "Algorithms", Date: day1.Add(15 * time.Hour),
				Status: attendance.StatusAbsent, CreatedAt: created, UpdatedAt: created,
			}
			first, err := st.Attendance.Upsert(ctx, rec)
			require.NoError(t, err)
			assert.Equal(t, day1, first.Date)

			rec.Status = attendance.StatusPresent
			rec.CreatedAt = created.Add(time.Hour)
			rec.UpdatedAt = created.Add(time.Hour)
			second, err := st.Attendance.Upsert(ctx, rec)
			require.NoError(t, err)
			assert.Equal(t, first.ID, second.ID)
			assert.Equal(t, attendance.StatusPresent, second.Status)
			assert.True(t, created.Equal(second.CreatedAt), "createdAt is kept")

			records, err := st.Attendance.ListByStudent(ctx, "s1")
			require.NoError(t, err)
			assert.Len(t, records, 1)
		})
	}
}

func TestStore_AttendanceConcurrentUpsert(t *testing.T) {
	for name, st := range stores(t) {
		st := st
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			var wg sync.WaitGroup
			for i := 0; i < 8; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					_, err := st.Attendance.Upsert(ctx, attendance.Record{
						StudentID: "s1", BranchID: "B1", Subject: "Networks", Date: day1, Status: attendance.StatusPresent,
					})
					assert.NoError(t, err)
				}()
			}
			wg.Wait()

			records, err := st.Attendance.ListByBranch(ctx, "B1", attendance.RecordFilter{Subject: "Networks"})
			require.NoError(t, err)
			assert.Len(t, records, 1)
		})
	}
}

func TestStore_AttendanceSessions(t *testing.T) {
	for name, st := range stores(t) {
		st := st
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			put := func(studentID, branchID, subject string, date time.Time, status string) {
				_, err := st.Attendance.Upsert(ctx, attendance.Record{
					StudentID: studentID, BranchID: branchID, Subject: subject, Date: date, Status: status,
				})
				require.NoError(t, err)
			}
			put("s1", "B1", "Algorithms", day1, attendance.StatusPresent)
			put("s2", "B1", "Algorithms", day1, attendance.StatusAbsent)
			put("s1", "B1", "Algorithms", day2, attendance.StatusPresent)
			put("s1", "B1", "Networks", day1, attendance.StatusLate)
			put("s9", "B2", "Algorithms", day1, attendance.StatusPresent)

			listed, err := st.Attendance.ListByBranch(ctx, "B1", attendance.RecordFilter{})
			require.NoError(t, err)
			require.Len(t, listed, 4)
			assert.Equal(t, day2, listed[0].Date, "newest first")

			sk := attendance.SessionKey{Subject: "Algorithms", BranchID: "B1", Date: day1}
			upd, err := st.Attendance.UpdateStatus(ctx, sk, "s2", attendance.StatusLate, time.Now().UTC())
			require.NoError(t, err)
			assert.Equal(t, attendance.StatusLate, upd.Status)

			_, err = st.Attendance.UpdateStatus(ctx, sk, "s9", attendance.StatusLate, time.Now().UTC())
			assert.Equal(t, attendance.ErrNotFound, err)

			tallies, err := st.Attendance.TallyByBranch(ctx)
			require.NoError(t, err)
			assert.Equal(t, attendance.Tally{Total: 4, Present: 2}, tallies["B1"])
			assert.Equal(t, attendance.Tally{Total: 1, Present: 1}, tallies["B2"])

			n, err := st.Attendance.DeleteSession(ctx, sk)
			require.NoError(t, err)
			assert.Equal(t, 2, n)

			left, err := st.Attendance.ListByBranch(ctx, "B1", attendance.RecordFilter{})
			require.NoError(t, err)
			assert.Len(t, left, 2)
			other, err := st.Attendance.ListByBranch(ctx, "B2", attendance.RecordFilter{Date: day1})
			require.NoError(t, err)
			assert.Len(t, other, 1)
		})
	}
}

func TestStore_MarkUpsert(t *testing.T) {
	for name, st := range stores(t) {
		st := st
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			rec := mark.Record{
				StudentID: "s1", BranchID: "B1", Subject: "Algorithms", ExamType: mark.ExamQuiz,
				Marks: 12, MaxMarks: 20, Date: day1,
			}
			first, err := st.Marks.Upsert(ctx, rec)
			require.NoError(t, err)

			rec.Marks = 18
			second, err := st.Marks.Upsert(ctx, rec)
			require.NoError(t, err)
			assert.Equal(t, first.ID, second.ID)
			assert.Equal(t, 18.0, second.Marks)

			rec.ExamType = mark.ExamFinal
			third, err := st.Marks.Upsert(ctx, rec)
			require.NoError(t, err)
			assert.NotEqual(t, first.ID, third.ID)

			quizzes, err := st.Marks.ListByBranch(ctx, "B1", mark.Filter{ExamType: mark.ExamQuiz})
			require.NoError(t, err)
			assert.Len(t, quizzes, 1)
			all, err := st.Marks.ListByStudent(ctx, "s1")
			require.NoError(t, err)
			assert.Len(t, all, 2)
		})
	}
}

func TestStore_FeePayments(t *testing.T) {
	for name, st := range stores(t) {
		st := st
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			now := time.Now().UTC()
			f, err := st.Fees.Create(ctx, fee.Fee{StudentID: "s1", BranchID: "B1", TotalAmount: 1000, CreatedAt: now, UpdatedAt: now})
			require.NoError(t, err)
			assert.Equal(t, 1000.0, f.DueAmount)
			assert.Empty(t, f.Payments)

			_, err = st.Fees.Create(ctx, fee.Fee{StudentID: "s1", BranchID: "B1", TotalAmount: 5, CreatedAt: now, UpdatedAt: now})
			assert.Equal(t, fee.ErrAccountExists, err)

			var wg sync.WaitGroup
			for i := 0; i < 10; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					_, err := st.Fees.AddPayment(ctx, f.ID, fee.Payment{Amount: 25, Date: time.Now().UTC(), Method: fee.MethodCash})
					assert.NoError(t, err)
				}()
			}
			wg.Wait()

			got, err := st.Fees.GetByStudent(ctx, "s1")
			require.NoError(t, err)
			assert.Len(t, got.Payments, 10)
			assert.Equal(t, 250.0, got.PaidAmount)
			assert.Equal(t, 750.0, got.DueAmount)

			_, err = st.Fees.AddPayment(ctx, uuid.New().String(), fee.Payment{Amount: 1, Date: now})
			assert.Equal(t, fee.ErrNotFound, err)

			listed, err := st.Fees.Query(ctx, fee.Filter{BranchID: "B1", StudentIDs: []string{"s1", "s2"}})
			require.NoError(t, err)
			require.Len(t, listed, 1)
			assert.Len(t, listed[0].Payments, 10)
		})
	}
}
