package echoapi_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ionode-cloud/ERP-Cell/core/attendance"
	"github.com/ionode-cloud/ERP-Cell/core/batch"
	"github.com/ionode-cloud/ERP-Cell/core/session"
	"github.com/ionode-cloud/ERP-Cell/tests"
)

func TestAttendanceSessionFlow(t *testing.T) {
	a := setup(t)
	cse := testutil.CreateBranch(t, a.Branches, "Computer Science", "CSE", 50000, "Algorithms")
	s1, _ := testutil.CreateStudent(t, a.Students, "Asha Rao", "CSE001", cse.ID)
	s2, _ := testutil.CreateStudent(t, a.Students, "Bilal Khan", "CSE002", cse.ID)
	tch, _ := testutil.CreateTeacher(t, a.Teachers, "Dr Mehta", "EMP01", cse.ID, "Algorithms")
	token := a.tokenOf(t, tch.UserID)

	// first submission
	code, env := a.do(t, http.MethodPost, "/api/attendance/mark", token, map[string]interface{}{
		"subject":  "Algorithms",
		"date":     "2024-03-01",
		"branchId": cse.ID,
		"records": []map[string]interface{}{
			{"studentId": s1.ID, "status": attendance.StatusPresent},
			{"studentId": s2.ID, "status": attendance.StatusAbsent},
		},
	})
	require.Equal(t, http.StatusOK, code, env.Message)
	assert.Equal(t, batch.Summary{Total: 2, OK: 2}, env.Summary)
	var marked []attendance.Record
	decode(t, env, &marked)
	require.Len(t, marked, 2)
	assert.Equal(t, tch.ID, marked[0].MarkedBy)

	// resubmission touches S1 only
	code, _ = a.do(t, http.MethodPost, "/api/attendance/mark", token, map[string]interface{}{
		"subject":  "Algorithms",
		"date":     "2024-03-01",
		"branchId": cse.ID,
		"records":  []map[string]interface{}{{"studentId": s1.ID, "status": attendance.StatusLate}},
	})
	require.Equal(t, http.StatusOK, code)

	code, env = a.do(t, http.MethodGet, "/api/attendance/branch/"+cse.ID, token, nil)
	require.Equal(t, http.StatusOK, code)
	var flat []attendance.Record
	decode(t, env, &flat)
	assert.Len(t, flat, 2)

	code, env = a.do(t, http.MethodGet, "/api/attendance/branch/"+cse.ID+"/sessions?subject=Algorithms", token, nil)
	require.Equal(t, http.StatusOK, code)
	var sessions []session.AttendanceSession
	decode(t, env, &sessions)
	require.Len(t, sessions, 1)
	sess := sessions[0]
	assert.Equal(t, "Algorithms", sess.Subject)
	assert.Equal(t, "2024-03-01", sess.Date)
	assert.Equal(t, 2, sess.Total)
	assert.Equal(t, 0, sess.Present)
	assert.Equal(t, 1, sess.Absent)
	assert.Equal(t, 1, sess.Late)
	require.Len(t, sess.Rows, 2)
	assert.Equal(t, "Asha Rao", sess.Rows[0].Name)
	assert.Equal(t, attendance.StatusLate, sess.Rows[0].Status)
	assert.Equal(t, "CSE002", sess.Rows[1].RollNo)

	// edit: S2 becomes Present, an unknown student is skipped
	code, env = a.do(t, http.MethodPut, "/api/attendance/session", token, map[string]interface{}{
		"subject":  "Algorithms",
		"date":     "2024-03-01",
		"branchId": cse.ID,
		"records": []map[string]interface{}{
			{"studentId": s2.ID, "status": attendance.StatusPresent},
			{"studentId": "ghost", "status": attendance.StatusPresent},
		},
	})
	require.Equal(t, http.StatusOK, code, env.Message)
	assert.Equal(t, batch.Summary{Total: 2, OK: 1, Skipped: 1}, env.Summary)

	// student view
	code, env = a.do(t, http.MethodGet, "/api/attendance/me", a.tokenOf(t, s2.UserID), nil)
	require.Equal(t, http.StatusOK, code)
	var mine session.StudentSummary
	decode(t, env, &mine)
	assert.Equal(t, 1, mine.Total)
	assert.Equal(t, 1, mine.Present)
	assert.Equal(t, 100, mine.Percentage)

	// delete removes the whole session
	code, env = a.do(t, http.MethodDelete, "/api/attendance/session", token, map[string]string{
		"subject": "Algorithms", "date": "2024-03-01", "branchId": cse.ID,
	})
	require.Equal(t, http.StatusOK, code)
	var deleted struct {
		DeletedCount int `json:"deletedCount"`
	}
	decode(t, env, &deleted)
	assert.Equal(t, 2, deleted.DeletedCount)

	code, env = a.do(t, http.MethodGet, "/api/attendance/branch/"+cse.ID+"/sessions", token, nil)
	require.Equal(t, http.StatusOK, code)
	decode(t, env, &sessions)
	assert.Empty(t, sessions)
}

func TestAttendanceValidation(t *testing.T) {
	a := setup(t)
	token := getToken(t, a.Conf, a.admin)

	a.run(t, []httpTest{
		{
			name:     "missing subject",
			method:   http.MethodPost,
			path:     "/api/attendance/mark",
			token:    token,
			body:     map[string]interface{}{"date": "2024-03-01", "records": []map[string]string{{"studentId": "x"}}},
			wantCode: http.StatusBadRequest,
		},
		{
			name:   "bad status",
			method: http.MethodPost,
			path:   "/api/attendance/mark",
			token:  token,
			body: map[string]interface{}{
				"subject": "Algorithms", "date": "2024-03-01",
				"records": []map[string]string{{"studentId": "x", "status": "Sleeping"}},
			},
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "delete without branch",
			method:   http.MethodDelete,
			path:     "/api/attendance/session",
			token:    token,
			body:     map[string]string{"subject": "Algorithms", "date": "2024-03-01"},
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "delete with bad date",
			method:   http.MethodDelete,
			path:     "/api/attendance/session?subject=Algorithms&date=01-03-2024&branchId=b1",
			token:    token,
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "undefined branch",
			method:   http.MethodGet,
			path:     "/api/attendance/branch/undefined",
			token:    token,
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "unknown student",
			method:   http.MethodGet,
			path:     "/api/attendance/student/nope",
			token:    token,
			wantCode: http.StatusNotFound,
			wantMsg:  "student not found",
		},
	})
}

func TestAttendanceMarkRowWithoutBranch(t *testing.T) {
	a := setup(t)
	token := getToken(t, a.Conf, a.admin)

	code, env := a.do(t, http.MethodPost, "/api/attendance/mark", token, map[string]interface{}{
		"subject": "Algorithms",
		"date":    "2024-03-01",
		"records": []map[string]interface{}{
			{"studentId": "s1", "status": attendance.StatusPresent, "branch": "b1"},
			{"studentId": "s2", "status": attendance.StatusPresent},
		},
	})
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, batch.Summary{Total: 2, OK: 1, Failed: 1}, env.Summary)

	var marked []attendance.Record
	decode(t, env, &marked)
	require.Len(t, marked, 1)
	assert.Empty(t, marked[0].MarkedBy)
}

func TestAttendanceStats(t *testing.T) {
	a := setup(t)
	cse := testutil.CreateBranch(t, a.Branches, "Computer Science", "CSE", 0)
	token := getToken(t, a.Conf, a.admin)

	code, _ := a.do(t, http.MethodPost, "/api/attendance/mark", token, map[string]interface{}{
		"subject":  "Algorithms",
		"date":     "2024-03-01",
		"branchId": cse.ID,
		"records": []map[string]interface{}{
			{"studentId": "s1", "status": attendance.StatusPresent},
			{"studentId": "s2", "status": attendance.StatusLate},
		},
	})
	require.Equal(t, http.StatusOK, code)

	code, env := a.do(t, http.MethodGet, "/api/attendance/stats", token, nil)
	require.Equal(t, http.StatusOK, code)
	var stats attendance.Stats
	decode(t, env, &stats)
	assert.Equal(t, 2, stats.Total)
	assert.Equal(t, 50, stats.Percentage)
	require.Len(t, stats.ByBranch, 1)
	assert.Equal(t, "Computer Science", stats.ByBranch[0].Name)
}
