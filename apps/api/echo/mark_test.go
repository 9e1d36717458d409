package echoapi_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ionode-cloud/ERP-Cell/core/batch"
	"github.com/ionode-cloud/ERP-Cell/core/mark"
	"github.com/ionode-cloud/ERP-Cell/core/session"
	"github.com/ionode-cloud/ERP-Cell/tests"
)

func TestMarks(t *testing.T) {
	a := setup(t)
	cse := testutil.CreateBranch(t, a.Branches, "Computer Science", "CSE", 0, "Algorithms")
	s1, _ := testutil.CreateStudent(t, a.Students, "Asha Rao", "CSE001", cse.ID)
	s2, _ := testutil.CreateStudent(t, a.Students, "Bilal Khan", "CSE002", cse.ID)
	tch, _ := testutil.CreateTeacher(t, a.Teachers, "Dr Mehta", "EMP01", cse.ID, "Algorithms")
	token := a.tokenOf(t, tch.UserID)

	code, env := a.do(t, http.MethodPost, "/api/marks/bulk", token, map[string]interface{}{
		"subject":  "Algorithms",
		"examType": mark.ExamMidTerm,
		"maxMarks": 50,
		"date":     "2024-03-10",
		"records": []map[string]interface{}{
			{"studentId": s1.ID, "marks": 42},
			{"studentId": s2.ID, "marks": 12, "remarks": "needs work"},
			{"studentId": "ghost", "marks": 30},
		},
	})
	require.Equal(t, http.StatusOK, code, env.Message)
	assert.Equal(t, batch.Summary{Total: 3, OK: 2, Skipped: 1}, env.Summary)
	assert.Equal(t, "Marks recorded for 2 students", env.Message)

	// a single record on the same identity overwrites the bulk score
	code, env = a.do(t, http.MethodPost, "/api/marks", token, map[string]interface{}{
		"studentId": s2.ID, "subject": "Algorithms", "examType": mark.ExamMidTerm,
		"marks": 25, "maxMarks": 50, "date": "2024-03-10",
	})
	require.Equal(t, http.StatusCreated, code, env.Message)
	var rec mark.Record
	decode(t, env, &rec)
	assert.Equal(t, float64(25), rec.Marks)
	assert.Equal(t, tch.ID, rec.MarkedBy)
	assert.Equal(t, cse.ID, rec.BranchID)

	code, env = a.do(t, http.MethodGet, "/api/marks/branch/"+cse.ID+"?examType=Mid-Term", token, nil)
	require.Equal(t, http.StatusOK, code)
	var flat []mark.Record
	decode(t, env, &flat)
	assert.Len(t, flat, 2)

	code, env = a.do(t, http.MethodGet, "/api/marks/branch/"+cse.ID+"/sessions", token, nil)
	require.Equal(t, http.StatusOK, code)
	var sessions []session.MarkSession
	decode(t, env, &sessions)
	require.Len(t, sessions, 1)
	sess := sessions[0]
	assert.Equal(t, 2, sess.Count)
	assert.Equal(t, float64(67), sess.TotalMarks)
	assert.Equal(t, 34, sess.Average)
	assert.Equal(t, 2, sess.Passed)
	assert.Equal(t, "Asha Rao", sess.Rows[0].Name)

	code, env = a.do(t, http.MethodGet, "/api/marks/me", a.tokenOf(t, s1.UserID), nil)
	require.Equal(t, http.StatusOK, code)
	var mine []mark.Record
	decode(t, env, &mine)
	require.Len(t, mine, 1)
	assert.Equal(t, float64(42), mine[0].Marks)
}

func TestMarkErrors(t *testing.T) {
	a := setup(t)
	cse := testutil.CreateBranch(t, a.Branches, "Computer Science", "CSE", 0)
	s1, _ := testutil.CreateStudent(t, a.Students, "Asha Rao", "CSE001", cse.ID)
	token := getToken(t, a.Conf, a.admin)

	a.run(t, []httpTest{
		{
			name:     "marks above max",
			method:   http.MethodPost,
			path:     "/api/marks",
			token:    token,
			body:     map[string]interface{}{"studentId": s1.ID, "subject": "Algorithms", "marks": 120},
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "unknown exam type",
			method:   http.MethodPost,
			path:     "/api/marks",
			token:    token,
			body:     map[string]interface{}{"studentId": s1.ID, "subject": "Algorithms", "marks": 10, "examType": "Viva"},
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "unknown student",
			method:   http.MethodPost,
			path:     "/api/marks",
			token:    token,
			body:     map[string]interface{}{"studentId": "ghost", "subject": "Algorithms", "marks": 10},
			wantCode: http.StatusNotFound,
		},
		{
			name:     "empty bulk",
			method:   http.MethodPost,
			path:     "/api/marks/bulk",
			token:    token,
			body:     map[string]interface{}{"subject": "Algorithms", "records": []interface{}{}},
			wantCode: http.StatusBadRequest,
		},
	})
}
