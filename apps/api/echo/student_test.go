package echoapi_test

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ionode-cloud/ERP-Cell/core/student"
	"github.com/ionode-cloud/ERP-Cell/core/teacher"
	"github.com/ionode-cloud/ERP-Cell/tests"
)

func TestBranchAPI(t *testing.T) {
	a := setup(t)
	token := getToken(t, a.Conf, a.admin)

	code, env := a.do(t, http.MethodPost, "/api/branches", token, map[string]interface{}{
		"name": "Mechanical", "code": "me", "feeStructure": map[string]float64{"tuitionFee": 40000, "examFee": 5000},
		"subjects": []string{"Thermodynamics", " thermodynamics ", "Fluids"},
	})
	require.Equal(t, http.StatusCreated, code, env.Message)
	var created struct {
		ID           string   `json:"id"`
		Code         string   `json:"code"`
		Subjects     []string `json:"subjects"`
		FeeStructure struct {
			TotalFee float64 `json:"totalFee"`
		} `json:"feeStructure"`
	}
	decode(t, env, &created)
	assert.Equal(t, "ME", created.Code)
	assert.Equal(t, []string{"Thermodynamics", "Fluids"}, created.Subjects)
	assert.Equal(t, float64(45000), created.FeeStructure.TotalFee)

	code, env = a.do(t, http.MethodPost, "/api/branches", token, map[string]interface{}{"name": "Other", "code": "ME"})
	require.Equal(t, http.StatusBadRequest, code)
	assert.Contains(t, env.Errors, "code")

	testutil.CreateStudent(t, a.Students, "Asha Rao", "ME001", created.ID)
	testutil.CreateTeacher(t, a.Teachers, "Dr Mehta", "EMP01", created.ID)

	code, env = a.do(t, http.MethodGet, "/api/branches", token, nil)
	require.Equal(t, http.StatusOK, code)
	var list []struct {
		ID           string `json:"id"`
		StudentCount int    `json:"studentCount"`
		TeacherCount int    `json:"teacherCount"`
	}
	decode(t, env, &list)
	require.Len(t, list, 1)
	assert.Equal(t, 1, list[0].StudentCount)
	assert.Equal(t, 1, list[0].TeacherCount)

	code, env = a.do(t, http.MethodGet, "/api/branches/"+created.ID, token, nil)
	require.Equal(t, http.StatusOK, code)
	var detail struct {
		Students []struct {
			RollNo string `json:"rollNo"`
		} `json:"students"`
		Teachers []struct {
			EmployeeID string `json:"employeeId"`
		} `json:"teachers"`
	}
	decode(t, env, &detail)
	require.Len(t, detail.Students, 1)
	assert.Equal(t, "ME001", detail.Students[0].RollNo)
	require.Len(t, detail.Teachers, 1)

	code, env = a.do(t, http.MethodDelete, "/api/branches/"+created.ID, token, nil)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "cannot delete branch with 1 active students", env.Message)

	a.run(t, []httpTest{
		{name: "update", method: http.MethodPut, path: "/api/branches/" + created.ID, token: token,
			body: map[string]interface{}{"totalSeats": 90}, wantCode: http.StatusOK},
		{name: "update unknown", method: http.MethodPut, path: "/api/branches/nope", token: token,
			body: map[string]interface{}{"totalSeats": 90}, wantCode: http.StatusNotFound, wantMsg: "branch not found"},
		{name: "no token", method: http.MethodGet, path: "/api/branches", wantCode: http.StatusUnauthorized},
	})
}

func TestStudentAPI(t *testing.T) {
	a := setup(t)
	cse := testutil.CreateBranch(t, a.Branches, "Computer Science", "CSE", 60000)
	token := getToken(t, a.Conf, a.admin)

	code, env := a.do(t, http.MethodPost, "/api/students", token, map[string]interface{}{
		"name": "Asha Rao", "email": "Asha@College.edu", "rollNo": "CSE001", "branchId": cse.ID,
	})
	require.Equal(t, http.StatusCreated, code, env.Message)
	assert.Equal(t, student.Credentials{LoginID: "asha@college.edu", Password: "asha@CSE001"}, env.Credentials)
	var s student.Student
	decode(t, env, &s)

	// the generated credentials log in
	code, env = a.do(t, http.MethodPost, "/api/auth/login", "",
		map[string]string{"loginId": "asha@college.edu", "password": "asha@CSE001"})
	require.Equal(t, http.StatusOK, code)
	studentToken := env.Token

	code, env = a.do(t, http.MethodGet, "/api/students/me", studentToken, nil)
	require.Equal(t, http.StatusOK, code)
	var me student.Student
	decode(t, env, &me)
	assert.Equal(t, s.ID, me.ID)

	code, env = a.do(t, http.MethodGet, "/api/fees/me", studentToken, nil)
	require.Equal(t, http.StatusOK, code)
	var fee struct {
		TotalAmount float64 `json:"totalAmount"`
		DueAmount   float64 `json:"dueAmount"`
	}
	decode(t, env, &fee)
	assert.Equal(t, float64(60000), fee.TotalAmount)
	assert.Equal(t, float64(60000), fee.DueAmount)

	code, env = a.do(t, http.MethodPost, "/api/students", token, map[string]interface{}{
		"name": "Other", "email": "other@college.edu", "rollNo": "CSE001", "branchId": cse.ID,
	})
	require.Equal(t, http.StatusBadRequest, code)
	assert.Contains(t, env.Errors, "rollNo")

	for i := 2; i <= 5; i++ {
		testutil.CreateStudent(t, a.Students, fmt.Sprintf("Student %d", i), fmt.Sprintf("CSE00%d", i), cse.ID)
	}
	code, env = a.do(t, http.MethodGet, "/api/students?branch="+cse.ID+"&limit=2&page=2&ordering=rollNo", token, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, 5, env.Total)
	assert.Equal(t, 2, env.Page)
	assert.Equal(t, 3, env.Pages)
	var page []student.Student
	decode(t, env, &page)
	require.Len(t, page, 2)
	assert.Equal(t, "CSE003", page[0].RollNo)

	code, env = a.do(t, http.MethodGet, "/api/students/stats", token, nil)
	require.Equal(t, http.StatusOK, code)
	var stats student.Stats
	decode(t, env, &stats)
	assert.Equal(t, 5, stats.TotalStudents)

	code, env = a.do(t, http.MethodPost, "/api/students/"+s.ID+"/credentials", token, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "asha@CSE001", env.Credentials.Password)

	code, _ = a.do(t, http.MethodPut, "/api/students/"+s.ID, token, map[string]interface{}{"semester": 3})
	require.Equal(t, http.StatusOK, code)

	code, _ = a.do(t, http.MethodDelete, "/api/students/"+s.ID, token, nil)
	require.Equal(t, http.StatusOK, code)

	// the deactivated account can no longer use its token
	code, env = a.do(t, http.MethodGet, "/api/students/me", studentToken, nil)
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Equal(t, "User not found or deactivated.", env.Message)
}

func TestTeacherAPI(t *testing.T) {
	a := setup(t)
	cse := testutil.CreateBranch(t, a.Branches, "Computer Science", "CSE", 0, "Algorithms")
	token := getToken(t, a.Conf, a.admin)

	code, env := a.do(t, http.MethodPost, "/api/teachers", token, map[string]interface{}{
		"name": "Ravi Iyer", "email": "ravi@college.edu", "employeeId": "EMP07", "branchId": cse.ID,
		"subjects": []string{"Algorithms"}, "experience": "5 years",
	})
	require.Equal(t, http.StatusCreated, code, env.Message)
	assert.Equal(t, "ravi@EMP07", env.Credentials.Password)
	var tch teacher.Teacher
	decode(t, env, &tch)
	assert.Equal(t, "5 years", tch.Experience)

	teacherToken := a.tokenOf(t, tch.UserID)
	code, env = a.do(t, http.MethodGet, "/api/teachers/me", teacherToken, nil)
	require.Equal(t, http.StatusOK, code)

	a.run(t, []httpTest{
		{name: "teacher cannot list teachers", method: http.MethodGet, path: "/api/teachers", token: teacherToken,
			wantCode: http.StatusForbidden, wantMsg: "Access denied. Requires role: admin"},
		{name: "teacher can list students", method: http.MethodGet, path: "/api/students", token: teacherToken,
			wantCode: http.StatusOK},
		{name: "admin lists teachers", method: http.MethodGet, path: "/api/teachers?search=ravi", token: token,
			wantCode: http.StatusOK},
		{name: "duplicate employee id", method: http.MethodPost, path: "/api/teachers", token: token,
			body: map[string]interface{}{
				"name": "Other", "email": "other@college.edu", "employeeId": "EMP07", "branchId": cse.ID,
			},
			wantCode: http.StatusBadRequest},
		{name: "unknown branch", method: http.MethodPost, path: "/api/teachers", token: token,
			body: map[string]interface{}{
				"name": "Other", "email": "other@college.edu", "employeeId": "EMP08", "branchId": "nope",
			},
			wantCode: http.StatusBadRequest, wantMsg: "branch not found"},
		{name: "delete", method: http.MethodDelete, path: "/api/teachers/" + tch.ID, token: token,
			wantCode: http.StatusOK, wantMsg: "Teacher deleted successfully"},
	})
}
