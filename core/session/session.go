// Package session rebuilds class sessions from flat attendance and mark records.
// A session is every record sharing a calendar day, a subject and a branch (and an exam type for marks).
// All functions are pure: aggregates are recomputed on every call and never stored.
package session

import (
	"math"
	"sort"

	"github.com/ionode-cloud/ERP-Cell/core"
	"github.com/ionode-cloud/ERP-Cell/core/attendance"
	"github.com/ionode-cloud/ERP-Cell/core/mark"
)

// PassRatio is the share of maxMarks a score needs to pass.
const PassRatio = 0.4

// Member is the roster entry shown next to a student's record.
type Member struct {
	Name   string `json:"name"`
	RollNo string `json:"rollNo"`
}

// Roster maps student IDs to members. Students missing from it are listed with empty names.
type Roster map[string]Member

type AttendanceRow struct {
	StudentID string   `json:"studentId"`
	Name      string   `json:"name"`
	RollNo    string   `json:"rollNo"`
	Status    string   `json:"status"`
	Marks     *float64 `json:"marks"`
}

type AttendanceSession struct {
	Date       string          `json:"date"`
	Subject    string          `json:"subject"`
	BranchID   string          `json:"branchId"`
	Total      int             `json:"total"`
	Present    int             `json:"present"`
	Absent     int             `json:"absent"`
	Late       int             `json:"late"`
	Percentage int             `json:"percentage"`
	Rows       []AttendanceRow `json:"rows"`
}

type MarkRow struct {
	StudentID string  `json:"studentId"`
	Name      string  `json:"name"`
	RollNo    string  `json:"rollNo"`
	Marks     float64 `json:"marks"`
	Remarks   string  `json:"remarks"`
	Passed    bool    `json:"passed"`
}

type MarkSession struct {
	Date       string    `json:"date"`
	Subject    string    `json:"subject"`
	ExamType   string    `json:"examType"`
	BranchID   string    `json:"branchId"`
	MaxMarks   float64   `json:"maxMarks"`
	Count      int       `json:"count"`
	TotalMarks float64   `json:"totalMarks"`
	Average    int       `json:"average"`
	Passed     int       `json:"passed"`
	Rows       []MarkRow `json:"rows"`
}

type sessionKey struct {
	day, subject, branchID, examType string
}

func (k sessionKey) less(o sessionKey) bool {
	switch {
	case k.day != o.day:
		return k.day > o.day
	case k.subject != o.subject:
		return k.subject < o.subject
	case k.branchID != o.branchID:
		return k.branchID < o.branchID
	}
	return k.examType < o.examType
}

// GroupAttendance groups records into sessions, newest day first.
func GroupAttendance(records []attendance.Record, roster Roster) []AttendanceSession {
	groups := make(map[sessionKey]*AttendanceSession)
	keys := make([]sessionKey, 0)
	for _, r := range records {
		k := sessionKey{day: core.DayKey(r.Date), subject: r.Subject, branchID: r.BranchID}
		sess, ok := groups[k]
		if !ok {
			sess = &AttendanceSession{Date: k.day, Subject: k.subject, BranchID: k.branchID, Rows: []AttendanceRow{}}
			groups[k] = sess
			keys = append(keys, k)
		}
		m := roster[r.StudentID]
		sess.Rows = append(sess.Rows, AttendanceRow{
			StudentID: r.StudentID,
			Name:      m.Name,
			RollNo:    m.RollNo,
			Status:    r.Status,
			Marks:     r.Marks,
		})
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].less(keys[j]) })

	sessions := make([]AttendanceSession, 0, len(keys))
	for _, k := range keys {
		sess := groups[k]
		sort.SliceStable(sess.Rows, func(i, j int) bool {
			return rowLess(sess.Rows[i].RollNo, sess.Rows[i].StudentID, sess.Rows[j].RollNo, sess.Rows[j].StudentID)
		})
		for _, row := range sess.Rows {
			switch row.Status {
			case attendance.StatusPresent:
				sess.Present++
			case attendance.StatusAbsent:
				sess.Absent++
			case attendance.StatusLate:
				sess.Late++
			}
		}
		sess.Total = len(sess.Rows)
		sess.Percentage = core.Percentage(sess.Present, sess.Total)
		sessions = append(sessions, *sess)
	}
	return sessions
}

// GroupMarks groups records into exam sessions, newest day first.
// The session's MaxMarks is the highest maxMarks among its records.
func GroupMarks(records []mark.Record, roster Roster) []MarkSession {
	groups := make(map[sessionKey]*MarkSession)
	keys := make([]sessionKey, 0)
	for _, r := range records {
		k := sessionKey{day: core.DayKey(r.Date), subject: r.Subject, branchID: r.BranchID, examType: r.ExamType}
		sess, ok := groups[k]
		if !ok {
			sess = &MarkSession{Date: k.day, Subject: k.subject, ExamType: k.examType, BranchID: k.branchID, Rows: []MarkRow{}}
			groups[k] = sess
			keys = append(keys, k)
		}
		if r.MaxMarks > sess.MaxMarks {
			sess.MaxMarks = r.MaxMarks
		}
		m := roster[r.StudentID]
		sess.Rows = append(sess.Rows, MarkRow{
			StudentID: r.StudentID,
			Name:      m.Name,
			RollNo:    m.RollNo,
			Marks:     r.Marks,
			Remarks:   r.Remarks,
			Passed:    Passed(r.Marks, r.MaxMarks),
		})
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].less(keys[j]) })

	sessions := make([]MarkSession, 0, len(keys))
	for _, k := range keys {
		sess := groups[k]
		sort.SliceStable(sess.Rows, func(i, j int) bool {
			return rowLess(sess.Rows[i].RollNo, sess.Rows[i].StudentID, sess.Rows[j].RollNo, sess.Rows[j].StudentID)
		})
		for _, row := range sess.Rows {
			sess.TotalMarks += row.Marks
			if row.Passed {
				sess.Passed++
			}
		}
		sess.Count = len(sess.Rows)
		sess.Average = Average(sess.TotalMarks, sess.Count)
		sessions = append(sessions, *sess)
	}
	return sessions
}

// Passed reports whether marks reach PassRatio of maxMarks.
func Passed(marks, maxMarks float64) bool {
	return marks >= maxMarks*PassRatio
}

// Average returns round(total / count), or 0 when count is 0.
func Average(total float64, count int) int {
	if count <= 0 {
		return 0
	}
	return int(math.Round(total / float64(count)))
}

func rowLess(rollA, idA, rollB, idB string) bool {
	if rollA != rollB {
		return rollA < rollB
	}
	return idA < idB
}
