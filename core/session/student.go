package session

import (
	"sort"

	"github.com/ionode-cloud/ERP-Cell/core"
	"github.com/ionode-cloud/ERP-Cell/core/attendance"
)

type SubjectSummary struct {
	Subject    string `json:"subject"`
	Total      int    `json:"total"`
	Present    int    `json:"present"`
	Percentage int    `json:"percentage"`
}

// StudentSummary is a student's own attendance with overall and per-subject presence.
type StudentSummary struct {
	Records    []attendance.Record `json:"records"`
	Total      int                 `json:"total"`
	Present    int                 `json:"present"`
	Percentage int                 `json:"percentage"`
	BySubject  []SubjectSummary    `json:"bySubject"`
}

// SummarizeStudent counts the records of one student. Only Present counts as present.
// Subjects are listed alphabetically.
func SummarizeStudent(records []attendance.Record) StudentSummary {
	if records == nil {
		records = []attendance.Record{}
	}
	sum := StudentSummary{Records: records, Total: len(records), BySubject: []SubjectSummary{}}

	subjects := make(map[string]*SubjectSummary)
	for _, r := range records {
		ss, ok := subjects[r.Subject]
		if !ok {
			ss = &SubjectSummary{Subject: r.Subject}
			subjects[r.Subject] = ss
		}
		ss.Total++
		if r.Status == attendance.StatusPresent {
			ss.Present++
			sum.Present++
		}
	}
	sum.Percentage = core.Percentage(sum.Present, sum.Total)

	for _, ss := range subjects {
		ss.Percentage = core.Percentage(ss.Present, ss.Total)
		sum.BySubject = append(sum.BySubject, *ss)
	}
	sort.Slice(sum.BySubject, func(i, j int) bool { return sum.BySubject[i].Subject < sum.BySubject[j].Subject })
	return sum
}
