package report

import (
	"html/template"
	"time"

	"github.com/jo-hoe/termreport/internal/grading"
)

// Identity holds the school and student fields printed on the report.
type Identity struct {
	SchoolName   string
	AcademicYear string
	AcademicTerm string
	StudentName  string
	StudentClass string
	IssueDate    time.Time
}

// Images are the report pictures as URLs (usually data URLs). An empty URL
// renders the slot's placeholder icon.
type Images struct {
	Logo  template.URL
	Photo template.URL
}

// Report is the snapshot taken at submission time. It is never persisted.
type Report struct {
	Identity
	Images
	Totals *grading.Totals
}

// New assembles a report from its parts.
func New(identity Identity, totals *grading.Totals, images Images) *Report {
	return &Report{
		Identity: identity,
		Images:   images,
		Totals:   totals,
	}
}
