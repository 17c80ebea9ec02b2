package core

import (
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/jo-hoe/termreport/internal/attachments"
	"github.com/jo-hoe/termreport/internal/grading"
	"github.com/jo-hoe/termreport/internal/report"
	"github.com/jo-hoe/termreport/internal/rows"
)

// IssueDateLayout is the layout of the issue date form field
const IssueDateLayout = "2006-01-02"

var ErrNoReport = errors.New("no report has been generated")

// FormSnapshot is the form state captured from one request.
type FormSnapshot struct {
	SchoolName   string
	AcademicYear string
	AcademicTerm string
	StudentName  string
	StudentClass string
	// IssueDate uses IssueDateLayout; blank means today
	IssueDate string
	// Rows carries the values typed into existing rows, keyed by row id
	Rows map[int]rows.Row
}

// FormView is what the form page shows for a session.
type FormView struct {
	FormSnapshot
	SubjectRows []rows.Row
	Logo        *attachments.Attachment
	Photo       *attachments.Attachment
	Report      template.HTML
}

// FormController orchestrates one user's form. Every exported method holds
// the controller lock so each user action completes before the next starts.
type FormController struct {
	mu          sync.Mutex
	registry    *rows.Registry
	attachments *attachments.Manager
	renderer    *report.Renderer
	location    *time.Location
	now         func() time.Time

	identity FormSnapshot
	current  *report.Report
	rendered template.HTML
	lastUsed time.Time
}

func NewFormController(registry *rows.Registry, manager *attachments.Manager, renderer *report.Renderer, location *time.Location) *FormController {
	if location == nil {
		location = time.UTC
	}
	f := &FormController{
		registry:    registry,
		attachments: manager,
		renderer:    renderer,
		location:    location,
		now:         time.Now,
	}
	f.lastUsed = f.now()
	return f
}

// AddRow captures the posted values and appends a default row.
func (f *FormController) AddRow(snapshot FormSnapshot) rows.Row {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.touch()

	f.capture(snapshot)
	return f.registry.Add()
}

// RemoveRow captures the posted values and removes the row. Unknown ids
// report false and change nothing.
func (f *FormController) RemoveRow(id int, snapshot FormSnapshot) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.touch()

	f.capture(snapshot)
	return f.registry.Remove(id)
}

// Attach associates an uploaded image with the slot.
func (f *FormController) Attach(slot attachments.Slot, fileName string, data []byte) (*attachments.Attachment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.touch()

	return f.attachments.Attach(slot, fileName, data)
}

// RemoveAttachment clears the slot and releases its preview.
func (f *FormController) RemoveAttachment(slot attachments.Slot) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.touch()

	return f.attachments.Remove(slot)
}

// Submit aggregates the snapshot and renders the report. A
// *grading.ValidationError leaves the form exactly as submitted.
func (f *FormController) Submit(snapshot FormSnapshot) (*report.Report, template.HTML, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.touch()

	f.capture(snapshot)

	current := f.registry.Rows()
	entries := make([]grading.Entry, 0, len(current))
	for _, row := range current {
		entries = append(entries, grading.ParseEntry(row.Name, row.MaxMarks, row.PassMarks, row.Obtained))
	}

	totals, err := grading.Aggregate(entries)
	if err != nil {
		return nil, "", err
	}

	rep := report.New(f.identityFields(), totals, report.Images{
		Logo:  f.attachments.DataURL(attachments.SlotLogo),
		Photo: f.attachments.DataURL(attachments.SlotPhoto),
	})
	html, err := f.renderer.Render(rep)
	if err != nil {
		return nil, "", fmt.Errorf("failed to render report: %w", err)
	}

	f.current = rep
	f.rendered = html
	slog.Info("report generated",
		"subjects", len(totals.Subjects),
		"percentage", totals.Percentage,
		"grade", totals.OverallGrade,
		"status", totals.Status)
	return rep, html, nil
}

// Reset clears every field, reseeds the default rows, hides the report and
// releases all image previews.
func (f *FormController) Reset() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.touch()

	return f.reset()
}

// Print returns the last rendered report as a printable document.
func (f *FormController) Print() (template.HTML, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.touch()

	if f.current == nil {
		return "", ErrNoReport
	}
	return f.renderer.RenderPage(f.current)
}

// View returns the state needed to render the form page.
func (f *FormController) View() FormView {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.touch()

	view := FormView{
		FormSnapshot: f.identity,
		SubjectRows:  f.registry.Rows(),
		Report:       f.rendered,
	}
	if view.IssueDate == "" {
		view.IssueDate = f.today().Format(IssueDateLayout)
	}
	if a, ok := f.attachments.Get(attachments.SlotLogo); ok {
		view.Logo = &a
	}
	if a, ok := f.attachments.Get(attachments.SlotPhoto); ok {
		view.Photo = &a
	}
	return view
}

// Rows returns the current subject rows.
func (f *FormController) Rows() []rows.Row {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.registry.Rows()
}

// IdleSince reports when the controller was last used.
func (f *FormController) IdleSince() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastUsed
}

func (f *FormController) reset() error {
	f.identity = FormSnapshot{}
	f.registry.Reset()
	f.current = nil
	f.rendered = ""
	if err := f.attachments.ReleaseAll(); err != nil {
		return fmt.Errorf("failed to release image previews: %w", err)
	}
	return nil
}

// capture stores the posted identity fields and row values. Rows that no
// longer exist in the registry are ignored.
func (f *FormController) capture(snapshot FormSnapshot) {
	values := snapshot.Rows
	snapshot.Rows = nil
	f.identity = snapshot
	for id, row := range values {
		row.ID = id
		f.registry.Update(row)
	}
}

func (f *FormController) identityFields() report.Identity {
	return report.Identity{
		SchoolName:   strings.TrimSpace(f.identity.SchoolName),
		AcademicYear: strings.TrimSpace(f.identity.AcademicYear),
		AcademicTerm: strings.TrimSpace(f.identity.AcademicTerm),
		StudentName:  strings.TrimSpace(f.identity.StudentName),
		StudentClass: strings.TrimSpace(f.identity.StudentClass),
		IssueDate:    f.issueDate(),
	}
}

// issueDate parses the submitted date, falling back to today.
func (f *FormController) issueDate() time.Time {
	raw := strings.TrimSpace(f.identity.IssueDate)
	if raw == "" {
		return f.today()
	}
	t, err := time.ParseInLocation(IssueDateLayout, raw, f.location)
	if err != nil {
		slog.Warn("invalid issue date, using today", "value", raw, "error", err)
		return f.today()
	}
	return t
}

func (f *FormController) today() time.Time {
	now := f.now().In(f.location)
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, f.location)
}

func (f *FormController) touch() {
	f.lastUsed = f.now()
}
