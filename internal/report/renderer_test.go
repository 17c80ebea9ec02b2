package report

import (
	"strings"
	"testing"
	"time"

	"github.com/jo-hoe/termreport/internal/grading"
)

func newTestRenderer(t *testing.T) *Renderer {
	t.Helper()
	r, err := NewRenderer()
	if err != nil {
		t.Fatalf("NewRenderer error: %v", err)
	}
	return r
}

func newTestReport(t *testing.T, images Images, entries ...grading.Entry) *Report {
	t.Helper()
	totals, err := grading.Aggregate(entries)
	if err != nil {
		t.Fatalf("Aggregate error: %v", err)
	}
	return New(Identity{
		SchoolName:   "Hillside Academy",
		AcademicYear: "2025/2026",
		AcademicTerm: "First",
		StudentName:  "Jane Doe",
		StudentClass: "Grade 7",
		IssueDate:    time.Date(2025, time.December, 5, 0, 0, 0, 0, time.UTC),
	}, totals, images)
}

func assertContains(t *testing.T, html string, parts ...string) {
	t.Helper()
	for _, part := range parts {
		if !strings.Contains(html, part) {
			t.Errorf("expected rendered report to contain %q", part)
		}
	}
}

func TestRender_SubjectsAndSummary(t *testing.T) {
	r := newTestRenderer(t)
	rep := newTestReport(t, Images{},
		grading.ParseEntry("Math", "100", "35", "95"),
		grading.ParseEntry("Science", "100", "35", "55"),
	)

	out, err := r.Render(rep)
	if err != nil {
		t.Fatalf("Render error: %v", err)
	}
	html := string(out)

	assertContains(t, html,
		"Hillside Academy",
		"Academic Year 2025/2026",
		"First Term",
		"STUDENT TERMINAL REPORT",
		"Jane Doe",
		"Grade 7",
		"<td>Math</td>",
		`<td class="grade-a">A&#43;</td>`,
		"<td>Science</td>",
		`<td class="grade-c">C</td>`,
		"<td>200</td>",
		"<td>70</td>",
		"<td>150</td>",
		"75.0%",
		`class="grade-b" colspan="2">B&#43;</td>`,
		"PASS",
		"Issue Date: 05/12/2025",
		"Certificate No: AUTO-GENERATED",
		"Class Teacher",
		"Examination Controller",
		"Very Good",
	)
	if strings.Contains(html, "NaN") || strings.Contains(html, "undefined") {
		t.Error("rendered report contains an invalid numeric value")
	}
}

func TestRender_FailBannerAndSubjectRemark(t *testing.T) {
	r := newTestRenderer(t)
	rep := newTestReport(t, Images{}, grading.ParseEntry("Art", "100", "35", "30"))

	out, err := r.Render(rep)
	if err != nil {
		t.Fatalf("Render error: %v", err)
	}
	html := string(out)
	assertContains(t, html, "30.0%", "FAIL", "result-fail", `<td class="grade-f">F</td>`, "<td>Fail</td>")
	if strings.Contains(html, "result-pass") {
		t.Error("expected no pass banner")
	}
}

func TestRender_ImagePlaceholders(t *testing.T) {
	r := newTestRenderer(t)

	out, err := r.Render(newTestReport(t, Images{}, grading.ParseEntry("Math", "100", "35", "60")))
	if err != nil {
		t.Fatalf("Render error: %v", err)
	}
	assertContains(t, string(out), `aria-label="School Logo"`, `aria-label="Student Photo"`)

	out, err = r.Render(newTestReport(t,
		Images{Logo: "data:image/png;base64,YWJj"},
		grading.ParseEntry("Math", "100", "35", "60")))
	if err != nil {
		t.Fatalf("Render error: %v", err)
	}
	html := string(out)
	assertContains(t, html, `<img src="data:image/png;base64,YWJj" alt="School Logo">`, `aria-label="Student Photo"`)
}

func TestRender_EscapesUserInput(t *testing.T) {
	r := newTestRenderer(t)
	rep := newTestReport(t, Images{}, grading.ParseEntry("<b>Math</b>", "100", "35", "60"))
	rep.SchoolName = "<script>alert(1)</script>"

	out, err := r.Render(rep)
	if err != nil {
		t.Fatalf("Render error: %v", err)
	}
	html := string(out)
	if strings.Contains(html, "<script>alert(1)</script>") || strings.Contains(html, "<b>Math</b>") {
		t.Error("expected user input to be escaped")
	}
	assertContains(t, html, "&lt;script&gt;", "&lt;b&gt;Math&lt;/b&gt;")
}

func TestRenderPage(t *testing.T) {
	r := newTestRenderer(t)
	out, err := r.RenderPage(newTestReport(t, Images{}, grading.ParseEntry("Math", "100", "35", "60")))
	if err != nil {
		t.Fatalf("RenderPage error: %v", err)
	}
	html := string(out)
	assertContains(t, html, "<!DOCTYPE html>", "window.print()", "Terminal Report - Jane Doe", "terminalreport-table")
}

func TestRender_NilReport(t *testing.T) {
	r := newTestRenderer(t)
	if _, err := r.Render(nil); err == nil {
		t.Error("expected error for nil report")
	}
	if _, err := r.Render(&Report{}); err == nil {
		t.Error("expected error for report without totals")
	}
}

func TestFormatters(t *testing.T) {
	if got := FormatDate(time.Date(2025, time.March, 9, 15, 0, 0, 0, time.UTC)); got != "09/03/2025" {
		t.Errorf("FormatDate = %q", got)
	}
	if got := FormatDate(time.Time{}); got != "" {
		t.Errorf("FormatDate(zero) = %q", got)
	}
	if got := FormatMarks(95); got != "95" {
		t.Errorf("FormatMarks(95) = %q", got)
	}
	if got := FormatMarks(42.5); got != "42.5" {
		t.Errorf("FormatMarks(42.5) = %q", got)
	}
	if got := FormatPercent(75); got != "75.0%" {
		t.Errorf("FormatPercent(75) = %q", got)
	}
}

func TestStylesheet(t *testing.T) {
	out, err := newTestRenderer(t).Stylesheet()
	if err != nil {
		t.Fatalf("Stylesheet error: %v", err)
	}
	assertContains(t, string(out), "<style>", ".terminalreport")
}
