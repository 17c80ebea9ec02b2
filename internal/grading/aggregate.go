package grading

import "math"

// PassFraction of the total max marks needed for an overall pass.
const PassFraction = 0.4

// NoSubjectsMessage is shown when a submission has no usable subject rows.
const NoSubjectsMessage = "Please add at least one subject with name and obtained marks."

type Status string

const (
	Pass Status = "PASS"
	Fail Status = "FAIL"
)

// ValidationError is returned for submissions that cannot produce a report.
// It is meant to be shown to the user; the form stays as it was.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// SubjectResult is an included entry together with its computed grade.
type SubjectResult struct {
	Entry
	Score  float64
	Grade  Label
	Class  StyleClass
	Passed bool
}

// Totals is the aggregated outcome of a set of subject entries.
type Totals struct {
	Subjects      []SubjectResult
	TotalMax      int
	TotalPass     int
	TotalObtained float64
	// Percentage is rounded to one decimal place
	Percentage   float64
	OverallGrade Label
	Status       Status
}

// Passed reports the overall result.
func (t *Totals) Passed() bool {
	return t.Status == Pass
}

// Aggregate filters the entries, grades each included one and computes the
// totals. It fails with a *ValidationError when no entry is included.
func Aggregate(entries []Entry) (*Totals, error) {
	totals := &Totals{}
	for _, e := range entries {
		if !e.Included() {
			continue
		}
		score := e.Score()
		grade := Grade(score)
		totals.Subjects = append(totals.Subjects, SubjectResult{
			Entry:  e,
			Score:  score,
			Grade:  grade,
			Class:  grade.Class(),
			Passed: e.Passed(),
		})
		if e.MaxMarks > 0 {
			totals.TotalMax += e.MaxMarks
		}
		totals.TotalPass += e.PassMarks
		totals.TotalObtained += e.Obtained
	}

	if len(totals.Subjects) == 0 {
		return nil, &ValidationError{Message: NoSubjectsMessage}
	}

	totals.Percentage = percentage(totals.TotalObtained, totals.TotalMax)
	totals.OverallGrade = Grade(totals.Percentage)
	totals.Status = Fail
	if totals.TotalMax > 0 && totals.TotalObtained >= float64(totals.TotalMax)*PassFraction {
		totals.Status = Pass
	}
	return totals, nil
}

func percentage(obtained float64, total int) float64 {
	if total <= 0 {
		return 0
	}
	return math.Round(obtained/float64(total)*1000) / 10
}
