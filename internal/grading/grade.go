package grading

import (
	"math"
	"strings"
)

// Label is a letter grade assigned by score threshold.
type Label string

const (
	APlus Label = "A+"
	A     Label = "A"
	BPlus Label = "B+"
	B     Label = "B"
	C     Label = "C"
	D     Label = "D"
	F     Label = "F"
)

// StyleClass is the display bucket a grade is rendered with.
type StyleClass string

const (
	ClassA StyleClass = "grade-a"
	ClassB StyleClass = "grade-b"
	ClassC StyleClass = "grade-c"
	ClassF StyleClass = "grade-f"
)

// thresholds are evaluated top-down; a score at a bound gets that bound's label.
var thresholds = []struct {
	min   float64
	label Label
}{
	{90, APlus},
	{80, A},
	{70, BPlus},
	{60, B},
	{50, C},
	{40, D},
}

// Grade maps a score on the 0-100 scale to its label. Non-finite scores
// grade as F.
func Grade(score float64) Label {
	if math.IsNaN(score) || math.IsInf(score, 0) {
		return F
	}
	for _, t := range thresholds {
		if score >= t.min {
			return t.label
		}
	}
	return F
}

// GradeClass returns the style bucket of a label. C and D share a bucket,
// matching the grading scale legend.
func GradeClass(label Label) StyleClass {
	s := string(label)
	switch {
	case strings.Contains(s, "A"):
		return ClassA
	case strings.Contains(s, "B"):
		return ClassB
	case strings.Contains(s, "C"), strings.Contains(s, "D"):
		return ClassC
	default:
		return ClassF
	}
}

// Class is shorthand for GradeClass(l).
func (l Label) Class() StyleClass {
	return GradeClass(l)
}

// ScaleBand is one line of the grading scale legend printed on the report.
type ScaleBand struct {
	Label       string
	Description string
	Class       StyleClass
}

// Legend is the grading scale shown on every report.
var Legend = []ScaleBand{
	{Label: "A+ (90-100)", Description: "Outstanding", Class: ClassA},
	{Label: "A (80-89)", Description: "Excellent", Class: ClassA},
	{Label: "B+ (70-79)", Description: "Very Good", Class: ClassB},
	{Label: "C (50-69)", Description: "Average", Class: ClassC},
	{Label: "F (Below 50)", Description: "Fail", Class: ClassF},
}
