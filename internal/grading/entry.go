package grading

import (
	"math"
	"strconv"
	"strings"
)

const (
	DefaultMaxMarks  = 100
	DefaultPassMarks = 35

	MinMaxMarks  = 50
	MinPassMarks = 20
	// MarksLimit bounds every mark value so totals and percentages stay finite
	MarksLimit = 1_000_000
)

// Entry is a parsed subject row.
type Entry struct {
	Name      string
	MaxMarks  int
	PassMarks int
	Obtained  float64
	// HasObtained is false when the obtained marks were blank or not a number
	HasObtained bool
}

// ParseEntry converts raw form values into an Entry. Max and pass marks that
// are missing, non-numeric or outside [MinMaxMarks|MinPassMarks, MarksLimit]
// fall back to their defaults; fractional values are truncated. Obtained
// marks above MarksLimit are capped.
func ParseEntry(name, maxMarks, passMarks, obtained string) Entry {
	e := Entry{
		Name:      strings.TrimSpace(name),
		MaxMarks:  parseMarks(maxMarks, MinMaxMarks, DefaultMaxMarks),
		PassMarks: parseMarks(passMarks, MinPassMarks, DefaultPassMarks),
	}
	if v, ok := parseNumber(obtained); ok {
		e.Obtained = math.Min(v, MarksLimit)
		e.HasObtained = true
	}
	return e
}

// Included reports whether the entry takes part in aggregation.
func (e Entry) Included() bool {
	return e.Name != "" && e.HasObtained && e.Obtained >= 0
}

// Score is the obtained marks as a percentage of the max marks. Entries
// without positive max marks score 0.
func (e Entry) Score() float64 {
	if e.MaxMarks <= 0 {
		return 0
	}
	return e.Obtained / float64(e.MaxMarks) * 100
}

// Passed reports whether the obtained marks reach the subject pass marks.
func (e Entry) Passed() bool {
	return e.Obtained >= float64(e.PassMarks)
}

func parseMarks(raw string, minimum, fallback int) int {
	v, ok := parseNumber(raw)
	if !ok {
		return fallback
	}
	v = math.Trunc(v)
	if v < float64(minimum) || v > MarksLimit {
		return fallback
	}
	return int(v)
}

func parseNumber(raw string) (float64, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}
