package rows

import "strconv"

const (
	DefaultMaxMarks  = "100"
	DefaultPassMarks = "35"
	DefaultRowCount  = 5
)

// Row is one subject entry as typed by the user. Marks are kept as the raw
// input strings; they are parsed when the report is aggregated.
type Row struct {
	ID        int
	Name      string
	MaxMarks  string
	PassMarks string
	Obtained  string
}

// FieldName returns the form field name used for the given row field.
func (r Row) FieldName(field string) string {
	return "subject-" + strconv.Itoa(r.ID) + "-" + field
}

// Registry is the source of truth for the rendered subject rows. The
// display layer is a projection of Rows and never holds state of its own.
type Registry struct {
	nextID    int
	seedCount int
	rows      []Row
	// removers maps a row id to the handler that detaches it
	removers map[int]func()
}

// NewRegistry creates a registry seeded with seedCount default rows.
// A non-positive seedCount falls back to DefaultRowCount.
func NewRegistry(seedCount int) *Registry {
	if seedCount <= 0 {
		seedCount = DefaultRowCount
	}
	r := &Registry{
		seedCount: seedCount,
		removers:  make(map[int]func()),
	}
	r.seed()
	return r
}

// Add appends a row with default marks and a fresh identifier.
func (r *Registry) Add() Row {
	id := r.nextID
	r.nextID++

	row := Row{
		ID:        id,
		MaxMarks:  DefaultMaxMarks,
		PassMarks: DefaultPassMarks,
	}
	r.rows = append(r.rows, row)
	r.removers[id] = func() { r.detach(id) }
	return row
}

// Remove detaches the row with the given id. Unknown ids are a no-op and
// report false.
func (r *Registry) Remove(id int) bool {
	remove, ok := r.removers[id]
	if !ok {
		return false
	}
	remove()
	return true
}

// Update replaces the user supplied values of an existing row. The row id
// is taken from values.
func (r *Registry) Update(values Row) bool {
	for i := range r.rows {
		if r.rows[i].ID == values.ID {
			r.rows[i] = values
			return true
		}
	}
	return false
}

// Reset clears every row and reseeds the default rows. Identifiers keep
// increasing so ids handed out before the reset never match a new row.
func (r *Registry) Reset() {
	r.rows = nil
	r.removers = make(map[int]func())
	r.seed()
}

// Rows returns a copy of the rows in display order.
func (r *Registry) Rows() []Row {
	out := make([]Row, len(r.rows))
	copy(out, r.rows)
	return out
}

// Get returns the row with the given id.
func (r *Registry) Get(id int) (Row, bool) {
	for _, row := range r.rows {
		if row.ID == id {
			return row, true
		}
	}
	return Row{}, false
}

func (r *Registry) Len() int {
	return len(r.rows)
}

func (r *Registry) seed() {
	for i := 0; i < r.seedCount; i++ {
		r.Add()
	}
}

func (r *Registry) detach(id int) {
	delete(r.removers, id)
	for i := range r.rows {
		if r.rows[i].ID == id {
			r.rows = append(r.rows[:i], r.rows[i+1:]...)
			return
		}
	}
}
