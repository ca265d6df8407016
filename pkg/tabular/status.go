package tabular

import (
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"

	"github.com/mesh-intelligence/tabledesk/pkg/types"
)

// Status is the derived state of a task.
type Status string

// Derived statuses.
const (
	StatusInProgress Status = "In-progress"
	StatusOverdue    Status = "Overdue"
	StatusDone       Status = "Done"
)

// Task fields read by the deriver.
const (
	ColumnStatus    = "TRANG_THAI_TONG"
	ColumnDeadline  = "HAN_CHOT"
	ColumnCompleted = "NGAY_THUC_TE_XONG"
	ColumnDerived   = "TRANG_THAI_TINH"
)

// DefaultDoneLabels are the stored status texts that mean a task is finished.
var DefaultDoneLabels = []string{"hoàn thành", "đã hoàn thành", "done", "completed", "xong", "đã xong"}

var fold = cases.Fold()

func foldLabel(s string) string {
	return fold.String(norm.NFC.String(strings.TrimSpace(s)))
}

// Deriver computes task status. Now is consulted on every call so a task
// turns overdue as soon as its deadline day has passed.
type Deriver struct {
	Now        func() time.Time
	DoneLabels []string
}

// NewDeriver returns a deriver using the wall clock and the default labels.
func NewDeriver() *Deriver {
	return &Deriver{Now: time.Now, DoneLabels: DefaultDoneLabels}
}

func (d *Deriver) today() time.Time {
	now := time.Now
	if d.Now != nil {
		now = d.Now
	}
	y, m, day := now().Date()
	return time.Date(y, m, day, 0, 0, 0, 0, time.UTC)
}

// IsDoneLabel reports whether a stored status label signals completion.
// Comparison ignores case, surrounding space and Unicode composition.
func (d *Deriver) IsDoneLabel(label string) bool {
	l := foldLabel(label)
	if l == "" {
		return false
	}
	labels := d.DoneLabels
	if labels == nil {
		labels = DefaultDoneLabels
	}
	for _, done := range labels {
		if l == foldLabel(done) {
			return true
		}
	}
	return false
}

// Derive classifies a task from its stored label, deadline and completion
// date. Completion wins over a passed deadline.
func (d *Deriver) Derive(label string, deadline, completed types.Value) Status {
	if d.IsDoneLabel(label) {
		return StatusDone
	}
	if _, ok := ParseCell(completed).Time(); ok {
		return StatusDone
	}
	if due, ok := ParseCell(deadline).Time(); ok && due.Before(d.today()) {
		return StatusOverdue
	}
	return StatusInProgress
}

// DeriveRecord classifies a task row.
func (d *Deriver) DeriveRecord(rec types.Record) Status {
	return d.Derive(rec.Get(ColumnStatus).String(), rec.Get(ColumnDeadline), rec.Get(ColumnCompleted))
}

// Annotate returns a copy of t with ColumnDerived holding each row's status.
func (d *Deriver) Annotate(t *types.Table) *types.Table {
	out := t.Clone()
	out.AddColumn(ColumnDerived)
	for r := range out.Rows {
		out.Set(r, ColumnDerived, types.Text(string(d.DeriveRecord(out.Record(r)))))
	}
	return out
}
