package tasks

import (
	"context"
	"net/url"
	"strings"
	"time"

	"github.com/mesh-intelligence/tabledesk/pkg/tabular"
	"github.com/mesh-intelligence/tabledesk/pkg/types"
)

// AllSentinel is the choice that disables a filter.
const AllSentinel = "Tất cả"

// ReportEmailColumn holds report recipients in the settings sheet.
const ReportEmailColumn = "EMAIL_BC_CV"

// Report mail texts.
const (
	ReportSubject = "Bao cao cong viec"
	untitledTask  = "Không tên"
)

// Filter selects report rows. Empty fields and AllSentinel match anything.
// From and To bound the assigned date inclusively; when either is set,
// tasks without an assigned date are excluded.
type Filter struct {
	From     time.Time
	To       time.Time
	Status   string
	Project  string
	Package  string
	Contract string
}

func active(choice string) bool {
	choice = strings.TrimSpace(choice)
	return choice != "" && choice != AllSentinel
}

// Match reports whether rec passes the filter.
func (f Filter) Match(rec types.Record) bool {
	for col, want := range map[string]string{
		ColumnStatus:   f.Status,
		ColumnProject:  f.Project,
		ColumnPackage:  f.Package,
		ColumnContract: f.Contract,
	} {
		if active(want) && rec.Get(col).String() != strings.TrimSpace(want) {
			return false
		}
	}
	if f.From.IsZero() && f.To.IsZero() {
		return true
	}
	assigned, ok := tabular.ParseCell(rec.Get(ColumnAssigned)).Time()
	if !ok {
		return false
	}
	if !f.From.IsZero() && assigned.Before(day(f.From)) {
		return false
	}
	if !f.To.IsZero() && assigned.After(day(f.To)) {
		return false
	}
	return true
}

// Apply returns the rows of t that pass the filter.
func (f Filter) Apply(t *types.Table) *types.Table {
	out := types.NewTable(t.Name, t.Columns...)
	out.Revision = t.Revision
	for r := range t.Rows {
		if f.Match(t.Record(r)) {
			out.Rows = append(out.Rows, append(types.Row(nil), t.Rows[r]...))
		}
	}
	return out
}

func day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Report lists the tasks that pass f, with derived status.
func (s *Service) Report(ctx context.Context, f Filter) (*types.Table, error) {
	t, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	return f.Apply(t), nil
}

// Recipients returns the report addresses listed in the settings sheet.
// Cells may hold several addresses separated by commas or semicolons.
func Recipients(settings *types.Table) []string {
	var out []string
	seen := map[string]bool{}
	for _, v := range settings.Column(ReportEmailColumn) {
		for _, addr := range strings.FieldsFunc(v.String(), func(r rune) bool { return r == ',' || r == ';' }) {
			addr = strings.TrimSpace(addr)
			if addr == "" || tabular.IsAbsent(addr) || seen[addr] {
				continue
			}
			seen[addr] = true
			out = append(out, addr)
		}
	}
	return out
}

// ReportBody renders the mail text listing each task's name, stored status
// and deadline.
func ReportBody(t *types.Table) string {
	lines := []string{"Kinh gui anh/chi,", "", "Day la bao cao cong viec moi nhat:", ""}
	for r := range t.Rows {
		rec := t.Record(r)
		name := rec.Get(ColumnName).String()
		if name == "" {
			name = rec.Get(ColumnContent).String()
		}
		if name == "" {
			name = untitledTask
		}
		lines = append(lines, "- "+name+
			" | Trạng thái: "+rec.Get(ColumnStatus).String()+
			" | Hạn chót: "+tabular.FormatDate(tabular.ParseCell(rec.Get(ColumnDeadline))))
	}
	lines = append(lines, "", "Trân trọng.")
	return strings.Join(lines, "\n")
}

// MailtoLink builds a mailto URL addressed to emails whose body is
// ReportBody(t). It returns "" when there are no recipients.
func MailtoLink(emails []string, t *types.Table) string {
	if len(emails) == 0 {
		return ""
	}
	return "mailto:" + strings.Join(emails, ",") +
		"?subject=" + quote(ReportSubject) +
		"&body=" + quote(ReportBody(t))
}

// quote percent-encodes s for a mailto header, spaces as %20.
func quote(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}
