// Package tasks manages the task sheet: creating tasks with generated
// identifiers, listing them with derived status, filtering reports, and the
// per-task discussion thread.
package tasks

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mesh-intelligence/tabledesk/pkg/types"
)

// Task sheet columns used by this package.
const (
	ColumnID           = "ID_CONG_VIEC"
	ColumnName         = "TEN_VIEC"
	ColumnContent      = "NOI_DUNG"
	ColumnKind         = "LOAI_VIEC"
	ColumnSource       = "NGUON_GIAO_VIEC"
	ColumnAssigner     = "NGUOI_GIAO"
	ColumnAssignee     = "NGUOI_NHAN"
	ColumnAssigned     = "NGAY_GIAO"
	ColumnDeadline     = "HAN_CHOT"
	ColumnCollaborator = "NGUOI_PHOI_HOP"
	ColumnStatus       = "TRANG_THAI_TONG"
	ColumnStatusDetail = "TRANG_THAI_CHI_TIET"
	ColumnCompleted    = "NGAY_THUC_TE_XONG"
	ColumnDocument     = "IDVB_VAN_BAN"
	ColumnContract     = "IDHD_CV"
	ColumnProject      = "IDDA_CV"
	ColumnPackage      = "IDGT_CV"
	ColumnBlockers     = "VUONG_MAC"
	ColumnProposal     = "DE_XUAT"
	ColumnUnit         = "IDDV_CV"
	ColumnNote         = "GHI_CHU_CV"
	ColumnAINote       = "GHI_CHU_GEMINI"
)

// IDPrefix starts every task identifier.
const IDPrefix = "CV"

// DefaultDeadlineDays is how far after the assigned date a new task is due
// when no deadline is given.
const DefaultDeadlineDays = 7

// StatusInProgress is the stored status given to tasks saved from the
// assistant.
const StatusInProgress = "Đang thực hiện"

// ErrMissingField is returned when a required task field is empty.
var ErrMissingField = errors.New("required field is empty")

// NewTask is the input for creating a task. Reference fields hold
// identifiers of rows in the reference sheets.
type NewTask struct {
	Name          string
	Content       string
	Kind          string
	Source        string
	Assigner      string
	Assignee      string
	Assigned      time.Time // zero means today
	Deadline      time.Time // zero means Assigned plus DefaultDeadlineDays
	Collaborators string
	Status        string
	StatusDetail  string
	Completed     time.Time // zero means not completed
	Document      string
	Contract      string
	Project       string
	Package       string
	Unit          string
	Blockers      string
	Proposal      string
	Note          string
}

// Validate checks the required fields.
func (n NewTask) Validate() error {
	if strings.TrimSpace(n.Name) == "" {
		return fmt.Errorf("%w: %s", ErrMissingField, ColumnName)
	}
	if strings.TrimSpace(n.Assignee) == "" {
		return fmt.Errorf("%w: %s", ErrMissingField, ColumnAssignee)
	}
	return nil
}

// Record renders the task as a task sheet row. today fills the default
// dates.
func (n NewTask) Record(today time.Time) types.Record {
	assigned := n.Assigned
	if assigned.IsZero() {
		assigned = today
	}
	deadline := n.Deadline
	if deadline.IsZero() {
		deadline = assigned.AddDate(0, 0, DefaultDeadlineDays)
	}
	completed := types.Empty()
	if !n.Completed.IsZero() {
		completed = types.Date(n.Completed)
	}
	text := func(s string) types.Value { return types.Text(strings.TrimSpace(s)) }
	return types.Record{
		ColumnName:         text(n.Name),
		ColumnContent:      text(n.Content),
		ColumnKind:         text(n.Kind),
		ColumnSource:       text(n.Source),
		ColumnAssigner:     text(n.Assigner),
		ColumnAssignee:     text(n.Assignee),
		ColumnAssigned:     types.Date(assigned),
		ColumnDeadline:     types.Date(deadline),
		ColumnCollaborator: text(n.Collaborators),
		ColumnStatus:       text(n.Status),
		ColumnStatusDetail: text(n.StatusDetail),
		ColumnCompleted:    completed,
		ColumnDocument:     text(n.Document),
		ColumnContract:     text(n.Contract),
		ColumnProject:      text(n.Project),
		ColumnPackage:      text(n.Package),
		ColumnBlockers:     text(n.Blockers),
		ColumnProposal:     text(n.Proposal),
		ColumnUnit:         text(n.Unit),
		ColumnNote:         text(n.Note),
	}
}
