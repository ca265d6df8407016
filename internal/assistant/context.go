package assistant

import (
	"strings"

	"github.com/mesh-intelligence/tabledesk/pkg/tabular"
	"github.com/mesh-intelligence/tabledesk/pkg/types"
)

// listing renders one reference sheet for the prompt context.
type listing struct {
	title string
	sheet string
	id    string
	line  func(t *types.Table, r int) string
}

func cell(t *types.Table, r int, col string) string { return t.Cell(r, col).String() }

var listings = []listing{
	{"DANH SÁCH NHÂN SỰ:", types.SheetPeople, "ID_NHAN_SU", func(t *types.Table, r int) string {
		return cell(t, r, "HO_TEN") + " (" + cell(t, r, "CHUC_VU") + ")"
	}},
	{"DANH SÁCH ĐƠN VỊ:", types.SheetUnits, "ID_DON_VI", func(t *types.Table, r int) string {
		return cell(t, r, "TEN_DON_VI")
	}},
	{"DANH SÁCH DỰ ÁN:", types.SheetProjects, "ID_DU_AN", func(t *types.Table, r int) string {
		return cell(t, r, "TEN_DU_AN")
	}},
	{"DANH SÁCH GÓI THẦU:", types.SheetPackages, "ID_GOI_THAU", func(t *types.Table, r int) string {
		return cell(t, r, "TEN_GOI_THAU")
	}},
	{"DANH SÁCH HỢP ĐỒNG:", types.SheetContracts, "ID_HOP_DONG", func(t *types.Table, r int) string {
		return cell(t, r, "TEN_HD")
	}},
	{"DANH SÁCH VĂN BẢN:", types.SheetDocuments, "ID_VB", func(t *types.Table, r int) string {
		return cell(t, r, "SO_VAN_BAN") + " - " + cell(t, r, "TRICH_YEU")
	}},
}

// BuildContext lists the reference sheets so the model can answer with
// identifiers. Empty or missing sheets are left out.
func BuildContext(sheets map[string]*types.Table) string {
	var lines []string
	for _, l := range listings {
		t := tabular.Sheet(sheets, l.sheet)
		if t.IsEmpty() {
			continue
		}
		if len(lines) > 0 {
			lines = append(lines, "")
		}
		lines = append(lines, l.title)
		for r := range t.Rows {
			lines = append(lines, "- "+cell(t, r, l.id)+": "+l.line(t, r))
		}
	}
	return strings.Join(lines, "\n")
}
