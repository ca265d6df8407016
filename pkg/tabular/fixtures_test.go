package tabular

import "github.com/mesh-intelligence/tabledesk/pkg/types"

func people() *types.Table {
	return Prepare(types.FromStrings(types.SheetPeople, [][]string{
		{"ID_NHAN_SU", "HO_TEN", "CHUC_VU", "DIEN_THOAI"},
		{"NS002", "Trần Thị B", "Kỹ sư", ""},
		{"NS001", "Nguyễn Văn A", "Trưởng phòng", "0901"},
		{"", "Không mã", "", ""},
	}), types.DefaultSchema(), PrepareOptions{})
}

func projects() *types.Table {
	return Prepare(types.FromStrings(types.SheetProjects, [][]string{
		{"ID_DU_AN", "TEN_DU_AN", "MO_TA", "NGAY_BD"},
		{"DA001", "Cầu Bắc", "Xây mới", "2024-03-05"},
	}), types.DefaultSchema(), PrepareOptions{})
}
