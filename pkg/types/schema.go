package types

// Sheet names of the standard workbook.
const (
	SheetPeople     = "1_NHAN_SU"
	SheetUnits      = "2_DON_VI"
	SheetDocuments  = "3_VAN_BAN"
	SheetProjects   = "4_DU_AN"
	SheetPackages   = "5_GOI_THAU"
	SheetContracts  = "6_HOP_DONG"
	SheetTasks      = "7_CONG_VIEC"
	SheetSettings   = "8_CAU_HINH"
	SheetChat       = "9_CHAT_GEMINI"
	SheetMemory     = "10_TRI_NHO_AI"
	SheetDiscussion = "10_TRAO_DOI"
	SheetImportedAI = "AI_JSON_DATA"
)

// Link is a soft foreign key: the referenced sheet, its identifier column,
// and the descriptive columns shown in place of an identifier. Links are
// never enforced.
type Link struct {
	Sheet    string   `json:"sheet" yaml:"sheet" mapstructure:"sheet"`
	IDColumn string   `json:"id_column" yaml:"id_column" mapstructure:"id_column"`
	Columns  []string `json:"columns" yaml:"columns" mapstructure:"columns"`
}

// LinkRule binds Column of Sheet to a Link. When Target is set, the
// description is written to that column instead of replacing Column.
type LinkRule struct {
	Sheet  string `json:"sheet" yaml:"sheet" mapstructure:"sheet"`
	Column string `json:"column" yaml:"column" mapstructure:"column"`
	Ref    Link   `json:"ref" yaml:"ref" mapstructure:"ref"`
	Target string `json:"target,omitempty" yaml:"target,omitempty" mapstructure:"target"`
}

// Schema describes the workbook: which sheets are loaded, which columns hold
// dates, and how sheets reference each other.
type Schema struct {
	Sheets      []string   `json:"sheets" yaml:"sheets" mapstructure:"sheets"`
	DateColumns []string   `json:"date_columns" yaml:"date_columns" mapstructure:"date_columns"`
	Links       []LinkRule `json:"links" yaml:"links" mapstructure:"links"`
}

// Standard links into the reference sheets.
var (
	PersonLink   = Link{Sheet: SheetPeople, IDColumn: "ID_NHAN_SU", Columns: []string{"HO_TEN", "CHUC_VU", "DIEN_THOAI"}}
	UnitLink     = Link{Sheet: SheetUnits, IDColumn: "ID_DON_VI", Columns: []string{"TEN_DON_VI", "DIA_CHI", "DIEN_THOAI"}}
	ProjectLink  = Link{Sheet: SheetProjects, IDColumn: "ID_DU_AN", Columns: []string{"TEN_DU_AN", "MO_TA", "NGAY_BD"}}
	PackageLink  = Link{Sheet: SheetPackages, IDColumn: "ID_GOI_THAU", Columns: []string{"TEN_GOI_THAU", "GIA_TRI", "NGAY_BD"}}
	ContractLink = Link{Sheet: SheetContracts, IDColumn: "ID_HOP_DONG", Columns: []string{"TEN_HD", "SO_HD", "NGAY_KY"}}
	DocumentLink = Link{Sheet: SheetDocuments, IDColumn: "ID_VB", Columns: []string{"SO_VAN_BAN", "NGAY_BAN_HANH", "TRICH_YEU"}}
)

// DefaultSchema returns the schema of the standard workbook.
func DefaultSchema() Schema {
	rule := func(sheet, col string, l Link) LinkRule {
		return LinkRule{Sheet: sheet, Column: col, Ref: l.clone()}
	}
	desc := func(col, target string, l Link) LinkRule {
		r := rule(SheetTasks, col, l)
		r.Target = target
		return r
	}
	return Schema{
		Sheets: []string{
			SheetPeople, SheetUnits, SheetDocuments, SheetProjects, SheetPackages,
			SheetContracts, SheetTasks, SheetSettings, SheetChat,
		},
		DateColumns: []string{"NGAY_GIAO", "HAN_CHOT", "NGAY_THUC_TE_XONG", "NGAY_BAN_HANH", "NGAY_BD", "NGAY_KY"},
		Links: []LinkRule{
			rule(SheetUnits, "IDNS_TEN_GIAM_DOC", PersonLink),
			rule(SheetUnits, "IDNS_TEN_LIEN_HE", PersonLink),
			rule(SheetDocuments, "IDNS_NGUOI_KY", PersonLink),
			rule(SheetDocuments, "IDDV_BAN_HANH", UnitLink),
			rule(SheetDocuments, "IDDV_NHAN", UnitLink),
			rule(SheetDocuments, "IDNS_CHU_TRI", PersonLink),
			rule(SheetDocuments, "IDGT_GOI_THAU", PackageLink),
			rule(SheetDocuments, "IDDA_DU_AN", ProjectLink),
			rule(SheetDocuments, "IDDV_KY_HOP_DONG", UnitLink),
			rule(SheetDocuments, "IDHD_HOP_DONG", ContractLink),
			rule(SheetProjects, "IDDV_CHU_DAU_TU", UnitLink),
			rule(SheetPackages, "IDDA_DU_AN", ProjectLink),
			rule(SheetContracts, "IDGT_GOI_THAU", PackageLink),
			rule(SheetContracts, "IDDV_NHA_THAU", UnitLink),
			desc("NGUOI_NHAN", "TEN_NGUOI_NHAN_MO_TA", PersonLink),
			desc("NGUOI_GIAO", "TEN_NGUOI_GIAO_MO_TA", PersonLink),
			desc("IDDV_CV", "TEN_DON_VI_MO_TA", UnitLink),
			desc("IDDA_CV", "TEN_DU_AN_MO_TA", ProjectLink),
			desc("IDGT_CV", "TEN_GOI_THAU_MO_TA", PackageLink),
			desc("IDHD_CV", "TEN_HOP_DONG_MO_TA", Link{Sheet: SheetContracts, IDColumn: "ID_HOP_DONG", Columns: []string{"SO_HD", "TEN_HD", "NGAY_KY"}}),
			desc("IDVB_VAN_BAN", "SO_VAN_BAN_MO_TA", DocumentLink),
		},
	}
}

// LinksFor returns the rules declared for sheet, in declaration order.
func (s Schema) LinksFor(sheet string) []LinkRule {
	var out []LinkRule
	for _, r := range s.Links {
		if r.Sheet == sheet {
			out = append(out, r)
		}
	}
	return out
}

// IsDateColumn reports whether col holds dates.
func (s Schema) IsDateColumn(col string) bool {
	for _, c := range s.DateColumns {
		if c == col {
			return true
		}
	}
	return false
}

func (l Link) clone() Link {
	c := l
	c.Columns = append([]string(nil), l.Columns...)
	return c
}

// Task sheet columns.
var TaskColumns = []string{
	"ID_CONG_VIEC", "TEN_VIEC", "NOI_DUNG", "LOAI_VIEC", "NGUON_GIAO_VIEC",
	"NGUOI_GIAO", "NGUOI_NHAN", "NGAY_GIAO", "HAN_CHOT", "NGUOI_PHOI_HOP",
	"TRANG_THAI_TONG", "TRANG_THAI_CHI_TIET", "NGAY_THUC_TE_XONG",
	"IDVB_VAN_BAN", "IDHD_CV", "IDDA_CV", "IDGT_CV", "VUONG_MAC", "DE_XUAT",
	"IDDV_CV", "GHI_CHU_CV", "GHI_CHU_GEMINI",
	"TEN_NGUOI_NHAN_MO_TA", "TEN_NGUOI_GIAO_MO_TA", "TEN_DON_VI_MO_TA",
	"TEN_DU_AN_MO_TA", "TEN_GOI_THAU_MO_TA", "TEN_HOP_DONG_MO_TA", "SO_VAN_BAN_MO_TA",
}

// DefaultHeaders returns the header row seeded for each standard sheet by
// init. Sheets not listed start without a header.
func DefaultHeaders() map[string][]string {
	return map[string][]string{
		SheetPeople:     {"ID_NHAN_SU", "HO_TEN", "CHUC_VU", "DIEN_THOAI", "EMAIL", "IDDV_CONG_TAC"},
		SheetUnits:      {"ID_DON_VI", "TEN_DON_VI", "DIA_CHI", "DIEN_THOAI", "IDNS_TEN_GIAM_DOC", "IDNS_TEN_LIEN_HE"},
		SheetDocuments:  {"ID_VB", "SO_VAN_BAN", "NGAY_BAN_HANH", "TRICH_YEU", "IDNS_NGUOI_KY", "IDDV_BAN_HANH", "IDDV_NHAN", "IDNS_CHU_TRI", "IDGT_GOI_THAU", "IDDA_DU_AN", "IDDV_KY_HOP_DONG", "IDHD_HOP_DONG"},
		SheetProjects:   {"ID_DU_AN", "TEN_DU_AN", "MO_TA", "NGAY_BD", "IDDV_CHU_DAU_TU"},
		SheetPackages:   {"ID_GOI_THAU", "TEN_GOI_THAU", "GIA_TRI", "NGAY_BD", "IDDA_DU_AN"},
		SheetContracts:  {"ID_HOP_DONG", "SO_HD", "TEN_HD", "NGAY_KY", "IDGT_GOI_THAU", "IDDV_NHA_THAU"},
		SheetTasks:      append([]string(nil), TaskColumns...),
		SheetSettings:   {"TEN_CAU_HINH", "GIA_TRI", "EMAIL_BC_CV"},
		SheetChat:       {"ID_CHAT", "THOI_GIAN", "CAU_HOI", "CAU_TRA_LOI"},
		SheetMemory:     {"LOAI", "THOI_GIAN", "NOI_DUNG", "LAP_LAI", "CHU_KY", "NGAY_TAO", "LIEN_QUAN", "TOM_TAT", "NOI_DUNG_DAY_DU", "TRANG_THAI"},
		SheetDiscussion: {"ID_CONG_VIEC", "NGUOI_GUI", "NOI_DUNG", "THOI_GIAN", "FILE_DINH_KEM"},
	}
}
