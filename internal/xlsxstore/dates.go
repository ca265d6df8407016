package xlsxstore

import (
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/mesh-intelligence/tabledesk/pkg/types"
)

// builtinDateFormats are the built-in number format ids that display a date.
var builtinDateFormats = map[int]bool{
	14: true, 15: true, 16: true, 17: true, 22: true,
	27: true, 28: true, 29: true, 30: true, 31: true, 32: true, 33: true, 34: true, 35: true, 36: true,
	50: true, 51: true, 52: true, 53: true, 54: true, 55: true, 56: true, 57: true, 58: true,
}

// rows returns the raw cell values of sheet name. Numeric cells with a date
// number format are rendered in the storage date layout, since the raw value
// of a typed date is its serial number.
func (s *Store) rows(name string) ([][]string, error) {
	rows, err := s.f.GetRows(name, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, err
	}
	date1904 := false
	if props, err := s.f.GetWorkbookProps(); err == nil && props.Date1904 != nil {
		date1904 = *props.Date1904
	}
	dateStyle := map[int]bool{}
	for r := 1; r < len(rows); r++ {
		for c, raw := range rows[r] {
			serial, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				continue
			}
			cell, err := excelize.CoordinatesToCellName(c+1, r+1)
			if err != nil {
				continue
			}
			id, err := s.f.GetCellStyle(name, cell)
			if err != nil || id == 0 {
				continue
			}
			isDate, seen := dateStyle[id]
			if !seen {
				isDate = s.isDateStyle(id)
				dateStyle[id] = isDate
			}
			if !isDate {
				continue
			}
			d, err := excelize.ExcelDateToTime(serial, date1904)
			if err != nil {
				continue
			}
			rows[r][c] = d.Format(types.StorageDateLayout)
		}
	}
	return rows, nil
}

func (s *Store) isDateStyle(id int) bool {
	st, err := s.f.GetStyle(id)
	if err != nil || st == nil {
		return false
	}
	if st.CustomNumFmt != nil {
		return isDateFormatCode(*st.CustomNumFmt)
	}
	return builtinDateFormats[st.NumFmt]
}

// isDateFormatCode reports whether a custom number format shows a day or a
// year. Quoted literals, escaped characters and bracketed sections such as
// colors and locales are ignored.
func isDateFormatCode(code string) bool {
	var b strings.Builder
	quoted, bracket, escaped := false, false, false
	for _, r := range code {
		switch {
		case escaped:
			escaped = false
		case r == '\\':
			escaped = true
		case r == '"':
			quoted = !quoted
		case quoted:
		case r == '[':
			bracket = true
		case r == ']':
			bracket = false
		case bracket:
		default:
			b.WriteRune(r)
		}
	}
	return strings.ContainsAny(strings.ToLower(b.String()), "dy")
}
