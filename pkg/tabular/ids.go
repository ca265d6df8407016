package tabular

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/mesh-intelligence/tabledesk/pkg/types"
)

// DefaultIDWidth is the minimum number of digits in a generated identifier.
const DefaultIDWidth = 3

// MaxSequence returns the largest numeric suffix among the identifiers of
// idCol that carry prefix. Suffixes that are not all ASCII digits are
// skipped. It returns 0 when nothing parses or the column is missing.
func MaxSequence(t *types.Table, idCol, prefix string) int {
	best := 0
	for _, v := range t.Column(idCol) {
		s := strings.TrimSpace(v.String())
		if !strings.HasPrefix(s, prefix) {
			continue
		}
		suffix := strings.TrimPrefix(s, prefix)
		if !allDigits(suffix) {
			continue
		}
		n, err := strconv.Atoi(suffix)
		if err != nil {
			continue
		}
		if n > best {
			best = n
		}
	}
	return best
}

func allDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// FormatID renders prefix followed by n zero-padded to width digits. Wider
// numbers are never truncated.
func FormatID(prefix string, n, width int) string {
	if width <= 0 {
		width = DefaultIDWidth
	}
	return fmt.Sprintf("%s%0*d", prefix, width, n)
}

// NextID returns the identifier after the numeric maximum of idCol: CV011
// for a table holding CV001, CV003 and CV010, and CV001 for an empty table.
func NextID(t *types.Table, idCol, prefix string, width int) string {
	return FormatID(prefix, MaxSequence(t, idCol, prefix)+1, width)
}
