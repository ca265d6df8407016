package tabular

import (
	"context"

	"github.com/mesh-intelligence/tabledesk/pkg/types"
)

// Sequence allocates the numeric part of the next identifier for a sheet.
// scanned is the largest suffix currently present in the sheet.
type Sequence interface {
	Next(ctx context.Context, sheet, prefix string, scanned int) (int, error)
}

// ScanSequence allocates scanned+1. Two writers that read the same sheet
// state receive the same number.
type ScanSequence struct{}

// Next implements Sequence.
func (ScanSequence) Next(_ context.Context, _, _ string, scanned int) (int, error) {
	return scanned + 1, nil
}

var _ Sequence = ScanSequence{}

// nextFor reads the identifiers of t and asks seq for the following number.
func nextFor(ctx context.Context, seq Sequence, t *types.Table, idCol, prefix string, width int) (string, error) {
	n, err := seq.Next(ctx, t.Name, prefix, MaxSequence(t, idCol, prefix))
	if err != nil {
		return "", err
	}
	return FormatID(prefix, n, width), nil
}
