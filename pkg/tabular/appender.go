package tabular

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/mesh-intelligence/tabledesk/pkg/types"
)

// Appender adds identifier-bearing rows to a sheet.
type Appender struct {
	Store    types.Store
	Sequence Sequence // defaults to ScanSequence
	Width    int      // defaults to DefaultIDWidth
	Logger   *zap.Logger
}

// NewAppender returns an appender over store using scan-based allocation.
func NewAppender(store types.Store, logger *zap.Logger) *Appender {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Appender{Store: store, Sequence: ScanSequence{}, Width: DefaultIDWidth, Logger: logger}
}

// Append allocates the next identifier for sheet, stores it in idCol of rec,
// and appends the row. A sheet that does not exist yet starts at 001. Store
// failures are returned wrapped and are not retried.
func (a *Appender) Append(ctx context.Context, sheet, idCol, prefix string, rec types.Record) (string, error) {
	t, err := a.Store.Read(ctx, sheet)
	existed := err == nil
	if errors.Is(err, types.ErrSheetNotFound) {
		t = types.NewTable(sheet)
	} else if err != nil {
		return "", fmt.Errorf("reading %s: %w", sheet, err)
	}
	t.Name = sheet

	seq := a.Sequence
	if seq == nil {
		seq = ScanSequence{}
	}
	id, err := nextFor(ctx, seq, t, idCol, prefix, a.Width)
	if err != nil {
		return "", fmt.Errorf("allocating %s identifier: %w", sheet, err)
	}

	row := make(types.Record, len(rec)+1)
	for k, v := range rec {
		row[k] = v
	}
	row[idCol] = types.Text(id)
	if existed && !t.Has(idCol) {
		if err := a.widen(ctx, t, idCol, row); err != nil {
			return "", err
		}
	}
	if err := a.Store.Append(ctx, sheet, row); err != nil {
		return "", fmt.Errorf("appending to %s: %w", sheet, err)
	}
	a.log().Debug("row appended", zap.String("sheet", sheet), zap.String("id", id))
	return id, nil
}

// widen rewrites an existing sheet so its header has idCol, since the store
// drops fields the header lacks. A sheet without any header takes the
// record's sorted keys.
func (a *Appender) widen(ctx context.Context, t *types.Table, idCol string, row types.Record) error {
	if len(t.Columns) == 0 {
		for _, k := range row.Keys() {
			t.AddColumn(k)
		}
	} else {
		t.AddColumn(idCol)
	}
	var err error
	if cw, ok := a.Store.(types.ConditionalWriter); ok {
		err = cw.WriteIf(ctx, t.Name, t, t.Revision)
	} else {
		err = a.Store.Write(ctx, t.Name, t)
	}
	if err != nil {
		return fmt.Errorf("adding %s to %s: %w", idCol, t.Name, err)
	}
	a.log().Debug("identifier column added", zap.String("sheet", t.Name), zap.String("column", idCol))
	return nil
}

func (a *Appender) log() *zap.Logger {
	if a.Logger == nil {
		return zap.NewNop()
	}
	return a.Logger
}
