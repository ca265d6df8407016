package tabular

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/mesh-intelligence/tabledesk/pkg/types"
)

// PrepareOptions tunes Prepare and LoadAll.
type PrepareOptions struct {
	Columns     ColumnOptions
	Logger      *zap.Logger
	Parallelism int // concurrent sheet reads in LoadAll; defaults to 4
}

func (o PrepareOptions) log() *zap.Logger {
	if o.Logger == nil {
		return zap.NewNop()
	}
	return o.Logger
}

// Prepare cleans a raw sheet: headers are normalized, the schema's date
// columns are parsed, and remaining text cells are trimmed.
func Prepare(t *types.Table, schema types.Schema, opts PrepareOptions) *types.Table {
	out := NormalizeColumns(t, opts.Columns)
	out, malformed := ParseDateColumns(out, schema.DateColumns)
	if malformed > 0 {
		opts.log().Debug("unparsable dates", zap.String("sheet", t.Name), zap.Int("cells", malformed))
	}
	for _, row := range out.Rows {
		for i, v := range row {
			if v.Kind() == types.KindText {
				row[i] = types.Text(strings.TrimSpace(v.String()))
			}
		}
	}
	return out
}

// LoadAll reads and prepares every sheet the schema lists. A sheet missing
// from the store loads as an empty table; any other store error fails the
// whole load.
func LoadAll(ctx context.Context, store types.Store, schema types.Schema, opts PrepareOptions) (map[string]*types.Table, error) {
	limit := opts.Parallelism
	if limit <= 0 {
		limit = 4
	}
	var mu sync.Mutex
	sheets := make(map[string]*types.Table, len(schema.Sheets))

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(limit)
	for _, name := range schema.Sheets {
		eg.Go(func() error {
			t, err := store.Read(egCtx, name)
			if errors.Is(err, types.ErrSheetNotFound) {
				opts.log().Debug("sheet missing, using empty table", zap.String("sheet", name))
				t = types.NewTable(name)
			} else if err != nil {
				return fmt.Errorf("loading %s: %w", name, err)
			}
			p := Prepare(t, schema, opts)
			mu.Lock()
			sheets[name] = p
			mu.Unlock()
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return sheets, nil
}

// Sheet returns sheets[name], or an empty table when it is absent.
func Sheet(sheets map[string]*types.Table, name string) *types.Table {
	if t, ok := sheets[name]; ok && t != nil {
		return t
	}
	return types.NewTable(name)
}
