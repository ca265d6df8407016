// Package importer loads JSON records produced by external tools into a
// sheet.
package importer

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"

	"github.com/bmatcuk/doublestar/v4"
	"go.uber.org/zap"

	"github.com/mesh-intelligence/tabledesk/pkg/tabular"
	"github.com/mesh-intelligence/tabledesk/pkg/types"
)

// ErrNoMatch is returned when a file pattern matches nothing.
var ErrNoMatch = errors.New("pattern matched no files")

// Importer merges JSON records into sheets.
type Importer struct {
	Store  types.Store
	Logger *zap.Logger
}

func (im *Importer) log() *zap.Logger {
	if im.Logger == nil {
		return zap.NewNop()
	}
	return im.Logger
}

// ImportJSON appends the records in data (an object or an array of objects)
// to sheet. Columns the sheet lacks are added after the existing ones, and
// the whole sheet is rewritten. It returns the number of rows added.
func (im *Importer) ImportJSON(ctx context.Context, sheet string, data []byte) (int, error) {
	recs, err := tabular.DecodeRecords(data)
	if err != nil {
		return 0, err
	}
	return im.merge(ctx, sheet, recs)
}

func (im *Importer) merge(ctx context.Context, sheet string, recs []types.Record) (int, error) {
	if len(recs) == 0 {
		return 0, nil
	}
	current, err := im.Store.Read(ctx, sheet)
	if errors.Is(err, types.ErrSheetNotFound) {
		current = types.NewTable(sheet)
	} else if err != nil {
		return 0, fmt.Errorf("reading %s: %w", sheet, err)
	}
	merged := tabular.MergeRecords(current, recs)
	if cw, ok := im.Store.(types.ConditionalWriter); ok {
		err = cw.WriteIf(ctx, sheet, merged, current.Revision)
	} else {
		err = im.Store.Write(ctx, sheet, merged)
	}
	if err != nil {
		return 0, fmt.Errorf("writing %s: %w", sheet, err)
	}
	im.log().Info("records imported", zap.String("sheet", sheet), zap.Int("rows", len(recs)))
	return len(recs), nil
}

// ImportFiles imports every file matching pattern, which may use ** to
// cross directories, in lexical order. Files are decoded before anything is
// written, so one malformed file imports nothing.
func (im *Importer) ImportFiles(ctx context.Context, sheet, pattern string) (int, error) {
	matches, err := doublestar.FilepathGlob(pattern, doublestar.WithFilesOnly())
	if err != nil {
		return 0, fmt.Errorf("bad pattern %q: %w", pattern, err)
	}
	if len(matches) == 0 {
		return 0, fmt.Errorf("%w: %s", ErrNoMatch, pattern)
	}
	sort.Strings(matches)

	var all []types.Record
	for _, path := range matches {
		data, err := os.ReadFile(path)
		if err != nil {
			return 0, fmt.Errorf("reading %s: %w", path, err)
		}
		recs, err := tabular.DecodeRecords(data)
		if err != nil {
			return 0, fmt.Errorf("%s: %w", path, err)
		}
		im.log().Debug("decoded file", zap.String("path", path), zap.Int("rows", len(recs)))
		all = append(all, recs...)
	}
	return im.merge(ctx, sheet, all)
}
