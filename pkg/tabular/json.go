package tabular

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/mesh-intelligence/tabledesk/pkg/types"
)

// ErrNotRecords is returned when JSON input is neither an object nor an
// array of objects.
var ErrNotRecords = errors.New("json input must be an object or an array of objects")

// DecodeRecords parses a JSON object or an array of objects into records.
// Scalars become text; nested values keep their JSON encoding; null becomes
// empty.
func DecodeRecords(data []byte) ([]types.Record, error) {
	data = bytes.TrimSpace(data)
	var objs []map[string]json.RawMessage
	switch {
	case len(data) > 0 && data[0] == '[':
		if err := json.Unmarshal(data, &objs); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrNotRecords, err)
		}
	case len(data) > 0 && data[0] == '{':
		var one map[string]json.RawMessage
		if err := json.Unmarshal(data, &one); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrNotRecords, err)
		}
		objs = append(objs, one)
	default:
		return nil, ErrNotRecords
	}
	out := make([]types.Record, 0, len(objs))
	for _, obj := range objs {
		if obj == nil {
			return nil, ErrNotRecords
		}
		rec := make(types.Record, len(obj))
		for k, raw := range obj {
			rec[k] = types.Text(Stringify(raw))
		}
		out = append(out, rec)
	}
	return out, nil
}

// Stringify renders a JSON value as cell text.
func Stringify(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return ""
	}
	var s string
	if raw[0] == '"' && json.Unmarshal(raw, &s) == nil {
		return s
	}
	return string(raw)
}

// MergeRecords appends recs to t. New columns are added after the existing
// ones in sorted order.
func MergeRecords(t *types.Table, recs []types.Record) *types.Table {
	out := t.Clone()
	var extra []string
	seen := map[string]bool{}
	for _, rec := range recs {
		for k := range rec {
			if !out.Has(k) && !seen[k] {
				seen[k] = true
				extra = append(extra, k)
			}
		}
	}
	sort.Strings(extra)
	for _, c := range extra {
		out.AddColumn(c)
	}
	for _, rec := range recs {
		out.AppendRecord(rec)
	}
	return out
}
