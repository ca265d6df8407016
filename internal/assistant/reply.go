package assistant

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mesh-intelligence/tabledesk/pkg/tabular"
	"github.com/mesh-intelligence/tabledesk/pkg/types"
)

// stripFences removes a surrounding Markdown code fence, with or without a
// language tag.
func stripFences(reply string) string {
	s := strings.TrimSpace(reply)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 && !strings.ContainsAny(s[:nl], "[{") {
		s = s[nl+1:]
	} else {
		s = strings.TrimPrefix(s, "json")
	}
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

// ParseRecords decodes a model reply into records. The reply must be a JSON
// array of objects, optionally fenced; anything else is ErrMalformedReply and
// no record is returned. Each field in fields is present in every record,
// empty when the model left it out.
func ParseRecords(reply string, fields []string) ([]types.Record, error) {
	body := []byte(stripFences(reply))
	if len(body) == 0 || body[0] != '[' {
		return nil, ErrMalformedReply
	}
	var items []json.RawMessage
	if err := json.Unmarshal(body, &items); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedReply, err)
	}
	out := make([]types.Record, 0, len(items))
	for i, item := range items {
		item = bytes.TrimSpace(item)
		if len(item) == 0 || item[0] != '{' {
			return nil, fmt.Errorf("%w: element %d is not an object", ErrMalformedReply, i)
		}
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(item, &obj); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedReply, err)
		}
		rec := make(types.Record, len(obj)+len(fields))
		for _, f := range fields {
			rec[f] = types.Empty()
		}
		for k, raw := range obj {
			rec[k] = types.Text(strings.TrimSpace(tabular.Stringify(raw)))
		}
		out = append(out, rec)
	}
	return out, nil
}
