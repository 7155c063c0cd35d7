package act

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// JSON wraps an Act for encoding. Structured acts encode as
// [[intent, domain, slot, value], ...], utterances as a JSON string and a nil
// act as null.
type JSON struct {
	Act Act
}

func (j JSON) MarshalJSON() ([]byte, error) {
	switch v := j.Act.(type) {
	case nil:
		return []byte("null"), nil
	case Utterance:
		return json.Marshal(string(v))
	case Structured:
		rows := make([][4]string, 0, len(v))
		for _, t := range v {
			rows = append(rows, [4]string{t.Intent, t.Domain, t.Slot, t.Value})
		}
		return json.Marshal(rows)
	default:
		return nil, fmt.Errorf("act: cannot encode %T", j.Act)
	}
}

func (j *JSON) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case len(data) == 0 || bytes.Equal(data, []byte("null")):
		j.Act = nil
		return nil
	case data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("act: decode utterance: %w", err)
		}
		j.Act = Utterance(s)
		return nil
	case data[0] == '[':
		var rows [][]string
		if err := json.Unmarshal(data, &rows); err != nil {
			return fmt.Errorf("act: decode structured act: %w", err)
		}
		out := make(Structured, 0, len(rows))
		for i, row := range rows {
			if len(row) != 4 {
				return fmt.Errorf("act: tuple %d has %d fields, want 4", i, len(row))
			}
			out = append(out, T(row[0], row[1], row[2], row[3]))
		}
		j.Act = out
		return nil
	default:
		return fmt.Errorf("act: unexpected json %q", string(data))
	}
}
