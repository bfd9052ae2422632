package refdata

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	platformstrings "agenda/pkg/platform/strings"
)

var (
	ErrUnsupportedPayload = errors.New("unsupported payload shape")
	ErrEmptyList          = errors.New("payload has no usable records")
)

// Normalize turns a source payload into a reference list. Accepted shapes:
//
//	["Campinas", "Limeira"]
//	[{"id": 1, "nome": "Campinas"}, {"name": "Limeira"}]
//	{"<collection>": [ ... either of the above ... ]}
//
// When collection is empty an object payload must hold exactly one array.
// Records without a usable name are skipped. The result is deduplicated
// ignoring case and accents and sorted with Brazilian Portuguese collation.
func Normalize(raw []byte, collection string) ([]string, error) {
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("decode payload: %w", err)
	}

	records, err := recordsOf(doc, collection)
	if err != nil {
		return nil, err
	}

	values := make([]string, 0, len(records))
	for _, rec := range records {
		if name := recordName(rec); name != "" {
			values = append(values, name)
		}
	}

	list := platformstrings.NormalizeList(values)
	if len(list) == 0 {
		return nil, ErrEmptyList
	}
	return list, nil
}

func recordsOf(doc any, collection string) ([]any, error) {
	switch v := doc.(type) {
	case []any:
		return v, nil
	case map[string]any:
		if collection != "" {
			records, ok := v[collection].([]any)
			if !ok {
				return nil, fmt.Errorf("%w: missing collection %q", ErrUnsupportedPayload, collection)
			}
			return records, nil
		}
		var found []any
		arrays := 0
		for _, field := range v {
			if records, ok := field.([]any); ok {
				found = records
				arrays++
			}
		}
		if arrays != 1 {
			return nil, fmt.Errorf("%w: expected one array field, found %d", ErrUnsupportedPayload, arrays)
		}
		return found, nil
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnsupportedPayload, doc)
	}
}

func recordName(rec any) string {
	switch v := rec.(type) {
	case string:
		return strings.TrimSpace(v)
	case map[string]any:
		for _, key := range []string{"name", "nome"} {
			if s, ok := v[key].(string); ok && strings.TrimSpace(s) != "" {
				return strings.TrimSpace(s)
			}
		}
	}
	return ""
}
