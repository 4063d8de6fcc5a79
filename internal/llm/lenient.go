package llm

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"slices"
	"strconv"
	"strings"
)

// SanitizeParties reshapes a sender/recipient answer that failed schema
// validation so it has a chance to pass:
//   - a side that is not an object becomes an empty object
//   - keys other than name, address and tax_office are removed
//   - numbers and booleans become strings
//   - nested objects and arrays become null
//   - blank strings become null
//
// The returned list names every key that was dropped or rewritten.
func SanitizeParties(raw []byte, logger *slog.Logger) ([]byte, []string, error) {
	if logger == nil {
		logger = slog.Default()
	}

	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, nil, fmt.Errorf("sanitize: decode: %w", err)
	}

	touched := make([]string, 0, 8)
	for _, role := range []string{"sender", "recipient"} {
		side, ok := m[role].(map[string]any)
		if !ok {
			if _, present := m[role]; present {
				touched = append(touched, role+"(type)")
			} else {
				touched = append(touched, role+"(missing)")
			}
			side = map[string]any{}
		}
		touched = append(touched, sanitizeSide(role, side)...)
		m[role] = side
	}
	for k := range m {
		if k != "sender" && k != "recipient" {
			delete(m, k)
			touched = append(touched, k+"(unknown)")
		}
	}

	out, err := json.Marshal(m)
	if err != nil {
		return nil, touched, fmt.Errorf("sanitize: encode: %w", err)
	}
	if len(touched) > 0 {
		slices.Sort(touched)
		logger.Warn("llm.entities.sanitize", "touched", touched)
	}
	return out, touched, nil
}

func sanitizeSide(role string, side map[string]any) []string {
	var touched []string
	for k := range side {
		if !slices.Contains(partyFieldNames, k) {
			delete(side, k)
			touched = append(touched, role+"."+k+"(unknown)")
		}
	}
	for _, k := range partyFieldNames {
		v, ok := side[k]
		if !ok {
			continue
		}
		switch t := v.(type) {
		case nil:
		case string:
			s := strings.TrimSpace(t)
			if s == "" {
				side[k] = nil
				touched = append(touched, role+"."+k+"(empty)")
			} else {
				side[k] = s
			}
		case float64:
			side[k] = strconv.FormatFloat(t, 'f', -1, 64)
			touched = append(touched, role+"."+k+"(number)")
		case bool:
			side[k] = strconv.FormatBool(t)
			touched = append(touched, role+"."+k+"(bool)")
		default:
			side[k] = nil
			touched = append(touched, role+"."+k+"(type)")
		}
	}
	return touched
}

// sideFromMap reads one side after sanitizing it in place.
func sideFromMap(side map[string]any) PartyFields {
	sanitizeSide("", side)
	str := func(k string) *string {
		if s, ok := side[k].(string); ok {
			return &s
		}
		return nil
	}
	return PartyFields{Name: str("name"), Address: str("address"), TaxOffice: str("tax_office")}
}
