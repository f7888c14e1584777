package webhook

import (
	"encoding/json"
	"strconv"
	"strings"
)

// Record types accepted on the generic webhook route.
const (
	TypeTransaction  = "transaction"
	TypeUser         = "user"
	TypeVerification = "verification"
)

// ChangeRecord is one backend change as delivered by the record store. Record
// is kept untyped: the store sends whatever columns the collection has.
type ChangeRecord struct {
	Type   string         `json:"type"`
	Record map[string]any `json:"record"`
}

func (r ChangeRecord) str(keys ...string) string {
	for _, k := range keys {
		switch v := r.Record[k].(type) {
		case string:
			if v = strings.TrimSpace(v); v != "" {
				return v
			}
		case json.Number:
			return v.String()
		case float64:
			return strconv.FormatFloat(v, 'f', -1, 64)
		}
	}
	return ""
}

// number reads numeric ids that arrive either as JSON numbers or as strings.
func (r ChangeRecord) number(key string) int64 {
	switch v := r.Record[key].(type) {
	case float64:
		return int64(v)
	case json.Number:
		n, _ := v.Int64()
		return n
	case string:
		n, _ := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		return n
	}
	return 0
}

func (r ChangeRecord) float(key string) float64 {
	switch v := r.Record[key].(type) {
	case float64:
		return v
	case json.Number:
		f, _ := v.Float64()
		return f
	case string:
		f, _ := strconv.ParseFloat(strings.TrimSpace(v), 64)
		return f
	}
	return 0
}
