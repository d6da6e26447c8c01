package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"
)

// Composite fields are stored as JSON text. Absent or NULL text decodes to
// an empty container; empty containers encode as "[]" or "{}" so a decoded
// value re-encodes to the same text.

func encodeJSON(field string, v any, empty string) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("encode %s: %w", field, err)
	}
	if string(data) == "null" {
		return empty, nil
	}
	return string(data), nil
}

func decodeJSON(field string, raw sql.NullString, into any) error {
	if !raw.Valid || raw.String == "" || raw.String == "null" {
		return nil
	}
	if err := json.Unmarshal([]byte(raw.String), into); err != nil {
		return &DecodeError{Field: field, Raw: raw.String, Err: err}
	}
	return nil
}

func EncodeStrings(field string, v []string) (string, error) {
	return encodeJSON(field, v, "[]")
}

func DecodeStrings(field string, raw sql.NullString) ([]string, error) {
	out := []string{}
	if err := decodeJSON(field, raw, &out); err != nil {
		return []string{}, err
	}
	return out, nil
}

func EncodeInts(field string, v []int) (string, error) {
	return encodeJSON(field, v, "[]")
}

func DecodeInts(field string, raw sql.NullString) ([]int, error) {
	out := []int{}
	if err := decodeJSON(field, raw, &out); err != nil {
		return []int{}, err
	}
	return out, nil
}

func EncodeIntMap[V int | int64](field string, v map[string]V) (string, error) {
	return encodeJSON(field, v, "{}")
}

func DecodeIntMap[V int | int64](field string, raw sql.NullString) (map[string]V, error) {
	out := map[string]V{}
	if err := decodeJSON(field, raw, &out); err != nil {
		return map[string]V{}, err
	}
	return out, nil
}

func EncodeFloatMap(field string, v map[string]float64) (string, error) {
	return encodeJSON(field, v, "{}")
}

func DecodeFloatMap(field string, raw sql.NullString) (map[string]float64, error) {
	out := map[string]float64{}
	if err := decodeJSON(field, raw, &out); err != nil {
		return map[string]float64{}, err
	}
	return out, nil
}

// EncodeEpoch maps an optional epoch-millis value to a nullable column.
func EncodeEpoch(v *int64) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *v, Valid: true}
}

func DecodeEpoch(v sql.NullInt64) *int64 {
	if !v.Valid {
		return nil
	}
	ms := v.Int64
	return &ms
}
