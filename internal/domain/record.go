package domain

import "encoding/json"

// Record is the normalized telemetry unit that flows through the bridge.
// Seq and Timestamp are always present; Fields holds only the values the
// source actually supplied, so unknown fields never appear in the payload.
type Record struct {
	Seq       uint64
	Timestamp float64
	Fields    map[string]float64
}

// Encode renders the record as a single flat JSON object with keys sorted
// lexicographically and no whitespace, ready for publishing.
func (r *Record) Encode() ([]byte, error) {
	m := make(map[string]any, len(r.Fields)+2)
	for k, v := range r.Fields {
		m[k] = v
	}
	m["seq"] = r.Seq
	m["timestamp"] = r.Timestamp
	return json.Marshal(m)
}
