package domain

import (
	"math"
	"strings"
	"testing"
	"time"
)

func i32(v int32) *int32 { return &v }
func i16(v int16) *int16 { return &v }
func u16(v uint16) *uint16 { return &v }
func f64(v float64) *float64 { return &v }

func TestNormalizePositionScaling(t *testing.T) {
	ev := &PositionEvent{
		Lat:         473397000,
		Lon:         85550500,
		Alt:         500000,
		RelativeAlt: i32(10000),
	}

	rec := Normalize(ev, 1, time.Unix(100, 0))
	if rec == nil {
		t.Fatalf("expected record for valid position event")
	}
	if got := rec.Fields["lat"]; got != 47.3397 {
		t.Fatalf("expected lat 47.3397, got %v", got)
	}
	if got := rec.Fields["lon"]; got != 8.55505 {
		t.Fatalf("expected lon 8.55505, got %v", got)
	}
	if got := rec.Fields["alt"]; got != 500.0 {
		t.Fatalf("expected alt 500.0, got %v", got)
	}
	if got := rec.Fields["relative_alt"]; got != 10.0 {
		t.Fatalf("expected relative_alt 10.0, got %v", got)
	}
	if rec.Seq != 1 {
		t.Fatalf("expected seq 1, got %d", rec.Seq)
	}
	if rec.Timestamp != 100.0 {
		t.Fatalf("expected timestamp 100.0, got %v", rec.Timestamp)
	}
}

func TestNormalizeOmitsAbsentFields(t *testing.T) {
	ev := &PositionEvent{Lat: 1, Lon: 2, Alt: 3}

	rec := Normalize(ev, 1, time.Unix(0, 0))
	if rec == nil {
		t.Fatalf("expected record")
	}
	for _, key := range []string{"relative_alt", "vx", "vy", "vz", "hdg", "velocity"} {
		if _, ok := rec.Fields[key]; ok {
			t.Fatalf("expected %q to be omitted, got %v", key, rec.Fields[key])
		}
	}
}

func TestNormalizeDerivedVelocity(t *testing.T) {
	ev := &PositionEvent{
		Lat: 1, Lon: 2, Alt: 3,
		Vx: i16(300), // 3 m/s
		Vy: i16(400), // 4 m/s
		Vz: i16(-50),
	}

	rec := Normalize(ev, 1, time.Unix(0, 0))
	if rec == nil {
		t.Fatalf("expected record")
	}
	if got := rec.Fields["velocity"]; got != 5.0 {
		t.Fatalf("expected derived velocity 5.0, got %v", got)
	}
	if _, ok := rec.Fields["vx"]; ok {
		t.Fatalf("expected vx to be consumed by velocity derivation")
	}
	if _, ok := rec.Fields["vy"]; ok {
		t.Fatalf("expected vy to be consumed by velocity derivation")
	}
	if got := rec.Fields["vz"]; got != -50 {
		t.Fatalf("expected vz to survive, got %v", got)
	}
}

func TestNormalizeKeepsExplicitVelocity(t *testing.T) {
	ev := &FlightStatusEvent{
		Velocity: f64(12.5),
		Alt:      f64(120.0),
	}

	rec := Normalize(ev, 1, time.Unix(0, 0))
	if rec == nil {
		t.Fatalf("expected record")
	}
	if got := rec.Fields["velocity"]; got != 12.5 {
		t.Fatalf("expected velocity 12.5, got %v", got)
	}
	if _, ok := rec.Fields["airspeed"]; ok {
		t.Fatalf("expected airspeed to be omitted")
	}
}

func TestNormalizeRawGPS(t *testing.T) {
	ev := &RawGPSEvent{
		Lat: 473397000,
		Lon: 85550500,
		Alt: 488000,
		Eph: u16(121),
	}

	rec := Normalize(ev, 9, time.Unix(0, 0))
	if rec == nil {
		t.Fatalf("expected record")
	}
	if got := rec.Fields["lat"]; got != 47.3397 {
		t.Fatalf("expected lat 47.3397, got %v", got)
	}
	if got := rec.Fields["eph"]; got != 121 {
		t.Fatalf("expected eph 121, got %v", got)
	}
	if _, ok := rec.Fields["epv"]; ok {
		t.Fatalf("expected epv to be omitted")
	}
}

func TestNormalizeDropsUnknownType(t *testing.T) {
	if rec := Normalize(&UnknownEvent{Name: "ATTITUDE"}, 1, time.Unix(0, 0)); rec != nil {
		t.Fatalf("expected nil for unknown event, got %+v", rec)
	}
	if rec := Normalize(nil, 1, time.Unix(0, 0)); rec != nil {
		t.Fatalf("expected nil for nil event")
	}
}

func TestNormalizeDropsMalformedValues(t *testing.T) {
	ev := &FlightStatusEvent{
		Velocity: f64(math.NaN()),
		Alt:      f64(100),
	}
	if rec := Normalize(ev, 1, time.Unix(0, 0)); rec != nil {
		t.Fatalf("expected whole record to be discarded on NaN, got %+v", rec)
	}

	ev = &FlightStatusEvent{Airspeed: f64(math.Inf(1))}
	if rec := Normalize(ev, 1, time.Unix(0, 0)); rec != nil {
		t.Fatalf("expected whole record to be discarded on Inf, got %+v", rec)
	}
}

func TestRecordEncodeSortedCompact(t *testing.T) {
	rec := &Record{
		Seq:       7,
		Timestamp: 1700000000.25,
		Fields:    map[string]float64{"lat": 47.3397, "alt": 500},
	}

	payload, err := rec.Encode()
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	got := string(payload)
	want := `{"alt":500,"lat":47.3397,"seq":7,"timestamp":1700000000.25}`
	if got != want {
		t.Fatalf("unexpected payload:\n got %s\nwant %s", got, want)
	}
	if strings.ContainsAny(got, " \n\t") {
		t.Fatalf("payload must not contain whitespace: %s", got)
	}
}
