package domain

import (
	"math"
	"time"
)

// Normalize maps a raw telemetry event to a Record, or nil when the event is
// not republished. Unrecognized event types are dropped silently; so is any
// recognized event carrying a malformed numeric value, rather than emitting a
// partially populated record.
func Normalize(ev RawEvent, seq uint64, now time.Time) *Record {
	if ev == nil {
		return nil
	}

	fields := make(map[string]float64, 8)

	switch e := ev.(type) {
	case *PositionEvent:
		fields["lat"] = float64(e.Lat) / 1e7
		fields["lon"] = float64(e.Lon) / 1e7
		fields["alt"] = float64(e.Alt) / 1000.0
		if e.RelativeAlt != nil {
			fields["relative_alt"] = float64(*e.RelativeAlt) / 1000.0
		}
		if e.Vx != nil {
			fields["vx"] = float64(*e.Vx)
		}
		if e.Vy != nil {
			fields["vy"] = float64(*e.Vy)
		}
		if e.Vz != nil {
			fields["vz"] = float64(*e.Vz)
		}
		if e.Hdg != nil {
			fields["hdg"] = float64(*e.Hdg) / 100.0
		}

	case *FlightStatusEvent:
		putOptional(fields, "velocity", e.Velocity)
		putOptional(fields, "alt", e.Alt)
		putOptional(fields, "airspeed", e.Airspeed)
		putOptional(fields, "groundspeed", e.Groundspeed)
		putOptional(fields, "throttle", e.Throttle)

	case *RawGPSEvent:
		fields["lat"] = float64(e.Lat) / 1e7
		fields["lon"] = float64(e.Lon) / 1e7
		fields["alt"] = float64(e.Alt) / 1000.0
		if e.Eph != nil {
			fields["eph"] = float64(*e.Eph)
		}
		if e.Epv != nil {
			fields["epv"] = float64(*e.Epv)
		}

	default:
		return nil
	}

	for _, v := range fields {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil
		}
	}

	deriveVelocity(fields)

	return &Record{
		Seq:       seq,
		Timestamp: float64(now.UnixNano()) / 1e9,
		Fields:    fields,
	}
}

func putOptional(fields map[string]float64, key string, v *float64) {
	if v != nil {
		fields[key] = *v
	}
}

// deriveVelocity synthesizes a planar speed from the cm/s velocity components
// when the event did not carry one directly. The raw vx/vy keys are removed
// afterwards so all event types publish velocity in the same shape; vz stays.
func deriveVelocity(fields map[string]float64) {
	if _, ok := fields["velocity"]; ok {
		return
	}
	vx, hasVx := fields["vx"]
	vy, hasVy := fields["vy"]
	if !hasVx && !hasVy {
		return
	}
	vxMS, vyMS := vx/100.0, vy/100.0
	fields["velocity"] = math.Sqrt(vxMS*vxMS + vyMS*vyMS)
	delete(fields, "vx")
	delete(fields, "vy")
}
