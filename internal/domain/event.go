package domain

// EventType tags the raw telemetry variants read from the vehicle link.
type EventType string

const (
	EventPosition     EventType = "GLOBAL_POSITION_INT"
	EventFlightStatus EventType = "VFR_HUD"
	EventRawGPS       EventType = "GPS_RAW_INT"
)

// RawEvent is one typed telemetry event observed on the link. Each variant
// declares its field set statically; optional fields are nil when the source
// did not supply a usable value.
type RawEvent interface {
	Type() EventType
}

// PositionEvent carries the fused global position estimate. Latitude and
// longitude are fixed-point degrees scaled by 1e7, altitudes are millimeters,
// velocities are cm/s, and heading is centidegrees.
type PositionEvent struct {
	Lat int32
	Lon int32
	Alt int32

	RelativeAlt *int32
	Vx          *int16
	Vy          *int16
	Vz          *int16
	Hdg         *uint16
}

func (*PositionEvent) Type() EventType { return EventPosition }

// FlightStatusEvent carries HUD-style flight data, all in SI units already.
type FlightStatusEvent struct {
	Velocity    *float64
	Alt         *float64
	Airspeed    *float64
	Groundspeed *float64
	Throttle    *float64
}

func (*FlightStatusEvent) Type() EventType { return EventFlightStatus }

// RawGPSEvent carries the unfused GPS fix. Same scaling as PositionEvent for
// lat/lon/alt; eph/epv are the receiver's dimensionless error estimates.
type RawGPSEvent struct {
	Lat int32
	Lon int32
	Alt int32

	Eph *uint16
	Epv *uint16
}

func (*RawGPSEvent) Type() EventType { return EventRawGPS }

// UnknownEvent stands in for every message type the bridge observes but does
// not republish. It still consumes a sequence number.
type UnknownEvent struct {
	Name string
}

func (u *UnknownEvent) Type() EventType { return EventType(u.Name) }
