package mavlink

import (
	"context"
	"fmt"
	"log"
	"math"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/bluenviron/gomavlib/v3"
	"github.com/bluenviron/gomavlib/v3/pkg/dialects/common"
	"github.com/bluenviron/gomavlib/v3/pkg/message"

	"github.com/AryaMajumder/px4-jmavsim/internal/domain"
	"github.com/AryaMajumder/px4-jmavsim/internal/ports"
)

// Config captures the runtime details required to open a MAVLink link.
type Config struct {
	URI      string `yaml:"uri"`
	SystemID byte   `yaml:"system_id"`
}

func (c *Config) ApplyDefaults() {
	if c.URI == "" {
		c.URI = "udp:127.0.0.1:14550"
	}
	if c.SystemID == 0 {
		c.SystemID = 255
	}
}

func (c *Config) Validate() error {
	_, err := endpointFromURI(c.URI)
	return err
}

// Source reads typed telemetry events from a MAVLink endpoint. Reconnects on
// dropped endpoints are handled by the library.
type Source struct {
	node      *gomavlib.Node
	events    chan gomavlib.Event
	closeOnce sync.Once
}

// Connect opens the link described by cfg.URI and starts the node.
func Connect(cfg Config) (*Source, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	ep, err := endpointFromURI(cfg.URI)
	if err != nil {
		return nil, err
	}

	node := &gomavlib.Node{
		Endpoints:   []gomavlib.EndpointConf{ep},
		Dialect:     common.Dialect,
		OutVersion:  gomavlib.V2,
		OutSystemID: cfg.SystemID,
	}
	if err := node.Initialize(); err != nil {
		return nil, fmt.Errorf("mavlink connect %q: %w", cfg.URI, err)
	}

	return &Source{node: node, events: node.Events()}, nil
}

// WaitLiveness consumes link events until a heartbeat arrives or the timeout
// elapses. Frames drained while waiting are discarded; the stream has not
// started being bridged yet.
func (s *Source) WaitLiveness(ctx context.Context, timeout time.Duration) bool {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return false
		case <-timer.C:
			return false
		case evt, ok := <-s.events:
			if !ok {
				return false
			}
			if frm, ok := evt.(*gomavlib.EventFrame); ok {
				if _, ok := frm.Message().(*common.MessageHeartbeat); ok {
					return true
				}
			}
		}
	}
}

// ReadNext returns the next raw event, or (nil, nil) when nothing arrived
// within the timeout. Parse failures surface as errors; channel open/close
// notifications are logged and skipped.
func (s *Source) ReadNext(ctx context.Context, timeout time.Duration) (domain.RawEvent, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-timer.C:
			return nil, nil
		case evt, ok := <-s.events:
			if !ok {
				return nil, fmt.Errorf("mavlink: event channel closed")
			}
			switch e := evt.(type) {
			case *gomavlib.EventFrame:
				return eventFromMessage(e.Message()), nil
			case *gomavlib.EventParseError:
				return nil, fmt.Errorf("mavlink: parse error: %w", e.Error)
			case *gomavlib.EventChannelOpen:
				log.Printf("mavlink: channel open")
			case *gomavlib.EventChannelClose:
				log.Printf("mavlink: channel close")
			}
		}
	}
}

func (s *Source) Close() error {
	s.closeOnce.Do(func() {
		s.node.Close()
	})
	return nil
}

// eventFromMessage maps a decoded MAVLink message to the bridge's tagged
// variants. Sentinel values meaning "unknown" on the wire become absent
// fields here.
func eventFromMessage(msg message.Message) domain.RawEvent {
	switch m := msg.(type) {
	case *common.MessageGlobalPositionInt:
		ev := &domain.PositionEvent{Lat: m.Lat, Lon: m.Lon, Alt: m.Alt}
		rel := m.RelativeAlt
		ev.RelativeAlt = &rel
		vx, vy, vz := m.Vx, m.Vy, m.Vz
		ev.Vx, ev.Vy, ev.Vz = &vx, &vy, &vz
		if m.Hdg != math.MaxUint16 {
			hdg := m.Hdg
			ev.Hdg = &hdg
		}
		return ev

	case *common.MessageVfrHud:
		alt := float64(m.Alt)
		airspeed := float64(m.Airspeed)
		groundspeed := float64(m.Groundspeed)
		throttle := float64(m.Throttle)
		return &domain.FlightStatusEvent{
			Alt:         &alt,
			Airspeed:    &airspeed,
			Groundspeed: &groundspeed,
			Throttle:    &throttle,
		}

	case *common.MessageGpsRawInt:
		ev := &domain.RawGPSEvent{Lat: m.Lat, Lon: m.Lon, Alt: m.Alt}
		if m.Eph != math.MaxUint16 {
			eph := m.Eph
			ev.Eph = &eph
		}
		if m.Epv != math.MaxUint16 {
			epv := m.Epv
			ev.Epv = &epv
		}
		return ev

	default:
		return &domain.UnknownEvent{Name: fmt.Sprintf("%T", msg)}
	}
}

// endpointFromURI maps pymavlink-style connection strings onto gomavlib
// endpoint configurations.
func endpointFromURI(uri string) (gomavlib.EndpointConf, error) {
	scheme, rest, ok := strings.Cut(uri, ":")
	if !ok || rest == "" {
		return nil, fmt.Errorf("mavlink: malformed uri %q", uri)
	}

	switch scheme {
	case "udp", "udpin":
		return gomavlib.EndpointUDPServer{Address: rest}, nil
	case "udpout":
		return gomavlib.EndpointUDPClient{Address: rest}, nil
	case "tcp", "tcpout":
		return gomavlib.EndpointTCPClient{Address: rest}, nil
	case "tcpin":
		return gomavlib.EndpointTCPServer{Address: rest}, nil
	case "serial":
		device, baudStr, ok := strings.Cut(rest, ":")
		baud := 57600
		if ok {
			parsed, err := strconv.Atoi(baudStr)
			if err != nil || parsed <= 0 {
				return nil, fmt.Errorf("mavlink: bad baud rate in %q", uri)
			}
			baud = parsed
		}
		return gomavlib.EndpointSerial{Device: device, Baud: baud}, nil
	default:
		return nil, fmt.Errorf("mavlink: unsupported scheme %q in %q", scheme, uri)
	}
}

var _ ports.TelemetrySource = (*Source)(nil)
