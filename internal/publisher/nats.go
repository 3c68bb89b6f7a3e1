package publisher

import (
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"shuttle/internal/domain/models"

	"github.com/nats-io/nats.go"
)

// LocationPublisher fans out recorded vehicle samples. Implementations must
// not block the request for long; callers treat failures as best-effort.
type LocationPublisher interface {
	PublishLocation(loc models.VehicleLocation) error
}

type PublisherMetrics interface {
	NATSPublishErrInc()
	NATSSetConnected(connected bool)
}

type NATSPublisher struct {
	nc      *nats.Conn
	prefix  string
	metrics PublisherMetrics
}

func NewNATSPublisher(url, subjectPrefix string, m PublisherMetrics) (*NATSPublisher, error) {
	nc, err := nats.Connect(url,
		nats.Name("shuttle-backend"),
		nats.DisconnectHandler(func(_ *nats.Conn) {
			if m != nil {
				m.NATSSetConnected(false)
			}
			log.Printf("[NATS] disconnected")
		}),
		nats.ReconnectHandler(func(_ *nats.Conn) {
			if m != nil {
				m.NATSSetConnected(true)
			}
			log.Printf("[NATS] reconnected")
		}),
		nats.ClosedHandler(func(_ *nats.Conn) {
			if m != nil {
				m.NATSSetConnected(false)
			}
			log.Printf("[NATS] closed")
		}),
	)
	if err != nil {
		return nil, err
	}
	if m != nil {
		m.NATSSetConnected(true)
	}
	return &NATSPublisher{nc: nc, prefix: subjectPrefix, metrics: m}, nil
}

func (p *NATSPublisher) Close() {
	if p.nc != nil {
		_ = p.nc.Drain()
		p.nc.Close()
	}
}

// PositionMessage is the wire payload on <prefix>.<vehicle_id>.
type PositionMessage struct {
	VehicleID int64     `json:"vehicleId"`
	Timestamp time.Time `json:"timestamp"`
	Lat       float64   `json:"lat"`
	Lon       float64   `json:"lon"`
	Speed     float64   `json:"speed"`
	Heading   float64   `json:"heading"`
}

func NewPositionMessage(loc models.VehicleLocation) PositionMessage {
	return PositionMessage{
		VehicleID: loc.VehicleID,
		Timestamp: loc.RecordedAt.UTC(),
		Lat:       loc.Latitude,
		Lon:       loc.Longitude,
		Speed:     loc.Speed,
		Heading:   loc.Heading,
	}
}

func (p *NATSPublisher) PublishLocation(loc models.VehicleLocation) error {
	b, err := json.Marshal(NewPositionMessage(loc))
	if err != nil {
		return err
	}
	err = p.nc.Publish(Subject(p.prefix, loc.VehicleID), b)
	if err != nil && p.metrics != nil {
		p.metrics.NATSPublishErrInc()
	}
	return err
}

// Subject builds the per-vehicle subject, defaulting the prefix.
func Subject(prefix string, vehicleID int64) string {
	prefix = strings.Trim(strings.TrimSpace(prefix), ".")
	if prefix == "" {
		prefix = "shuttle.vehicles"
	}
	repl := strings.NewReplacer(" ", "_", ">", "_", "*", "_", "\t", "_")
	return fmt.Sprintf("%s.%d", repl.Replace(prefix), vehicleID)
}
