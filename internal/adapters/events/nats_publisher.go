package events

import (
	"encoding/json"
	"fmt"
	"log"
	"strconv"
	"time"

	"github.com/nats-io/nats.go"
)

// NATSPublisher broadcasts itinerary changes so other planner services
// (map view, notifications) can refresh without polling.
type NATSPublisher struct {
	nc      *nats.Conn
	metrics PublisherMetrics
}

type PublisherMetrics interface {
	NATSPublishedInc()
	NATSPublishErrInc()
	NATSSetConnected(connected bool)
}

func NewNATSPublisher(url string, m PublisherMetrics) (*NATSPublisher, error) {
	nc, err := nats.Connect(url,
		nats.Name("roadtrip-route-planner"),
		nats.DisconnectHandler(func(_ *nats.Conn) {
			if m != nil {
				m.NATSSetConnected(false)
			}
			log.Printf("nats disconnected")
		}),
		nats.ReconnectHandler(func(_ *nats.Conn) {
			if m != nil {
				m.NATSSetConnected(true)
			}
			log.Printf("nats reconnected")
		}),
		nats.ClosedHandler(func(_ *nats.Conn) {
			if m != nil {
				m.NATSSetConnected(false)
			}
			log.Printf("nats closed")
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS at %s: %w", url, err)
	}
	if m != nil {
		m.NATSSetConnected(true)
	}
	return &NATSPublisher{nc: nc, metrics: m}, nil
}

func (p *NATSPublisher) Close() {
	if p.nc != nil {
		p.nc.Drain()
		p.nc.Close()
	}
}

type ScheduleUpdatedMessage struct {
	RouteID   int64     `json:"routeId"`
	Kind      string    `json:"kind"` // stop|leg
	ID        int64     `json:"id"`
	Timestamp time.Time `json:"timestamp"`
}

type RouteReorderedMessage struct {
	RouteID   int64     `json:"routeId"`
	Timestamp time.Time `json:"timestamp"`
}

func (p *NATSPublisher) PublishScheduleUpdated(routeID int64, kind string, id int64) error {
	subject := "itinerary.schedule." + strconv.FormatInt(routeID, 10)
	return p.publish(subject, ScheduleUpdatedMessage{
		RouteID:   routeID,
		Kind:      kind,
		ID:        id,
		Timestamp: time.Now().UTC(),
	})
}

func (p *NATSPublisher) PublishRouteReordered(routeID int64) error {
	subject := "itinerary.reorder." + strconv.FormatInt(routeID, 10)
	return p.publish(subject, RouteReorderedMessage{
		RouteID:   routeID,
		Timestamp: time.Now().UTC(),
	})
}

func (p *NATSPublisher) publish(subject string, msg any) error {
	b, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", subject, err)
	}
	err = p.nc.Publish(subject, b)
	if p.metrics != nil {
		if err != nil {
			p.metrics.NATSPublishErrInc()
		} else {
			p.metrics.NATSPublishedInc()
		}
	}
	if err != nil {
		return fmt.Errorf("publish %s: %w", subject, err)
	}
	return nil
}
