package flow

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/apache/pulsar-client-go/pulsar"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"example.com/average-calculator/src/prom_metrics"
)

// Delivery results of window events.
const (
	EventOK      = "ok"
	EventDropped = "dropped"
	EventTimeout = "timeout"
	EventError   = "error"
)

// WindowEvent describes one successful window update.
type WindowEvent struct {
	Category        string    `json:"category"`
	WindowPrevState []int     `json:"windowPrevState"`
	WindowCurrState []int     `json:"windowCurrState"`
	Numbers         []int     `json:"numbers"`
	Avg             float64   `json:"avg"`
	Time            time.Time `json:"time"`
}

// Publisher receives window events. Publish must not block.
type Publisher interface {
	Publish(event *WindowEvent)
}

type ChannelPublisher struct {
	events  chan *WindowEvent
	metrics *prom_metrics.Prom_metrics

	mutex  sync.Mutex
	closed bool
}

func NewChannelPublisher(size int, metrics *prom_metrics.Prom_metrics) *ChannelPublisher {
	return &ChannelPublisher{
		events:  make(chan *WindowEvent, size),
		metrics: metrics,
	}
}

// Publish queues event without blocking. Events published after Close are
// dropped.
func (p *ChannelPublisher) Publish(event *WindowEvent) {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	if p.closed {
		logrus.Warnf("publisher.publish %s: publisher closed, dropping event", event.Category)
		p.metrics.Inc_window_events(EventDropped)
		return
	}

	select {
	case p.events <- event:
	default:
		logrus.Warnf("publisher.publish %s: queue full, dropping event", event.Category)
		p.metrics.Inc_window_events(EventDropped)
	}
}

func (p *ChannelPublisher) Events() <-chan *WindowEvent {
	return p.events
}

// Close stops the producer loop once the queued events are sent.
func (p *ChannelPublisher) Close() {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	if !p.closed {
		p.closed = true
		close(p.events)
	}
}

// AsyncSender is the part of pulsar.Producer the event loop needs.
type AsyncSender interface {
	SendAsync(ctx context.Context, msg *pulsar.ProducerMessage, callback func(pulsar.MessageID, *pulsar.ProducerMessage, error))
}

func Producer(events <-chan *WindowEvent, producer AsyncSender, metrics *prom_metrics.Prom_metrics) {
	for event := range events {
		payload, err := json.Marshal(event)
		if err != nil {
			logrus.Errorf("Producer marshal: %+v", err)
			continue
		}
		producer.SendAsync(
			context.Background(),
			&pulsar.ProducerMessage{
				Payload:   payload,
				Key:       event.Category,
				EventTime: event.Time,
			},
			send_callback(event.Category, metrics),
		)
	}
}

func send_callback(category string, metrics *prom_metrics.Prom_metrics) func(msgID pulsar.MessageID, pm *pulsar.ProducerMessage, err error) {
	return func(msgID pulsar.MessageID, pm *pulsar.ProducerMessage, err error) {
		if err != nil {
			logrus.Warnf("Producer send %s: %+v", category, err)
			metrics.Inc_window_events(send_result(err))
		} else {
			metrics.Inc_window_events(EventOK)
		}
	}
}

func send_result(err error) string {
	var pulsar_err *pulsar.Error
	if errors.Is(err, context.DeadlineExceeded) ||
		(errors.As(err, &pulsar_err) && pulsar_err.Result() == pulsar.TimeoutError) {
		return EventTimeout
	}
	return EventError
}
