package events

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
)

// contentTypeHdr names the payload encoding on every published message.
const contentTypeHdr = "Content-Type"

// Message is one event received from NATS. Topic is the concrete subject
// the event was published on, not the pattern it was subscribed with.
type Message struct {
	Topic string
	ID    string // transition ID, empty for other events
	Data  []byte
}

// Decode unmarshals the payload of m into a T.
func Decode[T any](m Message) (T, error) {
	var v T
	if err := json.Unmarshal(m.Data, &v); err != nil {
		return v, fmt.Errorf("decoding %s: %w", m.Topic, err)
	}
	return v, nil
}

// Transition decodes m when it was published on a transition topic.
func (m Message) Transition() (Transition, bool) {
	if !MatchTopic(TopicTransitionAll, m.Topic) {
		return Transition{}, false
	}
	tr, err := Decode[Transition](m)
	if err != nil || tr.IssueKey == "" {
		return Transition{}, false
	}
	return tr, true
}

// Subscriber receives events from NATS.
type Subscriber interface {
	Subscribe(pattern string) (<-chan Message, func(), error)
	Close() error
}

func connect(url string, opts ...nats.Option) (*nats.Conn, error) {
	defaults := []nats.Option{
		nats.Name("jiranimo"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(time.Second),
	}
	nc, err := nats.Connect(url, append(defaults, opts...)...)
	if err != nil {
		return nil, fmt.Errorf("connecting to NATS at %s: %w", url, err)
	}
	return nc, nil
}

// NATSPublisher publishes events as JSON with the topic as the subject.
// Transitions carry their ID in the Nats-Msg-Id header.
type NATSPublisher struct {
	conn *nats.Conn
}

func NewNATSPublisher(url string, opts ...nats.Option) (*NATSPublisher, error) {
	nc, err := connect(url, opts...)
	if err != nil {
		return nil, err
	}
	return &NATSPublisher{conn: nc}, nil
}

func (p *NATSPublisher) Publish(ctx context.Context, topic string, event any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshaling %s event: %w", topic, err)
	}
	msg := nats.NewMsg(topic)
	msg.Data = data
	msg.Header.Set(contentTypeHdr, "application/json")
	if id := transitionID(event); id != "" {
		msg.Header.Set(nats.MsgIdHdr, id)
	}
	if err := p.conn.PublishMsg(msg); err != nil {
		return fmt.Errorf("publishing %s: %w", topic, err)
	}
	return nil
}

func transitionID(event any) string {
	switch ev := event.(type) {
	case Transition:
		return ev.ID
	case *Transition:
		if ev != nil {
			return ev.ID
		}
	}
	return ""
}

func (p *NATSPublisher) Close() error {
	p.conn.Close()
	return nil
}

// NATSSubscriber receives board events from NATS subjects.
type NATSSubscriber struct {
	conn *nats.Conn
}

// NewNATSSubscriber connects to NATS, reconnecting forever. Extra options
// (disconnect and reconnect handlers) are applied after the defaults.
func NewNATSSubscriber(url string, opts ...nats.Option) (*NATSSubscriber, error) {
	nc, err := connect(url, opts...)
	if err != nil {
		return nil, err
	}
	return &NATSSubscriber{conn: nc}, nil
}

// Subscribe delivers every event whose topic matches pattern ("jiranimo.>",
// "jiranimo.transition.*"). Messages are dropped while the channel is full.
// The returned cancel unsubscribes and closes the channel.
func (s *NATSSubscriber) Subscribe(pattern string) (<-chan Message, func(), error) {
	ch := make(chan Message, 64)

	var (
		mu     sync.Mutex
		closed bool
		once   sync.Once
	)

	sub, err := s.conn.Subscribe(pattern, func(msg *nats.Msg) {
		m := Message{Topic: msg.Subject, Data: msg.Data}
		if msg.Header != nil {
			m.ID = msg.Header.Get(nats.MsgIdHdr)
		}
		mu.Lock()
		defer mu.Unlock()
		if closed {
			return
		}
		select {
		case ch <- m:
		default:
		}
	})
	if err != nil {
		close(ch)
		return nil, nil, fmt.Errorf("subscribing to %s: %w", pattern, err)
	}
	// The subscription must reach the server before events published on
	// other connections are routed to it.
	if err := s.conn.Flush(); err != nil {
		_ = sub.Unsubscribe()
		close(ch)
		return nil, nil, fmt.Errorf("flushing subscription: %w", err)
	}

	cancel := func() {
		once.Do(func() {
			_ = sub.Unsubscribe()
			mu.Lock()
			closed = true
			mu.Unlock()
			for {
				select {
				case <-ch:
				default:
					close(ch)
					return
				}
			}
		})
	}
	return ch, cancel, nil
}

func (s *NATSSubscriber) Close() error {
	s.conn.Close()
	return nil
}
