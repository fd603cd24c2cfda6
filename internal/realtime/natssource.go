package realtime

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"
)

// NATSConfig holds settings for the NATS-backed event source.
type NATSConfig struct {
	URL           string
	SubjectPrefix string
	MaxReconnects int
	ReconnectWait time.Duration
	BufferSize    int
}

// DefaultNATSConfig returns settings for a co-located broker.
func DefaultNATSConfig() NATSConfig {
	return NATSConfig{
		URL:           nats.DefaultURL,
		SubjectPrefix: "trackrating",
		MaxReconnects: -1,
		ReconnectWait: 2 * time.Second,
		BufferSize:    256,
	}
}

// NATSSource implements EventSource over a NATS subscription. Used when the
// client runs next to the server (overlay sidecars, bots) and the broker
// already carries the canonical broadcast stream. Core NATS preserves
// per-subscription publish order, which satisfies the in-order application
// assumption.
type NATSSource struct {
	config NATSConfig
	nc     *nats.Conn
	sub    *nats.Subscription
	msgCh  chan *nats.Msg
	recv   chan Envelope
	done   chan struct{}
}

// NewNATSSource connects to the broker and subscribes to the event stream.
func NewNATSSource(config NATSConfig) (*NATSSource, error) {
	opts := []nats.Option{
		nats.MaxReconnects(config.MaxReconnects),
		nats.ReconnectWait(config.ReconnectWait),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			log.Error().Err(err).Msg("NATS disconnected")
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info().Str("url", nc.ConnectedUrl()).Msg("NATS reconnected")
		}),
		nats.ErrorHandler(func(nc *nats.Conn, sub *nats.Subscription, err error) {
			log.Error().Err(err).Msg("NATS error")
		}),
	}

	nc, err := nats.Connect(config.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}

	s := &NATSSource{
		config: config,
		nc:     nc,
		msgCh:  make(chan *nats.Msg, config.BufferSize),
		recv:   make(chan Envelope, config.BufferSize),
		done:   make(chan struct{}),
	}

	subject := config.SubjectPrefix + ".events.>"
	sub, err := nc.ChanSubscribe(subject, s.msgCh)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("subscribe %s: %w", subject, err)
	}
	s.sub = sub

	go s.pump()

	log.Info().
		Str("url", config.URL).
		Str("subject", subject).
		Msg("NATS event source started")

	return s, nil
}

func (s *NATSSource) pump() {
	defer close(s.recv)
	for {
		select {
		case <-s.done:
			return
		case msg, ok := <-s.msgCh:
			if !ok {
				return
			}
			env, err := s.decode(msg)
			if err != nil {
				log.Error().Err(err).Str("subject", msg.Subject).Msg("failed to decode event")
				continue
			}
			select {
			case s.recv <- env:
			case <-s.done:
				return
			}
		}
	}
}

// decode parses a broker message. The body is the standard envelope; when
// the event field is empty the subject's last token names the event.
func (s *NATSSource) decode(msg *nats.Msg) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(msg.Data, &env); err != nil {
		return Envelope{}, fmt.Errorf("unmarshal envelope: %w", err)
	}
	if env.Event == "" {
		parts := strings.Split(msg.Subject, ".")
		env.Event = parts[len(parts)-1]
	}
	return env, nil
}

// Receive returns the inbound event stream.
func (s *NATSSource) Receive() <-chan Envelope {
	return s.recv
}

// Emit publishes one intent to the broker's intent subject.
func (s *NATSSource) Emit(event string, payload interface{}) error {
	env := Envelope{Event: event}
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("marshal %s payload: %w", event, err)
		}
		env.Data = data
	}
	raw, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("marshal envelope: %w", err)
	}
	subject := s.config.SubjectPrefix + ".intents." + event
	if err := s.nc.Publish(subject, raw); err != nil {
		log.Warn().Err(err).Str("event", event).Msg("intent publish failed")
	}
	return nil
}

// Close shuts the subscription and connection down.
func (s *NATSSource) Close() error {
	select {
	case <-s.done:
		return nil
	default:
	}
	close(s.done)
	if s.sub != nil {
		s.sub.Unsubscribe()
	}
	s.nc.Close()
	return nil
}
