package realtime

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

// ClientConfig holds websocket transport settings.
type ClientConfig struct {
	URL             string
	WriteTimeout    time.Duration
	ReadTimeout     time.Duration
	PingInterval    time.Duration
	MaxMessageSize  int64
	SendBufferSize  int
	HandshakeHeader map[string][]string
}

// DefaultClientConfig returns transport settings matching the server's
// expectations.
func DefaultClientConfig(url string) ClientConfig {
	return ClientConfig{
		URL:            url,
		WriteTimeout:   10 * time.Second,
		ReadTimeout:    60 * time.Second,
		PingInterval:   30 * time.Second,
		MaxMessageSize: 64 * 1024,
		SendBufferSize: 256,
	}
}

// Client is one live websocket connection to the rating server.
type Client struct {
	id     string
	config ClientConfig
	conn   *websocket.Conn

	send chan []byte
	recv chan Envelope

	closeOnce sync.Once
	done      chan struct{}
}

// Dial opens a websocket connection and starts its read/write pumps.
func Dial(config ClientConfig) (*Client, error) {
	conn, _, err := websocket.DefaultDialer.Dial(config.URL, config.HandshakeHeader)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", config.URL, err)
	}

	c := &Client{
		id:     uuid.New().String(),
		config: config,
		conn:   conn,
		send:   make(chan []byte, config.SendBufferSize),
		recv:   make(chan Envelope, config.SendBufferSize),
		done:   make(chan struct{}),
	}

	go c.writePump()
	go c.readPump()

	log.Info().
		Str("connection_id", c.id).
		Str("url", config.URL).
		Msg("realtime connection established")

	return c, nil
}

// Receive returns the inbound event stream. Events arrive in wire order;
// the channel closes when the connection dies.
func (c *Client) Receive() <-chan Envelope {
	return c.recv
}

// Emit marshals and queues one intent. A closed or saturated connection
// drops the intent: the UI degrades to inert controls rather than blocking.
func (c *Client) Emit(event string, payload interface{}) error {
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

	select {
	case <-c.done:
		log.Debug().Str("event", event).Msg("emit dropped, connection closed")
		return nil
	default:
	}

	select {
	case c.send <- raw:
	default:
		log.Warn().Str("event", event).Msg("send buffer full, dropping intent")
	}
	return nil
}

// Close tears the connection down. Safe to call more than once.
func (c *Client) Close() error {
	c.closeOnce.Do(func() {
		close(c.done)
		c.conn.Close()
	})
	return nil
}

// Done is closed when the connection has terminated for any reason.
func (c *Client) Done() <-chan struct{} {
	return c.done
}

func (c *Client) writePump() {
	ticker := time.NewTicker(c.config.PingInterval)
	defer func() {
		ticker.Stop()
		c.Close()
	}()

	for {
		select {
		case <-c.done:
			c.conn.SetWriteDeadline(time.Now().Add(c.config.WriteTimeout))
			c.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		case message := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(c.config.WriteTimeout))
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				log.Error().
					Err(err).
					Str("connection_id", c.id).
					Msg("failed to write message")
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(c.config.WriteTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				log.Error().
					Err(err).
					Str("connection_id", c.id).
					Msg("failed to send ping")
				return
			}
		}
	}
}

func (c *Client) readPump() {
	defer func() {
		c.Close()
		close(c.recv)
	}()

	c.conn.SetReadLimit(c.config.MaxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(c.config.ReadTimeout))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(c.config.ReadTimeout))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Error().
					Err(err).
					Str("connection_id", c.id).
					Msg("unexpected websocket close")
			}
			return
		}

		var env Envelope
		if err := json.Unmarshal(message, &env); err != nil {
			log.Error().
				Err(err).
				Str("connection_id", c.id).
				Msg("malformed event envelope")
			continue
		}

		select {
		case c.recv <- env:
		case <-c.done:
			return
		}
		c.conn.SetReadDeadline(time.Now().Add(c.config.ReadTimeout))
	}
}
