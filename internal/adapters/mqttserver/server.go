// Package mqttserver is the daemon side MQTT connection: console nodes
// publish presence and replies through it and receive commands from it.
package mqttserver

import (
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap"

	"github.com/mikey-austin/simplert/internal/adapters/tlsconf"
)

const (
	defaultConnectTimeout = 2 * time.Second
	disconnectQuiesceMS   = 250
	maxLoggedPayload      = 2048
)

// Options describes the broker and credentials of a node connection.
type Options struct {
	BrokerURL string
	ClientID  string
	Username  string
	Password  string
	TLSCA     string
	TLSCert   string
	TLSKey    string
	Timeout   time.Duration
	Logger    *zap.Logger

	// Debug logs every publish, subscription and received message.
	Debug bool

	// WillTopic, when set, receives an empty retained message if the
	// connection drops, clearing the node's presence.
	WillTopic string
}

// Handler receives a message payload.
type Handler func(topic string, payload []byte)

// Client is a connected node session.
type Client struct {
	conn  paho.Client
	log   *zap.Logger
	debug bool
}

// NewClient dials the broker and blocks until the session is up.
func NewClient(opts Options) (*Client, error) {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	clientOpts, err := pahoOptions(opts)
	if err != nil {
		return nil, err
	}

	conn := paho.NewClient(clientOpts)
	if err := wait(conn.Connect()); err != nil {
		return nil, err
	}
	return &Client{conn: conn, log: opts.Logger, debug: opts.Debug}, nil
}

func pahoOptions(opts Options) (*paho.ClientOptions, error) {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultConnectTimeout
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}

	o := paho.NewClientOptions().
		AddBroker(opts.BrokerURL).
		SetClientID(opts.ClientID).
		SetConnectTimeout(timeout).
		SetAutoReconnect(true).
		SetConnectionLostHandler(func(_ paho.Client, err error) {
			log.Warn("mqtt connection lost", zap.Error(err))
		})
	if opts.WillTopic != "" {
		o.SetBinaryWill(opts.WillTopic, nil, 1, true)
	}
	if opts.Username != "" {
		o.SetUsername(opts.Username).SetPassword(opts.Password)
	}

	tlsConfig, err := tlsconf.Client(opts.TLSCA, opts.TLSCert, opts.TLSKey)
	if err != nil {
		return nil, err
	}
	if tlsConfig != nil {
		o.SetTLSConfig(tlsConfig)
	}
	return o, nil
}

// Publish sends payload and waits for the broker to accept it.
func (c *Client) Publish(topic string, qos byte, retained bool, payload []byte) error {
	c.trace("mqtt publish", topic, payload)
	return wait(c.conn.Publish(topic, qos, retained, payload))
}

// Subscribe routes messages on topic to handler.
func (c *Client) Subscribe(topic string, qos byte, handler Handler) error {
	c.trace("mqtt subscribe", topic, nil)
	return wait(c.conn.Subscribe(topic, qos, func(_ paho.Client, msg paho.Message) {
		c.trace("mqtt message", msg.Topic(), msg.Payload())
		handler(msg.Topic(), msg.Payload())
	}))
}

// Unsubscribe stops delivery for topic.
func (c *Client) Unsubscribe(topic string) error {
	c.trace("mqtt unsubscribe", topic, nil)
	return wait(c.conn.Unsubscribe(topic))
}

// Close disconnects after letting in-flight work settle.
func (c *Client) Close() {
	c.conn.Disconnect(disconnectQuiesceMS)
}

func (c *Client) trace(msg, topic string, payload []byte) {
	if !c.debug {
		return
	}
	fields := []zap.Field{zap.String("topic", topic)}
	if payload != nil {
		fields = append(fields, zap.Int("bytes", len(payload)), zap.String("payload", truncatePayload(payload)))
	}
	c.log.Debug(msg, fields...)
}

func wait(token paho.Token) error {
	token.Wait()
	return token.Error()
}

func truncatePayload(payload []byte) string {
	if len(payload) <= maxLoggedPayload {
		return string(payload)
	}
	return string(payload[:maxLoggedPayload]) + "..."
}
