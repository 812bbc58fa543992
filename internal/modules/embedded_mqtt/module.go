package embeddedmqtt

import (
	"context"
	"errors"
	"fmt"
	"strings"

	mqtt "github.com/mochi-mqtt/server/v2"
	"github.com/mochi-mqtt/server/v2/hooks/auth"
	"github.com/mochi-mqtt/server/v2/listeners"
	"go.uber.org/zap"

	"github.com/mikey-austin/simplert/internal/adapters/tlsconf"
	"github.com/mikey-austin/simplert/pkg/rtproto"
)

// DefaultListen is used when Listen is empty.
const DefaultListen = "127.0.0.1:1883"

// Config configures the embedded MQTT broker.
type Config struct {
	Listen         string
	AllowAnonymous bool
	Username       string
	Password       string
	TLSCA          string
	TLSCert        string
	TLSKey         string
	// TopicBase limits what an authenticated user may touch.
	TopicBase string
}

// Module runs an embedded MQTT broker.
type Module struct {
	log    *zap.Logger
	server *mqtt.Server
	config Config
	ready  chan struct{}
}

// NewModule creates a new embedded broker module.
func NewModule(log *zap.Logger, cfg Config) (*Module, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if strings.TrimSpace(cfg.Listen) == "" {
		cfg.Listen = DefaultListen
	}
	if strings.TrimSpace(cfg.TopicBase) == "" {
		cfg.TopicBase = rtproto.BaseTopic
	}

	server, err := newServer(log, cfg)
	if err != nil {
		return nil, err
	}
	return &Module{log: log, server: server, config: cfg, ready: make(chan struct{})}, nil
}

// Ready is closed once the listener accepts connections.
func (m *Module) Ready() <-chan struct{} {
	return m.ready
}

// Run starts the embedded broker and stops it when ctx ends.
func (m *Module) Run(ctx context.Context) error {
	listenerConfig := listeners.Config{ID: "tcp-embedded", Address: m.config.Listen}
	if m.tlsEnabled() {
		tlsConfig, err := tlsconf.Server(m.config.TLSCert, m.config.TLSKey, m.config.TLSCA)
		if err != nil {
			return err
		}
		listenerConfig.TLSConfig = tlsConfig
	}

	if err := m.server.AddListener(listeners.NewTCP(listenerConfig)); err != nil {
		return fmt.Errorf("listen %s: %w", m.config.Listen, err)
	}
	if err := m.server.Serve(); err != nil {
		return err
	}
	close(m.ready)
	m.log.Info("embedded mqtt listening", zap.String("listen", m.config.Listen), zap.Bool("tls", m.tlsEnabled()))

	<-ctx.Done()
	return m.server.Close()
}

// URL is the address clients use to reach this broker.
func (m *Module) URL() string {
	return BrokerURL(m.config.Listen, m.tlsEnabled())
}

func (m *Module) tlsEnabled() bool {
	return m.config.TLSCert != "" || m.config.TLSKey != "" || m.config.TLSCA != ""
}

func newServer(log *zap.Logger, cfg Config) (*mqtt.Server, error) {
	options := &mqtt.Options{InlineClient: true, Logger: newSlogLogger(log)}
	server := mqtt.New(options)

	switch {
	case cfg.AllowAnonymous:
		if err := server.AddHook(new(auth.AllowHook), nil); err != nil {
			return nil, err
		}
	case cfg.Username != "":
		filter := auth.RString(strings.TrimSuffix(cfg.TopicBase, "/") + "/#")
		ledger := &auth.Ledger{
			Auth: auth.AuthRules{{Username: auth.RString(cfg.Username), Password: auth.RString(cfg.Password), Allow: true}},
			ACL:  auth.ACLRules{{Username: auth.RString(cfg.Username), Filters: auth.Filters{filter: auth.ReadWrite}}},
		}
		if err := server.AddHook(new(auth.Hook), &auth.Options{Ledger: ledger}); err != nil {
			return nil, err
		}
	default:
		return nil, errors.New("embedded mqtt requires allow_anonymous or username")
	}

	return server, nil
}

// BrokerURL returns the broker URL for a listen address. Wildcard hosts
// are replaced with loopback so local clients can dial the result.
func BrokerURL(listen string, tlsEnabled bool) string {
	scheme := "mqtt"
	if tlsEnabled {
		scheme = "mqtts"
	}
	for _, wildcard := range []string{"0.0.0.0:", "[::]:", ":"} {
		if strings.HasPrefix(listen, wildcard) {
			listen = "127.0.0.1:" + strings.TrimPrefix(listen, wildcard)
			break
		}
	}
	return fmt.Sprintf("%s://%s", scheme, listen)
}
