package consolehost

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/mikey-austin/simplert/internal/adapters/clock"
	"github.com/mikey-austin/simplert/internal/adapters/mqttserver"
	"github.com/mikey-austin/simplert/internal/adapters/sink"
	"github.com/mikey-austin/simplert/internal/ports"
	"github.com/mikey-austin/simplert/pkg/printstream"
	"github.com/mikey-austin/simplert/pkg/rtproto"
)

// Transport is the MQTT surface the module needs.
type Transport interface {
	Publish(topic string, qos byte, retained bool, payload []byte) error
	Subscribe(topic string, qos byte, handler mqttserver.Handler) error
	Unsubscribe(topic string) error
}

// Config configures the console host module.
type Config struct {
	NodeID    string
	TopicBase string
	Name      string
	Encoding  string
	Clock     ports.Clock
}

// Module exposes one PrintStream as a console node.
type Module struct {
	log       *zap.Logger
	transport Transport
	config    Config
	cmdTopic  string

	mu      sync.Mutex
	stream  *printstream.PrintStream
	counter *sink.Counter
	flush   func() error
}

// NewModule initializes the console host writing to out.
func NewModule(log *zap.Logger, transport Transport, out io.Writer, cfg Config) (*Module, error) {
	if strings.TrimSpace(cfg.NodeID) == "" {
		return nil, errors.New("console_host node_id required")
	}
	if out == nil {
		return nil, errors.New("console_host output required")
	}
	if strings.TrimSpace(cfg.TopicBase) == "" {
		cfg.TopicBase = rtproto.BaseTopic
	}
	if strings.TrimSpace(cfg.Name) == "" {
		cfg.Name = "Console"
	}
	if cfg.Clock == nil {
		cfg.Clock = clock.Clock{}
	}
	if log == nil {
		log = zap.NewNop()
	}

	encoded, err := sink.WithEncoding(sink.NewWriter(out), cfg.Encoding)
	if err != nil {
		return nil, err
	}
	flush := func() error { return nil }
	if enc, ok := encoded.(*sink.Encoding); ok {
		flush = enc.Flush
	}
	counter := sink.NewCounter(encoded)

	return &Module{
		log:       log,
		transport: transport,
		config:    cfg,
		cmdTopic:  rtproto.TopicCommands(cfg.TopicBase, cfg.NodeID),
		stream:    printstream.New(counter),
		counter:   counter,
		flush:     flush,
	}, nil
}

// Run serves commands until ctx ends.
func (m *Module) Run(ctx context.Context) error {
	handler := func(_ string, payload []byte) {
		m.handlePayload(payload)
	}

	if err := m.transport.Subscribe(m.cmdTopic, 1, handler); err != nil {
		return err
	}
	defer m.transport.Unsubscribe(m.cmdTopic)

	if err := m.publishPresence(); err != nil {
		return err
	}
	m.log.Info("console ready", zap.String("node_id", m.config.NodeID), zap.String("topic", m.cmdTopic))

	<-ctx.Done()

	m.mu.Lock()
	if err := m.flush(); err != nil {
		m.log.Warn("flush console", zap.Error(err))
	}
	m.mu.Unlock()
	if err := m.clearPresence(); err != nil {
		m.log.Warn("clear presence", zap.Error(err))
	}
	return nil
}

func (m *Module) presenceTopic() string {
	return rtproto.TopicPresence(m.config.TopicBase, m.config.NodeID)
}

func (m *Module) publishPresence() error {
	presence := rtproto.Presence{
		NodeID:   m.config.NodeID,
		Kind:     rtproto.KindConsole,
		Name:     m.config.Name,
		Encoding: m.config.Encoding,
		TS:       m.config.Clock.NowUnix(),
	}

	payload, err := json.Marshal(presence)
	if err != nil {
		return err
	}
	return m.transport.Publish(m.presenceTopic(), 1, true, payload)
}

// clearPresence removes the retained presence message.
func (m *Module) clearPresence() error {
	return m.transport.Publish(m.presenceTopic(), 1, true, nil)
}

func (m *Module) handlePayload(payload []byte) {
	var cmd rtproto.CommandEnvelope
	if err := json.Unmarshal(payload, &cmd); err != nil {
		m.log.Warn("invalid command", zap.Error(err))
		return
	}

	reply := m.dispatch(cmd)
	if cmd.ReplyTo == "" {
		return
	}
	out, err := json.Marshal(reply)
	if err != nil {
		m.log.Error("marshal reply", zap.Error(err))
		return
	}
	if err := m.transport.Publish(cmd.ReplyTo, 1, false, out); err != nil {
		m.log.Error("publish reply", zap.Error(err))
	}
}

func (m *Module) dispatch(cmd rtproto.CommandEnvelope) rtproto.ReplyEnvelope {
	if err := rtproto.ValidateCommandEnvelope(cmd); err != nil {
		return m.errorReply(cmd, rtproto.CodeInvalid, err.Error())
	}

	var op func(p *printstream.PrintStream) error
	switch cmd.Type {
	case rtproto.CommandNewline:
		op = (*printstream.PrintStream).Println
	case rtproto.CommandPrint, rtproto.CommandPrintln:
		var body rtproto.PrintBody
		if err := json.Unmarshal(cmd.Body, &body); err != nil {
			return m.errorReply(cmd, rtproto.CodeInvalid, "invalid body")
		}
		value, err := body.Value.Decode()
		if err != nil {
			return m.errorReply(cmd, rtproto.CodeInvalid, err.Error())
		}
		if cmd.Type == rtproto.CommandPrintln {
			op = func(p *printstream.PrintStream) error { return p.PrintlnValue(value) }
		} else {
			op = func(p *printstream.PrintStream) error { return p.Print(value) }
		}
	default:
		return m.errorReply(cmd, rtproto.CodeUnsupported, fmt.Sprintf("unsupported command %q", cmd.Type))
	}

	emitted, err := m.emit(op)
	if err != nil {
		m.log.Error("console sink failed",
			zap.String("command", cmd.Type),
			zap.String("from", cmd.From),
			zap.Int("emitted", emitted),
			zap.Error(err),
		)
		return m.errorReply(cmd, rtproto.CodeSinkFailed, err.Error())
	}
	m.log.Debug("console print", zap.String("command", cmd.Type), zap.String("from", cmd.From), zap.Int("emitted", emitted))

	body, err := json.Marshal(rtproto.PrintReply{Emitted: emitted})
	if err != nil {
		return m.errorReply(cmd, rtproto.CodeInvalid, err.Error())
	}
	return rtproto.ReplyEnvelope{
		ID:   cmd.ID,
		Type: "ack",
		OK:   true,
		TS:   m.config.Clock.NowUnix(),
		Body: body,
	}
}

// emit runs op against the shared stream and reports the bytes it
// produced, including those written before a failure.
func (m *Module) emit(op func(p *printstream.PrintStream) error) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counter.Reset()
	err := op(m.stream)
	return m.counter.Count(), err
}

func (m *Module) errorReply(cmd rtproto.CommandEnvelope, code, message string) rtproto.ReplyEnvelope {
	return rtproto.ReplyEnvelope{
		ID:   cmd.ID,
		Type: "error",
		OK:   false,
		TS:   m.config.Clock.NowUnix(),
		Err:  &rtproto.ReplyError{Code: code, Message: message},
	}
}
