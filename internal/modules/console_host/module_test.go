package consolehost

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/mikey-austin/simplert/internal/adapters/clock"
	"github.com/mikey-austin/simplert/internal/adapters/mqttserver"
	"github.com/mikey-austin/simplert/pkg/rtproto"
)

type published struct {
	topic    string
	retained bool
	payload  []byte
}

type fakeTransport struct {
	mu         sync.Mutex
	handlers   map[string]mqttserver.Handler
	published  []published
	subscribed chan string
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{handlers: map[string]mqttserver.Handler{}, subscribed: make(chan string, 1)}
}

func (f *fakeTransport) Publish(topic string, qos byte, retained bool, payload []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.published = append(f.published, published{topic: topic, retained: retained, payload: append([]byte(nil), payload...)})
	return nil
}

func (f *fakeTransport) Subscribe(topic string, qos byte, handler mqttserver.Handler) error {
	f.mu.Lock()
	f.handlers[topic] = handler
	f.mu.Unlock()
	f.subscribed <- topic
	return nil
}

func (f *fakeTransport) Unsubscribe(topic string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.handlers, topic)
	return nil
}

func (f *fakeTransport) last(topic string) (published, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := len(f.published) - 1; i >= 0; i-- {
		if f.published[i].topic == topic {
			return f.published[i], true
		}
	}
	return published{}, false
}

type failingWriter struct {
	after int
	n     int
}

func (w *failingWriter) Write(p []byte) (int, error) {
	if w.n >= w.after {
		return 0, errors.New("disk full")
	}
	w.n += len(p)
	return len(p), nil
}

const (
	nodeID     = "rt:console:test"
	replyTopic = "rt/v1/reply/tester"
)

func newModule(t *testing.T, out *bytes.Buffer, encoding string) (*Module, *fakeTransport) {
	t.Helper()
	transport := newFakeTransport()
	mod, err := NewModule(zap.NewNop(), transport, out, Config{NodeID: nodeID, Encoding: encoding, Clock: clock.Fixed(100)})
	if err != nil {
		t.Fatalf("new module: %v", err)
	}
	return mod, transport
}

func command(t *testing.T, cmdType string, body any) []byte {
	t.Helper()
	cmd, err := rtproto.NewCommand(cmdType, body)
	if err != nil {
		t.Fatalf("new command: %v", err)
	}
	cmd.ID = "id-1"
	cmd.TS = 99
	cmd.From = "tester"
	cmd.ReplyTo = replyTopic
	payload, err := json.Marshal(cmd)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return payload
}

func lastReply(t *testing.T, transport *fakeTransport) rtproto.ReplyEnvelope {
	t.Helper()
	msg, ok := transport.last(replyTopic)
	if !ok {
		t.Fatalf("no reply published")
	}
	var reply rtproto.ReplyEnvelope
	if err := json.Unmarshal(msg.payload, &reply); err != nil {
		t.Fatalf("decode reply: %v", err)
	}
	return reply
}

func TestPrintCommands(t *testing.T) {
	var out bytes.Buffer
	mod, transport := newModule(t, &out, "")

	mod.handlePayload(command(t, rtproto.CommandPrint, rtproto.PrintBody{Value: &rtproto.WireValue{Type: "float", Bits: "0x4214cccd"}}))
	reply := lastReply(t, transport)
	if !reply.OK || reply.ID != "id-1" || reply.TS != 100 {
		t.Fatalf("unexpected reply %+v", reply)
	}
	var body rtproto.PrintReply
	if err := json.Unmarshal(reply.Body, &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.Emitted != 4 {
		t.Fatalf("expected 4 bytes emitted, got %d", body.Emitted)
	}

	mod.handlePayload(command(t, rtproto.CommandPrintln, rtproto.PrintBody{Value: &rtproto.WireValue{Type: "null"}}))
	mod.handlePayload(command(t, rtproto.CommandNewline, struct{}{}))

	if out.String() != "37.2null\n\n" {
		t.Fatalf("unexpected console output %q", out.String())
	}
}

func TestInvalidCommands(t *testing.T) {
	var out bytes.Buffer
	mod, transport := newModule(t, &out, "")

	mod.handlePayload(command(t, rtproto.CommandPrint, rtproto.PrintBody{Value: &rtproto.WireValue{Type: "int", Value: "1.5"}}))
	if reply := lastReply(t, transport); reply.OK || reply.Err == nil || reply.Err.Code != rtproto.CodeInvalid {
		t.Fatalf("expected INVALID, got %+v", reply)
	}

	mod.handlePayload(command(t, rtproto.CommandPrint, struct{}{}))
	if reply := lastReply(t, transport); reply.Err == nil || reply.Err.Code != rtproto.CodeInvalid {
		t.Fatalf("expected INVALID for missing value, got %+v", reply)
	}

	mod.handlePayload(command(t, "console.clear", struct{}{}))
	if reply := lastReply(t, transport); reply.Err == nil || reply.Err.Code != rtproto.CodeUnsupported {
		t.Fatalf("expected UNSUPPORTED, got %+v", reply)
	}

	before := len(transport.published)
	mod.handlePayload([]byte("not json"))
	if len(transport.published) != before {
		t.Fatalf("malformed payload should not be answered")
	}
	if out.Len() != 0 {
		t.Fatalf("nothing should be printed, got %q", out.String())
	}
}

func TestSinkFailure(t *testing.T) {
	transport := newFakeTransport()
	mod, err := NewModule(zap.NewNop(), transport, &failingWriter{after: 2}, Config{NodeID: nodeID, Clock: clock.Fixed(1)})
	if err != nil {
		t.Fatalf("new module: %v", err)
	}
	mod.handlePayload(command(t, rtproto.CommandPrint, rtproto.PrintBody{Value: &rtproto.WireValue{Type: "string", Value: "hello"}}))
	reply := lastReply(t, transport)
	if reply.OK || reply.Err == nil || reply.Err.Code != rtproto.CodeSinkFailed {
		t.Fatalf("expected SINK_FAILED, got %+v", reply)
	}
}

func TestEncodedConsole(t *testing.T) {
	var out bytes.Buffer
	mod, transport := newModule(t, &out, "ISO-8859-1")
	mod.handlePayload(command(t, rtproto.CommandPrintln, rtproto.PrintBody{Value: &rtproto.WireValue{Type: "char", Value: "é"}}))
	if !bytes.Equal(out.Bytes(), []byte{0xe9, '\n'}) {
		t.Fatalf("unexpected bytes % x", out.Bytes())
	}
	var body rtproto.PrintReply
	if err := json.Unmarshal(lastReply(t, transport).Body, &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.Emitted != 3 {
		t.Fatalf("expected 3 bytes from the print stream, got %d", body.Emitted)
	}
}

func TestRunPublishesPresence(t *testing.T) {
	var out bytes.Buffer
	mod, transport := newModule(t, &out, "")
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- mod.Run(ctx) }()

	select {
	case topic := <-transport.subscribed:
		if topic != rtproto.TopicCommands(rtproto.BaseTopic, nodeID) {
			t.Fatalf("unexpected command topic %q", topic)
		}
	case <-time.After(time.Second):
		t.Fatalf("module did not subscribe")
	}

	presenceTopic := rtproto.TopicPresence(rtproto.BaseTopic, nodeID)
	deadline := time.Now().Add(time.Second)
	var msg published
	for {
		var ok bool
		if msg, ok = transport.last(presenceTopic); ok || time.Now().After(deadline) {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}
	var presence rtproto.Presence
	if err := json.Unmarshal(msg.payload, &presence); err != nil {
		t.Fatalf("decode presence: %v", err)
	}
	if !msg.retained || presence.Kind != rtproto.KindConsole || presence.NodeID != nodeID || presence.TS != 100 {
		t.Fatalf("unexpected presence %+v", presence)
	}

	cancel()
	if err := <-done; err != nil {
		t.Fatalf("run: %v", err)
	}
	cleared, _ := transport.last(presenceTopic)
	if len(cleared.payload) != 0 || !cleared.retained {
		t.Fatalf("expected retained presence to be cleared")
	}
}

func TestNewModuleValidation(t *testing.T) {
	if _, err := NewModule(nil, newFakeTransport(), &bytes.Buffer{}, Config{}); err == nil {
		t.Fatalf("expected node id error")
	}
	if _, err := NewModule(nil, newFakeTransport(), nil, Config{NodeID: nodeID}); err == nil {
		t.Fatalf("expected output error")
	}
	if _, err := NewModule(nil, newFakeTransport(), &bytes.Buffer{}, Config{NodeID: nodeID, Encoding: "klingon"}); err == nil {
		t.Fatalf("expected encoding error")
	}
}
