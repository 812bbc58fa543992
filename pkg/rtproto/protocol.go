package rtproto

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// BaseTopic is the default MQTT topic prefix for the protocol.
const BaseTopic = "rt/v1"

// Command types understood by console nodes.
const (
	CommandPrint   = "console.print"
	CommandPrintln = "console.println"
	CommandNewline = "console.newline"
)

// Reply error codes.
const (
	CodeInvalid     = "INVALID"
	CodeSinkFailed  = "SINK_FAILED"
	CodeUnsupported = "UNSUPPORTED"
)

// KindConsole is the presence kind published by console nodes.
const KindConsole = "console"

// CommandEnvelope is the common command envelope for MQTT.
type CommandEnvelope struct {
	ID      string          `json:"id"`
	Type    string          `json:"type"`
	TS      int64           `json:"ts"`
	From    string          `json:"from"`
	ReplyTo string          `json:"replyTo,omitempty"`
	Body    json.RawMessage `json:"body"`
}

// ReplyEnvelope is the response envelope for commands.
type ReplyEnvelope struct {
	ID   string          `json:"id"`
	Type string          `json:"type"`
	OK   bool            `json:"ok"`
	TS   int64           `json:"ts"`
	Body json.RawMessage `json:"body,omitempty"`
	Err  *ReplyError     `json:"err,omitempty"`
}

// ReplyError describes an error response.
type ReplyError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Presence describes a node presence payload.
type Presence struct {
	NodeID   string `json:"nodeId"`
	Kind     string `json:"kind"`
	Name     string `json:"name"`
	Encoding string `json:"encoding,omitempty"`
	TS       int64  `json:"ts"`
}

// PrintBody is the body of console.print and console.println.
type PrintBody struct {
	Value *WireValue `json:"value"`
}

// PrintReply reports how many bytes reached the node's sink.
type PrintReply struct {
	Emitted int `json:"emitted"`
}

// NewCommand builds a command envelope with a JSON body.
func NewCommand(cmdType string, body any) (CommandEnvelope, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return CommandEnvelope{}, fmt.Errorf("marshal body: %w", err)
	}

	return CommandEnvelope{
		Type: cmdType,
		Body: payload,
	}, nil
}

// ValidateCommandEnvelope validates required fields.
func ValidateCommandEnvelope(cmd CommandEnvelope) error {
	if strings.TrimSpace(cmd.ID) == "" {
		return errors.New("id is required")
	}
	if strings.TrimSpace(cmd.Type) == "" {
		return errors.New("type is required")
	}
	if cmd.TS <= 0 {
		return errors.New("ts must be a positive unix timestamp")
	}
	if strings.TrimSpace(cmd.From) == "" {
		return errors.New("from is required")
	}
	if len(cmd.Body) == 0 {
		return errors.New("body is required")
	}
	if CommandCarriesValue(cmd.Type) {
		var body PrintBody
		if err := json.Unmarshal(cmd.Body, &body); err != nil {
			return fmt.Errorf("invalid body: %w", err)
		}
		if body.Value == nil {
			return errors.New("value is required")
		}
	}
	return nil
}

// CommandCarriesValue reports whether a command's body holds a value.
func CommandCarriesValue(cmdType string) bool {
	switch cmdType {
	case CommandPrint, CommandPrintln:
		return true
	default:
		return false
	}
}

// TopicPresence builds the presence topic for a node.
func TopicPresence(topicBase, nodeID string) string {
	return fmt.Sprintf("%s/node/%s/presence", topicBase, nodeID)
}

// TopicCommands builds the command topic for a node.
func TopicCommands(topicBase, nodeID string) string {
	return fmt.Sprintf("%s/node/%s/cmd", topicBase, nodeID)
}

// TopicReply builds the reply topic for a controller instance.
func TopicReply(topicBase, controllerID string) string {
	return fmt.Sprintf("%s/reply/%s", topicBase, controllerID)
}
