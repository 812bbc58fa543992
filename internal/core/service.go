package core

import (
	"context"
	"encoding/json"

	"github.com/mikey-austin/simplert/internal/ports"
	"github.com/mikey-austin/simplert/pkg/rtproto"
)

// Service orchestrates rt CLI use cases against remote console nodes.
type Service struct {
	Broker   ports.Broker
	Resolver Resolver
	Clock    ports.Clock
	IDGen    ports.IDGen
	Config   Config
}

// ListNodes returns presence entries, optionally filtered by kind.
func (s Service) ListNodes(ctx context.Context, kind string) (NodesResult, error) {
	nodes, err := s.Broker.ListPresence(ctx)
	if err != nil {
		return NodesResult{}, WrapError(ExitRuntime, "list nodes", err)
	}
	if kind != "" {
		nodes = filterPresenceByKind(nodes, kind)
	}
	return NodesResult{Nodes: nodes}, nil
}

// Send prints value on a console node, followed by the line terminator when
// newline is set.
func (s Service) Send(ctx context.Context, selector string, value rtproto.WireValue, newline bool) (SendResult, error) {
	if _, err := value.Decode(); err != nil {
		return SendResult{}, WrapError(ExitUsage, "invalid value", err)
	}
	cmdType := rtproto.CommandPrint
	if newline {
		cmdType = rtproto.CommandPrintln
	}
	return s.publish(ctx, selector, cmdType, rtproto.PrintBody{Value: &value})
}

// Newline emits only the line terminator on a console node.
func (s Service) Newline(ctx context.Context, selector string) (SendResult, error) {
	return s.publish(ctx, selector, rtproto.CommandNewline, struct{}{})
}

func (s Service) publish(ctx context.Context, selector string, cmdType string, body any) (SendResult, error) {
	node, err := s.Resolver.ResolveConsole(ctx, selector)
	if err != nil {
		return SendResult{}, err
	}

	cmd, err := rtproto.NewCommand(cmdType, body)
	if err != nil {
		return SendResult{}, WrapError(ExitRuntime, "build command", err)
	}
	cmd = s.decorateCommand(cmd)

	reply, err := s.Broker.PublishCommand(ctx, node.NodeID, cmd)
	if err != nil {
		return SendResult{}, WrapError(ExitRuntime, "publish command", err)
	}
	if reply.Err != nil {
		return SendResult{}, ErrorForReplyCode(reply.Err.Code, reply.Err.Message)
	}

	result := SendResult{NodeID: node.NodeID, Name: node.Name}
	if len(reply.Body) > 0 {
		var out rtproto.PrintReply
		if err := json.Unmarshal(reply.Body, &out); err != nil {
			return SendResult{}, WrapError(ExitRuntime, "decode print reply", err)
		}
		result.Emitted = out.Emitted
	}
	return result, nil
}

func (s Service) decorateCommand(cmd rtproto.CommandEnvelope) rtproto.CommandEnvelope {
	cmd.ID = s.IDGen.NewID()
	cmd.TS = s.Clock.NowUnix()
	cmd.From = s.Config.Identity
	cmd.ReplyTo = s.Broker.ReplyTopic()
	return cmd
}
