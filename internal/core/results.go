package core

import "github.com/mikey-austin/simplert/pkg/rtproto"

// NodesResult holds a list of presence records.
type NodesResult struct {
	Nodes []rtproto.Presence
}

// SendResult reports a remote print.
type SendResult struct {
	NodeID  string `json:"nodeId"`
	Name    string `json:"name"`
	Emitted int    `json:"emitted"`
}
