package idgen

import "github.com/rs/xid"

// Generator creates globally unique, time-sortable identifiers.
type Generator struct{}

// NewID returns a 20 character xid.
func (Generator) NewID() string {
	return xid.New().String()
}
