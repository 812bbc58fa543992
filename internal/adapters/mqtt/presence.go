package mqtt

import (
	"encoding/json"
	"sort"

	"github.com/mikey-austin/simplert/pkg/rtproto"
)

// decodePresence ignores malformed payloads and cleared retained messages.
func decodePresence(payload []byte) (rtproto.Presence, bool) {
	if len(payload) == 0 {
		return rtproto.Presence{}, false
	}
	var presence rtproto.Presence
	if err := json.Unmarshal(payload, &presence); err != nil {
		return rtproto.Presence{}, false
	}
	if presence.NodeID == "" {
		return rtproto.Presence{}, false
	}
	return presence, true
}

func sortedPresence(collect map[string]rtproto.Presence) []rtproto.Presence {
	out := make([]rtproto.Presence, 0, len(collect))
	for _, presence := range collect {
		out = append(out, presence)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].NodeID < out[j].NodeID })
	return out
}
