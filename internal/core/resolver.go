package core

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"

	"github.com/mikey-austin/simplert/internal/ports"
	"github.com/mikey-austin/simplert/pkg/rtproto"
)

// nodeIDPrefix marks a selector as an exact node ID.
const nodeIDPrefix = "rt:"

// Resolver resolves selectors to node presence.
type Resolver struct {
	Presence ports.Broker
	Config   Config
}

// ResolveConsole resolves a console selector using config defaults.
func (r Resolver) ResolveConsole(ctx context.Context, selector string) (rtproto.Presence, error) {
	return r.resolveByKind(ctx, selector, rtproto.KindConsole, r.Config.Defaults.Console)
}

func (r Resolver) resolveByKind(ctx context.Context, selector string, kind string, def string) (rtproto.Presence, error) {
	if selector == "" {
		selector = def
	}

	presence, err := r.Presence.ListPresence(ctx)
	if err != nil {
		return rtproto.Presence{}, WrapError(ExitRuntime, "list presence", err)
	}

	filtered := filterPresenceByKind(presence, kind)
	if selector == "" {
		if len(filtered) == 1 {
			return filtered[0], nil
		}
		return rtproto.Presence{}, &CLIError{Code: ExitUsage, Msg: "selector required"}
	}
	return resolveSelector(selector, filtered, r.Config.Aliases)
}

func filterPresenceByKind(presence []rtproto.Presence, kind string) []rtproto.Presence {
	if kind == "" {
		return presence
	}
	out := make([]rtproto.Presence, 0, len(presence))
	for _, p := range presence {
		if p.Kind == kind {
			out = append(out, p)
		}
	}
	return out
}

func resolveSelector(selector string, presence []rtproto.Presence, aliases map[string]string) (rtproto.Presence, error) {
	selector = strings.TrimSpace(selector)
	if selector == "" {
		return rtproto.Presence{}, &CLIError{Code: ExitUsage, Msg: "selector required"}
	}

	if strings.HasPrefix(selector, nodeIDPrefix) {
		return resolveExact(selector, presence)
	}

	if alias, ok := aliases[selector]; ok {
		if strings.HasPrefix(alias, nodeIDPrefix) {
			return resolveExact(alias, presence)
		}
		selector = alias
	}

	matches := make([]rtproto.Presence, 0)
	for _, p := range presence {
		if strings.EqualFold(p.Name, selector) || strings.EqualFold(p.NodeID, selector) {
			matches = append(matches, p)
		}
	}

	if len(matches) == 1 {
		return matches[0], nil
	}
	if len(matches) == 0 {
		msg := fmt.Sprintf("no match for %q", selector)
		if near := nearNames(selector, presence); len(near) > 0 {
			msg += "; did you mean " + strings.Join(near, ", ")
		}
		return rtproto.Presence{}, &CLIError{Code: ExitNotFound, Msg: msg}
	}
	return rtproto.Presence{}, &CLIError{Code: ExitUsage, Msg: fmt.Sprintf("ambiguous selector %q: %s", selector, suggestionList(matches))}
}

func resolveExact(nodeID string, presence []rtproto.Presence) (rtproto.Presence, error) {
	for _, p := range presence {
		if p.NodeID == nodeID {
			return p, nil
		}
	}
	return rtproto.Presence{}, &CLIError{Code: ExitNotFound, Msg: fmt.Sprintf("node not found: %s", nodeID)}
}

func suggestionList(matches []rtproto.Presence) string {
	names := make([]string, 0, len(matches))
	for _, p := range matches {
		names = append(names, fmt.Sprintf("%s (%s)", p.Name, p.NodeID))
	}
	sort.Strings(names)
	return strings.Join(names, ", ")
}

// nearNames returns up to three node names that fuzzily contain selector,
// closest first.
func nearNames(selector string, presence []rtproto.Presence) []string {
	names := make([]string, 0, len(presence))
	for _, p := range presence {
		if p.Name != "" {
			names = append(names, p.Name)
		}
	}
	ranks := fuzzy.RankFindFold(selector, names)
	sort.Sort(ranks)
	out := make([]string, 0, 3)
	for _, r := range ranks {
		if len(out) == 3 {
			break
		}
		out = append(out, r.Target)
	}
	return out
}
