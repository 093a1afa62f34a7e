package dnssecproof

import "sort"

// downgrade overwrites *status with next only while *status is still
// valid. Every evaluator calls this once per rule instead of nesting
// "if status == VALID" checks around every branch, so a rule can always
// record its warnings/errors unconditionally and let downgrade decide
// whether it also moves the needle on the final verdict.
func downgrade[T comparable](status *T, valid, next T) {
	if *status == valid {
		*status = next
	}
}

// statusBase holds the fields every status object carries regardless
// of which evaluator produced it.
type statusBase struct {
	Qname    string
	Warnings []Finding
	Errors   []Finding
}

func (b *statusBase) warn(f Finding)  { b.Warnings = append(b.Warnings, f) }
func (b *statusBase) fail(f Finding)  { b.Errors = append(b.Errors, f) }

// showBasic implements the serialization contract's inclusion rule for
// description/status: shown whenever loglevel is INFO or more verbose,
// or when there's something worth surfacing (a warning at WARNING or
// more verbose, an error at any loglevel, or a status other than VALID).
func showBasic(level Loglevel, hasWarnings, hasErrors, nonTrivialValid bool) bool {
	if level <= LevelInfo {
		return true
	}
	if hasWarnings && level <= LevelWarning {
		return true
	}
	if hasErrors {
		return true
	}
	return nonTrivialValid
}

func serializeFindings(r *OrderedResult, key string, findings []Finding) {
	if len(findings) == 0 {
		r.Set(key, []*OrderedResult{})
		return
	}
	out := make([]*OrderedResult, len(findings))
	for i, f := range findings {
		out[i] = f.Serialize()
	}
	r.Set(key, out)
}

// serializeServers renders a ServerClientSet per the contract: grouped
// by server when consolidateClients is set (client identity is
// dropped, response ids merged and sorted), otherwise one entry per
// (server, client) pair, both in canonical sorted order so output is
// deterministic regardless of map iteration order.
func serializeServers(sc ServerClientSet, consolidateClients bool) []*OrderedResult {
	if consolidateClients {
		byServer := map[string]map[string]bool{}
		for pair, ids := range sc {
			set, ok := byServer[pair.Server]
			if !ok {
				set = map[string]bool{}
				byServer[pair.Server] = set
			}
			for id := range ids {
				set[id] = true
			}
		}
		servers := make([]string, 0, len(byServer))
		for s := range byServer {
			servers = append(servers, s)
		}
		sort.Strings(servers)
		out := make([]*OrderedResult, 0, len(servers))
		for _, s := range servers {
			ids := sortedKeys(byServer[s])
			entryResult := &OrderedResult{}
			entryResult.Set("server", s)
			entryResult.Set("response_ids", ids)
			out = append(out, entryResult)
		}
		return out
	}

	type pairKey struct{ server, client string }
	pairs := make([]pairKey, 0, len(sc))
	for pair := range sc {
		pairs = append(pairs, pairKey{pair.Server, pair.Client})
	}
	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].server != pairs[j].server {
			return pairs[i].server < pairs[j].server
		}
		return pairs[i].client < pairs[j].client
	})
	out := make([]*OrderedResult, 0, len(pairs))
	for _, p := range pairs {
		ids := sortedKeys(sc[ServerClient{Server: p.server, Client: p.client}])
		entryResult := &OrderedResult{}
		entryResult.Set("server", p.server)
		entryResult.Set("client", p.client)
		entryResult.Set("response_ids", ids)
		out = append(out, entryResult)
	}
	return out
}

func sortedKeys(m map[string]bool) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
