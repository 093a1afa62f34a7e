package main

import (
	"encoding/json"
	"fmt"
	"net"
	"time"

	"github.com/miekg/dns"

	"github.com/zhouchenh/secDNS/internal/collector"
	"github.com/zhouchenh/secDNS/internal/config/profile"
	_ "github.com/zhouchenh/secDNS/internal/config/typed/profile"
	"github.com/zhouchenh/secDNS/pkg/dnssecproof"
)

// serverConfig is one upstream server named in a request document.
// Unlike the upstream resolver chain this replaced, a request names
// its servers directly; it does not compose them through go-descriptor
// since a fixed evaluation run does not need to be reconfigured
// without recompiling a new request.
type serverConfig struct {
	Label          string `json:"label"`
	Address        string `json:"address"`
	Port           uint16 `json:"port"`
	Protocol       string `json:"protocol"`
	QueryTimeout   string `json:"queryTimeout"`
	TlsServerName  string `json:"tlsServerName"`
	Socks5Proxy    string `json:"socks5Proxy"`
	Socks5Username string `json:"socks5Username"`
	Socks5Password string `json:"socks5Password"`
}

func (s serverConfig) toNameServer() (*collector.NameServer, error) {
	ip := net.ParseIP(s.Address)
	if ip == nil {
		return nil, fmt.Errorf("request: server %q has an invalid address %q", s.Label, s.Address)
	}
	timeout := 2 * time.Second
	if s.QueryTimeout != "" {
		d, err := time.ParseDuration(s.QueryTimeout)
		if err != nil {
			return nil, fmt.Errorf("request: server %q has an invalid queryTimeout: %w", s.Label, err)
		}
		timeout = d
	}
	port := s.Port
	if port == 0 {
		port = 53
	}
	protocol := s.Protocol
	if protocol == "" {
		protocol = "udp"
	}
	return &collector.NameServer{
		Label:          s.Label,
		Address:        ip,
		Port:           port,
		Protocol:       protocol,
		QueryTimeout:   timeout,
		TlsServerName:  s.TlsServerName,
		Socks5Proxy:    s.Socks5Proxy,
		Socks5Username: s.Socks5Username,
		Socks5Password: s.Socks5Password,
	}, nil
}

// request is the evaluation-request document the CLI reads on stdin
// or from -request. mode selects which pkg/dnssecproof evaluator runs;
// the remaining fields are the arguments that evaluator needs.
type request struct {
	Mode         string          `json:"mode"`
	Qname        string          `json:"qname"`
	Qtype        string          `json:"qtype"`
	Zone         string          `json:"zone"`
	WildcardName string          `json:"wildcardName"`
	ReferenceTime string         `json:"referenceTime"`
	Servers      []serverConfig  `json:"servers"`
	Profile      json.RawMessage `json:"profile"`
}

func (r *request) qtype() (uint16, error) {
	if r.Qtype == "" {
		return 0, fmt.Errorf("request: qtype is required")
	}
	t, ok := dns.StringToType[r.Qtype]
	if !ok {
		return 0, fmt.Errorf("request: unknown qtype %q", r.Qtype)
	}
	return t, nil
}

func (r *request) referenceTime() (time.Time, error) {
	if r.ReferenceTime == "" {
		return time.Now().UTC(), nil
	}
	return time.Parse(time.RFC3339, r.ReferenceTime)
}

func (r *request) resolveProfile() (*profile.Profile, error) {
	if len(r.Profile) == 0 {
		return profile.Default(), nil
	}
	var raw interface{}
	if err := json.Unmarshal(r.Profile, &raw); err != nil {
		return nil, fmt.Errorf("request: invalid profile: %w", err)
	}
	p, ok := profile.Resolve(raw)
	if !ok {
		return nil, fmt.Errorf("request: could not resolve profile %s", r.Profile)
	}
	return p, nil
}

func (r *request) collector() (*collector.Collector, error) {
	if len(r.Servers) == 0 {
		return nil, fmt.Errorf("request: at least one server is required")
	}
	servers := make([]*collector.NameServer, 0, len(r.Servers))
	for _, s := range r.Servers {
		ns, err := s.toNameServer()
		if err != nil {
			return nil, err
		}
		servers = append(servers, ns)
	}
	return collector.New(servers), nil
}

// unsupportedAlgorithm reports whether alg should be treated as
// unsupported for this run, combining the build's own verifier support
// with the active profile's additional refusals.
func unsupportedAlgorithm(verifier dnssecproof.Verifier, p *profile.Profile, alg uint8) bool {
	if p.UnsupportedAlgorithms[alg] {
		return true
	}
	if dv, ok := verifier.(interface{ AlgorithmSupported(uint8) bool }); ok {
		return !dv.AlgorithmSupported(alg)
	}
	return false
}

func unsupportedDigestAlgorithm(verifier dnssecproof.Verifier, p *profile.Profile, alg uint8) bool {
	if p.UnsupportedAlgorithms[alg] {
		return true
	}
	if dv, ok := verifier.(interface{ DigestAlgorithmSupported(uint8) bool }); ok {
		return !dv.DigestAlgorithmSupported(alg)
	}
	return false
}
