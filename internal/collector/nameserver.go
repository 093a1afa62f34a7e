// Package collector is the evaluator's one I/O boundary: it sends
// DNS queries to a fixed set of upstream nameservers and hands back
// plain miekg/dns messages. Nothing under pkg/dnssecproof ever dials a
// socket; collector is where that happens, adapted from
// internal/upstream/resolvers/nameserver's transport.
package collector

import (
	"crypto/tls"
	"fmt"
	"net"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/miekg/dns"
	"github.com/txthinking/socks5"
)

// NameServer is a single upstream authoritative or recursive server to
// query. Unlike the upstream chain's NameServer, this one does not
// participate in go-descriptor's resolver registry: a proof-collection
// run names its servers directly in its request document, it does not
// compose them into a resolution chain.
type NameServer struct {
	Label          string // arbitrary identifier used in ServerClient.Server
	Address        net.IP
	Port           uint16
	Protocol       string // "udp", "tcp", "tcp-tls"
	QueryTimeout   time.Duration
	TlsServerName  string
	Socks5Proxy    string
	Socks5Username string
	Socks5Password string

	client   *client
	initOnce sync.Once
}

type client struct {
	dialFunc     func(network, address string) (net.Conn, error)
	dialTLSFunc  func(network, address string) (net.Conn, error)
	socks5Client *socks5.Client
	*dns.Client
}

func (ns *NameServer) label() string {
	if ns.Label != "" {
		return ns.Label
	}
	return net.JoinHostPort(ns.Address.String(), strconv.Itoa(int(ns.Port)))
}

func (ns *NameServer) init() {
	protocol := ns.Protocol
	if protocol == "" {
		protocol = "udp"
	}
	timeout := ns.QueryTimeout
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	c := &client{
		Client: &dns.Client{
			Net:     protocol,
			UDPSize: 4096,
			TLSConfig: &tls.Config{
				ServerName: ns.TlsServerName,
			},
			Dialer: &net.Dialer{Timeout: timeout},
		},
	}
	if ns.Socks5Proxy != "" {
		c.socks5Client = &socks5.Client{
			Server:     ns.Socks5Proxy,
			UserName:   ns.Socks5Username,
			Password:   ns.Socks5Password,
			TCPTimeout: socks5Timeout(timeout),
			UDPTimeout: socks5Timeout(timeout),
		}
		c.dialFunc = func(network, address string) (net.Conn, error) {
			return c.socks5Client.DialWithLocalAddr(network, "", address, nil)
		}
		c.dialTLSFunc = func(network, address string) (net.Conn, error) {
			conn, err := c.dialFunc(network, address)
			if err != nil {
				return nil, err
			}
			return tls.Client(conn, c.TLSConfig), nil
		}
	} else {
		c.dialFunc = c.Dialer.Dial
		c.dialTLSFunc = func(network, address string) (net.Conn, error) {
			return tls.DialWithDialer(c.Dialer, network, address, c.TLSConfig)
		}
	}
	ns.client = c
}

func socks5Timeout(d time.Duration) int {
	secs := d / time.Second
	if secs*time.Second < d {
		return int(secs) + 1
	}
	return int(secs)
}

func (c *client) dial(address string) (*dns.Conn, error) {
	network := c.Net
	if network == "" {
		network = "udp"
	}
	useTLS := strings.HasPrefix(network, "tcp") && strings.HasSuffix(network, "-tls")
	conn := new(dns.Conn)
	var err error
	if useTLS {
		conn.Conn, err = c.dialTLSFunc(strings.TrimSuffix(network, "-tls"), address)
	} else {
		conn.Conn, err = c.dialFunc(network, address)
	}
	if err != nil {
		return nil, err
	}
	conn.UDPSize = c.UDPSize
	return conn, nil
}

// query sends msg to the server and returns its reply, retrying over
// TCP if a UDP reply came back truncated.
func (ns *NameServer) query(msg *dns.Msg) (*dns.Msg, error) {
	ns.initOnce.Do(ns.init)
	if ns.Address == nil {
		return nil, fmt.Errorf("collector: nameserver %s has no address", ns.label())
	}
	address := net.JoinHostPort(ns.Address.String(), strconv.Itoa(int(ns.Port)))

	reply, err := ns.send(msg, address, ns.client)
	if err != nil {
		return nil, err
	}
	if reply.Truncated && strings.HasPrefix(ns.client.Net, "udp") {
		tcpClient := &client{Client: &dns.Client{
			Net:     "tcp",
			Dialer:  ns.client.Dialer,
			TLSConfig: ns.client.TLSConfig,
		}}
		tcpClient.dialFunc = func(network, addr string) (net.Conn, error) {
			return net.DialTimeout(network, addr, ns.client.Dialer.Timeout)
		}
		tcpReply, tcpErr := ns.send(msg, address, tcpClient)
		if tcpErr == nil {
			return tcpReply, nil
		}
	}
	return reply, nil
}

func (ns *NameServer) send(msg *dns.Msg, address string, c *client) (*dns.Msg, error) {
	conn, err := c.dial(address)
	if err != nil {
		return nil, err
	}
	defer conn.Close()
	timeout := ns.QueryTimeout
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	_ = conn.SetDeadline(time.Now().Add(timeout))
	if err := conn.WriteMsg(msg); err != nil {
		return nil, err
	}
	return conn.ReadMsg()
}
