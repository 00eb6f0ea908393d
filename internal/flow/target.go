package flow

import (
	"fmt"
	"net"
	"strconv"
	"strings"
	"sync"

	"github.com/pcapreplay/pcapreplay/internal/util"
)

// TargetTestServer is a rewrite rule directing replay to an address other
// than the one observed in the capture. A nil *TargetTestServer matched
// against a registry key means "replay to the captured address" — the
// rule exists only to opt a flow into replay, not to redirect it.
type TargetTestServer struct {
	Addr string
	Port uint16
}

// Registry holds target-server rewrite rules, keyed by either
// "src_addr:src_port" or bare "src_addr". The registry exclusively owns
// every rule it holds.
type Registry struct {
	mu    sync.RWMutex
	rules map[string]*TargetTestServer
}

// NewRegistry returns an empty rule registry.
func NewRegistry() *Registry {
	return &Registry{rules: make(map[string]*TargetTestServer)}
}

// Empty reports whether no rules have been configured.
func (r *Registry) Empty() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rules) == 0
}

// Lookup probes the registry with the candidate keys
// [src_addr:src_port, src_addr], in that order, and returns the first
// match along with whether any rule matched at all. A matched rule whose
// value is nil still counts as "matched" (the address is not rewritten,
// but the flow is accepted).
func (r *Registry) Lookup(srcAddrStr string, srcPort uint16) (*TargetTestServer, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	withPort := srcAddrStr + ":" + strconv.Itoa(int(srcPort))
	if rule, ok := r.rules[withPort]; ok {
		return rule, true
	}
	if rule, ok := r.rules[srcAddrStr]; ok {
		return rule, true
	}
	return nil, false
}

// AddSpec parses a target-server specification string and installs it.
//
//	IPv4:  SRC_ADDR[:SRC_PORT[:TEST_ADDR[:TEST_PORT]]]
//	IPv6:  [SRC_ADDR][:SRC_PORT][:[TEST_ADDR][:TEST_PORT]]
func (r *Registry) AddSpec(spec string) error {
	var key string
	var rule *TargetTestServer
	var err error

	if strings.HasPrefix(spec, "[") {
		key, rule, err = parseIPv6Spec(spec)
	} else {
		key, rule, err = parseIPv4Spec(spec)
	}
	if err != nil {
		return err
	}

	r.mu.Lock()
	r.rules[key] = rule
	r.mu.Unlock()
	return nil
}

func parsePort(tok string) (uint16, error) {
	n, err := strconv.ParseUint(tok, 10, 16)
	if err != nil {
		return 0, fmt.Errorf("invalid port number '%s'", tok)
	}
	return uint16(n), nil
}

func parseIPv4Addr(tok string) error {
	ip := net.ParseIP(tok)
	if ip == nil || ip.To4() == nil {
		return fmt.Errorf("invalid IP address '%s'", tok)
	}
	return nil
}

// parseIPv4Spec mirrors conversation_factory.cc's parseIpV4Spec: a
// colon-tokenized spec whose fields are only valid in the combinations
// 1, 2, 3, or 4 tokens deep.
func parseIPv4Spec(spec string) (string, *TargetTestServer, error) {
	tokens := util.Tokenize(spec, ':')

	var srcAddr string
	srcPort := -1
	var testAddr string
	testPort := -1

	switch len(tokens) {
	case 4:
		p, err := parsePort(tokens[3])
		if err != nil {
			return "", nil, err
		}
		testPort = int(p)
		fallthrough
	case 3:
		if err := parseIPv4Addr(tokens[2]); err != nil {
			return "", nil, err
		}
		testAddr = tokens[2]
		fallthrough
	case 2:
		p, err := parsePort(tokens[1])
		if err != nil {
			return "", nil, err
		}
		srcPort = int(p)
		fallthrough
	case 1:
		if err := parseIPv4Addr(tokens[0]); err != nil {
			return "", nil, err
		}
		srcAddr = tokens[0]
	default:
		return "", nil, fmt.Errorf("invalid conversation specification '%s'", spec)
	}

	key := srcAddr
	if srcPort != -1 {
		key = srcAddr + ":" + strconv.Itoa(srcPort)
	}

	var rule *TargetTestServer
	if testAddr != "" {
		port := uint16(0)
		if testPort != -1 {
			port = uint16(testPort)
		}
		rule = &TargetTestServer{Addr: testAddr, Port: port}
	}

	return key, rule, nil
}

// parseIPv6Spec mirrors conversation_factory.cc's parseIpV6Spec: bracketed
// addresses, walked token by token using the same token() helper the
// original uses, since IPv6 addresses themselves contain ':'.
func parseIPv6Spec(spec string) (string, *TargetTestServer, error) {
	invalid := func() error { return fmt.Errorf("invalid spec '%s'", spec) }

	if !strings.HasPrefix(spec, "[") {
		return "", nil, invalid()
	}
	closeIdx := strings.IndexByte(spec, ']')
	if closeIdx < 0 {
		return "", nil, invalid()
	}

	var srcAddr string
	if closeIdx > 1 {
		srcAddr = normalizeIPv6(spec[1:closeIdx])
		ip := net.ParseIP(srcAddr)
		if ip == nil || ip.To4() != nil {
			return "", nil, fmt.Errorf("invalid IP address '%s'", srcAddr)
		}
	}

	rest := spec[closeIdx+1:]
	srcPort := -1

	if strings.HasPrefix(rest, ":") {
		rest = rest[1:]
		before, after, found := util.Token(rest, ':')
		if before != "" {
			p, err := parsePort(before)
			if err != nil {
				return "", nil, err
			}
			srcPort = int(p)
		}
		if found {
			rest = after[1:] // skip the delimiter itself
		} else {
			rest = ""
		}
	}

	var testAddr string
	testPort := -1

	if rest != "" {
		if !strings.HasPrefix(rest, "[") {
			return "", nil, invalid()
		}
		closeIdx2 := strings.IndexByte(rest, ']')
		if closeIdx2 < 0 {
			return "", nil, invalid()
		}
		if closeIdx2 > 1 {
			testAddr = normalizeIPv6(rest[1:closeIdx2])
			ip := net.ParseIP(testAddr)
			if ip == nil || ip.To4() != nil {
				return "", nil, fmt.Errorf("invalid IP address '%s'", testAddr)
			}
		}

		tail := rest[closeIdx2+1:]
		if strings.HasPrefix(tail, ":") {
			tail = tail[1:]
			if tail != "" {
				p, err := parsePort(tail)
				if err != nil {
					return "", nil, err
				}
				testPort = int(p)
			}
		} else if tail != "" {
			return "", nil, invalid()
		}
	}

	key := srcAddr
	if srcPort != -1 {
		key = srcAddr + ":" + strconv.Itoa(srcPort)
	}

	var rule *TargetTestServer
	if testAddr != "" {
		port := uint16(0)
		if testPort != -1 {
			port = uint16(testPort)
		}
		rule = &TargetTestServer{Addr: testAddr, Port: port}
	}

	return key, rule, nil
}

func normalizeIPv6(addr string) string {
	ip := net.ParseIP(addr)
	if ip == nil {
		return addr
	}
	return ip.String()
}
