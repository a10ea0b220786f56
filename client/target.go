package client

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"

	"ledger-rpc/loadbalance"
	"ledger-rpc/registry"
)

// ErrNoInstances is returned when discovery finds no node for the service.
var ErrNoInstances = errors.New("no node instances available")

// Target resolves which node the next command is sent to.
type Target interface {
	Resolve(ctx context.Context) (host string, port uint16, err error)
	String() string
}

// StaticTarget always resolves to the same node.
type StaticTarget struct {
	Host string
	Port uint16
}

func (t StaticTarget) Resolve(ctx context.Context) (string, uint16, error) {
	return t.Host, t.Port, nil
}

func (t StaticTarget) String() string {
	return net.JoinHostPort(t.Host, strconv.Itoa(int(t.Port)))
}

// DiscoveryTarget looks the service up on every Resolve and lets Balancer choose.
type DiscoveryTarget struct {
	Registry registry.Registry
	Balancer loadbalance.Balancer
	Service  string
}

func (t DiscoveryTarget) Resolve(ctx context.Context) (string, uint16, error) {
	instances, err := t.Registry.Discover(ctx, t.Service)
	if err != nil {
		return "", 0, fmt.Errorf("discover %s: %w", t.Service, err)
	}
	if len(instances) == 0 {
		return "", 0, fmt.Errorf("%w: service %s", ErrNoInstances, t.Service)
	}

	inst, err := t.Balancer.Pick(instances)
	if err != nil {
		return "", 0, fmt.Errorf("pick %s instance: %w", t.Service, err)
	}
	return SplitHostPort(inst.Addr)
}

func (t DiscoveryTarget) String() string {
	return fmt.Sprintf("%s (%s)", t.Service, t.Balancer.Name())
}

// SplitHostPort parses "host:port" into a host and a 16-bit port.
func SplitHostPort(addr string) (string, uint16, error) {
	host, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		return "", 0, fmt.Errorf("invalid node address %q: %w", addr, err)
	}
	port, err := strconv.ParseUint(portStr, 10, 16)
	if err != nil {
		return "", 0, fmt.Errorf("invalid port in node address %q", addr)
	}
	return host, uint16(port), nil
}
