// Package loadbalance picks which discovered node receives the next command.
//
// Two strategies are implemented:
//   - RoundRobin:      equal-capacity nodes, spreads commands in order
//   - WeightedRandom:  nodes with different capacity, by advertised weight
package loadbalance

import (
	"fmt"

	"ledger-rpc/registry"
)

// Balancer is the interface for load balancing strategies.
// The client calls Pick() once per command to select a target node.
type Balancer interface {
	// Pick selects one instance from the available list. Must be goroutine-safe.
	Pick(instances []registry.ServiceInstance) (*registry.ServiceInstance, error)

	// Name returns the strategy name (for logging/debugging).
	Name() string
}

const (
	NameRoundRobin     = "round_robin"
	NameWeightedRandom = "weighted_random"
)

// New returns the balancer registered under name. An empty name selects round robin.
func New(name string) (Balancer, error) {
	switch name {
	case "", NameRoundRobin:
		return &RoundRobinBalancer{}, nil
	case NameWeightedRandom:
		return &WeightedRandomBalancer{}, nil
	}
	return nil, fmt.Errorf("unknown balancer %q", name)
}
