// Package registry locates ledger nodes serving the client RPC port.
//
// Nodes advertise themselves under a service name; the client discovers the current set
// before each command and lets a balancer pick one. Two backends exist: etcd for real
// deployments and Static for fixed node lists from the config file.
package registry

import "context"

type ServiceInstance struct {
	Addr    string `json:"addr"`   // host:port of the node's RPC listener
	Weight  int    `json:"weight"` // Weight for load balancing
	Version string `json:"version,omitempty"`
}

type Registry interface {
	Register(ctx context.Context, serviceName string, instance ServiceInstance, ttl int64) error
	Deregister(ctx context.Context, serviceName string, addr string) error
	Discover(ctx context.Context, serviceName string) ([]ServiceInstance, error)
}
