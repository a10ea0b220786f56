package registry

import (
	"context"
	"sync"
)

// StaticRegistry serves a fixed, in-memory node list. TTLs are ignored.
type StaticRegistry struct {
	mu        sync.RWMutex
	instances map[string][]ServiceInstance
}

// NewStaticRegistry registers every addr under serviceName with weight 1.
func NewStaticRegistry(serviceName string, addrs ...string) *StaticRegistry {
	r := &StaticRegistry{instances: make(map[string][]ServiceInstance)}
	for _, addr := range addrs {
		r.instances[serviceName] = append(r.instances[serviceName], ServiceInstance{Addr: addr, Weight: 1})
	}
	return r
}

func (r *StaticRegistry) Register(ctx context.Context, serviceName string, instance ServiceInstance, ttl int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	insts := r.instances[serviceName]
	for i := range insts {
		if insts[i].Addr == instance.Addr {
			insts[i] = instance
			return nil
		}
	}
	r.instances[serviceName] = append(insts, instance)
	return nil
}

func (r *StaticRegistry) Deregister(ctx context.Context, serviceName string, addr string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	insts := r.instances[serviceName]
	for i, inst := range insts {
		if inst.Addr == addr {
			r.instances[serviceName] = append(insts[:i:i], insts[i+1:]...)
			break
		}
	}
	return nil
}

// Discover returns a copy so callers may keep the slice.
func (r *StaticRegistry) Discover(ctx context.Context, serviceName string) ([]ServiceInstance, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]ServiceInstance, len(r.instances[serviceName]))
	copy(out, r.instances[serviceName])
	return out, nil
}
