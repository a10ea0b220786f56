package registry

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	clientv3 "go.etcd.io/etcd/client/v3"
	"go.uber.org/zap"
)

// Nodes are stored in etcd as
//
//	Key:   {KeyPrefix}{ServiceName}/{Addr}
//	Value: JSON-encoded ServiceInstance
//
// Registration uses TTL-based leases: if a node dies, the lease expires and the entry is
// removed without anyone deregistering it.

const DefaultKeyPrefix = "/ledger-rpc/"

type EtcdConfig struct {
	Endpoints   []string
	DialTimeout time.Duration
	KeyPrefix   string
}

// EtcdRegistry implements Registry on etcd v3.
type EtcdRegistry struct {
	client *clientv3.Client // thread-safe, shared across goroutines
	prefix string
	logger *zap.Logger
}

// NewEtcdRegistry connects to the given etcd endpoints. The zap logger is also handed
// to the etcd client so its internal logs land in the same sink.
func NewEtcdRegistry(cfg EtcdConfig, logger *zap.Logger) (*EtcdRegistry, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.DialTimeout <= 0 {
		cfg.DialTimeout = 5 * time.Second
	}
	prefix := cfg.KeyPrefix
	if prefix == "" {
		prefix = DefaultKeyPrefix
	}
	if !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}

	c, err := clientv3.New(clientv3.Config{
		Endpoints:   cfg.Endpoints,
		DialTimeout: cfg.DialTimeout,
		Logger:      logger.Named("etcd"),
	})
	if err != nil {
		return nil, err
	}
	return &EtcdRegistry{client: c, prefix: prefix, logger: logger}, nil
}

func (r *EtcdRegistry) key(serviceName, addr string) string {
	return r.prefix + serviceName + "/" + addr
}

// Register stores instance under a lease of ttl seconds and keeps the lease alive until
// the registry is closed.
func (r *EtcdRegistry) Register(ctx context.Context, serviceName string, instance ServiceInstance, ttl int64) error {
	lease, err := r.client.Grant(ctx, ttl)
	if err != nil {
		return err
	}

	val, err := json.Marshal(instance)
	if err != nil {
		return err
	}

	_, err = r.client.Put(ctx, r.key(serviceName, instance.Addr), string(val), clientv3.WithLease(lease.ID))
	if err != nil {
		return err
	}

	// The keepalive must outlive ctx, so it is bound to the client's own context.
	ch, err := r.client.KeepAlive(r.client.Ctx(), lease.ID)
	if err != nil {
		return err
	}

	// Drain KeepAlive responses so the channel never fills up.
	go func() {
		for range ch {
		}
	}()
	return nil
}

func (r *EtcdRegistry) Deregister(ctx context.Context, serviceName string, addr string) error {
	_, err := r.client.Delete(ctx, r.key(serviceName, addr))
	return err
}

// Discover returns all instances currently registered under serviceName.
func (r *EtcdRegistry) Discover(ctx context.Context, serviceName string) ([]ServiceInstance, error) {
	resp, err := r.client.Get(ctx, r.prefix+serviceName+"/", clientv3.WithPrefix())
	if err != nil {
		return nil, err
	}

	instances := make([]ServiceInstance, 0, len(resp.Kvs))
	for _, kv := range resp.Kvs {
		var instance ServiceInstance
		if err := json.Unmarshal(kv.Value, &instance); err != nil {
			r.logger.Warn("skipping malformed registry entry", zap.ByteString("key", kv.Key), zap.Error(err))
			continue
		}
		instances = append(instances, instance)
	}

	return instances, nil
}

func (r *EtcdRegistry) Close() error {
	return r.client.Close()
}
