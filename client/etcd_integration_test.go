package client

import (
	"context"
	"net"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ledger-rpc/loadbalance"
	"ledger-rpc/message"
	"ledger-rpc/registry"
	"ledger-rpc/server"
)

// Two stub nodes advertise on etcd; the client discovers them and spreads commands.
// Requires a running etcd; set LEDGER_RPC_ETCD=host:port[,host:port] to enable.
func TestMultiNodeWithEtcd(t *testing.T) {
	endpoints := os.Getenv("LEDGER_RPC_ETCD")
	if endpoints == "" {
		t.Skip("LEDGER_RPC_ETCD not set")
	}

	reg, err := registry.NewEtcdRegistry(registry.EtcdConfig{
		Endpoints: strings.Split(endpoints, ","),
		KeyPrefix: "/ledger-rpc-it/",
	}, nil)
	require.NoError(t, err)
	defer reg.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	const service = "ledger-it"
	for i := 0; i < 2; i++ {
		ln, err := net.Listen("tcp", "127.0.0.1:0")
		require.NoError(t, err)
		svr := server.NewServer(nil)
		server.NewLedger(0).Register(svr)
		go svr.Serve(ln)
		require.NoError(t, svr.Advertise(ctx, reg, service, ln.Addr().String(), 10))
		defer svr.Shutdown(3 * time.Second)
	}

	bal, err := loadbalance.New(loadbalance.NameRoundRobin)
	require.NoError(t, err)
	cli := NewClient(DiscoveryTarget{Registry: reg, Balancer: bal, Service: service})

	for i := 0; i < 10; i++ {
		resp, err := cli.Call(ctx, message.NewHello())
		require.NoError(t, err, "request %d", i)
		assert.Equal(t, "hi", resp.Message)
	}
}
