package cli

import (
	"context"
	"errors"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"ledger-rpc/logging"
	"ledger-rpc/registry"
	"ledger-rpc/server"
)

type stubNodeFlags struct {
	listen        string
	dataPath      string
	balance       uint64
	advertise     string
	service       string
	etcdEndpoints []string
	ttl           int64

	root *rootFlags
}

func newStubNodeCmd(root *rootFlags) *cobra.Command {
	flags := &stubNodeFlags{root: root}
	cmd := &cobra.Command{
		Use:   "stub-node",
		Short: "Run an in-memory node that answers the client RPC protocol",
		Long: `stub-node serves hello, transaction, computation and output requests from memory.
Each accepted computation is sealed into a new block; its output is the job itself,
base64 encoded. With --data blocks survive restarts. With --etcd it advertises itself
for discovery.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStubNode(cmd, flags)
		},
	}

	cmd.Flags().StringVar(&flags.listen, "listen", "127.0.0.1:8001", "Address to listen on")
	cmd.Flags().StringVar(&flags.dataPath, "data", "", "bbolt file to persist blocks in (default: memory only)")
	cmd.Flags().Uint64Var(&flags.balance, "balance", 1000, "Starting wallet balance")
	cmd.Flags().StringVar(&flags.advertise, "advertise", "", "Address registered for discovery (default: the listen address)")
	cmd.Flags().StringVar(&flags.service, "service", "ledger", "Service name registered for discovery")
	cmd.Flags().StringSliceVar(&flags.etcdEndpoints, "etcd", nil, "etcd endpoints to advertise on")
	cmd.Flags().Int64Var(&flags.ttl, "ttl", 10, "Registration lease TTL in seconds")

	return cmd
}

func runStubNode(cmd *cobra.Command, flags *stubNodeFlags) error {
	level := flags.root.logLevel
	if level == "" {
		level = "info"
	}
	logger, err := logging.New(level)
	if err != nil {
		return usageError("%v", err)
	}
	defer logger.Sync()

	ln, err := net.Listen("tcp", flags.listen)
	if err != nil {
		return &ExitError{code: ExitFailure, message: err.Error()}
	}

	var store server.BlockStore = server.NewMemoryStore()
	if flags.dataPath != "" {
		bs, err := server.OpenBoltStore(flags.dataPath)
		if err != nil {
			ln.Close()
			return &ExitError{code: ExitFailure, message: err.Error()}
		}
		defer bs.Close()
		store = bs
	}

	svr := server.NewServer(logger)
	server.NewLedgerWithStore(flags.balance, store).Register(svr)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if len(flags.etcdEndpoints) > 0 {
		reg, err := registry.NewEtcdRegistry(registry.EtcdConfig{Endpoints: flags.etcdEndpoints}, logger)
		if err != nil {
			ln.Close()
			return &ExitError{code: ExitFailure, message: "connect to etcd: " + err.Error()}
		}
		defer reg.Close()

		addr := flags.advertise
		if addr == "" {
			addr = ln.Addr().String()
		}
		regCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		err = svr.Advertise(regCtx, reg, flags.service, addr, flags.ttl)
		cancel()
		if err != nil {
			ln.Close()
			return &ExitError{code: ExitFailure, message: err.Error()}
		}
	}

	errc := make(chan error, 1)
	go func() { errc <- svr.Serve(ln) }()

	select {
	case err := <-errc:
		if err != nil {
			return &ExitError{code: ExitFailure, message: err.Error()}
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	if err := svr.Shutdown(5 * time.Second); err != nil {
		logger.Warn("shutdown", zap.Error(err))
	}
	if err := <-errc; err != nil && !errors.Is(err, net.ErrClosed) {
		return &ExitError{code: ExitFailure, message: err.Error()}
	}
	return nil
}
