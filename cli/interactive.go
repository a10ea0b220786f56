package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/term"

	"ledger-rpc/client"
	"ledger-rpc/config"
	"ledger-rpc/decrypt"
	"ledger-rpc/dispatcher"
	"ledger-rpc/loadbalance"
	"ledger-rpc/logging"
	"ledger-rpc/middleware"
	"ledger-rpc/registry"
	"ledger-rpc/transport"
)

func runInteractive(cmd *cobra.Command, args []string, flags *rootFlags) error {
	cfg, err := loadConfig(args, flags)
	if err != nil {
		return err
	}

	logger, err := logging.New(cfg.Log.Level)
	if err != nil {
		return usageError("%v", err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	target, closeTarget, err := newTarget(cfg, logger)
	if err != nil {
		return &ExitError{code: ExitFailure, message: err.Error()}
	}
	defer closeTarget()

	c := client.NewClient(target,
		client.WithLogger(logger),
		client.WithTransportOptions(transportOptions(cfg.Client)),
		client.WithMiddleware(clientMiddleware(cfg.Client, logger)...),
	)
	logger.Info("ready", zap.Stringer("target", target))

	d := dispatcher.New(dispatcher.Config{
		Caller:    c,
		Decrypter: decrypt.New(cfg.Decryptor.Path, logger),
		Prompter:  dispatcher.NewLinePrompter(cmd.InOrStdin(), cmd.OutOrStdout()),
		Out:       cmd.OutOrStdout(),
		Logger:    logger,
		ShowMenu:  isTerminal(cmd.InOrStdin()),
	})

	if err := d.Run(ctx); err != nil {
		if errors.Is(err, context.Canceled) {
			return &ExitError{code: ExitInterrupted}
		}
		return &ExitError{code: ExitFailure, message: err.Error()}
	}
	return nil
}

// loadConfig reads the config file and applies positional args, then flags. Every
// failure is a usage error.
func loadConfig(args []string, flags *rootFlags) (config.Config, error) {
	cfg, err := config.Load(flags.configPath)
	if err != nil {
		return config.Config{}, usageError("%v", err)
	}
	if err := cfg.Override(args); err != nil {
		return config.Config{}, usageError("%v", err)
	}
	if flags.decryptor != "" {
		cfg.Decryptor.Path = flags.decryptor
	}
	if flags.readTimeout != "" {
		d, err := time.ParseDuration(flags.readTimeout)
		if err != nil {
			return config.Config{}, usageError("invalid --read-timeout %q: %v", flags.readTimeout, err)
		}
		cfg.Client.ReadTimeout = config.Duration{Duration: d}
	}
	if flags.logLevel != "" {
		cfg.Log.Level = flags.logLevel
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, usageError("invalid config %s: %v", flags.configPath, err)
	}
	return cfg, nil
}

// newTarget picks nodes from discovery when configured, else from net.*.
func newTarget(cfg config.Config, logger *zap.Logger) (client.Target, func(), error) {
	noop := func() {}
	if !cfg.Discovery.Enabled() {
		return client.StaticTarget{Host: cfg.Net.RPCAddress, Port: cfg.Net.RPCPort}, noop, nil
	}

	bal, err := loadbalance.New(cfg.Discovery.Balancer)
	if err != nil {
		return nil, noop, err
	}

	if len(cfg.Discovery.Etcd.Endpoints) > 0 {
		reg, err := registry.NewEtcdRegistry(registry.EtcdConfig{
			Endpoints:   cfg.Discovery.Etcd.Endpoints,
			DialTimeout: cfg.Discovery.Etcd.DialTimeout.Duration,
			KeyPrefix:   cfg.Discovery.Etcd.KeyPrefix,
		}, logger)
		if err != nil {
			return nil, noop, fmt.Errorf("connect to etcd: %w", err)
		}
		closeReg := func() {
			if err := reg.Close(); err != nil {
				logger.Warn("close etcd registry", zap.Error(err))
			}
		}
		return client.DiscoveryTarget{Registry: reg, Balancer: bal, Service: cfg.Discovery.Service}, closeReg, nil
	}

	reg := registry.NewStaticRegistry(cfg.Discovery.Service, cfg.Discovery.StaticNodes...)
	return client.DiscoveryTarget{Registry: reg, Balancer: bal, Service: cfg.Discovery.Service}, noop, nil
}

func transportOptions(cc config.ClientConfig) transport.Options {
	opts := transport.DefaultOptions()
	opts.DialTimeout = cc.DialTimeout.Duration
	opts.WriteTimeout = cc.WriteTimeout.Duration
	switch {
	case cc.ReadTimeout.Duration < 0:
		opts.ReadTimeout = -1
	case cc.ReadTimeout.Duration > 0:
		opts.ReadTimeout = cc.ReadTimeout.Duration
	}
	return opts
}

func clientMiddleware(cc config.ClientConfig, logger *zap.Logger) []middleware.Middleware {
	mws := []middleware.Middleware{middleware.Logging(logger)}
	if cc.RateLimit > 0 {
		mws = append(mws, middleware.RateLimit(cc.RateLimit, cc.RateBurst))
	}
	if cc.CallTimeout.Duration > 0 {
		mws = append(mws, middleware.Timeout(cc.CallTimeout.Duration))
	}
	return mws
}

// isTerminal reports whether r is an interactive terminal. The menu is only printed
// for people, not for piped scripts.
func isTerminal(r io.Reader) bool {
	f, ok := r.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(f.Fd()))
}
