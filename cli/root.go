package cli

import (
	"github.com/spf13/cobra"

	"ledger-rpc/config"
)

type rootFlags struct {
	configPath  string
	decryptor   string
	readTimeout string
	logLevel    string
}

func NewRoot(version string) *cobra.Command {
	flags := &rootFlags{}
	cmd := &cobra.Command{
		Use:   "ledgerctl [<address> <port>]",
		Short: "ledgerctl: interactive client for a ledger node's RPC port",
		Long: `ledgerctl reads commands (hello, transaction, computation, output, exit) and sends
each one to the node as a single request. <address> <port> override net.rpc_address and
net.rpc_port from the config file.`,
		Args:          cobra.MaximumNArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInteractive(cmd, args, flags)
		},
	}

	cmd.Version = version
	cmd.SetVersionTemplate("ledgerctl {{.Version}}\n")

	cmd.PersistentFlags().StringVar(&flags.configPath, "config", getenvDefault("LEDGERCTL_CONFIG", config.DefaultPath), "Config file (.json, .yaml or .yml)")
	cmd.PersistentFlags().StringVar(&flags.logLevel, "log-level", "", "Log level: debug|info|warn|error (overrides log.level)")
	cmd.Flags().StringVar(&flags.decryptor, "decryptor", "", "Decryptor executable (overrides decryptor.path)")
	cmd.Flags().StringVar(&flags.readTimeout, "read-timeout", "", "Per-read response timeout, e.g. 30s; negative disables (overrides client.read_timeout)")

	cmd.AddCommand(newStubNodeCmd(flags))

	return cmd
}
