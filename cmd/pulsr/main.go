package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/loykin/pulsr"
	"github.com/spf13/cobra"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := buildRoot().ExecuteContext(ctx)
	stop()
	if err != nil {
		if !errors.Is(err, errUnreachable) {
			_, _ = fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}

func buildRoot() *cobra.Command {
	globalFlags := &GlobalFlags{}
	root := createRootCommand(globalFlags)
	root.AddCommand(
		createWatchCommand(globalFlags),
		createProbeCommand(globalFlags),
		createServeCommand(globalFlags),
		createStatusCommand(),
		createHashPasswordCommand(),
		createVersionCommand(),
	)
	return root
}

func createRootCommand(flags *GlobalFlags) *cobra.Command {
	root := &cobra.Command{
		Use:   "pulsr",
		Short: "Heartbeat liveness monitor",
		Long: `Pulsr periodically samples a receiver's heartbeat and shows whether
it is reachable.

Examples:
  pulsr watch --cmd="heartbeat-cli" --interval=1s
  pulsr probe --url=http://127.0.0.1:8080/heartbeat
  pulsr serve --config=pulsr.toml
  pulsr status --api-url=http://127.0.0.1:8080`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&flags.ConfigPath, "config", "", "path to TOML config file (optional)")
	return root
}

func addSourceFlags(cmd *cobra.Command, f *SourceFlags) {
	cmd.Flags().DurationVar(&f.Interval, "interval", pulsr.DefaultInterval, "sampling interval")
	cmd.Flags().DurationVar(&f.Timeout, "timeout", 0, "per-call timeout (default: interval)")
	cmd.Flags().StringVar(&f.Cmd, "cmd", "", "heartbeat command; trimmed stdout is the token")
	cmd.Flags().StringVar(&f.URL, "url", "", "heartbeat URL; a 2xx body is the token")
	cmd.Flags().StringVar(&f.PIDFile, "pidfile", "", "pid file of the receiver process")
}

func createWatchCommand(globalFlags *GlobalFlags) *cobra.Command {
	flags := &WatchFlags{}
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Watch receiver liveness in the terminal",
		Long: `Sample the heartbeat source every interval and print a line each time
the receiver becomes reachable or unreachable. Stops on SIGINT or SIGTERM.

Examples:
  pulsr watch --cmd="heartbeat-cli" --interval=500ms
  pulsr watch --config=pulsr.toml --no-color`,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := loadSettings(globalFlags, flags.SourceFlags, cmd.Flags().Changed)
			if err != nil {
				return err
			}
			return runWatch(cmd.Context(), c, cmd.OutOrStdout(), cmd.ErrOrStderr(), flags.NoColor)
		},
	}
	addSourceFlags(cmd, &flags.SourceFlags)
	cmd.Flags().BoolVar(&flags.NoColor, "no-color", false, "disable ANSI colours")
	return cmd
}

func createProbeCommand(globalFlags *GlobalFlags) *cobra.Command {
	flags := &ProbeFlags{}
	cmd := &cobra.Command{
		Use:   "probe",
		Short: "Sample the heartbeat once",
		Long: `Run a single sampling call and print the result.
Exit status is 0 when the receiver is reachable and 1 otherwise.

Examples:
  pulsr probe --pidfile=/run/receiver.pid
  pulsr probe --config=pulsr.toml --json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := loadSettings(globalFlags, flags.SourceFlags, cmd.Flags().Changed)
			if err != nil {
				return err
			}
			_, err = runProbe(cmd.Context(), c, flags, cmd.OutOrStdout(), cmd.ErrOrStderr())
			return err
		},
	}
	addSourceFlags(cmd, &flags.SourceFlags)
	cmd.Flags().BoolVar(&flags.NoColor, "no-color", false, "disable ANSI colours")
	cmd.Flags().BoolVar(&flags.JSON, "json", false, "print the view as JSON")
	return cmd
}

func createServeCommand(globalFlags *GlobalFlags) *cobra.Command {
	flags := &ServeFlags{}
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve receiver liveness over HTTP",
		Long: `Run the monitor and expose it over HTTP:
  GET {base}/         status page
  GET {base}/status   JSON view
  GET {base}/healthz  200 when reachable, 503 otherwise

Examples:
  pulsr serve --config=pulsr.toml
  pulsr serve --url=http://127.0.0.1:9000/hb --listen=:8080 --metrics-listen=:9090`,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := loadSettings(globalFlags, flags.SourceFlags, cmd.Flags().Changed)
			if err != nil {
				return err
			}
			return runServe(cmd.Context(), c, flags, cmd.ErrOrStderr())
		},
	}
	addSourceFlags(cmd, &flags.SourceFlags)
	cmd.Flags().StringVar(&flags.Listen, "listen", "", "status server address (overrides [server].listen)")
	cmd.Flags().StringVar(&flags.BasePath, "base-path", "", "status server base path (overrides [server].base_path)")
	cmd.Flags().StringVar(&flags.MetricsListen, "metrics-listen", "", "enable /metrics on this address")
	cmd.Flags().BoolVar(&flags.NonBlocking, "non-blocking", false, "return right after startup (testing)")
	_ = cmd.Flags().MarkHidden("non-blocking")
	return cmd
}

func createStatusCommand() *cobra.Command {
	flags := &StatusFlags{}
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Query a running pulsr server",
		Long: `Fetch the liveness view from a running "pulsr serve".
Exit status is 0 when the receiver is reachable and 1 otherwise.

Examples:
  pulsr status --api-url=http://127.0.0.1:8080
  pulsr status --api-url=https://mon.example:8443/pulsr --ca-cert=ca.pem`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStatus(cmd.Context(), flags, cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVar(&flags.APIUrl, "api-url", "http://localhost:8080", "pulsr server URL including base path")
	cmd.Flags().DurationVar(&flags.APITimeout, "api-timeout", 10*time.Second, "request timeout")
	cmd.Flags().BoolVar(&flags.Insecure, "insecure", false, "skip TLS verification")
	cmd.Flags().StringVar(&flags.CACert, "ca-cert", "", "CA certificate for TLS verification")
	cmd.Flags().BoolVar(&flags.JSON, "json", false, "print the status as JSON")
	cmd.Flags().StringVar(&flags.Username, "user", "", "username for basic auth")
	cmd.Flags().StringVar(&flags.Password, "password", "", "password for basic auth")
	cmd.Flags().StringVar(&flags.Token, "token", "", "bearer token (from POST {base}/login)")
	return cmd
}

func createHashPasswordCommand() *cobra.Command {
	flags := &HashPasswordFlags{}
	cmd := &cobra.Command{
		Use:   "hash-password",
		Short: "Print a bcrypt hash for a server.auth user",
		Long: `Hash a password for the password_hash field of [[server.auth.users]].
Without --password the password is read from stdin.

Examples:
  pulsr hash-password --password=secret
  echo -n secret | pulsr hash-password --cost=12`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHashPassword(flags, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVar(&flags.Password, "password", "", "password to hash (default: read stdin)")
	cmd.Flags().IntVar(&flags.Cost, "cost", 0, "bcrypt cost (default 10)")
	return cmd
}

func createVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, args []string) {
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "pulsr", pulsr.Version)
		},
	}
}
