package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/loykin/pulsr"
	"github.com/loykin/pulsr/pkg/client"
)

// errUnreachable makes the process exit with status 1 without printing an
// extra error line; the rendered view already says what happened.
var errUnreachable = errors.New("receiver unreachable")

var errNoSource = errors.New("no heartbeat source: set --cmd, --url or --pidfile, or a [source] section in --config")

// loadSettings reads the config file (if any) and layers flag overrides on
// top. changed reports whether a flag was set explicitly.
func loadSettings(global *GlobalFlags, sf SourceFlags, changed func(string) bool) (*pulsr.Config, error) {
	var c *pulsr.Config
	if global.ConfigPath != "" {
		var err error
		if c, err = pulsr.ReadConfig(global.ConfigPath); err != nil {
			return nil, fmt.Errorf("error loading config: %w", err)
		}
	} else {
		c = pulsr.DefaultConfig()
	}

	if changed("interval") {
		c.Monitor.Interval = sf.Interval
	}
	if changed("timeout") {
		c.Monitor.Timeout = sf.Timeout
	}
	var specs []pulsr.SourceSpec
	if sf.Cmd != "" {
		specs = append(specs, pulsr.SourceSpec{Type: "command", Command: sf.Cmd, Env: c.Source.Env})
	}
	if sf.URL != "" {
		specs = append(specs, pulsr.SourceSpec{Type: "http", URL: sf.URL})
	}
	if sf.PIDFile != "" {
		specs = append(specs, pulsr.SourceSpec{Type: "pidfile", Path: sf.PIDFile})
	}
	if len(specs) > 0 {
		primary := specs[0]
		primary.Fallbacks = specs[1:]
		c.Source = primary
	}

	c.ApplyDerived()
	if c.Source.Type == "" {
		return nil, errNoSource
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return c, nil
}

func newLogger(c *pulsr.Config, logOut io.Writer, noColor bool) (*slog.Logger, io.Closer, error) {
	if noColor {
		c.Log.Color = false
	}
	return pulsr.NewLogger(c, logOut)
}

// startMetrics serves /metrics when enabled. The returned func stops it.
func startMetrics(c *pulsr.Config, log *slog.Logger) (func(), error) {
	if !c.Metrics.Enabled {
		return func() {}, nil
	}
	if err := pulsr.RegisterMetricsDefault(); err != nil {
		return nil, fmt.Errorf("register metrics: %w", err)
	}
	srv, err := pulsr.ServeMetrics(c.Metrics.Listen)
	if err != nil {
		return nil, fmt.Errorf("metrics listen %s: %w", c.Metrics.Listen, err)
	}
	log.Info("metrics listening", "addr", srv.Addr)
	return func() { _ = srv.Close() }, nil
}

// runWatch samples until ctx is done, drawing one line per state change.
func runWatch(ctx context.Context, c *pulsr.Config, out, logOut io.Writer, noColor bool) error {
	log, closer, err := newLogger(c, logOut, noColor)
	if err != nil {
		return err
	}
	defer func() { _ = closer.Close() }()

	m, err := pulsr.NewFromConfig(c, log)
	if err != nil {
		return err
	}
	defer m.Close()
	stopMetrics, err := startMetrics(c, log)
	if err != nil {
		return err
	}
	defer stopMetrics()

	updates, cancel := m.Subscribe()
	defer cancel()
	h, err := m.Start(c.Monitor.Interval)
	if err != nil {
		return err
	}
	defer func() { _ = h.Close() }()

	return pulsr.NewTerminal(out, !noColor).Run(ctx, m.Current(), updates)
}

// runProbe performs a single sampling call and renders the result.
func runProbe(ctx context.Context, c *pulsr.Config, f *ProbeFlags, out, logOut io.Writer) (pulsr.View, error) {
	log, closer, err := newLogger(c, logOut, f.NoColor)
	if err != nil {
		return pulsr.View{}, err
	}
	defer func() { _ = closer.Close() }()

	src, err := pulsr.NewSource(c)
	if err != nil {
		return pulsr.View{}, err
	}
	pctx, cancel := context.WithTimeout(ctx, c.Monitor.SampleTimeout())
	defer cancel()
	tok, err := src.Heartbeat(pctx)
	if err != nil {
		log.Warn("heartbeat probe failed", "source", src.Describe(), "error", err)
		tok = ""
	}

	v := pulsr.Render(tok)
	if f.JSON {
		printJSON(out, v)
	} else if err := pulsr.NewTerminal(out, !f.NoColor).Draw(v); err != nil {
		return v, err
	}
	if !v.Healthy {
		return v, errUnreachable
	}
	return v, nil
}

// runServe runs the monitor behind the HTTP status surface until ctx is done.
func runServe(ctx context.Context, c *pulsr.Config, f *ServeFlags, logOut io.Writer) error {
	if f.Listen != "" {
		c.Server.Listen = f.Listen
	}
	if f.BasePath != "" {
		c.Server.BasePath = f.BasePath
	}
	if f.MetricsListen != "" {
		c.Metrics.Enabled = true
		c.Metrics.Listen = f.MetricsListen
	}
	if err := c.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	log, closer, err := newLogger(c, logOut, false)
	if err != nil {
		return err
	}
	defer func() { _ = closer.Close() }()

	m, err := pulsr.NewFromConfig(c, log)
	if err != nil {
		return err
	}
	defer m.Close()
	stopMetrics, err := startMetrics(c, log)
	if err != nil {
		return err
	}
	defer stopMetrics()

	srv, err := pulsr.NewHTTPServerFromConfig(c, m)
	if err != nil {
		return fmt.Errorf("status server %s: %w", c.Server.Listen, err)
	}
	log.Info("status server listening", "addr", srv.Addr, "base_path", c.Server.BasePath,
		"tls", srv.TLSConfig != nil, "auth", c.Server.Auth.Enabled)

	h, err := m.Start(c.Monitor.Interval)
	if err != nil {
		_ = srv.Close()
		return err
	}
	defer func() { _ = h.Close() }()

	if !f.NonBlocking {
		<-ctx.Done()
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warn("status server shutdown", "error", err)
	}
	return nil
}

// runStatus queries a running pulsr server.
func runStatus(ctx context.Context, f *StatusFlags, out io.Writer) error {
	cfg := client.Config{
		BaseURL:  f.APIUrl,
		Timeout:  f.APITimeout,
		Insecure: f.Insecure,
		Username: f.Username,
		Password: f.Password,
		Token:    f.Token,
	}
	if f.CACert != "" {
		cfg.TLS = &client.TLSClientConfig{Enabled: true, CACert: f.CACert}
	}
	st, err := client.New(cfg).Status(ctx)
	if err != nil {
		return err
	}
	if f.JSON {
		printJSON(out, st)
	} else {
		state := "unreachable"
		if st.Healthy {
			state = "healthy"
		}
		_, _ = fmt.Fprintf(out, "%s: %s (monitor running: %t)\n", state, st.Message, st.Running)
	}
	if !st.Healthy {
		return errUnreachable
	}
	return nil
}

// runHashPassword prints a bcrypt hash for a [[server.auth.users]] entry.
func runHashPassword(f *HashPasswordFlags, in io.Reader, out io.Writer) error {
	pw := f.Password
	if pw == "" {
		b, err := io.ReadAll(io.LimitReader(in, 1024))
		if err != nil {
			return fmt.Errorf("read password: %w", err)
		}
		pw = strings.TrimRight(string(b), "\r\n")
	}
	h, err := pulsr.HashPassword(pw, f.Cost)
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintln(out, h)
	return nil
}

func printJSON(out io.Writer, v any) {
	b, _ := json.MarshalIndent(v, "", "  ")
	_, _ = fmt.Fprintln(out, string(b))
}
