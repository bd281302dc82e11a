package pulsr

import (
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/loykin/pulsr/internal/auth"
	"github.com/loykin/pulsr/internal/config"
	"github.com/loykin/pulsr/internal/display"
	"github.com/loykin/pulsr/internal/logger"
	"github.com/loykin/pulsr/internal/metrics"
	"github.com/loykin/pulsr/internal/monitor"
	iapi "github.com/loykin/pulsr/internal/server"
	"github.com/loykin/pulsr/internal/source"
	"github.com/prometheus/client_golang/prometheus"
)

// Re-export core types for external consumers.
// These are aliases so conversions are zero-cost.

type Monitor = monitor.Monitor

type Handle = monitor.Handle

type Option = monitor.Option

type Source = source.Source

// SourceFunc adapts a plain function into a Source.
type SourceFunc = source.Func

type SourceSpec = source.Spec

type View = display.View

type Config = config.Config

// Terminal draws views as lines on a writer.
type Terminal = display.Terminal

const (
	Unreachable     = display.Unreachable
	DefaultInterval = monitor.DefaultInterval
)

var (
	ErrAlreadyRunning  = monitor.ErrAlreadyRunning
	ErrInvalidInterval = monitor.ErrInvalidInterval
)

// Version is stamped at build time with -ldflags "-X github.com/loykin/pulsr.Version=...".
var Version = "dev"

// New creates a stopped monitor sampling src.
func New(src Source, opts ...Option) *Monitor { return monitor.New(src, opts...) }

func WithLogger(l *slog.Logger) Option { return monitor.WithLogger(l) }
func WithTimeout(d time.Duration) Option { return monitor.WithTimeout(d) }

// Render maps a liveness token to its healthy or unreachable view.
func Render(token string) View { return display.Render(token) }

func NewTerminal(w io.Writer, color bool) *Terminal { return display.NewTerminal(w, color) }

func LoadConfig(path string) (*Config, error) { return config.Load(path) }
func ReadConfig(path string) (*Config, error) { return config.Read(path) }
func DefaultConfig() *Config                  { return config.Default() }

// NewSource builds the heartbeat source declared in c, expanding ${VAR}
// placeholders with the config's env settings.
func NewSource(c *Config) (Source, error) {
	vars, err := c.Vars()
	if err != nil {
		return nil, err
	}
	return source.New(c.Source, vars, nil)
}

// NewFromConfig builds a monitor for the source and timeout declared in c.
func NewFromConfig(c *Config, log *slog.Logger) (*Monitor, error) {
	src, err := NewSource(c)
	if err != nil {
		return nil, err
	}
	return monitor.New(src, monitor.WithLogger(log), monitor.WithTimeout(c.Monitor.SampleTimeout())), nil
}

// NewLogger builds the application logger from c.Log. The closer releases
// the log file, if any.
func NewLogger(c *Config, console io.Writer) (*slog.Logger, io.Closer, error) {
	return logger.New(c.Log, console)
}

// NewHTTPServer starts an HTTP server exposing the status surface of m.
func NewHTTPServer(addr, basePath string, m *Monitor) (*http.Server, error) {
	return iapi.NewServer(addr, basePath, m)
}

// NewHTTPServerFromConfig starts the status surface described by the
// [server] section, including TLS, auth and page refresh.
func NewHTTPServerFromConfig(c *Config, m *Monitor) (*http.Server, error) {
	return iapi.NewConfiguredServer(c.Server, m)
}

// HashPassword returns a bcrypt hash suitable for [[server.auth.users]].
func HashPassword(password string, cost int) (string, error) {
	return auth.HashPassword(password, cost)
}

// Metrics helpers (public facade)

func RegisterMetrics(r prometheus.Registerer) error { return metrics.Register(r) }
func RegisterMetricsDefault() error                 { return metrics.Register(prometheus.DefaultRegisterer) }

// ServeMetrics starts an HTTP server on addr exposing /metrics from the
// default registry. Listen errors are returned immediately; the server runs
// in the background.
func ServeMetrics(addr string) (*http.Server, error) {
	return iapi.NewMetricsServer(addr, metrics.Handler())
}
