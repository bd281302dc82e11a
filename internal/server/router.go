package server

import (
	"crypto/tls"
	"fmt"
	"html/template"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/loykin/pulsr/internal/auth"
	"github.com/loykin/pulsr/internal/config"
	"github.com/loykin/pulsr/internal/display"
	ptls "github.com/loykin/pulsr/internal/tls"
)

// StatusSource is the read side of a liveness monitor.
type StatusSource interface {
	Current() string
	Running() bool
}

// Router provides embeddable HTTP handlers showing receiver liveness.
// Endpoints:
//
//	GET {basePath}/         HTML status box
//	GET {basePath}/status   JSON view of the current token
//	GET {basePath}/healthz  200 when the receiver is reachable, 503 otherwise
//	POST {basePath}/login   basic credentials -> bearer token (auth enabled only)
//
// basePath may be empty or start with '/'; no trailing slash. With auth
// enabled every endpoint except healthz requires credentials.
type Router struct {
	src      StatusSource
	basePath string
	refresh  time.Duration
	auth     *auth.Middleware
}

// NewRouter constructs a Router. Example basePath: "/pulsr" results in
// /pulsr/, /pulsr/status and /pulsr/healthz.
func NewRouter(src StatusSource, basePath string) *Router {
	return &Router{src: src, basePath: sanitizeBase(basePath), refresh: time.Second}
}

// WithRefresh sets how often the HTML page reloads itself. Values below one
// second are rounded up.
func (r *Router) WithRefresh(d time.Duration) *Router {
	if d < time.Second {
		d = time.Second
	}
	r.refresh = d
	return r
}

// WithAuth guards the status endpoints with m.
func (r *Router) WithAuth(m *auth.Middleware) *Router {
	r.auth = m
	return r
}

// Handler returns an http.Handler powered by gin that can be mounted in any server/mux.
func (r *Router) Handler() http.Handler {
	g := gin.New()
	g.Use(gin.Recovery())
	g.SetHTMLTemplate(pageTmpl)
	group := g.Group(r.basePath)
	group.GET("/healthz", r.handleHealthz)

	protected := group.Group("")
	if r.auth != nil {
		group.POST("/login", r.auth.GinLogin())
		protected.Use(r.auth.GinAuth())
	}
	protected.GET("/", r.handlePage)
	protected.GET("/status", r.handleStatus)
	return g
}

// NewServer binds addr and serves this router in the background. Bind
// errors are returned; shut the server down with Shutdown or Close.
func NewServer(addr, basePath string, src StatusSource) (*http.Server, error) {
	return Serve(addr, NewRouter(src, basePath).Handler(), nil)
}

// NewConfiguredServer serves src according to the [server] section,
// including TLS and authentication.
func NewConfiguredServer(c config.ServerConfig, src StatusSource) (*http.Server, error) {
	tlsCfg, err := ptls.SetupTLS(c.TLS)
	if err != nil {
		return nil, fmt.Errorf("server.tls: %w", err)
	}
	r := NewRouter(src, c.BasePath).WithRefresh(c.Refresh)
	if c.Auth.Enabled {
		svc, err := auth.NewAuthService(c.Auth)
		if err != nil {
			return nil, fmt.Errorf("server.auth: %w", err)
		}
		r.WithAuth(auth.NewMiddleware(svc))
	}
	return Serve(c.Listen, r.Handler(), tlsCfg)
}

// Serve binds addr and serves h in the background, over TLS when tlsCfg is
// non-nil.
func Serve(addr string, h http.Handler, tlsCfg *tls.Config) (*http.Server, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	server := &http.Server{
		Addr:              ln.Addr().String(),
		Handler:           h,
		TLSConfig:         tlsCfg,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	if tlsCfg != nil {
		go func() { _ = server.ServeTLS(ln, "", "") }()
	} else {
		go func() { _ = server.Serve(ln) }()
	}
	return server, nil
}

// --- Handlers ---

type statusResp struct {
	display.View
	Running bool `json:"running"`
}

func (r *Router) view() statusResp {
	return statusResp{View: display.Render(r.src.Current()), Running: r.src.Running()}
}

func (r *Router) handleStatus(c *gin.Context) {
	writeJSON(c, http.StatusOK, r.view())
}

func (r *Router) handleHealthz(c *gin.Context) {
	v := r.view()
	code := http.StatusOK
	if !v.Healthy {
		code = http.StatusServiceUnavailable
	}
	writeJSON(c, code, v)
}

func (r *Router) handlePage(c *gin.Context) {
	c.HTML(http.StatusOK, "status", gin.H{
		"View":    r.view(),
		"Refresh": int(r.refresh / time.Second),
	})
}

var pageTmpl = template.Must(template.New("status").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta http-equiv="refresh" content="{{.Refresh}}">
<title>pulsr</title>
<style>
body { font-family: sans-serif; margin: 2em; }
.box { display: inline-block; padding: 0.6em 1em; border-radius: 4px; color: #fff; }
.healthy { background: #2e7d32; }
.unreachable { background: #c62828; }
</style>
</head>
<body>
{{- with .View}}
{{- if .Healthy}}
<div class="box healthy"><span class="icon">&#9829;</span> <span class="message">{{.Message}}</span></div>
{{- else}}
<div class="box unreachable"><span class="icon">&#10007;</span> <span class="message">{{.Message}}</span></div>
{{- end}}
{{- end}}
</body>
</html>
`))
