package env

import (
	"os"
	"sort"
	"strings"
)

// Env is the variable set used to expand ${VAR} placeholders in heartbeat
// source settings and to build the environment of command sources.
// Values layer in order: OS environment (when enabled), then config vars.
type Env struct {
	vars  map[string]string
	useOS bool
}

// New returns an empty Env that does not read the OS environment.
func New() *Env {
	return &Env{vars: make(map[string]string)}
}

// FromOS returns an Env layered on top of the current process environment.
func FromOS() *Env {
	e := New()
	e.useOS = true
	return e
}

// WithSet returns a copy of e with k set to v. Empty keys are ignored.
func (e *Env) WithSet(k, v string) *Env {
	out := &Env{vars: make(map[string]string, len(e.vars)+1), useOS: e.useOS}
	for kk, vv := range e.vars {
		out.vars[kk] = vv
	}
	if k != "" {
		out.vars[k] = v
	}
	return out
}

// WithPairs applies "K=V" entries in order; malformed entries are skipped.
func (e *Env) WithPairs(kvs []string) *Env {
	out := e
	for _, kv := range kvs {
		if k, v, ok := split(kv); ok {
			out = out.WithSet(k, v)
		}
	}
	return out
}

// Lookup resolves k against config vars first, then the OS environment.
func (e *Env) Lookup(k string) (string, bool) {
	if v, ok := e.vars[k]; ok {
		return v, true
	}
	if e.useOS {
		return os.LookupEnv(k)
	}
	return "", false
}

// Expand replaces ${VAR} placeholders in s. Unknown variables expand to the
// empty string; a "${" without a closing brace is kept verbatim.
// Expansion is single-pass: substituted values are not expanded again.
func (e *Env) Expand(s string) string {
	if !strings.Contains(s, "${") {
		return s
	}
	var b strings.Builder
	for {
		i := strings.Index(s, "${")
		if i < 0 {
			b.WriteString(s)
			break
		}
		j := strings.IndexByte(s[i+2:], '}')
		if j < 0 {
			b.WriteString(s)
			break
		}
		b.WriteString(s[:i])
		v, _ := e.Lookup(s[i+2 : i+2+j])
		b.WriteString(v)
		s = s[i+2+j+1:]
	}
	return b.String()
}

// Merge composes a process environment: the base (OS environment when
// enabled), the config vars, then extra "K=V" overrides. Values are expanded
// against the composed set. The result is sorted by key for stable output.
func (e *Env) Merge(extra []string) []string {
	m := make(map[string]string)
	if e.useOS {
		for _, kv := range os.Environ() {
			if k, v, ok := split(kv); ok {
				m[k] = v
			}
		}
	}
	for k, v := range e.vars {
		m[k] = v
	}
	for _, kv := range extra {
		if k, v, ok := split(kv); ok {
			m[k] = v
		}
	}
	composed := &Env{vars: m}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		out = append(out, k+"="+composed.Expand(m[k]))
	}
	return out
}

func split(kv string) (string, string, bool) {
	i := strings.IndexByte(kv, '=')
	if i <= 0 {
		return "", "", false
	}
	return kv[:i], kv[i+1:], true
}
