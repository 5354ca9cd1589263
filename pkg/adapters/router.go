package adapters

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/aretw0/bifrost/pkg/adapters/serial"
	"github.com/aretw0/bifrost/pkg/adapters/tcp"
	"github.com/aretw0/bifrost/pkg/domain"
	"github.com/aretw0/bifrost/pkg/ports"
)

var schemePattern = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9+.-]+:`)

type route struct {
	prefix string
	opener ports.Opener
}

// Router implements ports.Opener by dispatching on the channel name prefix.
type Router struct {
	routes   []route
	fallback ports.Opener
}

// RouterOption configures the Router.
type RouterOption func(*Router)

// WithRoute sends channel names starting with prefix to opener,
// replacing any route already registered for prefix.
func WithRoute(prefix string, opener ports.Opener) RouterOption {
	return func(r *Router) {
		for i := range r.routes {
			if r.routes[i].prefix == prefix {
				r.routes[i].opener = opener
				return
			}
		}
		r.routes = append(r.routes, route{prefix: prefix, opener: opener})
	}
}

// WithFallback sets the opener for names without a scheme (default: serial).
// A nil fallback rejects such names.
func WithFallback(opener ports.Opener) RouterOption {
	return func(r *Router) {
		r.fallback = opener
	}
}

// NewRouter creates a Router with serial and tcp transports.
func NewRouter(opts ...RouterOption) *Router {
	r := &Router{
		routes:   []route{{prefix: tcp.Scheme, opener: tcp.New()}},
		fallback: serial.New(),
	}
	for _, opt := range opts {
		opt(r)
	}
	// longest prefix wins
	sort.SliceStable(r.routes, func(i, j int) bool {
		return len(r.routes[i].prefix) > len(r.routes[j].prefix)
	})
	return r
}

var _ ports.Opener = (*Router)(nil)

// Resolve returns the opener for a channel name.
func (r *Router) Resolve(name string) (ports.Opener, error) {
	for _, rt := range r.routes {
		if strings.HasPrefix(name, rt.prefix) {
			return rt.opener, nil
		}
	}
	if scheme := schemePattern.FindString(name); scheme != "" {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnknownScheme, strings.TrimSuffix(scheme, ":"))
	}
	if r.fallback == nil {
		return nil, fmt.Errorf("%w: %q has no scheme", domain.ErrUnknownScheme, name)
	}
	return r.fallback, nil
}

// Open resolves cfg.Name and opens the channel.
func (r *Router) Open(ctx context.Context, cfg domain.ChannelConfig) (ports.Channel, error) {
	opener, err := r.Resolve(cfg.Name)
	if err != nil {
		return nil, err
	}
	return opener.Open(ctx, cfg)
}
