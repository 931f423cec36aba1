package fetch

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/hszk-dev/reelstream/internal/domain/repository"
)

// Router dispatches a locator to the fetcher registered for its scheme.
type Router struct {
	routes map[string]repository.Fetcher
}

// NewRouter creates an empty Router.
func NewRouter() *Router {
	return &Router{routes: make(map[string]repository.Fetcher)}
}

// Handle registers f for every listed scheme, replacing earlier registrations.
func (r *Router) Handle(f repository.Fetcher, schemes ...string) *Router {
	for _, s := range schemes {
		r.routes[strings.ToLower(s)] = f
	}
	return r
}

// Fetch implements repository.Fetcher.
func (r *Router) Fetch(ctx context.Context, locator string) (io.ReadCloser, error) {
	u, err := url.Parse(locator)
	if err != nil {
		return nil, fmt.Errorf("parse locator: %w", err)
	}

	f, ok := r.routes[strings.ToLower(u.Scheme)]
	if !ok {
		return nil, fmt.Errorf("%w: scheme %q", repository.ErrUnsupportedLocator, u.Scheme)
	}
	return f.Fetch(ctx, locator)
}

var _ repository.Fetcher = (*Router)(nil)
