package backend

import (
	"context"
	"fmt"
	"sort"

	"github.com/sirupsen/logrus"

	"github.com/DEVBOX10/himalaya/internal/config"
	"github.com/DEVBOX10/himalaya/internal/log"
)

var logger = log.Logger(log.LOG_BACKEND)

// Resolver turns an account configuration and a list of required
// capabilities into a Backend. Nothing is cached between resolutions.
type Resolver struct {
	factories map[string]Factory
	context   ContextFactory
}

func NewResolver() *Resolver {
	return &Resolver{factories: map[string]Factory{}}
}

// Register installs the factory used for accounts listing kind in their
// backends.
func (r *Resolver) Register(kind string, f Factory) {
	r.factories[kind] = f
}

func (r *Resolver) SetContextFactory(f ContextFactory) {
	r.context = f
}

// Kinds returns the registered backend kinds, sorted.
func (r *Resolver) Kinds() []string {
	kinds := make([]string, 0, len(r.factories))
	for kind := range r.factories {
		kinds = append(kinds, kind)
	}
	sort.Strings(kinds)
	return kinds
}

type resolveOptions struct {
	sources map[Capability]Source
}

type ResolveOption func(*resolveOptions)

// WithSource overrides where capability c is served from.
func WithSource(c Capability, s Source) ResolveOption {
	return func(o *resolveOptions) {
		o.sources[c] = s
	}
}

// Resolve binds every capability in caps to a provider of the account.
// Providers are built in the order of the account backends and only when a
// capability needs them. The first provider supporting a capability wins.
func (r *Resolver) Resolve(ctx context.Context, acct *config.AccountConfig, caps []Capability, opts ...ResolveOption) (*Backend, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if acct == nil {
		return nil, fmt.Errorf("cannot resolve backend: missing account")
	}

	options := resolveOptions{sources: map[Capability]Source{}}
	for _, opt := range opts {
		opt(&options)
	}

	res := &resolution{
		resolver: r,
		acct:     acct,
		built:    make([]Provider, len(acct.Backends)),
		contexts: map[Provider]Provider{},
	}
	b := &Backend{
		account:  acct.Name,
		bindings: map[Capability]Provider{},
	}

	for _, c := range caps {
		if _, done := b.bindings[c]; done {
			continue
		}
		var (
			p   Provider
			err error
		)
		if options.sources[c] == SourceContext {
			p, err = res.bindContext(c)
		} else {
			p, err = res.bindLive(c)
		}
		if err != nil {
			res.close()
			return nil, err
		}
		logger.WithFields(logrus.Fields{
			"account":    acct.Name,
			"capability": c.String(),
			"provider":   p.Name(),
		}).Debug("bound capability")
		b.bindings[c] = p
	}

	b.opened = res.opened()
	return b, nil
}

type resolution struct {
	resolver *Resolver
	acct     *config.AccountConfig
	built    []Provider
	contexts map[Provider]Provider
}

func (res *resolution) provider(i int) (Provider, error) {
	if res.built[i] != nil {
		return res.built[i], nil
	}
	kind := res.acct.Backends[i]
	factory, ok := res.resolver.factories[kind]
	if !ok {
		return nil, fmt.Errorf("unknown backend %q for account %s", kind, res.acct.Name)
	}
	p, err := factory(res.acct)
	if err != nil {
		return nil, fmt.Errorf("cannot build %s backend for account %s: %w", kind, res.acct.Name, err)
	}
	res.built[i] = p
	return p, nil
}

func (res *resolution) bindLive(c Capability) (Provider, error) {
	for i := range res.acct.Backends {
		p, err := res.provider(i)
		if err != nil {
			return nil, err
		}
		if Implements(p, c) {
			return p, nil
		}
	}
	return nil, &CapabilityUnsupportedError{Capability: c, Account: res.acct.Name}
}

func (res *resolution) bindContext(c Capability) (Provider, error) {
	unsupported := &CapabilityUnsupportedError{Capability: c, Account: res.acct.Name}
	upstream, err := res.bindLive(c)
	if err != nil {
		return nil, err
	}
	if res.resolver.context == nil {
		return nil, unsupported
	}
	p, ok := res.contexts[upstream]
	if !ok {
		p, err = res.resolver.context(res.acct, upstream)
		if err != nil {
			return nil, fmt.Errorf("cannot build sync context for account %s: %w", res.acct.Name, err)
		}
		res.contexts[upstream] = p
	}
	if !Implements(p, c) {
		return nil, unsupported
	}
	return p, nil
}

// opened lists every provider built during the resolution. Context providers
// come first so they are closed before the live providers they wrap.
func (res *resolution) opened() []Provider {
	var out []Provider
	for _, p := range res.contexts {
		out = append(out, p)
	}
	for _, p := range res.built {
		if p != nil {
			out = append(out, p)
		}
	}
	return out
}

func (res *resolution) close() {
	for _, p := range res.opened() {
		if err := closeProvider(p); err != nil {
			logger.WithError(err).Debugf("cannot close %s provider", p.Name())
		}
	}
}
