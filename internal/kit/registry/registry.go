package registry

import (
	"context"
	"fmt"
	"sort"

	"AgentKit-Chain/internal/config"
	xerrors "AgentKit-Chain/internal/errors"
	"AgentKit-Chain/internal/kit"
	"AgentKit-Chain/internal/kit/rpcbridge"
)

// Dialer connects to one configured gateway.
type Dialer func(ctx context.Context, name string, cfg config.KitConfig) (kit.Kit, error)

// DialRPC is the default Dialer backed by rpcbridge.
func DialRPC(ctx context.Context, name string, cfg config.KitConfig) (kit.Kit, error) {
	return rpcbridge.NewClient(ctx, rpcbridge.Config{
		Name:     name,
		Endpoint: cfg.Endpoint,
		Timeout:  cfg.Timeout,
		Headers:  cfg.Headers,
		Notes:    cfg.Description,
	})
}

// Option customises registry construction.
type Option func(*Registry)

// WithDialer replaces the gateway dialer.
func WithDialer(d Dialer) Option {
	return func(r *Registry) {
		if d != nil {
			r.dial = d
		}
	}
}

// Registry manages the agent kits keyed by name.
type Registry struct {
	defaultKit string
	kits       map[string]kit.Kit
	dial       Dialer
}

// New dials every configured kit. When defaultKit is empty the first name in
// sorted order becomes the default.
func New(ctx context.Context, kits map[string]config.KitConfig, defaultKit string, opts ...Option) (*Registry, error) {
	r := &Registry{kits: make(map[string]kit.Kit), dial: DialRPC}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}

	for _, name := range sortedNames(kits) {
		client, err := r.dial(ctx, name, kits[name])
		if err != nil {
			r.Close()
			return nil, xerrors.Wrap(xerrors.CodeInitializationFailure, err, fmt.Sprintf("初始化 kit %s 失败", name))
		}
		r.kits[name] = client
	}

	if len(r.kits) == 0 {
		return nil, xerrors.New(xerrors.CodeInitializationFailure, "未配置任何 agent kit 网关")
	}

	if defaultKit == "" {
		defaultKit = r.Names()[0]
	}
	if _, ok := r.kits[defaultKit]; !ok {
		r.Close()
		return nil, xerrors.Newf(xerrors.CodeInitializationFailure, "默认 kit %s 未在配置中找到", defaultKit)
	}
	r.defaultKit = defaultKit
	return r, nil
}

// Default returns the kit configured as default.
func (r *Registry) Default() (kit.Kit, error) {
	if r == nil {
		return nil, xerrors.New(xerrors.CodeInitializationFailure, "未初始化的 kit 注册表")
	}
	k, ok := r.kits[r.defaultKit]
	if !ok {
		return nil, xerrors.Newf(xerrors.CodeNotFound, "默认 kit %s 未在注册表中", r.defaultKit)
	}
	return k, nil
}

// Get returns the kit identified by name.
func (r *Registry) Get(name string) (kit.Kit, bool) {
	if r == nil {
		return nil, false
	}
	k, ok := r.kits[name]
	return k, ok
}

// DefaultName returns the name of the default kit.
func (r *Registry) DefaultName() string {
	if r == nil {
		return ""
	}
	return r.defaultKit
}

// Close releases all kits managed by the registry.
func (r *Registry) Close() {
	if r == nil {
		return
	}
	for name, k := range r.kits {
		if k != nil {
			k.Close()
		}
		delete(r.kits, name)
	}
}

// Names returns the registered kit names.
func (r *Registry) Names() []string {
	if r == nil {
		return nil
	}
	names := make([]string, 0, len(r.kits))
	for name := range r.kits {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func sortedNames(kits map[string]config.KitConfig) []string {
	names := make([]string, 0, len(kits))
	for name := range kits {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
