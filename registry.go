package xroute

import (
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"sync"
)

// Registration errors.
var (
	ErrDuplicateEndpoint = errors.New("duplicate endpoint")
	ErrUnknownEndpoint   = errors.New("unknown endpoint")
)

// DefaultRegistry backs Define and is the registry a Server or Document uses
// unless configured otherwise.
var DefaultRegistry = NewRegistry()

// Registry stores endpoint records per owner type, in declaration order.
//
// Registration happens in two phases. Register and Update act immediately;
// Defer queues a mutation that only runs at the next Settle for that owner,
// after every endpoint of the declaration block exists. Consumers settle
// before reading, so a deferred mutation can never be lost to ordering.
type Registry struct {
	mu     sync.RWMutex
	owners map[reflect.Type]*ownerEntry
}

type ownerEntry struct {
	endpoints []*Endpoint
	byKey     map[string]*Endpoint
	pending   []pendingUpdate

	respond ResponseHandler
	fail    ErrorHandler
}

type pendingUpdate struct {
	key  string
	opts []Option
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{owners: make(map[reflect.Type]*ownerEntry)}
}

// entry returns the owner entry, creating it on first use. Callers hold mu.
func (reg *Registry) entry(owner reflect.Type) *ownerEntry {
	oe, ok := reg.owners[owner]
	if !ok {
		oe = &ownerEntry{byKey: make(map[string]*Endpoint)}
		reg.owners[owner] = oe
	}
	return oe
}

// Register declares a new endpoint for owner and applies opts to it in
// order. Declaring the same key twice for one owner is rejected with
// ErrDuplicateEndpoint and leaves the first record untouched.
func (reg *Registry) Register(owner reflect.Type, key string, method Method, h HandlerFunc, opts ...Option) error {
	m, err := ParseMethod(string(method))
	if err != nil {
		return fmt.Errorf("%s.%s: %w", owner, key, err)
	}
	if key == "" {
		return fmt.Errorf("%s: endpoint key is empty", owner)
	}

	reg.mu.Lock()
	defer reg.mu.Unlock()

	oe := reg.entry(owner)
	if _, ok := oe.byKey[key]; ok {
		return fmt.Errorf("%w: %s.%s", ErrDuplicateEndpoint, owner, key)
	}

	ep := newEndpoint(key, m, h)
	if err := ep.apply(opts...); err != nil {
		return fmt.Errorf("%s.%s: %w", owner, key, err)
	}

	oe.endpoints = append(oe.endpoints, ep)
	oe.byKey[key] = ep
	return nil
}

// Update applies opts to an existing endpoint immediately.
func (reg *Registry) Update(owner reflect.Type, key string, opts ...Option) error {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	oe := reg.entry(owner)
	ep, ok := oe.byKey[key]
	if !ok {
		return fmt.Errorf("%w: %s.%s", ErrUnknownEndpoint, owner, key)
	}
	if err := ep.apply(opts...); err != nil {
		return fmt.Errorf("%s.%s: %w", owner, key, err)
	}
	return nil
}

// Defer queues opts for the endpoint named key. They run, in the order they
// were queued, on the next Settle of owner.
func (reg *Registry) Defer(owner reflect.Type, key string, opts ...Option) {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	oe := reg.entry(owner)
	oe.pending = append(oe.pending, pendingUpdate{key: key, opts: opts})
}

// Settle applies every pending deferred mutation for owner. Mutations that
// target a key nobody declared are reported as ErrUnknownEndpoint; the
// remaining mutations still apply.
func (reg *Registry) Settle(owner reflect.Type) error {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	oe, ok := reg.owners[owner]
	if !ok || len(oe.pending) == 0 {
		return nil
	}
	return reg.settle(owner, oe)
}

// SettleAll settles every owner with pending mutations.
func (reg *Registry) SettleAll() error {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	var errs []error
	for owner, oe := range reg.owners {
		if len(oe.pending) == 0 {
			continue
		}
		errs = append(errs, reg.settle(owner, oe))
	}
	return errors.Join(errs...)
}

func (reg *Registry) settle(owner reflect.Type, oe *ownerEntry) error {
	pending := oe.pending
	oe.pending = nil

	var errs []error
	for _, pu := range pending {
		ep, ok := oe.byKey[pu.key]
		if !ok {
			err := fmt.Errorf("%w: %s.%s", ErrUnknownEndpoint, owner, pu.key)
			slog.Warn("dropping deferred endpoint update", "owner", owner.String(), "key", pu.key)
			errs = append(errs, err)
			continue
		}
		if err := ep.apply(pu.opts...); err != nil {
			errs = append(errs, fmt.Errorf("%s.%s: %w", owner, pu.key, err))
		}
	}
	return errors.Join(errs...)
}

// Pending reports how many deferred mutations are queued for owner.
func (reg *Registry) Pending(owner reflect.Type) int {
	reg.mu.RLock()
	defer reg.mu.RUnlock()

	if oe, ok := reg.owners[owner]; ok {
		return len(oe.pending)
	}
	return 0
}

// Endpoints returns snapshots of owner's endpoints in declaration order.
// An owner with no declarations yields an empty slice.
func (reg *Registry) Endpoints(owner reflect.Type) []*Endpoint {
	reg.mu.RLock()
	defer reg.mu.RUnlock()

	oe, ok := reg.owners[owner]
	if !ok {
		return []*Endpoint{}
	}
	out := make([]*Endpoint, len(oe.endpoints))
	for i, ep := range oe.endpoints {
		out[i] = ep.Clone()
	}
	return out
}

// SetResponseHandler sets the owner-wide response handler used by
// endpoints that do not declare their own.
func (reg *Registry) SetResponseHandler(owner reflect.Type, h ResponseHandler) {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	reg.entry(owner).respond = h
}

// SetErrorHandler sets the owner-wide error handler used by endpoints that
// do not declare their own.
func (reg *Registry) SetErrorHandler(owner reflect.Type, h ErrorHandler) {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	reg.entry(owner).fail = h
}

func (reg *Registry) handlers(owner reflect.Type) (ResponseHandler, ErrorHandler) {
	reg.mu.RLock()
	defer reg.mu.RUnlock()

	if oe, ok := reg.owners[owner]; ok {
		return oe.respond, oe.fail
	}
	return nil, nil
}
