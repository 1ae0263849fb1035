package logic

import (
	"fmt"
	"sort"

	"zonesim.ai/internal/protocol"
)

// SchemeDescriptor is the capability set every behavior implementation
// provides. Activate takes ownership of the scheme's runtime slot for
// the actor; Reset tears per-switch state down against the new section
// (which may be empty when transitioning to the null section).
type SchemeDescriptor interface {
	Scheme() SchemeID
	Activate(ctx *Context, a *Actor, section SectionID, restoring bool) error
	Reset(ctx *Context, a *Actor, section SectionID)
}

// SchemePersister is implemented by schemes whose runtime slot survives
// a snapshot. Schemes without it simply rebuild their slot on restore.
type SchemePersister interface {
	SaveSlot(st SchemeState) ([]byte, error)
	LoadSlot(data []byte) (SchemeState, error)
}

// SchemeTicker is implemented by schemes that advance state on logic
// steps while their section is active.
type SchemeTicker interface {
	Tick(ctx *Context, a *Actor, section SectionID)
}

// Registry maps scheme identifiers to their implementations. It is
// populated once at startup and read-only afterwards; looking up an
// unregistered identifier is a programming-configuration error, not a
// runtime condition.
type Registry struct {
	byID   map[SchemeID]SchemeDescriptor
	sealed bool
}

func NewRegistry() *Registry {
	return &Registry{byID: map[SchemeID]SchemeDescriptor{}}
}

func (r *Registry) Register(d SchemeDescriptor) {
	if r.sealed {
		panic("logic: register on sealed registry")
	}
	id := d.Scheme()
	if _, dup := r.byID[id]; dup {
		panic(fmt.Sprintf("logic: duplicate scheme %q", id))
	}
	r.byID[id] = d
}

// Seal freezes the registry. Called once after startup registration.
func (r *Registry) Seal() { r.sealed = true }

func (r *Registry) Lookup(id SchemeID) (SchemeDescriptor, bool) {
	d, ok := r.byID[id]
	return d, ok
}

// MustLookup panics on an unknown identifier: content referencing an
// unregistered scheme must fail at the call site, loudly.
func (r *Registry) MustLookup(id SchemeID) SchemeDescriptor {
	d, ok := r.byID[id]
	if !ok {
		panic(fmt.Sprintf("%s: scheme %q not registered", protocol.ErrUnknownScheme, id))
	}
	return d
}

// Schemes lists registered identifiers in sorted order.
func (r *Registry) Schemes() []SchemeID {
	out := make([]SchemeID, 0, len(r.byID))
	for id := range r.byID {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
