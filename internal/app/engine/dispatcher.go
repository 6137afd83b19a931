package engine

import (
	"context"
	"sync"

	"github.com/laurelhq/laurels/internal/app/bus"
	"github.com/laurelhq/laurels/internal/domain"
	"github.com/laurelhq/laurels/internal/infra/observability"
)

// HandlerPriority is where the engine's shared handler subscribes: later than
// the default so other subscribers of the same event have had a chance to
// modify shared context first.
const HandlerPriority = bus.DefaultPriority + 2

// ─── Event Dispatcher ───────────────────────────────────────────────────────

// Dispatcher binds one shared handler to every event name the registry knows,
// and runs the per-occurrence pipeline: hooks, actor resolution, candidate
// matching, unlock processing.
type Dispatcher struct {
	bus      *bus.Bus
	registry *Registry
	engine   *Engine
	identity domain.Identity
	hooks    *Hooks
	priority int

	mu    sync.Mutex
	bound map[string]bool
}

// NewDispatcher wires the handler pipeline. identity defaults to
// ContextIdentity and hooks may be nil.
func NewDispatcher(b *bus.Bus, registry *Registry, engine *Engine, identity domain.Identity, hooks *Hooks) *Dispatcher {
	if identity == nil {
		identity = ContextIdentity{}
	}
	return &Dispatcher{
		bus:      b,
		registry: registry,
		engine:   engine,
		identity: identity,
		hooks:    hooks,
		priority: HandlerPriority,
		bound:    make(map[string]bool),
	}
}

// BindAll subscribes the shared handler to every registry event name that is
// not bound yet. Idempotent per name: calling it again after a registry
// refresh adds handlers for newly discovered names without duplicating
// handlers for names already bound.
func (d *Dispatcher) BindAll() {
	d.mu.Lock()
	defer d.mu.Unlock()

	for _, name := range d.registry.EventNames() {
		if d.bound[name] {
			continue
		}
		d.bus.Subscribe(name, d.priority, d.OnEvent)
		d.bound[name] = true
	}
	observability.BoundHandlers.Set(float64(len(d.bound)))
}

// BoundEvents returns how many event names currently have the handler bound.
func (d *Dispatcher) BoundEvents() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.bound)
}

// OnEvent is the single entry point for every bound event. Anonymous
// occurrences and hook vetoes are silent no-ops; only store write failures
// surface to the request that raised the event.
func (d *Dispatcher) OnEvent(ctx context.Context, event string, args []any) error {
	observability.EventsHandled.WithLabelValues(event).Inc()

	if d.hooks != nil && d.hooks.BeforeHandle != nil {
		d.hooks.BeforeHandle(event, args)
	}

	if d.hooks != nil && d.hooks.RemapEventName != nil {
		name, ok := d.hooks.RemapEventName(event, args)
		if !ok {
			observability.OccurrencesDiscarded.WithLabelValues("vetoed").Inc()
			return nil
		}
		event = name
	}

	userID := d.identity.CurrentActorID(ctx)
	if d.hooks != nil && d.hooks.RemapActor != nil {
		userID = d.hooks.RemapActor(userID, event, args)
	}
	if userID == 0 {
		// Anonymous actors cannot accrue achievements.
		observability.OccurrencesDiscarded.WithLabelValues("no_actor").Inc()
		return nil
	}

	// Cheap fast path: nothing bound to this event, no store round trips.
	candidates := d.registry.Resolve(event)
	if len(candidates) == 0 {
		return nil
	}

	return d.engine.HandleOccurrence(ctx, event, args, userID, candidates)
}
