// Package session holds each actor's stateful collaborators (cart,
// autocomplete, order tracker) in an explicit per-actor context: rehydrated
// from the persistence gateway on first use, torn down at logout.
package session

import (
	"context"
	"log"
	"sync"
	"time"

	"hatid/internal/cart"
	"hatid/internal/geo"
	"hatid/internal/kv"
	"hatid/internal/models"
	"hatid/internal/orders"
)

// Session bundles one actor's stateful collaborators. Customers get the full
// set; couriers only track orders.
type Session struct {
	Actor        models.Actor
	Cart         *cart.Store
	Autocomplete *geo.Autocomplete
	Tracker      *orders.Tracker

	cancel context.CancelFunc
}

// Manager creates, caches and tears down sessions. One session per actor id;
// the cart has exactly one mutator because of it.
type Manager struct {
	baseCtx      context.Context
	gateway      kv.Store
	resolver     *geo.Resolver
	orderClient  *orders.Client
	pollInterval time.Duration

	mu       sync.Mutex
	sessions map[string]*Session
}

func NewManager(ctx context.Context, gateway kv.Store, resolver *geo.Resolver, orderClient *orders.Client, pollInterval time.Duration) *Manager {
	return &Manager{
		baseCtx:      ctx,
		gateway:      gateway,
		resolver:     resolver,
		orderClient:  orderClient,
		pollInterval: pollInterval,
		sessions:     make(map[string]*Session),
	}
}

// Get returns the actor's session, creating and rehydrating it on first use
// and starting its polling loop.
func (m *Manager) Get(ctx context.Context, actor models.Actor) (*Session, error) {
	m.mu.Lock()
	if sess, ok := m.sessions[actor.ID]; ok {
		m.mu.Unlock()
		return sess, nil
	}
	m.mu.Unlock()

	sess := &Session{
		Actor:   actor,
		Tracker: orders.NewTracker(m.orderClient, m.gateway, actor, m.pollInterval),
	}
	if actor.Role == models.RoleCustomer {
		sess.Cart = cart.New(actor.ID, m.gateway)
		sess.Autocomplete = geo.NewAutocomplete(m.resolver)
		if err := sess.Cart.Rehydrate(ctx); err != nil {
			return nil, err
		}
	}
	if err := sess.Tracker.Rehydrate(ctx); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.sessions[actor.ID]; ok {
		// Lost the race to a concurrent first request.
		return existing, nil
	}

	runCtx, cancel := context.WithCancel(m.baseCtx)
	sess.cancel = cancel
	go sess.Tracker.Run(runCtx)

	m.sessions[actor.ID] = sess
	log.Printf("[SESSION] [INFO] session started for %s (%s)", actor.ID, actor.Role)
	return sess, nil
}

// Teardown stops the actor's polling loop and clears the persisted session
// keys. Safe to call for an actor without a session.
func (m *Manager) Teardown(ctx context.Context, actorID string) error {
	m.mu.Lock()
	sess, ok := m.sessions[actorID]
	delete(m.sessions, actorID)
	m.mu.Unlock()
	if !ok {
		return nil
	}

	if sess.cancel != nil {
		sess.cancel()
	}
	if sess.Cart != nil {
		if err := sess.Cart.Clear(ctx); err != nil {
			return err
		}
	}
	if err := m.gateway.Remove(ctx, "unread:"+actorID); err != nil {
		return err
	}
	log.Printf("[SESSION] [INFO] session torn down for %s", actorID)
	return nil
}
