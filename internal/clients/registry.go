package clients

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/diewo77/client-ledger/auth"
	"github.com/diewo77/client-ledger/internal/cache"
	"github.com/diewo77/client-ledger/internal/kv"
	"github.com/diewo77/client-ledger/internal/store"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Backends holds what is needed to build either repository.
type Backends struct {
	DB        *gorm.DB
	Authz     store.Authorizer
	Admins    auth.AdminChecker
	Mirror    kv.Storage
	MirrorTTL time.Duration
	Log       logrus.FieldLogger
}

// Repository picks the persistence strategy for id: the database for admins,
// the session mirror for everybody else.
func (b Backends) Repository(id auth.Identity) (store.ClientRepository, bool) {
	if id.Email != "" && b.Admins.IsAdmin(id.Email) {
		return store.NewRemoteRepository(b.DB, b.Authz, id), true
	}
	return store.NewLocalMirrorRepository(b.Mirror, id.SessionID, b.MirrorTTL, b.Log), false
}

// Registry keeps one Store per session. Idle stores expire after the TTL.
type Registry struct {
	mu      sync.Mutex
	stores  *cache.TTL[string, *Store]
	backend Backends
	log     logrus.FieldLogger
}

// NewRegistry creates a registry building repositories from b.
func NewRegistry(b Backends, idle time.Duration) *Registry {
	return &Registry{stores: cache.New[string, *Store](idle), backend: b, log: b.Log}
}

func storeKey(id auth.Identity) string {
	return id.SessionID + "|" + strings.ToLower(id.Email)
}

// For returns the session's store, creating and hydrating it on first use.
// A failed first load still yields a usable store with a queued notice.
// Hydration runs outside the registry lock; when two requests of one session
// race, the first store inserted wins.
func (r *Registry) For(ctx context.Context, id auth.Identity) *Store {
	key := storeKey(id)
	if s, ok := r.lookup(key); ok {
		return s
	}
	repo, admin := r.backend.Repository(id)
	s := NewStore(repo, admin, r.log.WithFields(logrus.Fields{"session": id.SessionID, "admin": admin}))
	_ = s.Load(ctx)

	r.mu.Lock()
	defer r.mu.Unlock()
	if cur, ok := r.stores.Get(key); ok {
		r.stores.Touch(key)
		return cur
	}
	r.stores.Set(key, s)
	return s
}

func (r *Registry) lookup(key string) (*Store, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.stores.Get(key)
	if ok {
		r.stores.Touch(key)
	}
	return s, ok
}

// Sweep drops expired stores.
func (r *Registry) Sweep() int {
	return r.stores.Purge()
}
