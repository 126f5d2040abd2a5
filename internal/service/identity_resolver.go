package service

import (
	"context"
	"time"

	"evot/internal/repository"

	"github.com/google/uuid"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	identityCacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "evot_identity_cache_hits_total",
		Help: "Identity lookups answered from the in-process LRU.",
	})
	identityCacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "evot_identity_cache_misses_total",
		Help: "Identity lookups that reached PostgreSQL.",
	})
)

// Identidad is the live state of a user needed to authorize a request.
type Identidad struct {
	UsuarioID     uuid.UUID
	NombreUsuario string
	Correo        string
	Rol           string
	InstitucionID *uuid.UUID
	Activo        bool
}

// IdentityInvalidator drops a cached identity after the user changes.
type IdentityInvalidator interface {
	Invalidate(id uuid.UUID)
}

// IdentityResolver returns the current Identidad of a token subject.
// Unknown users surface gorm.ErrRecordNotFound.
type IdentityResolver interface {
	IdentityInvalidator
	Resolve(ctx context.Context, id uuid.UUID) (Identidad, error)
}

// identityCache is a per-process LRU with TTL in front of the usuarios
// table. Entries are values, so callers can never mutate the cache.
type identityCache struct {
	repo  repository.UsuarioRepository
	cache *expirable.LRU[uuid.UUID, Identidad]
}

func NewIdentityResolver(repo repository.UsuarioRepository, size int, ttl time.Duration) IdentityResolver {
	if size <= 0 {
		size = 1024
	}
	return &identityCache{
		repo:  repo,
		cache: expirable.NewLRU[uuid.UUID, Identidad](size, nil, ttl),
	}
}

func (c *identityCache) Resolve(ctx context.Context, id uuid.UUID) (Identidad, error) {
	if v, ok := c.cache.Get(id); ok {
		identityCacheHits.Inc()
		return v, nil
	}
	identityCacheMisses.Inc()

	u, err := c.repo.FindByID(ctx, id)
	if err != nil {
		return Identidad{}, err
	}
	v := Identidad{
		UsuarioID:     u.ID,
		NombreUsuario: u.NombreUsuario,
		Correo:        u.Correo,
		Rol:           u.Rol,
		InstitucionID: u.InstitucionID,
		Activo:        u.Activo,
	}
	c.cache.Add(id, v)
	return v, nil
}

func (c *identityCache) Invalidate(id uuid.UUID) { c.cache.Remove(id) }
