package repository

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const sesionKeyPrefix = "sesion:"

// ErrSesionNoEncontrada is returned when the session expired or was closed.
var ErrSesionNoEncontrada = errors.New("sesión no encontrada")

// Sesion is the server-side record created at login.
type Sesion struct {
	ID            string    `json:"id"`
	UsuarioID     string    `json:"usuarioId"`
	Correo        string    `json:"correo"`
	Rol           string    `json:"rol"`
	InstitucionID *string   `json:"institucionId,omitempty"`
	CreadaEn      time.Time `json:"creadaEn"`
}

type SesionStore interface {
	Guardar(ctx context.Context, s Sesion, ttl time.Duration) error
	Obtener(ctx context.Context, id string) (*Sesion, error)
	Eliminar(ctx context.Context, id string) error
}

type redisSesionStore struct{ rdb *redis.Client }

func NewSesionStore(rdb *redis.Client) SesionStore { return &redisSesionStore{rdb: rdb} }

func (s *redisSesionStore) Guardar(ctx context.Context, ses Sesion, ttl time.Duration) error {
	raw, err := json.Marshal(ses)
	if err != nil {
		return err
	}
	return s.rdb.Set(ctx, sesionKeyPrefix+ses.ID, raw, ttl).Err()
}

func (s *redisSesionStore) Obtener(ctx context.Context, id string) (*Sesion, error) {
	if id == "" {
		return nil, ErrSesionNoEncontrada
	}
	raw, err := s.rdb.Get(ctx, sesionKeyPrefix+id).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrSesionNoEncontrada
	}
	if err != nil {
		return nil, err
	}
	var ses Sesion
	if err := json.Unmarshal(raw, &ses); err != nil {
		return nil, err
	}
	return &ses, nil
}

func (s *redisSesionStore) Eliminar(ctx context.Context, id string) error {
	if id == "" {
		return nil
	}
	return s.rdb.Del(ctx, sesionKeyPrefix+id).Err()
}
