package dto

import (
	"github.com/google/uuid"

	"evot/internal/model"
)

// Actor is the verified identity attached to a request by the auth guard.
// It is built per request and never mutated afterwards.
type Actor struct {
	UsuarioID     uuid.UUID
	NombreUsuario string
	Correo        string
	Rol           string
	InstitucionID *uuid.UUID
	SesionID      string
}

func (a *Actor) EsAdmin() bool { return a != nil && a.Rol == model.RolAdmin }

// TieneInstitucion reports whether the actor is linked to an institution.
func (a *Actor) TieneInstitucion() bool { return a != nil && a.InstitucionID != nil }

// EsDuenoDe reports whether the actor's institution is id.
func (a *Actor) EsDuenoDe(id uuid.UUID) bool {
	return a.TieneInstitucion() && *a.InstitucionID == id
}
