package service

import (
	"context"
	"errors"
	"time"

	"evot/internal/apierror"
	"evot/internal/dto"
	"evot/internal/model"
	"evot/internal/repository"
	"evot/internal/worker"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// Client-facing messages shared by several services.
const (
	MsgNoAutorizado        = "Error, no autorizado"
	MsgSinPermisos         = "No tienes permisos sobre este recurso"
	MsgSinRol              = "Desautorizado, no tienes el rol para ejecutar esta función."
	MsgLicencia            = "Verifica tu licencia"
	MsgSinInstitucion      = "El usuario no tiene una institución asociada"
	MsgInstitucionFaltante = "Debe indicar la institución"
	MsgUsuarioNoExiste     = "Usuario no encontrado"
	MsgInstitucionNoExiste = "Institución no encontrada"
	MsgGraduadoNoExiste    = "El graduado no existe"
	MsgDiplomaNoExiste     = "Diploma no encontrado"
	MsgFechaInvalida       = "Formato de fecha inválido, use AAAA-MM-DD o RFC3339"
)

// EmailEnqueuer queues notification emails. *worker.Dispatcher implements it.
type EmailEnqueuer interface {
	EnqueueEmail(ctx context.Context, payload worker.EmailJobPayload) error
}

// runTx executes fn inside a DB transaction.
// When db is nil (unit tests with stub repos) fn is called with a nil tx.
func runTx(ctx context.Context, db *gorm.DB, fn func(tx *gorm.DB) error) error {
	if db == nil {
		return fn(nil)
	}
	return db.WithContext(ctx).Transaction(fn)
}

// notificar enqueues an email; failures are logged and never fail the request.
func notificar(ctx context.Context, q EmailEnqueuer, p worker.EmailJobPayload) {
	if q == nil || p.Para == "" {
		return
	}
	if err := q.EnqueueEmail(ctx, p); err != nil {
		log.Warn().Err(err).Str("to", p.Para).Msg("no se pudo encolar el email")
	}
}

func isNotFound(err error) bool { return errors.Is(err, gorm.ErrRecordNotFound) }

// lookupErr maps a repository read error: not found → NotFound(msg),
// anything else → Internal.
func lookupErr(err error, msg string) error {
	if isNotFound(err) {
		return apierror.NotFound(msg)
	}
	return apierror.Internal(err)
}

// writeErr maps a repository write error: unique violation → Conflict(msg).
func writeErr(err error, msg string) error {
	if errors.Is(err, repository.ErrDuplicate) {
		return apierror.Conflict(msg)
	}
	return apierror.Internal(err)
}

// fechaRequerida rejects an absent date; the layout was already checked while decoding.
func fechaRequerida(f dto.Fecha) (time.Time, error) {
	if f.IsZero() {
		return time.Time{}, apierror.Validation(MsgFechaInvalida)
	}
	return f.Time, nil
}

// diaRequerido is fechaRequerida for DATE columns: the clock part is dropped.
func diaRequerido(f dto.Fecha) (time.Time, error) {
	if _, err := fechaRequerida(f); err != nil {
		return time.Time{}, err
	}
	return f.Dia(), nil
}

// institucionDelActor resolves the institution an operation acts on: the
// actor's own, or the explicit one when the actor has none.
func institucionDelActor(actor *dto.Actor, explicita *string) (uuid.UUID, error) {
	if actor.TieneInstitucion() {
		return *actor.InstitucionID, nil
	}
	if explicita == nil || *explicita == "" {
		if actor.EsAdmin() {
			return uuid.Nil, apierror.Validation(MsgInstitucionFaltante)
		}
		return uuid.Nil, apierror.Forbidden(MsgSinInstitucion)
	}
	id, err := uuid.Parse(*explicita)
	if err != nil {
		return uuid.Nil, apierror.Validation(MsgInstitucionFaltante)
	}
	return id, nil
}

// ── Mappers ──────────────────────────────────────────────────────────────────

func uuidPtrString(id *uuid.UUID) *string {
	if id == nil {
		return nil
	}
	s := id.String()
	return &s
}

func mapUsuario(u *model.Usuario) dto.UsuarioResponse {
	return dto.UsuarioResponse{
		ID:            u.ID.String(),
		NombreUsuario: u.NombreUsuario,
		Correo:        u.Correo,
		Rol:           u.Rol,
		InstitucionID: uuidPtrString(u.InstitucionID),
		Activo:        u.Activo,
	}
}

func mapInstitucion(i *model.Institucion, conRol bool) dto.InstitucionResponse {
	r := dto.InstitucionResponse{
		ID:                i.ID.String(),
		CodigoInstitucion: i.CodigoInstitucion,
		NombreInstitucion: i.NombreInstitucion,
		Ciudad:            i.Ciudad,
		Departamento:      i.Departamento,
		Resolucion:        i.Resolucion,
		FechaResolucion:   i.FechaResolucion.Format(dto.FechaLayout),
		Estado:            i.Estado,
		UsuarioID:         i.UsuarioID.String(),
	}
	if i.Usuario != nil {
		u := &dto.UsuarioPublico{
			ID:            i.Usuario.ID.String(),
			NombreUsuario: i.Usuario.NombreUsuario,
			Correo:        i.Usuario.Correo,
			Activo:        i.Usuario.Activo,
		}
		if conRol {
			u.Rol = i.Usuario.Rol
		}
		r.Usuario = u
	}
	return r
}

func mapGraduado(g *model.Graduado) dto.GraduadoResponse {
	return dto.GraduadoResponse{
		ID:              g.ID.String(),
		Cedula:          g.Cedula,
		NombreCompleto:  g.NombreCompleto,
		FechaNacimiento: g.FechaNacimiento.Format(dto.FechaLayout),
		Estado:          g.Estado,
	}
}

func mapDiploma(d *model.Diploma) dto.DiplomaResponse {
	r := dto.DiplomaResponse{
		ID:               d.ID.String(),
		CodigoDiploma:    d.CodigoDiploma,
		NombrePrograma:   d.NombrePrograma,
		NivelPrograma:    d.NivelPrograma,
		RegistroPrograma: d.RegistroPrograma,
		Libro:            d.Libro,
		FechaGrados:      d.FechaGrados,
		Estado:           d.Estado,
		GraduadoID:       d.GraduadoID.String(),
		InstitucionID:    d.InstitucionID.String(),
	}
	if d.Institucion != nil {
		r.Institucion = &dto.InstitucionResumen{
			ID:                d.Institucion.ID.String(),
			CodigoInstitucion: d.Institucion.CodigoInstitucion,
			NombreInstitucion: d.Institucion.NombreInstitucion,
			Ciudad:            d.Institucion.Ciudad,
		}
	}
	if d.Graduado != nil {
		r.Graduado = &dto.GraduadoResumen{
			ID:             d.Graduado.ID.String(),
			Cedula:         d.Graduado.Cedula,
			NombreCompleto: d.Graduado.NombreCompleto,
		}
	}
	return r
}
