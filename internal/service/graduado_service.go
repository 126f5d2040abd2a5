package service

import (
	"context"
	"errors"

	"evot/internal/apierror"
	"evot/internal/dto"
	"evot/internal/model"
	"evot/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	MsgGraduadoCreado      = "Graduado registrado"
	MsgGraduadoAsociado    = "El estudiante ya existe en la base de datos, se asoció a la institución"
	MsgGraduadoYaAsociado  = "El estudiante ya existe en la base de datos y ya está asociado a la institución"
	MsgCedulaExiste        = "Ya existe un graduado con esa cédula"
	MsgGraduadoConDiplomas = "El graduado tiene diplomas registrados y no puede eliminarse"
)

type GraduadoService interface {
	Crear(ctx context.Context, actor *dto.Actor, req dto.CrearGraduadoRequest) (*dto.CrearGraduadoResponse, error)
	Listar(ctx context.Context) ([]dto.GraduadoResponse, error)
	ListarPorInstitucion(ctx context.Context, actor *dto.Actor, institucion *string) ([]dto.GraduadoResponse, error)
	ObtenerPorID(ctx context.Context, id uuid.UUID) (*dto.GraduadoResponse, error)
	Actualizar(ctx context.Context, actor *dto.Actor, id uuid.UUID, req dto.ActualizarGraduadoRequest) (*dto.GraduadoResponse, error)
	Eliminar(ctx context.Context, actor *dto.Actor, id uuid.UUID) error
}

type graduadoService struct {
	repo          repository.GraduadoRepository
	instituciones repository.InstitucionRepository
	diplomas      repository.DiplomaRepository
	cache         repository.VerificacionCache
}

func NewGraduadoService(
	repo repository.GraduadoRepository,
	instituciones repository.InstitucionRepository,
	diplomas repository.DiplomaRepository,
	cache repository.VerificacionCache,
) GraduadoService {
	return &graduadoService{repo: repo, instituciones: instituciones, diplomas: diplomas, cache: cache}
}

// Crear registers a graduate for an institution. A cedula is stored once;
// a second institution only adds an affiliation row.
func (s *graduadoService) Crear(ctx context.Context, actor *dto.Actor, req dto.CrearGraduadoRequest) (*dto.CrearGraduadoResponse, error) {
	if actor == nil {
		return nil, apierror.Unauthorized(MsgNoAutorizado)
	}
	instID, err := s.institucionObjetivo(actor, req.Institucion)
	if err != nil {
		return nil, err
	}
	if _, err := s.instituciones.FindByID(ctx, instID); err != nil {
		return nil, lookupErr(err, MsgInstitucionNoExiste)
	}
	fecha, err := diaRequerido(req.FechaNacimiento)
	if err != nil {
		return nil, err
	}

	g, err := s.repo.FindByCedula(ctx, nil, req.Cedula)
	switch {
	case err == nil:
		return s.asociar(ctx, instID, g)
	case !isNotFound(err):
		return nil, apierror.Internal(err)
	}

	g = &model.Graduado{
		Cedula:          req.Cedula,
		NombreCompleto:  req.NombreCompleto,
		FechaNacimiento: fecha,
		Estado:          true,
	}
	err = runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		if err := s.repo.Create(ctx, tx, g); err != nil {
			return err
		}
		_, err := s.repo.AsociarInstitucion(ctx, tx, instID, g.ID)
		return err
	})
	if errors.Is(err, repository.ErrDuplicate) {
		// Lost a race on the cedula index: the graduate now exists.
		existente, ferr := s.repo.FindByCedula(ctx, nil, req.Cedula)
		if ferr != nil {
			return nil, apierror.Internal(ferr)
		}
		return s.asociar(ctx, instID, existente)
	}
	if err != nil {
		return nil, apierror.Internal(err)
	}

	return &dto.CrearGraduadoResponse{Msg: MsgGraduadoCreado, Graduado: mapGraduado(g), Creado: true}, nil
}

func (s *graduadoService) asociar(ctx context.Context, instID uuid.UUID, g *model.Graduado) (*dto.CrearGraduadoResponse, error) {
	added, err := s.repo.AsociarInstitucion(ctx, nil, instID, g.ID)
	if err != nil {
		return nil, apierror.Internal(err)
	}
	msg := MsgGraduadoYaAsociado
	if added {
		msg = MsgGraduadoAsociado
	}
	return &dto.CrearGraduadoResponse{Msg: msg, Graduado: mapGraduado(g)}, nil
}

// institucionObjetivo: non-admins always act on their own institution;
// ADMIN must name one.
func (s *graduadoService) institucionObjetivo(actor *dto.Actor, explicita *string) (uuid.UUID, error) {
	if actor.EsAdmin() && explicita != nil && *explicita != "" {
		id, err := uuid.Parse(*explicita)
		if err != nil {
			return uuid.Nil, apierror.Validation(MsgInstitucionFaltante)
		}
		return id, nil
	}
	if actor.TieneInstitucion() {
		return *actor.InstitucionID, nil
	}
	if actor.EsAdmin() {
		return uuid.Nil, apierror.Validation(MsgInstitucionFaltante)
	}
	return uuid.Nil, apierror.Forbidden(MsgSinInstitucion)
}

func (s *graduadoService) Listar(ctx context.Context) ([]dto.GraduadoResponse, error) {
	list, err := s.repo.List(ctx)
	if err != nil {
		return nil, apierror.Internal(err)
	}
	return mapGraduados(list), nil
}

func (s *graduadoService) ListarPorInstitucion(ctx context.Context, actor *dto.Actor, institucion *string) ([]dto.GraduadoResponse, error) {
	if actor == nil {
		return nil, apierror.Unauthorized(MsgNoAutorizado)
	}
	instID, err := s.institucionObjetivo(actor, institucion)
	if err != nil {
		return nil, err
	}
	list, err := s.repo.ListByInstitucion(ctx, instID)
	if err != nil {
		return nil, apierror.Internal(err)
	}
	return mapGraduados(list), nil
}

func (s *graduadoService) ObtenerPorID(ctx context.Context, id uuid.UUID) (*dto.GraduadoResponse, error) {
	g, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, lookupErr(err, MsgGraduadoNoExiste)
	}
	resp := mapGraduado(g)
	return &resp, nil
}

// autorizar: ADMIN, or an institution affiliated with the graduate.
func (s *graduadoService) autorizar(ctx context.Context, actor *dto.Actor, graduadoID uuid.UUID) error {
	if actor == nil {
		return apierror.Unauthorized(MsgNoAutorizado)
	}
	if actor.EsAdmin() {
		return nil
	}
	if !actor.TieneInstitucion() {
		return apierror.Forbidden(MsgSinInstitucion)
	}
	ok, err := s.repo.ExisteRelacion(ctx, *actor.InstitucionID, graduadoID)
	if err != nil {
		return apierror.Internal(err)
	}
	if !ok {
		return apierror.Forbidden(MsgSinPermisos)
	}
	return nil
}

func (s *graduadoService) Actualizar(ctx context.Context, actor *dto.Actor, id uuid.UUID, req dto.ActualizarGraduadoRequest) (*dto.GraduadoResponse, error) {
	g, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, lookupErr(err, MsgGraduadoNoExiste)
	}
	if err := s.autorizar(ctx, actor, id); err != nil {
		return nil, err
	}

	cedulaAnterior := g.Cedula
	if req.Cedula != nil && *req.Cedula != g.Cedula {
		otro, err := s.repo.FindByCedula(ctx, nil, *req.Cedula)
		if err == nil && otro.ID != g.ID {
			return nil, apierror.Conflict(MsgCedulaExiste)
		}
		if err != nil && !isNotFound(err) {
			return nil, apierror.Internal(err)
		}
		g.Cedula = *req.Cedula
	}
	if req.NombreCompleto != nil {
		g.NombreCompleto = *req.NombreCompleto
	}
	if req.FechaNacimiento != nil {
		fecha, err := diaRequerido(*req.FechaNacimiento)
		if err != nil {
			return nil, err
		}
		g.FechaNacimiento = fecha
	}
	if req.Estado != nil {
		g.Estado = *req.Estado
	}

	if err := s.repo.Update(ctx, g); err != nil {
		return nil, writeErr(err, MsgCedulaExiste)
	}
	s.invalidar(ctx, cedulaAnterior, g.Cedula)

	resp := mapGraduado(g)
	return &resp, nil
}

func (s *graduadoService) Eliminar(ctx context.Context, actor *dto.Actor, id uuid.UUID) error {
	g, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return lookupErr(err, MsgGraduadoNoExiste)
	}
	if err := s.autorizar(ctx, actor, id); err != nil {
		return err
	}

	n, err := s.diplomas.CountByGraduado(ctx, id)
	if err != nil {
		return apierror.Internal(err)
	}
	if n > 0 {
		return apierror.Conflict(MsgGraduadoConDiplomas)
	}

	err = runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		if err := s.repo.EliminarRelaciones(ctx, tx, id); err != nil {
			return err
		}
		return s.repo.Delete(ctx, tx, id)
	})
	if err != nil {
		return lookupErr(err, MsgGraduadoNoExiste)
	}
	s.invalidar(ctx, g.Cedula)
	return nil
}

func (s *graduadoService) invalidar(ctx context.Context, cedulas ...int64) {
	if s.cache != nil {
		s.cache.Invalidate(ctx, cedulas...)
	}
}

func mapGraduados(list []model.Graduado) []dto.GraduadoResponse {
	resp := make([]dto.GraduadoResponse, len(list))
	for i := range list {
		resp[i] = mapGraduado(&list[i])
	}
	return resp
}
