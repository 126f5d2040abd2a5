package service

import (
	"context"

	"evot/internal/apierror"
	"evot/internal/dto"
	"evot/internal/model"
	"evot/internal/repository"
	"evot/internal/worker"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

const (
	MsgInstitucionExiste = "La institucion ya existe"
	MsgEstadoSoloAdmin   = "Solo un administrador puede cambiar el estado de la institución"
)

type InstitucionService interface {
	Crear(ctx context.Context, actor *dto.Actor, req dto.CrearInstitucionRequest) (*dto.InstitucionResponse, error)
	Actualizar(ctx context.Context, actor *dto.Actor, id uuid.UUID, req dto.ActualizarInstitucionRequest) (*dto.InstitucionResponse, error)
	CambiarEstado(ctx context.Context, id uuid.UUID, estado bool) (*dto.InstitucionResponse, error)
	ListarTodas(ctx context.Context) ([]dto.InstitucionResponse, error)
	ListarActivas(ctx context.Context) ([]dto.InstitucionResponse, error)
	ObtenerPorID(ctx context.Context, actor *dto.Actor, id uuid.UUID) (*dto.InstitucionResponse, error)
}

type institucionService struct {
	repo        repository.InstitucionRepository
	usuarios    repository.UsuarioRepository
	diplomas    repository.DiplomaRepository
	cache       repository.VerificacionCache
	identidades IdentityInvalidator
	mailer      EmailEnqueuer
}

func NewInstitucionService(
	repo repository.InstitucionRepository,
	usuarios repository.UsuarioRepository,
	diplomas repository.DiplomaRepository,
	cache repository.VerificacionCache,
	identidades IdentityInvalidator,
	mailer EmailEnqueuer,
) InstitucionService {
	return &institucionService{
		repo:        repo,
		usuarios:    usuarios,
		diplomas:    diplomas,
		cache:       cache,
		identidades: identidades,
		mailer:      mailer,
	}
}

func (s *institucionService) Crear(ctx context.Context, actor *dto.Actor, req dto.CrearInstitucionRequest) (*dto.InstitucionResponse, error) {
	if actor == nil {
		return nil, apierror.Unauthorized(MsgNoAutorizado)
	}
	fecha, err := diaRequerido(req.FechaResolucion)
	if err != nil {
		return nil, err
	}

	exists, err := s.repo.ExistsByCodigoOResolucion(ctx, req.CodigoInstitucion, req.Resolucion, nil)
	if err != nil {
		return nil, apierror.Internal(err)
	}
	if exists {
		return nil, apierror.Conflict(MsgInstitucionExiste)
	}

	owner, err := s.resolverDueno(ctx, actor, req.Usuario)
	if err != nil {
		return nil, err
	}

	inst := &model.Institucion{
		CodigoInstitucion: req.CodigoInstitucion,
		NombreInstitucion: req.NombreInstitucion,
		Ciudad:            req.Ciudad,
		Departamento:      req.Departamento,
		Resolucion:        req.Resolucion,
		FechaResolucion:   fecha,
		UsuarioID:         owner.ID,
		Estado:            true,
	}
	err = runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		if err := s.repo.Create(ctx, tx, inst); err != nil {
			return err
		}
		// First institution wins: only back-filled while the owner has none.
		return s.usuarios.AsignarInstitucion(ctx, tx, owner.ID, inst.ID)
	})
	if err != nil {
		return nil, writeErr(err, MsgInstitucionExiste)
	}
	if s.identidades != nil {
		s.identidades.Invalidate(owner.ID)
	}

	inst.Usuario = owner
	resp := mapInstitucion(inst, false)
	return &resp, nil
}

// resolverDueno picks the owning user: ADMIN may name one (defaulting to
// itself), anyone else owns what they create.
func (s *institucionService) resolverDueno(ctx context.Context, actor *dto.Actor, usuario *string) (*model.Usuario, error) {
	if actor.EsAdmin() && usuario != nil && *usuario != "" {
		id, err := uuid.Parse(*usuario)
		if err != nil {
			return nil, apierror.Validation("Usuario inválido")
		}
		owner, err := s.usuarios.FindByID(ctx, id)
		if err != nil {
			return nil, lookupErr(err, MsgUsuarioNoExiste)
		}
		return owner, nil
	}
	owner, err := s.usuarios.FindByID(ctx, actor.UsuarioID)
	if err != nil {
		if isNotFound(err) {
			return nil, apierror.Unauthorized(MsgNoAutorizado)
		}
		return nil, apierror.Internal(err)
	}
	return owner, nil
}

func (s *institucionService) Actualizar(ctx context.Context, actor *dto.Actor, id uuid.UUID, req dto.ActualizarInstitucionRequest) (*dto.InstitucionResponse, error) {
	if actor == nil {
		return nil, apierror.Unauthorized(MsgNoAutorizado)
	}
	inst, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, lookupErr(err, MsgInstitucionNoExiste)
	}
	if !actor.EsAdmin() && inst.UsuarioID != actor.UsuarioID {
		return nil, apierror.Forbidden(MsgSinPermisos)
	}
	if req.Estado != nil && !actor.EsAdmin() {
		return nil, apierror.Forbidden(MsgEstadoSoloAdmin)
	}

	claveCambia := (req.CodigoInstitucion != nil && *req.CodigoInstitucion != inst.CodigoInstitucion) ||
		(req.Resolucion != nil && *req.Resolucion != inst.Resolucion)

	if req.CodigoInstitucion != nil {
		inst.CodigoInstitucion = *req.CodigoInstitucion
	}
	if req.NombreInstitucion != nil {
		inst.NombreInstitucion = *req.NombreInstitucion
	}
	if req.Ciudad != nil {
		inst.Ciudad = *req.Ciudad
	}
	if req.Departamento != nil {
		inst.Departamento = *req.Departamento
	}
	if req.Resolucion != nil {
		inst.Resolucion = *req.Resolucion
	}
	if req.FechaResolucion != nil {
		fecha, err := diaRequerido(*req.FechaResolucion)
		if err != nil {
			return nil, err
		}
		inst.FechaResolucion = fecha
	}
	if req.Estado != nil {
		inst.Estado = *req.Estado
	}

	if claveCambia {
		exists, err := s.repo.ExistsByCodigoOResolucion(ctx, inst.CodigoInstitucion, inst.Resolucion, &inst.ID)
		if err != nil {
			return nil, apierror.Internal(err)
		}
		if exists {
			return nil, apierror.Conflict(MsgInstitucionExiste)
		}
	}

	if err := s.repo.Update(ctx, inst); err != nil {
		return nil, writeErr(err, MsgInstitucionExiste)
	}
	s.invalidarVerificaciones(ctx, inst.ID)
	resp := mapInstitucion(inst, false)
	return &resp, nil
}

func (s *institucionService) CambiarEstado(ctx context.Context, id uuid.UUID, estado bool) (*dto.InstitucionResponse, error) {
	if err := s.repo.UpdateEstado(ctx, id, estado); err != nil {
		return nil, lookupErr(err, MsgInstitucionNoExiste)
	}
	inst, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, lookupErr(err, MsgInstitucionNoExiste)
	}
	s.invalidarVerificaciones(ctx, id)

	if inst.Usuario != nil {
		asunto, cuerpo := "Licencia activada", "La licencia de "+inst.NombreInstitucion+" fue activada."
		if !estado {
			asunto, cuerpo = "Licencia desactivada", "La licencia de "+inst.NombreInstitucion+" fue desactivada. Contacta al administrador."
		}
		notificar(ctx, s.mailer, worker.EmailJobPayload{Para: inst.Usuario.Correo, Asunto: asunto, Cuerpo: cuerpo})
	}

	resp := mapInstitucion(inst, false)
	return &resp, nil
}

func (s *institucionService) ListarTodas(ctx context.Context) ([]dto.InstitucionResponse, error) {
	list, err := s.repo.ListConUsuario(ctx)
	if err != nil {
		return nil, apierror.Internal(err)
	}
	return mapInstituciones(list, false), nil
}

func (s *institucionService) ListarActivas(ctx context.Context) ([]dto.InstitucionResponse, error) {
	list, err := s.repo.ListConUsuarioActivo(ctx)
	if err != nil {
		return nil, apierror.Internal(err)
	}
	return mapInstituciones(list, true), nil
}

func (s *institucionService) ObtenerPorID(ctx context.Context, actor *dto.Actor, id uuid.UUID) (*dto.InstitucionResponse, error) {
	inst, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, lookupErr(err, MsgInstitucionNoExiste)
	}
	if !inst.Estado && !actor.EsAdmin() {
		return nil, apierror.NotFound(MsgInstitucionNoExiste)
	}
	resp := mapInstitucion(inst, false)
	return &resp, nil
}

func mapInstituciones(list []model.Institucion, conRol bool) []dto.InstitucionResponse {
	resp := make([]dto.InstitucionResponse, len(list))
	for i := range list {
		resp[i] = mapInstitucion(&list[i], conRol)
	}
	return resp
}

// invalidarVerificaciones drops the cached public lookups that embed this
// institution's data.
func (s *institucionService) invalidarVerificaciones(ctx context.Context, id uuid.UUID) {
	if s.cache == nil {
		return
	}
	cedulas, err := s.diplomas.CedulasByInstitucion(ctx, id)
	if err != nil {
		log.Warn().Err(err).Str("institucion_id", id.String()).Msg("verificacion cache: cedulas lookup")
		return
	}
	s.cache.Invalidate(ctx, cedulas...)
}
