package service

import (
	"context"
	"fmt"

	"evot/internal/apierror"
	"evot/internal/dto"
	"evot/internal/infra"
	"evot/internal/model"
	"evot/internal/repository"
	"evot/internal/worker"

	"github.com/google/uuid"
)

const MsgDiplomaExiste = "El código de diploma ya existe"

type DiplomaService interface {
	Crear(ctx context.Context, actor *dto.Actor, req dto.CrearDiplomaRequest) (*dto.DiplomaResponse, error)
	ListarTodos(ctx context.Context) ([]dto.DiplomaResponse, error)
	ListarPorInstitucion(ctx context.Context, actor *dto.Actor) ([]dto.DiplomaResponse, error)
	ListarPorCedula(ctx context.Context, cedula int64) (*dto.VerificacionResponse, error)
	ObtenerPorID(ctx context.Context, id uuid.UUID) (*dto.DiplomaResponse, error)
	GenerarPDF(ctx context.Context, actor *dto.Actor, id uuid.UUID) ([]byte, string, error)
	Actualizar(ctx context.Context, actor *dto.Actor, id uuid.UUID, req dto.ActualizarDiplomaRequest) (*dto.DiplomaResponse, error)
	Eliminar(ctx context.Context, actor *dto.Actor, id uuid.UUID) error
}

type diplomaService struct {
	repo          repository.DiplomaRepository
	graduados     repository.GraduadoRepository
	instituciones repository.InstitucionRepository
	cache         repository.VerificacionCache
	mailer        EmailEnqueuer
}

func NewDiplomaService(
	repo repository.DiplomaRepository,
	graduados repository.GraduadoRepository,
	instituciones repository.InstitucionRepository,
	cache repository.VerificacionCache,
	mailer EmailEnqueuer,
) DiplomaService {
	return &diplomaService{repo: repo, graduados: graduados, instituciones: instituciones, cache: cache, mailer: mailer}
}

func (s *diplomaService) Crear(ctx context.Context, actor *dto.Actor, req dto.CrearDiplomaRequest) (*dto.DiplomaResponse, error) {
	if actor == nil {
		return nil, apierror.Unauthorized(MsgNoAutorizado)
	}
	fechaGrados, err := fechaRequerida(req.FechaGrados)
	if err != nil {
		return nil, err
	}
	exists, err := s.repo.ExistsByCodigo(ctx, req.CodigoDiploma, nil)
	if err != nil {
		return nil, apierror.Internal(err)
	}
	if exists {
		return nil, apierror.Conflict(MsgDiplomaExiste)
	}

	g, err := s.graduados.FindByCedula(ctx, nil, req.Cedula)
	if err != nil {
		return nil, lookupErr(err, MsgGraduadoNoExiste)
	}
	instID, err := institucionDelActor(actor, req.Institucion)
	if err != nil {
		return nil, err
	}
	inst, err := s.instituciones.FindByID(ctx, instID)
	if err != nil {
		return nil, lookupErr(err, MsgInstitucionNoExiste)
	}

	estado := true
	if req.Estado != nil {
		estado = *req.Estado
	}
	d := &model.Diploma{
		CodigoDiploma:    req.CodigoDiploma,
		NombrePrograma:   req.NombrePrograma,
		NivelPrograma:    req.NivelPrograma,
		RegistroPrograma: req.RegistroPrograma,
		Libro:            req.Libro,
		FechaGrados:      fechaGrados,
		GraduadoID:       g.ID,
		InstitucionID:    inst.ID,
		Estado:           estado,
	}
	if err := s.repo.Create(ctx, d); err != nil {
		return nil, writeErr(err, MsgDiplomaExiste)
	}
	s.invalidar(ctx, g.Cedula)

	if inst.Usuario != nil {
		notificar(ctx, s.mailer, worker.EmailJobPayload{
			Para:      inst.Usuario.Correo,
			Asunto:    "Diploma " + d.CodigoDiploma + " registrado",
			Cuerpo:    fmt.Sprintf("Se registró el diploma %s de %s para %s.", d.CodigoDiploma, d.NombrePrograma, g.NombreCompleto),
			DiplomaID: d.ID.String(),
		})
	}

	d.Graduado, d.Institucion = g, inst
	resp := mapDiploma(d)
	return &resp, nil
}

func (s *diplomaService) ListarTodos(ctx context.Context) ([]dto.DiplomaResponse, error) {
	list, err := s.repo.List(ctx)
	if err != nil {
		return nil, apierror.Internal(err)
	}
	return mapDiplomas(list), nil
}

func (s *diplomaService) ListarPorInstitucion(ctx context.Context, actor *dto.Actor) ([]dto.DiplomaResponse, error) {
	if actor == nil {
		return nil, apierror.Unauthorized(MsgNoAutorizado)
	}
	if !actor.TieneInstitucion() {
		return nil, apierror.Forbidden(MsgSinInstitucion)
	}
	list, err := s.repo.ListByInstitucion(ctx, *actor.InstitucionID)
	if err != nil {
		return nil, apierror.Internal(err)
	}
	return mapDiplomas(list), nil
}

// ListarPorCedula is the public verification lookup.
func (s *diplomaService) ListarPorCedula(ctx context.Context, cedula int64) (*dto.VerificacionResponse, error) {
	if s.cache != nil {
		if v, ok := s.cache.Get(ctx, cedula); ok {
			return v, nil
		}
	}

	g, err := s.graduados.FindByCedula(ctx, nil, cedula)
	if err != nil {
		return nil, lookupErr(err, MsgGraduadoNoExiste)
	}
	rows, err := s.repo.ListByCedula(ctx, cedula)
	if err != nil {
		return nil, apierror.Internal(err)
	}

	resp := &dto.VerificacionResponse{
		Graduado: dto.GraduadoResumen{ID: g.ID.String(), Cedula: g.Cedula, NombreCompleto: g.NombreCompleto},
		Diplomas: make([]dto.DiplomaResponse, 0, len(rows)),
	}
	for _, r := range rows {
		resp.Diplomas = append(resp.Diplomas, dto.DiplomaResponse{
			ID:               r.ID.String(),
			CodigoDiploma:    r.CodigoDiploma,
			NombrePrograma:   r.NombrePrograma,
			NivelPrograma:    r.NivelPrograma,
			RegistroPrograma: r.RegistroPrograma,
			Libro:            r.Libro,
			FechaGrados:      r.FechaGrados,
			Estado:           r.Estado,
			GraduadoID:       r.GraduadoID.String(),
			InstitucionID:    r.InstitucionID.String(),
			Institucion: &dto.InstitucionResumen{
				ID:                r.InstitucionID.String(),
				CodigoInstitucion: r.CodigoInstitucion,
				NombreInstitucion: r.NombreInstitucion,
				Ciudad:            r.Ciudad,
			},
			Graduado: &dto.GraduadoResumen{ID: r.GraduadoID.String(), Cedula: r.Cedula, NombreCompleto: r.NombreCompleto},
		})
	}

	if s.cache != nil {
		s.cache.Set(ctx, cedula, resp)
	}
	return resp, nil
}

func (s *diplomaService) ObtenerPorID(ctx context.Context, id uuid.UUID) (*dto.DiplomaResponse, error) {
	d, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, lookupErr(err, MsgDiplomaNoExiste)
	}
	resp := mapDiploma(d)
	return &resp, nil
}

func (s *diplomaService) GenerarPDF(ctx context.Context, actor *dto.Actor, id uuid.UUID) ([]byte, string, error) {
	d, err := s.cargarAutorizado(ctx, actor, id)
	if err != nil {
		return nil, "", err
	}
	pdf, err := infra.GenerarDiplomaPDF(infra.CertificadoDeDiploma(d))
	if err != nil {
		return nil, "", apierror.Internal(err)
	}
	return pdf, "diploma_" + d.CodigoDiploma + ".pdf", nil
}

// cargarAutorizado loads a diploma the actor may manage: ADMIN, or the
// issuing institution.
func (s *diplomaService) cargarAutorizado(ctx context.Context, actor *dto.Actor, id uuid.UUID) (*model.Diploma, error) {
	if actor == nil {
		return nil, apierror.Unauthorized(MsgNoAutorizado)
	}
	d, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, lookupErr(err, MsgDiplomaNoExiste)
	}
	if !actor.EsAdmin() && !actor.EsDuenoDe(d.InstitucionID) {
		return nil, apierror.Forbidden(MsgSinPermisos)
	}
	return d, nil
}

func (s *diplomaService) Actualizar(ctx context.Context, actor *dto.Actor, id uuid.UUID, req dto.ActualizarDiplomaRequest) (*dto.DiplomaResponse, error) {
	d, err := s.cargarAutorizado(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	cedulas := []int64{}
	if d.Graduado != nil {
		cedulas = append(cedulas, d.Graduado.Cedula)
	}

	if req.CodigoDiploma != nil && *req.CodigoDiploma != d.CodigoDiploma {
		exists, err := s.repo.ExistsByCodigo(ctx, *req.CodigoDiploma, &d.ID)
		if err != nil {
			return nil, apierror.Internal(err)
		}
		if exists {
			return nil, apierror.Conflict(MsgDiplomaExiste)
		}
		d.CodigoDiploma = *req.CodigoDiploma
	}
	if req.Cedula != nil {
		g, err := s.graduados.FindByCedula(ctx, nil, *req.Cedula)
		if err != nil {
			return nil, lookupErr(err, MsgGraduadoNoExiste)
		}
		d.GraduadoID = g.ID
		d.Graduado = g
		cedulas = append(cedulas, g.Cedula)
	}
	if req.NombrePrograma != nil {
		d.NombrePrograma = *req.NombrePrograma
	}
	if req.NivelPrograma != nil {
		d.NivelPrograma = *req.NivelPrograma
	}
	if req.RegistroPrograma != nil {
		d.RegistroPrograma = *req.RegistroPrograma
	}
	if req.Libro != nil {
		d.Libro = *req.Libro
	}
	if req.FechaGrados != nil {
		fecha, err := fechaRequerida(*req.FechaGrados)
		if err != nil {
			return nil, err
		}
		d.FechaGrados = fecha
	}
	if req.Estado != nil {
		d.Estado = *req.Estado
	}

	if err := s.repo.Update(ctx, d); err != nil {
		return nil, writeErr(err, MsgDiplomaExiste)
	}
	s.invalidar(ctx, cedulas...)

	resp := mapDiploma(d)
	return &resp, nil
}

func (s *diplomaService) Eliminar(ctx context.Context, actor *dto.Actor, id uuid.UUID) error {
	d, err := s.cargarAutorizado(ctx, actor, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return lookupErr(err, MsgDiplomaNoExiste)
	}
	if d.Graduado != nil {
		s.invalidar(ctx, d.Graduado.Cedula)
	}
	return nil
}

func (s *diplomaService) invalidar(ctx context.Context, cedulas ...int64) {
	if s.cache != nil && len(cedulas) > 0 {
		s.cache.Invalidate(ctx, cedulas...)
	}
}

func mapDiplomas(list []model.Diploma) []dto.DiplomaResponse {
	resp := make([]dto.DiplomaResponse, len(list))
	for i := range list {
		resp[i] = mapDiploma(&list[i])
	}
	return resp
}
