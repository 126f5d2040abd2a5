package service

import (
	"context"
	"errors"
	"time"

	"evot/internal/apierror"
	"evot/internal/dto"
	"evot/internal/model"
	"evot/internal/repository"
	"evot/internal/token"
	"evot/internal/worker"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
)

const (
	MsgCredenciales     = "Correo o Contraseña incorrecta"
	MsgLoginOK          = "Logueo Exitoso!"
	MsgUsuarioExiste    = "El usuario ya existe"
	MsgPasswordActual   = "Contraseña incorrecta"
	MsgTokenInvalido    = "Token inválido o expirado"
	MsgSesionCerrada    = "La sesión fue cerrada, inicia sesión de nuevo"
	MsgPasswordCambiada = "Contraseña actualizada"
)

var loginTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "evot_login_total",
	Help: "Login attempts by outcome.",
}, []string{"result"})

type AuthService interface {
	Login(ctx context.Context, req dto.LoginRequest) (*dto.LoginResponse, error)
	Refresh(ctx context.Context, refreshToken string) (*dto.RefreshResponse, error)
	Logout(ctx context.Context, actor *dto.Actor) error
	Sesion(ctx context.Context, actor *dto.Actor) (*dto.SesionResponse, error)
	Registrar(ctx context.Context, req dto.RegistrarUsuarioRequest) (*dto.UsuarioResponse, error)
	ResetPassword(ctx context.Context, actor *dto.Actor, req dto.ResetPasswordRequest) error
	CambiarEstado(ctx context.Context, id uuid.UUID, activo bool) (*dto.UsuarioResponse, error)
	ListarUsuarios(ctx context.Context) ([]dto.UsuarioResponse, error)
	ObtenerUsuario(ctx context.Context, actor *dto.Actor, id uuid.UUID) (*dto.UsuarioResponse, error)
}

type authService struct {
	repo        repository.UsuarioRepository
	issuer      *token.Issuer
	sesiones    repository.SesionStore
	identidades IdentityInvalidator
	mailer      EmailEnqueuer
	cost        int
	dummyHash   []byte
}

func NewAuthService(
	repo repository.UsuarioRepository,
	issuer *token.Issuer,
	sesiones repository.SesionStore,
	identidades IdentityInvalidator,
	mailer EmailEnqueuer,
	bcryptCost int,
) AuthService {
	// Compared against when the correo is unknown so both failure paths
	// spend the same bcrypt time.
	dummy, _ := bcrypt.GenerateFromPassword([]byte("evot-dummy-password"), bcryptCost)
	return &authService{
		repo:        repo,
		issuer:      issuer,
		sesiones:    sesiones,
		identidades: identidades,
		mailer:      mailer,
		cost:        bcryptCost,
		dummyHash:   dummy,
	}
}

func (s *authService) Login(ctx context.Context, req dto.LoginRequest) (*dto.LoginResponse, error) {
	user, err := s.repo.FindByCorreo(ctx, req.Correo)
	if err != nil {
		if !isNotFound(err) {
			return nil, apierror.Internal(err)
		}
		_ = bcrypt.CompareHashAndPassword(s.dummyHash, []byte(req.Password))
		loginTotal.WithLabelValues("invalid").Inc()
		return nil, apierror.Unauthorized(MsgCredenciales)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		loginTotal.WithLabelValues("invalid").Inc()
		return nil, apierror.Unauthorized(MsgCredenciales)
	}
	if !user.Activo {
		loginTotal.WithLabelValues("inactive").Inc()
		return nil, apierror.Unauthorized(MsgLicencia)
	}

	sid := uuid.NewString()
	pair, err := s.issuer.Issue(token.Subject{
		UserID:        user.ID.String(),
		NombreUsuario: user.NombreUsuario,
		Correo:        user.Correo,
		Rol:           user.Rol,
	}, sid)
	if err != nil {
		return nil, apierror.Internal(err)
	}

	ses := repository.Sesion{
		ID:            sid,
		UsuarioID:     user.ID.String(),
		Correo:        user.Correo,
		Rol:           user.Rol,
		InstitucionID: uuidPtrString(user.InstitucionID),
		CreadaEn:      time.Now().UTC(),
	}
	if err := s.sesiones.Guardar(ctx, ses, s.issuer.RefreshTTL()); err != nil {
		return nil, apierror.Internal(err)
	}

	loginTotal.WithLabelValues("ok").Inc()
	log.Info().Str("usuario_id", user.ID.String()).Str("sid", sid).Msg("login")

	return &dto.LoginResponse{
		Msg:          MsgLoginOK,
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		TokenType:    "bearer",
		ExpiresIn:    int(pair.AccessTTL.Seconds()),
		Usuario:      mapUsuario(user),
	}, nil
}

func (s *authService) Refresh(ctx context.Context, refreshToken string) (*dto.RefreshResponse, error) {
	access, claims, err := s.issuer.Refresh(refreshToken)
	if err != nil {
		return nil, apierror.Unauthorized(MsgTokenInvalido)
	}

	if _, err := s.sesiones.Obtener(ctx, claims.SesionID); err != nil {
		if errors.Is(err, repository.ErrSesionNoEncontrada) {
			return nil, apierror.Unauthorized(MsgSesionCerrada)
		}
		return nil, apierror.Internal(err)
	}

	uid, err := uuid.Parse(claims.UserID)
	if err != nil {
		return nil, apierror.Unauthorized(MsgTokenInvalido)
	}
	user, err := s.repo.FindByID(ctx, uid)
	if err != nil {
		if isNotFound(err) {
			return nil, apierror.Unauthorized(MsgTokenInvalido)
		}
		return nil, apierror.Internal(err)
	}
	if !user.Activo {
		return nil, apierror.Unauthorized(MsgLicencia)
	}

	return &dto.RefreshResponse{
		AccessToken: access,
		TokenType:   "bearer",
		ExpiresIn:   int(s.issuer.AccessTTL().Seconds()),
	}, nil
}

func (s *authService) Logout(ctx context.Context, actor *dto.Actor) error {
	if actor == nil {
		return apierror.Unauthorized(MsgNoAutorizado)
	}
	if err := s.sesiones.Eliminar(ctx, actor.SesionID); err != nil {
		return apierror.Internal(err)
	}
	return nil
}

func (s *authService) Sesion(ctx context.Context, actor *dto.Actor) (*dto.SesionResponse, error) {
	if actor == nil {
		return nil, apierror.Unauthorized(MsgNoAutorizado)
	}
	resp := &dto.SesionResponse{
		UsuarioID:     actor.UsuarioID.String(),
		NombreUsuario: actor.NombreUsuario,
		Correo:        actor.Correo,
		Rol:           actor.Rol,
		InstitucionID: uuidPtrString(actor.InstitucionID),
		SesionID:      actor.SesionID,
	}
	ses, err := s.sesiones.Obtener(ctx, actor.SesionID)
	switch {
	case err == nil:
		creada := ses.CreadaEn
		resp.CreadaEn = &creada
	case errors.Is(err, repository.ErrSesionNoEncontrada):
		return nil, apierror.Unauthorized(MsgSesionCerrada)
	default:
		return nil, apierror.Internal(err)
	}
	return resp, nil
}

func (s *authService) Registrar(ctx context.Context, req dto.RegistrarUsuarioRequest) (*dto.UsuarioResponse, error) {
	req.Correo = model.NormalizarCorreo(req.Correo)
	exists, err := s.repo.ExistsByNombreOCorreo(ctx, req.NombreUsuario, req.Correo)
	if err != nil {
		return nil, apierror.Internal(err)
	}
	if exists {
		return nil, apierror.Conflict(MsgUsuarioExiste)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.cost)
	if err != nil {
		return nil, apierror.Internal(err)
	}
	user := &model.Usuario{
		NombreUsuario: req.NombreUsuario,
		Correo:        req.Correo,
		PasswordHash:  string(hash),
		Rol:           req.Rol,
		Activo:        true,
	}
	if err := s.repo.Create(ctx, user); err != nil {
		return nil, writeErr(err, MsgUsuarioExiste)
	}

	notificar(ctx, s.mailer, worker.EmailJobPayload{
		Para:   user.Correo,
		Asunto: "Bienvenido a EVOT",
		Cuerpo: "Hola " + user.NombreUsuario + ", tu cuenta fue creada. Ya puedes iniciar sesión con este correo.",
	})

	resp := mapUsuario(user)
	return &resp, nil
}

func (s *authService) ResetPassword(ctx context.Context, actor *dto.Actor, req dto.ResetPasswordRequest) error {
	if actor == nil {
		return apierror.Unauthorized(MsgNoAutorizado)
	}
	user, err := s.repo.FindByID(ctx, actor.UsuarioID)
	if err != nil {
		if isNotFound(err) {
			return apierror.Unauthorized(MsgNoAutorizado)
		}
		return apierror.Internal(err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.PasswordActual)); err != nil {
		return apierror.Unauthorized(MsgPasswordActual)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(req.PasswordNueva), s.cost)
	if err != nil {
		return apierror.Internal(err)
	}
	if err := s.repo.UpdatePassword(ctx, user.ID, string(hash)); err != nil {
		return apierror.Internal(err)
	}
	return nil
}

func (s *authService) CambiarEstado(ctx context.Context, id uuid.UUID, activo bool) (*dto.UsuarioResponse, error) {
	if err := s.repo.UpdateActivo(ctx, id, activo); err != nil {
		return nil, lookupErr(err, MsgUsuarioNoExiste)
	}
	if s.identidades != nil {
		s.identidades.Invalidate(id)
	}
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, lookupErr(err, MsgUsuarioNoExiste)
	}
	resp := mapUsuario(user)
	return &resp, nil
}

func (s *authService) ListarUsuarios(ctx context.Context) ([]dto.UsuarioResponse, error) {
	users, err := s.repo.List(ctx)
	if err != nil {
		return nil, apierror.Internal(err)
	}
	resp := make([]dto.UsuarioResponse, len(users))
	for i := range users {
		resp[i] = mapUsuario(&users[i])
	}
	return resp, nil
}

func (s *authService) ObtenerUsuario(ctx context.Context, actor *dto.Actor, id uuid.UUID) (*dto.UsuarioResponse, error) {
	if actor == nil {
		return nil, apierror.Unauthorized(MsgNoAutorizado)
	}
	if !actor.EsAdmin() && actor.UsuarioID != id {
		return nil, apierror.Forbidden(MsgSinPermisos)
	}
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, lookupErr(err, MsgUsuarioNoExiste)
	}
	resp := mapUsuario(user)
	return &resp, nil
}
