package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"evot/internal/apierror"
	"evot/internal/dto"
	"evot/internal/repository"
	"evot/internal/service"
	"evot/internal/token"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

const (
	ActorKey = "actor"
)

// SesionLookup reports whether the session behind a token is still open.
type SesionLookup interface {
	Obtener(ctx context.Context, id string) (*repository.Sesion, error)
}

// JWTAuth validates the access token on every protected route and attaches
// the caller's live identity as a *dto.Actor. A token whose session was
// closed by logout is rejected. It never writes to storage.
func JWTAuth(issuer *token.Issuer, sesiones SesionLookup, identidades service.IdentityResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := strings.TrimSpace(c.GetHeader("Authorization"))
		// Clients send either "Bearer <t>" or the bare token.
		raw := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
		if raw == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, apierror.New(service.MsgNoAutorizado))
			return
		}

		claims, err := issuer.Parse(raw, token.TipoAccess)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, apierror.New(service.MsgTokenInvalido))
			return
		}
		uid, err := uuid.Parse(claims.UserID)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, apierror.New(service.MsgTokenInvalido))
			return
		}

		if _, err := sesiones.Obtener(c.Request.Context(), claims.SesionID); err != nil {
			if !errors.Is(err, repository.ErrSesionNoEncontrada) {
				log.Error().Err(err).Str("request_id", c.GetString(RequestIDKey)).Msg("session lookup failed")
				c.AbortWithStatusJSON(http.StatusInternalServerError, apierror.New(apierror.InternalMsg))
				return
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, apierror.New(service.MsgSesionCerrada))
			return
		}

		ident, err := identidades.Resolve(c.Request.Context(), uid)
		if err != nil {
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				log.Error().Err(err).Str("request_id", c.GetString(RequestIDKey)).Msg("identity lookup failed")
				c.AbortWithStatusJSON(http.StatusInternalServerError, apierror.New(apierror.InternalMsg))
				return
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, apierror.New(service.MsgNoAutorizado))
			return
		}
		if !ident.Activo {
			c.AbortWithStatusJSON(http.StatusUnauthorized, apierror.New(service.MsgLicencia))
			return
		}

		c.Set(ActorKey, &dto.Actor{
			UsuarioID:     ident.UsuarioID,
			NombreUsuario: ident.NombreUsuario,
			Correo:        ident.Correo,
			Rol:           ident.Rol,
			InstitucionID: ident.InstitucionID,
			SesionID:      claims.SesionID,
		})
		c.Next()
	}
}

// RequireRole rejects requests whose actor role is not in the allowed list.
func RequireRole(roles ...string) gin.HandlerFunc {
	allowed := make(map[string]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}
	return func(c *gin.Context) {
		actor := GetActor(c)
		if actor == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, apierror.New(service.MsgNoAutorizado))
			return
		}
		if !allowed[actor.Rol] {
			c.AbortWithStatusJSON(http.StatusForbidden, apierror.New(service.MsgSinRol))
			return
		}
		c.Next()
	}
}

// GetActor returns the authenticated actor, or nil on public routes.
func GetActor(c *gin.Context) *dto.Actor {
	v, ok := c.Get(ActorKey)
	if !ok {
		return nil
	}
	actor, _ := v.(*dto.Actor)
	return actor
}
