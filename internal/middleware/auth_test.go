package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"evot/internal/model"
	"evot/internal/repository"
	"evot/internal/service"
	"evot/internal/token"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fakeResolver struct {
	ids map[uuid.UUID]service.Identidad
	err error
}

func (f *fakeResolver) Resolve(_ context.Context, id uuid.UUID) (service.Identidad, error) {
	if f.err != nil {
		return service.Identidad{}, f.err
	}
	ident, ok := f.ids[id]
	if !ok {
		return service.Identidad{}, gorm.ErrRecordNotFound
	}
	return ident, nil
}

func (f *fakeResolver) Invalidate(uuid.UUID) {}

type fakeSesiones struct {
	abiertas map[string]bool
	err      error
}

func (f *fakeSesiones) Obtener(_ context.Context, id string) (*repository.Sesion, error) {
	if f.err != nil {
		return nil, f.err
	}
	if !f.abiertas[id] {
		return nil, repository.ErrSesionNoEncontrada
	}
	return &repository.Sesion{ID: id}, nil
}

const testSecret = "middleware-test-secret"

func testRouter(issuer *token.Issuer, resolver service.IdentityResolver) *gin.Engine {
	return testRouterConSesiones(issuer, &fakeSesiones{abiertas: map[string]bool{"sid-1": true}}, resolver)
}

func testRouterConSesiones(issuer *token.Issuer, sesiones SesionLookup, resolver service.IdentityResolver) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestID())
	guard := JWTAuth(issuer, sesiones, resolver)
	r.GET("/protected", guard, func(c *gin.Context) {
		a := GetActor(c)
		c.JSON(http.StatusOK, gin.H{"user_id": a.UsuarioID.String(), "rol": a.Rol, "sid": a.SesionID})
	})
	r.GET("/admin", guard, RequireRole(model.RolAdmin), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})
	r.GET("/sin-guard", RequireRole(model.RolAdmin), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	return r
}

func issue(t *testing.T, issuer *token.Issuer, id uuid.UUID, rol string) token.Pair {
	t.Helper()
	pair, err := issuer.Issue(token.Subject{UserID: id.String(), NombreUsuario: "u", Correo: "u@x.co", Rol: rol}, "sid-1")
	require.NoError(t, err)
	return pair
}

func get(r *gin.Engine, path, auth string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func msgOf(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Msg string `json:"msg"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body.Msg
}

func TestJWTAuth_MissingHeader(t *testing.T) {
	r := testRouter(token.NewIssuer(testSecret, time.Hour, time.Hour), &fakeResolver{})
	w := get(r, "/protected", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, service.MsgNoAutorizado, msgOf(t, w))
}

func TestJWTAuth_BearerAndRawToken(t *testing.T) {
	issuer := token.NewIssuer(testSecret, time.Hour, time.Hour)
	id := uuid.New()
	r := testRouter(issuer, &fakeResolver{ids: map[uuid.UUID]service.Identidad{
		id: {UsuarioID: id, Rol: model.RolInstitucion, Activo: true},
	}})
	pair := issue(t, issuer, id, model.RolInstitucion)

	for _, h := range []string{"Bearer " + pair.AccessToken, pair.AccessToken} {
		w := get(r, "/protected", h)
		require.Equal(t, http.StatusOK, w.Code)
		var body map[string]string
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, id.String(), body["user_id"])
		assert.Equal(t, "sid-1", body["sid"])
	}
}

func TestJWTAuth_ExpiredToken(t *testing.T) {
	issuer := token.NewIssuer(testSecret, -time.Minute, time.Hour)
	id := uuid.New()
	r := testRouter(issuer, &fakeResolver{ids: map[uuid.UUID]service.Identidad{id: {UsuarioID: id, Activo: true}}})

	w := get(r, "/protected", "Bearer "+issue(t, issuer, id, model.RolAdmin).AccessToken)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, service.MsgTokenInvalido, msgOf(t, w))
}

func TestJWTAuth_RejectsRefreshTokenAndForeignSignature(t *testing.T) {
	issuer := token.NewIssuer(testSecret, time.Hour, time.Hour)
	id := uuid.New()
	r := testRouter(issuer, &fakeResolver{ids: map[uuid.UUID]service.Identidad{id: {UsuarioID: id, Activo: true}}})

	w := get(r, "/protected", "Bearer "+issue(t, issuer, id, model.RolAdmin).RefreshToken)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	other := token.NewIssuer("another-secret", time.Hour, time.Hour)
	w = get(r, "/protected", "Bearer "+issue(t, other, id, model.RolAdmin).AccessToken)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = get(r, "/protected", "Bearer not-a-jwt")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestJWTAuth_UnknownAndInactiveUsers(t *testing.T) {
	issuer := token.NewIssuer(testSecret, time.Hour, time.Hour)
	inactivo := uuid.New()
	r := testRouter(issuer, &fakeResolver{ids: map[uuid.UUID]service.Identidad{
		inactivo: {UsuarioID: inactivo, Rol: model.RolInstitucion, Activo: false},
	}})

	w := get(r, "/protected", "Bearer "+issue(t, issuer, uuid.New(), model.RolAdmin).AccessToken)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, service.MsgNoAutorizado, msgOf(t, w))

	w = get(r, "/protected", "Bearer "+issue(t, issuer, inactivo, model.RolInstitucion).AccessToken)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, service.MsgLicencia, msgOf(t, w))
}

func TestJWTAuth_ResolverFailureIsInternal(t *testing.T) {
	issuer := token.NewIssuer(testSecret, time.Hour, time.Hour)
	r := testRouter(issuer, &fakeResolver{err: errors.New("connection refused")})

	w := get(r, "/protected", "Bearer "+issue(t, issuer, uuid.New(), model.RolAdmin).AccessToken)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "connection refused")
}

func TestJWTAuth_RoleTakenFromLiveIdentity(t *testing.T) {
	issuer := token.NewIssuer(testSecret, time.Hour, time.Hour)
	id := uuid.New()
	// Token still says ADMIN but the stored role is INSTITUCION.
	r := testRouter(issuer, &fakeResolver{ids: map[uuid.UUID]service.Identidad{
		id: {UsuarioID: id, Rol: model.RolInstitucion, Activo: true},
	}})

	w := get(r, "/admin", "Bearer "+issue(t, issuer, id, model.RolAdmin).AccessToken)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, service.MsgSinRol, msgOf(t, w))
}

func TestRequireRole(t *testing.T) {
	issuer := token.NewIssuer(testSecret, time.Hour, time.Hour)
	id := uuid.New()
	r := testRouter(issuer, &fakeResolver{ids: map[uuid.UUID]service.Identidad{
		id: {UsuarioID: id, Rol: model.RolAdmin, Activo: true},
	}})

	w := get(r, "/admin", "Bearer "+issue(t, issuer, id, model.RolAdmin).AccessToken)
	assert.Equal(t, http.StatusOK, w.Code)

	w = get(r, "/sin-guard", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestJWTAuth_ClosedSessionRejected(t *testing.T) {
	issuer := token.NewIssuer(testSecret, time.Hour, time.Hour)
	id := uuid.New()
	resolver := &fakeResolver{ids: map[uuid.UUID]service.Identidad{id: {UsuarioID: id, Rol: model.RolAdmin, Activo: true}}}
	sesiones := &fakeSesiones{abiertas: map[string]bool{"sid-1": true}}
	r := testRouterConSesiones(issuer, sesiones, resolver)
	access := "Bearer " + issue(t, issuer, id, model.RolAdmin).AccessToken

	require.Equal(t, http.StatusOK, get(r, "/protected", access).Code)

	delete(sesiones.abiertas, "sid-1")
	w := get(r, "/protected", access)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, service.MsgSesionCerrada, msgOf(t, w))
}

func TestJWTAuth_SessionStoreFailureIsInternal(t *testing.T) {
	issuer := token.NewIssuer(testSecret, time.Hour, time.Hour)
	id := uuid.New()
	resolver := &fakeResolver{ids: map[uuid.UUID]service.Identidad{id: {UsuarioID: id, Activo: true}}}
	r := testRouterConSesiones(issuer, &fakeSesiones{err: errors.New("redis down")}, resolver)

	w := get(r, "/protected", "Bearer "+issue(t, issuer, id, model.RolAdmin).AccessToken)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "redis")
}
