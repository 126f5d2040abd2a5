package service

import (
	"context"
	"testing"
	"time"

	"evot/internal/dto"
	"evot/internal/model"
	"evot/internal/token"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type fixture struct {
	usuarios      *stubUsuarioRepo
	instituciones *stubInstitucionRepo
	graduados     *stubGraduadoRepo
	diplomas      *stubDiplomaRepo
	sesiones      *stubSesionStore
	cache         *stubVerificacionCache
	mailer        *stubEnqueuer
	invalidator   *stubInvalidator
	issuer        *token.Issuer

	auth        AuthService
	institucion InstitucionService
	graduado    GraduadoService
	diploma     DiplomaService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		usuarios:    newStubUsuarioRepo(),
		graduados:   newStubGraduadoRepo(),
		sesiones:    newStubSesionStore(),
		cache:       newStubVerificacionCache(),
		mailer:      &stubEnqueuer{},
		invalidator: &stubInvalidator{},
		issuer:      token.NewIssuer("test-secret", time.Hour, 24*time.Hour),
	}
	f.instituciones = newStubInstitucionRepo(f.usuarios)
	f.diplomas = newStubDiplomaRepo(f.graduados, f.instituciones)

	f.auth = NewAuthService(f.usuarios, f.issuer, f.sesiones, f.invalidator, f.mailer, bcrypt.MinCost)
	f.institucion = NewInstitucionService(f.instituciones, f.usuarios, f.diplomas, f.cache, f.invalidator, f.mailer)
	f.graduado = NewGraduadoService(f.graduados, f.instituciones, f.diplomas, f.cache)
	f.diploma = NewDiplomaService(f.diplomas, f.graduados, f.instituciones, f.cache, f.mailer)
	return f
}

func (f *fixture) seedUsuario(t *testing.T, nombre, correo, password, rol string, activo bool) *model.Usuario {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	u := &model.Usuario{NombreUsuario: nombre, Correo: correo, PasswordHash: string(hash), Rol: rol, Activo: activo}
	require.NoError(t, f.usuarios.Create(context.Background(), u))
	return u
}

// seedInstitucion creates an INSTITUCION user owning a fresh institution and
// returns the actor that user would carry after login.
func (f *fixture) seedInstitucion(t *testing.T, codigo int64) (*dto.Actor, uuid.UUID) {
	t.Helper()
	suffix := uuid.NewString()[:8]
	u := f.seedUsuario(t, "inst-"+suffix, suffix+"@inst.edu.co", "password123", model.RolInstitucion, true)
	inst := &model.Institucion{
		CodigoInstitucion: codigo,
		NombreInstitucion: "Institución " + suffix,
		Ciudad:            "Medellín",
		Departamento:      "Antioquia",
		Resolucion:        "RES-" + suffix,
		FechaResolucion:   time.Date(2010, 1, 1, 0, 0, 0, 0, time.UTC),
		UsuarioID:         u.ID,
		Estado:            true,
	}
	require.NoError(t, f.instituciones.Create(context.Background(), nil, inst))
	require.NoError(t, f.usuarios.AsignarInstitucion(context.Background(), nil, u.ID, inst.ID))
	id := inst.ID
	return &dto.Actor{UsuarioID: u.ID, NombreUsuario: u.NombreUsuario, Correo: u.Correo, Rol: u.Rol, InstitucionID: &id}, inst.ID
}

func (f *fixture) adminActor(t *testing.T) *dto.Actor {
	t.Helper()
	u := f.seedUsuario(t, "admin-"+uuid.NewString()[:8], uuid.NewString()[:8]+"@evot.co", "adminpass1", model.RolAdmin, true)
	return &dto.Actor{UsuarioID: u.ID, NombreUsuario: u.NombreUsuario, Correo: u.Correo, Rol: model.RolAdmin}
}

func strPtr(s string) *string { return &s }
func boolPtr(b bool) *bool    { return &b }
func int64Ptr(n int64) *int64 { return &n }
