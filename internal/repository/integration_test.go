//go:build integration

package repository

// Run with: go test -tags integration ./internal/repository/... -v
// Needs a Docker daemon; starts postgres:16-alpine and redis:7-alpine.

import (
	"context"
	"errors"
	"testing"
	"time"

	"evot/internal/dto"
	"evot/internal/infra"
	"evot/internal/model"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcPostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	tcRedis "github.com/testcontainers/testcontainers-go/modules/redis"
	"github.com/testcontainers/testcontainers-go/wait"
	"gorm.io/gorm"
)

type testEnv struct {
	db  *gorm.DB
	rdb *redis.Client
}

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()
	ctx := context.Background()

	pgC, err := tcPostgres.Run(ctx,
		"postgres:16-alpine",
		tcPostgres.WithDatabase("evot_test"),
		tcPostgres.WithUsername("evot"),
		tcPostgres.WithPassword("evot"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = pgC.Terminate(ctx) })

	dsn, err := pgC.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	rdC, err := tcRedis.Run(ctx, "redis:7-alpine")
	require.NoError(t, err)
	t.Cleanup(func() { _ = rdC.Terminate(ctx) })

	rdURL, err := rdC.ConnectionString(ctx)
	require.NoError(t, err)

	require.NoError(t, infra.Migrate(dsn))
	// Applying twice is a no-op.
	require.NoError(t, infra.Migrate(dsn))

	db, err := infra.NewDatabase(dsn)
	require.NoError(t, err)
	rdb, err := infra.NewRedis(ctx, rdURL)
	require.NoError(t, err)
	t.Cleanup(func() { _ = rdb.Close() })

	return &testEnv{db: db, rdb: rdb}
}

func seedOwner(t *testing.T, repo UsuarioRepository, nombre string) *model.Usuario {
	t.Helper()
	u := &model.Usuario{NombreUsuario: nombre, Correo: nombre + "@inst.edu.co", PasswordHash: "x", Rol: model.RolInstitucion, Activo: true}
	require.NoError(t, repo.Create(context.Background(), u))
	return u
}

func seedInstitucion(t *testing.T, repo InstitucionRepository, owner *model.Usuario, codigo int64) *model.Institucion {
	t.Helper()
	i := &model.Institucion{
		CodigoInstitucion: codigo,
		NombreInstitucion: "Institución " + owner.NombreUsuario,
		Ciudad:            "Bogotá",
		Departamento:      "Cundinamarca",
		Resolucion:        "RES-" + owner.NombreUsuario,
		FechaResolucion:   time.Date(2001, 3, 4, 0, 0, 0, 0, time.UTC),
		UsuarioID:         owner.ID,
		Estado:            true,
	}
	require.NoError(t, repo.Create(context.Background(), nil, i))
	return i
}

func TestIntegration_Repositories(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()

	usuarios := NewUsuarioRepository(env.db)
	instituciones := NewInstitucionRepository(env.db)
	graduados := NewGraduadoRepository(env.db)
	diplomas := NewDiplomaRepository(env.db)

	t.Run("usuario unique correo is case-insensitive on lookup and translated on insert", func(t *testing.T) {
		u := seedOwner(t, usuarios, "unal")
		assert.NotEqual(t, "", u.ID.String())

		found, err := usuarios.FindByCorreo(ctx, "UNAL@inst.edu.co")
		require.NoError(t, err)
		assert.Equal(t, u.ID, found.ID)

		dup := &model.Usuario{NombreUsuario: "otro", Correo: u.Correo, PasswordHash: "x", Rol: model.RolAdmin, Activo: true}
		assert.ErrorIs(t, usuarios.Create(ctx, dup), ErrDuplicate)

		variante := &model.Usuario{NombreUsuario: "otro-2", Correo: "UNAL@Inst.EDU.co", PasswordHash: "x", Rol: model.RolAdmin, Activo: true}
		assert.ErrorIs(t, usuarios.Create(ctx, variante), ErrDuplicate)
	})

	t.Run("first institution wins", func(t *testing.T) {
		owner := seedOwner(t, usuarios, "udea")
		first := seedInstitucion(t, instituciones, owner, 2001)
		require.NoError(t, usuarios.AsignarInstitucion(ctx, nil, owner.ID, first.ID))

		second := seedInstitucion(t, instituciones, &model.Usuario{ID: owner.ID, NombreUsuario: "udea2"}, 2002)
		require.NoError(t, usuarios.AsignarInstitucion(ctx, nil, owner.ID, second.ID))

		reloaded, err := usuarios.FindByID(ctx, owner.ID)
		require.NoError(t, err)
		require.NotNil(t, reloaded.InstitucionID)
		assert.Equal(t, first.ID, *reloaded.InstitucionID)

		dup := &model.Institucion{CodigoInstitucion: 2001, NombreInstitucion: "x", Ciudad: "x", Departamento: "x",
			Resolucion: "otra", FechaResolucion: time.Now(), UsuarioID: owner.ID, Estado: true}
		assert.ErrorIs(t, instituciones.Create(ctx, nil, dup), ErrDuplicate)
	})

	t.Run("relation insert is idempotent and listings split by institution", func(t *testing.T) {
		ownerA := seedOwner(t, usuarios, "uva")
		ownerB := seedOwner(t, usuarios, "uvb")
		instA := seedInstitucion(t, instituciones, ownerA, 3001)
		instB := seedInstitucion(t, instituciones, ownerB, 3002)

		g := &model.Graduado{Cedula: 1007243602, NombreCompleto: "Daniela Ríos", FechaNacimiento: time.Date(1999, 4, 12, 0, 0, 0, 0, time.UTC), Estado: true}
		require.NoError(t, graduados.Create(ctx, nil, g))
		assert.ErrorIs(t, graduados.Create(ctx, nil, &model.Graduado{Cedula: 1007243602, NombreCompleto: "x", FechaNacimiento: time.Now(), Estado: true}), ErrDuplicate)

		added, err := graduados.AsociarInstitucion(ctx, nil, instA.ID, g.ID)
		require.NoError(t, err)
		assert.True(t, added)
		added, err = graduados.AsociarInstitucion(ctx, nil, instB.ID, g.ID)
		require.NoError(t, err)
		assert.True(t, added)
		added, err = graduados.AsociarInstitucion(ctx, nil, instB.ID, g.ID)
		require.NoError(t, err)
		assert.False(t, added)

		listB, err := graduados.ListByInstitucion(ctx, instB.ID)
		require.NoError(t, err)
		require.Len(t, listB, 1)
		assert.Equal(t, g.ID, listB[0].ID)

		for _, d := range []*model.Diploma{
			{CodigoDiploma: "A-1", InstitucionID: instA.ID},
			{CodigoDiploma: "A-2", InstitucionID: instA.ID},
			{CodigoDiploma: "B-1", InstitucionID: instB.ID},
		} {
			d.NombrePrograma, d.NivelPrograma, d.RegistroPrograma, d.Libro = "Derecho", "Pregrado", "SNIES-1", "3"
			d.FechaGrados = time.Date(2023, 12, 1, 0, 0, 0, 0, time.UTC)
			d.GraduadoID = g.ID
			d.Estado = true
			require.NoError(t, diplomas.Create(ctx, d))
		}
		assert.ErrorIs(t, diplomas.Create(ctx, &model.Diploma{CodigoDiploma: "A-1", NombrePrograma: "x", NivelPrograma: "x",
			RegistroPrograma: "x", Libro: "x", FechaGrados: time.Now(), GraduadoID: g.ID, InstitucionID: instB.ID}), ErrDuplicate)

		listA, err := diplomas.ListByInstitucion(ctx, instA.ID)
		require.NoError(t, err)
		assert.Len(t, listA, 2)
		listDB, err := diplomas.ListByInstitucion(ctx, instB.ID)
		require.NoError(t, err)
		assert.Len(t, listDB, 1)

		rows, err := diplomas.ListByCedula(ctx, 1007243602)
		require.NoError(t, err)
		assert.Len(t, rows, 3)
		for _, r := range rows {
			assert.Equal(t, "Daniela Ríos", r.NombreCompleto)
			assert.NotZero(t, r.CodigoInstitucion)
		}

		cedulas, err := diplomas.CedulasByInstitucion(ctx, instA.ID)
		require.NoError(t, err)
		assert.Equal(t, []int64{1007243602}, cedulas, "distinct cedulas")

		n, err := diplomas.CountByGraduado(ctx, g.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(3), n)

		// Diplomas still reference the graduate.
		err = graduados.Delete(ctx, nil, g.ID)
		assert.Error(t, err)
	})

	t.Run("active listing follows owner state", func(t *testing.T) {
		owner := seedOwner(t, usuarios, "inactiva")
		inst := seedInstitucion(t, instituciones, owner, 4001)
		require.NoError(t, usuarios.UpdateActivo(ctx, owner.ID, false))

		activas, err := instituciones.ListConUsuarioActivo(ctx)
		require.NoError(t, err)
		for _, i := range activas {
			assert.NotEqual(t, inst.ID, i.ID)
		}
	})
}

func TestIntegration_RedisStores(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()

	t.Run("sessions", func(t *testing.T) {
		store := NewSesionStore(env.rdb)
		ses := Sesion{ID: "s-1", Correo: "a@b.co", Rol: model.RolAdmin, CreadaEn: time.Now().UTC().Truncate(time.Second)}
		require.NoError(t, store.Guardar(ctx, ses, time.Minute))

		got, err := store.Obtener(ctx, "s-1")
		require.NoError(t, err)
		assert.Equal(t, ses.Correo, got.Correo)

		require.NoError(t, store.Eliminar(ctx, "s-1"))
		_, err = store.Obtener(ctx, "s-1")
		assert.True(t, errors.Is(err, ErrSesionNoEncontrada))
	})

	t.Run("verification cache", func(t *testing.T) {
		cache := NewVerificacionCache(env.rdb, time.Minute)
		_, ok := cache.Get(ctx, 55)
		assert.False(t, ok)

		cache.Set(ctx, 55, &dto.VerificacionResponse{Graduado: dto.GraduadoResumen{Cedula: 55}, Diplomas: []dto.DiplomaResponse{}})
		v, ok := cache.Get(ctx, 55)
		require.True(t, ok)
		assert.Equal(t, int64(55), v.Graduado.Cedula)

		cache.Invalidate(ctx, 55)
		_, ok = cache.Get(ctx, 55)
		assert.False(t, ok)
	})
}
