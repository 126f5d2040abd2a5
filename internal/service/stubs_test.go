package service

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"evot/internal/dto"
	"evot/internal/model"
	"evot/internal/repository"
	"evot/internal/worker"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ── Usuario ───────────────────────────────────────────────────────────────────

type stubUsuarioRepo struct {
	mu    sync.Mutex
	users map[uuid.UUID]*model.Usuario
	finds int
}

func newStubUsuarioRepo() *stubUsuarioRepo {
	return &stubUsuarioRepo{users: map[uuid.UUID]*model.Usuario{}}
}

func (r *stubUsuarioRepo) DB() *gorm.DB { return nil }

func (r *stubUsuarioRepo) Create(_ context.Context, u *model.Usuario) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.users {
		if e.NombreUsuario == u.NombreUsuario || strings.EqualFold(e.Correo, u.Correo) {
			return repository.ErrDuplicate
		}
	}
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	cp := *u
	r.users[u.ID] = &cp
	return nil
}

func (r *stubUsuarioRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Usuario, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.finds++
	u, ok := r.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *u
	return &cp, nil
}

func (r *stubUsuarioRepo) FindByCorreo(_ context.Context, correo string) (*model.Usuario, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if strings.EqualFold(u.Correo, correo) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubUsuarioRepo) ExistsByNombreOCorreo(_ context.Context, nombre, correo string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.NombreUsuario == nombre || strings.EqualFold(u.Correo, correo) {
			return true, nil
		}
	}
	return false, nil
}

func (r *stubUsuarioRepo) List(_ context.Context) ([]model.Usuario, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]model.Usuario, 0, len(r.users))
	for _, u := range r.users {
		out = append(out, *u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].NombreUsuario < out[j].NombreUsuario })
	return out, nil
}

func (r *stubUsuarioRepo) UpdatePassword(_ context.Context, id uuid.UUID, hash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	u.PasswordHash = hash
	return nil
}

func (r *stubUsuarioRepo) UpdateActivo(_ context.Context, id uuid.UUID, activo bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	u.Activo = activo
	return nil
}

func (r *stubUsuarioRepo) AsignarInstitucion(_ context.Context, _ *gorm.DB, usuarioID, institucionID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.users[usuarioID]; ok && u.InstitucionID == nil {
		id := institucionID
		u.InstitucionID = &id
	}
	return nil
}

func (r *stubUsuarioRepo) get(id uuid.UUID) *model.Usuario {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.users[id]
}

// ── Institucion ───────────────────────────────────────────────────────────────

type stubInstitucionRepo struct {
	mu       sync.Mutex
	items    map[uuid.UUID]*model.Institucion
	usuarios *stubUsuarioRepo
}

func newStubInstitucionRepo(usuarios *stubUsuarioRepo) *stubInstitucionRepo {
	return &stubInstitucionRepo{items: map[uuid.UUID]*model.Institucion{}, usuarios: usuarios}
}

func (r *stubInstitucionRepo) DB() *gorm.DB { return nil }

func (r *stubInstitucionRepo) Create(_ context.Context, _ *gorm.DB, i *model.Institucion) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.items {
		if e.CodigoInstitucion == i.CodigoInstitucion || e.Resolucion == i.Resolucion {
			return repository.ErrDuplicate
		}
	}
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	cp := *i
	cp.Usuario = nil
	r.items[i.ID] = &cp
	return nil
}

func (r *stubInstitucionRepo) withUsuario(i *model.Institucion) *model.Institucion {
	cp := *i
	if r.usuarios != nil {
		if u := r.usuarios.get(i.UsuarioID); u != nil {
			uc := *u
			cp.Usuario = &uc
		}
	}
	return &cp
}

func (r *stubInstitucionRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Institucion, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	i, ok := r.items[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return r.withUsuario(i), nil
}

func (r *stubInstitucionRepo) ExistsByCodigoOResolucion(_ context.Context, codigo int64, resolucion string, excludeID *uuid.UUID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.items {
		if excludeID != nil && e.ID == *excludeID {
			continue
		}
		if e.CodigoInstitucion == codigo || e.Resolucion == resolucion {
			return true, nil
		}
	}
	return false, nil
}

func (r *stubInstitucionRepo) Update(_ context.Context, i *model.Institucion) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *i
	cp.Usuario = nil
	r.items[i.ID] = &cp
	return nil
}

func (r *stubInstitucionRepo) UpdateEstado(_ context.Context, id uuid.UUID, estado bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	i, ok := r.items[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	i.Estado = estado
	return nil
}

func (r *stubInstitucionRepo) ListConUsuario(_ context.Context) ([]model.Institucion, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]model.Institucion, 0, len(r.items))
	for _, i := range r.items {
		out = append(out, *r.withUsuario(i))
	}
	return out, nil
}

func (r *stubInstitucionRepo) ListConUsuarioActivo(ctx context.Context) ([]model.Institucion, error) {
	all, _ := r.ListConUsuario(ctx)
	out := all[:0]
	for _, i := range all {
		if i.Usuario != nil && i.Usuario.Activo {
			out = append(out, i)
		}
	}
	return out, nil
}

// ── Graduado ──────────────────────────────────────────────────────────────────

type relKey struct{ inst, grad uuid.UUID }

type stubGraduadoRepo struct {
	mu        sync.Mutex
	items     map[uuid.UUID]*model.Graduado
	relations map[relKey]bool
}

func newStubGraduadoRepo() *stubGraduadoRepo {
	return &stubGraduadoRepo{items: map[uuid.UUID]*model.Graduado{}, relations: map[relKey]bool{}}
}

func (r *stubGraduadoRepo) DB() *gorm.DB { return nil }

func (r *stubGraduadoRepo) Create(_ context.Context, _ *gorm.DB, g *model.Graduado) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.items {
		if e.Cedula == g.Cedula {
			return repository.ErrDuplicate
		}
	}
	if g.ID == uuid.Nil {
		g.ID = uuid.New()
	}
	cp := *g
	r.items[g.ID] = &cp
	return nil
}

func (r *stubGraduadoRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Graduado, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	g, ok := r.items[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *g
	return &cp, nil
}

func (r *stubGraduadoRepo) FindByCedula(_ context.Context, _ *gorm.DB, cedula int64) (*model.Graduado, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, g := range r.items {
		if g.Cedula == cedula {
			cp := *g
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubGraduadoRepo) List(_ context.Context) ([]model.Graduado, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]model.Graduado, 0, len(r.items))
	for _, g := range r.items {
		out = append(out, *g)
	}
	return out, nil
}

func (r *stubGraduadoRepo) ListByInstitucion(_ context.Context, institucionID uuid.UUID) ([]model.Graduado, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Graduado
	for k := range r.relations {
		if k.inst == institucionID {
			out = append(out, *r.items[k.grad])
		}
	}
	return out, nil
}

func (r *stubGraduadoRepo) Update(_ context.Context, g *model.Graduado) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.items {
		if e.ID != g.ID && e.Cedula == g.Cedula {
			return repository.ErrDuplicate
		}
	}
	cp := *g
	r.items[g.ID] = &cp
	return nil
}

func (r *stubGraduadoRepo) Delete(_ context.Context, _ *gorm.DB, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(r.items, id)
	return nil
}

func (r *stubGraduadoRepo) ExisteRelacion(_ context.Context, institucionID, graduadoID uuid.UUID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.relations[relKey{institucionID, graduadoID}], nil
}

func (r *stubGraduadoRepo) AsociarInstitucion(_ context.Context, _ *gorm.DB, institucionID, graduadoID uuid.UUID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	k := relKey{institucionID, graduadoID}
	if r.relations[k] {
		return false, nil
	}
	r.relations[k] = true
	return true, nil
}

func (r *stubGraduadoRepo) EliminarRelaciones(_ context.Context, _ *gorm.DB, graduadoID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for k := range r.relations {
		if k.grad == graduadoID {
			delete(r.relations, k)
		}
	}
	return nil
}

func (r *stubGraduadoRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.items)
}

func (r *stubGraduadoRepo) relationCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.relations)
}

// ── Diploma ───────────────────────────────────────────────────────────────────

type stubDiplomaRepo struct {
	mu            sync.Mutex
	items         map[uuid.UUID]*model.Diploma
	graduados     *stubGraduadoRepo
	instituciones *stubInstitucionRepo
}

func newStubDiplomaRepo(g *stubGraduadoRepo, i *stubInstitucionRepo) *stubDiplomaRepo {
	return &stubDiplomaRepo{items: map[uuid.UUID]*model.Diploma{}, graduados: g, instituciones: i}
}

func (r *stubDiplomaRepo) Create(_ context.Context, d *model.Diploma) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.items {
		if e.CodigoDiploma == d.CodigoDiploma {
			return repository.ErrDuplicate
		}
	}
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	cp := *d
	cp.Graduado, cp.Institucion = nil, nil
	r.items[d.ID] = &cp
	return nil
}

func (r *stubDiplomaRepo) preload(d *model.Diploma) model.Diploma {
	cp := *d
	if g, err := r.graduados.FindByID(context.Background(), d.GraduadoID); err == nil {
		cp.Graduado = g
	}
	if i, err := r.instituciones.FindByID(context.Background(), d.InstitucionID); err == nil {
		cp.Institucion = i
	}
	return cp
}

func (r *stubDiplomaRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Diploma, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.items[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := r.preload(d)
	return &cp, nil
}

func (r *stubDiplomaRepo) ExistsByCodigo(_ context.Context, codigo string, excludeID *uuid.UUID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, d := range r.items {
		if excludeID != nil && d.ID == *excludeID {
			continue
		}
		if d.CodigoDiploma == codigo {
			return true, nil
		}
	}
	return false, nil
}

func (r *stubDiplomaRepo) CountByGraduado(_ context.Context, graduadoID uuid.UUID) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, d := range r.items {
		if d.GraduadoID == graduadoID {
			n++
		}
	}
	return n, nil
}

func (r *stubDiplomaRepo) List(_ context.Context) ([]model.Diploma, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]model.Diploma, 0, len(r.items))
	for _, d := range r.items {
		out = append(out, r.preload(d))
	}
	return out, nil
}

func (r *stubDiplomaRepo) ListByInstitucion(_ context.Context, institucionID uuid.UUID) ([]model.Diploma, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Diploma
	for _, d := range r.items {
		if d.InstitucionID == institucionID {
			out = append(out, r.preload(d))
		}
	}
	return out, nil
}

func (r *stubDiplomaRepo) ListByCedula(_ context.Context, cedula int64) ([]repository.DiplomaVerificacionRow, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []repository.DiplomaVerificacionRow
	for _, d := range r.items {
		full := r.preload(d)
		if full.Graduado == nil || full.Graduado.Cedula != cedula || full.Institucion == nil {
			continue
		}
		out = append(out, repository.DiplomaVerificacionRow{
			ID: d.ID, CodigoDiploma: d.CodigoDiploma, NombrePrograma: d.NombrePrograma,
			NivelPrograma: d.NivelPrograma, RegistroPrograma: d.RegistroPrograma, Libro: d.Libro,
			FechaGrados: d.FechaGrados, Estado: d.Estado,
			InstitucionID: full.Institucion.ID, CodigoInstitucion: full.Institucion.CodigoInstitucion,
			NombreInstitucion: full.Institucion.NombreInstitucion, Ciudad: full.Institucion.Ciudad,
			GraduadoID: full.Graduado.ID, Cedula: full.Graduado.Cedula, NombreCompleto: full.Graduado.NombreCompleto,
		})
	}
	return out, nil
}

func (r *stubDiplomaRepo) CedulasByInstitucion(_ context.Context, institucionID uuid.UUID) ([]int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	seen := map[int64]bool{}
	var out []int64
	for _, d := range r.items {
		full := r.preload(d)
		if d.InstitucionID != institucionID || full.Graduado == nil || seen[full.Graduado.Cedula] {
			continue
		}
		seen[full.Graduado.Cedula] = true
		out = append(out, full.Graduado.Cedula)
	}
	return out, nil
}

func (r *stubDiplomaRepo) Update(_ context.Context, d *model.Diploma) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.items {
		if e.ID != d.ID && e.CodigoDiploma == d.CodigoDiploma {
			return repository.ErrDuplicate
		}
	}
	cp := *d
	cp.Graduado, cp.Institucion = nil, nil
	r.items[d.ID] = &cp
	return nil
}

func (r *stubDiplomaRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(r.items, id)
	return nil
}

func (r *stubDiplomaRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.items)
}

// ── Redis-backed collaborators ────────────────────────────────────────────────

type stubSesionStore struct {
	mu       sync.Mutex
	sesiones map[string]repository.Sesion
}

func newStubSesionStore() *stubSesionStore {
	return &stubSesionStore{sesiones: map[string]repository.Sesion{}}
}

func (s *stubSesionStore) Guardar(_ context.Context, ses repository.Sesion, _ time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sesiones[ses.ID] = ses
	return nil
}

func (s *stubSesionStore) Obtener(_ context.Context, id string) (*repository.Sesion, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ses, ok := s.sesiones[id]
	if !ok {
		return nil, repository.ErrSesionNoEncontrada
	}
	return &ses, nil
}

func (s *stubSesionStore) Eliminar(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sesiones, id)
	return nil
}

type stubVerificacionCache struct {
	mu          sync.Mutex
	data        map[int64]*dto.VerificacionResponse
	invalidated []int64
}

func newStubVerificacionCache() *stubVerificacionCache {
	return &stubVerificacionCache{data: map[int64]*dto.VerificacionResponse{}}
}

func (c *stubVerificacionCache) Get(_ context.Context, cedula int64) (*dto.VerificacionResponse, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.data[cedula]
	return v, ok
}

func (c *stubVerificacionCache) Set(_ context.Context, cedula int64, v *dto.VerificacionResponse) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[cedula] = v
}

func (c *stubVerificacionCache) Invalidate(_ context.Context, cedulas ...int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, ced := range cedulas {
		delete(c.data, ced)
		c.invalidated = append(c.invalidated, ced)
	}
}

type stubEnqueuer struct {
	mu   sync.Mutex
	jobs []worker.EmailJobPayload
}

func (q *stubEnqueuer) EnqueueEmail(_ context.Context, p worker.EmailJobPayload) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.jobs = append(q.jobs, p)
	return nil
}

type stubInvalidator struct{ ids []uuid.UUID }

func (s *stubInvalidator) Invalidate(id uuid.UUID) { s.ids = append(s.ids, id) }
