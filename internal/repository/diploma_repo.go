package repository

import (
	"context"
	"time"

	"evot/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DiplomaVerificacionRow is one row of the public by-cedula lookup:
// a diploma with the fixed projection of its institution and graduate.
type DiplomaVerificacionRow struct {
	ID                uuid.UUID
	CodigoDiploma     string
	NombrePrograma    string
	NivelPrograma     string
	RegistroPrograma  string
	Libro             string
	FechaGrados       time.Time
	Estado            bool
	InstitucionID     uuid.UUID
	CodigoInstitucion int64
	NombreInstitucion string
	Ciudad            string
	GraduadoID        uuid.UUID
	Cedula            int64
	NombreCompleto    string
}

type DiplomaRepository interface {
	Create(ctx context.Context, d *model.Diploma) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Diploma, error)
	ExistsByCodigo(ctx context.Context, codigo string, excludeID *uuid.UUID) (bool, error)
	CountByGraduado(ctx context.Context, graduadoID uuid.UUID) (int64, error)
	List(ctx context.Context) ([]model.Diploma, error)
	ListByInstitucion(ctx context.Context, institucionID uuid.UUID) ([]model.Diploma, error)
	ListByCedula(ctx context.Context, cedula int64) ([]DiplomaVerificacionRow, error)
	// CedulasByInstitucion lists the graduates holding a diploma from the institution.
	CedulasByInstitucion(ctx context.Context, institucionID uuid.UUID) ([]int64, error)
	Update(ctx context.Context, d *model.Diploma) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type diplomaRepo struct{ db *gorm.DB }

func NewDiplomaRepository(db *gorm.DB) DiplomaRepository { return &diplomaRepo{db: db} }

func (r *diplomaRepo) Create(ctx context.Context, d *model.Diploma) error {
	return translate(r.db.WithContext(ctx).Omit("Graduado", "Institucion").Create(d).Error)
}

func (r *diplomaRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Diploma, error) {
	var d model.Diploma
	err := r.db.WithContext(ctx).Preload("Graduado").Preload("Institucion").First(&d, "id = ?", id).Error
	return &d, err
}

func (r *diplomaRepo) ExistsByCodigo(ctx context.Context, codigo string, excludeID *uuid.UUID) (bool, error) {
	q := r.db.WithContext(ctx).Model(&model.Diploma{}).Where("codigo_diploma = ?", codigo)
	if excludeID != nil {
		q = q.Where("id <> ?", *excludeID)
	}
	var n int64
	err := q.Count(&n).Error
	return n > 0, err
}

func (r *diplomaRepo) CountByGraduado(ctx context.Context, graduadoID uuid.UUID) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.Diploma{}).Where("graduado_id = ?", graduadoID).Count(&n).Error
	return n, err
}

func (r *diplomaRepo) List(ctx context.Context) ([]model.Diploma, error) {
	var list []model.Diploma
	err := r.db.WithContext(ctx).Preload("Graduado").Preload("Institucion").
		Order("fecha_grados DESC").Find(&list).Error
	return list, err
}

func (r *diplomaRepo) ListByInstitucion(ctx context.Context, institucionID uuid.UUID) ([]model.Diploma, error) {
	var list []model.Diploma
	err := r.db.WithContext(ctx).Preload("Graduado").Preload("Institucion").
		Where("institucion_id = ?", institucionID).
		Order("fecha_grados DESC").Find(&list).Error
	return list, err
}

func (r *diplomaRepo) ListByCedula(ctx context.Context, cedula int64) ([]DiplomaVerificacionRow, error) {
	var rows []DiplomaVerificacionRow
	err := r.db.WithContext(ctx).Table("diplomas d").
		Select(`d.id, d.codigo_diploma, d.nombre_programa, d.nivel_programa, d.registro_programa,
			d.libro, d.fecha_grados, d.estado,
			i.id AS institucion_id, i.codigo_institucion, i.nombre_institucion, i.ciudad,
			g.id AS graduado_id, g.cedula, g.nombre_completo`).
		Joins("JOIN instituciones i ON i.id = d.institucion_id").
		Joins("JOIN graduados g ON g.id = d.graduado_id").
		Where("g.cedula = ?", cedula).
		Order("d.fecha_grados DESC").
		Scan(&rows).Error
	return rows, err
}

func (r *diplomaRepo) CedulasByInstitucion(ctx context.Context, institucionID uuid.UUID) ([]int64, error) {
	var cedulas []int64
	err := r.db.WithContext(ctx).Table("diplomas d").Distinct().
		Joins("JOIN graduados g ON g.id = d.graduado_id").
		Where("d.institucion_id = ?", institucionID).
		Pluck("g.cedula", &cedulas).Error
	return cedulas, err
}

func (r *diplomaRepo) Update(ctx context.Context, d *model.Diploma) error {
	return translate(r.db.WithContext(ctx).Omit("Graduado", "Institucion").Save(d).Error)
}

func (r *diplomaRepo) Delete(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Delete(&model.Diploma{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
