package repository

import (
	"context"

	"evot/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type GraduadoRepository interface {
	Create(ctx context.Context, tx *gorm.DB, g *model.Graduado) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Graduado, error)
	FindByCedula(ctx context.Context, tx *gorm.DB, cedula int64) (*model.Graduado, error)
	List(ctx context.Context) ([]model.Graduado, error)
	ListByInstitucion(ctx context.Context, institucionID uuid.UUID) ([]model.Graduado, error)
	Update(ctx context.Context, g *model.Graduado) error
	Delete(ctx context.Context, tx *gorm.DB, id uuid.UUID) error

	// Relation table.
	ExisteRelacion(ctx context.Context, institucionID, graduadoID uuid.UUID) (bool, error)
	// AsociarInstitucion inserts the pair with ON CONFLICT DO NOTHING and
	// reports whether a row was actually written.
	AsociarInstitucion(ctx context.Context, tx *gorm.DB, institucionID, graduadoID uuid.UUID) (bool, error)
	EliminarRelaciones(ctx context.Context, tx *gorm.DB, graduadoID uuid.UUID) error
	DB() *gorm.DB
}

type graduadoRepo struct{ db *gorm.DB }

func NewGraduadoRepository(db *gorm.DB) GraduadoRepository { return &graduadoRepo{db: db} }

func (r *graduadoRepo) DB() *gorm.DB { return r.db }

func (r *graduadoRepo) Create(ctx context.Context, tx *gorm.DB, g *model.Graduado) error {
	return translate(conn(tx, r.db).WithContext(ctx).Create(g).Error)
}

func (r *graduadoRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Graduado, error) {
	var g model.Graduado
	err := r.db.WithContext(ctx).First(&g, "id = ?", id).Error
	return &g, err
}

func (r *graduadoRepo) FindByCedula(ctx context.Context, tx *gorm.DB, cedula int64) (*model.Graduado, error) {
	var g model.Graduado
	err := conn(tx, r.db).WithContext(ctx).Where("cedula = ?", cedula).First(&g).Error
	return &g, err
}

func (r *graduadoRepo) List(ctx context.Context) ([]model.Graduado, error) {
	var list []model.Graduado
	err := r.db.WithContext(ctx).Order("nombre_completo").Find(&list).Error
	return list, err
}

func (r *graduadoRepo) ListByInstitucion(ctx context.Context, institucionID uuid.UUID) ([]model.Graduado, error) {
	var list []model.Graduado
	err := r.db.WithContext(ctx).
		Select("graduados.id, graduados.cedula, graduados.nombre_completo, graduados.fecha_nacimiento, graduados.estado").
		Joins("JOIN institucion_graduados ig ON ig.graduado_id = graduados.id").
		Where("ig.institucion_id = ?", institucionID).
		Order("graduados.nombre_completo").
		Find(&list).Error
	return list, err
}

func (r *graduadoRepo) Update(ctx context.Context, g *model.Graduado) error {
	return translate(r.db.WithContext(ctx).Save(g).Error)
}

func (r *graduadoRepo) Delete(ctx context.Context, tx *gorm.DB, id uuid.UUID) error {
	res := conn(tx, r.db).WithContext(ctx).Delete(&model.Graduado{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *graduadoRepo) ExisteRelacion(ctx context.Context, institucionID, graduadoID uuid.UUID) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.InstitucionGraduado{}).
		Where("institucion_id = ? AND graduado_id = ?", institucionID, graduadoID).
		Count(&n).Error
	return n > 0, err
}

func (r *graduadoRepo) AsociarInstitucion(ctx context.Context, tx *gorm.DB, institucionID, graduadoID uuid.UUID) (bool, error) {
	rel := model.InstitucionGraduado{InstitucionID: institucionID, GraduadoID: graduadoID}
	res := conn(tx, r.db).WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&rel)
	return res.RowsAffected > 0, res.Error
}

func (r *graduadoRepo) EliminarRelaciones(ctx context.Context, tx *gorm.DB, graduadoID uuid.UUID) error {
	return conn(tx, r.db).WithContext(ctx).
		Where("graduado_id = ?", graduadoID).
		Delete(&model.InstitucionGraduado{}).Error
}
