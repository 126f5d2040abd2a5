package repository

import (
	"context"

	"evot/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type InstitucionRepository interface {
	Create(ctx context.Context, tx *gorm.DB, i *model.Institucion) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Institucion, error)
	// ExistsByCodigoOResolucion ignores the row excludeID when it is non-nil.
	ExistsByCodigoOResolucion(ctx context.Context, codigo int64, resolucion string, excludeID *uuid.UUID) (bool, error)
	Update(ctx context.Context, i *model.Institucion) error
	UpdateEstado(ctx context.Context, id uuid.UUID, estado bool) error
	ListConUsuario(ctx context.Context) ([]model.Institucion, error)
	ListConUsuarioActivo(ctx context.Context) ([]model.Institucion, error)
	DB() *gorm.DB
}

type institucionRepo struct{ db *gorm.DB }

func NewInstitucionRepository(db *gorm.DB) InstitucionRepository {
	return &institucionRepo{db: db}
}

func (r *institucionRepo) DB() *gorm.DB { return r.db }

func (r *institucionRepo) Create(ctx context.Context, tx *gorm.DB, i *model.Institucion) error {
	return translate(conn(tx, r.db).WithContext(ctx).Omit("Usuario").Create(i).Error)
}

func (r *institucionRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Institucion, error) {
	var i model.Institucion
	err := r.db.WithContext(ctx).Preload("Usuario").First(&i, "id = ?", id).Error
	return &i, err
}

func (r *institucionRepo) ExistsByCodigoOResolucion(ctx context.Context, codigo int64, resolucion string, excludeID *uuid.UUID) (bool, error) {
	q := r.db.WithContext(ctx).Model(&model.Institucion{}).
		Where("(codigo_institucion = ? OR resolucion = ?)", codigo, resolucion)
	if excludeID != nil {
		q = q.Where("id <> ?", *excludeID)
	}
	var n int64
	err := q.Count(&n).Error
	return n > 0, err
}

func (r *institucionRepo) Update(ctx context.Context, i *model.Institucion) error {
	return translate(r.db.WithContext(ctx).Omit("Usuario").Save(i).Error)
}

func (r *institucionRepo) UpdateEstado(ctx context.Context, id uuid.UUID, estado bool) error {
	res := r.db.WithContext(ctx).Model(&model.Institucion{}).Where("id = ?", id).Update("estado", estado)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *institucionRepo) ListConUsuario(ctx context.Context) ([]model.Institucion, error) {
	var list []model.Institucion
	err := r.db.WithContext(ctx).Preload("Usuario").Order("nombre_institucion").Find(&list).Error
	return list, err
}

func (r *institucionRepo) ListConUsuarioActivo(ctx context.Context) ([]model.Institucion, error) {
	var list []model.Institucion
	err := r.db.WithContext(ctx).
		Joins("JOIN usuarios u ON u.id = instituciones.usuario_id AND u.activo = true").
		Preload("Usuario").
		Order("instituciones.nombre_institucion").
		Find(&list).Error
	return list, err
}
