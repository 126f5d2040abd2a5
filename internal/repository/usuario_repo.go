package repository

import (
	"context"

	"evot/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type UsuarioRepository interface {
	Create(ctx context.Context, u *model.Usuario) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Usuario, error)
	FindByCorreo(ctx context.Context, correo string) (*model.Usuario, error)
	ExistsByNombreOCorreo(ctx context.Context, nombreUsuario, correo string) (bool, error)
	List(ctx context.Context) ([]model.Usuario, error)
	UpdatePassword(ctx context.Context, id uuid.UUID, hash string) error
	UpdateActivo(ctx context.Context, id uuid.UUID, activo bool) error
	// AsignarInstitucion sets institucion_id only when it is still NULL.
	AsignarInstitucion(ctx context.Context, tx *gorm.DB, usuarioID, institucionID uuid.UUID) error
	DB() *gorm.DB
}

type usuarioRepo struct{ db *gorm.DB }

func NewUsuarioRepository(db *gorm.DB) UsuarioRepository { return &usuarioRepo{db: db} }

func (r *usuarioRepo) DB() *gorm.DB { return r.db }

func (r *usuarioRepo) Create(ctx context.Context, u *model.Usuario) error {
	return translate(r.db.WithContext(ctx).Create(u).Error)
}

func (r *usuarioRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Usuario, error) {
	var u model.Usuario
	err := r.db.WithContext(ctx).First(&u, "id = ?", id).Error
	return &u, err
}

func (r *usuarioRepo) FindByCorreo(ctx context.Context, correo string) (*model.Usuario, error) {
	var u model.Usuario
	err := r.db.WithContext(ctx).Where("LOWER(correo) = LOWER(?)", correo).First(&u).Error
	return &u, err
}

func (r *usuarioRepo) ExistsByNombreOCorreo(ctx context.Context, nombreUsuario, correo string) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.Usuario{}).
		Where("nombre_usuario = ? OR LOWER(correo) = LOWER(?)", nombreUsuario, correo).
		Count(&n).Error
	return n > 0, err
}

func (r *usuarioRepo) List(ctx context.Context) ([]model.Usuario, error) {
	var users []model.Usuario
	err := r.db.WithContext(ctx).Order("nombre_usuario").Find(&users).Error
	return users, err
}

func (r *usuarioRepo) UpdatePassword(ctx context.Context, id uuid.UUID, hash string) error {
	return r.updateColumn(ctx, id, "password_hash", hash)
}

func (r *usuarioRepo) UpdateActivo(ctx context.Context, id uuid.UUID, activo bool) error {
	return r.updateColumn(ctx, id, "activo", activo)
}

func (r *usuarioRepo) updateColumn(ctx context.Context, id uuid.UUID, col string, val any) error {
	res := r.db.WithContext(ctx).Model(&model.Usuario{}).Where("id = ?", id).Update(col, val)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *usuarioRepo) AsignarInstitucion(ctx context.Context, tx *gorm.DB, usuarioID, institucionID uuid.UUID) error {
	return conn(tx, r.db).WithContext(ctx).Model(&model.Usuario{}).
		Where("id = ? AND institucion_id IS NULL", usuarioID).
		Update("institucion_id", institucionID).Error
}
