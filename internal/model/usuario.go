package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Roles accepted for Usuario.Rol.
const (
	RolAdmin       = "ADMIN"
	RolInstitucion = "INSTITUCION"
)

// Usuario stores system users with role-based access.
// InstitucionID is back-filled the first time the user creates an institution.
type Usuario struct {
	ID            uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	NombreUsuario string     `gorm:"uniqueIndex;not null"`
	Correo        string     `gorm:"not null"` // unique on LOWER(correo); stored lowercased
	PasswordHash  string     `gorm:"not null"`
	Rol           string     `gorm:"type:varchar(20);not null"`
	InstitucionID *uuid.UUID `gorm:"type:uuid"`
	Activo        bool       `gorm:"not null"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (Usuario) TableName() string { return "usuarios" }

// EsAdmin reports whether the user holds the ADMIN role.
func (u *Usuario) EsAdmin() bool { return u.Rol == RolAdmin }

// NormalizarCorreo is the stored form of an email address.
func NormalizarCorreo(correo string) string {
	return strings.ToLower(strings.TrimSpace(correo))
}
