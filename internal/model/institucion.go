package model

import (
	"time"

	"github.com/google/uuid"
)

// Institucion is an educational institution account owned by one Usuario.
// Estado=false means the institution's licence is disabled.
type Institucion struct {
	ID                uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CodigoInstitucion int64     `gorm:"uniqueIndex;not null"`
	NombreInstitucion string    `gorm:"not null"`
	Ciudad            string    `gorm:"not null"`
	Departamento      string    `gorm:"not null"`
	Resolucion        string    `gorm:"uniqueIndex;not null"`
	FechaResolucion   time.Time `gorm:"type:date;not null"`
	UsuarioID         uuid.UUID `gorm:"type:uuid;not null"`
	Estado            bool      `gorm:"not null"`
	CreatedAt         time.Time
	UpdatedAt         time.Time

	Usuario *Usuario `gorm:"foreignKey:UsuarioID"`
}

// TableName overrides GORM's default singular → plural logic for Spanish names.
func (Institucion) TableName() string { return "instituciones" }
