package model

import (
	"time"

	"github.com/google/uuid"
)

// Graduado is a person who completed a program. Identity is global and keyed
// by Cedula; affiliations to institutions live in InstitucionGraduado.
type Graduado struct {
	ID              uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Cedula          int64     `gorm:"uniqueIndex;not null"`
	NombreCompleto  string    `gorm:"not null"`
	FechaNacimiento time.Time `gorm:"type:date;not null"`
	Estado          bool      `gorm:"not null"`
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

func (Graduado) TableName() string { return "graduados" }

// InstitucionGraduado is the append-only affiliation between an institution
// and a graduate. The composite primary key makes each pair unique.
type InstitucionGraduado struct {
	InstitucionID uuid.UUID `gorm:"type:uuid;primaryKey"`
	GraduadoID    uuid.UUID `gorm:"type:uuid;primaryKey"`
	CreatedAt     time.Time
}

func (InstitucionGraduado) TableName() string { return "institucion_graduados" }
