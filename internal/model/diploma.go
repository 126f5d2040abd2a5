package model

import (
	"time"

	"github.com/google/uuid"
)

// Diploma is an issued academic credential linking a graduate to an
// institution and a program.
type Diploma struct {
	ID               uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CodigoDiploma    string    `gorm:"uniqueIndex;not null"`
	NombrePrograma   string    `gorm:"not null"`
	NivelPrograma    string    `gorm:"not null"`
	RegistroPrograma string    `gorm:"not null"`
	Libro            string    `gorm:"not null"`
	FechaGrados      time.Time `gorm:"not null"`
	GraduadoID       uuid.UUID `gorm:"type:uuid;not null;index"`
	InstitucionID    uuid.UUID `gorm:"type:uuid;not null;index"`
	// No gorm default here: an explicit false must reach the INSERT.
	Estado    bool `gorm:"not null"`
	CreatedAt time.Time
	UpdatedAt time.Time

	Graduado    *Graduado    `gorm:"foreignKey:GraduadoID"`
	Institucion *Institucion `gorm:"foreignKey:InstitucionID"`
}

func (Diploma) TableName() string { return "diplomas" }
