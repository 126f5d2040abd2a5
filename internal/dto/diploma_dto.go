package dto

import "time"

// ─── Request DTOs ────────────────────────────────────────────────────────────

type CrearDiplomaRequest struct {
	CodigoDiploma    string    `json:"codigoDiploma"    validate:"required,max=100"`
	NombrePrograma   string    `json:"nombrePrograma"   validate:"required,max=200"`
	NivelPrograma    string    `json:"nivelPrograma"    validate:"required,max=100"`
	RegistroPrograma string    `json:"registroPrograma" validate:"required,max=100"`
	Libro            string    `json:"libro"            validate:"required,max=50"`
	FechaGrados      Fecha     `json:"fechaGrados"      validate:"required"`
	Cedula           int64     `json:"cedula"           validate:"required,gt=0"`
	// Institucion is used only when the caller has no institution of its own.
	Institucion *string `json:"institucion" validate:"omitempty,uuid"`
	Estado      *bool   `json:"estado"`
}

type ActualizarDiplomaRequest struct {
	CodigoDiploma    *string    `json:"codigoDiploma"    validate:"omitempty,max=100"`
	NombrePrograma   *string    `json:"nombrePrograma"   validate:"omitempty,max=200"`
	NivelPrograma    *string    `json:"nivelPrograma"    validate:"omitempty,max=100"`
	RegistroPrograma *string    `json:"registroPrograma" validate:"omitempty,max=100"`
	Libro            *string    `json:"libro"            validate:"omitempty,max=50"`
	FechaGrados      *Fecha     `json:"fechaGrados"`
	Cedula           *int64     `json:"cedula"           validate:"omitempty,gt=0"`
	Estado           *bool      `json:"estado"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type InstitucionResumen struct {
	ID                string `json:"id"`
	CodigoInstitucion int64  `json:"codigoInstitucion"`
	NombreInstitucion string `json:"nombreInstitucion"`
	Ciudad            string `json:"ciudad"`
}

type GraduadoResumen struct {
	ID             string `json:"id"`
	Cedula         int64  `json:"cedula"`
	NombreCompleto string `json:"nombreCompleto"`
}

type DiplomaResponse struct {
	ID               string              `json:"id"`
	CodigoDiploma    string              `json:"codigoDiploma"`
	NombrePrograma   string              `json:"nombrePrograma"`
	NivelPrograma    string              `json:"nivelPrograma"`
	RegistroPrograma string              `json:"registroPrograma"`
	Libro            string              `json:"libro"`
	FechaGrados      time.Time           `json:"fechaGrados"`
	Estado           bool                `json:"estado"`
	GraduadoID       string              `json:"graduadoId"`
	InstitucionID    string              `json:"institucionId"`
	Institucion      *InstitucionResumen `json:"institucion,omitempty"`
	Graduado         *GraduadoResumen    `json:"graduado,omitempty"`
}

// VerificacionResponse is the public by-cedula lookup result.
type VerificacionResponse struct {
	Graduado GraduadoResumen   `json:"graduado"`
	Diplomas []DiplomaResponse `json:"diplomas"`
}
