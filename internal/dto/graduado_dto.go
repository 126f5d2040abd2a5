package dto

// ─── Request DTOs ────────────────────────────────────────────────────────────

type CrearGraduadoRequest struct {
	Cedula          int64  `json:"cedula"          validate:"required,gt=0"`
	NombreCompleto  string `json:"nombreCompleto"  validate:"required,min=3,max=200"`
	FechaNacimiento Fecha  `json:"fechaNacimiento" validate:"required"`
	// Institucion is required for ADMIN callers and ignored otherwise.
	Institucion *string `json:"institucion" validate:"omitempty,uuid"`
}

type ActualizarGraduadoRequest struct {
	Cedula          *int64  `json:"cedula"          validate:"omitempty,gt=0"`
	NombreCompleto  *string `json:"nombreCompleto"  validate:"omitempty,max=200"`
	FechaNacimiento *Fecha  `json:"fechaNacimiento"`
	Estado          *bool   `json:"estado"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type GraduadoResponse struct {
	ID              string `json:"id"`
	Cedula          int64  `json:"cedula"`
	NombreCompleto  string `json:"nombreCompleto"`
	FechaNacimiento string `json:"fechaNacimiento"`
	Estado          bool   `json:"estado"`
}

// CrearGraduadoResponse reports which branch of the upsert ran.
type CrearGraduadoResponse struct {
	Msg      string           `json:"msg"`
	Graduado GraduadoResponse `json:"graduado"`
	Creado   bool             `json:"-"`
}
