package dto

// ─── Request DTOs ────────────────────────────────────────────────────────────

type CrearInstitucionRequest struct {
	CodigoInstitucion int64  `json:"codigoInstitucion" validate:"required,gt=0"`
	NombreInstitucion string `json:"nombreInstitucion" validate:"required,min=2,max=200"`
	Ciudad            string `json:"ciudad"            validate:"required,max=100"`
	Departamento      string `json:"departamento"      validate:"required,max=100"`
	Resolucion        string `json:"resolucion"        validate:"required,max=100"`
	FechaResolucion   Fecha  `json:"fechaResolucion"   validate:"required"`
	// Usuario is honoured only for ADMIN callers.
	Usuario *string `json:"usuario" validate:"omitempty,uuid"`
}

// ActualizarInstitucionRequest carries explicit optional fields: a nil pointer
// leaves the column untouched, any present value (including zero) is written.
type ActualizarInstitucionRequest struct {
	CodigoInstitucion *int64  `json:"codigoInstitucion" validate:"omitempty,gt=0"`
	NombreInstitucion *string `json:"nombreInstitucion" validate:"omitempty,max=200"`
	Ciudad            *string `json:"ciudad"            validate:"omitempty,max=100"`
	Departamento      *string `json:"departamento"      validate:"omitempty,max=100"`
	Resolucion        *string `json:"resolucion"        validate:"omitempty,max=100"`
	FechaResolucion   *Fecha  `json:"fechaResolucion"`
	Estado            *bool   `json:"estado"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

// UsuarioPublico is the owner projection embedded in institution listings.
type UsuarioPublico struct {
	ID            string `json:"id"`
	NombreUsuario string `json:"nombreUsuario"`
	Correo        string `json:"correo"`
	Rol           string `json:"rol,omitempty"`
	Activo        bool   `json:"activo"`
}

type InstitucionResponse struct {
	ID                string          `json:"id"`
	CodigoInstitucion int64           `json:"codigoInstitucion"`
	NombreInstitucion string          `json:"nombreInstitucion"`
	Ciudad            string          `json:"ciudad"`
	Departamento      string          `json:"departamento"`
	Resolucion        string          `json:"resolucion"`
	FechaResolucion   string          `json:"fechaResolucion"`
	Estado            bool            `json:"estado"`
	UsuarioID         string          `json:"usuarioId"`
	Usuario           *UsuarioPublico `json:"usuario,omitempty"`
}
