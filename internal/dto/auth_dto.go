package dto

import "time"

// ─── Request DTOs ────────────────────────────────────────────────────────────

type LoginRequest struct {
	Correo   string `json:"correo"   validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refreshToken" validate:"required"`
}

type RegistrarUsuarioRequest struct {
	NombreUsuario string `json:"nombreUsuario" validate:"required,min=3,max=100"`
	Correo        string `json:"correo"        validate:"required,email,max=150"`
	Password      string `json:"password"      validate:"required,min=8,max=72"`
	Rol           string `json:"rol"           validate:"required,oneof=ADMIN INSTITUCION"`
}

type ResetPasswordRequest struct {
	PasswordActual string `json:"passwordActual" validate:"required"`
	PasswordNueva  string `json:"passwordNueva"  validate:"required,min=8,max=72"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type UsuarioResponse struct {
	ID            string  `json:"id"`
	NombreUsuario string  `json:"nombreUsuario"`
	Correo        string  `json:"correo"`
	Rol           string  `json:"rol"`
	InstitucionID *string `json:"institucion"`
	Activo        bool    `json:"activo"`
}

type LoginResponse struct {
	Msg          string          `json:"msg"`
	AccessToken  string          `json:"accessToken"`
	RefreshToken string          `json:"refreshToken"`
	TokenType    string          `json:"tokenType"`
	ExpiresIn    int             `json:"expiresIn"` // seconds
	Usuario      UsuarioResponse `json:"usuario"`
}

type RefreshResponse struct {
	AccessToken string `json:"accessToken"`
	TokenType   string `json:"tokenType"`
	ExpiresIn   int    `json:"expiresIn"`
}

// SesionResponse exposes the request's authorization context together with
// the stored server-side session.
type SesionResponse struct {
	UsuarioID     string     `json:"usuarioId"`
	NombreUsuario string     `json:"nombreUsuario"`
	Correo        string     `json:"correo"`
	Rol           string     `json:"rol"`
	InstitucionID *string    `json:"institucion"`
	SesionID      string     `json:"sesionId"`
	CreadaEn      *time.Time `json:"creadaEn,omitempty"`
}

// MsgResponse is the body of operations that only report an outcome.
type MsgResponse struct {
	Msg string `json:"msg"`
}
