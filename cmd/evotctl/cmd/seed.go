package cmd

import (
	"context"
	"fmt"

	"evot/internal/infra"
	"evot/internal/model"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var (
	seedNombre   string
	seedCorreo   string
	seedPassword string
)

var validate = validator.New()

// seedAdminCmd bootstraps the first ADMIN: registration is ADMIN-only, so the
// very first account has to come from outside the API.
var seedAdminCmd = &cobra.Command{
	Use:   "seed-admin",
	Short: "Create or reset an ADMIN user",
	RunE: func(cmd *cobra.Command, args []string) error {
		correo, err := validarSeed(seedNombre, seedCorreo, seedPassword)
		if err != nil {
			return err
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(seedPassword), cfg.BcryptCost)
		if err != nil {
			return fmt.Errorf("bcrypt: %w", err)
		}

		db, err := infra.NewDatabase(cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		if err := seedAdmin(cmd.Context(), db, seedNombre, correo, string(hash)); err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "ADMIN %s creado/actualizado\n", correo)
		return nil
	},
}

// validarSeed checks the flags and returns the correo in its stored form.
// Only a bare address is accepted; display-name forms never match a login.
func validarSeed(nombre, correo, password string) (string, error) {
	if nombre == "" {
		return "", fmt.Errorf("--nombre must not be empty")
	}
	correo = model.NormalizarCorreo(correo)
	if err := validate.Var(correo, "required,email,max=150"); err != nil {
		return "", fmt.Errorf("invalid --correo %q", correo)
	}
	if err := validate.Var(password, "required,min=8"); err != nil {
		return "", fmt.Errorf("--password must have at least 8 characters")
	}
	return correo, nil
}

// seedAdmin inserts the ADMIN or, when the correo already exists in any
// letter case, promotes and reactivates that user with the new password.
func seedAdmin(ctx context.Context, db *gorm.DB, nombre, correo, hash string) error {
	result := db.WithContext(ctx).Exec(`
		INSERT INTO usuarios (nombre_usuario, correo, password_hash, rol, activo)
		VALUES (?, ?, ?, ?, true)
		ON CONFLICT ((LOWER(correo))) DO UPDATE
		SET password_hash = EXCLUDED.password_hash,
		    rol = EXCLUDED.rol,
		    activo = true,
		    updated_at = NOW()
	`, nombre, correo, hash, model.RolAdmin)
	if result.Error != nil {
		return fmt.Errorf("insert admin: %w", result.Error)
	}
	return nil
}

func init() {
	seedAdminCmd.Flags().StringVar(&seedNombre, "nombre", "admin", "nombre de usuario")
	seedAdminCmd.Flags().StringVar(&seedCorreo, "correo", "", "correo del administrador")
	seedAdminCmd.Flags().StringVar(&seedPassword, "password", "", "contraseña (mínimo 8 caracteres)")
}
