package auth

import (
	"regexp"
	"strings"

	"proviai.com/provider-assistant/internal/store"
)

// MinPasswordLength is the shortest password accepted at registration.
const MinPasswordLength = 6

var emailPattern = regexp.MustCompile(`\S+@\S+\.\S+`)

// ValidationError is a field-level form error shown next to the input.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Message
}

type RegistrationInput struct {
	FirstName       string
	LastName        string
	Email           string
	Password        string
	ConfirmPassword string
	Role            string
}

// ValidateRegistration checks the form locally and returns the normalized
// role. The first failing rule wins.
func ValidateRegistration(in RegistrationInput) (store.Role, error) {
	if strings.TrimSpace(in.FirstName) == "" || strings.TrimSpace(in.LastName) == "" {
		return "", &ValidationError{Field: "name", Message: "El nombre y apellido son obligatorios"}
	}
	if !emailPattern.MatchString(strings.TrimSpace(in.Email)) {
		return "", &ValidationError{Field: "email", Message: "Correo electrónico inválido"}
	}
	if len(in.Password) < MinPasswordLength {
		return "", &ValidationError{Field: "password", Message: "La contraseña debe tener al menos 6 caracteres"}
	}
	if in.Password != in.ConfirmPassword {
		return "", &ValidationError{Field: "confirmPassword", Message: "Las contraseñas no coinciden"}
	}
	role, ok := store.ParseRole(in.Role)
	if !ok {
		return "", &ValidationError{Field: "role", Message: "Tipo de cuenta inválido"}
	}
	return role, nil
}

func ValidateLogin(email, password string) error {
	if !emailPattern.MatchString(strings.TrimSpace(email)) {
		return &ValidationError{Field: "email", Message: "Correo electrónico inválido"}
	}
	if password == "" {
		return &ValidationError{Field: "password", Message: "La contraseña es obligatoria"}
	}
	return nil
}
