// internal/domain/models/authmethods.go
package models

// Sign-in methods stored in User.AuthMethod.
const (
	AuthPassword = "password"
	AuthGoogle   = "google"
)

// AuthMethodLabel returns the display label for a stored auth method.
func AuthMethodLabel(value string) string {
	switch value {
	case AuthPassword:
		return "Password"
	case AuthGoogle:
		return "Google"
	default:
		return value
	}
}
