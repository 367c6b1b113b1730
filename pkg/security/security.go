package security

import (
	"crypto/rand"
	"fmt"
	"html"
	"math/big"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/text/unicode/norm"
)

var tagPattern = regexp.MustCompile(`<[^>]*>`)

// NewID genera un identificador único (UUID v4).
func NewID() string {
	return uuid.NewString()
}

// HashPassword genera el hash bcrypt de la contraseña.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// VerifyPassword compara la contraseña con el hash almacenado.
func VerifyPassword(password, hash string) bool {
	if hash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// SanitizeString elimina etiquetas, recorta espacios, normaliza a NFC y escapa HTML.
func SanitizeString(s string) string {
	s = tagPattern.ReplaceAllString(s, "")
	s = strings.TrimSpace(s)
	s = norm.NFC.String(s)
	return html.EscapeString(s)
}

// Sanitize aplica SanitizeString de forma recursiva a textos, listas y mapas.
// Los demás tipos (números, booleanos, fechas) se devuelven sin cambios.
func Sanitize(v any) any {
	switch t := v.(type) {
	case string:
		return SanitizeString(t)
	case []string:
		out := make([]string, len(t))
		for i, s := range t {
			out[i] = SanitizeString(s)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = Sanitize(e)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, e := range t {
			out[k] = Sanitize(e)
		}
		return out
	default:
		return v
	}
}

const passwordAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// RandomPassword genera una contraseña alfanumérica de longitud n con crypto/rand.
func RandomPassword(n int) (string, error) {
	max := big.NewInt(int64(len(passwordAlphabet)))
	b := make([]byte, n)
	for i := range b {
		idx, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("random password: %w", err)
		}
		b[i] = passwordAlphabet[idx.Int64()]
	}
	return string(b), nil
}
