package invoicing

import (
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"

	"github.com/jhoicas/clearance-gateway/internal/domain"
)

// Codificaciones soportadas para el PIH (Previous Invoice Hash) dentro del XML.
// La codificación exacta depende de la configuración del validador remoto, por
// eso es configurable por deployment y no está fija en el código.
const (
	PIHEncodingHex    = "hex"    // el texto 64-hex crudo, tal como se almacena
	PIHEncodingBase64 = "base64" // Base64 de los 32 bytes del digest
)

// ComputeHash calcula el hash de contenido de una factura: SHA-256 de los
// bytes canónicos C14N, en hexadecimal minúscula (64 caracteres).
func ComputeHash(canonicalBytes []byte) string {
	sum := sha256.Sum256(canonicalBytes)
	return hex.EncodeToString(sum[:])
}

// ValidateHash verifica que s sea exactamente un digest SHA-256 en hex
// minúscula: 64 caracteres [0-9a-f]. Mayúsculas se rechazan para que la
// comparación de cadena PIH(n) == hash(n-1) sea byte a byte.
func ValidateHash(s string) error {
	if len(s) != 64 {
		return fmt.Errorf("%w: longitud %d, se esperan 64 caracteres", domain.ErrInvalidPreviousHash, len(s))
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return fmt.Errorf("%w: carácter %q en posición %d", domain.ErrInvalidPreviousHash, c, i)
		}
	}
	return nil
}

// EncodePIH codifica un hash 64-hex válido según la codificación configurada.
// Con "hex" devuelve el texto tal cual (nunca re-codificado); con "base64"
// devuelve el Base64 de los 32 bytes del digest.
func EncodePIH(hash64hex, encoding string) (string, error) {
	if err := ValidateHash(hash64hex); err != nil {
		return "", err
	}
	switch encoding {
	case PIHEncodingBase64:
		raw, err := hex.DecodeString(hash64hex)
		if err != nil {
			return "", fmt.Errorf("%w: %v", domain.ErrInvalidPreviousHash, err)
		}
		return base64.StdEncoding.EncodeToString(raw), nil
	case PIHEncodingHex, "":
		return hash64hex, nil
	default:
		return "", fmt.Errorf("%w: codificación PIH desconocida %q", domain.ErrInvalidInput, encoding)
	}
}
