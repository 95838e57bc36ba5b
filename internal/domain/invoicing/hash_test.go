package invoicing_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/clearance-gateway/internal/domain"
	"github.com/jhoicas/clearance-gateway/internal/domain/invoicing"
)

// Vector SHA-256 conocido: sha256("abc") en hex minúscula.
const sha256ABC = "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad"

func TestComputeHash_VectorConocido(t *testing.T) {
	assert.Equal(t, sha256ABC, invoicing.ComputeHash([]byte("abc")))
}

func TestComputeHash_Determinista(t *testing.T) {
	in := []byte("<Invoice><cbc:ID>F-001</cbc:ID></Invoice>")
	assert.Equal(t, invoicing.ComputeHash(in), invoicing.ComputeHash(in))
}

// TestValidateHash_Rechazos: 63 caracteres, mayúsculas y no-hex fallan todos
// con ErrInvalidPreviousHash antes de cualquier canonicalización.
func TestValidateHash_Rechazos(t *testing.T) {
	cases := map[string]string{
		"corto":      sha256ABC[:63],
		"largo":      sha256ABC + "a",
		"mayusculas": strings.ToUpper(sha256ABC),
		"no-hex":     strings.Replace(sha256ABC, "a", "z", 1),
		"vacio":      "",
	}
	for name, h := range cases {
		err := invoicing.ValidateHash(h)
		assert.True(t, errors.Is(err, domain.ErrInvalidPreviousHash),
			"caso %s debe fallar con ErrInvalidPreviousHash, falló con: %v", name, err)
	}
}

func TestValidateHash_Valido(t *testing.T) {
	assert.NoError(t, invoicing.ValidateHash(sha256ABC))
}

// TestEncodePIH_Hex: con codificación hex el texto se emite tal cual,
// jamás re-codificado.
func TestEncodePIH_Hex(t *testing.T) {
	out, err := invoicing.EncodePIH(sha256ABC, invoicing.PIHEncodingHex)
	require.NoError(t, err)
	assert.Equal(t, sha256ABC, out)
}

// TestEncodePIH_Base64: con base64 se codifican los 32 bytes crudos del digest.
func TestEncodePIH_Base64(t *testing.T) {
	out, err := invoicing.EncodePIH(sha256ABC, invoicing.PIHEncodingBase64)
	require.NoError(t, err)
	// 32 bytes -> 44 caracteres Base64 con padding
	assert.Len(t, out, 44)
	assert.Equal(t, "ungWv48Bz+pBQUDeXa4iI7ADYaOWF3qctBD/YfIAFa0=", out)
}

func TestEncodePIH_HashInvalido(t *testing.T) {
	_, err := invoicing.EncodePIH("no-es-un-hash", invoicing.PIHEncodingHex)
	assert.True(t, errors.Is(err, domain.ErrInvalidPreviousHash))
}

func TestEncodePIH_CodificacionDesconocida(t *testing.T) {
	_, err := invoicing.EncodePIH(sha256ABC, "rot13")
	assert.True(t, errors.Is(err, domain.ErrInvalidInput))
}
