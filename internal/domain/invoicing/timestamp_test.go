package invoicing_test

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/clearance-gateway/internal/domain"
	"github.com/jhoicas/clearance-gateway/internal/domain/invoicing"
)

// TestNormalize_ConZonaConvierteAUTC verifica que un timestamp con offset
// se convierte al instante UTC correcto, sin importar la política naive.
func TestNormalize_ConZonaConvierteAUTC(t *testing.T) {
	n := invoicing.NewTimeNormalizer(invoicing.NaivePolicyUTC)

	// 2024-03-15 23:30:00 -05:00 == 2024-03-16 04:30:00 UTC (cruza medianoche)
	out, err := n.Normalize("2024-03-15T23:30:00-05:00")
	require.NoError(t, err)
	assert.Equal(t, "2024-03-16", out.Date)
	assert.Equal(t, "04:30:00", out.Time)
}

// TestNormalize_NaiveComoUTC verifica la política por defecto: un timestamp
// sin zona se interpreta tal cual como UTC.
func TestNormalize_NaiveComoUTC(t *testing.T) {
	n := invoicing.NewTimeNormalizer(invoicing.NaivePolicyUTC)

	out, err := n.Normalize("2024-03-15T10:00:00")
	require.NoError(t, err)
	assert.Equal(t, "2024-03-15", out.Date)
	assert.Equal(t, "10:00:00", out.Time)
}

// TestNormalize_SoloFecha acepta YYYY-MM-DD con hora 00:00:00.
func TestNormalize_SoloFecha(t *testing.T) {
	n := invoicing.NewTimeNormalizer(invoicing.NaivePolicyUTC)

	out, err := n.Normalize("2024-03-15")
	require.NoError(t, err)
	assert.Equal(t, "2024-03-15", out.Date)
	assert.Equal(t, "00:00:00", out.Time)
}

// TestNormalize_InvalidoRetornaErrInvalidTimestamp: entradas no parseables
// fallan con el sentinel de dominio, nunca con un error genérico.
func TestNormalize_InvalidoRetornaErrInvalidTimestamp(t *testing.T) {
	n := invoicing.NewTimeNormalizer(invoicing.NaivePolicyUTC)

	for _, raw := range []string{"", "ayer", "15/03/2024", "2024-13-45T99:00:00"} {
		_, err := n.Normalize(raw)
		assert.True(t, errors.Is(err, domain.ErrInvalidTimestamp),
			"entrada %q debe fallar con ErrInvalidTimestamp, falló con: %v", raw, err)
	}
}

// TestNormalize_PoliticaInvalidaCaeAUTC: un valor de política desconocido
// usa el default seguro (utc), nunca una mezcla.
func TestNormalize_PoliticaInvalidaCaeAUTC(t *testing.T) {
	n := invoicing.NewTimeNormalizer("madrid")

	out, err := n.Normalize("2024-03-15T10:00:00")
	require.NoError(t, err)
	assert.Equal(t, "10:00:00", out.Time)
}

// TestNormalizeTime_SiempreUTC verifica la variante para time.Time ya parseado.
func TestNormalizeTime_SiempreUTC(t *testing.T) {
	n := invoicing.NewTimeNormalizer(invoicing.NaivePolicyUTC)
	loc := time.FixedZone("UTC-5", -5*3600)

	out := n.NormalizeTime(time.Date(2024, 3, 15, 23, 30, 0, 0, loc))
	assert.Equal(t, "2024-03-16", out.Date)
	assert.Equal(t, "04:30:00", out.Time)
}
