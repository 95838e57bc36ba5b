package ubl_test

import (
	"encoding/base64"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/clearance-gateway/internal/infrastructure/ubl"
)

// TestEnvelope_RoundTrip: fromEnvelope(toEnvelope(doc)) devuelve los bytes
// originales bit a bit.
func TestEnvelope_RoundTrip(t *testing.T) {
	doc := []byte(`<Invoice xmlns="urn:test"><ID>F-0042</ID><Total>119.00</Total></Invoice>`)
	uuid := "3cf5ee18-ee57-404c-beca-85c4cfccd0aa"

	env, err := ubl.ToEnvelope(doc, uuid)
	require.NoError(t, err)

	back, gotUUID, err := ubl.FromEnvelope(env)
	require.NoError(t, err)
	assert.Equal(t, doc, back, "round-trip debe ser bit a bit")
	assert.Equal(t, uuid, gotUUID)
}

// TestEnvelope_InvoiceEsBase64: el campo invoice nunca lleva markup crudo.
func TestEnvelope_InvoiceEsBase64(t *testing.T) {
	doc := []byte(`<Invoice><ID>F-0042</ID></Invoice>`)

	env, err := ubl.ToEnvelope(doc, "uuid-1")
	require.NoError(t, err)

	assert.NotContains(t, env.Invoice, "<")
	decoded, err := base64.StdEncoding.DecodeString(env.Invoice)
	require.NoError(t, err)
	assert.Equal(t, doc, decoded)
}

// TestEnvelope_FormatoJSON: el wire format es {"invoice": "<base64>", "uuid": "<string>"}.
func TestEnvelope_FormatoJSON(t *testing.T) {
	env, err := ubl.ToEnvelope([]byte("<Invoice/>"), "uuid-1")
	require.NoError(t, err)

	raw, err := json.Marshal(env)
	require.NoError(t, err)

	var m map[string]string
	require.NoError(t, json.Unmarshal(raw, &m))
	assert.Len(t, m, 2)
	assert.Contains(t, m, "invoice")
	assert.Contains(t, m, "uuid")
}

func TestEnvelope_Errores(t *testing.T) {
	_, err := ubl.ToEnvelope(nil, "uuid-1")
	assert.Error(t, err, "documento vacío se rechaza")

	_, err = ubl.ToEnvelope([]byte("<Invoice/>"), "")
	assert.Error(t, err, "uuid vacío se rechaza")

	_, _, err = ubl.FromEnvelope(&ubl.Envelope{Invoice: "***no-base64***", UUID: "u"})
	assert.Error(t, err, "base64 inválido se rechaza")

	_, _, err = ubl.FromEnvelope(nil)
	assert.Error(t, err)
}
