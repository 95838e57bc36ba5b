package ubl_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/clearance-gateway/internal/domain"
	"github.com/jhoicas/clearance-gateway/internal/infrastructure/ubl"
)

// ──────────────────────────────────────────────────────────────────────────────
// El canonicalizador es el paso más frágil del pipeline: el verificador remoto
// recalcula el digest desde la forma canónica, así que estos tests validan las
// tres propiedades que no pueden romperse jamás: determinismo byte a byte,
// equivalencia semántica (atributos reordenados, namespaces redundantes) y
// exclusión total del subárbol Signature.
// ──────────────────────────────────────────────────────────────────────────────

func TestCanonicalize_Determinista(t *testing.T) {
	svc := ubl.NewCanonicalizerService()
	doc := []byte(`<Invoice xmlns="urn:test"><ID>F-001</ID><Total currencyID="USD">100.00</Total></Invoice>`)

	out1, err1 := svc.Canonicalize(doc)
	out2, err2 := svc.Canonicalize(doc)

	require.NoError(t, err1)
	require.NoError(t, err2)
	assert.Equal(t, out1, out2, "dos pasadas sobre el mismo documento deben ser byte-idénticas")
}

// TestCanonicalize_AtributosReordenados: dos serializaciones del mismo árbol
// con atributos en distinto orden producen salida canónica idéntica.
func TestCanonicalize_AtributosReordenados(t *testing.T) {
	svc := ubl.NewCanonicalizerService()
	docA := []byte(`<Invoice a="1" b="2" c="3"><ID>F-001</ID></Invoice>`)
	docB := []byte(`<Invoice c="3" a="1" b="2"><ID>F-001</ID></Invoice>`)

	outA, err := svc.Canonicalize(docA)
	require.NoError(t, err)
	outB, err := svc.Canonicalize(docB)
	require.NoError(t, err)

	assert.Equal(t, outA, outB, "el orden de atributos de entrada no debe afectar la salida C14N")
}

// TestCanonicalize_ExcluyeFirma: los bytes canónicos jamás contienen un
// subárbol Signature, sin importar dónde esté en el árbol de entrada.
func TestCanonicalize_ExcluyeFirma(t *testing.T) {
	svc := ubl.NewCanonicalizerService()

	sinFirma := []byte(`<Invoice xmlns="urn:test"><ID>F-001</ID></Invoice>`)
	conFirma := []byte(`<Invoice xmlns="urn:test">` +
		`<ds:Signature xmlns:ds="http://www.w3.org/2000/09/xmldsig#"><ds:SignatureValue>AAAA</ds:SignatureValue></ds:Signature>` +
		`<ID>F-001</ID></Invoice>`)

	outSin, err := svc.Canonicalize(sinFirma)
	require.NoError(t, err)
	outCon, err := svc.Canonicalize(conFirma)
	require.NoError(t, err)

	assert.NotContains(t, string(outCon), "Signature")
	assert.Equal(t, outSin, outCon,
		"canonicalizar con o sin firma debe producir los mismos bytes (transformada enveloped)")
}

// TestCanonicalize_FirmaAnidada: la exclusión aplica a cualquier profundidad,
// como cuando la firma vive dentro de ext:ExtensionContent.
func TestCanonicalize_FirmaAnidada(t *testing.T) {
	svc := ubl.NewCanonicalizerService()
	doc := []byte(`<Invoice xmlns="urn:test"><Ext><Content>` +
		`<ds:Signature xmlns:ds="http://www.w3.org/2000/09/xmldsig#"><ds:DigestValue>xx</ds:DigestValue></ds:Signature>` +
		`</Content></Ext><ID>F-001</ID></Invoice>`)

	out, err := svc.Canonicalize(doc)
	require.NoError(t, err)
	assert.NotContains(t, string(out), "Signature")
	assert.Contains(t, string(out), "F-001")
}

func TestCanonicalize_MalformadoRetornaErrCanonicalization(t *testing.T) {
	svc := ubl.NewCanonicalizerService()

	for name, doc := range map[string][]byte{
		"vacio":        nil,
		"desbalance":   []byte(`<Invoice><ID>F-001</Invoice>`),
		"solo-texto":   []byte(`no soy xml`),
	} {
		_, err := svc.Canonicalize(doc)
		assert.True(t, errors.Is(err, domain.ErrCanonicalization),
			"caso %s debe fallar con ErrCanonicalization, falló con: %v", name, err)
	}
}

// TestCanonicalize_WhitespaceSensible: C14N preserva el contenido textual;
// el determinismo viene del algoritmo, no de recortar espacios.
func TestCanonicalize_WhitespaceSensible(t *testing.T) {
	svc := ubl.NewCanonicalizerService()

	conEspacios := []byte("<Invoice><ID> F-001 </ID></Invoice>")
	out, err := svc.Canonicalize(conEspacios)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(out), "> F-001 <"),
		"el texto interior debe preservarse tal cual")
}
