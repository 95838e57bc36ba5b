package signer_test

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"errors"
	"math/big"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/clearance-gateway/internal/domain"
	"github.com/jhoicas/clearance-gateway/internal/infrastructure/ubl/signer"
)

// newTestCertificate genera un par autofirmado RSA-2048 con la vigencia dada.
func newTestCertificate(t *testing.T, notBefore, notAfter time.Time) (tls.Certificate, *rsa.PrivateKey) {
	t.Helper()
	priv, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	template := x509.Certificate{
		SerialNumber: big.NewInt(1001),
		Subject:      pkix.Name{CommonName: "Comercial Andina SAS", Organization: []string{"Test"}},
		NotBefore:    notBefore,
		NotAfter:     notAfter,
		KeyUsage:     x509.KeyUsageDigitalSignature,
	}
	der, err := x509.CreateCertificate(rand.Reader, &template, &template, &priv.PublicKey, priv)
	require.NoError(t, err)
	leaf, err := x509.ParseCertificate(der)
	require.NoError(t, err)

	return tls.Certificate{
		Certificate: [][]byte{der},
		PrivateKey:  priv,
		Leaf:        leaf,
	}, priv
}

func TestVerifyBinding_ParValido(t *testing.T) {
	now := time.Now()
	cert, _ := newTestCertificate(t, now.Add(-time.Hour), now.Add(24*time.Hour))

	assert.NoError(t, signer.VerifyBinding(cert, now))
}

// TestVerifyBinding_LlaveAjena: un certificado con una llave privada que no le
// corresponde siempre falla con ErrCertificateMismatch.
func TestVerifyBinding_LlaveAjena(t *testing.T) {
	now := time.Now()
	cert, _ := newTestCertificate(t, now.Add(-time.Hour), now.Add(24*time.Hour))
	otra, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	cert.PrivateKey = otra
	err = signer.VerifyBinding(cert, now)
	assert.True(t, errors.Is(err, domain.ErrCertificateMismatch),
		"llave ajena debe fallar con ErrCertificateMismatch, falló con: %v", err)
}

// TestVerifyBinding_Expirado: vigencia vencida falla con ErrCertificateExpired
// antes de comparar llaves.
func TestVerifyBinding_Expirado(t *testing.T) {
	now := time.Now()
	cert, _ := newTestCertificate(t, now.Add(-48*time.Hour), now.Add(-time.Hour))

	err := signer.VerifyBinding(cert, now)
	assert.True(t, errors.Is(err, domain.ErrCertificateExpired),
		"certificado vencido debe fallar con ErrCertificateExpired, falló con: %v", err)
}

func TestVerifyBinding_ParIncompleto(t *testing.T) {
	err := signer.VerifyBinding(tls.Certificate{}, time.Now())
	assert.True(t, errors.Is(err, domain.ErrCertificateMismatch))
}
