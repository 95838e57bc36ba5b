// Carga de certificados (.p12 PKCS#12 o par PEM) y validación de binding:
// la llave privada debe corresponder criptográficamente al certificado.

package signer

import (
	"crypto/rsa"
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"os"
	"time"

	"golang.org/x/crypto/pkcs12"

	"github.com/jhoicas/clearance-gateway/internal/domain"
)

// LoadFromP12 carga certificado y llave privada desde un archivo .p12/.pfx.
// El password puede ser vacío si el archivo no está protegido.
func LoadFromP12(path, password string) (tls.Certificate, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return tls.Certificate{}, fmt.Errorf("leer p12: %w", err)
	}
	priv, cert, err := pkcs12.Decode(data, password)
	if err != nil {
		return tls.Certificate{}, fmt.Errorf("decodificar p12: %w", err)
	}
	// pkcs12.Decode devuelve un solo certificado; para la firma basta la hoja.
	return tls.Certificate{
		Certificate: [][]byte{cert.Raw},
		PrivateKey:  priv,
		Leaf:        cert,
	}, nil
}

// LoadFromPEM carga certificado y llave desde archivos PEM (separados o combinados).
func LoadFromPEM(certPath, keyPath string) (tls.Certificate, error) {
	if keyPath == "" {
		// Un solo archivo puede contener cert+key en PEM
		keyPath = certPath
	}
	cert, err := tls.LoadX509KeyPair(certPath, keyPath)
	if err != nil {
		return tls.Certificate{}, fmt.Errorf("cargar PEM: %w", err)
	}
	return cert, nil
}

// VerifyBinding verifica que la llave privada corresponde exactamente al
// certificado (módulo y exponente para RSA) y que el certificado no está
// vencido respecto a now. Este check es obligatorio antes de entregar el par
// al firmador: firmar con una llave ajena pasa localmente pero revienta la
// verificación remota sin mensaje útil.
func VerifyBinding(cert tls.Certificate, now time.Time) error {
	if len(cert.Certificate) == 0 || cert.PrivateKey == nil {
		return fmt.Errorf("%w: par incompleto", domain.ErrCertificateMismatch)
	}
	leaf := cert.Leaf
	if leaf == nil {
		parsed, err := x509.ParseCertificate(cert.Certificate[0])
		if err != nil {
			return fmt.Errorf("%w: parsear certificado: %v", domain.ErrCertificateMismatch, err)
		}
		leaf = parsed
	}

	if now.After(leaf.NotAfter) {
		return fmt.Errorf("%w: venció el %s", domain.ErrCertificateExpired,
			leaf.NotAfter.UTC().Format("2006-01-02"))
	}

	certPub, ok := leaf.PublicKey.(*rsa.PublicKey)
	if !ok {
		return fmt.Errorf("%w: el certificado no contiene llave pública RSA", domain.ErrCertificateMismatch)
	}
	priv, ok := cert.PrivateKey.(*rsa.PrivateKey)
	if !ok {
		return fmt.Errorf("%w: la llave privada no es RSA", domain.ErrCertificateMismatch)
	}

	// Comparación exacta de la componente pública derivada de la llave.
	keyPub := &priv.PublicKey
	if certPub.N.Cmp(keyPub.N) != 0 || certPub.E != keyPub.E {
		return domain.ErrCertificateMismatch
	}
	return nil
}
