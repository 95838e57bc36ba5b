// certinfo inspecciona un par certificado/llave (.p12 o PEM) y verifica que
// sirve para firmar: carga, binding llave/cert y vigencia.
//
// Uso: go run ./cmd/certinfo <ruta> [password|ruta-llave]
package main

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/jhoicas/clearance-gateway/internal/infrastructure/ubl/signer"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "uso: certinfo <cert.p12|cert.pem> [password|key.pem]")
		os.Exit(1)
	}
	certPath := os.Args[1]
	extra := ""
	if len(os.Args) > 2 {
		extra = os.Args[2]
	}

	lower := strings.ToLower(certPath)
	var pair tls.Certificate
	var err error
	if strings.HasSuffix(lower, ".p12") || strings.HasSuffix(lower, ".pfx") {
		pair, err = signer.LoadFromP12(certPath, extra)
	} else {
		pair, err = signer.LoadFromPEM(certPath, extra)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "cargar par: %v\n", err)
		os.Exit(1)
	}

	leaf := pair.Leaf
	if leaf == nil {
		leaf, err = x509.ParseCertificate(pair.Certificate[0])
		if err != nil {
			fmt.Fprintf(os.Stderr, "parsear certificado: %v\n", err)
			os.Exit(1)
		}
	}

	fmt.Printf("Subject:  %s\n", leaf.Subject)
	fmt.Printf("Issuer:   %s\n", leaf.Issuer)
	fmt.Printf("Serial:   %s\n", leaf.SerialNumber)
	fmt.Printf("Vigencia: %s — %s\n",
		leaf.NotBefore.Format("2006-01-02"), leaf.NotAfter.Format("2006-01-02"))

	if err := signer.VerifyBinding(pair, time.Now()); err != nil {
		fmt.Fprintf(os.Stderr, "VERIFICACIÓN FALLIDA: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("OK: la llave corresponde al certificado y está vigente")
}
