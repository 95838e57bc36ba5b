// Servicio de firma digital enveloped (XMLDSig) para factura electrónica.
// Inyecta <ds:Signature> en el ext:ExtensionContent reservado por el builder.

package signer

import (
	"bytes"
	"crypto"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/tls"
	"crypto/x509"
	"encoding/base64"
	"encoding/xml"
	"fmt"
	"strings"

	"github.com/beevik/etree"
	"github.com/ucarion/c14n"

	"github.com/jhoicas/clearance-gateway/internal/domain"
	"github.com/jhoicas/clearance-gateway/pkg/clearance"
)

// Canonicalizer contrato mínimo que el firmador necesita del canonicalizador:
// bytes C14N del documento con todo subárbol Signature excluido.
type Canonicalizer interface {
	Canonicalize(xmlBytes []byte) ([]byte, error)
}

// DigitalSignatureService implementa la firma enveloped e inyecta el nodo en el XML.
type DigitalSignatureService struct {
	canon Canonicalizer
}

// NewDigitalSignatureService crea el servicio con el canonicalizador inyectado.
func NewDigitalSignatureService(canon Canonicalizer) *DigitalSignatureService {
	return &DigitalSignatureService{canon: canon}
}

// Sign implementa pkg/clearance.Signer. El documento de entrada se trata como
// inmutable: la firma se inyecta sobre un árbol nuevo parseado aparte, de modo
// que una canonicalización concurrente jamás observa un árbol a medio mutar.
func (s *DigitalSignatureService) Sign(xmlBytes []byte, cert tls.Certificate) ([]byte, error) {
	if len(xmlBytes) == 0 {
		return nil, fmt.Errorf("%w: XML vacío", domain.ErrSigning)
	}
	priv, ok := cert.PrivateKey.(*rsa.PrivateKey)
	if !ok {
		return nil, fmt.Errorf("%w: el certificado debe incluir llave privada RSA", domain.ErrSigning)
	}
	x509Cert, err := x509.ParseCertificate(cert.Certificate[0])
	if err != nil {
		return nil, fmt.Errorf("%w: parsear certificado: %v", domain.ErrSigning, err)
	}

	// 1) Digest del documento: SHA-256 sobre la forma canónica SIN firma.
	// Exactamente los mismos bytes que produce el hash de la cadena.
	canonicalDoc, err := s.canon.Canonicalize(xmlBytes)
	if err != nil {
		return nil, err
	}
	docDigest := sha256.Sum256(canonicalDoc)
	docDigestB64 := base64.StdEncoding.EncodeToString(docDigest[:])

	// 2) SignedInfo (C14N, Reference URI="", Digest SHA-256)
	signedInfoXML := s.buildSignedInfo(docDigestB64)
	canonicalSignedInfo, err := canonicalizeFragment([]byte(signedInfoXML))
	if err != nil {
		return nil, fmt.Errorf("%w: canonicalizar SignedInfo: %v", domain.ErrSigning, err)
	}
	signHash := sha256.Sum256(canonicalSignedInfo)
	signatureValue, err := rsa.SignPKCS1v15(nil, priv, crypto.SHA256, signHash[:])
	if err != nil {
		return nil, fmt.Errorf("%w: firmar SignedInfo: %v", domain.ErrSigning, err)
	}
	signatureValueB64 := base64.StdEncoding.EncodeToString(signatureValue)

	// 3) KeyInfo (X509Certificate en Base64)
	certB64 := base64.StdEncoding.EncodeToString(x509Cert.Raw)

	// 4) Nodo ds:Signature completo
	signatureXML := s.buildFullSignature(signedInfoXML, signatureValueB64, certB64)

	// 5) Inyectar en el ExtensionContent reservado
	return s.injectSignature(xmlBytes, signatureXML)
}

// canonicalizeFragment aplica C14N a un fragmento standalone (SignedInfo).
func canonicalizeFragment(data []byte) ([]byte, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))
	dec.Entity = map[string]string{}
	return c14n.Canonicalize(dec)
}

func (s *DigitalSignatureService) buildSignedInfo(docDigestB64 string) string {
	var sb strings.Builder
	sb.WriteString(`<ds:SignedInfo xmlns:ds="` + NamespaceDS + `">`)
	sb.WriteString(`<ds:CanonicalizationMethod Algorithm="` + AlgC14N + `"/>`)
	sb.WriteString(`<ds:SignatureMethod Algorithm="` + AlgRSASHA256 + `"/>`)
	sb.WriteString(`<ds:Reference URI="">`)
	sb.WriteString(`<ds:Transforms><ds:Transform Algorithm="` + TransformEnveloped + `"/>`)
	sb.WriteString(`<ds:Transform Algorithm="` + AlgC14N + `"/></ds:Transforms>`)
	sb.WriteString(`<ds:DigestMethod Algorithm="` + AlgSHA256 + `"/>`)
	sb.WriteString(`<ds:DigestValue>` + docDigestB64 + `</ds:DigestValue>`)
	sb.WriteString(`</ds:Reference>`)
	sb.WriteString(`</ds:SignedInfo>`)
	return sb.String()
}

func (s *DigitalSignatureService) buildFullSignature(signedInfoXML, signatureValueB64, certB64 string) string {
	var sb strings.Builder
	sb.WriteString(`<ds:Signature xmlns:ds="` + NamespaceDS + `">`)
	sb.WriteString(signedInfoXML)
	sb.WriteString(`<ds:SignatureValue>` + signatureValueB64 + `</ds:SignatureValue>`)
	sb.WriteString(`<ds:KeyInfo><ds:X509Data><ds:X509Certificate>` + certB64 + `</ds:X509Certificate></ds:X509Data></ds:KeyInfo>`)
	sb.WriteString(`</ds:Signature>`)
	return sb.String()
}

// injectSignature parsea el XML sin firmar en un árbol NUEVO y añade el
// ds:Signature como hijo del primer ext:ExtensionContent vacío.
func (s *DigitalSignatureService) injectSignature(xmlBytes []byte, signatureXML string) ([]byte, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(xmlBytes); err != nil {
		return nil, fmt.Errorf("%w: parsear XML: %v", domain.ErrSigning, err)
	}
	root := doc.Root()
	if root == nil {
		return nil, fmt.Errorf("%w: documento sin raíz", domain.ErrSigning)
	}
	extContent := findSignatureSlot(root)
	if extContent == nil {
		return nil, fmt.Errorf("%w: no se encontró ext:ExtensionContent para inyectar la firma", domain.ErrSigning)
	}

	sigDoc := etree.NewDocument()
	if err := sigDoc.ReadFromString(signatureXML); err != nil {
		return nil, fmt.Errorf("%w: parsear nodo Signature: %v", domain.ErrSigning, err)
	}
	if sigRoot := sigDoc.Root(); sigRoot != nil {
		extContent.AddChild(sigRoot)
	}

	var out bytes.Buffer
	if _, err := doc.WriteTo(&out); err != nil {
		return nil, fmt.Errorf("%w: serializar documento firmado: %v", domain.ErrSigning, err)
	}
	return out.Bytes(), nil
}

// findSignatureSlot busca el primer ext:ExtensionContent sin hijos dentro de
// ext:UBLExtensions (el Tag puede venir con o sin prefijo según el parser).
func findSignatureSlot(root *etree.Element) *etree.Element {
	for _, child := range root.ChildElements() {
		if localTag(child) != "UBLExtensions" {
			continue
		}
		for _, ext := range child.ChildElements() {
			if localTag(ext) != "UBLExtension" {
				continue
			}
			for _, ec := range ext.ChildElements() {
				if localTag(ec) == "ExtensionContent" && len(ec.ChildElements()) == 0 {
					return ec
				}
			}
		}
	}
	return nil
}

func localTag(el *etree.Element) string {
	tag := el.Tag
	if i := strings.LastIndex(tag, ":"); i >= 0 {
		tag = tag[i+1:]
	}
	return tag
}

var _ clearance.Signer = (*DigitalSignatureService)(nil)
