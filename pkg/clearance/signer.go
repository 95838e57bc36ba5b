// Interfaz para la firma digital de documentos XML (enveloped, XMLDSig).

package clearance

import "crypto/tls"

// Signer firma un XML de factura y devuelve el documento con la firma
// inyectada en el ExtensionContent reservado por el builder.
type Signer interface {
	// Sign toma el XML sin firmar y el certificado con llave privada, y
	// retorna un documento NUEVO con el nodo ds:Signature embebido. El
	// digest de la firma se calcula sobre la forma canónica C14N del
	// documento SIN la firma (transformada enveloped-signature).
	Sign(xmlBytes []byte, cert tls.Certificate) ([]byte, error)
}
