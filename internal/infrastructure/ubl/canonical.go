// Canonicalización W3C C14N 1.0 (c14n-20010315) con exclusión de la firma.
//
// La salida es byte-exacta: el verificador remoto recalcula el digest desde la
// forma canónica, así que cualquier divergencia (normalización por líneas,
// stripping ingenuo de whitespace) rompe la verificación en silencio. Por eso
// aquí se usa el algoritmo C14N real (ucarion/c14n) y no una aproximación.

package ubl

import (
	"bytes"
	"encoding/xml"
	"fmt"

	"github.com/beevik/etree"
	"github.com/ucarion/c14n"

	"github.com/jhoicas/clearance-gateway/internal/domain"
)

// CanonicalizerService produce la serialización canónica del documento,
// excluyendo siempre cualquier subárbol ds:Signature (transformada
// "enveloped-signature"): los bytes que se digieren nunca contienen la firma.
type CanonicalizerService struct{}

// NewCanonicalizerService crea el servicio.
func NewCanonicalizerService() *CanonicalizerService {
	return &CanonicalizerService{}
}

// Canonicalize devuelve los bytes C14N del documento, sin ningún subárbol
// Signature esté donde esté. Dos árboles semánticamente idénticos (atributos
// reordenados, declaraciones de namespace redundantes) producen salida
// byte-idéntica. Retorna domain.ErrCanonicalization si el XML está malformado.
func (s *CanonicalizerService) Canonicalize(xmlBytes []byte) ([]byte, error) {
	if len(xmlBytes) == 0 {
		return nil, fmt.Errorf("%w: documento vacío", domain.ErrCanonicalization)
	}

	stripped, err := stripSignatures(xmlBytes)
	if err != nil {
		return nil, err
	}

	dec := xml.NewDecoder(bytes.NewReader(stripped))
	dec.Entity = map[string]string{}
	out, err := c14n.Canonicalize(dec)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrCanonicalization, err)
	}
	return out, nil
}

// stripSignatures parsea el documento y elimina todo elemento Signature
// (cualquier prefijo, cualquier profundidad) antes de canonicalizar.
// El árbol de entrada nunca se muta: etree trabaja sobre su propia copia.
func stripSignatures(xmlBytes []byte) ([]byte, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(xmlBytes); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrCanonicalization, err)
	}
	root := doc.Root()
	if root == nil {
		return nil, fmt.Errorf("%w: documento sin raíz", domain.ErrCanonicalization)
	}
	removeSignatureElements(root)

	var out bytes.Buffer
	if _, err := doc.WriteTo(&out); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrCanonicalization, err)
	}
	return out.Bytes(), nil
}

func removeSignatureElements(el *etree.Element) {
	// Copia del slice: se muta la lista de hijos durante el recorrido.
	children := append([]*etree.Element(nil), el.ChildElements()...)
	for _, child := range children {
		tag := child.Tag
		if tag == "ds:Signature" {
			tag = "Signature"
		}
		if tag == "Signature" {
			el.RemoveChild(child)
			continue
		}
		removeSignatureElements(child)
	}
}
