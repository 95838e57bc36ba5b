package ubl

import (
	"encoding/base64"
	"fmt"

	"github.com/jhoicas/clearance-gateway/internal/domain"
)

// Envelope es el sobre JSON que consume el servicio remoto de clearance.
// El campo Invoice es SIEMPRE el Base64 de los bytes UTF-8 del documento
// firmado completo, nunca markup crudo.
type Envelope struct {
	Invoice string `json:"invoice"`
	UUID    string `json:"uuid"`
}

// ToEnvelope empaqueta el documento firmado para el envío.
func ToEnvelope(signedXML []byte, invoiceUUID string) (*Envelope, error) {
	if len(signedXML) == 0 {
		return nil, fmt.Errorf("%w: documento firmado vacío", domain.ErrInvalidInput)
	}
	if invoiceUUID == "" {
		return nil, fmt.Errorf("%w: uuid vacío", domain.ErrInvalidInput)
	}
	return &Envelope{
		Invoice: base64.StdEncoding.EncodeToString(signedXML),
		UUID:    invoiceUUID,
	}, nil
}

// FromEnvelope es la inversa de ToEnvelope. Solo se usa en round-trips de
// test: el consumidor real de la dirección forward es el servicio remoto.
func FromEnvelope(env *Envelope) (signedXML []byte, uuid string, err error) {
	if env == nil {
		return nil, "", fmt.Errorf("%w: envelope nil", domain.ErrInvalidInput)
	}
	raw, err := base64.StdEncoding.DecodeString(env.Invoice)
	if err != nil {
		return nil, "", fmt.Errorf("%w: invoice no es Base64 válido: %v", domain.ErrInvalidInput, err)
	}
	return raw, env.UUID, nil
}
