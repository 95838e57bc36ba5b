package domain

import "errors"

// Errores de dominio (sin dependencias externas).
// Todos los fallos del pipeline de firma se envuelven con alguno de estos
// sentinels para que el caller pueda decidir con errors.Is.
var (
	ErrNotFound     = errors.New("recurso no encontrado")
	ErrInvalidInput = errors.New("entrada inválida")
	ErrUnauthorized = errors.New("no autorizado")
	ErrForbidden    = errors.New("acceso denegado")
	ErrConflict     = errors.New("conflicto con el estado actual")

	// Pipeline de firma electrónica.
	ErrInvalidTimestamp    = errors.New("timestamp inválido")
	ErrInvalidPreviousHash = errors.New("hash de factura anterior inválido")
	ErrCanonicalization    = errors.New("error de canonicalización C14N")
	ErrCertificateMismatch = errors.New("el certificado no corresponde a la llave privada")
	ErrCertificateExpired  = errors.New("certificado expirado")
	ErrSigning             = errors.New("error al firmar el documento")
	ErrDuplicateInvoice    = errors.New("la factura ya existe en la cadena del tenant")
)
