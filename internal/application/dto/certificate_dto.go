package dto

// UploadCertificateRequest subida de un par certificado/llave para un ambiente.
// CertData y KeyData van en Base64; KeyData vacío si CertData es un .p12.
type UploadCertificateRequest struct {
	Environment string `json:"environment" validate:"required,oneof=sandbox production"`
	CertData    string `json:"cert_data" validate:"required"`   // Base64 del .pem o .p12
	KeyData     string `json:"key_data"`                        // Base64 del .pem de la llave
	Password    string `json:"password"`                        // contraseña del .p12
	Format      string `json:"format" validate:"oneof=pem p12"` // "pem" | "p12"
}

// CertificateResponse metadatos visibles del certificado (nunca la llave).
type CertificateResponse struct {
	ID           string `json:"id"`
	Environment  string `json:"environment"`
	SerialNumber string `json:"serial_number"`
	Issuer       string `json:"issuer"`
	Subject      string `json:"subject"`
	NotBefore    string `json:"not_before"`
	NotAfter     string `json:"not_after"`
	Active       bool   `json:"active"`
}

// LoginRequest credenciales del tenant para obtener JWT.
type LoginRequest struct {
	ClientID     string `json:"client_id" validate:"required"`
	ClientSecret string `json:"client_secret" validate:"required"`
	Environment  string `json:"environment" validate:"oneof=sandbox production"`
}

// LoginResponse token emitido.
type LoginResponse struct {
	Token     string `json:"token"`
	ExpiresIn int    `json:"expires_in"` // segundos
}
