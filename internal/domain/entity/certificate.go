package entity

import "time"

// Certificate metadatos de un par certificado/llave registrado para un tenant.
// Los archivos viven en el filesystem (permisos restringidos al owner); la DB
// guarda solo rutas y metadatos. Un único par activo por (tenant, ambiente):
// activar uno nuevo desactiva el anterior.
type Certificate struct {
	ID           string
	TenantID     string
	Environment  string // sandbox | production
	SerialNumber string
	Issuer       string
	Subject      string
	NotBefore    time.Time
	NotAfter     time.Time
	CertPath     string // .pem o .p12
	KeyPath      string // .pem de la llave (vacío si CertPath es .p12)
	Password     string // contraseña del .p12 (vacía para PEM)
	Active       bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Expired indica si el certificado ya venció respecto a now.
func (c *Certificate) Expired(now time.Time) bool {
	return now.After(c.NotAfter)
}
