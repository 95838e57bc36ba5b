package entity

import "time"

// Ambientes de clearance disponibles por tenant.
// El algoritmo de firma es idéntico en ambos; solo cambian endpoint y credenciales.
const (
	EnvSandbox    = "sandbox"
	EnvProduction = "production"
)

// Tenant representa un emisor registrado en el gateway.
// Cada tenant posee su propia cadena de hashes y su par certificado/llave.
type Tenant struct {
	ID           string
	Name         string
	TaxID        string // Identificación fiscal del emisor
	ClientID     string // Credencial para obtener JWT del gateway
	SecretHash   string // bcrypt del client secret
	Address      string
	Email        string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
