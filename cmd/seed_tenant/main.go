// seed_tenant genera el SQL para registrar un tenant nuevo en el gateway:
// hashea el client_secret con bcrypt y escribe el INSERT listo para ejecutar.
//
// Uso: go run ./cmd/seed_tenant <nombre> <tax_id> <client_id> <client_secret>
package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

func main() {
	if len(os.Args) != 5 {
		fmt.Fprintln(os.Stderr, "uso: seed_tenant <nombre> <tax_id> <client_id> <client_secret>")
		os.Exit(1)
	}
	name, taxID, clientID, secret := os.Args[1], os.Args[2], os.Args[3], os.Args[4]

	if len(secret) < 12 {
		fmt.Fprintln(os.Stderr, "el client_secret debe tener al menos 12 caracteres")
		os.Exit(1)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
	if err != nil {
		fmt.Fprintf(os.Stderr, "bcrypt: %v\n", err)
		os.Exit(1)
	}

	now := time.Now().UTC().Format(time.RFC3339)
	fmt.Printf(`INSERT INTO tenants (id, name, tax_id, client_id, secret_hash, created_at, updated_at)
VALUES ('%s', '%s', '%s', '%s', '%s', '%s', '%s');
`,
		uuid.New().String(),
		sqlEscape(name), sqlEscape(taxID), sqlEscape(clientID),
		string(hash), now, now,
	)
}

func sqlEscape(s string) string {
	return strings.ReplaceAll(s, "'", "''")
}
