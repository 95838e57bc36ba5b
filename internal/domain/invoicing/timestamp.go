// Package invoicing: reglas de dominio del pipeline de firma — normalización
// de timestamps y hash de contenido para el encadenamiento de facturas.

package invoicing

import (
	"fmt"
	"strings"
	"time"

	"github.com/jhoicas/clearance-gateway/internal/domain"
)

// Políticas para timestamps sin zona horaria. La política se fija por
// deployment (config), nunca se mezclan dos políticas dentro de una factura.
const (
	NaivePolicyUTC   = "utc"   // tratar el timestamp naive como UTC (default seguro)
	NaivePolicyLocal = "local" // tratar el timestamp naive como hora local del servidor
)

// NormalizedTime resultado de la normalización: el instante UTC partido en
// fecha y hora tal como van en cbc:IssueDate / cbc:IssueTime.
type NormalizedTime struct {
	Date string // YYYY-MM-DD
	Time string // HH:MM:SS
	UTC  time.Time
}

// Layouts aceptados para la entrada. Los tres primeros llevan zona; los
// últimos son naive y caen bajo la política configurada.
var timestampLayouts = []struct {
	layout string
	naive  bool
}{
	{time.RFC3339Nano, false},
	{time.RFC3339, false},
	{"2006-01-02T15:04:05-07:00", false},
	{"2006-01-02T15:04:05", true},
	{"2006-01-02 15:04:05", true},
	{"2006-01-02", true},
}

// TimeNormalizer convierte timestamps de entrada a un par fecha/hora UTC canónico.
type TimeNormalizer struct {
	naivePolicy string
}

// NewTimeNormalizer crea el normalizador. policy debe ser "utc" o "local";
// cualquier otro valor cae al default "utc".
func NewTimeNormalizer(policy string) *TimeNormalizer {
	if policy != NaivePolicyLocal {
		policy = NaivePolicyUTC
	}
	return &TimeNormalizer{naivePolicy: policy}
}

// Normalize parsea el timestamp de entrada y lo convierte a UTC.
// Con zona: se convierte directamente. Sin zona: se interpreta según la
// política configurada. Retorna domain.ErrInvalidTimestamp si no parsea.
func (n *TimeNormalizer) Normalize(raw string) (*NormalizedTime, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return nil, fmt.Errorf("%w: timestamp vacío", domain.ErrInvalidTimestamp)
	}

	for _, cand := range timestampLayouts {
		loc := time.UTC
		if cand.naive && n.naivePolicy == NaivePolicyLocal {
			loc = time.Local
		}
		t, err := time.ParseInLocation(cand.layout, s, loc)
		if err != nil {
			continue
		}
		utc := t.UTC()
		return &NormalizedTime{
			Date: utc.Format("2006-01-02"),
			Time: utc.Format("15:04:05"),
			UTC:  utc,
		}, nil
	}
	return nil, fmt.Errorf("%w: %q no coincide con ningún formato aceptado", domain.ErrInvalidTimestamp, raw)
}

// NormalizeTime normaliza un time.Time ya parseado (siempre lleva zona en Go).
func (n *TimeNormalizer) NormalizeTime(t time.Time) *NormalizedTime {
	utc := t.UTC()
	return &NormalizedTime{
		Date: utc.Format("2006-01-02"),
		Time: utc.Format("15:04:05"),
		UTC:  utc,
	}
}
