package usecase

import (
	"encoding/json"
	"fmt"
	"os"
	"regexp"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/sirupsen/logrus"
)

// fallbackNumber se usa cuando el archivo de personal no existe o no
// se puede leer: el administrador siempre queda autorizado.
const fallbackNumber = "584246865492"

var phoneRe = regexp.MustCompile(`^[0-9]{7,15}$`)

// RosterRecord es una entrada del contexto operativo del parque.
type RosterRecord struct {
	Nombre   string `json:"nombre"`
	Telefono string `json:"telefono"`
	Cargo    string `json:"cargo,omitempty"`
}

func (r RosterRecord) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Telefono,
			validation.Required,
			validation.Match(phoneRe).Error("debe contener solo digitos (7-15)"),
		),
	)
}

// Roster mantiene los numeros del personal autorizado.
type Roster struct {
	path    string
	numbers []string
}

// LoadRoster lee el archivo de contexto operativo. El archivo es un
// objeto JSON con IDs arbitrarios como claves; solo las entradas tipo
// objeto con campo "telefono" aportan numeros. Archivo ausente o JSON
// ilegible degrada al numero por defecto; un registro presente pero
// invalido si es un error.
func LoadRoster(path string) (*Roster, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		logrus.Warnf("[PERSONAL] %s no encontrado, usando numeros por defecto", path)
		return &Roster{path: path, numbers: []string{fallbackNumber}}, nil
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		logrus.Warnf("[PERSONAL] error leyendo %s: %v, usando numeros por defecto", path, err)
		return &Roster{path: path, numbers: []string{fallbackNumber}}, nil
	}

	var numbers []string
	for id, entry := range raw {
		var rec RosterRecord
		if err := json.Unmarshal(entry, &rec); err != nil {
			// Entradas que no son objetos (metadatos sueltos) se ignoran.
			continue
		}
		if rec.Telefono == "" {
			continue
		}
		rec.Telefono = strings.ReplaceAll(strings.ReplaceAll(rec.Telefono, "+", ""), " ", "")
		if err := rec.Validate(); err != nil {
			return nil, fmt.Errorf("registro %q invalido: %w", id, err)
		}
		numbers = append(numbers, rec.Telefono)
		nombre := rec.Nombre
		if nombre == "" {
			nombre = "Sin nombre"
		}
		logrus.Infof("[PERSONAL] %s (%s)", nombre, rec.Telefono)
	}

	if len(numbers) == 0 {
		numbers = []string{fallbackNumber}
	}
	logrus.Infof("[PERSONAL] Total autorizado: %d personas", len(numbers))
	return &Roster{path: path, numbers: numbers}, nil
}

// Numbers returns the authorized phone numbers.
func (r *Roster) Numbers() []string {
	out := make([]string, len(r.numbers))
	copy(out, r.numbers)
	return out
}

// IsAuthorized reporta si el JID remitente pertenece al personal.
//
// jsSubstring(clean, -8) replica substring(-8) del sistema anterior:
// con indice negativo retorna la cadena completa, asi que la segunda
// comparacion es num.Contains(numeroCompleto) y no un match de los
// ultimos 8 digitos. La autorizacion en produccion depende de este
// match laxo; no lo endurezcas a sufijo exacto.
func (r *Roster) IsAuthorized(senderJID string) bool {
	clean := cleanNumber(senderJID)
	if clean == "" {
		return false
	}
	for _, num := range r.numbers {
		if strings.Contains(clean, num) || strings.Contains(num, jsSubstring(clean, -8)) {
			return true
		}
	}
	return false
}

func cleanNumber(jid string) string {
	clean := jid
	for _, suffix := range []string{"@c.us", "@g.us", "@s.whatsapp.net"} {
		clean = strings.TrimSuffix(clean, suffix)
	}
	if idx := strings.Index(clean, ":"); idx >= 0 {
		clean = clean[:idx]
	}
	return strings.ReplaceAll(clean, "+", "")
}

// jsSubstring replica String.prototype.substring(start): los indices
// negativos se clampan a 0.
func jsSubstring(s string, start int) string {
	if start < 0 {
		start = 0
	}
	if start > len(s) {
		return ""
	}
	return s[start:]
}
