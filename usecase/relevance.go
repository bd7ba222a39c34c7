package usecase

import (
	"regexp"
	"strings"
)

// Frases casuales que no ameritan analisis del motor NLP.
var casualPhrases = []string{
	"hola", "buenas", "buenos dias", "buenas tardes", "buenas noches",
	"señor winston", "winston", "disculpe", "perdon",
	"como esta", "como estas", "que tal", "saludos", "ok", "vale",
	"gracias", "de nada", "por favor", "favor", "xfa", "porfavor",
	"jajaja", "jeje", "lol", "jaja", "si", "no", "bueno", "esta bien",
	"perfecto", "genial", "excelente", "mmm", "ahh", "ohh",
}

var casualSet = func() map[string]struct{} {
	s := make(map[string]struct{}, len(casualPhrases))
	for _, p := range casualPhrases {
		s[p] = struct{}{}
	}
	return s
}()

var greetingOnlyRe = regexp.MustCompile(`^(señor\s*winston|winston|hola|buenas)\s*[?¿]*\s*$`)

// Palabras clave operativas del parque.
var relevantKeywords = []string{
	"venta", "ventas", "ticket", "factura", "dinero", "caja", "cobrar",
	"atraccion", "atracciones", "funciona", "falla", "problema", "roto", "dañado",
	"inventario", "stock", "falta", "necesitamos", "pedir", "proveedor",
	"limpieza", "baños", "sucio", "limpiar", "basura",
	"cliente", "niños", "visitantes", "queja", "reclamo",
	"horario", "abrir", "cerrar", "evento", "reserva", "cumpleaños",
	"sistema", "computadora", "internet", "impresora", "equipo", "tecnologia",
	"error", "no funciona", "se daño", "ayuda", "soporte", "arreglar",
	"reporte", "estado", "situacion", "informar", "revisar", "verificar",
	"como va", "como estan", "total del dia", "cuanto llevamos",
	"/ping", "/test", "/estado", "/help", "/ayuda", "/personal", "/grupos", "/id",
}

// IsRelevant decide si un texto libre debe llegar al motor NLP.
//
// La regla de longitud va antes que la de palabras clave: un mensaje
// de mas de 15 caracteres sin ninguna frase casual como substring es
// relevante aunque no contenga palabra clave alguna.
func IsRelevant(text string) bool {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return false
	}

	lower := strings.ToLower(trimmed)

	if _, casual := casualSet[lower]; casual {
		return false
	}
	if greetingOnlyRe.MatchString(lower) {
		return false
	}

	if len([]rune(trimmed)) > 15 && !containsCasual(lower) {
		return true
	}

	for _, kw := range relevantKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

func containsCasual(lower string) bool {
	for _, p := range casualPhrases {
		if strings.Contains(lower, p) {
			return true
		}
	}
	return false
}
