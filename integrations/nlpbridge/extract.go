package nlpbridge

import (
	"encoding/json"
	"errors"
	"regexp"
	"strings"

	"github.com/playmallpark/winston/domains/message"
	"github.com/sirupsen/logrus"
)

const (
	markerBegin = "=== RESULTADO JSON ==="
	markerEnd   = "=== FIN RESULTADO ==="
)

var braceRe = regexp.MustCompile(`(?s)\{[^{}]*"respuesta_grupo"[^{}]*\}`)

// extractStrategy intenta obtener un resultado de la salida cruda del
// motor NLP. Cada estrategia es independiente y se prueba en orden.
type extractStrategy func(out string) (*message.NlpResult, bool)

var strategies = []extractStrategy{
	extractBetweenMarkers,
	extractByBraceRegex,
	extractDirectLine,
}

var errNoResult = errors.New("sin respuesta valida en la salida del motor NLP")

// ExtractResult recorre las estrategias de extraccion en orden y
// devuelve el primer resultado valido.
func ExtractResult(out string) (*message.NlpResult, error) {
	for _, s := range strategies {
		if res, ok := s(out); ok {
			return res, nil
		}
	}
	return nil, errNoResult
}

// Estrategia 1: bloque delimitado por los marcadores del protocolo.
func extractBetweenMarkers(out string) (*message.NlpResult, bool) {
	begin := strings.Index(out, markerBegin)
	end := strings.Index(out, markerEnd)
	if begin == -1 || end == -1 || end < begin {
		return nil, false
	}
	jsonStr := strings.TrimSpace(out[begin+len(markerBegin) : end])
	res, err := parseResult(jsonStr)
	if err != nil {
		logrus.Warnf("[NLP] JSON entre marcadores invalido: %v", err)
		return nil, false
	}
	logrus.Info("[NLP] Respuesta extraida correctamente")
	return res, true
}

// Estrategia 2: primer objeto JSON que mencione respuesta_grupo.
func extractByBraceRegex(out string) (*message.NlpResult, bool) {
	match := braceRe.FindString(out)
	if match == "" {
		return nil, false
	}
	res, err := parseResult(match)
	if err != nil {
		logrus.Warnf("[NLP] JSON por regex invalido: %v", err)
		return nil, false
	}
	logrus.Info("[NLP] Patron encontrado via regex")
	return res, true
}

// Estrategia 3: linea de respuesta directa del sistema.
func extractDirectLine(out string) (*message.NlpResult, bool) {
	for _, line := range strings.Split(out, "\n") {
		if strings.Contains(line, "Sistema PlayMall Park") ||
			strings.Contains(line, "ANALISIS") ||
			strings.Contains(line, "reporte") ||
			len(line) > 50 {
			trimmed := strings.TrimSpace(line)
			if len(trimmed) > 10 {
				logrus.Info("[NLP] Usando respuesta directa del sistema")
				return &message.NlpResult{GroupReply: trimmed}, true
			}
		}
	}
	return nil, false
}

func parseResult(jsonStr string) (*message.NlpResult, error) {
	var res message.NlpResult
	if err := json.Unmarshal([]byte(jsonStr), &res); err != nil {
		return nil, err
	}
	if res.GroupReply == "" {
		res.GroupReply = "Mensaje procesado correctamente."
	}
	return &res, nil
}
