// Package nlpbridge ejecuta el motor NLP del parque como subproceso
// Python y convierte su salida en respuestas de grupo y privadas.
package nlpbridge

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/playmallpark/winston/domains/message"
	"github.com/sirupsen/logrus"
)

const killGrace = 5 * time.Second

// Bridge invoca el script operativo externo. El motor NLP es un
// programa aparte por contrato; este paquete solo habla su protocolo
// de linea de comandos y stdout.
type Bridge struct {
	Command     string
	ScriptPath  string
	WorkDir     string
	CallTimeout time.Duration
	KillTimeout time.Duration
}

func New(command, scriptPath, workDir string, callTimeout, killTimeout time.Duration) *Bridge {
	return &Bridge{
		Command:     command,
		ScriptPath:  scriptPath,
		WorkDir:     workDir,
		CallTimeout: callTimeout,
		KillTimeout: killTimeout,
	}
}

type imagePayload struct {
	Data     string `json:"data"`
	MimeType string `json:"mimetype"`
	FileName string `json:"filename,omitempty"`
}

// Invoke corre el motor NLP con el texto y numero dados. Nunca
// devuelve error: toda falla degrada a una respuesta de mantenimiento
// con la marca del sistema, igual que el operador esperaria.
func (b *Bridge) Invoke(ctx context.Context, text, number string, image *message.Media) *message.NlpResult {
	logrus.Info("[NLP] Iniciando comunicacion con sistema operativo...")

	textJSON, _ := json.Marshal(text)
	numberJSON, _ := json.Marshal(number)

	args := []string{
		b.ScriptPath,
		"--ejecutar-funcion",
		"--texto", string(textJSON),
		"--numero", string(numberJSON),
	}

	if image != nil {
		tmpPath, err := b.writeImageFile(image)
		if err != nil {
			logrus.Errorf("[NLP] no se pudo preparar la imagen: %v", err)
		} else {
			defer os.Remove(tmpPath)
			args = append(args, "--imagen-file", tmpPath)
			logrus.Infof("[IMAGE] Imagen guardada temporalmente: %s", image.MimeType)
		}
	}

	cmd := exec.Command(b.Command, args...)
	cmd.Dir = b.WorkDir
	cmd.Env = append(os.Environ(),
		"PYTHONIOENCODING=utf-8",
		"PYTHONUTF8=1",
		"FLASK_API_ENABLED=true",
		"NGROK_TUNNEL_ACTIVE=true",
		"REALTIME_DATA_MODE=true",
		"GPT_MODE=ceo_estrategico",
		"BUSINESS_COUNTRY=venezuela",
		"MANAGEMENT_STYLE=profesional_amistoso",
		"PSYCHOLOGY_MODE=motivacional_educativo",
		"SUPERVISION_LEVEL=completa_indirecta",
		"BUSINESS_INTELLIGENCE=avanzado",
	)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Start(); err != nil {
		logrus.Errorf("[NLP] Error ejecutando proceso: %v", err)
		return unavailableFallback()
	}

	// Kill switch a nivel de proceso: SIGTERM a los 45s y SIGKILL si
	// 5s despues sigue vivo. Corre aparte de la carrera de 30s del
	// llamador.
	killTimer := time.AfterFunc(b.KillTimeout, func() {
		logrus.Warnf("[TIMEOUT] Terminando proceso NLP por timeout (%s)", b.KillTimeout)
		_ = cmd.Process.Signal(syscall.SIGTERM)
		time.AfterFunc(killGrace, func() {
			_ = cmd.Process.Kill()
		})
	})
	defer killTimer.Stop()

	done := make(chan error, 1)
	go func() { done <- cmd.Wait() }()

	select {
	case err := <-done:
		return b.interpret(err, stdout.String(), stderr.String(), text, image != nil)

	case <-time.After(b.CallTimeout):
		logrus.Warnf("[TIMEOUT] Motor NLP supero los %s, abortando llamada", b.CallTimeout)
		_ = cmd.Process.Signal(syscall.SIGTERM)
		return timeoutFallback()

	case <-ctx.Done():
		_ = cmd.Process.Signal(syscall.SIGTERM)
		return timeoutFallback()
	}
}

func (b *Bridge) writeImageFile(image *message.Media) (string, error) {
	payload := imagePayload{
		Data:     base64.StdEncoding.EncodeToString(image.Data),
		MimeType: image.MimeType,
		FileName: image.FileName,
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}
	tmpPath := filepath.Join(os.TempDir(), fmt.Sprintf("winston_imagen_%d.json", time.Now().UnixNano()))
	if err := os.WriteFile(tmpPath, data, 0600); err != nil {
		return "", err
	}
	return tmpPath, nil
}

func (b *Bridge) interpret(waitErr error, stdout, stderr, text string, hadImage bool) *message.NlpResult {
	if waitErr != nil {
		exitCode := -1
		if ee, ok := waitErr.(*exec.ExitError); ok {
			exitCode = ee.ExitCode()
		}
		logrus.Errorf("[NLP] Proceso fallo con codigo %d: %.200s", exitCode, stderr)
		return maintenanceFallback(exitCode)
	}

	logrus.Info("[NLP] Proceso finalizado con codigo: 0")

	res, err := ExtractResult(stdout)
	if err != nil {
		logrus.Errorf("[NLP] Error interpretando respuesta: %v", err)
		return contextualFallback(text, hadImage)
	}

	logrus.Info("[NLP] Respuesta procesada exitosamente")
	return res
}

func timeoutFallback() *message.NlpResult {
	return &message.NlpResult{
		GroupReply: "Sistema PlayMall Park\n\nMensaje procesado. Sistema de respuestas temporalmente lento.\n\nPara asistencia inmediata, contacta al personal en el parque.\n\nTimeout del sistema reportado al equipo tecnico.",
	}
}

func unavailableFallback() *message.NlpResult {
	return &message.NlpResult{
		GroupReply: "Sistema PlayMall Park\n\nMensaje recibido. Sistema temporalmente no disponible.\n\nPara asistencia inmediata, contacta al personal en el parque.\n\nError de sistema reportado al equipo tecnico.",
	}
}

func maintenanceFallback(exitCode int) *message.NlpResult {
	return &message.NlpResult{
		GroupReply: fmt.Sprintf("Sistema PlayMall Park\n\nMensaje procesado correctamente. Sistema de respuestas automaticas temporalmente en mantenimiento.\n\nPara asistencia inmediata, contacta al personal en el parque.\n\nCodigo de error: %d", exitCode),
	}
}

func contextualFallback(text string, hadImage bool) *message.NlpResult {
	reply := "Sistema PlayMall Park\n\nMensaje procesado correctamente."

	lower := strings.ToLower(text)
	switch {
	case strings.Contains(lower, "venta"):
		reply += "\n\nConsulta de ventas recibida. Contacta al administrador para reporte detallado."
	case hadImage:
		reply += "\n\nImagen recibida y registrada. Analisis visual en proceso."
	case strings.Contains(lower, "problema"):
		reply += "\n\nReporte de problema registrado. Equipo tecnico notificado."
	}

	reply += "\n\nPara asistencia inmediata, contacta al personal en el parque."
	return &message.NlpResult{GroupReply: reply}
}
