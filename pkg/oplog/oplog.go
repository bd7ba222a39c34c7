// Package oplog escribe el registro de actividad del bot: una linea
// por evento, solo-append, pensado para auditoria manual.
package oplog

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// Logger appends timestamped activity lines to a single file.
// Write failures are logged and swallowed; the activity log never
// takes the bot down.
type Logger struct {
	mu   sync.Mutex
	path string
	now  func() time.Time
}

func New(path string) *Logger {
	return &Logger{path: path, now: time.Now}
}

// Log appends one "[CATEGORY] detail" line.
func (l *Logger) Log(category, detail string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	line := fmt.Sprintf("%s [%s] %s\n", l.now().Format(time.RFC3339), category, detail)

	if dir := filepath.Dir(l.path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			logrus.Warnf("[OPLOG] no se pudo crear directorio %s: %v", dir, err)
			return
		}
	}

	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		logrus.Warnf("[OPLOG] no se pudo abrir %s: %v", l.path, err)
		return
	}
	defer f.Close()

	if _, err := f.WriteString(line); err != nil {
		logrus.Warnf("[OPLOG] fallo de escritura en %s: %v", l.path, err)
	}
}
