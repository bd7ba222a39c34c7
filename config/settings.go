package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

var (
	AppVersion             = "v1.4.0"
	AppPort                = "3000"
	AppDebug               = false
	AppBasicAuthCredential []string
	AppPublicBaseURL       = "http://localhost:3000"

	PathQrCode   = "statics/qrcode"
	PathMedia    = "statics/media"
	PathStorages = "storages"

	DBURI = "file:storages/whatsapp.db?_foreign_keys=on"

	WhatsappLogLevel = "ERROR"
	WhatsappTypeUser = "@s.whatsapp.net"

	// Grupos habilitados para el bot. Vacio = todos los grupos.
	AllowedGroups []string

	RosterPath      = "contexto_operativo.json"
	ActivityLogPath = "registro_actividad.log"
	GroupsDumpPath  = "grupos_whatsapp.json"

	ReportsBaseURL = "https://playpark-simbolico.ngrok.app"
	ReportsTimeout = 10 * time.Second

	NlpCommand     = "python"
	NlpScriptPath  = "sistema_funcional_operativo.py"
	NlpWorkDir     = "."
	NlpCallTimeout = 30 * time.Second
	NlpKillTimeout = 45 * time.Second

	InstagramAccessToken string
	InstagramAccountID   string
	InstagramGraphURL    = "https://graph.facebook.com/v19.0"

	HeartbeatInterval    = 30 * time.Second
	StatsInterval        = 5 * time.Minute
	StalenessInterval    = 60 * time.Second
	StalenessThreshold   = 180 * time.Second
	KeepAliveInterval    = 120 * time.Second
	ReconnectDelay       = 10 * time.Second
	ReconnectRetryDelay  = 30 * time.Second
	RestartDelay         = 15 * time.Second
	MaxReconnectAttempts = 5

	// Message Worker Pool settings
	MessageWorkerPoolSize  int = 20
	MessageWorkerQueueSize int = 1000
)

func init() {
	if v := strings.TrimSpace(os.Getenv("WINSTON_ALLOWED_GROUPS")); v != "" {
		for _, g := range strings.Split(v, ",") {
			if g = strings.TrimSpace(g); g != "" {
				AllowedGroups = append(AllowedGroups, g)
			}
		}
	}
	if v := strings.TrimSpace(os.Getenv("WINSTON_ROSTER_PATH")); v != "" {
		RosterPath = v
	}
	if v := strings.TrimSpace(os.Getenv("WINSTON_REPORTS_BASE_URL")); v != "" {
		ReportsBaseURL = v
	}
	if v := strings.TrimSpace(os.Getenv("WINSTON_NLP_SCRIPT")); v != "" {
		NlpScriptPath = v
	}
	if v := strings.TrimSpace(os.Getenv("WINSTON_NLP_WORKDIR")); v != "" {
		NlpWorkDir = v
	}
	if v := strings.TrimSpace(os.Getenv("INSTAGRAM_ACCESS_TOKEN")); v != "" {
		InstagramAccessToken = v
	}
	if v := strings.TrimSpace(os.Getenv("INSTAGRAM_ACCOUNT_ID")); v != "" {
		InstagramAccountID = v
	}
	if v := strings.TrimSpace(os.Getenv("WINSTON_MAX_RECONNECT_ATTEMPTS")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			MaxReconnectAttempts = n
		}
	}
	if v := strings.TrimSpace(os.Getenv("MESSAGE_WORKER_POOL_SIZE")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			MessageWorkerPoolSize = n
		}
	}
	if v := strings.TrimSpace(os.Getenv("MESSAGE_WORKER_QUEUE_SIZE")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			MessageWorkerQueueSize = n
		}
	}
}
