// Package whatsapp arma la sesion whatsmeow del bot y traduce sus
// eventos al dominio del parque.
package whatsapp

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/playmallpark/winston/config"
	"github.com/playmallpark/winston/pkg/chatpresence"
	"github.com/sirupsen/logrus"
	"go.mau.fi/whatsmeow"
	"go.mau.fi/whatsmeow/store/sqlstore"
	"go.mau.fi/whatsmeow/types"
	waLog "go.mau.fi/whatsmeow/util/log"

	_ "github.com/mattn/go-sqlite3"
)

// Session envuelve el cliente whatsmeow con lo que el supervisor de
// ciclo de vida necesita: conectar, destruir y reconstruir.
type Session struct {
	mu        sync.Mutex
	client    *whatsmeow.Client
	container *sqlstore.Container
	handlers  []func(evt any)
	handlerID uint32
	typing    *chatpresence.Tracker
}

func NewSession() *Session {
	return &Session{typing: chatpresence.NewTracker()}
}

// Client expone el cliente activo. Nil antes de Init.
func (s *Session) Client() *whatsmeow.Client {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.client
}

// AddEventHandler registra un handler que sobrevive a los Reset.
func (s *Session) AddEventHandler(fn func(evt any)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handlers = append(s.handlers, fn)
	if s.client != nil {
		s.handlerID = s.client.AddEventHandler(fn)
	}
}

// Init abre el contenedor sqlite y crea el cliente.
func (s *Session) Init(ctx context.Context) error {
	if err := os.MkdirAll(config.PathStorages, 0755); err != nil {
		return fmt.Errorf("creando directorio de sesion: %w", err)
	}

	dbLog := waLog.Stdout("DB", config.WhatsappLogLevel, true)
	container, err := sqlstore.New(ctx, "sqlite3", config.DBURI, dbLog)
	if err != nil {
		return fmt.Errorf("inicializando base de sesion: %w", err)
	}

	device, err := container.GetFirstDevice(ctx)
	if err != nil {
		return fmt.Errorf("obteniendo dispositivo: %w", err)
	}
	if device == nil {
		device = container.NewDevice()
	}

	client := whatsmeow.NewClient(device, waLog.Stdout("Client", config.WhatsappLogLevel, true))
	client.EnableAutoReconnect = false // la reconexion la maneja lifecycle.Manager

	s.mu.Lock()
	s.container = container
	s.client = client
	for _, fn := range s.handlers {
		s.handlerID = client.AddEventHandler(fn)
	}
	s.mu.Unlock()

	logrus.Info("[WHATSAPP] Cliente inicializado")
	return nil
}

// Connect abre el websocket. Con sesion nueva deja el QR en statics
// para escanearlo.
func (s *Session) Connect(ctx context.Context) error {
	cli := s.Client()
	if cli == nil {
		if err := s.Init(ctx); err != nil {
			return err
		}
		cli = s.Client()
	}

	if cli.Store.ID == nil {
		qrChan, err := cli.GetQRChannel(ctx)
		if err != nil {
			return fmt.Errorf("obteniendo canal QR: %w", err)
		}
		go s.persistQRCodes(qrChan)
	}

	return cli.Connect()
}

func (s *Session) persistQRCodes(ch <-chan whatsmeow.QRChannelItem) {
	if err := os.MkdirAll(config.PathQrCode, 0755); err != nil {
		logrus.Warnf("[QR] no se pudo crear %s: %v", config.PathQrCode, err)
	}
	for evt := range ch {
		if evt.Event != "code" {
			logrus.Infof("[QR] evento de login: %s", evt.Event)
			continue
		}
		path := filepath.Join(config.PathQrCode, "ultimo_qr.txt")
		if err := os.WriteFile(path, []byte(evt.Code), 0644); err != nil {
			logrus.Warnf("[QR] no se pudo guardar el codigo: %v", err)
		} else {
			logrus.Infof("[QR] Codigo pendiente de escaneo guardado en %s", path)
		}
	}
}

func (s *Session) Disconnect() {
	if cli := s.Client(); cli != nil {
		cli.Disconnect()
	}
}

func (s *Session) IsConnected() bool {
	cli := s.Client()
	return cli != nil && cli.IsConnected()
}

func (s *Session) IsLoggedIn() bool {
	cli := s.Client()
	return cli != nil && cli.IsLoggedIn()
}

// KeepAlive manda presencia para que el servidor no hiberne la sesion.
func (s *Session) KeepAlive(ctx context.Context) error {
	cli := s.Client()
	if cli == nil || !cli.IsConnected() {
		return fmt.Errorf("sesion no conectada")
	}
	return cli.SendPresence(ctx, types.PresenceAvailable)
}

// Reset destruye el cliente actual y levanta uno nuevo, reutilizando
// la sesion guardada en sqlite.
func (s *Session) Reset(ctx context.Context) error {
	s.mu.Lock()
	if s.client != nil {
		s.client.RemoveEventHandler(s.handlerID)
		s.client.Disconnect()
		s.client = nil
	}
	s.container = nil
	s.mu.Unlock()

	logrus.Warn("[WHATSAPP] Reconstruyendo sesion desde cero")
	if err := s.Init(ctx); err != nil {
		return err
	}
	return s.Connect(ctx)
}
