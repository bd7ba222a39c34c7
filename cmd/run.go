package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	globalConfig "github.com/playmallpark/winston/config"
	"github.com/playmallpark/winston/infrastructure/whatsapp"
	"github.com/playmallpark/winston/integrations/instagram"
	"github.com/playmallpark/winston/integrations/nlpbridge"
	"github.com/playmallpark/winston/integrations/reports"
	"github.com/playmallpark/winston/lifecycle"
	"github.com/playmallpark/winston/pkg/botmonitor"
	"github.com/playmallpark/winston/pkg/msgworker"
	"github.com/playmallpark/winston/pkg/oplog"
	"github.com/playmallpark/winston/pkg/utils"
	"github.com/playmallpark/winston/ui/rest"
	"github.com/playmallpark/winston/usecase"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Inicia el bot de WhatsApp y la API de monitoreo",
	Run:   runBot,
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func runBot(_ *cobra.Command, _ []string) {
	if globalConfig.AppDebug {
		globalConfig.WhatsappLogLevel = "DEBUG"
		logrus.SetLevel(logrus.DebugLevel)
	}

	for _, dir := range []string{globalConfig.PathQrCode, globalConfig.PathMedia, globalConfig.PathStorages} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			logrus.Fatalf("No se pudo crear %s: %v", dir, err)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	monitor := botmonitor.New()
	activity := oplog.New(globalConfig.ActivityLogPath)
	serverID := utils.GetPersistentServerID(os.Getenv("WINSTON_SERVER_ID"), globalConfig.PathStorages)

	roster, err := usecase.LoadRoster(globalConfig.RosterPath)
	if err != nil {
		logrus.Fatalf("Contexto operativo invalido: %v", err)
	}

	session := whatsapp.NewSession()
	manager := lifecycle.NewManager(session, monitor, activity)

	bridge := nlpbridge.New(
		globalConfig.NlpCommand,
		globalConfig.NlpScriptPath,
		globalConfig.NlpWorkDir,
		globalConfig.NlpCallTimeout,
		globalConfig.NlpKillTimeout,
	)
	reportsClient := reports.NewClient(globalConfig.ReportsBaseURL)
	story := instagram.NewStoryPublisher(
		globalConfig.InstagramGraphURL,
		globalConfig.InstagramAccessToken,
		globalConfig.InstagramAccountID,
		globalConfig.PathMedia,
		globalConfig.AppPublicBaseURL,
	)

	dispatcher := &usecase.Dispatcher{
		Roster:         roster,
		Monitor:        monitor,
		ConnState:      func() string { return manager.State().String() },
		Nlp:            bridge,
		Reports:        reportsClient,
		Groups:         session,
		Instagram:      story,
		GroupsDumpPath: globalConfig.GroupsDumpPath,
	}

	pipeline := &usecase.Pipeline{
		Roster:        roster,
		Dispatcher:    dispatcher,
		Nlp:           bridge,
		Replier:       session,
		Monitor:       monitor,
		Activity:      activity,
		AllowedGroups: globalConfig.AllowedGroups,
		Typing:        session,
	}

	pool := msgworker.NewPool(globalConfig.MessageWorkerPoolSize, globalConfig.MessageWorkerQueueSize)
	pool.Start(ctx)

	session.WireEvents(manager, pool, pipeline.Process)

	go func() {
		if err := manager.Run(ctx); err != nil {
			logrus.Errorf("[LIFECYCLE] Fallo la conexion inicial: %v", err)
			manager.OnDisconnected("fallo de conexion inicial")
		}
	}()

	app := rest.NewApp(rest.Deps{
		ServerID:    serverID,
		State:       func() string { return manager.State().String() },
		LoggedIn:    session.IsLoggedIn,
		Monitor:     monitor,
		TypingChats: session.TypingChats,
	})

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		logrus.Info("[APP] Senal de terminacion recibida, apagando...")
		if err := app.Shutdown(); err != nil {
			logrus.Errorf("[APP] Error apagando el servidor HTTP: %v", err)
		}
		manager.Shutdown()
		pool.Stop()
		cancel()
	}()

	logrus.Infof("[APP] Winston %s escuchando en :%s (server %s)", globalConfig.AppVersion, globalConfig.AppPort, serverID)
	if err := app.Listen(":" + globalConfig.AppPort); err != nil {
		logrus.Fatalln("Failed to start: ", err.Error())
	}
}
