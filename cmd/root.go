package cmd

import (
	"os"
	"strings"
	"time"

	globalConfig "github.com/playmallpark/winston/config"
	"github.com/playmallpark/winston/pkg/utils"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Short: "Winston, asistente operativo de PlayMall Park",
	Long: `Winston atiende los grupos WhatsApp del parque PlayMall Park:
responde comandos operativos, consulta el backend de reportes y delega
las consultas libres al motor NLP del parque.`,
}

func init() {
	utils.LoadConfig(".")

	time.Local = time.UTC

	rootCmd.CompletionOptions.DisableDefaultCmd = true

	initFlags()

	cobra.OnInitialize(initEnvConfig)
}

// initEnvConfig vuelca las variables de entorno sobre la configuracion
// global. Los flags ya aplicados tienen prioridad.
func initEnvConfig() {
	if envPort := viper.GetString("app_port"); envPort != "" {
		globalConfig.AppPort = envPort
	}
	if envDebug := viper.GetBool("app_debug"); envDebug {
		globalConfig.AppDebug = envDebug
	}
	envBasicAuth := viper.GetString("app_basic_auth")
	if envBasicAuth == "" {
		envBasicAuth = os.Getenv("APP_BASIC_AUTH")
	}
	if envBasicAuth != "" {
		globalConfig.AppBasicAuthCredential = strings.Split(envBasicAuth, ",")
	}
	if envBaseURL := viper.GetString("app_public_base_url"); envBaseURL != "" {
		globalConfig.AppPublicBaseURL = envBaseURL
	}
	if envDBURI := viper.GetString("db_uri"); envDBURI != "" {
		globalConfig.DBURI = envDBURI
	}
}

func initFlags() {
	rootCmd.PersistentFlags().StringVarP(
		&globalConfig.AppPort,
		"port", "p",
		globalConfig.AppPort,
		"change port number with --port <number> | example: --port=8080",
	)
	rootCmd.PersistentFlags().BoolVarP(
		&globalConfig.AppDebug,
		"debug", "d",
		globalConfig.AppDebug,
		"hide or displaying log with --debug <true/false> | example: --debug=true",
	)
	rootCmd.PersistentFlags().StringSliceVarP(
		&globalConfig.AppBasicAuthCredential,
		"basic-auth", "b",
		globalConfig.AppBasicAuthCredential,
		"basic auth credential | -b=yourUsername:yourPassword",
	)
	rootCmd.PersistentFlags().StringVarP(
		&globalConfig.DBURI,
		"db-uri", "",
		globalConfig.DBURI,
		`the database uri to store the connection data (by default, sqlite3 under storages/whatsapp.db) --db-uri <string>`,
	)
	rootCmd.PersistentFlags().StringVarP(
		&globalConfig.RosterPath,
		"roster", "",
		globalConfig.RosterPath,
		`json file with the authorized staff numbers --roster <string> | example: --roster="contexto_operativo.json"`,
	)
	rootCmd.PersistentFlags().StringVarP(
		&globalConfig.ReportsBaseURL,
		"reports-url", "",
		globalConfig.ReportsBaseURL,
		`base url of the park reports backend --reports-url <string>`,
	)
	rootCmd.PersistentFlags().StringVarP(
		&globalConfig.NlpScriptPath,
		"nlp-script", "",
		globalConfig.NlpScriptPath,
		`path of the NLP engine script --nlp-script <string> | example: --nlp-script="sistema_funcional_operativo.py"`,
	)
	rootCmd.PersistentFlags().IntVarP(
		&globalConfig.MessageWorkerPoolSize,
		"message-workers", "",
		globalConfig.MessageWorkerPoolSize,
		`number of concurrent message workers --message-workers <number> | example: --message-workers=30 (default: 20)`,
	)
	rootCmd.PersistentFlags().IntVarP(
		&globalConfig.MessageWorkerQueueSize,
		"message-queue-size", "",
		globalConfig.MessageWorkerQueueSize,
		`queue size per message worker --message-queue-size <number> | example: --message-queue-size=1500 (default: 1000)`,
	)
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
