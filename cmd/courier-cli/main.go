// Courier CLI — инструмент командной строки для проверки очередей
// и управления контейнерами демона.
//
// Использование:
//
//	courier-cli [--api-url URL] [--amqp-url URL] [--management-url URL] [--json] <command> [flags]
//
// Команды:
//
//	status     Состояние контейнеров
//	container  Старт и остановка контейнеров
//	events     Журнал переходов контейнера
//	queue      declare, delete, describe, check
//	publish    Публикация сообщения в очередь
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/shaiso/Courier/internal/cli"
	"github.com/shaiso/Courier/internal/mq"
	"github.com/shaiso/Courier/internal/telemetry"
)

// version задаётся через ldflags при сборке.
var version = "dev"

func main() {
	var (
		apiURL        string
		amqpURL       string
		managementURL string
		vhost         string
		jsonOutput    bool
		verbose       bool
	)

	rootCmd := &cobra.Command{
		Use:           "courier-cli",
		Short:         "Courier CLI — RabbitMQ listener containers",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&apiURL, "api-url", envOr("COURIER_API_URL", "http://localhost:8090"), "Courier API URL")
	rootCmd.PersistentFlags().StringVar(&amqpURL, "amqp-url", envOr("RABBITMQ_URL", mq.DefaultURL()), "RabbitMQ AMQP URL")
	rootCmd.PersistentFlags().StringVar(&managementURL, "management-url", os.Getenv("RABBITMQ_MANAGEMENT_URL"), "RabbitMQ management API URL")
	rootCmd.PersistentFlags().StringVar(&vhost, "vhost", envOr("RABBITMQ_VHOST", "/"), "RabbitMQ virtual host")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log broker interaction to stderr")

	clientFn := func() *cli.Client { return cli.NewClient(apiURL) }
	outputFn := func() *cli.Output { return cli.NewOutput(jsonOutput) }

	brokerFn := func() (*cli.Broker, error) {
		logger := slog.New(slog.NewTextHandler(io.Discard, nil))
		if verbose {
			logger = telemetry.NewLogger(os.Stderr, "text", slog.LevelDebug)
		}

		provider := mq.NewProvider(mq.ProviderConfig{URL: amqpURL, Name: "courier-cli"}, logger)

		var mgmt *mq.ManagementClient
		if managementURL != "" {
			var err error
			mgmt, err = mq.NewManagementClient(managementURL, vhost)
			if err != nil {
				return nil, err
			}
		}

		return &cli.Broker{
			Admin:     mq.NewAdmin(provider, mgmt, logger),
			Publisher: mq.NewPublisher(provider, logger),
			Close:     provider.Close,
		}, nil
	}

	rootCmd.AddCommand(
		cli.NewStatusCmd(clientFn, outputFn),
		cli.NewContainerCmd(clientFn, outputFn),
		cli.NewEventsCmd(clientFn, outputFn),
		cli.NewQueueCmd(brokerFn, outputFn),
		cli.NewPublishCmd(brokerFn, outputFn),
	)

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func envOr(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}
