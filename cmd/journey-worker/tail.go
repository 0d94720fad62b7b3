package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/dukex/journeys/pkg/channels/kafka"
	"github.com/dukex/journeys/pkg/eventbus"
	"github.com/dukex/journeys/pkg/events"
	"github.com/dukex/journeys/pkg/log"
	cli "github.com/urfave/cli/v3"
)

func NewTailCommand() *cli.Command {
	return &cli.Command{
		Name:  "tail",
		Usage: "Print journey lifecycle events from Kafka as JSON lines",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "kafka-brokers",
				Required: true,
				Sources:  cli.EnvVars("KAFKA_BROKERS"),
			},
			&cli.StringFlag{
				Name:  "group",
				Value: serviceName + "-tail",
				Usage: "Consumer group suffix",
			},
			&cli.StringFlag{
				Name:    "log-level",
				Value:   "warn",
				Sources: cli.EnvVars("LOG_LEVEL"),
			},
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			log.Setup(command.String("log-level"), "text")

			logger := log.WithModule(serviceName).With("action", "tail")

			pub, sub, err := kafka.CreateChannel(watermill.NewSlogLogger(logger), kafka.ParseBrokers(command.String("kafka-brokers")), command.String("group"))
			if err != nil {
				return err
			}

			bus := eventbus.NewWatermillEventBus(pub, sub, logger)
			defer func() {
				_ = bus.Close()
			}()

			encoder := json.NewEncoder(os.Stdout)

			for _, eventType := range events.EventTypes {
				err := bus.Handle(eventType, func(_ context.Context, event events.Event) error {
					return encoder.Encode(event)
				})
				if err != nil {
					return err
				}
			}

			ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			err = bus.Subscribe(ctx)
			if err != nil {
				return fmt.Errorf("failed to subscribe: %w", err)
			}

			<-ctx.Done()

			return nil
		},
	}
}
