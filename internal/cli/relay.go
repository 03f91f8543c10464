package cli

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/samandr77/crm/internal/app"
	"github.com/samandr77/crm/pkg/config"
	"github.com/samandr77/crm/pkg/logger"
)

func NewMailRelayCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "mail-relay",
		Short: "Deliver e-mails queued by the kafka mail transport",
		Long: `Consume KAFKA_NOTIFICATION_TOPIC as consumer group KAFKA_CONSUMER_ID and send every
e-mail event over SMTP (MAILER_*). Runs until interrupted.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			cfg, err := config.New(opts.EnvPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}

			l, err := logger.New(cfg.LogLevel)
			if err != nil {
				return fmt.Errorf("create logger: %w", err)
			}

			c, err := app.NewMailRelay(l, cfg)
			if err != nil {
				return err
			}

			c.Consume(ctx)
			slog.InfoContext(ctx, "mail relay started", "topic", cfg.Kafka.NotificationTopic, "group_id", cfg.Kafka.ConsumerID)

			<-ctx.Done()
			c.Close()

			return nil
		},
	}
}
