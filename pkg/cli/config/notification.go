package config

import (
	"log/slog"

	"github.com/secmon-lab/casedesk/pkg/service/notification"
	"github.com/secmon-lab/casedesk/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

type Notification struct {
	slackWebhookURL string
}

func (x *Notification) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "slack-webhook-url",
			Usage:       "Slack incoming webhook URL to mirror notifications to",
			Category:    "Notification",
			Sources:     cli.EnvVars("CASEDESK_SLACK_WEBHOOK_URL"),
			Destination: &x.slackWebhookURL,
		},
	}
}

func (x Notification) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Bool("slack", x.slackWebhookURL != ""),
	)
}

// Configure builds the notification hub with the duration and Slack types
// of appCfg
func (x *Notification) Configure(appCfg *AppConfig) (*notification.Hub, error) {
	duration, err := appCfg.NotificationDuration()
	if err != nil {
		return nil, err
	}

	opts := []notification.HubOption{
		notification.WithCenterOptions(notification.WithDuration(duration)),
	}
	if x.slackWebhookURL != "" {
		opts = append(opts, notification.WithSink(notification.NewSlackSink(x.slackWebhookURL, appCfg.SlackTypes()...)))
		logging.Default().Info("Slack notification sink enabled")
	}

	return notification.NewHub(opts...), nil
}
