package notify

import (
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"mynt-trade-bot-go/internal/config"
)

// Notifier is a fire-and-forget message sink. Sends must never block the
// trade loop; drops are acceptable.
type Notifier interface {
	Send(message string)
}

// Nop discards every message.
type Nop struct{}

func (Nop) Send(string) {}

// Webhook posts messages as JSON to a configured webhook URL.
type Webhook struct {
	client *resty.Client
	url    string
	logger *zap.Logger
}

var _ Notifier = (*Webhook)(nil)

// New returns a webhook notifier, or a Nop sink when no URL is configured.
func New(cfg *config.Notification, logger *zap.Logger) Notifier {
	if cfg == nil || cfg.WebhookURL == "" {
		return Nop{}
	}
	client := resty.New().SetTimeout(5 * time.Second)
	return &Webhook{
		client: client,
		url:    cfg.WebhookURL,
		logger: logger.Named("notify"),
	}
}

// Send posts the message in the background. Failures are logged and dropped.
func (w *Webhook) Send(message string) {
	go func() {
		_, err := w.client.R().
			SetHeader("Content-Type", "application/json").
			SetBody(map[string]string{"text": message}).
			Post(w.url)
		if err != nil {
			w.logger.Warn("Failed to deliver notification", zap.Error(err))
		}
	}()
}
