// Package notify reports finished export runs to the camp kitchen team.
package notify

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"camp-export/internal/logging"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// Report summarizes one export run.
type Report struct {
	RunID    string
	CampID   string
	CampName string
	Days     int
	Meals    int
	Recipes  int
	// ShoppingItems counts the lines of the shopping list.
	ShoppingItems int
	// PrepareDays counts the days with meals to prepare ahead.
	PrepareDays int
	Latency     time.Duration
	// Err is set for failed runs.
	Err error
}

// Notifier delivers run reports.
type Notifier interface {
	Notify(ctx context.Context, r Report) error
}

// Nop drops every report.
type Nop struct{}

// Notify implements Notifier.
func (Nop) Notify(context.Context, Report) error { return nil }

// Telegram posts reports to a chat through the Telegram Bot API.
type Telegram struct {
	api    *tgbotapi.BotAPI
	chatID int64
	logger *zap.Logger
}

// TelegramOption configures a Telegram notifier.
type TelegramOption func(*telegramOptions)

type telegramOptions struct {
	endpoint string
	client   tgbotapi.HTTPClient
}

// WithEndpoint overrides the Bot API endpoint, a format string taking the
// token and the method name.
func WithEndpoint(endpoint string) TelegramOption {
	return func(o *telegramOptions) { o.endpoint = endpoint }
}

// WithHTTPClient sets the client used to reach the Bot API.
func WithHTTPClient(client tgbotapi.HTTPClient) TelegramOption {
	return func(o *telegramOptions) { o.client = client }
}

// NewTelegram authorizes the bot token and returns a notifier posting to
// chatID.
func NewTelegram(token string, chatID int64, logger *zap.Logger, opts ...TelegramOption) (*Telegram, error) {
	if token == "" {
		return nil, fmt.Errorf("TELEGRAM_BOT_TOKEN environment variable not set")
	}
	if chatID == 0 {
		return nil, fmt.Errorf("TELEGRAM_CHAT_ID environment variable not set")
	}
	logger = logging.OrNop(logger)

	o := telegramOptions{endpoint: tgbotapi.APIEndpoint}
	for _, opt := range opts {
		opt(&o)
	}
	if o.client == nil {
		o.client = &http.Client{Timeout: 30 * time.Second}
	}

	api, err := tgbotapi.NewBotAPIWithClient(token, o.endpoint, o.client)
	if err != nil {
		return nil, fmt.Errorf("failed to init telegram api: %w", err)
	}
	logger.Info("telegram notifier authorized", zap.String("account", api.Self.UserName))

	return &Telegram{api: api, chatID: chatID, logger: logger}, nil
}

// Notify implements Notifier.
func (t *Telegram) Notify(ctx context.Context, r Report) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	msg := tgbotapi.NewMessage(t.chatID, FormatReport(r))
	msg.ParseMode = tgbotapi.ModeMarkdown
	msg.DisableWebPagePreview = true
	if _, err := t.api.Send(msg); err != nil {
		return fmt.Errorf("failed to send report of run %s: %w", r.RunID, err)
	}
	t.logger.Debug("report sent", zap.String("run_id", r.RunID), zap.Int64("chat_id", t.chatID))
	return nil
}

// FormatReport renders r as a Telegram Markdown message.
func FormatReport(r Report) string {
	name := r.CampName
	if name == "" {
		name = r.CampID
	}
	name = tgbotapi.EscapeText(tgbotapi.ModeMarkdown, name)

	var sb strings.Builder
	if r.Err != nil {
		fmt.Fprintf(&sb, "❌ *Export failed*: %s\n\n", name)
		fmt.Fprintf(&sb, "`%s`\n", strings.ReplaceAll(r.Err.Error(), "`", "'"))
	} else {
		fmt.Fprintf(&sb, "📄 *Export ready*: %s\n\n", name)
		fmt.Fprintf(&sb, "• Days: %d\n", r.Days)
		fmt.Fprintf(&sb, "• Meals: %d\n", r.Meals)
		fmt.Fprintf(&sb, "• Recipes: %d\n", r.Recipes)
		fmt.Fprintf(&sb, "🛒 Shopping list: %d items\n", r.ShoppingItems)
		if r.PrepareDays > 0 {
			fmt.Fprintf(&sb, "🔪 Prepare ahead on %d days\n", r.PrepareDays)
		}
	}
	fmt.Fprintf(&sb, "⏱ %s\n", r.Latency.Round(time.Millisecond))
	fmt.Fprintf(&sb, "_run %s_", tgbotapi.EscapeText(tgbotapi.ModeMarkdown, r.RunID))
	return sb.String()
}
