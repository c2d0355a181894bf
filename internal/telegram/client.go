// Package telegram provides a client for sending notifications via Telegram Bot API.
package telegram

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/kerim47/quantdesk/internal/analytics"
	"github.com/kerim47/quantdesk/internal/logger"
	"github.com/kerim47/quantdesk/internal/models"
)

// Client handles Telegram notifications.
type Client struct {
	bot            *tgbotapi.BotAPI
	chatID         int64
	maxRetries     int
	retryDelayBase time.Duration
}

// NewClient creates a new Telegram client.
func NewClient(botToken, chatID string, maxRetries int, retryDelayBase time.Duration) (*Client, error) {
	bot, err := tgbotapi.NewBotAPI(botToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create Telegram bot: %w", err)
	}

	chatIDInt, err := strconv.ParseInt(chatID, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid chat ID: %w", err)
	}

	if maxRetries <= 0 {
		maxRetries = 3
	}
	if retryDelayBase <= 0 {
		retryDelayBase = time.Second
	}

	return &Client{
		bot:            bot,
		chatID:         chatIDInt,
		maxRetries:     maxRetries,
		retryDelayBase: retryDelayBase,
	}, nil
}

// RateReporter provides the latest currency report for the /rates command.
type RateReporter interface {
	Latest() (*models.CurrencyReport, bool)
}

// ListenForCommands starts a goroutine that polls for Telegram updates and handles bot commands.
// It returns immediately; the goroutine stops when ctx is cancelled. rates may be nil.
func (c *Client) ListenForCommands(ctx context.Context, rates RateReporter) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := c.bot.GetUpdatesChan(u)

	go func() {
		for {
			select {
			case <-ctx.Done():
				c.bot.StopReceivingUpdates()
				return
			case update, ok := <-updates:
				if !ok {
					return
				}
				if update.Message != nil && update.Message.IsCommand() {
					c.handleCommand(update.Message, rates)
				}
			}
		}
	}()
}

func (c *Client) handleCommand(msg *tgbotapi.Message, rates RateReporter) {
	reply := tgbotapi.NewMessage(msg.Chat.ID, "")
	switch msg.Command() {
	case "ping":
		reply.Text = "Pong"
	case "rates":
		reply.Text = "No rates yet"
		if rates == nil {
			break
		}
		if report, ok := rates.Latest(); ok {
			reply.Text = formatRates(report)
			reply.ParseMode = "MarkdownV2"
		}
	default:
		return
	}
	if _, err := c.bot.Send(reply); err != nil {
		logger.Warn("Failed to answer /%s: %v", msg.Command(), err)
	}
}

// sendMarkdownV2 sends a MarkdownV2 message with linear-backoff retry.
func (c *Client) sendMarkdownV2(text string) error {
	msg := tgbotapi.NewMessage(c.chatID, text)
	msg.ParseMode = "MarkdownV2"

	var lastErr error
	for i := range c.maxRetries {
		if _, err := c.bot.Send(msg); err == nil {
			return nil
		} else {
			lastErr = err
		}
		time.Sleep(c.retryDelayBase * time.Duration(i+1))
	}
	return fmt.Errorf("failed after %d retries: %w", c.maxRetries, lastErr)
}

// SendError sends a monitoring error notification.
// Call this only on the first occurrence of a consecutive error sequence.
func (c *Client) SendError(cycleErr error) error {
	text := fmt.Sprintf("⚠️ *Polling error*\n`%s`", escapeMarkdownV2(cycleErr.Error()))
	return c.sendMarkdownV2(text)
}

// SendRecovery sends a recovery notification after consecutive failures.
func (c *Client) SendRecovery(failureCount int) error {
	text := fmt.Sprintf("✅ *Polling recovered* after %d consecutive failure\\(s\\)", failureCount)
	return c.sendMarkdownV2(text)
}

// Send sends a notification with the detected alert groups.
func (c *Client) Send(groups []models.AlertGroup) error {
	return c.sendMarkdownV2(formatMessage(groups))
}

// formatMessage formats alert groups into a Telegram MarkdownV2 message.
func formatMessage(groups []models.AlertGroup) string {
	var b strings.Builder
	b.WriteString("🚨 *Signal Alerts*\n\n")

	if len(groups) > 0 && len(groups[0].Alerts) > 0 {
		dateStr := escapeMarkdownV2(groups[0].Alerts[0].DetectedAt.Format("2006-01-02 15:04:05"))
		fmt.Fprintf(&b, "📅 Detected: %s\n\n", dateStr)
	}

	for i, group := range groups {
		fmt.Fprintf(&b, "%d\\. *%s*\n", i+1, escapeMarkdownV2(group.Symbol))
		for _, alert := range group.Alerts {
			valueStr := escapeMarkdownV2(fmt.Sprintf("%.2f", alert.Value))
			fmt.Fprintf(&b, "   %s %s%s: *%s* \\(%s\\)\n",
				signalEmoji(alert.Signal), streamLabel(alert), escapeMarkdownV2(alert.Kind), escapeMarkdownV2(string(alert.Signal)), valueStr)
			if alert.Detail != "" {
				fmt.Fprintf(&b, "      %s\n", escapeMarkdownV2(alert.Detail))
			}
		}
		b.WriteString("\n")
	}
	return b.String()
}

// streamLabel names the market and interval an alert came from, if known.
func streamLabel(alert models.Alert) string {
	label := strings.TrimSpace(alert.Market + " " + alert.Interval)
	if label == "" {
		return ""
	}
	return escapeMarkdownV2(label) + " "
}

// formatRates formats a currency report as a MarkdownV2 table.
func formatRates(report *models.CurrencyReport) string {
	var b strings.Builder
	fmt.Fprintf(&b, "💱 *Rates in %s*\n", escapeMarkdownV2(report.Quote))
	for _, q := range report.Quotes {
		fmt.Fprintf(&b, "%s %s %s \\(%s\\)\n",
			q.Arrow,
			escapeMarkdownV2(q.Code),
			escapeMarkdownV2(fmt.Sprintf("%.4f", q.Value)),
			escapeMarkdownV2(fmt.Sprintf("%+.2f%%", q.Stats.PercentChange)))
	}
	fmt.Fprintf(&b, "🕒 %s", escapeMarkdownV2(report.FetchedAt.Format("2006-01-02 15:04:05")))
	return b.String()
}

func signalEmoji(s analytics.Signal) string {
	switch s {
	case analytics.TrendUp, analytics.CrossAbove, analytics.AboveBand, analytics.Overbought:
		return "📈"
	case analytics.TrendDown, analytics.CrossBelow, analytics.BelowBand, analytics.Oversold:
		return "📉"
	case analytics.VolumeSpike:
		return "🔊"
	default:
		return "ℹ️"
	}
}

// escapeMarkdownV2 escapes special characters for Telegram MarkdownV2.
func escapeMarkdownV2(text string) string {
	var b strings.Builder
	b.Grow(len(text) + len(text)/4) // pre-allocate with room for escapes
	for _, char := range text {
		switch char {
		case '_', '*', '[', ']', '(', ')', '~', '`', '>', '#', '+', '-', '=', '|', '{', '}', '.', '!':
			b.WriteByte('\\')
		}
		b.WriteRune(char)
	}
	return b.String()
}
