package notify

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog/log"

	"github.com/vortex-trading/vortex/internal/bus"
	"github.com/vortex-trading/vortex/internal/trading"
)

// TelegramNotifier forwards trade and high-priority activity events to a
// Telegram chat. Optional; delivery failures are logged and dropped.
type TelegramNotifier struct {
	api    *tgbotapi.BotAPI
	chatID int64
}

// NewTelegram creates a notifier for the given bot token and chat.
func NewTelegram(token string, chatID int64) (*TelegramNotifier, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("create telegram bot: %w", err)
	}
	log.Info().Str("bot", api.Self.UserName).Msg("telegram notifier connected")
	return &TelegramNotifier{api: api, chatID: chatID}, nil
}

// Run consumes the event stream and sends messages until ctx is
// cancelled or the stream closes.
func (t *TelegramNotifier) Run(ctx context.Context, events <-chan bus.Event) {
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-events:
			if !ok {
				return
			}
			if msg := format(event); msg != "" {
				t.send(msg)
			}
		}
	}
}

func (t *TelegramNotifier) send(text string) {
	msg := tgbotapi.NewMessage(t.chatID, text)
	if _, err := t.api.Send(msg); err != nil {
		log.Warn().Err(err).Msg("telegram notify failed")
	}
}

// format renders the events worth pushing; everything else is skipped.
func format(event bus.Event) string {
	switch event.Topic {
	case bus.TopicTrades:
		trade, ok := event.Payload.(trading.Trade)
		if !ok {
			return ""
		}
		verb := "BUY"
		if trade.Type == trading.TradeSell {
			verb = "SELL"
		}
		line := fmt.Sprintf("%s %s @ $%s (%s)", verb, trade.Symbol, trade.Price.String(), trade.Reason)
		if trade.Type == trading.TradeSell {
			line += fmt.Sprintf(" pnl $%s", trade.PnL.StringFixed(2))
		}
		return line
	case bus.TopicActivity:
		act, ok := event.Payload.(bus.Activity)
		if !ok || (act.Priority != "high" && act.Priority != "critical") {
			return ""
		}
		return fmt.Sprintf("[%s] %s: %s", act.Priority, act.Title, act.Message)
	default:
		return ""
	}
}
