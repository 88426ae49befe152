// Package telegram adapts the Telegram Bot API to the bridge's
// transport capability set: authenticated send-to-identity, command
// handling, inline-choice callbacks, and free-text delivery.
package telegram

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/todak-labs/todak/pkg/companion/errs"
	"github.com/todak-labs/todak/pkg/companion/session"
)

const (
	updateTimeoutSeconds = 30

	replyUnauthorized   = "이 명령어는 부모님만 사용할 수 있습니다."
	replyGreeting       = "안녕하세요! 토닥과 아이의 대화를 도와드리는 봇입니다."
	replyMessageQueued  = "메시지를 아이에게 전달했습니다."
	replyReminderClear  = "✅ 리마인더가 삭제되었습니다."
	replyGenerating     = "📊 성장 리포트를 생성하는 중입니다..."
	replyReportFailed   = "리포트 생성 중 오류가 발생했습니다. 다시 시도해주세요."
	replyCustomTimeAsk  = "직접 시간을 입력해주세요 (분 단위):\n예: 20 (20분으로 설정)\n범위: 5분 ~ 120분"
	replyNotANumber     = "올바른 숫자를 입력해주세요.\n예: 20 (20분으로 설정)\n다시 입력해주세요:"
	replyOutOfRange     = "시간은 5분에서 120분 사이로 설정해주세요.\n다시 입력해주세요:"
	callbackTimePrefix  = "time_"
	callbackTimeCustom  = "time_custom"
)

// Inbound is where authorized parent free-text messages go.
type Inbound interface {
	ReceiveFromParent(text string)
}

// Reporter serves the on-demand /report path.
type Reporter interface {
	Generate(ctx context.Context, turns []session.Turn) (string, error)
}

// Adapter owns the bot connection and the update loop.
type Adapter struct {
	bot          *tgbotapi.BotAPI
	parentChatID int64

	state   *session.State
	inbound Inbound
	reports Reporter
	logger  *slog.Logger

	mu                sync.Mutex
	waitingCustomTime bool
}

// New connects to the Bot API. parentChatID is the one authorized
// supervising identity; every privileged operation checks against it.
func New(token string, parentChatID int64, state *session.State, inbound Inbound, reports Reporter, logger *slog.Logger) (*Adapter, error) {
	if logger == nil {
		logger = slog.Default()
	}
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, errs.NewTransportError("connect", err)
	}
	return &Adapter{
		bot:          bot,
		parentChatID: parentChatID,
		state:        state,
		inbound:      inbound,
		reports:      reports,
		logger:       logger,
	}, nil
}

// SendToParent delivers text to the supervising identity. Failures are
// TransportErrors; the bridge retries them.
func (a *Adapter) SendToParent(_ context.Context, text string) error {
	if _, err := a.bot.Send(tgbotapi.NewMessage(a.parentChatID, text)); err != nil {
		return errs.NewTransportError("send", err)
	}
	return nil
}

// Run processes updates until ctx is cancelled.
func (a *Adapter) Run(ctx context.Context) {
	cfg := tgbotapi.NewUpdate(0)
	cfg.Timeout = updateTimeoutSeconds
	updates := a.bot.GetUpdatesChan(cfg)

	for {
		select {
		case <-ctx.Done():
			a.bot.StopReceivingUpdates()
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			a.handleUpdate(ctx, update)
		}
	}
}

func (a *Adapter) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	switch {
	case update.CallbackQuery != nil:
		a.handleCallback(update.CallbackQuery)
	case update.Message == nil:
	case update.Message.IsCommand():
		a.handleCommand(ctx, update.Message)
	default:
		a.handleFreeText(update.Message)
	}
}

func (a *Adapter) authorized(chatID int64) bool {
	return chatID == a.parentChatID
}

func (a *Adapter) reply(chatID int64, text string) {
	if _, err := a.bot.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
		a.logger.Warn("telegram reply failed", "error", err)
	}
}

func (a *Adapter) handleCommand(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	command := msg.Command()

	if command == "start" {
		a.reply(chatID, replyGreeting)
		return
	}
	// Command-style requests from any sender get a rejection reply.
	if !a.authorized(chatID) {
		a.logger.Warn("unauthorized command", "command", command, "chat_id", chatID)
		a.reply(chatID, replyUnauthorized)
		return
	}

	switch command {
	case "time":
		a.handleTimeCommand(chatID)
	case "report":
		a.handleReportCommand(ctx, chatID)
	case "reminder":
		a.handleReminderCommand(chatID, strings.TrimSpace(msg.CommandArguments()))
	default:
		a.logger.Info("unknown command ignored", "command", command)
	}
}

func (a *Adapter) handleTimeCommand(chatID int64) {
	snap := a.state.Snapshot()
	text := fmt.Sprintf(
		"📱 일일 사용시간 설정\n\n현재 설정: %d분\n오늘 사용: %d분\n남은 시간: %d분\n\n새로운 시간을 선택해주세요:",
		snap.CapMinutes, snap.UsedMinutes, snap.RemainingMinutes)

	reply := tgbotapi.NewMessage(chatID, text)
	reply.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("15분", "time_15")),
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("30분", "time_30")),
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("45분", "time_45")),
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("직접입력", callbackTimeCustom)),
	)
	if _, err := a.bot.Send(reply); err != nil {
		a.logger.Warn("time keyboard send failed", "error", err)
	}
}

func (a *Adapter) handleCallback(query *tgbotapi.CallbackQuery) {
	if _, err := a.bot.Request(tgbotapi.NewCallback(query.ID, "")); err != nil {
		a.logger.Warn("callback ack failed", "error", err)
	}
	if query.Message == nil || !strings.HasPrefix(query.Data, callbackTimePrefix) {
		return
	}
	chatID := query.Message.Chat.ID
	if query.From == nil || !a.authorized(query.From.ID) {
		a.edit(chatID, query.Message.MessageID, replyUnauthorized)
		return
	}

	if query.Data == callbackTimeCustom {
		a.mu.Lock()
		a.waitingCustomTime = true
		a.mu.Unlock()
		a.edit(chatID, query.Message.MessageID, replyCustomTimeAsk)
		return
	}

	minutes, err := strconv.Atoi(strings.TrimPrefix(query.Data, callbackTimePrefix))
	if err != nil {
		a.logger.Warn("malformed time callback", "data", query.Data)
		return
	}
	if err := a.state.SetDailyCap(minutes); err != nil {
		a.edit(chatID, query.Message.MessageID, replyOutOfRange)
		return
	}
	a.edit(chatID, query.Message.MessageID, capConfirmation(minutes))
	a.logger.Info("daily cap changed", "minutes", minutes)
}

func (a *Adapter) edit(chatID int64, messageID int, text string) {
	if _, err := a.bot.Send(tgbotapi.NewEditMessageText(chatID, messageID, text)); err != nil {
		a.logger.Warn("message edit failed", "error", err)
	}
}

func capConfirmation(minutes int) string {
	return fmt.Sprintf("✅ 일일 사용시간이 %d분으로 설정되었습니다!\n\n오늘 사용 가능한 시간: %d분", minutes, minutes)
}

func (a *Adapter) handleReportCommand(ctx context.Context, chatID int64) {
	snap := a.state.Snapshot()
	if snap.Conversations < session.AutoReportThreshold {
		a.reply(chatID, fmt.Sprintf(
			"📊 **성장 리포트**\n\n오늘 대화 횟수: %d회\n리포트 생성까지: %d회 더 대화가 필요합니다.\n\n아이가 토닥과 %d번 이상 대화하면 자동으로 성장 리포트가 생성됩니다.",
			snap.Conversations, session.AutoReportThreshold-snap.Conversations, session.AutoReportThreshold))
		return
	}

	a.reply(chatID, replyGenerating)
	// On-demand generation is independent of the once-per-day automatic
	// report flag.
	report, err := a.reports.Generate(ctx, a.state.Turns())
	if err != nil {
		a.logger.Warn("on-demand report failed", "error", err)
		a.reply(chatID, replyReportFailed)
		return
	}
	a.reply(chatID, "📊 **성장 리포트**\n\n"+report)
}

func (a *Adapter) handleReminderCommand(chatID int64, args string) {
	switch {
	case args == "":
		snap := a.state.Snapshot()
		if snap.PendingReminder != "" {
			a.reply(chatID, fmt.Sprintf(
				"📝 **현재 리마인더**\n\n%s\n\n리마인더를 변경하려면: /reminder [할 일]\n리마인더를 삭제하려면: /reminder clear",
				snap.PendingReminder))
		} else {
			a.reply(chatID, "📝 **리마인더 설정**\n\n현재 설정된 리마인더가 없습니다.\n\n리마인더를 설정하려면: /reminder [할 일]\n예: /reminder 숙제하기")
		}
	case strings.EqualFold(args, "clear"):
		a.state.ClearReminder()
		a.reply(chatID, replyReminderClear)
	default:
		a.state.SetReminder(args)
		a.reply(chatID, fmt.Sprintf(
			"✅ 리마인더가 설정되었습니다!\n\n📝 **설정된 리마인더**\n%s\n\n아이가 토닥과 대화할 때 자동으로 전달됩니다.", args))
		a.logger.Info("reminder set")
	}
}

// handleFreeText routes non-command text. Only the authorized parent's
// messages reach the inbound bridge; everyone else's free text is
// ignored.
func (a *Adapter) handleFreeText(msg *tgbotapi.Message) {
	if !a.authorized(msg.Chat.ID) {
		return
	}

	a.mu.Lock()
	waiting := a.waitingCustomTime
	a.mu.Unlock()

	if waiting {
		a.handleCustomTime(msg.Chat.ID, strings.TrimSpace(msg.Text))
		return
	}

	a.logger.Info("parent message received")
	a.inbound.ReceiveFromParent(msg.Text)
	// A failed ack is not a failed delivery; the message is already
	// queued for speech.
	a.reply(msg.Chat.ID, replyMessageQueued)
}

func (a *Adapter) handleCustomTime(chatID int64, text string) {
	minutes, err := strconv.Atoi(text)
	if err != nil {
		a.reply(chatID, replyNotANumber)
		return
	}
	if err := a.state.SetDailyCap(minutes); err != nil {
		a.reply(chatID, replyOutOfRange)
		return
	}
	a.mu.Lock()
	a.waitingCustomTime = false
	a.mu.Unlock()
	a.reply(chatID, capConfirmation(minutes))
	a.logger.Info("daily cap changed", "minutes", minutes)
}
