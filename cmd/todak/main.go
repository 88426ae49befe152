// Command todak runs the voice companion: a turn-based dialogue loop
// for a child, bridged to a supervising adult over Telegram, under a
// daily usage budget.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/todak-labs/todak/internal/archive"
	"github.com/todak-labs/todak/internal/config"
	"github.com/todak-labs/todak/internal/dotenv"
	"github.com/todak-labs/todak/pkg/companion/audio"
	"github.com/todak-labs/todak/pkg/companion/bridge"
	"github.com/todak-labs/todak/pkg/companion/bridge/telegram"
	"github.com/todak-labs/todak/pkg/companion/providers"
	"github.com/todak-labs/todak/pkg/companion/providers/gemini"
	"github.com/todak-labs/todak/pkg/companion/providers/openai"
	"github.com/todak-labs/todak/pkg/companion/session"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "todak:", err)
		os.Exit(1)
	}
}

func run() error {
	if err := dotenv.Load(".env"); err != nil {
		return err
	}
	cfg, err := config.FromEnv(nil)
	if err != nil {
		return err
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	slog.SetDefault(logger)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	player, err := audio.NewFFplayPlayer()
	if err != nil {
		return err
	}

	oai := openai.New(cfg.OpenAIAPIKey, openai.WithDialogueModel(nonEmpty(cfg.DialogueModel, openai.DefaultDialogueModel)))

	var dialogue providers.Dialogue = oai
	if cfg.Dialogue == config.DialogueGemini {
		dialogue, err = gemini.New(ctx, cfg.GeminiAPIKey, cfg.DialogueModel)
		if err != nil {
			return err
		}
	}

	state := session.NewState(cfg.DailyCapMinutes, nil)
	reports := session.NewReportBuilder(dialogue, nil)

	var wg sync.WaitGroup

	var br *bridge.Bridge
	var adapter *telegram.Adapter
	if cfg.BridgeEnabled() {
		// The bridge needs the transport and the transport needs the
		// inbound queue; wire the adapter first against the state, then
		// the bridge over it.
		pending := &inboundRelay{}
		adapter, err = telegram.New(cfg.TelegramBotToken, cfg.ParentChatID, state, pending, reports, logger)
		if err != nil {
			return err
		}
		br = bridge.New(adapter, logger)
		pending.target = br
	} else {
		logger.Warn("TELEGRAM_BOT_TOKEN not set, parent bridge disabled")
		br = bridge.New(&localTransport{logger: logger}, logger)
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		br.RunDelivery(ctx)
	}()
	wg.Add(1)
	go func() {
		defer wg.Done()
		br.RunInboundSpeaker(ctx, oai, player)
	}()
	if adapter != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			adapter.Run(ctx)
		}()
	}

	toggle := audio.NewToggle()
	var recorder audio.Recorder
	if cfg.TimedRecording {
		recorder = audio.NewTimedRecorder(toggle, cfg.RecordWindow, logger)
		logger.Info("recording mode: fixed window", "window", cfg.RecordWindow)
	} else {
		recorder = audio.NewToggleRecorder(toggle, logger)
		source := audio.NewKeySource(os.Stdin, logger)
		wg.Add(1)
		go func() {
			defer wg.Done()
			source.Run(ctx, toggle)
		}()
		logger.Info("recording mode: toggle", "key", audio.ToggleKey)
	}

	loopCfg := session.Config{
		State:       state,
		Recorder:    recorder,
		Transcriber: oai,
		Dialogue:    dialogue,
		Synthesizer: oai,
		Player:      player,
		Parent:      br,
		Reports:     reports,
		Logger:      logger,
	}
	if cfg.ArchivePath != "" {
		store, err := archive.Open(cfg.ArchivePath)
		if err != nil {
			return err
		}
		defer store.Close()
		loopCfg.Archive = store
	}

	logger.Info("todak session starting",
		"daily_cap_minutes", cfg.DailyCapMinutes,
		"dialogue_provider", string(cfg.Dialogue),
		"bridge_enabled", cfg.BridgeEnabled())

	err = session.NewLoop(loopCfg).Run(ctx)

	// Best-effort scoped teardown: cancel the poller, the delivery
	// routine, the transport, and the toggle source together.
	cancel()
	wg.Wait()

	if err != nil && ctx.Err() == nil {
		return err
	}
	logger.Info("todak session ended")
	return nil
}

// localTransport stands in when no remote bridge is configured:
// outbound messages are logged and acknowledged locally.
type localTransport struct {
	logger *slog.Logger
}

func (t *localTransport) SendToParent(_ context.Context, text string) error {
	t.logger.Info("parent bridge disabled, message not delivered", "text", text)
	return nil
}

// inboundRelay breaks the construction cycle between the adapter and
// the bridge.
type inboundRelay struct {
	target interface{ ReceiveFromParent(text string) }
}

func (r *inboundRelay) ReceiveFromParent(text string) {
	if r.target != nil {
		r.target.ReceiveFromParent(text)
	}
}

func nonEmpty(v, fallback string) string {
	if v != "" {
		return v
	}
	return fallback
}
