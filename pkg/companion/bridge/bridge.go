// Package bridge connects the child's session to the supervising adult
// through two independent FIFO channels with bounded-retry delivery.
package bridge

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/sethvargo/go-retry"

	"github.com/todak-labs/todak/pkg/companion/providers"
)

const (
	// deliveryAttempts bounds outbound delivery: after the last failed
	// attempt the message is dropped. No dead-letter persistence.
	deliveryAttempts = 3
	retryDelay       = 2 * time.Second

	// inboundPollInterval is how often the speaker checks for a parent
	// message, independent of the main turn cycle.
	inboundPollInterval = 500 * time.Millisecond

	queueDepth = 64
)

// inboundAttribution prefixes a parent message when spoken to the child.
const inboundAttribution = "엄마가 말했어. %s"

// Message is one payload crossing the bridge in either direction.
type Message struct {
	ID       ulid.ULID
	Text     string
	Attempts int
}

// NewMessage builds a Message with a fresh ID.
func NewMessage(text string) Message {
	return Message{ID: ulid.MustNew(ulid.Timestamp(time.Now()), ulid.DefaultEntropy()), Text: text}
}

// Transport is the capability set the bridge needs from the remote
// messaging platform. The wire protocol behind it is not this package's
// concern.
type Transport interface {
	// SendToParent delivers text to the configured supervising identity.
	SendToParent(ctx context.Context, text string) error
}

// Player is the exclusive playback resource shared with the session loop.
type Player interface {
	Play(ctx context.Context, audio []byte) error
}

// Bridge holds the outbound (child -> parent) and inbound (parent ->
// child) queues and the goroutines that drain them.
type Bridge struct {
	outbound chan Message
	inbound  chan Message

	transport Transport
	logger    *slog.Logger

	// backoff and pollInterval are swapped in tests to avoid real
	// multi-second sleeps.
	backoff      func() retry.Backoff
	pollInterval time.Duration
}

// New creates a Bridge over the given transport.
func New(transport Transport, logger *slog.Logger) *Bridge {
	if logger == nil {
		logger = slog.Default()
	}
	return &Bridge{
		outbound:  make(chan Message, queueDepth),
		inbound:   make(chan Message, queueDepth),
		transport: transport,
		logger:    logger,
		backoff: func() retry.Backoff {
			return retry.WithMaxRetries(deliveryAttempts-1, retry.NewConstant(retryDelay))
		},
		pollInterval: inboundPollInterval,
	}
}

// SendToParent queues text for delivery to the supervising adult.
// It never blocks the caller: when the queue is full the message is
// dropped with a log entry, matching the no-dead-letter policy.
func (b *Bridge) SendToParent(text string) {
	msg := NewMessage(text)
	select {
	case b.outbound <- msg:
	default:
		b.logger.Warn("outbound queue full, dropping message", "id", msg.ID.String())
	}
}

// ReceiveFromParent queues an inbound parent message for speech
// delivery.
func (b *Bridge) ReceiveFromParent(text string) {
	msg := NewMessage(text)
	select {
	case b.inbound <- msg:
	default:
		b.logger.Warn("inbound queue full, dropping message", "id", msg.ID.String())
	}
}

// RunDelivery drains the outbound queue until ctx is cancelled. Each
// message gets deliveryAttempts tries with a fixed delay in between;
// after the last failure it is dropped and logged.
func (b *Bridge) RunDelivery(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg := <-b.outbound:
			b.deliver(ctx, msg)
		}
	}
}

func (b *Bridge) deliver(ctx context.Context, msg Message) {
	err := retry.Do(ctx, b.backoff(), func(ctx context.Context) error {
		msg.Attempts++
		if sendErr := b.transport.SendToParent(ctx, msg.Text); sendErr != nil {
			b.logger.Warn("parent delivery failed",
				"id", msg.ID.String(),
				"attempt", msg.Attempts,
				"error", sendErr)
			return retry.RetryableError(sendErr)
		}
		return nil
	})
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		b.logger.Error("parent delivery abandoned",
			"id", msg.ID.String(),
			"attempts", msg.Attempts,
			"error", err)
		return
	}
	b.logger.Info("parent message delivered", "id", msg.ID.String(), "attempts", msg.Attempts)
}

// RunInboundSpeaker polls the inbound queue on a fixed interval and
// speaks each parent message with an attribution prefix. It runs
// concurrently with the main turn cycle; the Player's mutual exclusion
// keeps the two from overlapping speech.
func (b *Bridge) RunInboundSpeaker(ctx context.Context, synth providers.Synthesizer, player Player) {
	ticker := time.NewTicker(b.pollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			select {
			case msg := <-b.inbound:
				b.speak(ctx, msg, synth, player)
			default:
			}
		}
	}
}

func (b *Bridge) speak(ctx context.Context, msg Message, synth providers.Synthesizer, player Player) {
	audio, err := synth.Speak(ctx, formatInbound(msg.Text))
	if err != nil {
		b.logger.Error("inbound message synthesis failed", "id", msg.ID.String(), "error", err)
		return
	}
	if err := player.Play(ctx, audio); err != nil {
		b.logger.Error("inbound message playback failed", "id", msg.ID.String(), "error", err)
		return
	}
	b.logger.Info("parent message spoken", "id", msg.ID.String())
}

func formatInbound(text string) string {
	return fmt.Sprintf(inboundAttribution, text)
}
