package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/labstack/gommon/log"
	"github.com/EzRa021/Muhu-voice-app/internal/boot"
	"github.com/EzRa021/Muhu-voice-app/internal/model"
	"github.com/EzRa021/Muhu-voice-app/internal/relay"
	"github.com/EzRa021/Muhu-voice-app/internal/remote"
)

type Outbox interface {
	Enqueue(message *model.Message) error
	ListAll() ([]*model.Message, error)
	Remove(id string) error
}

type Relay interface {
	State() relay.State
	Send(frame relay.Frame) error
	OnFrame(handler func(relay.Response))
	Subscribe() (<-chan relay.Transition, func())
}

// Languages resolves the target-language tag for a chat peer.
type Languages interface {
	LanguageFor(ctx context.Context, userID string) (string, error)
}

// Recorder receives every status transition of a message so the UI layer can
// show it immediately, independent of network outcome.
type Recorder interface {
	Record(message *model.Message)
}

// Pipeline is the single entry point for message delivery. Every Send ends
// in a terminal state: delivered/sent on success, failed/offline (and an
// outbox entry) otherwise. Failures never propagate to the caller except
// local storage failures, which are surfaced for diagnostics.
type Pipeline struct {
	outbox    Outbox
	relay     Relay
	store     remote.Store
	languages Languages
	recorder  Recorder
	clock     clock.Clock
	timeout   time.Duration

	mu      sync.Mutex
	pending map[string]chan relay.Response
}

func New(ob Outbox, rl Relay, store remote.Store, languages Languages, recorder Recorder, config *boot.Config, clk clock.Clock) *Pipeline {
	p := &Pipeline{
		outbox:    ob,
		relay:     rl,
		store:     store,
		languages: languages,
		recorder:  recorder,
		clock:     clk,
		timeout:   config.Relay.ResponseTimeout,
		pending:   map[string]chan relay.Response{},
	}
	rl.OnFrame(p.dispatch)
	return p
}

// dispatch correlates an inbound relay frame to its in-flight send by id.
func (p *Pipeline) dispatch(resp relay.Response) {
	p.mu.Lock()
	ch, ok := p.pending[resp.ID]
	if ok {
		delete(p.pending, resp.ID)
	}
	p.mu.Unlock()

	if !ok {
		log.Warnf("unmatched relay response: %s", resp.ID)
		return
	}
	ch <- resp
}

// Send attempts delivery of a composed message and blocks until the message
// reaches a terminal or retry-eligible status.
func (p *Pipeline) Send(ctx context.Context, message *model.Message) error {
	message.Status = model.MessageStatusSending
	p.recorder.Record(message)

	if p.relay.State() != relay.StateConnected {
		return p.park(message, model.MessageStatusOffline)
	}

	targetLang, err := p.languages.LanguageFor(ctx, message.ChatID)
	if err != nil {
		log.Warnf("resolving target language for %s: %v", message.ChatID, err)
		return p.park(message, model.MessageStatusFailed)
	}

	frame := relay.Frame{
		ID:         message.ID,
		Message:    message.Content(),
		Lang:       targetLang,
		SenderLang: message.Language,
		Key:        frameKey(message, targetLang),
	}

	ch := make(chan relay.Response, 1)
	p.mu.Lock()
	p.pending[message.ID] = ch
	p.mu.Unlock()

	if err := p.relay.Send(frame); err != nil {
		p.unregister(message.ID)
		log.Warnf("relay send %s: %v", message.ID, err)
		return p.park(message, model.MessageStatusFailed)
	}

	timer := p.clock.Timer(p.timeout)
	defer timer.Stop()

	select {
	case resp := <-ch:
		return p.finalize(ctx, message, resp, frame.Key)
	case <-timer.C:
		p.unregister(message.ID)
		log.Warnf("relay response timeout for %s", message.ID)
		return p.park(message, model.MessageStatusFailed)
	case <-ctx.Done():
		p.unregister(message.ID)
		return p.park(message, model.MessageStatusFailed)
	}
}

func (p *Pipeline) unregister(id string) {
	p.mu.Lock()
	delete(p.pending, id)
	p.mu.Unlock()
}

// park records a retry-eligible status and queues the message durably. Only
// storage failures are returned to the caller.
func (p *Pipeline) park(message *model.Message, status model.MessageStatus) error {
	message.Status = status
	p.recorder.Record(message)

	if err := p.outbox.Enqueue(message); err != nil {
		log.Warnf("outbox enqueue %s: %v", message.ID, err)
		return err
	}
	return nil
}

// finalize persists a correlated response: sender copy, translated recipient
// copy, conversation summary, then outbox removal. A remote write failure
// re-queues the message rather than losing it.
func (p *Pipeline) finalize(ctx context.Context, message *model.Message, resp relay.Response, key string) error {
	if key == relay.KeyNone {
		message.Status = model.MessageStatusSent
	} else {
		message.Status = model.MessageStatusDelivered
	}
	p.recorder.Record(message)

	if err := p.persist(ctx, message, resp.Message); err != nil {
		log.Errorf("persisting message %s: %v", message.ID, err)
		return p.park(message, model.MessageStatusFailed)
	}

	if err := p.outbox.Remove(message.ID); err != nil {
		log.Warnf("outbox remove %s: %v", message.ID, err)
	}
	return nil
}

func (p *Pipeline) persist(ctx context.Context, message *model.Message, translated string) error {
	// sender keeps the original text; the recipient copy carries the
	// translation. Both writes are upserts keyed by message id.
	senderPath := fmt.Sprintf("messages/%s/%s/%s", message.Sender, message.ChatID, message.ID)
	if err := p.store.Set(ctx, senderPath, message); err != nil {
		return fmt.Errorf("%w: %v", model.ErrorRemoteWrite, err)
	}

	recipientCopy := *message
	recipientCopy.Text = translated
	recipientPath := fmt.Sprintf("messages/%s/%s/%s", message.ChatID, message.Sender, message.ID)
	if err := p.store.Set(ctx, recipientPath, &recipientCopy); err != nil {
		return fmt.Errorf("%w: %v", model.ErrorRemoteWrite, err)
	}

	if err := p.updateSummary(ctx, message); err != nil {
		return fmt.Errorf("%w: %v", model.ErrorRemoteWrite, err)
	}
	return nil
}

func (p *Pipeline) updateSummary(ctx context.Context, message *model.Message) error {
	summaryPath := fmt.Sprintf("chats/%s/%s", message.ChatID, message.Sender)

	summary := model.ChatSummary{}
	raw, ok, err := p.store.Get(ctx, summaryPath)
	if err != nil {
		return fmt.Errorf("reading chat summary: %w", err)
	}
	if ok {
		if err := json.Unmarshal(raw, &summary); err != nil {
			log.Warnf("decoding chat summary at %s: %v", summaryPath, err)
		}
	}

	return p.store.Update(ctx, summaryPath, map[string]any{
		"lastMessage": message.Preview(),
		"timestamp":   message.Timestamp,
		"unreadCount": summary.UnreadCount + 1,
	})
}

func frameKey(message *model.Message, targetLang string) string {
	if message.AudioRef != "" {
		return relay.KeyAudioToText
	}
	if targetLang == message.Language {
		return relay.KeyNone
	}
	return relay.KeyText
}
