package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

type Severity string

const (
	SeverityInfo    Severity = "info"
	SeveritySuccess Severity = "success"
	SeverityError   Severity = "error"
)

// Notification is an ephemeral user-facing message. Duration is how long the
// kiosk screen should display it.
type Notification struct {
	Title    string        `json:"title"`
	Body     string        `json:"body"`
	Severity Severity      `json:"severity"`
	Duration time.Duration `json:"duration"`
}

// Notifier is fire-and-forget: implementations never return errors to the
// caller, delivery failures are logged and dropped.
type Notifier interface {
	Notify(ctx context.Context, n Notification)
}

// LogNotifier writes notifications to the service log.
type LogNotifier struct {
	log *zap.SugaredLogger
}

func NewLogNotifier(log *zap.SugaredLogger) *LogNotifier {
	return &LogNotifier{log: log}
}

func (l *LogNotifier) Notify(_ context.Context, n Notification) {
	l.log.Infow("notification",
		"title", n.Title,
		"body", n.Body,
		"severity", string(n.Severity),
	)
}

// TelegramNotifier forwards notifications to the staff chat so the counter
// knows about paid orders and cash to collect.
type TelegramNotifier struct {
	api    *tgbotapi.BotAPI
	chatID int64
	log    *zap.SugaredLogger
}

func NewTelegramNotifier(token string, chatID int64, log *zap.SugaredLogger) (*TelegramNotifier, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("telegram notifier: %w", err)
	}
	return &TelegramNotifier{api: api, chatID: chatID, log: log}, nil
}

func (t *TelegramNotifier) Notify(_ context.Context, n Notification) {
	text := n.Title
	if n.Body != "" {
		text += "\n" + n.Body
	}
	if _, err := t.api.Send(tgbotapi.NewMessage(t.chatID, text)); err != nil {
		t.log.Errorw("telegram notify failed", "title", n.Title, "error", err)
	}
}

// MemoryNotifier records notifications for tests.
type MemoryNotifier struct {
	mu   sync.Mutex
	sent []Notification
}

func NewMemoryNotifier() *MemoryNotifier {
	return &MemoryNotifier{}
}

func (m *MemoryNotifier) Notify(_ context.Context, n Notification) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, n)
}

func (m *MemoryNotifier) Sent() []Notification {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Notification, len(m.sent))
	copy(out, m.sent)
	return out
}

func (m *MemoryNotifier) Titles() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	titles := make([]string, len(m.sent))
	for i, n := range m.sent {
		titles[i] = n.Title
	}
	return titles
}

// MultiNotifier fans a notification out to several sinks.
type MultiNotifier []Notifier

func (m MultiNotifier) Notify(ctx context.Context, n Notification) {
	for _, sink := range m {
		sink.Notify(ctx, n)
	}
}
