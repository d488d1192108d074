package core

import (
	"context"
	"fmt"
	"strings"
	"time"

	"perola.app/academy/internal/logger"
	"perola.app/academy/internal/metrics"
	"perola.app/academy/internal/store"
)

const DefaultHistoryLimit = 100

type ChatStore interface {
	CreateMessage(ctx context.Context, msg *store.ChatMessage) error
	ListMessagesByUser(ctx context.Context, userID int64, limit int) ([]store.ChatMessage, error)
	DeleteMessagesByUser(ctx context.Context, userID int64) (int64, error)
}

type ChatConfig struct {
	DelayMin       time.Duration
	DelayMax       time.Duration
	PersistTimeout time.Duration
	Rand           RandSource // draws the typing delay; defaults to NewRandSource()
	Sleep          Sleeper    // defaults to SleepContext
}

// Exchange is one user message and the assistant's answer to it.
type Exchange struct {
	UserMessage    store.ChatMessage `json:"user_message"`
	Reply          store.ChatMessage `json:"reply"`
	Rule           string            `json:"rule"`
	Delay          time.Duration     `json:"-"`
	ReplyPersisted bool              `json:"reply_persisted"`
}

type ChatService struct {
	dbStore ChatStore
	matcher *Matcher
	cfg     ChatConfig
	log     *logger.Logger
	metrics *metrics.Metrics
}

func NewChatService(db ChatStore, matcher *Matcher, cfg ChatConfig, log *logger.Logger, m *metrics.Metrics) *ChatService {
	if cfg.Rand == nil {
		cfg.Rand = NewRandSource()
	}
	if cfg.Sleep == nil {
		cfg.Sleep = SleepContext
	}
	if cfg.DelayMax < cfg.DelayMin {
		cfg.DelayMax = cfg.DelayMin
	}
	return &ChatService{
		dbStore: db,
		matcher: matcher,
		cfg:     cfg,
		log:     log.With("component", "chat"),
		metrics: m,
	}
}

// SendMessage stores the user's message, waits the typing delay, then stores
// and returns the assistant reply. If ctx ends during the delay the user
// message stays stored and no reply is written.
func (s *ChatService) SendMessage(ctx context.Context, userID int64, text string) (*Exchange, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyMessage
	}

	userMsg := store.ChatMessage{UserID: userID, Text: text, IsFromUser: true}
	if err := s.persist(ctx, "create_message", func(ctx context.Context) error {
		return s.dbStore.CreateMessage(ctx, &userMsg)
	}); err != nil {
		return nil, fmt.Errorf("failed to store user message: %w", err)
	}

	delay := s.typingDelay()
	if err := s.cfg.Sleep(ctx, delay); err != nil {
		s.metrics.ChatCancelledTotal.Inc()
		s.log.Debug("reply abandoned during typing delay", "user_id", userID, "error", err)
		return nil, err
	}

	match := s.matcher.Match(text)
	s.metrics.ChatRepliesTotal.WithLabelValues(match.Rule).Inc()

	exchange := &Exchange{
		UserMessage: userMsg,
		Reply:       store.ChatMessage{UserID: userID, Text: match.Reply, IsFromUser: false},
		Rule:        match.Rule,
		Delay:       delay,
	}
	if err := s.persist(ctx, "create_message", func(ctx context.Context) error {
		return s.dbStore.CreateMessage(ctx, &exchange.Reply)
	}); err != nil {
		s.log.Warn("failed to store assistant reply", "user_id", userID, "error", err)
		exchange.Reply.CreatedAt = time.Now().UTC()
		return exchange, nil
	}
	exchange.ReplyPersisted = true
	return exchange, nil
}

func (s *ChatService) History(ctx context.Context, userID int64, limit int) ([]store.ChatMessage, error) {
	if limit <= 0 || limit > DefaultHistoryLimit {
		limit = DefaultHistoryLimit
	}
	var messages []store.ChatMessage
	err := s.persist(ctx, "list_messages", func(ctx context.Context) error {
		var err error
		messages, err = s.dbStore.ListMessagesByUser(ctx, userID, limit)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	return messages, nil
}

func (s *ChatService) ClearHistory(ctx context.Context, userID int64) (int64, error) {
	var deleted int64
	err := s.persist(ctx, "delete_messages", func(ctx context.Context) error {
		var err error
		deleted, err = s.dbStore.DeleteMessagesByUser(ctx, userID)
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("failed to clear history: %w", err)
	}
	s.log.Info("chat history cleared", "user_id", userID, "deleted", deleted)
	return deleted, nil
}

func (s *ChatService) typingDelay() time.Duration {
	span := (s.cfg.DelayMax - s.cfg.DelayMin) / time.Millisecond
	if span <= 0 {
		return s.cfg.DelayMin
	}
	return s.cfg.DelayMin + time.Duration(s.cfg.Rand.IntN(int(span)+1))*time.Millisecond
}

func (s *ChatService) persist(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	return withTimeout(ctx, s.cfg.PersistTimeout, s.metrics, op, fn)
}

// withTimeout runs fn under its own deadline so a hung storage call cannot
// block the caller indefinitely.
func withTimeout(ctx context.Context, timeout time.Duration, m *metrics.Metrics, op string, fn func(ctx context.Context) error) error {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	start := time.Now()
	err := fn(ctx)
	m.PersistDurationSeconds.WithLabelValues(op).Observe(time.Since(start).Seconds())
	return err
}
