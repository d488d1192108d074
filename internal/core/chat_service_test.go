package core

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"perola.app/academy/internal/logger"
	"perola.app/academy/internal/metrics"
	"perola.app/academy/internal/store"
)

type memChatStore struct {
	mu        sync.Mutex
	messages  []store.ChatMessage
	failAfter int // fail every CreateMessage once this many succeeded; 0 disables
	created   int
}

func (m *memChatStore) CreateMessage(_ context.Context, msg *store.ChatMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failAfter > 0 && m.created >= m.failAfter {
		return errors.New("storage unavailable")
	}
	m.created++
	msg.ID = fmt.Sprintf("m%d", m.created)
	msg.CreatedAt = time.Now()
	m.messages = append(m.messages, *msg)
	return nil
}

func (m *memChatStore) ListMessagesByUser(_ context.Context, userID int64, limit int) ([]store.ChatMessage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []store.ChatMessage
	for _, msg := range m.messages {
		if msg.UserID == userID {
			out = append(out, msg)
		}
	}
	if len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out, nil
}

func (m *memChatStore) DeleteMessagesByUser(_ context.Context, userID int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	kept := m.messages[:0]
	var n int64
	for _, msg := range m.messages {
		if msg.UserID == userID {
			n++
			continue
		}
		kept = append(kept, msg)
	}
	m.messages = kept
	return n, nil
}

// recordingSleeper returns immediately and remembers the requested delays.
type recordingSleeper struct {
	delays []time.Duration
}

func (r *recordingSleeper) Sleep(ctx context.Context, d time.Duration) error {
	r.delays = append(r.delays, d)
	return ctx.Err()
}

func newTestChatService(t *testing.T, db ChatStore, delayRand, replyRand RandSource, sleep Sleeper) *ChatService {
	t.Helper()
	return NewChatService(db, newDefaultMatcher(t, replyRand), ChatConfig{
		DelayMin:       time.Second,
		DelayMax:       3 * time.Second,
		PersistTimeout: time.Second,
		Rand:           delayRand,
		Sleep:          sleep,
	}, logger.Nop(), metrics.NewNop())
}

func TestSendMessageGreetingEndToEnd(t *testing.T) {
	db, err := store.NewSQLiteStore(filepath.Join(t.TempDir(), "chat.db"))
	require.NoError(t, err)
	defer db.Close()

	sleeper := &recordingSleeper{}
	svc := newTestChatService(t, db, &fixedRand{idx: 1500}, &fixedRand{idx: 2}, sleeper.Sleep)

	ex, err := svc.SendMessage(context.Background(), 7, "  Olá ")
	require.NoError(t, err)

	greeting := ruleByName(t, "greeting").Replies
	assert.Equal(t, "greeting", ex.Rule)
	assert.Equal(t, greeting[2], ex.Reply.Text)
	assert.True(t, ex.ReplyPersisted)

	require.Len(t, sleeper.delays, 1)
	assert.Equal(t, 2500*time.Millisecond, sleeper.delays[0])
	assert.Equal(t, ex.Delay, sleeper.delays[0])

	history, err := svc.History(context.Background(), 7, 0)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, "Olá", history[0].Text)
	assert.True(t, history[0].IsFromUser)
	assert.Equal(t, greeting[2], history[1].Text)
	assert.False(t, history[1].IsFromUser)
}

func TestTypingDelayBounds(t *testing.T) {
	for _, idx := range []int{0, 999, 2000, 2001, 50000} {
		sleeper := &recordingSleeper{}
		svc := newTestChatService(t, &memChatStore{}, &fixedRand{idx: idx}, &fixedRand{}, sleeper.Sleep)
		_, err := svc.SendMessage(context.Background(), 1, "oi")
		require.NoError(t, err)
		require.Len(t, sleeper.delays, 1)
		assert.GreaterOrEqual(t, sleeper.delays[0], time.Second)
		assert.LessOrEqual(t, sleeper.delays[0], 3*time.Second)
	}

	rnd := &fixedRand{}
	svc := newTestChatService(t, &memChatStore{}, rnd, &fixedRand{}, (&recordingSleeper{}).Sleep)
	_, err := svc.SendMessage(context.Background(), 1, "oi")
	require.NoError(t, err)
	assert.Equal(t, []int{2001}, rnd.asked, "delay drawn uniformly over 1000..3000 ms")
}

func TestSendMessageRejectsBlank(t *testing.T) {
	db := &memChatStore{}
	sleeper := &recordingSleeper{}
	svc := newTestChatService(t, db, &fixedRand{}, &fixedRand{}, sleeper.Sleep)

	for _, text := range []string{"", "   ", "\n\t"} {
		_, err := svc.SendMessage(context.Background(), 1, text)
		assert.ErrorIs(t, err, ErrEmptyMessage)
	}
	assert.Empty(t, db.messages)
	assert.Empty(t, sleeper.delays)
}

func TestSendMessageCancelledDuringDelay(t *testing.T) {
	db := &memChatStore{}
	ctx, cancel := context.WithCancel(context.Background())

	sleep := func(ctx context.Context, d time.Duration) error {
		cancel() // the view goes away while the assistant is "typing"
		return SleepContext(ctx, d)
	}
	svc := newTestChatService(t, db, &fixedRand{}, &fixedRand{}, sleep)

	ex, err := svc.SendMessage(ctx, 1, "Olá")
	assert.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, ex)

	require.Len(t, db.messages, 1, "only the user message is stored")
	assert.True(t, db.messages[0].IsFromUser)
}

func TestSendMessageUserWriteFails(t *testing.T) {
	failing := &failingChatStore{}
	sleeper := &recordingSleeper{}
	svc := newTestChatService(t, failing, &fixedRand{}, &fixedRand{}, sleeper.Sleep)

	_, err := svc.SendMessage(context.Background(), 1, "Olá")
	require.Error(t, err)
	assert.Empty(t, sleeper.delays, "no delay when the user message could not be stored")
}

func TestSendMessageReplyWriteFailsIsSwallowed(t *testing.T) {
	db := &memChatStore{failAfter: 1}
	svc := newTestChatService(t, db, &fixedRand{}, &fixedRand{}, (&recordingSleeper{}).Sleep)

	ex, err := svc.SendMessage(context.Background(), 1, "Olá")
	require.NoError(t, err)
	assert.False(t, ex.ReplyPersisted)
	assert.NotEmpty(t, ex.Reply.Text)
	assert.Len(t, db.messages, 1)
}

func TestClearHistory(t *testing.T) {
	db := &memChatStore{}
	svc := newTestChatService(t, db, &fixedRand{}, &fixedRand{}, (&recordingSleeper{}).Sleep)

	_, err := svc.SendMessage(context.Background(), 1, "Olá")
	require.NoError(t, err)
	_, err = svc.SendMessage(context.Background(), 2, "akoya")
	require.NoError(t, err)

	n, err := svc.ClearHistory(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	h, err := svc.History(context.Background(), 1, 10)
	require.NoError(t, err)
	assert.Empty(t, h)

	h, err = svc.History(context.Background(), 2, 10)
	require.NoError(t, err)
	assert.Len(t, h, 2)
}

func TestHistoryIDsStayDistinct(t *testing.T) {
	db := &memChatStore{}
	svc := newTestChatService(t, db, &fixedRand{}, &fixedRand{}, (&recordingSleeper{}).Sleep)

	for i := 0; i < 12; i++ {
		_, err := svc.SendMessage(context.Background(), 1, "akoya")
		require.NoError(t, err)
	}
	history, err := svc.History(context.Background(), 1, 0)
	require.NoError(t, err)
	require.Len(t, history, 24)

	seen := make(map[string]bool)
	for _, msg := range history {
		assert.False(t, seen[msg.ID], "duplicate id %s", msg.ID)
		seen[msg.ID] = true
	}
	assert.Equal(t, "m24", history[23].ID)
}

func TestSleepContext(t *testing.T) {
	assert.NoError(t, SleepContext(context.Background(), time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	start := time.Now()
	assert.ErrorIs(t, SleepContext(ctx, time.Hour), context.Canceled)
	assert.Less(t, time.Since(start), time.Second)
}

type failingChatStore struct{ memChatStore }

func (f *failingChatStore) CreateMessage(context.Context, *store.ChatMessage) error {
	return errors.New("storage unavailable")
}
