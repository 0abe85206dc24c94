package services

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/Likith-Yadav/echo-us/internal/core/contracts"
	"github.com/Likith-Yadav/echo-us/internal/core/domain"

	"github.com/google/uuid"
)

func testLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

type fakeClient struct {
	id     string
	mu     sync.Mutex
	userID string
	sent   [][]byte
	closed bool
}

func newFakeClient() *fakeClient {
	return &fakeClient{id: uuid.NewString()}
}

func (c *fakeClient) ID() string { return c.id }

func (c *fakeClient) UserID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.userID
}

func (c *fakeClient) SetUserID(id string) {
	c.mu.Lock()
	c.userID = id
	c.mu.Unlock()
}

func (c *fakeClient) Send(_ context.Context, data []byte) error {
	c.mu.Lock()
	c.sent = append(c.sent, data)
	c.mu.Unlock()
	return nil
}

func (c *fakeClient) Close() {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
}

// fakeTxManager runs the function without a real transaction.
type fakeTxManager struct{}

func (fakeTxManager) WithTx(ctx context.Context, fn func(context.Context) error) error {
	return fn(ctx)
}

type sentEvent struct {
	userID string
	event  string
	data   any
}

// fakeRegistry records every delivery attempt and simulates reachability via
// the online set.
type fakeRegistry struct {
	online     map[string]bool
	sends      []sentEvent
	broadcasts []sentEvent
	bound      map[string]contracts.Client
}

func newFakeRegistry() *fakeRegistry {
	return &fakeRegistry{
		online: map[string]bool{},
		bound:  map[string]contracts.Client{},
	}
}

func (r *fakeRegistry) Add(contracts.Client)    {}
func (r *fakeRegistry) Remove(contracts.Client) {}

func (r *fakeRegistry) Bind(userID string, c contracts.Client) contracts.Client {
	prev := r.bound[userID]
	r.bound[userID] = c
	r.online[userID] = true
	if prev == c {
		return nil
	}
	return prev
}

func (r *fakeRegistry) Unbind(userID string, c contracts.Client) bool {
	if r.bound[userID] != c {
		return false
	}
	delete(r.bound, userID)
	delete(r.online, userID)
	return true
}

func (r *fakeRegistry) SendToUser(_ context.Context, userID, event string, data any) bool {
	r.sends = append(r.sends, sentEvent{userID: userID, event: event, data: data})
	return r.online[userID]
}

func (r *fakeRegistry) Broadcast(_ context.Context, event string, data any) {
	r.broadcasts = append(r.broadcasts, sentEvent{event: event, data: data})
}

type fakeQueue struct {
	published [][]byte
	err       error
}

func (q *fakeQueue) Publish(_ context.Context, _ string, payload []byte) error {
	if q.err != nil {
		return q.err
	}
	q.published = append(q.published, payload)
	return nil
}

func (q *fakeQueue) Subscribe(context.Context, string, string, func(context.Context, string, []byte) error) error {
	return nil
}
func (q *fakeQueue) Ack(context.Context, string, string, string) error { return nil }
func (q *fakeQueue) Delete(context.Context, string, string) error      { return nil }

type fakeMessageRepo struct {
	messages map[uuid.UUID]*domain.Message
	created  []*domain.Message
}

func newFakeMessageRepo() *fakeMessageRepo {
	return &fakeMessageRepo{messages: map[uuid.UUID]*domain.Message{}}
}

func (r *fakeMessageRepo) CreateMessage(_ context.Context, m *domain.Message) (*domain.Message, error) {
	stored := *m
	stored.ID = uuid.New()
	stored.CreatedAt = time.Now()
	if stored.ReplyToID != nil {
		orig, ok := r.messages[*stored.ReplyToID]
		if !ok {
			return nil, domain.ErrMessageNotFound
		}
		stored.ReplyTo = &domain.ReplyRef{
			ID:          orig.ID,
			Content:     orig.Content,
			MessageType: orig.MessageType,
			MediaURL:    orig.MediaURL,
			Sender:      &domain.Profile{ID: orig.SenderID},
		}
	}
	r.messages[stored.ID] = &stored
	r.created = append(r.created, &stored)
	return &stored, nil
}

func (r *fakeMessageRepo) GetMessageByID(_ context.Context, id uuid.UUID) (*domain.Message, error) {
	m, ok := r.messages[id]
	if !ok {
		return nil, domain.ErrMessageNotFound
	}
	return m, nil
}

func (r *fakeMessageRepo) GetConversation(_ context.Context, userA, userB uuid.UUID, limit int) ([]domain.Message, error) {
	var out []domain.Message
	for _, m := range r.messages {
		if (m.SenderID == userA && m.ReceiverID == userB) || (m.SenderID == userB && m.ReceiverID == userA) {
			out = append(out, *m)
		}
	}
	return out, nil
}

func (r *fakeMessageRepo) MarkRead(_ context.Context, senderID, readerID uuid.UUID) (int64, error) {
	var n int64
	for _, m := range r.messages {
		if m.SenderID == senderID && m.ReceiverID == readerID && !m.IsRead {
			m.IsRead = true
			n++
		}
	}
	return n, nil
}

func (r *fakeMessageRepo) CountUnread(_ context.Context, senderID, readerID uuid.UUID) (int64, error) {
	var n int64
	for _, m := range r.messages {
		if m.SenderID == senderID && m.ReceiverID == readerID && !m.IsRead {
			n++
		}
	}
	return n, nil
}

func (r *fakeMessageRepo) DeleteMessage(_ context.Context, id uuid.UUID) error {
	if _, ok := r.messages[id]; !ok {
		return domain.ErrMessageNotFound
	}
	delete(r.messages, id)
	return nil
}

type fakeCallRepo struct {
	calls   map[uuid.UUID]*domain.Call
	updates []string
}

func newFakeCallRepo() *fakeCallRepo {
	return &fakeCallRepo{calls: map[uuid.UUID]*domain.Call{}}
}

func (r *fakeCallRepo) CreateCall(_ context.Context, c *domain.Call) (*domain.Call, error) {
	stored := *c
	stored.ID = uuid.New()
	stored.StartedAt = time.Now()
	r.calls[stored.ID] = &stored
	return &stored, nil
}

func (r *fakeCallRepo) GetCallByID(_ context.Context, id uuid.UUID) (*domain.Call, error) {
	c, ok := r.calls[id]
	if !ok {
		return nil, domain.ErrCallNotFound
	}
	copied := *c
	return &copied, nil
}

func (r *fakeCallRepo) ListCallsForUser(_ context.Context, userID uuid.UUID, limit int) ([]domain.Call, error) {
	var out []domain.Call
	for _, c := range r.calls {
		if c.CallerID == userID || c.ReceiverID == userID {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (r *fakeCallRepo) UpdateCallStatus(_ context.Context, id uuid.UUID, status string, duration *int, endedAt *time.Time) (*domain.Call, error) {
	c, ok := r.calls[id]
	if !ok {
		return nil, domain.ErrCallNotFound
	}
	r.updates = append(r.updates, c.Status+"->"+status)
	c.Status = status
	if duration != nil {
		c.Duration = *duration
	}
	if endedAt != nil {
		c.EndedAt = endedAt
	}
	copied := *c
	return &copied, nil
}

type presenceWrite struct {
	userID uuid.UUID
	online bool
}

type fakeUserRepo struct {
	users    map[uuid.UUID]*domain.User
	presence []presenceWrite
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: map[uuid.UUID]*domain.User{}}
}

func (r *fakeUserRepo) GetUserByID(_ context.Context, id uuid.UUID) (*domain.User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return u, nil
}

func (r *fakeUserRepo) GetUserByEmail(_ context.Context, email string) (*domain.User, error) {
	for _, u := range r.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *fakeUserRepo) FindByEmailOrUsername(_ context.Context, email, username string) (*domain.User, error) {
	for _, u := range r.users {
		if u.Email == email || u.Username == username {
			return u, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *fakeUserRepo) CreateUser(_ context.Context, u *domain.User) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	r.users[u.ID] = u
	return nil
}

func (r *fakeUserRepo) ListOtherUsers(_ context.Context, excludeID uuid.UUID) ([]domain.User, error) {
	var out []domain.User
	for _, u := range r.users {
		if u.ID != excludeID {
			out = append(out, *u)
		}
	}
	return out, nil
}

func (r *fakeUserRepo) UpdateProfile(_ context.Context, id uuid.UUID, name, username, status *string) (*domain.User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	if name != nil {
		u.Name = *name
	}
	if username != nil {
		u.Username = *username
	}
	if status != nil {
		u.Status = *status
	}
	return u, nil
}

func (r *fakeUserRepo) UpdateProfilePic(_ context.Context, id uuid.UUID, url string) (*domain.User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	u.ProfilePic = &url
	return u, nil
}

func (r *fakeUserRepo) UpdatePassword(_ context.Context, id uuid.UUID, hash string) error {
	u, ok := r.users[id]
	if !ok {
		return domain.ErrUserNotFound
	}
	u.Password = hash
	return nil
}

func (r *fakeUserRepo) UpdatePushToken(_ context.Context, id uuid.UUID, token *string) error {
	u, ok := r.users[id]
	if !ok {
		return domain.ErrUserNotFound
	}
	u.PushToken = token
	return nil
}

func (r *fakeUserRepo) SetPresence(_ context.Context, id uuid.UUID, online bool, lastSeen time.Time) error {
	u, ok := r.users[id]
	if !ok {
		return domain.ErrUserNotFound
	}
	u.IsOnline = online
	u.LastSeen = lastSeen
	r.presence = append(r.presence, presenceWrite{userID: id, online: online})
	return nil
}
