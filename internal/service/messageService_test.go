package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ds124wfegd/emergency-ops/internal/entity"
)

type fakeMessageRepo struct {
	mu     sync.Mutex
	stored map[string]*entity.Message
}

func newFakeMessageRepo() *fakeMessageRepo {
	return &fakeMessageRepo{stored: make(map[string]*entity.Message)}
}

func (f *fakeMessageRepo) Create(ctx context.Context, m *entity.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	clone := *m
	f.stored[m.ID] = &clone
	return nil
}

func (f *fakeMessageRepo) GetByID(ctx context.Context, id string) (*entity.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	m, ok := f.stored[id]
	if !ok {
		return nil, entity.ErrMessageNotFound
	}
	clone := *m
	return &clone, nil
}

func (f *fakeMessageRepo) MarkRead(ctx context.Context, id, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	m, ok := f.stored[id]
	if !ok {
		return entity.ErrMessageNotFound
	}
	for _, r := range m.ReadBy {
		if r.UserID == userID {
			return nil
		}
	}
	m.ReadBy = append(m.ReadBy, entity.ReadReceipt{UserID: userID, ReadAt: time.Now()})
	return nil
}

func (f *fakeMessageRepo) GetForUser(ctx context.Context, user *entity.User, filter entity.MessageFilter) ([]*entity.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*entity.Message
	for _, m := range f.stored {
		clone := *m
		out = append(out, &clone)
	}
	return out, nil
}

func (f *fakeMessageRepo) UnreadCount(ctx context.Context, user *entity.User) (int64, error) {
	return int64(len(f.stored)), nil
}

func (f *fakeMessageRepo) Stats(ctx context.Context, user *entity.User) (*entity.MessageStats, error) {
	return &entity.MessageStats{}, nil
}

func newMessageFixture() (*MessageService, *fakeMessageRepo, *fakeBroadcaster) {
	repo := newFakeMessageRepo()
	bc := newFakeBroadcaster()
	return NewMessageService(repo, bc), repo, bc
}

func responderActor() Actor {
	return Actor{ID: "r1", Name: "Field Responder", Role: entity.RoleResponder}
}

func TestSendMessageRoutesToAudience(t *testing.T) {
	svc, repo, bc := newMessageFixture()

	msg, err := svc.Send(context.Background(), &SendMessageInput{
		Content: "Crowd building at the east entrance.",
		Spec:    entity.SpecForRole(entity.RoleOperator),
	}, responderActor())
	require.NoError(t, err)

	assert.Equal(t, entity.MessageTeam, msg.Type, "type defaults to team")
	assert.Equal(t, entity.PriorityNormal, msg.Priority, "priority defaults to normal")
	assert.Equal(t, "operators", msg.Recipients)
	assert.False(t, msg.IsEmergency)

	stored, err := repo.GetByID(context.Background(), msg.ID)
	require.NoError(t, err)
	assert.Equal(t, msg.Content, stored.Content)

	require.Len(t, bc.calls, 1)
	assert.Equal(t, EventNewMessage, bc.calls[0].event)
	assert.Equal(t, entity.SpecRole, bc.calls[0].spec.Kind)
	assert.Contains(t, bc.userCalls["r1"], EventMessageSent)
}

func TestSendMessageCriticalIsEmergency(t *testing.T) {
	svc, _, _ := newMessageFixture()

	msg, err := svc.Send(context.Background(), &SendMessageInput{
		Content:  "Man down, need medics now.",
		Priority: entity.PriorityCritical,
		Spec:     entity.SpecForAll(),
	}, responderActor())
	require.NoError(t, err)

	assert.True(t, msg.IsEmergency)
}

func TestSendMessageValidation(t *testing.T) {
	svc, _, bc := newMessageFixture()

	_, err := svc.Send(context.Background(), &SendMessageInput{
		Spec: entity.SpecForAll(),
	}, responderActor())
	assert.ErrorIs(t, err, entity.ErrEmptyContent)

	_, err = svc.Send(context.Background(), &SendMessageInput{
		Content: "where to?",
		Spec:    entity.SpecForZone(""),
	}, responderActor())
	assert.ErrorIs(t, err, entity.ErrEmptyZone)

	assert.Empty(t, bc.calls)
}

func TestBroadcastRequiresPrivilegedRole(t *testing.T) {
	svc, _, _ := newMessageFixture()

	_, err := svc.Broadcast(context.Background(), &BroadcastMessageInput{
		Content: "All teams report status.",
	}, responderActor())
	assert.ErrorIs(t, err, entity.ErrUnauthorized)

	msg, err := svc.Broadcast(context.Background(), &BroadcastMessageInput{
		Content: "All teams report status.",
	}, Actor{ID: "op-1", Name: "Dispatch Operator", Role: entity.RoleOperator})
	require.NoError(t, err)

	assert.Equal(t, entity.MessageBroadcast, msg.Type)
	assert.Equal(t, entity.PriorityHigh, msg.Priority, "broadcast defaults to high priority")
	assert.Equal(t, "all", msg.Recipients)
}

func TestMessageMarkReadNotifiesSender(t *testing.T) {
	svc, _, bc := newMessageFixture()

	msg, err := svc.Send(context.Background(), &SendMessageInput{
		Content: "Check camera 7.",
		Spec:    entity.SpecForUsers([]string{"u2"}),
	}, responderActor())
	require.NoError(t, err)

	read, err := svc.MarkRead(context.Background(), msg.ID, "u2")
	require.NoError(t, err)
	require.Len(t, read.ReadBy, 1)
	assert.Contains(t, bc.userCalls["r1"], EventMessageRead)

	// A second read keeps the first receipt and stays quiet about it.
	again, err := svc.MarkRead(context.Background(), msg.ID, "u2")
	require.NoError(t, err)
	assert.Len(t, again.ReadBy, 1)
}

func TestMessageMarkReadOwnMessageSkipsReceiptEvent(t *testing.T) {
	svc, _, bc := newMessageFixture()

	msg, err := svc.Send(context.Background(), &SendMessageInput{
		Content: "Note to self.",
		Spec:    entity.SpecForAll(),
	}, responderActor())
	require.NoError(t, err)

	_, err = svc.MarkRead(context.Background(), msg.ID, "r1")
	require.NoError(t, err)

	for _, event := range bc.userCalls["r1"] {
		assert.NotEqual(t, EventMessageRead, event)
	}
}

func TestMessageMarkReadMissing(t *testing.T) {
	svc, _, _ := newMessageFixture()

	_, err := svc.MarkRead(context.Background(), "missing", "u1")
	assert.ErrorIs(t, err, entity.ErrMessageNotFound)
}
