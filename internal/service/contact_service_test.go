package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kidotrendz/storefront/internal/apierr"
	"kidotrendz/storefront/internal/models"
	"kidotrendz/storefront/internal/repository"
)

type fakeContactStore struct {
	mu       sync.Mutex
	messages []models.ContactMessage
}

func (f *fakeContactStore) Create(_ context.Context, msg *models.ContactMessage) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	msg.ID = "m1"
	msg.CreatedAt = time.Now().UTC()
	f.messages = append(f.messages, *msg)
	return nil
}

func (f *fakeContactStore) ListNewestFirst(_ context.Context) ([]models.ContactMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.ContactMessage(nil), f.messages...), nil
}

func (f *fakeContactStore) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, msg := range f.messages {
		if msg.ID == id {
			f.messages = append(f.messages[:i], f.messages[i+1:]...)
			return nil
		}
	}
	return repository.ErrMessageNotFound
}

type recordingMailer struct {
	mu       sync.Mutex
	subjects []string
	sent     chan struct{}
}

func newRecordingMailer() *recordingMailer {
	return &recordingMailer{sent: make(chan struct{}, 8)}
}

func (m *recordingMailer) Send(subject, _ string) error {
	m.mu.Lock()
	m.subjects = append(m.subjects, subject)
	m.mu.Unlock()
	m.sent <- struct{}{}
	return nil
}

func TestContactService_Submit(t *testing.T) {
	store := &fakeContactStore{}
	mailer := newRecordingMailer()
	svc := NewContactService(store, mailer, zerolog.Nop())

	msg, err := svc.Submit(context.Background(), ContactInput{
		Name:    "Maya",
		Email:   "maya@example.com",
		Subject: "Sizing",
		Message: "Do the jackets run small?",
	})
	require.NoError(t, err)
	assert.Equal(t, "m1", msg.ID)

	select {
	case <-mailer.sent:
	case <-time.After(2 * time.Second):
		t.Fatal("admin notification was never sent")
	}

	mailer.mu.Lock()
	defer mailer.mu.Unlock()
	require.Len(t, mailer.subjects, 1)
	assert.Equal(t, "New Contact Form Submission: Sizing", mailer.subjects[0])
}

func TestContactService_SubmitValidation(t *testing.T) {
	svc := NewContactService(&fakeContactStore{}, newRecordingMailer(), zerolog.Nop())
	ctx := context.Background()

	tests := []struct {
		name  string
		input ContactInput
	}{
		{"missing name", ContactInput{Email: "a@b.co", Subject: "s", Message: "m"}},
		{"missing subject", ContactInput{Name: "n", Email: "a@b.co", Message: "m"}},
		{"missing message", ContactInput{Name: "n", Email: "a@b.co", Subject: "s"}},
		{"bad email", ContactInput{Name: "n", Email: "not-an-email", Subject: "s", Message: "m"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Submit(ctx, tt.input)
			require.Error(t, err)
			assert.Equal(t, apierr.KindInvalidArgument, apierr.KindOf(err))
		})
	}
}

func TestContactService_Delete(t *testing.T) {
	store := &fakeContactStore{}
	svc := NewContactService(store, newRecordingMailer(), zerolog.Nop())
	ctx := context.Background()

	_, err := svc.Submit(ctx, ContactInput{
		Name: "Maya", Email: "maya@example.com", Subject: "s", Message: "m",
	})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, "m1"))

	err = svc.Delete(ctx, "m1")
	assert.Equal(t, apierr.KindNotFound, apierr.KindOf(err))
}
