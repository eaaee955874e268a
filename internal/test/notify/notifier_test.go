package notify_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"gigpay-backend/internal/escrow"
	"gigpay-backend/internal/models"
	"gigpay-backend/internal/notify"
)

type recordingStore struct {
	mu            sync.Mutex
	notifications []models.Notification
}

func (s *recordingStore) CreateNotification(_ context.Context, n *models.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notifications = append(s.notifications, *n)
	return nil
}

func (s *recordingStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.notifications)
}

func TestNotify_StoresInAppNotification(t *testing.T) {
	store := &recordingStore{}
	service := notify.NewService(store, nil, nil)

	userID := uuid.New()
	project := &models.Project{ID: uuid.New(), Title: "Logo design"}
	service.Notify(userID, escrow.Event{
		Type:    escrow.EventOfferAccepted,
		Title:   "Offer accepted",
		Message: "Ravi accepted your offer",
		Project: project,
	})

	assert.Eventually(t, func() bool { return store.count() == 1 }, time.Second, 10*time.Millisecond)

	store.mu.Lock()
	defer store.mu.Unlock()
	n := store.notifications[0]
	assert.Equal(t, userID, n.UserID)
	assert.Equal(t, escrow.EventOfferAccepted, n.Type)
	assert.Equal(t, "Offer accepted", n.Title)
	assert.True(t, n.ProjectID.Valid)
	assert.Equal(t, project.ID, n.ProjectID.UUID)
}

func TestNotify_NilSinksDoNotPanic(t *testing.T) {
	service := notify.NewService(nil, nil, nil)

	assert.NotPanics(t, func() {
		service.Notify(uuid.New(), escrow.Event{Type: escrow.EventFinalPaid, Title: "x", Message: "y"})
		time.Sleep(20 * time.Millisecond)
	})
}
