package notify

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"
	"gigpay-backend/internal/escrow"
	"gigpay-backend/internal/mailer"
	"gigpay-backend/internal/models"
	"gigpay-backend/internal/push"
)

// Store persists the in-app copy of each notification.
type Store interface {
	CreateNotification(ctx context.Context, n *models.Notification) error
}

// Service fans lifecycle events out to the in-app store, the email sink and
// the push sink. Delivery is fire-and-forget: the caller's transition has
// already committed, so failures here are logged and swallowed.
type Service struct {
	store  Store
	mailer *mailer.Client
	push   *push.Client
}

func NewService(store Store, mailerClient *mailer.Client, pushClient *push.Client) *Service {
	return &Service{
		store:  store,
		mailer: mailerClient,
		push:   pushClient,
	}
}

// Notify implements escrow.Notifier. It returns immediately; delivery runs in
// the background with its own deadline.
func (s *Service) Notify(userID uuid.UUID, ev escrow.Event) {
	go s.deliver(userID, ev)
}

func (s *Service) deliver(userID uuid.UUID, ev escrow.Event) {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if s.store != nil {
		notification := &models.Notification{
			ID:        uuid.New(),
			UserID:    userID,
			Type:      ev.Type,
			Title:     ev.Title,
			Message:   ev.Message,
			CreatedAt: time.Now().UTC(),
		}
		if ev.Project != nil {
			notification.ProjectID = uuid.NullUUID{UUID: ev.Project.ID, Valid: true}
		}
		if err := s.store.CreateNotification(ctx, notification); err != nil {
			log.Printf("Warning: failed to store notification for user %s: %v", userID, err)
		}
	}

	if s.mailer != nil {
		if err := s.sendEmail(userID, ev); err != nil {
			log.Printf("Warning: failed to send email for user %s: %v", userID, err)
		}
	}

	if s.push != nil {
		message := push.Message{Title: ev.Title, Body: ev.Message}
		if ev.Project != nil {
			message.Data = map[string]string{
				"project_id": ev.Project.ID.String(),
				"event":      ev.Type,
			}
		}
		err := s.push.RetryWithBackoff(func() error {
			return s.push.Send(userID, message)
		}, 3)
		if err != nil {
			log.Printf("Warning: failed to send push for user %s: %v", userID, err)
		}
	}
}

func (s *Service) sendEmail(userID uuid.UUID, ev escrow.Event) error {
	// New offers get the structured template; everything else the generic one.
	if ev.Type == escrow.EventProjectOffer && ev.Project != nil {
		return s.mailer.SendProjectOffer(userID, mailer.ProjectOfferEmail{
			ClientName:  ev.ActorName,
			Title:       ev.Project.Title,
			Description: ev.Project.Description,
			Budget:      ev.Project.Budget,
			Deadline:    ev.Project.Deadline,
			ProjectID:   ev.Project.ID.String(),
		})
	}

	email := mailer.LifecycleEmail{
		Subject: ev.Title,
		Body:    ev.Message,
	}
	if ev.Project != nil {
		email.ProjectID = ev.Project.ID.String()
	}
	return s.mailer.SendLifecycle(userID, email)
}
