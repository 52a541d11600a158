package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"kidotrendz/storefront/internal/apierr"
	"kidotrendz/storefront/internal/mail"
	"kidotrendz/storefront/internal/models"
	"kidotrendz/storefront/internal/repository"
)

type ContactStore interface {
	Create(ctx context.Context, msg *models.ContactMessage) error
	ListNewestFirst(ctx context.Context) ([]models.ContactMessage, error)
	Delete(ctx context.Context, id string) error
}

type ContactService struct {
	messages ContactStore
	mailer   mail.Mailer
	log      zerolog.Logger
}

func NewContactService(messages ContactStore, mailer mail.Mailer, log zerolog.Logger) *ContactService {
	return &ContactService{messages: messages, mailer: mailer, log: log}
}

type ContactInput struct {
	Name    string
	Email   string
	Subject string
	Message string
}

// Submit validates and stores the message, then notifies the admin off the
// request path. Mail failures never fail the submission.
func (s *ContactService) Submit(ctx context.Context, input ContactInput) (models.ContactMessage, error) {
	if input.Name == "" || input.Email == "" || input.Subject == "" || input.Message == "" {
		return models.ContactMessage{}, apierr.InvalidArgument("all fields are required")
	}
	if !emailPattern.MatchString(input.Email) {
		return models.ContactMessage{}, apierr.InvalidArgument("invalid email format")
	}

	msg := models.ContactMessage{
		Name:    input.Name,
		Email:   input.Email,
		Subject: input.Subject,
		Message: input.Message,
	}
	if err := s.messages.Create(ctx, &msg); err != nil {
		return models.ContactMessage{}, err
	}

	go s.notify(msg)

	return msg, nil
}

func (s *ContactService) notify(msg models.ContactMessage) {
	subject := "New Contact Form Submission: " + msg.Subject
	body := fmt.Sprintf(
		"New message received!\n\nFrom: %s (%s)\nSubject: %s\nMessage: %s\n\nSubmitted on: %s",
		msg.Name, msg.Email, msg.Subject, msg.Message,
		time.Now().Format(time.RFC1123),
	)
	if err := s.mailer.Send(subject, body); err != nil {
		s.log.Warn().Err(err).Str("message_id", msg.ID).Msg("contact notification failed")
	}
}

func (s *ContactService) List(ctx context.Context) ([]models.ContactMessage, error) {
	return s.messages.ListNewestFirst(ctx)
}

func (s *ContactService) Delete(ctx context.Context, id string) error {
	if err := s.messages.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrMessageNotFound) {
			return apierr.NotFound("message not found")
		}
		return err
	}
	return nil
}
