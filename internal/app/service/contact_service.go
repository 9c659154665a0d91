package service

import (
	"context"

	"github.com/Adeyod/degenuisFx-backend/internal/common"
	"github.com/Adeyod/degenuisFx-backend/internal/common/validate"
	"github.com/Adeyod/degenuisFx-backend/internal/domain/model"
	"github.com/Adeyod/degenuisFx-backend/internal/domain/repository"
	"github.com/Adeyod/degenuisFx-backend/internal/platform/logging"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/google/uuid"
)

const (
	nameMessage    = "Invalid input in the field name"
	messageMessage = "Invalid input for field message"
)

// ContactService stores feedback, contact-us messages and newsletter
// subscriptions from the public site.
type ContactService struct {
	contacts repository.ContactRepository
	log      logging.Logger
}

func NewContactService(contacts repository.ContactRepository, logger logging.Logger) *ContactService {
	return &ContactService{contacts: contacts, log: logger.With("component", "contact_service")}
}

type FeedbackRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Message string `json:"message"`
	Rating  int    `json:"rating"`
}

type ContactRequest struct {
	Name        string `json:"name"`
	Email       string `json:"email"`
	PhoneNumber string `json:"phoneNumber"`
	Message     string `json:"message"`
}

type SubscribeRequest struct {
	Email string `json:"email"`
}

func (s *ContactService) SubmitFeedback(ctx context.Context, req FeedbackRequest) (*model.Feedback, error) {
	validate.Trim(&req.Name, &req.Email, &req.Message)
	if req.Name == "" || req.Email == "" || req.Rating == 0 {
		return nil, common.ErrAllFieldsRequired
	}
	err := validate.Run(
		validate.Field{Label: "name", Value: req.Name, Rules: []validation.Rule{validate.Clean(nameMessage)}},
		validate.Field{Label: "email", Value: req.Email, Rules: []validation.Rule{validate.Email}},
		validate.Field{Label: "message", Value: req.Message, Rules: []validation.Rule{validate.Clean(messageMessage)}},
	)
	if err != nil {
		return nil, err
	}
	if req.Rating < 1 || req.Rating > 5 {
		return nil, common.Validation("Invalid input for field rating")
	}

	f := &model.Feedback{ID: uuid.NewString(), Name: req.Name, Email: req.Email, Message: req.Message, Rating: req.Rating}
	if err := s.contacts.SaveFeedback(ctx, f); err != nil {
		return nil, err
	}
	s.log.Info(ctx, "feedback received", "feedback_id", f.ID, "rating", f.Rating)
	return f, nil
}

func (s *ContactService) ContactUs(ctx context.Context, req ContactRequest) (*model.ContactMessage, error) {
	validate.Trim(&req.Name, &req.Email, &req.PhoneNumber, &req.Message)
	if err := validate.Required(req.Name, req.Email, req.PhoneNumber, req.Message); err != nil {
		return nil, common.ErrAllFieldsRequired
	}
	err := validate.Run(
		validate.Field{Label: "name", Value: req.Name, Rules: []validation.Rule{validate.Clean(nameMessage)}},
		validate.Field{Label: "email", Value: req.Email, Rules: []validation.Rule{validate.Email}},
		validate.Field{Label: "message", Value: req.Message, Rules: []validation.Rule{validate.Clean(messageMessage)}},
	)
	if err != nil {
		return nil, err
	}

	m := &model.ContactMessage{
		ID:          uuid.NewString(),
		Name:        req.Name,
		Email:       req.Email,
		PhoneNumber: validate.NormalizePhone(req.PhoneNumber),
		Message:     req.Message,
	}
	if err := s.contacts.SaveContactMessage(ctx, m); err != nil {
		return nil, err
	}
	s.log.Info(ctx, "contact message received", "message_id", m.ID)
	return m, nil
}

func (s *ContactService) Subscribe(ctx context.Context, req SubscribeRequest) (*model.EmailSubscription, error) {
	validate.Trim(&req.Email)
	if req.Email == "" {
		return nil, common.ErrEmailRequired
	}
	if !validate.IsEmail(req.Email) {
		return nil, common.Validation(validate.EmailMessage)
	}

	sub := &model.EmailSubscription{ID: uuid.NewString(), Email: req.Email}
	if err := s.contacts.SaveSubscription(ctx, sub); err != nil {
		return nil, err
	}
	return sub, nil
}
