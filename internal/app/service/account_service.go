package service

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"github.com/Adeyod/degenuisFx-backend/internal/common"
	"github.com/Adeyod/degenuisFx-backend/internal/common/security"
	"github.com/Adeyod/degenuisFx-backend/internal/common/validate"
	"github.com/Adeyod/degenuisFx-backend/internal/domain/model"
	"github.com/Adeyod/degenuisFx-backend/internal/domain/repository"
	"github.com/Adeyod/degenuisFx-backend/internal/platform/logging"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/google/uuid"
)

type AccountOptions struct {
	FrontendURL string
	BcryptCost  int
	PageSize    int
}

// AccountService runs the account lifecycle for one user kind: register,
// verify, login, password recovery, and profile maintenance.
type AccountService struct {
	kind     model.Kind
	users    repository.UserRepository
	tokens   *TokenIssuer
	notifier Notifier
	log      logging.Logger
	opts     AccountOptions
}

func NewAccountService(
	kind model.Kind,
	users repository.UserRepository,
	tokens *TokenIssuer,
	notifier Notifier,
	logger logging.Logger,
	opts AccountOptions,
) *AccountService {
	if opts.PageSize <= 0 {
		opts.PageSize = 10
	}
	return &AccountService{
		kind:     kind,
		users:    users,
		tokens:   tokens,
		notifier: notifier,
		log:      logger.With("component", "account_service", "kind", kind),
		opts:     opts,
	}
}

func (s *AccountService) Kind() model.Kind { return s.kind }

type RegisterRequest struct {
	FirstName          string `json:"firstName"`
	MiddleName         string `json:"middleName"`
	LastName           string `json:"lastName"`
	Email              string `json:"email"`
	Password           string `json:"password"`
	ConfirmPassword    string `json:"confirmPassword"`
	PhoneNumber        string `json:"phoneNumber"`
	Address            string `json:"address"`
	CountryOfResidence string `json:"countryOfResidence"`
	StateOfResidence   string `json:"stateOfResidence"`
	Gender             string `json:"gender"`
	DOB                string `json:"DOB"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type EmailRequest struct {
	Email string `json:"email"`
}

type ResetPasswordRequest struct {
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
}

// LoginResult is returned for verified users only.
type LoginResult struct {
	User    *model.User
	Session security.Session
}

func (s *AccountService) Register(ctx context.Context, req RegisterRequest) (*model.User, error) {
	validate.Trim(&req.FirstName, &req.MiddleName, &req.LastName, &req.Email, &req.PhoneNumber,
		&req.Address, &req.CountryOfResidence, &req.StateOfResidence, &req.Gender, &req.DOB)

	if err := validate.Required(req.FirstName, req.LastName, req.Email, req.Password, req.ConfirmPassword,
		req.PhoneNumber, req.Address, req.CountryOfResidence, req.StateOfResidence, req.Gender, req.DOB); err != nil {
		return nil, err
	}

	err := validate.Run(
		validate.Text("first name", req.FirstName),
		validate.Text("middle name", req.MiddleName),
		validate.Text("last name", req.LastName),
		validate.Text("address", req.Address),
		validate.Text("country of residence", req.CountryOfResidence),
		validate.Text("state of residence", req.StateOfResidence),
		validate.Field{Label: "email", Value: req.Email, Rules: []validation.Rule{validate.Email}},
		validate.Field{Label: "gender", Value: req.Gender, Rules: []validation.Rule{validate.OneOf("gender", model.Genders...)}},
		validate.Field{Label: "password", Value: req.Password, Rules: []validation.Rule{validate.StrongPassword}},
	)
	if err != nil {
		return nil, err
	}
	if req.Password != req.ConfirmPassword {
		return nil, common.ErrPasswordMismatch
	}
	dob, err := validate.DateOfBirth(req.DOB)
	if err != nil {
		return nil, err
	}

	if _, err := s.users.FindByEmail(ctx, s.kind, req.Email); err == nil {
		return nil, common.ErrDuplicateEmail
	} else if !errors.Is(err, common.ErrNotFound) {
		return nil, err
	}

	hash, err := security.HashPassword(req.Password, s.opts.BcryptCost)
	if err != nil {
		return nil, err
	}

	user := &model.User{
		ID:                 uuid.NewString(),
		Kind:               s.kind,
		Role:               s.kind.DefaultRole(),
		FirstName:          req.FirstName,
		MiddleName:         req.MiddleName,
		LastName:           req.LastName,
		Email:              req.Email,
		PasswordHash:       hash,
		Gender:             req.Gender,
		DOB:                &dob,
		PhoneNumber:        validate.NormalizePhone(req.PhoneNumber),
		Address:            req.Address,
		CountryOfResidence: req.CountryOfResidence,
		StateOfResidence:   req.StateOfResidence,
	}
	// The unique index still rejects a concurrent duplicate here.
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}
	s.log.Info(ctx, "user registered", "user_id", user.ID)

	token, err := s.tokens.IssueActionToken(ctx, s.kind, model.PurposeVerifyEmail, user.ID)
	if err != nil {
		return nil, err
	}
	if err := s.sendVerification(ctx, user, token); err != nil {
		return nil, err
	}
	return user.Sanitized(), nil
}

func (s *AccountService) VerifyEmail(ctx context.Context, userID, value string) (*model.User, error) {
	token, err := s.tokens.VerifyActionToken(ctx, s.kind, model.PurposeVerifyEmail, userID, value)
	if err != nil {
		return nil, err
	}
	if err := s.tokens.ConsumeActionToken(ctx, token); err != nil {
		return nil, err
	}
	user, err := s.users.MarkVerified(ctx, s.kind, userID)
	if err != nil {
		return nil, err
	}
	s.log.Info(ctx, "email verified", "user_id", userID)
	return user.Sanitized(), nil
}

// Login fails with the same error for an unknown email and a wrong
// password. Unverified users get their verification link again and no
// session.
func (s *AccountService) Login(ctx context.Context, req LoginRequest) (*LoginResult, error) {
	validate.Trim(&req.Email)
	if req.Email == "" || req.Password == "" {
		return nil, common.ErrAllFieldsRequired
	}

	user, err := s.users.FindByEmail(ctx, s.kind, req.Email)
	if errors.Is(err, common.ErrNotFound) {
		return nil, common.ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if !security.CheckPasswordHash(req.Password, user.PasswordHash) {
		return nil, common.ErrInvalidCredentials
	}

	if !user.IsVerified {
		token, err := s.tokens.IssueOrReuseActionToken(ctx, s.kind, model.PurposeVerifyEmail, user.ID)
		if err != nil {
			return nil, err
		}
		if err := s.sendVerification(ctx, user, token); err != nil {
			return nil, err
		}
		return nil, common.ErrEmailNotVerified
	}

	session, err := s.tokens.IssueSession(user)
	if err != nil {
		return nil, err
	}
	return &LoginResult{User: user.Sanitized(), Session: session}, nil
}

func (s *AccountService) ForgotPassword(ctx context.Context, req EmailRequest) error {
	user, err := s.lookupByEmail(ctx, req.Email)
	if errors.Is(err, common.ErrUserNotFound) {
		return common.ErrEmailNotFound
	}
	if err != nil {
		return err
	}

	token, err := s.tokens.IssueActionToken(ctx, s.kind, model.PurposeResetPassword, user.ID)
	if err != nil {
		return err
	}
	return s.deliver(ctx, s.notifier.SendPasswordReset(ctx, user.Email, user.FirstName, s.link("resetPassword", token)))
}

func (s *AccountService) ResetPassword(ctx context.Context, userID, value string, req ResetPasswordRequest) error {
	if req.Password == "" || req.ConfirmPassword == "" {
		return common.ErrAllFieldsRequired
	}
	err := validate.Run(validate.Field{Label: "password", Value: req.Password, Rules: []validation.Rule{validate.StrongPassword}})
	if err != nil {
		return err
	}
	if req.Password != req.ConfirmPassword {
		return common.ErrPasswordMismatch
	}

	token, err := s.tokens.VerifyActionToken(ctx, s.kind, model.PurposeResetPassword, userID, value)
	if err != nil {
		return err
	}
	if _, err := s.users.FindByID(ctx, s.kind, userID); err != nil {
		return err
	}

	hash, err := security.HashPassword(req.Password, s.opts.BcryptCost)
	if err != nil {
		return err
	}
	if err := s.tokens.ConsumeActionToken(ctx, token); err != nil {
		return err
	}
	if err := s.users.UpdatePassword(ctx, s.kind, userID, hash); err != nil {
		return err
	}
	s.log.Info(ctx, "password reset", "user_id", userID)
	return nil
}

// ResendVerification re-sends the outstanding verification link, minting a
// new token only when none is live.
func (s *AccountService) ResendVerification(ctx context.Context, req EmailRequest) error {
	user, err := s.lookupByEmail(ctx, req.Email)
	if err != nil {
		return err
	}
	if user.IsVerified {
		return common.ErrAlreadyVerified
	}

	token, err := s.tokens.IssueOrReuseActionToken(ctx, s.kind, model.PurposeVerifyEmail, user.ID)
	if err != nil {
		return err
	}
	return s.sendVerification(ctx, user, token)
}

// GetSelf returns the principal's own record.
func (s *AccountService) GetSelf(ctx context.Context, principalID, targetID string) (*model.User, error) {
	if principalID != targetID {
		return nil, common.ErrForbiddenUser
	}
	return s.GetUser(ctx, targetID)
}

func (s *AccountService) GetUser(ctx context.Context, id string) (*model.User, error) {
	user, err := s.users.FindByID(ctx, s.kind, id)
	if err != nil {
		return nil, err
	}
	return user.Sanitized(), nil
}

// ListUsers lists users holding the kind's default role. A nil page returns
// everything on one page.
func (s *AccountService) ListUsers(ctx context.Context, page *int, limit int) (*model.UserPage, error) {
	if limit <= 0 {
		limit = s.opts.PageSize
	}
	result, err := s.users.List(ctx, repository.ListQuery{
		Kind:     s.kind,
		Role:     s.kind.DefaultRole(),
		Page:     page,
		PageSize: limit,
	})
	if err != nil {
		return nil, err
	}
	for i, u := range result.Users {
		result.Users[i] = u.Sanitized()
	}
	return result, nil
}

// SearchUsers never fails on an empty result; callers decide how to report it.
func (s *AccountService) SearchUsers(ctx context.Context, query string) ([]*model.User, error) {
	validate.Trim(&query)
	if query == "" {
		return []*model.User{}, nil
	}
	users, err := s.users.Search(ctx, s.kind, query)
	if err != nil {
		return nil, err
	}
	for i, u := range users {
		users[i] = u.Sanitized()
	}
	return users, nil
}

func (s *AccountService) lookupByEmail(ctx context.Context, email string) (*model.User, error) {
	validate.Trim(&email)
	if email == "" {
		return nil, common.ErrEmailRequired
	}
	if !validate.IsEmail(email) {
		return nil, common.Validation(validate.EmailMessage)
	}
	return s.users.FindByEmail(ctx, s.kind, email)
}

func (s *AccountService) sendVerification(ctx context.Context, user *model.User, token *model.ActionToken) error {
	return s.deliver(ctx, s.notifier.SendEmailVerification(ctx, user.Email, user.FirstName, s.link("verify-email", token)))
}

// deliver normalizes notifier errors so every failure carries
// ErrMailDeliveryFailed.
func (s *AccountService) deliver(ctx context.Context, err error) error {
	if err == nil {
		return nil
	}
	s.log.Error(ctx, "account email not delivered", "error", err)
	if errors.Is(err, common.ErrMailDeliveryFailed) {
		return err
	}
	return common.MailFailure(nil, err)
}

func (s *AccountService) link(page string, token *model.ActionToken) string {
	return fmt.Sprintf("%s/%s/%s/?userId=%s&token=%s", s.opts.FrontendURL, s.kind, page,
		url.QueryEscape(token.UserID), url.QueryEscape(token.Token))
}
