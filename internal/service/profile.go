package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"

	"github.com/sakif/execmind/internal/apperror"
	"github.com/sakif/execmind/internal/auth"
	"github.com/sakif/execmind/internal/generation"
	mailer "github.com/sakif/execmind/internal/mail"
	"github.com/sakif/execmind/internal/model"
	"github.com/sakif/execmind/internal/repository"
)

const (
	MinPasswordLength = 6
	MaxNameLength     = 100
)

// ProfileService handles registration, login and the executive's profile.
//
//	ProfileHandler (HTTP) → ProfileService → UserRepository (DB)
//	                                       ↘ TokenService (JWT)
//	                                       ↘ Generator + Mailer (send-excerpt)
type ProfileService struct {
	users     repository.UserRepository
	tokens    *auth.TokenService
	passwords *auth.PasswordService
	gen       generation.Generator
	mail      mailer.Mailer
	logger    *slog.Logger
}

func NewProfileService(
	users repository.UserRepository,
	tokens *auth.TokenService,
	passwords *auth.PasswordService,
	gen generation.Generator,
	mail mailer.Mailer,
	logger *slog.Logger,
) *ProfileService {
	return &ProfileService{
		users:     users,
		tokens:    tokens,
		passwords: passwords,
		gen:       gen,
		mail:      mail,
		logger:    logger,
	}
}

// AuthResult bundles the user and the token issued for them, so the handler
// can answer register and login in one step.
type AuthResult struct {
	Token string      `json:"token"`
	User  *model.User `json:"user"`
}

type RegisterInput struct {
	Name     string
	Email    string
	Password string
	EAEmail  string
}

// Register creates a user and logs them in.
//
// Every field problem is reported at once, one detail line each, instead of
// making the client fix them one round-trip at a time.
func (s *ProfileService) Register(ctx context.Context, in RegisterInput) (*AuthResult, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.EAEmail = strings.TrimSpace(in.EAEmail)

	var problems []string
	if in.Name == "" {
		problems = append(problems, "name is required")
	} else if len(in.Name) > MaxNameLength {
		problems = append(problems, fmt.Sprintf("name must be at most %d characters", MaxNameLength))
	}
	if in.Email == "" {
		problems = append(problems, "email is required")
	} else if !validEmail(in.Email) {
		problems = append(problems, "email is invalid")
	}
	if len(in.Password) < MinPasswordLength {
		problems = append(problems, fmt.Sprintf("password must be at least %d characters", MinPasswordLength))
	}
	if in.EAEmail != "" && !validEmail(in.EAEmail) {
		problems = append(problems, "eaEmail is invalid")
	}
	if len(problems) > 0 {
		return nil, apperror.Invalid(problems[0], problems...)
	}

	hash, err := s.passwords.Hash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("service/profile: hashing password: %w", err)
	}

	user := &model.User{
		Name:         in.Name,
		Email:        in.Email,
		PasswordHash: hash,
		EAEmail:      in.EAEmail,
		BookExcerpts: []model.BookExcerpt{},
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		return nil, err
	}

	s.logger.Info("user registered", slog.String("user_id", user.ID))
	return s.issue(user)
}

// Login checks the credentials. Unknown email and wrong password give the
// same answer so the endpoint cannot be used to probe for accounts.
func (s *ProfileService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	invalid := apperror.Unauthorized("Invalid credentials")

	user, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, invalid
		}
		return nil, err
	}
	if err := s.passwords.Verify(user.PasswordHash, password); err != nil {
		return nil, invalid
	}
	return s.issue(user)
}

func (s *ProfileService) issue(user *model.User) (*AuthResult, error) {
	token, err := s.tokens.Generate(user.ID)
	if err != nil {
		return nil, fmt.Errorf("service/profile: generating token for user %s: %w", user.ID, err)
	}
	return &AuthResult{Token: token, User: user}, nil
}

// updatableFields are the only profile keys a client may change. Email and
// password are deliberately absent.
var updatableFields = map[string]bool{
	"name":         true,
	"eaEmail":      true,
	"writingStyle": true,
	"bookExcerpts": true,
}

// UpdateProfile applies a partial update given as raw JSON values keyed by
// field name. Any key outside updatableFields rejects the whole update.
func (s *ProfileService) UpdateProfile(ctx context.Context, user *model.User, fields map[string]json.RawMessage) (*model.User, error) {
	for k := range fields {
		if !updatableFields[k] {
			return nil, apperror.ValidationFailed(k, "Invalid updates!")
		}
	}

	updated := *user
	for k, raw := range fields {
		var err error
		switch k {
		case "name":
			err = json.Unmarshal(raw, &updated.Name)
			updated.Name = strings.TrimSpace(updated.Name)
			if err == nil && updated.Name == "" {
				return nil, apperror.ValidationFailed("name", "name is required")
			}
		case "eaEmail":
			err = json.Unmarshal(raw, &updated.EAEmail)
			updated.EAEmail = strings.TrimSpace(updated.EAEmail)
			if err == nil && updated.EAEmail != "" && !validEmail(updated.EAEmail) {
				return nil, apperror.ValidationFailed("eaEmail", "eaEmail is invalid")
			}
		case "writingStyle":
			err = json.Unmarshal(raw, &updated.WritingStyle)
		case "bookExcerpts":
			updated.BookExcerpts = nil
			err = json.Unmarshal(raw, &updated.BookExcerpts)
			if updated.BookExcerpts == nil {
				updated.BookExcerpts = []model.BookExcerpt{}
			}
		}
		if err != nil {
			return nil, apperror.ValidationFailed(k, fmt.Sprintf("%s has the wrong type", k))
		}
	}

	if err := s.users.UpdateUser(ctx, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

// ExcerptResult is what send-excerpt returns on success.
type ExcerptResult struct {
	Message string              `json:"message"`
	Excerpt *generation.Excerpt `json:"excerpt"`
}

// SendExcerpt asks the provider to pick the stored book excerpt that best
// fits query and mails it to recipient.
func (s *ProfileService) SendExcerpt(ctx context.Context, user *model.User, query, recipient, note string) (*ExcerptResult, error) {
	query, err := requireQuery(query, "A query is required.")
	if err != nil {
		return nil, err
	}
	recipient = strings.TrimSpace(recipient)
	if !validEmail(recipient) {
		return nil, apperror.ValidationFailed("recipient", "A valid recipient email is required.")
	}
	if len(user.BookExcerpts) == 0 {
		return nil, apperror.ValidationFailed("bookExcerpts", "No book excerpts found on your profile.")
	}

	var b strings.Builder
	fmt.Fprintf(&b, "User query: %q\n\nAvailable excerpts:\n", query)
	for i, e := range user.BookExcerpts {
		fmt.Fprintf(&b, "[Excerpt %d: %s]\n%s\n---\n", i+1, e.Title, e.Content)
	}

	var match generation.ExcerptMatch
	if err := s.gen.Generate(ctx, generation.FindExcerpt, b.String(), &match); err != nil {
		return nil, apperror.Upstream("Failed to send book excerpt.", err)
	}
	if !match.Found() {
		return nil, apperror.Missing("Could not find a relevant excerpt for your query.")
	}

	msg, err := mailer.ExcerptMessage(recipient, match.BestMatch.Content, strings.TrimSpace(note))
	if err != nil {
		return nil, fmt.Errorf("service/profile: %w", err)
	}
	if err := s.mail.Send(ctx, msg); err != nil {
		return nil, apperror.Upstream("Failed to send book excerpt.", err)
	}

	s.logger.Info("book excerpt sent", slog.String("user_id", user.ID), slog.String("excerpt", match.BestMatch.Title))
	return &ExcerptResult{
		Message: fmt.Sprintf("Excerpt sent successfully to %s.", recipient),
		Excerpt: match.BestMatch,
	}, nil
}

// validEmail accepts a bare address; "Name <addr>" forms are rejected.
func validEmail(s string) bool {
	a, err := mail.ParseAddress(s)
	return err == nil && a.Address == s
}
