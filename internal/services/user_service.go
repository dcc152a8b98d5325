package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"moneymind/internal/amqp"
	"moneymind/internal/auth"
	"moneymind/internal/core"
	"moneymind/internal/storage"
)

// bcrypt ignores everything past 72 bytes.
const maxPasswordBytes = 72

type SignupInput struct {
	Name     string
	Email    string
	Password string
}

// ProfileInput replaces every editable profile field.
type ProfileInput struct {
	Name         string
	Email        string
	Phone        string
	Bio          string
	ProfilePhoto string
}

// Session is what a successful signup, login or refresh hands back.
type Session struct {
	User   core.User
	Tokens auth.TokenPair
}

// UserService manages accounts and sessions.
type UserService struct {
	users  storage.UserStore
	hasher *auth.Hasher
	tokens *auth.Tokens
	events events
	clock  clock
}

func NewUserService(users storage.UserStore, hasher *auth.Hasher, tokens *auth.Tokens, pub Publisher) *UserService {
	return &UserService{
		users:  users,
		hasher: hasher,
		tokens: tokens,
		events: events{pub: pub},
		clock:  time.Now,
	}
}

// Signup creates an account and opens a session for it. A taken email
// address yields core.ErrConflict.
func (s *UserService) Signup(ctx context.Context, in SignupInput) (Session, error) {
	u := core.User{
		Name:  strings.TrimSpace(in.Name),
		Email: core.NormalizeEmail(in.Email),
	}
	if err := u.ValidateProfile(); err != nil {
		return Session{}, err
	}
	if err := validatePassword(in.Password); err != nil {
		return Session{}, err
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return Session{}, err
	}
	u.PasswordHash = hash
	u.CreatedAt = s.clock.now()

	created, err := s.users.CreateUser(ctx, u)
	if err != nil {
		return Session{}, fmt.Errorf("create user: %w", err)
	}

	session, err := s.session(created)
	if err != nil {
		return Session{}, err
	}
	s.events.publish(ctx, amqp.KindUserSignedUp, created.ID, created.ID)
	return session, nil
}

// Login checks credentials. An unknown email and a wrong password both
// yield auth.ErrInvalidCredentials.
func (s *UserService) Login(ctx context.Context, email, password string) (Session, error) {
	u, err := s.users.GetUserByEmail(ctx, core.NormalizeEmail(email))
	if errors.Is(err, core.ErrNotFound) {
		return Session{}, auth.ErrInvalidCredentials
	}
	if err != nil {
		return Session{}, fmt.Errorf("get user by email: %w", err)
	}
	if err := s.hasher.Verify(u.PasswordHash, password); err != nil {
		return Session{}, err
	}
	return s.session(u)
}

// Refresh exchanges a refresh token for a new pair. The account must still
// exist.
func (s *UserService) Refresh(ctx context.Context, refreshToken string) (Session, error) {
	id, err := s.tokens.VerifyRefresh(refreshToken)
	if err != nil {
		return Session{}, err
	}
	u, err := s.users.GetUser(ctx, id.UserID)
	if errors.Is(err, core.ErrNotFound) {
		return Session{}, auth.ErrInvalidToken
	}
	if err != nil {
		return Session{}, fmt.Errorf("get user: %w", err)
	}
	return s.session(u)
}

func (s *UserService) Profile(ctx context.Context, userID int64) (core.User, error) {
	u, err := s.users.GetUser(ctx, userID)
	if err != nil {
		return core.User{}, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

func (s *UserService) UpdateProfile(ctx context.Context, userID int64, in ProfileInput) (core.User, error) {
	u := core.User{
		ID:           userID,
		Name:         strings.TrimSpace(in.Name),
		Email:        core.NormalizeEmail(in.Email),
		Phone:        strings.TrimSpace(in.Phone),
		Bio:          strings.TrimSpace(in.Bio),
		ProfilePhoto: strings.TrimSpace(in.ProfilePhoto),
	}
	if err := u.ValidateProfile(); err != nil {
		return core.User{}, err
	}

	updated, err := s.users.UpdateUser(ctx, u)
	if err != nil {
		return core.User{}, fmt.Errorf("update user: %w", err)
	}
	s.events.publish(ctx, amqp.KindProfileUpdated, userID, userID)
	return updated, nil
}

func (s *UserService) session(u core.User) (Session, error) {
	pair, err := s.tokens.Issue(auth.Identity{UserID: u.ID, Email: u.Email})
	if err != nil {
		return Session{}, err
	}
	return Session{User: u, Tokens: pair}, nil
}

func validatePassword(p string) error {
	if len(p) < auth.MinPasswordLength {
		return core.Invalid("password", fmt.Sprintf("must be at least %d characters", auth.MinPasswordLength))
	}
	if len(p) > maxPasswordBytes {
		return core.Invalid("password", fmt.Sprintf("too long (max %d bytes)", maxPasswordBytes))
	}
	return nil
}
