// Package service implements the sample application services on top of the
// repository, unit-of-work, and event bus layers.
package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/apiforge/apiforge/pkg/auth"
	"github.com/apiforge/apiforge/pkg/dto"
	"github.com/apiforge/apiforge/pkg/events"
	"github.com/apiforge/apiforge/pkg/model"
	"github.com/apiforge/apiforge/pkg/uow"
)

var (
	// ErrInvalidCredentials is returned for unknown emails and wrong
	// passwords alike, so callers cannot probe which accounts exist.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrEmailTaken is returned when registering a duplicate email.
	ErrEmailTaken = errors.New("email already registered")
)

// UserLoggedIn is published after a successful login.
type UserLoggedIn struct {
	events.BaseEvent
	UserURN string
}

func (UserLoggedIn) EventName() string { return "user.logged_in" }

// UserLoggedOut is published after a logout.
type UserLoggedOut struct {
	events.BaseEvent
	UserURN string
}

func (UserLoggedOut) EventName() string { return "user.logged_out" }

// UserService handles registration and session lifecycle. Login state lives
// in the users table: the authentication middleware only resolves users with
// IsLoggedIn set, so Logout invalidates tokens that are still within their
// signature lifetime.
type UserService struct {
	uow    *uow.UnitOfWork
	tokens *auth.TokenService
	bus    *events.Bus
	logger *zap.Logger
}

// NewUserService wires a user service. The bus may be nil when no
// subscribers exist.
func NewUserService(u *uow.UnitOfWork, tokens *auth.TokenService, bus *events.Bus, logger *zap.Logger) *UserService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if bus == nil {
		bus = events.NewBus()
	}
	return &UserService{uow: u, tokens: tokens, bus: bus, logger: logger}
}

// Register creates a user account with a bcrypt password hash.
func (s *UserService) Register(ctx context.Context, req dto.RegisterRequest) (*dto.UserResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := &model.User{
		Email:        req.Email,
		Name:         req.Name,
		PasswordHash: string(hash),
		IsActive:     true,
	}

	err = s.uow.Execute(ctx, func(ctx context.Context) error {
		db := s.session(ctx)

		var count int64
		if err := db.Model(&model.User{}).Where("email = ?", req.Email).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return ErrEmailTaken
		}
		return db.Create(user).Error
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("user registered", zap.String("user_urn", user.URN))
	resp := presentUser(user)
	return &resp, nil
}

// Login verifies credentials, marks the user logged in, and issues a token.
func (s *UserService) Login(ctx context.Context, req dto.LoginRequest) (*dto.LoginResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	var user model.User
	err := s.uow.Execute(ctx, func(ctx context.Context) error {
		db := s.session(ctx)

		err := db.Where("email = ? AND is_active = ? AND is_deleted = ?", req.Email, true, false).
			First(&user).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrInvalidCredentials
		}
		if err != nil {
			return err
		}

		if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
			return ErrInvalidCredentials
		}

		user.IsLoggedIn = true
		return db.Save(&user).Error
	})
	if err != nil {
		return nil, err
	}

	token, err := s.tokens.Issue(userID(&user), user.URN)
	if err != nil {
		return nil, err
	}

	s.bus.Publish(ctx, UserLoggedIn{BaseEvent: events.NewBaseEvent(), UserURN: user.URN})
	s.logger.Info("user logged in", zap.String("user_urn", user.URN))

	return &dto.LoginResponse{
		Token:     token,
		ExpiresAt: time.Now().Add(s.tokens.TTL()),
		User:      presentUser(&user),
	}, nil
}

// Logout clears the login flag, invalidating outstanding tokens.
func (s *UserService) Logout(ctx context.Context, userURN string) error {
	err := s.uow.Execute(ctx, func(ctx context.Context) error {
		db := s.session(ctx)

		res := db.Model(&model.User{}).
			Where("urn = ? AND is_logged_in = ?", userURN, true).
			Update("is_logged_in", false)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrInvalidCredentials
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.bus.Publish(ctx, UserLoggedOut{BaseEvent: events.NewBaseEvent(), UserURN: userURN})
	s.logger.Info("user logged out", zap.String("user_urn", userURN))
	return nil
}
