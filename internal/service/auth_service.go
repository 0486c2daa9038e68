package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"go-printshop-ws/internal/model"
	"go-printshop-ws/internal/repository"
	"go-printshop-ws/pkg/jwt"
)

var (
	ErrWrongPassword   = errors.New("current password is incorrect")
	ErrSessionReplaced = errors.New("session expired (logged in on another device)")
)

type AuthService interface {
	Login(email, password string) (*LoginResponse, error)
	ResetPassword(email, oldPassword, newPassword string) error
	ValidateToken(tokenString string) (*model.User, error)
	EnsureAdmin(email, password, fullName string) (*model.User, bool, error)
}

type LoginResponse struct {
	Token string             `json:"token"`
	User  model.UserResponse `json:"user"`
}

type authService struct {
	userRepo repository.UserRepository
	signer   *jwt.Signer
	log      *zap.Logger
}

func NewAuthService(userRepo repository.UserRepository, signer *jwt.Signer, log *zap.Logger) AuthService {
	return &authService{
		userRepo: userRepo,
		signer:   signer,
		log:      log,
	}
}

func (s *authService) Login(email, password string) (*LoginResponse, error) {
	user, err := s.userRepo.FindByEmail(email)
	if err != nil {
		return nil, ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, ErrUserInactive
	}
	if !user.CheckPassword(password) {
		return nil, ErrInvalidCredentials
	}

	// single session: a new version invalidates older tokens
	version := uuid.New().String()
	if err := s.userRepo.UpdateTokenVersion(user.ID, version); err != nil {
		return nil, fmt.Errorf("update session: %w", err)
	}
	if err := s.userRepo.UpdateLastSeen(user.ID); err != nil {
		s.log.Warn("update last seen failed", zap.String("user_id", user.ID.String()), zap.Error(err))
	}
	now := time.Now().UTC()
	user.LastSeenAt = &now

	token, err := s.signer.GenerateToken(user.ID, user.Email, user.FullName, version)
	if err != nil {
		return nil, fmt.Errorf("generate token: %w", err)
	}

	s.log.Info("user logged in", zap.String("user_id", user.ID.String()))
	return &LoginResponse{Token: token, User: user.ToResponse()}, nil
}

func (s *authService) ResetPassword(email, oldPassword, newPassword string) error {
	user, err := s.userRepo.FindByEmail(email)
	if err != nil {
		return ErrInvalidCredentials
	}
	if !user.CheckPassword(oldPassword) {
		return ErrWrongPassword
	}
	if err := user.SetPassword(newPassword); err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := s.userRepo.UpdatePassword(user.ID, user.Password); err != nil {
		return err
	}
	return s.userRepo.UpdateTokenVersion(user.ID, uuid.New().String())
}

func (s *authService) ValidateToken(tokenString string) (*model.User, error) {
	claims, err := s.signer.ValidateToken(tokenString)
	if err != nil {
		return nil, err
	}
	user, err := s.userRepo.FindByID(claims.UserID)
	if err != nil {
		return nil, jwt.ErrInvalidToken
	}
	if !user.IsActive {
		return nil, ErrUserInactive
	}
	if user.TokenVersion != claims.TokenVersion {
		return nil, ErrSessionReplaced
	}
	return user, nil
}

// EnsureAdmin creates the bootstrap account when no user has the email.
// It reports whether a user was created.
func (s *authService) EnsureAdmin(email, password, fullName string) (*model.User, bool, error) {
	existing, err := s.userRepo.FindByEmail(email)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, err
	}

	user := &model.User{Email: email, FullName: fullName, IsActive: true}
	if err := user.SetPassword(password); err != nil {
		return nil, false, fmt.Errorf("hash password: %w", err)
	}
	user.CreatedBy = "system"
	if err := s.userRepo.Create(user); err != nil {
		return nil, false, err
	}
	s.log.Info("admin user created", zap.String("email", email))
	return user, true, nil
}
