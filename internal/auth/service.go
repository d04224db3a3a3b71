// internal/auth/service.go
package auth

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/dgrijalva/jwt-go"
	"golang.org/x/crypto/bcrypt"

	"quiz-engine/internal/account"
	"quiz-engine/internal/models"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidToken       = errors.New("invalid token")
)

const tokenLifetime = 24 * time.Hour

type Service struct {
	users     *account.Repository
	jwtSecret []byte
	now       func() time.Time
}

func NewService(users *account.Repository, jwtSecret string) *Service {
	return &Service{
		users:     users,
		jwtSecret: []byte(jwtSecret),
		now:       time.Now,
	}
}

func (s *Service) Login(ctx context.Context, username, password string) (string, error) {
	user, err := s.users.GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return "", ErrInvalidCredentials
		}
		return "", err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return "", ErrInvalidCredentials
	}
	return s.IssueToken(user)
}

func (s *Service) IssueToken(user *models.User) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id":  user.ID,
		"username": user.Username,
		"exp":      s.now().Add(tokenLifetime).Unix(),
	})
	return token.SignedString(s.jwtSecret)
}

func (s *Service) Register(ctx context.Context, user *models.User) error {
	user.Username = strings.TrimSpace(user.Username)
	if user.DisplayName == "" {
		user.DisplayName = user.Username
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(user.Password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	user.Password = string(hashedPassword)

	if err := s.users.CreateUser(ctx, user); err != nil {
		log.Printf("Error registering user %q: %v", user.Username, err)
		return fmt.Errorf("%w: username %q is not available", models.ErrValidation, user.Username)
	}
	return nil
}
