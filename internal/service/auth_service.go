package service

import (
	"context"
	"database/sql"

	"github.com/leoli101/flight-reservation/internal/model"
	"github.com/leoli101/flight-reservation/internal/repository"
	"github.com/leoli101/flight-reservation/internal/session"
	"github.com/leoli101/flight-reservation/internal/txn"
	"github.com/leoli101/flight-reservation/internal/utils"
)

// AuthService implements account creation and login.
type AuthService struct {
	users *repository.UserRepo
	coord *txn.Coordinator
}

// NewAuthService builds an AuthService.
func NewAuthService(users *repository.UserRepo, coord *txn.Coordinator) *AuthService {
	return &AuthService{users: users, coord: coord}
}

// CreateAccount registers a new user with the given starting balance. The
// existence check and the insert share one transaction so two concurrent
// creations of the same name cannot both succeed. Returns ErrInvalidAmount
// for a negative balance and ErrDuplicateUser for a taken username.
func (s *AuthService) CreateAccount(ctx context.Context, username, password string, initAmount int) error {
	if initAmount < 0 {
		return ErrInvalidAmount
	}
	salt, err := utils.NewSalt()
	if err != nil {
		return err
	}
	user := model.User{
		Username:     username,
		PasswordHash: utils.HashPassword(password, salt),
		Salt:         salt,
		Balance:      initAmount,
	}
	err = s.coord.Run(ctx, func(tx *sql.Tx) error {
		return s.users.InsertTx(ctx, tx, user)
	})
	if err == repository.ErrUserExists {
		return ErrDuplicateUser
	}
	return err
}

// Login verifies the password against the stored salted hash and binds the
// identity to the session. A session that is already logged in is rejected
// with ErrAlreadyLoggedIn and keeps its current identity.
func (s *AuthService) Login(ctx context.Context, sess *session.Session, username, password string) error {
	if sess.LoggedIn() {
		return ErrAlreadyLoggedIn
	}
	user, err := s.users.Get(ctx, username)
	if err == sql.ErrNoRows {
		return ErrUserNotFound
	}
	if err != nil {
		return err
	}
	if !utils.VerifyPassword(user.PasswordHash, user.Salt, password) {
		return ErrBadCredentials
	}
	sess.SetIdentity(user.Username)
	return nil
}
