// Package services holds the account lifecycle: registration, confirmation,
// login and password management.
package services

import (
	"cashtrackr-server/src/apperr"
	"cashtrackr-server/src/mail"
	"cashtrackr-server/src/models"
	"context"
	"errors"

	db "cashtrackr-server/src/db/sql"
)

var (
	ErrEmailInUse        = apperr.New(apperr.Conflict, "email already in use")
	ErrInvalidToken      = apperr.New(apperr.NotFound, "invalid token")
	ErrAlreadyConfirmed  = apperr.New(apperr.Conflict, "account already confirmed")
	ErrAccountNotFound   = apperr.New(apperr.NotFound, "wrong email or password")
	ErrWrongPassword     = apperr.New(apperr.Unauthorized, "wrong email or password")
	ErrUnconfirmed       = apperr.New(apperr.Forbidden, "account not confirmed yet, check your email")
	ErrEmailNotFound     = apperr.New(apperr.NotFound, "wrong email")
	ErrIncorrectPassword = apperr.New(apperr.Unauthorized, "current password is incorrect")
)

// maxCodeAttempts bounds the search for a code no other account holds.
const maxCodeAttempts = 5

type AccountStore interface {
	GetUserByID(ctx context.Context, id int64) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByToken(ctx context.Context, token string) (*models.User, error)
	CreateUser(ctx context.Context, user *models.User) error
	UpdateProfile(ctx context.Context, id int64, name, email string) error
	UpdatePassword(ctx context.Context, id int64, hash string) error
	SetToken(ctx context.Context, id int64, token *string) error
	ConfirmByToken(ctx context.Context, token string) (int64, error)
	ResetPasswordByToken(ctx context.Context, token, hash string) (int64, error)
}

type Hasher interface {
	Hash(password string) (string, error)
	Compare(password, hash string) (bool, error)
}

type SessionIssuer interface {
	Issue(accountID int64) (string, error)
}

type Mailer interface {
	SendConfirmationEmail(ctx context.Context, msg mail.Message) error
	SendForgotPasswordEmail(ctx context.Context, msg mail.Message) error
}

type AccountService struct {
	store    AccountStore
	hasher   Hasher
	sessions SessionIssuer
	mailer   Mailer
	newCode  func() (string, error)
}

func NewAccountService(store AccountStore, hasher Hasher, sessions SessionIssuer, mailer Mailer, newCode func() (string, error)) *AccountService {
	return &AccountService{
		store:    store,
		hasher:   hasher,
		sessions: sessions,
		mailer:   mailer,
		newCode:  newCode,
	}
}

type RegisterInput struct {
	Name     string
	Email    string
	Password string
}

// Register creates an unconfirmed account and mails it a confirmation code.
func (s *AccountService) Register(ctx context.Context, in RegisterInput) error {
	ctx = context.WithoutCancel(ctx)

	_, err := s.store.GetUserByEmail(ctx, in.Email)
	if err == nil {
		return ErrEmailInUse
	}
	if !errors.Is(err, db.ErrNotFound) {
		return apperr.Wrap(err, "failed to look up email")
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return apperr.Wrap(err, "failed to hash password")
	}
	code, err := s.issueCode(ctx)
	if err != nil {
		return err
	}

	user := &models.User{
		Name:     in.Name,
		Email:    in.Email,
		Password: hash,
		Token:    &code,
	}
	if err := s.store.CreateUser(ctx, user); err != nil {
		if errors.Is(err, db.ErrDuplicate) {
			return ErrEmailInUse
		}
		return apperr.Wrap(err, "failed to create user")
	}

	if err := s.mailer.SendConfirmationEmail(ctx, mail.Message{Name: user.Name, Email: user.Email, Token: code}); err != nil {
		return apperr.Wrap(err, "failed to send confirmation email")
	}
	return nil
}

// ConfirmAccount consumes a confirmation code. When two requests race on the
// same code only one of them succeeds.
func (s *AccountService) ConfirmAccount(ctx context.Context, code string) error {
	ctx = context.WithoutCancel(ctx)

	user, err := s.userByToken(ctx, code)
	if err != nil {
		return err
	}
	if user.Confirmed {
		return ErrAlreadyConfirmed
	}

	if _, err := s.store.ConfirmByToken(ctx, code); err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return ErrInvalidToken
		}
		return apperr.Wrap(err, "failed to confirm user")
	}
	return nil
}

// Login returns a session token. Unknown email and wrong password share one
// message so callers cannot tell which accounts exist.
func (s *AccountService) Login(ctx context.Context, email, password string) (string, error) {
	user, err := s.store.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return "", ErrAccountNotFound
		}
		return "", apperr.Wrap(err, "failed to look up user")
	}

	if err := s.verifyPassword(password, user.Password, ErrWrongPassword); err != nil {
		return "", err
	}
	if !user.Confirmed {
		return "", ErrUnconfirmed
	}

	token, err := s.sessions.Issue(user.ID)
	if err != nil {
		return "", apperr.Wrap(err, "failed to issue session token")
	}
	return token, nil
}

func (s *AccountService) ForgotPassword(ctx context.Context, email string) error {
	ctx = context.WithoutCancel(ctx)

	user, err := s.store.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return ErrEmailNotFound
		}
		return apperr.Wrap(err, "failed to look up user")
	}
	if !user.Confirmed {
		return ErrUnconfirmed
	}

	code, err := s.issueCode(ctx)
	if err != nil {
		return err
	}
	if err := s.store.SetToken(ctx, user.ID, &code); err != nil {
		return apperr.Wrap(err, "failed to store reset code")
	}

	if err := s.mailer.SendForgotPasswordEmail(ctx, mail.Message{Name: user.Name, Email: user.Email, Token: code}); err != nil {
		return apperr.Wrap(err, "failed to send reset email")
	}
	return nil
}

// ValidateToken checks that a reset code is outstanding without consuming it.
func (s *AccountService) ValidateToken(ctx context.Context, code string) error {
	user, err := s.userByToken(ctx, code)
	if err != nil {
		return err
	}
	if !user.Confirmed {
		return ErrUnconfirmed
	}
	return nil
}

func (s *AccountService) ResetPassword(ctx context.Context, code, password string) error {
	ctx = context.WithoutCancel(ctx)

	user, err := s.userByToken(ctx, code)
	if err != nil {
		return err
	}
	if !user.Confirmed {
		return ErrUnconfirmed
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return apperr.Wrap(err, "failed to hash password")
	}
	if _, err := s.store.ResetPasswordByToken(ctx, code, hash); err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return ErrInvalidToken
		}
		return apperr.Wrap(err, "failed to reset password")
	}
	return nil
}

func (s *AccountService) ChangePassword(ctx context.Context, accountID int64, prevPassword, password string) error {
	ctx = context.WithoutCancel(ctx)

	user, err := s.store.GetUserByID(ctx, accountID)
	if err != nil {
		return apperr.Wrap(err, "failed to load user")
	}
	if err := s.verifyPassword(prevPassword, user.Password, ErrIncorrectPassword); err != nil {
		return err
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return apperr.Wrap(err, "failed to hash password")
	}
	if err := s.store.UpdatePassword(ctx, user.ID, hash); err != nil {
		return apperr.Wrap(err, "failed to change password")
	}
	return nil
}

func (s *AccountService) CheckPassword(ctx context.Context, accountID int64, password string) error {
	user, err := s.store.GetUserByID(ctx, accountID)
	if err != nil {
		return apperr.Wrap(err, "failed to load user")
	}
	return s.verifyPassword(password, user.Password, ErrIncorrectPassword)
}

// UpdateProfile changes name and email. The email may stay the same but must
// not belong to another account.
func (s *AccountService) UpdateProfile(ctx context.Context, accountID int64, name, email string) error {
	ctx = context.WithoutCancel(ctx)

	owner, err := s.store.GetUserByEmail(ctx, email)
	switch {
	case err == nil && owner.ID != accountID:
		return ErrEmailInUse
	case err != nil && !errors.Is(err, db.ErrNotFound):
		return apperr.Wrap(err, "failed to look up email")
	}

	if err := s.store.UpdateProfile(ctx, accountID, name, email); err != nil {
		if errors.Is(err, db.ErrDuplicate) {
			return ErrEmailInUse
		}
		return apperr.Wrap(err, "failed to update profile")
	}
	return nil
}

func (s *AccountService) userByToken(ctx context.Context, code string) (*models.User, error) {
	user, err := s.store.GetUserByToken(ctx, code)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, apperr.Wrap(err, "failed to look up token")
	}
	return user, nil
}

func (s *AccountService) verifyPassword(password, hash string, mismatch *apperr.Error) error {
	ok, err := s.hasher.Compare(password, hash)
	if err != nil {
		return apperr.Wrap(err, "failed to compare password")
	}
	if !ok {
		return mismatch
	}
	return nil
}

// issueCode draws codes until one is not held by any account, so a code
// lookup never matches two rows.
func (s *AccountService) issueCode(ctx context.Context) (string, error) {
	for i := 0; i < maxCodeAttempts; i++ {
		code, err := s.newCode()
		if err != nil {
			return "", apperr.Wrap(err, "failed to generate code")
		}
		_, err = s.store.GetUserByToken(ctx, code)
		if errors.Is(err, db.ErrNotFound) {
			return code, nil
		}
		if err != nil {
			return "", apperr.Wrap(err, "failed to check code")
		}
	}
	return "", apperr.Wrap(errors.New("no free code"), "failed to generate code")
}
