package user

import (
	"context"
	"errors"
	"sync"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	pkgerrors "github.com/pkg/errors"

	"github.com/RTBS-ISP/UniPlus-sub000/core"
)

var (
	// errors
	ErrNotLoggedIn = errors.New("not logged in")
	ErrForbidden   = errors.New("permission denied")
)

type (
	Repository interface {
		Login(ctx context.Context, creds Credentials) (User, error)
		Logout(ctx context.Context) error
		// Me returns the user the current session cookies belong to.
		Me(ctx context.Context) (User, error)
	}

	// Session holds the current user for the lifetime of a login.
	Session struct {
		repo       Repository
		validate   *validator.Validate
		translator ut.Translator

		mu   sync.RWMutex
		user *User
	}
)

func NewSession(repo Repository, validate *validator.Validate, translator ut.Translator) *Session {
	return &Session{repo: repo, validate: validate, translator: translator}
}

func (s *Session) set(usr *User) {
	s.mu.Lock()
	s.user = usr
	s.mu.Unlock()
}

func (s *Session) Login(ctx context.Context, creds Credentials) (User, error) {
	creds.Username = core.CleanString(creds.Username)
	if err := s.validate.Struct(creds); err != nil {
		return User{}, core.TranslateValidation(err, s.translator)
	}
	usr, err := s.repo.Login(ctx, creds)
	if err != nil {
		return User{}, pkgerrors.Wrap(err, "logging in")
	}
	s.set(&usr)
	return usr, nil
}

// Logout ends the session. Local state is cleared even when the API call fails.
func (s *Session) Logout(ctx context.Context) error {
	defer s.set(nil)
	if err := s.repo.Logout(ctx); err != nil {
		return pkgerrors.Wrap(err, "logging out")
	}
	return nil
}

// Refresh re-reads the current user from the API; an expired session clears the state.
func (s *Session) Refresh(ctx context.Context) (User, error) {
	usr, err := s.repo.Me(ctx)
	if err != nil {
		s.set(nil)
		return User{}, pkgerrors.Wrap(err, "fetching current user")
	}
	s.set(&usr)
	return usr, nil
}

func (s *Session) Current() (User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return User{}, false
	}
	return *s.user, true
}

func (s *Session) RequireUser() (User, error) {
	usr, ok := s.Current()
	if !ok {
		return User{}, ErrNotLoggedIn
	}
	return usr, nil
}

func (s *Session) RequireAdmin() (User, error) {
	usr, err := s.RequireUser()
	if err != nil {
		return User{}, err
	}
	if !usr.IsAdmin() {
		return User{}, ErrForbidden
	}
	return usr, nil
}

func (s *Session) RequireOrganizer() (User, error) {
	usr, err := s.RequireUser()
	if err != nil {
		return User{}, err
	}
	if !usr.IsOrganizer() {
		return User{}, ErrForbidden
	}
	return usr, nil
}
