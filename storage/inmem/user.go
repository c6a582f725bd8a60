package inmemdb

import (
	"context"
	"net/http"

	"github.com/RTBS-ISP/UniPlus-sub000/core"
	"github.com/RTBS-ISP/UniPlus-sub000/core/user"
)

type userRepository struct {
	conn *Conn
}

var _ user.Repository = (*userRepository)(nil) // interface compliance check

func NewUserRepository(conn *Conn) user.Repository {
	return &userRepository{conn: conn}
}

func (repo *userRepository) Login(_ context.Context, creds user.Credentials) (user.User, error) {
	db := repo.conn.db
	db.Lock()
	defer db.Unlock()

	usr, ok := db.users[creds.Username]
	if !ok || usr.password != creds.Password {
		return user.User{}, &core.APIError{StatusCode: http.StatusUnauthorized, Message: "Invalid username or password"}
	}
	token := newToken()
	db.sessions[token] = usr.Username
	repo.conn.setToken(token)
	return usr.User, nil
}

func (repo *userRepository) Logout(context.Context) error {
	db := repo.conn.db
	db.Lock()
	defer db.Unlock()
	delete(db.sessions, repo.conn.Token())
	repo.conn.setToken("")
	return nil
}

func (repo *userRepository) Me(context.Context) (user.User, error) {
	db := repo.conn.db
	db.RLock()
	defer db.RUnlock()
	usr, err := repo.conn.currentLocked()
	if err != nil {
		return user.User{}, user.ErrNotLoggedIn
	}
	return usr.User, nil
}
