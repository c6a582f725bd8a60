package restapi

import (
	"context"
	"net/http"

	"github.com/RTBS-ISP/UniPlus-sub000/core"
	"github.com/RTBS-ISP/UniPlus-sub000/core/user"
)

type userRepository struct {
	c *Client
}

var _ user.Repository = (*userRepository)(nil)

func NewUserRepository(c *Client) user.Repository {
	return &userRepository{c: c}
}

func (repo *userRepository) Login(ctx context.Context, creds user.Credentials) (user.User, error) {
	var usr user.User
	if err := repo.c.doJSON(ctx, "login", http.MethodPost, "/login", nil, creds, &usr); err != nil {
		return user.User{}, err
	}
	return usr, nil
}

func (repo *userRepository) Logout(ctx context.Context) error {
	return repo.c.doJSON(ctx, "logout", http.MethodPost, "/logout", nil, nil, nil)
}

func (repo *userRepository) Me(ctx context.Context) (user.User, error) {
	var usr user.User
	if err := repo.c.doJSON(ctx, "me", http.MethodGet, "/me", nil, nil, &usr); err != nil {
		if core.IsAPIStatus(err, http.StatusUnauthorized) || core.IsAPIStatus(err, http.StatusForbidden) {
			return user.User{}, user.ErrNotLoggedIn
		}
		return user.User{}, err
	}
	return usr, nil
}
