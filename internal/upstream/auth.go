package upstream

import (
	"context"
	"net/http"

	"github.com/diewo77/eventdesk/internal/models"
)

const (
	loginPath  = "/logIn"
	signUpPath = "/signUp"
)

// LoginResult is what a successful /logIn yields.
type LoginResult struct {
	Account models.Account
	Token   string
	Cookies []*http.Cookie
}

type loginData struct {
	User  models.Account `json:"user"`
	Token string         `json:"token"`
}

// Login authenticates against the upstream. identifier is an email or a
// username; the upstream accepts either in the email field.
func (c *Client) Login(ctx context.Context, identifier, password string) (*LoginResult, error) {
	var data loginData
	resp, err := c.Do(ctx, Request{
		Method: http.MethodPost,
		Path:   loginPath,
		Body:   map[string]string{"email": identifier, "password": password},
	}, &data)
	if err != nil {
		return nil, err
	}
	return &LoginResult{Account: data.User, Token: data.Token, Cookies: resp.Cookies}, nil
}

// SignUp registers a new account.
func (c *Client) SignUp(ctx context.Context, acc models.Account) (models.Account, error) {
	return Send[models.Account](ctx, c, http.MethodPost, signUpPath, acc)
}
