package client

import (
	authDto "campusbook/internal/domains/auth/model/dto"
	"campusbook/internal/domains/policy"
	"campusbook/shared/constant"
	"campusbook/shared/failure"
	"campusbook/shared/session"
	"context"
	"net/http"
	"slices"
	"time"
)

// Session is what a signed-in caller carries between calls. Capabilities come from
// the server and are only used to refuse obviously forbidden calls early; the
// server decides every request again on its own.
type Session struct {
	AccessToken  string              `json:"access_token"`
	RefreshToken string              `json:"refresh_token"`
	ExpiresAt    time.Time           `json:"expires_at"`
	Actor        session.Actor       `json:"actor"`
	Capabilities []policy.Capability `json:"capabilities"`
}

func (s *Session) Valid() bool {
	return s != nil && s.AccessToken != constant.Empty
}

func (s *Session) Can(capability policy.Capability) bool {
	return s.Valid() && slices.Contains(s.Capabilities, capability)
}

// Policy is the session's capability set, for the same lifecycle questions the
// server asks.
func (s *Session) Policy() policy.Capabilities {
	if !s.Valid() {
		return policy.Of(session.Actor{})
	}

	return policy.Of(s.Actor, s.Capabilities...)
}

// require fails locally when the session is missing or lacks every listed capability.
func (s *Session) require(capabilities ...policy.Capability) error {
	if !s.Valid() {
		return failure.Unauthorized("not signed in") // nolint:wrapcheck
	}

	if len(capabilities) > 0 && !slices.ContainsFunc(capabilities, s.Can) {
		return failure.ForbiddenError
	}

	return nil
}

func (s *Session) owns(userID string) bool {
	return s.Valid() && s.Actor.UserID == userID
}

// Login signs in and loads the caller's capabilities into a new Session.
func (c *Client) Login(ctx context.Context, email, password string) (*Session, error) {
	res, err := call[authDto.LoginResponse](ctx, c, nil, request{
		method: http.MethodPost,
		path:   "/auth/login",
		body:   authDto.LoginRequest{Email: email, Password: password},
	})
	if err != nil {
		return nil, err
	}

	sess := &Session{
		Actor: session.Actor{
			UserID: res.User.ID,
			Email:  res.User.Email,
			Name:   res.User.Name,
			Role:   res.User.Role,
		},
	}
	sess.apply(res.TokenResponse, c.now())

	if err := c.loadCapabilities(ctx, sess); err != nil {
		return nil, err
	}

	return sess, nil
}

// Refresh trades the refresh token for a new pair and reloads capabilities, which
// may have changed with the user's role.
func (c *Client) Refresh(ctx context.Context, sess *Session) error {
	if sess == nil || sess.RefreshToken == constant.Empty {
		return failure.Unauthorized("no refresh token") // nolint:wrapcheck
	}

	res, err := call[authDto.TokenResponse](ctx, c, nil, request{
		method: http.MethodPost,
		path:   "/auth/refresh-token",
		body:   authDto.RefreshTokenRequest{RefreshToken: sess.RefreshToken},
	})
	if err != nil {
		return err
	}

	sess.apply(res, c.now())

	return c.loadCapabilities(ctx, sess)
}

// Logout revokes the access token on the server and clears sess.
func (c *Client) Logout(ctx context.Context, sess *Session) error {
	if err := sess.require(); err != nil {
		return err
	}

	if err := c.do(ctx, sess, request{method: http.MethodPost, path: "/auth/logout"}, nil); err != nil {
		return err
	}

	*sess = Session{}

	return nil
}

func (c *Client) Me(ctx context.Context, sess *Session) (authDto.SessionResponse, error) {
	if err := sess.require(); err != nil {
		return authDto.SessionResponse{}, err
	}

	return call[authDto.SessionResponse](ctx, c, sess, request{method: http.MethodGet, path: "/auth/me"})
}

func (c *Client) loadCapabilities(ctx context.Context, sess *Session) error {
	me, err := c.Me(ctx, sess)
	if err != nil {
		return err
	}

	sess.Actor.UserID = me.UserID
	sess.Actor.Email = me.Email
	sess.Actor.Role = me.Role
	sess.Capabilities = make([]policy.Capability, len(me.Capabilities))

	for i, capability := range me.Capabilities {
		sess.Capabilities[i] = policy.Capability(capability)
	}

	return nil
}

func (s *Session) apply(tokens authDto.TokenResponse, now time.Time) {
	s.AccessToken = tokens.AccessToken
	s.RefreshToken = tokens.RefreshToken
	s.ExpiresAt = now.Add(time.Duration(tokens.ExpiresIn) * time.Second)
}
