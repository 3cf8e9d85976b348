package client

import (
	authDto "campusbook/internal/domains/auth/model/dto"
	"campusbook/internal/domains/policy"
	"campusbook/internal/domains/user/model/dto"
	"campusbook/shared/failure"
	"campusbook/shared/validator"
	"context"
	"net/http"
	"net/url"
)

// Register creates a student or staff account. It needs no session.
func (c *Client) Register(ctx context.Context, req authDto.RegisterRequest) (dto.UserResponse, error) {
	if err := validator.ValidateStruct(&req); err != nil {
		return dto.UserResponse{}, err // nolint:wrapcheck
	}

	return call[dto.UserResponse](ctx, c, nil, request{method: http.MethodPost, path: "/auth/register", body: req})
}

func (c *Client) ChangePassword(ctx context.Context, sess *Session, req authDto.ChangePasswordRequest) error {
	if err := sess.require(); err != nil {
		return err
	}

	if err := validator.ValidateStruct(&req); err != nil {
		return err // nolint:wrapcheck
	}

	return c.do(ctx, sess, request{method: http.MethodPatch, path: "/auth/password", body: req}, nil)
}

func (c *Client) ListUsers(ctx context.Context, sess *Session, opts ListOptions) (dto.GetUsersResponse, error) {
	if err := sess.require(policy.ManageUsers); err != nil {
		return dto.GetUsersResponse{}, err
	}

	return call[dto.GetUsersResponse](ctx, c, sess, request{method: http.MethodGet, path: "/users", query: opts.values()})
}

func (c *Client) CreateUser(ctx context.Context, sess *Session, req dto.CreateUserRequest) (dto.UserResponse, error) {
	if err := sess.require(policy.ManageUsers); err != nil {
		return dto.UserResponse{}, err
	}

	if err := validator.ValidateStruct(&req); err != nil {
		return dto.UserResponse{}, err // nolint:wrapcheck
	}

	return call[dto.UserResponse](ctx, c, sess, request{method: http.MethodPost, path: "/users", body: req})
}

func (c *Client) SetUserStatus(ctx context.Context, sess *Session, id, status string) error {
	if err := sess.require(policy.ManageUsers); err != nil {
		return err
	}

	req := dto.SetUserStatusRequest{Status: status}
	if err := validator.ValidateStruct(&req); err != nil {
		return err // nolint:wrapcheck
	}

	return c.do(ctx, sess, request{method: http.MethodPatch, path: "/users/" + url.PathEscape(id) + "/status", body: req}, nil)
}

// DeleteUser removes a user and, with them, their bookings. Deleting oneself is refused.
func (c *Client) DeleteUser(ctx context.Context, sess *Session, id string) error {
	if err := sess.require(policy.ManageUsers); err != nil {
		return err
	}

	if sess.owns(id) {
		return failure.BadRequestFromString("you cannot delete your own account") // nolint:wrapcheck
	}

	return c.do(ctx, sess, request{method: http.MethodDelete, path: "/users/" + url.PathEscape(id)}, nil)
}
