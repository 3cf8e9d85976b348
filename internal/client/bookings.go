package client

import (
	"campusbook/internal/domains/booking/model"
	"campusbook/internal/domains/booking/model/dto"
	"campusbook/internal/domains/booking/validation"
	"campusbook/internal/domains/policy"
	"campusbook/shared/constant"
	"campusbook/shared/failure"
	"campusbook/shared/timezone"
	"campusbook/shared/validator"
	"context"
	"net/http"
	"net/url"
)

// CreateBooking checks the request locally, then submits it. A rejected request
// comes back as a failure whose kind is validation_error, capacity_exceeded or
// slot_conflict; use Suggestions, ConflictOf or ViolationOf to read the payload.
func (c *Client) CreateBooking(ctx context.Context, sess *Session, req dto.CreateBookingRequest) (dto.BookingResponse, error) {
	if err := sess.require(policy.CreateBooking); err != nil {
		return dto.BookingResponse{}, err
	}

	if err := validator.ValidateStruct(&req); err != nil {
		return dto.BookingResponse{}, err // nolint:wrapcheck
	}

	window, violation := req.Window()
	if violation != nil {
		return dto.BookingResponse{}, violationErr(violation)
	}

	if err := c.checkInput(validation.Request{
		ResourceID:    req.ResourceID,
		Window:        window,
		AttendeeCount: req.AttendeeCount,
		Reason:        req.Reason,
	}); err != nil {
		return dto.BookingResponse{}, err
	}

	res, err := call[dto.BookingResult](ctx, c, sess, request{method: http.MethodPost, path: "/bookings", body: req})
	if err != nil {
		return dto.BookingResponse{}, err
	}

	return storedBooking(res)
}

// UpdateBooking edits a pending booking of the caller. current is the booking as
// last read; it is used to refuse edits the server would never allow.
func (c *Client) UpdateBooking(ctx context.Context, sess *Session, current dto.BookingResponse, req dto.UpdateBookingRequest) (dto.BookingResponse, error) {
	if err := sess.require(policy.CreateBooking); err != nil {
		return dto.BookingResponse{}, err
	}

	if req.IsEmpty() {
		return dto.BookingResponse{}, failure.BadRequestFromString("nothing to update") // nolint:wrapcheck
	}

	if err := validator.ValidateStruct(&req); err != nil {
		return dto.BookingResponse{}, err // nolint:wrapcheck
	}

	booking, err := toModel(current)
	if err != nil {
		return dto.BookingResponse{}, err
	}

	if !sess.Policy().CanEdit(booking) {
		if !booking.OwnedBy(sess.Actor.UserID) {
			return dto.BookingResponse{}, failure.ForbiddenError
		}

		return dto.BookingResponse{}, failure.InvalidTransition("only pending bookings can be edited") // nolint:wrapcheck
	}

	edited, violation := req.Apply(booking)
	if violation != nil {
		return dto.BookingResponse{}, violationErr(violation)
	}

	if err := c.checkInput(validation.Request{
		BookingID:     edited.ID,
		ResourceID:    edited.ResourceID,
		Window:        edited.Window(),
		AttendeeCount: edited.AttendeeCount,
		Reason:        edited.Reason,
	}); err != nil {
		return dto.BookingResponse{}, err
	}

	res, err := call[dto.BookingResult](ctx, c, sess, request{method: http.MethodPatch, path: "/bookings/" + url.PathEscape(current.ID), body: req})
	if err != nil {
		return dto.BookingResponse{}, err
	}

	return storedBooking(res)
}

func (c *Client) GetBooking(ctx context.Context, sess *Session, id string) (dto.BookingResponse, error) {
	if err := sess.require(); err != nil {
		return dto.BookingResponse{}, err
	}

	return call[dto.BookingResponse](ctx, c, sess, request{method: http.MethodGet, path: "/bookings/" + url.PathEscape(id)})
}

// ListBookings lists every booking; callers without view_all_bookings are refused locally.
func (c *Client) ListBookings(ctx context.Context, sess *Session, opts ListOptions) (dto.GetBookingsResponse, error) {
	if err := sess.require(policy.ViewAllBookings); err != nil {
		return dto.GetBookingsResponse{}, err
	}

	return call[dto.GetBookingsResponse](ctx, c, sess, request{method: http.MethodGet, path: "/bookings", query: opts.values()})
}

func (c *Client) MyBookings(ctx context.Context, sess *Session, opts ListOptions) (dto.GetBookingsResponse, error) {
	if err := sess.require(policy.CreateBooking); err != nil {
		return dto.GetBookingsResponse{}, err
	}

	return call[dto.GetBookingsResponse](ctx, c, sess, request{method: http.MethodGet, path: "/bookings/mine", query: opts.values()})
}

func (c *Client) UserBookings(ctx context.Context, sess *Session, userID string, opts ListOptions) (dto.GetBookingsResponse, error) {
	if !sess.owns(userID) {
		if err := sess.require(policy.ViewAllBookings); err != nil {
			return dto.GetBookingsResponse{}, err
		}
	}

	return call[dto.GetBookingsResponse](ctx, c, sess, request{
		method: http.MethodGet,
		path:   "/users/" + url.PathEscape(userID) + "/bookings",
		query:  opts.values(),
	})
}

func (c *Client) Approve(ctx context.Context, sess *Session, id string) (dto.BookingResponse, error) {
	if err := sess.require(policy.ApproveBooking); err != nil {
		return dto.BookingResponse{}, err
	}

	return call[dto.BookingResponse](ctx, c, sess, request{method: http.MethodPost, path: "/bookings/" + url.PathEscape(id) + "/approve"})
}

func (c *Client) Reject(ctx context.Context, sess *Session, id, remarks string) (dto.BookingResponse, error) {
	if err := sess.require(policy.RejectBooking); err != nil {
		return dto.BookingResponse{}, err
	}

	req := dto.RejectBookingRequest{Remarks: remarks}
	if err := validator.ValidateStruct(&req); err != nil {
		return dto.BookingResponse{}, err // nolint:wrapcheck
	}

	return call[dto.BookingResponse](ctx, c, sess, request{
		method: http.MethodPost,
		path:   "/bookings/" + url.PathEscape(id) + "/reject",
		body:   req,
	})
}

// Cancel withdraws a pending or approved booking. Ownership is decided by the server.
func (c *Client) Cancel(ctx context.Context, sess *Session, id, remarks string) (dto.BookingResponse, error) {
	if err := sess.require(); err != nil {
		return dto.BookingResponse{}, err
	}

	return call[dto.BookingResponse](ctx, c, sess, request{
		method: http.MethodPost,
		path:   "/bookings/" + url.PathEscape(id) + "/cancel",
		body:   dto.CancelBookingRequest{Remarks: remarks},
	})
}

// BulkApprove approves each id independently; the report lists every item's result.
func (c *Client) BulkApprove(ctx context.Context, sess *Session, ids []string) (dto.BulkApproveResponse, error) {
	if err := sess.require(policy.ApproveBooking); err != nil {
		return dto.BulkApproveResponse{}, err
	}

	req := dto.BulkApproveRequest{IDs: ids}
	if err := validator.ValidateStruct(&req); err != nil {
		return dto.BulkApproveResponse{}, err // nolint:wrapcheck
	}

	return call[dto.BulkApproveResponse](ctx, c, sess, request{method: http.MethodPost, path: "/bookings/approve", body: req})
}

func (c *Client) checkInput(req validation.Request) error {
	return validation.CheckInput(req, timezone.ToAppTime(c.now())).Err() // nolint:wrapcheck
}

func violationErr(violation *validation.Violation) error {
	return validation.Invalid(violation.Rule, violation.Field).Err() // nolint:wrapcheck
}

func storedBooking(res dto.BookingResult) (dto.BookingResponse, error) {
	if res.Booking == nil {
		return dto.BookingResponse{}, failure.NetworkOrServer(http.StatusOK, "booking result carries no booking") // nolint:wrapcheck
	}

	return *res.Booking, nil
}

func toModel(res dto.BookingResponse) (model.Booking, error) {
	status, err := model.ParseStatus(res.Status)
	if err != nil {
		return model.Booking{}, failure.BadRequest(err) // nolint:wrapcheck
	}

	date, err := timezone.Parse(constant.DayFormat, res.BookingDate)
	if err != nil {
		return model.Booking{}, failure.BadRequest(err) // nolint:wrapcheck
	}

	return model.Booking{
		ID:            res.ID,
		UserID:        res.UserID,
		ResourceID:    res.ResourceID,
		BookingDate:   date,
		StartTime:     res.StartTime,
		EndTime:       res.EndTime,
		AttendeeCount: res.AttendeeCount,
		Reason:        res.Reason,
		Status:        status,
	}, nil
}
