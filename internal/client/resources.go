package client

import (
	"campusbook/internal/domains/booking/validation"
	"campusbook/internal/domains/policy"
	"campusbook/internal/domains/resource/model/dto"
	"campusbook/shared/constant"
	"campusbook/shared/failure"
	"context"
	"net/http"
	"net/url"
	"strconv"
)

// ListOptions selects a page and filters a listing. Filters use the query
// parameter names of the endpoint, e.g. "status" or "date_from".
type ListOptions struct {
	Page    int
	Limit   int
	Filters map[string]string
}

func (o ListOptions) values() url.Values {
	values := url.Values{}

	if o.Page > 0 {
		values.Set(constant.RequestParamPage, strconv.Itoa(o.Page))
	}

	if o.Limit > 0 {
		values.Set(constant.RequestParamLimit, strconv.Itoa(o.Limit))
	}

	for key, value := range o.Filters {
		if value != constant.Empty {
			values.Set(key, value)
		}
	}

	return values
}

func (c *Client) ListResources(ctx context.Context, sess *Session, opts ListOptions) (dto.GetResourcesResponse, error) {
	if err := sess.require(); err != nil {
		return dto.GetResourcesResponse{}, err
	}

	return call[dto.GetResourcesResponse](ctx, c, sess, request{method: http.MethodGet, path: "/resources", query: opts.values()})
}

func (c *Client) GetResource(ctx context.Context, sess *Session, id string) (dto.ResourceResponse, error) {
	if err := sess.require(); err != nil {
		return dto.ResourceResponse{}, err
	}

	return call[dto.ResourceResponse](ctx, c, sess, request{method: http.MethodGet, path: "/resources/" + url.PathEscape(id)})
}

func (c *Client) CreateResource(ctx context.Context, sess *Session, req dto.CreateResourceRequest) (dto.ResourceResponse, error) {
	if err := sess.require(policy.ManageResources); err != nil {
		return dto.ResourceResponse{}, err
	}

	return call[dto.ResourceResponse](ctx, c, sess, request{method: http.MethodPost, path: "/resources", body: req})
}

func (c *Client) UpdateResource(ctx context.Context, sess *Session, id string, req dto.UpdateResourceRequest) error {
	if err := sess.require(policy.ManageResources); err != nil {
		return err
	}

	return c.do(ctx, sess, request{method: http.MethodPatch, path: "/resources/" + url.PathEscape(id), body: req}, nil)
}

func (c *Client) SetResourceStatus(ctx context.Context, sess *Session, id, status string) error {
	if err := sess.require(policy.ManageResources, policy.UpdateResourceAvailability); err != nil {
		return err
	}

	return c.do(ctx, sess, request{
		method: http.MethodPatch,
		path:   "/resources/" + url.PathEscape(id) + "/status",
		body:   dto.SetResourceStatusRequest{Status: status},
	}, nil)
}

func (c *Client) DeleteResource(ctx context.Context, sess *Session, id string) error {
	if err := sess.require(policy.ManageResources); err != nil {
		return err
	}

	return c.do(ctx, sess, request{method: http.MethodDelete, path: "/resources/" + url.PathEscape(id)}, nil)
}

// Suggest lists resources able to hold attendees, best fit first.
func (c *Client) Suggest(ctx context.Context, sess *Session, attendees int, exclude string) ([]validation.Suggestion, error) {
	if err := sess.require(); err != nil {
		return nil, err
	}

	if attendees <= 0 {
		return nil, validation.Invalid(validation.RuleAttendeesPositive, "attendees").Err() // nolint:wrapcheck
	}

	query := url.Values{}
	query.Set("attendees", strconv.Itoa(attendees))

	if exclude != constant.Empty {
		query.Set("exclude", exclude)
	}

	return call[[]validation.Suggestion](ctx, c, sess, request{method: http.MethodGet, path: "/resources/suggestions", query: query})
}

func (c *Client) Availability(ctx context.Context, sess *Session, id string, query dto.AvailabilityQuery) (validation.Availability, error) {
	if err := sess.require(); err != nil {
		return validation.Availability{}, err
	}

	window, err := query.Window()
	if err != nil {
		return validation.Availability{}, failure.BadRequest(err) // nolint:wrapcheck
	}

	if !window.WellOrdered() {
		return validation.Availability{}, validation.Invalid(validation.RuleTimeOrder, "end_time").Err() // nolint:wrapcheck
	}

	values := url.Values{}
	values.Set("date", query.Date)
	values.Set("start_time", query.StartTime)
	values.Set("end_time", query.EndTime)

	return call[validation.Availability](ctx, c, sess, request{
		method: http.MethodGet,
		path:   "/resources/" + url.PathEscape(id) + "/availability",
		query:  values,
	})
}
