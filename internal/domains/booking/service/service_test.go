package service_test

import (
	"campusbook/config"
	kafkaMocks "campusbook/infras/kafka/mocks"
	"campusbook/infras/otel/mocks"
	bookingMocks "campusbook/internal/domains/booking/mocks"
	"campusbook/internal/domains/booking/model"
	"campusbook/internal/domains/booking/model/dto"
	"campusbook/internal/domains/booking/service"
	"campusbook/internal/domains/booking/validation"
	validationMocks "campusbook/internal/domains/booking/validation/mocks"
	"campusbook/internal/domains/policy"
	userMocks "campusbook/internal/domains/user/mocks"
	userModel "campusbook/internal/domains/user/model"
	cacheMocks "campusbook/shared/cache/mocks"
	"campusbook/shared/constant"
	gDto "campusbook/shared/dto"
	"campusbook/shared/failure"
	"campusbook/shared/session"
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

var (
	admin   = session.Actor{UserID: "admin-1", Role: constant.RoleAdmin}
	staff   = session.Actor{UserID: "staff-1", Role: constant.RoleStaff}
	student = session.Actor{UserID: "student-1", Role: constant.RoleStudent}
)

type fixture struct {
	repo      *bookingMocks.MockBooking
	users     *userMocks.MockUser
	validator *validationMocks.MockValidator
	kafka     *kafkaMocks.MockClient
	cache     *cacheMocks.MockRedisCache
	svc       service.Booking
}

func newFixture(t *testing.T, configure ...func(cfg *config.Config)) fixture {
	t.Helper()

	f := newStrictCacheFixture(t, configure...)

	f.cache.EXPECT().Save(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(nil).AnyTimes()
	f.cache.EXPECT().Delete(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()
	f.cache.EXPECT().Clear(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()

	return f
}

// newStrictCacheFixture leaves every cache call to the test's own expectations.
func newStrictCacheFixture(t *testing.T, configure ...func(cfg *config.Config)) fixture {
	t.Helper()

	ctrl := gomock.NewController(t)

	cfg := &config.Config{}
	cfg.Cache.TTL = 3600
	cfg.Booking.BulkConcurrency = 2
	cfg.Kafka.Topics.BookingEvents = "booking.events"

	for _, fn := range configure {
		fn(cfg)
	}

	pol, err := policy.New(cfg)
	require.NoError(t, err)

	f := fixture{
		repo:      bookingMocks.NewMockBooking(ctrl),
		users:     userMocks.NewMockUser(ctrl),
		validator: validationMocks.NewMockValidator(ctrl),
		kafka:     kafkaMocks.NewMockClient(ctrl),
		cache:     cacheMocks.NewMockRedisCache(ctrl),
	}

	f.svc = service.New(f.repo, f.users, f.validator, pol, f.kafka, cfg, f.cache, mocks.NewOtel())

	return f
}

func (f fixture) activeOwner(id string) {
	f.users.EXPECT().Get(gomock.Any(), gomock.Any()).Return(userModel.User{ID: id, Status: constant.UserStatusActive}, nil)
}

func (f fixture) allowEvents() {
	f.kafka.EXPECT().SendMessages(gomock.Any(), "booking.events", gomock.Any()).Return(nil).AnyTimes()
}

func pending(id, owner string) model.Booking {
	return model.Booking{
		ID:            id,
		UserID:        owner,
		ResourceID:    "r-1",
		BookingDate:   time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC),
		StartTime:     model.NewClock(10, 0),
		EndTime:       model.NewClock(12, 0),
		AttendeeCount: 10,
		Reason:        "study group",
		Status:        model.StatusPending,
	}
}

func filterValue(filter gDto.FilterGroup, index int) any {
	return filter.Filters[index].(gDto.Filter).Value
}

func createRequest() dto.CreateBookingRequest {
	return dto.CreateBookingRequest{
		ResourceID:    "r-1",
		BookingDate:   "2025-03-01",
		StartTime:     "10:00",
		EndTime:       "12:00",
		AttendeeCount: 10,
		Reason:        "study group",
	}
}

func TestBookingService_Create(t *testing.T) {
	t.Run("student booking starts pending", func(t *testing.T) {
		f := newFixture(t)
		f.activeOwner(student.UserID)
		f.allowEvents()

		f.validator.EXPECT().
			Validate(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, req validation.Request) (validation.Outcome, error) {
				assert.Equal(t, "r-1", req.ResourceID)
				assert.Equal(t, 10, req.AttendeeCount)
				assert.Equal(t, "10:00", req.Window.Start.String())
				assert.Empty(t, req.BookingID)

				return validation.Admissible(), nil
			})
		f.repo.EXPECT().
			Insert(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, booking model.Booking) error {
				assert.Equal(t, model.StatusPending, booking.Status)
				assert.Equal(t, student.UserID, booking.UserID)
				assert.Empty(t, booking.DecidedBy)

				return nil
			})

		res, err := f.svc.Create(context.Background(), student, createRequest())
		time.Sleep(10 * time.Millisecond)

		require.NoError(t, err)
		require.True(t, res.Accepted())
		assert.Equal(t, dto.OutcomeCreated, res.Outcome)
		assert.Equal(t, "pending", res.Booking.Status)
		assert.Equal(t, "2025-03-01", res.Booking.BookingDate)
		assert.NoError(t, res.Err())
	})

	t.Run("admin booking starts pending by default", func(t *testing.T) {
		f := newFixture(t)
		f.activeOwner(admin.UserID)
		f.allowEvents()

		f.validator.EXPECT().Validate(gomock.Any(), gomock.Any()).Return(validation.Admissible(), nil)
		f.repo.EXPECT().
			Insert(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, booking model.Booking) error {
				assert.Equal(t, model.StatusPending, booking.Status)
				assert.Empty(t, booking.DecidedBy)
				assert.Nil(t, booking.DecidedAt)

				return nil
			})

		res, err := f.svc.Create(context.Background(), admin, createRequest())
		time.Sleep(10 * time.Millisecond)

		require.NoError(t, err)
		assert.Equal(t, "pending", res.Booking.Status)
	})

	t.Run("admin booking is approved at creation when granted", func(t *testing.T) {
		f := newFixture(t, func(cfg *config.Config) { cfg.Policy.AdminAutoApprove = true })
		f.activeOwner(admin.UserID)
		f.allowEvents()

		f.validator.EXPECT().Validate(gomock.Any(), gomock.Any()).Return(validation.Admissible(), nil)
		f.repo.EXPECT().
			Insert(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, booking model.Booking) error {
				assert.Equal(t, model.StatusApproved, booking.Status)
				assert.Equal(t, admin.UserID, booking.DecidedBy)
				assert.NotNil(t, booking.DecidedAt)

				return nil
			})

		res, err := f.svc.Create(context.Background(), admin, createRequest())
		time.Sleep(10 * time.Millisecond)

		require.NoError(t, err)
		assert.Equal(t, "approved", res.Booking.Status)
	})

	t.Run("staff auto approval follows the policy flag", func(t *testing.T) {
		for _, flag := range []bool{false, true} {
			f := newFixture(t, func(cfg *config.Config) { cfg.Policy.StaffAutoApprove = flag })
			f.activeOwner(staff.UserID)
			f.allowEvents()

			want := model.StatusPending
			if flag {
				want = model.StatusApproved
			}

			f.validator.EXPECT().Validate(gomock.Any(), gomock.Any()).Return(validation.Admissible(), nil)
			f.repo.EXPECT().Insert(gomock.Any(), gomock.Any()).Return(nil)

			res, err := f.svc.Create(context.Background(), staff, createRequest())
			time.Sleep(10 * time.Millisecond)

			require.NoError(t, err)
			assert.Equal(t, want.String(), res.Booking.Status)
		}
	})

	t.Run("capacity exceeded never stores the booking", func(t *testing.T) {
		f := newFixture(t)
		f.activeOwner(student.UserID)

		suggestions := []validation.Suggestion{{ResourceID: "r-2", Name: "R2", Capacity: 25, Surplus: 0}}
		f.validator.EXPECT().Validate(gomock.Any(), gomock.Any()).Return(validation.OverCapacity(suggestions), nil)

		res, err := f.svc.Create(context.Background(), student, createRequest())

		require.NoError(t, err)
		assert.False(t, res.Accepted())
		assert.Equal(t, string(validation.KindCapacityExceeded), res.Outcome)
		assert.Equal(t, suggestions, res.Suggestions)
		assert.Equal(t, failure.KindCapacityExceeded, failure.GetKind(res.Err()))
	})

	t.Run("malformed time is a validation error", func(t *testing.T) {
		f := newFixture(t)
		f.activeOwner(student.UserID)

		req := createRequest()
		req.EndTime = "noon"

		res, err := f.svc.Create(context.Background(), student, req)

		require.NoError(t, err)
		require.NotNil(t, res.Violation)
		assert.Equal(t, validation.RuleTimeFormat, res.Violation.Rule)
		assert.Equal(t, "end_time", res.Violation.Field)
	})

	t.Run("database exclusion violation becomes slot conflict", func(t *testing.T) {
		f := newFixture(t)
		f.activeOwner(student.UserID)

		f.validator.EXPECT().Validate(gomock.Any(), gomock.Any()).Return(validation.Admissible(), nil)
		f.repo.EXPECT().Insert(gomock.Any(), gomock.Any()).Return(&pq.Error{Code: constant.PqErrorCodeExclusionViolation})

		res, err := f.svc.Create(context.Background(), student, createRequest())

		require.NoError(t, err)
		assert.Equal(t, string(validation.KindSlotConflict), res.Outcome)
		assert.Equal(t, "2025-03-01", res.Conflict.Date)
		assert.Equal(t, failure.KindSlotConflict, failure.GetKind(res.Err()))
	})

	t.Run("inactive account", func(t *testing.T) {
		f := newFixture(t)
		f.users.EXPECT().Get(gomock.Any(), gomock.Any()).Return(userModel.User{ID: student.UserID, Status: constant.UserStatusInactive}, nil)

		_, err := f.svc.Create(context.Background(), student, createRequest())

		assert.Equal(t, failure.KindForbidden, failure.GetKind(err))
	})

	t.Run("anonymous actor", func(t *testing.T) {
		f := newFixture(t)

		_, err := f.svc.Create(context.Background(), session.Actor{}, createRequest())

		assert.Equal(t, failure.KindForbidden, failure.GetKind(err))
	})

	t.Run("validator error", func(t *testing.T) {
		f := newFixture(t)
		f.activeOwner(student.UserID)

		f.validator.EXPECT().Validate(gomock.Any(), gomock.Any()).Return(validation.Outcome{}, errors.New("database error"))

		_, err := f.svc.Create(context.Background(), student, createRequest())

		assert.Error(t, err)
	})
}

func TestBookingService_Approve(t *testing.T) {
	t.Run("admin approves pending booking", func(t *testing.T) {
		f := newFixture(t)
		f.allowEvents()

		f.repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(pending("b-1", student.UserID), nil)
		f.repo.EXPECT().
			UpdateAffected(gomock.Any(), gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, fields map[string]any, filter gDto.FilterGroup) (int64, error) {
				assert.Equal(t, model.StatusApproved, fields[model.FieldStatus])
				assert.Equal(t, admin.UserID, fields[model.FieldDecidedBy])
				assert.Equal(t, "b-1", filterValue(filter, 0))
				assert.Equal(t, []model.Status{model.StatusPending}, filterValue(filter, 1))

				return 1, nil
			})

		res, err := f.svc.Approve(context.Background(), admin, "b-1")
		time.Sleep(10 * time.Millisecond)

		require.NoError(t, err)
		assert.Equal(t, "approved", res.Status)
		assert.Equal(t, admin.UserID, res.DecidedBy)
	})

	t.Run("cached reads and stats are dropped before returning", func(t *testing.T) {
		f := newStrictCacheFixture(t)
		f.allowEvents()

		var deleted, cleared atomic.Bool

		f.repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(pending("b-1", student.UserID), nil)
		f.repo.EXPECT().UpdateAffected(gomock.Any(), gomock.Any(), gomock.Any()).Return(int64(1), nil)
		f.cache.EXPECT().
			Delete(gomock.Any(), constant.CachePrefixBooking+"get:b-1").
			DoAndReturn(func(context.Context, string) error {
				deleted.Store(true)

				return nil
			})
		f.cache.EXPECT().
			Clear(gomock.Any(), constant.CachePrefixBooking+"*").
			DoAndReturn(func(context.Context, string) error {
				cleared.Store(true)

				return nil
			})

		_, err := f.svc.Approve(context.Background(), admin, "b-1")

		require.NoError(t, err)
		assert.True(t, deleted.Load())
		assert.True(t, cleared.Load())
	})

	t.Run("owner without approval rights is forbidden", func(t *testing.T) {
		f := newFixture(t)

		f.repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(pending("b-1", student.UserID), nil)

		_, err := f.svc.Approve(context.Background(), student, "b-1")

		assert.Equal(t, failure.KindForbidden, failure.GetKind(err))
	})

	t.Run("other student's booking is hidden", func(t *testing.T) {
		f := newFixture(t)

		f.repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(pending("b-1", "student-2"), nil)

		_, err := f.svc.Approve(context.Background(), student, "b-1")

		assert.Equal(t, failure.KindNotFound, failure.GetKind(err))
	})

	t.Run("staff may approve when granted", func(t *testing.T) {
		f := newFixture(t, func(cfg *config.Config) { cfg.Policy.StaffCanApprove = true })
		f.allowEvents()

		f.repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(pending("b-1", student.UserID), nil)
		f.repo.EXPECT().UpdateAffected(gomock.Any(), gomock.Any(), gomock.Any()).Return(int64(1), nil)

		_, err := f.svc.Approve(context.Background(), staff, "b-1")
		time.Sleep(10 * time.Millisecond)

		assert.NoError(t, err)
	})

	t.Run("lost race is an invalid transition", func(t *testing.T) {
		f := newFixture(t)

		f.repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(pending("b-1", student.UserID), nil)
		f.repo.EXPECT().UpdateAffected(gomock.Any(), gomock.Any(), gomock.Any()).Return(int64(0), nil)

		_, err := f.svc.Approve(context.Background(), admin, "b-1")

		assert.Equal(t, failure.KindInvalidTransition, failure.GetKind(err))
	})

	t.Run("missing booking", func(t *testing.T) {
		f := newFixture(t)

		f.repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(model.Booking{}, nil)

		_, err := f.svc.Approve(context.Background(), admin, "b-404")

		assert.Equal(t, failure.KindNotFound, failure.GetKind(err))
	})
}

func TestBookingService_TerminalStates(t *testing.T) {
	for _, status := range []model.Status{model.StatusRejected, model.StatusCancelled} {
		t.Run(status.String(), func(t *testing.T) {
			f := newFixture(t)

			booking := pending("b-1", student.UserID)
			booking.Status = status

			f.repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(booking, nil).Times(3)

			_, err := f.svc.Approve(context.Background(), admin, "b-1")
			assert.Equal(t, failure.KindInvalidTransition, failure.GetKind(err))

			_, err = f.svc.Reject(context.Background(), admin, dto.RejectBookingRequest{Remarks: "no"}, "b-1")
			assert.Equal(t, failure.KindInvalidTransition, failure.GetKind(err))

			_, err = f.svc.Cancel(context.Background(), student, dto.CancelBookingRequest{}, "b-1")
			assert.Equal(t, failure.KindInvalidTransition, failure.GetKind(err))
		})
	}
}

func TestBookingService_Reject(t *testing.T) {
	t.Run("remarks are required", func(t *testing.T) {
		f := newFixture(t)

		_, err := f.svc.Reject(context.Background(), admin, dto.RejectBookingRequest{Remarks: "  "}, "b-1")

		assert.Equal(t, failure.KindValidation, failure.GetKind(err))
	})

	t.Run("stores remarks", func(t *testing.T) {
		f := newFixture(t)
		f.allowEvents()

		f.repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(pending("b-1", student.UserID), nil)
		f.repo.EXPECT().
			UpdateAffected(gomock.Any(), gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, fields map[string]any, _ gDto.FilterGroup) (int64, error) {
				assert.Equal(t, "room double booked", fields[model.FieldRemarks])

				return 1, nil
			})

		res, err := f.svc.Reject(context.Background(), admin, dto.RejectBookingRequest{Remarks: "room double booked"}, "b-1")
		time.Sleep(10 * time.Millisecond)

		require.NoError(t, err)
		assert.Equal(t, "rejected", res.Status)
		assert.Equal(t, "room double booked", res.Remarks)
	})
}

func TestBookingService_Cancel(t *testing.T) {
	t.Run("owner cancels approved booking", func(t *testing.T) {
		f := newFixture(t)
		f.allowEvents()

		booking := pending("b-1", student.UserID)
		booking.Status = model.StatusApproved

		f.repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(booking, nil)
		f.repo.EXPECT().
			UpdateAffected(gomock.Any(), gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, fields map[string]any, filter gDto.FilterGroup) (int64, error) {
				assert.Contains(t, fields, model.FieldCancelledAt)
				assert.ElementsMatch(t, []model.Status{model.StatusPending, model.StatusApproved}, filterValue(filter, 1))

				return 1, nil
			})

		res, err := f.svc.Cancel(context.Background(), student, dto.CancelBookingRequest{}, "b-1")
		time.Sleep(10 * time.Millisecond)

		require.NoError(t, err)
		assert.Equal(t, "cancelled", res.Status)
		assert.NotNil(t, res.CancelledAt)
	})

	t.Run("staff cannot cancel someone else's booking", func(t *testing.T) {
		f := newFixture(t)

		f.repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(pending("b-1", student.UserID), nil)

		_, err := f.svc.Cancel(context.Background(), staff, dto.CancelBookingRequest{}, "b-1")

		assert.Equal(t, failure.KindForbidden, failure.GetKind(err))
	})

	t.Run("cancel is not repeatable", func(t *testing.T) {
		f := newFixture(t)

		booking := pending("b-1", student.UserID)
		booking.Status = model.StatusCancelled

		f.repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(booking, nil)

		_, err := f.svc.Cancel(context.Background(), student, dto.CancelBookingRequest{}, "b-1")

		assert.Equal(t, failure.KindInvalidTransition, failure.GetKind(err))
	})
}

func TestBookingService_Update(t *testing.T) {
	start := "11:00"

	t.Run("re-validates excluding itself", func(t *testing.T) {
		f := newFixture(t)
		f.allowEvents()

		f.repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(pending("b-1", student.UserID), nil)
		f.validator.EXPECT().
			Validate(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, req validation.Request) (validation.Outcome, error) {
				assert.Equal(t, "b-1", req.BookingID)
				assert.Equal(t, "11:00", req.Window.Start.String())
				assert.Equal(t, "12:00", req.Window.End.String())

				return validation.Admissible(), nil
			})
		f.repo.EXPECT().
			UpdateAffected(gomock.Any(), gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, fields map[string]any, filter gDto.FilterGroup) (int64, error) {
				assert.Equal(t, model.NewClock(11, 0), fields[model.FieldStartTime])
				assert.Equal(t, student.UserID, filterValue(filter, 2))

				return 1, nil
			})

		res, err := f.svc.Update(context.Background(), student, dto.UpdateBookingRequest{StartTime: start}, "b-1")
		time.Sleep(10 * time.Millisecond)

		require.NoError(t, err)
		assert.Equal(t, dto.OutcomeUpdated, res.Outcome)
	})

	t.Run("edit into conflict is rejected", func(t *testing.T) {
		f := newFixture(t)

		f.repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(pending("b-1", student.UserID), nil)
		f.validator.EXPECT().
			Validate(gomock.Any(), gomock.Any()).
			Return(validation.Conflicting(validation.Conflict{BookingID: "b-2", ResourceID: "r-1", Date: "2025-03-01"}), nil)

		res, err := f.svc.Update(context.Background(), student, dto.UpdateBookingRequest{StartTime: start}, "b-1")

		require.NoError(t, err)
		assert.Equal(t, string(validation.KindSlotConflict), res.Outcome)
		assert.Equal(t, "b-2", res.Conflict.BookingID)
	})

	t.Run("approved booking cannot be edited", func(t *testing.T) {
		f := newFixture(t)

		booking := pending("b-1", student.UserID)
		booking.Status = model.StatusApproved

		f.repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(booking, nil)

		_, err := f.svc.Update(context.Background(), student, dto.UpdateBookingRequest{StartTime: start}, "b-1")

		assert.Equal(t, failure.KindInvalidTransition, failure.GetKind(err))
	})

	t.Run("only the owner edits", func(t *testing.T) {
		f := newFixture(t)

		f.repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(pending("b-1", student.UserID), nil)

		_, err := f.svc.Update(context.Background(), admin, dto.UpdateBookingRequest{StartTime: start}, "b-1")

		assert.Equal(t, failure.KindForbidden, failure.GetKind(err))
	})

	t.Run("empty edit", func(t *testing.T) {
		f := newFixture(t)

		_, err := f.svc.Update(context.Background(), student, dto.UpdateBookingRequest{}, "b-1")

		assert.Equal(t, failure.KindValidation, failure.GetKind(err))
	})
}

func TestBookingService_BulkApprove(t *testing.T) {
	t.Run("reports each item independently", func(t *testing.T) {
		f := newFixture(t)
		f.allowEvents()

		f.repo.EXPECT().
			Get(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, filter gDto.FilterGroup, _ ...string) (model.Booking, error) {
				id, _ := filterValue(filter, 0).(string)

				switch id {
				case "b-missing":
					return model.Booking{}, nil
				case "b-rejected":
					booking := pending(id, student.UserID)
					booking.Status = model.StatusRejected

					return booking, nil
				default:
					return pending(id, student.UserID), nil
				}
			}).
			Times(4)

		var updates atomic.Int32

		f.repo.EXPECT().
			UpdateAffected(gomock.Any(), gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, _ map[string]any, filter gDto.FilterGroup) (int64, error) {
				updates.Add(1)

				if filterValue(filter, 0) == "b-raced" {
					return 0, nil
				}

				return 1, nil
			}).
			Times(2)

		req := dto.BulkApproveRequest{IDs: []string{"b-ok", "b-missing", "b-rejected", "b-raced"}}

		res, err := f.svc.BulkApprove(context.Background(), admin, req)
		time.Sleep(10 * time.Millisecond)

		require.NoError(t, err)
		require.Len(t, res.Items, 4)
		assert.Equal(t, 1, res.Approved)
		assert.Equal(t, 3, res.Failed)
		assert.Equal(t, int32(2), updates.Load())

		assert.Equal(t, dto.BulkItemResult{ID: "b-ok", Result: dto.BulkItemApproved}, res.Items[0])
		assert.Equal(t, failure.KindNotFound, res.Items[1].Kind)
		assert.Equal(t, failure.KindInvalidTransition, res.Items[2].Kind)
		assert.Equal(t, failure.KindInvalidTransition, res.Items[3].Kind)
	})

	t.Run("students cannot bulk approve", func(t *testing.T) {
		f := newFixture(t)

		_, err := f.svc.BulkApprove(context.Background(), student, dto.BulkApproveRequest{IDs: []string{"b-1"}})

		assert.Equal(t, failure.KindForbidden, failure.GetKind(err))
	})
}

func TestBookingService_GetAll(t *testing.T) {
	params := gDto.QueryParams{Page: 1, Limit: 10}

	t.Run("student listing is scoped to own bookings", func(t *testing.T) {
		f := newFixture(t)

		f.cache.EXPECT().Get(gomock.Any(), gomock.Any(), gomock.Any()).Return(errors.New("cache miss")).Times(2)
		f.repo.EXPECT().
			Count(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, filter gDto.FilterGroup) (int, error) {
				where, args := filter.GetWhereClause()
				assert.Contains(t, where, "bookings.user_id = :owner_id")
				assert.Equal(t, student.UserID, args["owner_id"])

				return 1, nil
			})
		f.repo.EXPECT().GetAll(gomock.Any(), params, gomock.Any()).Return([]model.Booking{pending("b-1", student.UserID)}, nil)

		res, err := f.svc.GetAll(context.Background(), student, params, gDto.FilterGroup{})
		time.Sleep(10 * time.Millisecond)

		require.NoError(t, err)
		assert.Len(t, res.Bookings, 1)
	})

	t.Run("student cannot list another user's bookings", func(t *testing.T) {
		f := newFixture(t)

		_, err := f.svc.GetByUser(context.Background(), student, "student-2", params, gDto.FilterGroup{})

		assert.Equal(t, failure.KindForbidden, failure.GetKind(err))
	})
}

func TestBookingService_Get(t *testing.T) {
	t.Run("staff may view any booking", func(t *testing.T) {
		f := newFixture(t)

		f.cache.EXPECT().Get(gomock.Any(), gomock.Any(), gomock.Any()).Return(errors.New("cache miss"))
		f.repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(pending("b-1", student.UserID), nil)

		res, err := f.svc.Get(context.Background(), staff, "b-1")
		time.Sleep(10 * time.Millisecond)

		require.NoError(t, err)
		assert.Equal(t, "b-1", res.ID)
	})

	t.Run("students cannot see other bookings", func(t *testing.T) {
		f := newFixture(t)

		f.cache.EXPECT().Get(gomock.Any(), gomock.Any(), gomock.Any()).Return(errors.New("cache miss"))
		f.repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(pending("b-1", "student-2"), nil)

		_, err := f.svc.Get(context.Background(), student, "b-1")
		time.Sleep(10 * time.Millisecond)

		assert.Equal(t, failure.KindNotFound, failure.GetKind(err))
	})
}
