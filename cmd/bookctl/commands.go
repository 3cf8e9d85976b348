package main

import (
	"campusbook/internal/client"
	"campusbook/internal/domains/booking/model/dto"
	reportDto "campusbook/internal/domains/report/model/dto"
	resourceDto "campusbook/internal/domains/resource/model/dto"
	"campusbook/shared/failure"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/urfave/cli/v2"
)

func newClient(c *cli.Context) *client.Client {
	return client.New(c.String(flagServer))
}

func loadSession(c *cli.Context) (*client.Session, error) {
	data, err := os.ReadFile(c.String(flagSessionFile))
	if errors.Is(err, os.ErrNotExist) {
		return nil, failure.Unauthorized("not signed in, run bookctl login") // nolint:wrapcheck
	}

	if err != nil {
		return nil, fmt.Errorf("failed to read session: %w", err)
	}

	sess := &client.Session{}
	if err := json.Unmarshal(data, sess); err != nil {
		return nil, fmt.Errorf("failed to decode session: %w", err)
	}

	return sess, nil
}

func saveSession(c *cli.Context, sess *client.Session) error {
	path := c.String(flagSessionFile)

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("failed to create session directory: %w", err)
	}

	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}

	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write session: %w", err)
	}

	return nil
}

func printJSON(c *cli.Context, value any) error {
	encoder := json.NewEncoder(c.App.Writer)
	encoder.SetIndent("", "  ")

	if err := encoder.Encode(value); err != nil {
		return fmt.Errorf("failed to print result: %w", err)
	}

	return nil
}

// withSession runs fn with the stored session, refreshing it once when the server
// says the access token is no longer accepted.
func withSession(fn func(c *cli.Context, api *client.Client, sess *client.Session) error) cli.ActionFunc {
	return func(c *cli.Context) error {
		sess, err := loadSession(c)
		if err != nil {
			return err
		}

		api := newClient(c)

		err = fn(c, api, sess)
		if !failure.Is(err, failure.KindUnauthorized) || sess.RefreshToken == "" {
			return err
		}

		if refreshErr := api.Refresh(c.Context, sess); refreshErr != nil {
			return err
		}

		if err := saveSession(c, sess); err != nil {
			return err
		}

		return fn(c, api, sess)
	}
}

func listOptions(c *cli.Context, filters ...string) client.ListOptions {
	opts := client.ListOptions{Page: c.Int("page"), Limit: c.Int("limit"), Filters: map[string]string{}}
	for _, name := range filters {
		opts.Filters[name] = c.String(name)
	}

	return opts
}

var pageFlags = []cli.Flag{
	&cli.IntFlag{Name: "page", Value: 1},
	&cli.IntFlag{Name: "limit", Value: 20},
}

func loginCommand() *cli.Command {
	return &cli.Command{
		Name:  "login",
		Usage: "sign in and store the session",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "email", Required: true},
			&cli.StringFlag{Name: "password", Required: true, EnvVars: []string{"BOOKCTL_PASSWORD"}},
		},
		Action: func(c *cli.Context) error {
			sess, err := newClient(c).Login(c.Context, c.String("email"), c.String("password"))
			if err != nil {
				return err
			}

			if err := saveSession(c, sess); err != nil {
				return err
			}

			return printJSON(c, sess.Actor)
		},
	}
}

func logoutCommand() *cli.Command {
	return &cli.Command{
		Name:  "logout",
		Usage: "revoke the stored session",
		Action: withSession(func(c *cli.Context, api *client.Client, sess *client.Session) error {
			if err := api.Logout(c.Context, sess); err != nil {
				return err
			}

			if err := os.Remove(c.String(flagSessionFile)); err != nil && !errors.Is(err, os.ErrNotExist) {
				return fmt.Errorf("failed to remove session: %w", err)
			}

			return nil
		}),
	}
}

func whoamiCommand() *cli.Command {
	return &cli.Command{
		Name:  "whoami",
		Usage: "show the signed-in user and their capabilities",
		Action: withSession(func(c *cli.Context, api *client.Client, sess *client.Session) error {
			me, err := api.Me(c.Context, sess)
			if err != nil {
				return err
			}

			return printJSON(c, me)
		}),
	}
}

func resourcesCommand() *cli.Command {
	return &cli.Command{
		Name:  "resources",
		Usage: "browse bookable resources",
		Subcommands: []*cli.Command{
			{
				Name:  "list",
				Flags: append([]cli.Flag{&cli.StringFlag{Name: "type"}, &cli.StringFlag{Name: "status"}}, pageFlags...),
				Action: withSession(func(c *cli.Context, api *client.Client, sess *client.Session) error {
					res, err := api.ListResources(c.Context, sess, listOptions(c, "type", "status"))
					if err != nil {
						return err
					}

					return printJSON(c, res)
				}),
			},
			{
				Name:  "suggest",
				Usage: "list resources that fit a group, best fit first",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "attendees", Required: true},
					&cli.StringFlag{Name: "exclude"},
				},
				Action: withSession(func(c *cli.Context, api *client.Client, sess *client.Session) error {
					res, err := api.Suggest(c.Context, sess, c.Int("attendees"), c.String("exclude"))
					if err != nil {
						return err
					}

					return printJSON(c, res)
				}),
			},
			{
				Name:      "availability",
				ArgsUsage: "<resource-id>",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "date", Required: true},
					&cli.StringFlag{Name: "start", Required: true},
					&cli.StringFlag{Name: "end", Required: true},
				},
				Action: withSession(func(c *cli.Context, api *client.Client, sess *client.Session) error {
					query := resourceDto.AvailabilityQuery{Date: c.String("date"), StartTime: c.String("start"), EndTime: c.String("end")}

					res, err := api.Availability(c.Context, sess, c.Args().First(), query)
					if err != nil {
						return err
					}

					return printJSON(c, res)
				}),
			},
		},
	}
}

func bookingsCommand() *cli.Command {
	return &cli.Command{
		Name:  "bookings",
		Usage: "create and manage bookings",
		Subcommands: []*cli.Command{
			{
				Name: "create",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "resource", Required: true},
					&cli.StringFlag{Name: "date", Required: true, Usage: "YYYY-MM-DD"},
					&cli.StringFlag{Name: "start", Required: true, Usage: "HH:MM"},
					&cli.StringFlag{Name: "end", Required: true, Usage: "HH:MM"},
					&cli.IntFlag{Name: "attendees", Required: true},
					&cli.StringFlag{Name: "reason", Required: true},
				},
				Action: withSession(func(c *cli.Context, api *client.Client, sess *client.Session) error {
					booking, err := api.CreateBooking(c.Context, sess, dto.CreateBookingRequest{
						ResourceID:    c.String("resource"),
						BookingDate:   c.String("date"),
						StartTime:     c.String("start"),
						EndTime:       c.String("end"),
						AttendeeCount: c.Int("attendees"),
						Reason:        c.String("reason"),
					})
					if err != nil {
						return err
					}

					return printJSON(c, booking)
				}),
			},
			{
				Name:  "mine",
				Flags: append([]cli.Flag{&cli.StringFlag{Name: "status"}}, pageFlags...),
				Action: withSession(func(c *cli.Context, api *client.Client, sess *client.Session) error {
					res, err := api.MyBookings(c.Context, sess, listOptions(c, "status"))
					if err != nil {
						return err
					}

					return printJSON(c, res)
				}),
			},
			{
				Name: "list",
				Flags: append([]cli.Flag{
					&cli.StringFlag{Name: "status"},
					&cli.StringFlag{Name: "resource_id"},
					&cli.StringFlag{Name: "date_from"},
					&cli.StringFlag{Name: "date_to"},
				}, pageFlags...),
				Action: withSession(func(c *cli.Context, api *client.Client, sess *client.Session) error {
					res, err := api.ListBookings(c.Context, sess, listOptions(c, "status", "resource_id", "date_from", "date_to"))
					if err != nil {
						return err
					}

					return printJSON(c, res)
				}),
			},
			{
				Name:      "approve",
				Usage:     "approve one booking, or several at once",
				ArgsUsage: "<booking-id>...",
				Action: withSession(func(c *cli.Context, api *client.Client, sess *client.Session) error {
					ids := c.Args().Slice()
					if len(ids) == 0 {
						return failure.BadRequestFromString("at least one booking id is required") // nolint:wrapcheck
					}

					if len(ids) == 1 {
						booking, err := api.Approve(c.Context, sess, ids[0])
						if err != nil {
							return err
						}

						return printJSON(c, booking)
					}

					res, err := api.BulkApprove(c.Context, sess, ids)
					if err != nil {
						return err
					}

					return printJSON(c, res)
				}),
			},
			{
				Name:      "reject",
				ArgsUsage: "<booking-id>",
				Flags:     []cli.Flag{&cli.StringFlag{Name: "remarks", Required: true}},
				Action: withSession(func(c *cli.Context, api *client.Client, sess *client.Session) error {
					booking, err := api.Reject(c.Context, sess, c.Args().First(), c.String("remarks"))
					if err != nil {
						return err
					}

					return printJSON(c, booking)
				}),
			},
			{
				Name:      "cancel",
				ArgsUsage: "<booking-id>",
				Flags:     []cli.Flag{&cli.StringFlag{Name: "remarks"}},
				Action: withSession(func(c *cli.Context, api *client.Client, sess *client.Session) error {
					booking, err := api.Cancel(c.Context, sess, c.Args().First(), c.String("remarks"))
					if err != nil {
						return err
					}

					return printJSON(c, booking)
				}),
			},
		},
	}
}

func reportsCommand() *cli.Command {
	return &cli.Command{
		Name:  "reports",
		Usage: "booking statistics and exports",
		Subcommands: []*cli.Command{
			{
				Name: "stats",
				Action: withSession(func(c *cli.Context, api *client.Client, sess *client.Session) error {
					res, err := api.Stats(c.Context, sess)
					if err != nil {
						return err
					}

					return printJSON(c, res)
				}),
			},
			{
				Name: "export",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "from"},
					&cli.StringFlag{Name: "to"},
					&cli.StringFlag{Name: "status"},
				},
				Action: withSession(func(c *cli.Context, api *client.Client, sess *client.Session) error {
					res, err := api.Export(c.Context, sess, reportDto.ExportRequest{
						From:   c.String("from"),
						To:     c.String("to"),
						Status: c.String("status"),
					})
					if err != nil {
						return err
					}

					return printJSON(c, res)
				}),
			},
		},
	}
}
