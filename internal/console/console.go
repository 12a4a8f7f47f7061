// Package console is the interactive front end: a line-oriented shell that
// drives the booking flow and renders its snapshots. It also answers the
// exit-confirmation prompts the navigation guard raises while a seat lock
// is live.
package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"eventix-client/internal/domain/booking"
	"eventix-client/internal/domain/event"
	"eventix-client/internal/pkg/errs"
	"eventix-client/internal/usecase/commands"
	"eventix-client/internal/usecase/queries"
)

type Console struct {
	in  *bufio.Scanner
	out io.Writer

	flow          *commands.BookingFlow
	auth          *commands.AuthCommands
	admin         *commands.EventCommands
	cancellations *commands.CancellationCommands
	events        *queries.EventQueries
	bookings      *queries.BookingQueries
	session       commands.SessionStore
	logger        *slog.Logger
}

func New(
	in io.Reader,
	out io.Writer,
	flow *commands.BookingFlow,
	auth *commands.AuthCommands,
	admin *commands.EventCommands,
	cancellations *commands.CancellationCommands,
	events *queries.EventQueries,
	bookings *queries.BookingQueries,
	session commands.SessionStore,
	logger *slog.Logger,
) *Console {
	return &Console{
		in:            bufio.NewScanner(in),
		out:           out,
		flow:          flow,
		auth:          auth,
		admin:         admin,
		cancellations: cancellations,
		events:        events,
		bookings:      bookings,
		session:       session,
		logger:        logger,
	}
}

// Confirm asks a yes/no question on behalf of the navigation guard.
func (c *Console) Confirm(message string) bool {
	fmt.Fprintf(c.out, "%s [y/N] ", message)
	if !c.in.Scan() {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(c.in.Text()))
	return answer == "y" || answer == "yes"
}

// Run reads commands until EOF, "quit", or context cancellation. Quitting
// goes through the flow's navigation guard so a live lock is never silently
// abandoned.
func (c *Console) Run(ctx context.Context) error {
	fmt.Fprintln(c.out, "eventix console. Type 'help' for commands.")
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		fmt.Fprint(c.out, "> ")
		if !c.in.Scan() {
			c.flow.ReleaseOnShutdown(ctx)
			return c.in.Err()
		}
		line := strings.TrimSpace(c.in.Text())
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		cmd, args := fields[0], fields[1:]

		if cmd == "quit" || cmd == "exit" {
			allowed, err := c.flow.RequestNavigateAway(ctx)
			if err != nil {
				c.printError(err)
			}
			if allowed {
				return nil
			}
			fmt.Fprintln(c.out, "staying put; your lock is still held")
			continue
		}

		if err := c.dispatch(ctx, cmd, args); err != nil {
			c.printError(err)
		}
	}
}

func (c *Console) dispatch(ctx context.Context, cmd string, args []string) error {
	switch cmd {
	case "help":
		c.printHelp()
		return nil
	case "login":
		return c.cmdLogin(ctx, args)
	case "register":
		return c.cmdRegister(ctx, args)
	case "otp":
		return c.cmdOTP(ctx, args)
	case "resend-otp":
		return c.auth.ResendOTP(ctx)
	case "logout":
		return c.auth.Logout()
	case "whoami":
		return c.cmdWhoami()
	case "otp-pref":
		return c.cmdOTPPref(ctx, args)
	case "events":
		return c.cmdEvents(ctx)
	case "book":
		return c.cmdBook(ctx, args)
	case "seats":
		return c.cmdSeats(args)
	case "lock":
		return c.withStatus(func() error { return c.flow.RequestLock(ctx) })
	case "confirm":
		return c.withStatus(func() error { return c.flow.RequestConfirm(ctx) })
	case "pay":
		return c.cmdPay(ctx, args)
	case "cancel":
		return c.withStatus(func() error { return c.flow.Cancel(ctx) })
	case "back":
		return c.cmdBack(ctx)
	case "status":
		c.render(c.flow.Snapshot())
		return nil
	case "bookings":
		return c.cmdBookings(ctx)
	case "cancel-booking":
		return c.cmdCancelBooking(ctx, args)
	case "create-event":
		return c.cmdCreateEvent(ctx, args)
	default:
		return errs.Newf("unknown command %q; try 'help'", cmd)
	}
}

func (c *Console) printHelp() {
	fmt.Fprint(c.out, `commands:
  login <email> <password>      authenticate
  register <name> <email> <pw>  create an account
  otp <code>                    complete a pending OTP challenge
  resend-otp                    request a fresh OTP code
  logout                        drop the stored session
  whoami                        show the logged-in user
  otp-pref <on|off>             toggle OTP at login
  events                        list upcoming events
  book <event-id>               start a booking attempt
  seats <n>                     choose seat count
  lock                          lock the chosen seats
  confirm                       confirm the locked booking
  pay <success|failure|timeout> submit the payment outcome
  cancel                        cancel the current attempt
  back                          leave the attempt (guard may prompt)
  status                        show the current attempt
  bookings                      list my bookings
  cancel-booking <id>           cancel a confirmed booking
  create-event <name> <date> <seats> <amount>   admin only
  quit                          exit (guard may prompt)
`)
}

// ---------- auth ----------

func (c *Console) cmdLogin(ctx context.Context, args []string) error {
	if len(args) != 2 {
		return errs.New("usage: login <email> <password>")
	}
	user, err := c.auth.Login(ctx, args[0], args[1])
	if errors.Is(err, errs.ErrOTPRequired) {
		fmt.Fprintln(c.out, "an OTP was sent; enter it with: otp <code>")
		return nil
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "logged in as %s (%s)\n", user.Name, user.Role)
	return nil
}

func (c *Console) cmdRegister(ctx context.Context, args []string) error {
	if len(args) != 3 {
		return errs.New("usage: register <name> <email> <password>")
	}
	_, err := c.auth.Register(ctx, commands.RegisterRequest{
		Name:     args[0],
		Email:    args[1],
		Password: args[2],
	})
	if errors.Is(err, errs.ErrOTPRequired) {
		fmt.Fprintln(c.out, "an OTP was sent; enter it with: otp <code>")
		return nil
	}
	if err != nil {
		return err
	}
	fmt.Fprintln(c.out, "registered and logged in")
	return nil
}

func (c *Console) cmdOTP(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return errs.New("usage: otp <code>")
	}
	user, err := c.auth.VerifyOTP(ctx, args[0])
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "logged in as %s (%s)\n", user.Name, user.Role)
	return nil
}

func (c *Console) cmdWhoami() error {
	user, ok := c.session.CurrentUser()
	if !ok {
		fmt.Fprintln(c.out, "not logged in")
		return nil
	}
	fmt.Fprintf(c.out, "%s <%s> role=%s otp=%t\n", user.Name, user.Email, user.Role, user.OTPEnabled)
	return nil
}

func (c *Console) cmdOTPPref(ctx context.Context, args []string) error {
	if len(args) != 1 || (args[0] != "on" && args[0] != "off") {
		return errs.New("usage: otp-pref <on|off>")
	}
	return c.auth.SetOTPPreference(ctx, args[0] == "on")
}

// ---------- events and bookings ----------

func (c *Console) cmdEvents(ctx context.Context) error {
	role := ""
	if user, ok := c.session.CurrentUser(); ok {
		role = user.Role
	}
	views, err := c.events.List(ctx, role)
	if err != nil {
		return err
	}
	if len(views) == 0 {
		fmt.Fprintln(c.out, "no events")
		return nil
	}
	for _, v := range views {
		marker := ""
		if v.SoldOut {
			marker = "  SOLD OUT"
		}
		fmt.Fprintf(c.out, "%s  %s  %s  %d/%d seats  %d per seat%s\n",
			v.ID, v.Name, v.Date.Format("2006-01-02 15:04"),
			v.AvailableSeats, v.TotalSeats, v.Amount, marker)
	}
	return nil
}

func (c *Console) cmdBook(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return errs.New("usage: book <event-id>")
	}
	snap, err := c.flow.StartAttempt(ctx, args[0])
	if err != nil {
		return err
	}
	c.render(snap)
	return nil
}

func (c *Console) cmdSeats(args []string) error {
	if len(args) != 1 {
		return errs.New("usage: seats <n>")
	}
	n, err := strconv.Atoi(args[0])
	if err != nil {
		return errs.Mark(err, errs.ErrValidation)
	}
	if err := c.flow.SelectSeats(n); err != nil {
		return err
	}
	c.render(c.flow.Snapshot())
	return nil
}

func (c *Console) cmdPay(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return errs.New("usage: pay <success|failure|timeout>")
	}
	outcome := booking.PaymentOutcome(strings.ToUpper(args[0]))
	if !outcome.IsValid() {
		return errs.Mark(errs.Newf("unknown outcome %q", args[0]), errs.ErrValidation)
	}
	return c.withStatus(func() error { return c.flow.SubmitPayment(ctx, outcome) })
}

func (c *Console) cmdBack(ctx context.Context) error {
	allowed, err := c.flow.RequestNavigateAway(ctx)
	if err != nil {
		return err
	}
	if allowed {
		fmt.Fprintln(c.out, "left the booking attempt")
	} else {
		fmt.Fprintln(c.out, "staying put; your lock is still held")
	}
	return nil
}

func (c *Console) cmdBookings(ctx context.Context) error {
	views, err := c.bookings.List(ctx)
	if err != nil {
		return err
	}
	if len(views) == 0 {
		fmt.Fprintln(c.out, "no bookings")
		return nil
	}
	for _, v := range views {
		fmt.Fprintf(c.out, "%s  %s  %d seats  %s  %s\n",
			v.ID, v.EventName, v.Seats, v.Status, v.CreatedAt.Format("2006-01-02 15:04"))
	}
	return nil
}

func (c *Console) cmdCancelBooking(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return errs.New("usage: cancel-booking <id>")
	}
	if err := c.cancellations.CancelBooking(ctx, args[0]); err != nil {
		return err
	}
	fmt.Fprintln(c.out, "booking cancelled")
	return nil
}

func (c *Console) cmdCreateEvent(ctx context.Context, args []string) error {
	if len(args) != 4 {
		return errs.New("usage: create-event <name> <RFC3339-date> <seats> <amount>")
	}
	date, err := time.Parse(time.RFC3339, args[1])
	if err != nil {
		return errs.Mark(err, errs.ErrValidation)
	}
	seats, err := strconv.Atoi(args[2])
	if err != nil {
		return errs.Mark(err, errs.ErrValidation)
	}
	amount, err := strconv.ParseInt(args[3], 10, 64)
	if err != nil {
		return errs.Mark(err, errs.ErrValidation)
	}
	created, err := c.admin.CreateEvent(ctx, event.Draft{
		Name:       args[0],
		Date:       date,
		TotalSeats: seats,
		Amount:     amount,
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "created event %s\n", created.ID)
	return nil
}

// ---------- rendering ----------

func (c *Console) withStatus(fn func() error) error {
	if err := fn(); err != nil {
		c.render(c.flow.Snapshot())
		return err
	}
	c.render(c.flow.Snapshot())
	return nil
}

func (c *Console) render(snap commands.Snapshot) {
	if snap.EventID == "" {
		fmt.Fprintln(c.out, "no active booking attempt")
		return
	}
	fmt.Fprintf(c.out, "[%s] %s  seats=%d avail=%d amount=%d\n",
		snap.Phase.String(), snap.EventName, snap.Seats, snap.AvailableSeats, snap.TotalAmount)
	if snap.Phase.HoldsLock() {
		fmt.Fprintf(c.out, "  lock %s expires in %s\n", snap.LockID, formatRemaining(snap.RemainingSeconds))
	}
	if snap.BookingID != "" {
		fmt.Fprintf(c.out, "  booking %s\n", snap.BookingID)
	}
	if snap.LastError != "" {
		fmt.Fprintf(c.out, "  ! %s\n", snap.LastError)
	}
}

// RenderTick is wired to the flow's countdown so the prompt shows time left.
func (c *Console) RenderTick(remaining int) {
	if remaining > 0 && remaining%30 == 0 {
		fmt.Fprintf(c.out, "\n(lock expires in %s)\n> ", formatRemaining(remaining))
	}
}

func (c *Console) printError(err error) {
	switch {
	case errors.Is(err, errs.ErrExpired):
		fmt.Fprintln(c.out, "error: the seat lock has expired; lock again")
	case errors.Is(err, errs.ErrConflict):
		fmt.Fprintf(c.out, "error: %v\n", err)
	case errors.Is(err, errs.ErrNetwork):
		fmt.Fprintln(c.out, "error: network problem; it is safe to retry")
	case errors.Is(err, errs.ErrPaymentDeclined):
		fmt.Fprintln(c.out, "payment declined; the booking did not complete")
	case errors.Is(err, errs.ErrUnauthorized):
		fmt.Fprintln(c.out, "error: please log in first")
	default:
		fmt.Fprintf(c.out, "error: %v\n", err)
	}
	c.logger.Debug("command failed", "error", err)
}

func formatRemaining(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%d:%02d", seconds/60, seconds%60)
}
