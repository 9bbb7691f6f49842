package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"sbp-admin/internal/apiclient"
	"sbp-admin/internal/auth"
	"sbp-admin/internal/authstore"
	"sbp-admin/internal/dashboard"
	"sbp-admin/internal/models"
)

const usage = `usage: sbp-admin <command> [arguments]

commands:
  login -email E -password P
  logout
  whoami
  stats
  platforms      list | create [flags] | update <id> [flags] | delete <id>
  services       list | create [flags] | update <id> [flags] | delete <id>
  service-types  list | create [flags] | update <id> [flags] | delete <id>
  orders         list [-page -limit -status] | status <id> <status>
  payments       list [-page -limit -status] | get <id>
  tickets        list [-page -limit -status -priority] | status <id> <status> | reply <id> <message>
  admins         list | create [flags] | update <id> [flags] | delete <id>`

var (
	errUsage       = errors.New(usage)
	errNotLoggedIn = errors.New("not logged in")
)

type app struct {
	client *apiclient.Client
	auth   *authstore.Store
	out    io.Writer
	errOut io.Writer
	now    func() time.Time
}

// run executes one command line against the backend.
func (a *app) run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errUsage
	}
	cmd, rest := args[0], args[1:]

	if cmd != "login" && !a.auth.CheckAuth(ctx) {
		return errNotLoggedIn
	}

	switch cmd {
	case "login":
		return a.login(ctx, rest)
	case "logout":
		a.auth.Logout(ctx)
		fmt.Fprintln(a.out, "Logged out")
		return nil
	case "whoami":
		return a.whoami(ctx)
	case "stats":
		stats, err := dashboard.Load(ctx, a.client)
		if err != nil {
			return err
		}
		return a.print(stats)
	case "platforms":
		return a.platforms(ctx, rest)
	case "services":
		return a.services(ctx, rest)
	case "service-types":
		return a.serviceTypes(ctx, rest)
	case "orders":
		return a.orders(ctx, rest)
	case "payments":
		return a.payments(ctx, rest)
	case "tickets":
		return a.tickets(ctx, rest)
	case "admins":
		return a.admins(ctx, rest)
	default:
		return fmt.Errorf("unknown command %q\n%s", cmd, usage)
	}
}

func (a *app) flags(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(a.errOut)
	return fs
}

func (a *app) print(v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(a.out, string(b))
	return err
}

func (a *app) footer(p models.Pagination) {
	fmt.Fprintf(a.out, "page %d of %d (%d total)\n", p.Page, p.TotalPages(), p.Total)
}

// unwrap turns a rejected envelope into an error.
func unwrap[T any](env *models.Envelope[T], err error) (*T, error) {
	if err != nil {
		return nil, err
	}
	if !env.Success {
		if reason := env.Reason(); reason != "" {
			return nil, errors.New(reason)
		}
		return nil, errors.New("request rejected")
	}
	return env.Data, nil
}

func (a *app) done(env *models.Envelope[any], err error) error {
	if _, err := unwrap(env, err); err != nil {
		return err
	}
	msg := env.Message
	if msg == "" {
		msg = "OK"
	}
	fmt.Fprintln(a.out, msg)
	return nil
}

func (a *app) emit(v any, err error) error {
	if err != nil {
		return err
	}
	return a.print(v)
}

func subcommand(args []string) (string, []string, error) {
	if len(args) == 0 {
		return "", nil, errUsage
	}
	return args[0], args[1:], nil
}

// idArg splits "<id> [flags]" into the id and the remaining flags.
func idArg(args []string) (string, []string, error) {
	if len(args) == 0 || strings.HasPrefix(args[0], "-") {
		return "", nil, errors.New("missing id")
	}
	return args[0], args[1:], nil
}

func find[T any](items *[]T, id string, idOf func(T) string) (T, error) {
	var zero T
	if items == nil {
		return zero, fmt.Errorf("%s not found", id)
	}
	for _, it := range *items {
		if idOf(it) == id {
			return it, nil
		}
	}
	return zero, fmt.Errorf("%s not found", id)
}

// Auth

func (a *app) login(ctx context.Context, args []string) error {
	fs := a.flags("login")
	email := fs.String("email", "", "admin email")
	password := fs.String("password", "", "admin password")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *email == "" || *password == "" {
		return errors.New("email and password are required")
	}

	if !a.auth.Login(ctx, *email, *password) {
		return errors.New(a.auth.GetState().Error)
	}
	admin := a.auth.GetState().Admin
	fmt.Fprintf(a.out, "Logged in as %s (%s)\n", admin.Email, admin.Role)
	return nil
}

type identity struct {
	AdminID   string    `json:"adminId"`
	Role      string    `json:"role"`
	ExpiresAt time.Time `json:"expiresAt,omitempty"`
	Expired   bool      `json:"expired"`
	BaseURL   string    `json:"baseUrl"`
}

func (a *app) whoami(ctx context.Context) error {
	token, err := a.client.Token(ctx)
	if err != nil {
		return err
	}
	claims, err := auth.Inspect(token)
	if err != nil {
		return err
	}
	id := identity{AdminID: claims.Subject, Role: claims.Role, BaseURL: a.client.BaseURL()}
	if expired, err := claims.Expired(a.now()); err == nil {
		id.Expired = expired
		id.ExpiresAt = claims.ExpiresAt.Time
	}
	return a.print(id)
}

// Catalog

func platformFlags(fs *flag.FlagSet, in *models.PlatformInput) {
	fs.StringVar(&in.Name, "name", in.Name, "platform name")
	fs.StringVar(&in.Description, "description", in.Description, "description")
	fs.StringVar(&in.Icon, "icon", in.Icon, "icon name")
	fs.BoolVar(&in.IsActive, "active", in.IsActive, "whether the platform is offered")
}

func (a *app) platforms(ctx context.Context, args []string) error {
	sub, rest, err := subcommand(args)
	if err != nil {
		return err
	}
	switch sub {
	case "list":
		return a.emit(unwrap(a.client.GetPlatforms(ctx)))
	case "create":
		in := models.PlatformInput{IsActive: true}
		fs := a.flags("platforms create")
		platformFlags(fs, &in)
		if err := fs.Parse(rest); err != nil {
			return err
		}
		return a.emit(unwrap(a.client.CreatePlatform(ctx, in)))
	case "update":
		id, rest, err := idArg(rest)
		if err != nil {
			return err
		}
		list, err := unwrap(a.client.GetPlatforms(ctx))
		if err != nil {
			return err
		}
		current, err := find(list, id, func(p models.Platform) string { return p.ID })
		if err != nil {
			return err
		}
		in := current.Input()
		fs := a.flags("platforms update")
		platformFlags(fs, &in)
		if err := fs.Parse(rest); err != nil {
			return err
		}
		return a.emit(unwrap(a.client.UpdatePlatform(ctx, id, in)))
	case "delete":
		id, _, err := idArg(rest)
		if err != nil {
			return err
		}
		return a.done(a.client.DeletePlatform(ctx, id))
	}
	return errUsage
}

func serviceFlags(fs *flag.FlagSet, in *models.ServiceInput) {
	fs.StringVar(&in.Name, "name", in.Name, "service name")
	fs.StringVar(&in.Description, "description", in.Description, "description")
	fs.StringVar(&in.PlatformID, "platform", in.PlatformID, "platform id")
	fs.Float64Var(&in.Price, "price", in.Price, "price")
	fs.BoolVar(&in.IsActive, "active", in.IsActive, "whether the service is offered")
}

func (a *app) services(ctx context.Context, args []string) error {
	sub, rest, err := subcommand(args)
	if err != nil {
		return err
	}
	switch sub {
	case "list":
		return a.emit(unwrap(a.client.GetServices(ctx)))
	case "create":
		in := models.ServiceInput{IsActive: true}
		fs := a.flags("services create")
		serviceFlags(fs, &in)
		if err := fs.Parse(rest); err != nil {
			return err
		}
		return a.emit(unwrap(a.client.CreateService(ctx, in)))
	case "update":
		id, rest, err := idArg(rest)
		if err != nil {
			return err
		}
		list, err := unwrap(a.client.GetServices(ctx))
		if err != nil {
			return err
		}
		current, err := find(list, id, func(s models.Service) string { return s.ID })
		if err != nil {
			return err
		}
		in := current.Input()
		fs := a.flags("services update")
		serviceFlags(fs, &in)
		if err := fs.Parse(rest); err != nil {
			return err
		}
		return a.emit(unwrap(a.client.UpdateService(ctx, id, in)))
	case "delete":
		id, _, err := idArg(rest)
		if err != nil {
			return err
		}
		return a.done(a.client.DeleteService(ctx, id))
	}
	return errUsage
}

func serviceTypeFlags(fs *flag.FlagSet, in *models.ServiceTypeInput) {
	fs.StringVar(&in.Name, "name", in.Name, "service type name")
	fs.StringVar(&in.Description, "description", in.Description, "description")
	fs.StringVar(&in.ServiceID, "service", in.ServiceID, "service id")
	fs.StringVar(&in.PlatformID, "platform", in.PlatformID, "platform id")
}

func (a *app) serviceTypes(ctx context.Context, args []string) error {
	sub, rest, err := subcommand(args)
	if err != nil {
		return err
	}
	switch sub {
	case "list":
		return a.emit(unwrap(a.client.GetServiceTypes(ctx)))
	case "create":
		var in models.ServiceTypeInput
		fs := a.flags("service-types create")
		serviceTypeFlags(fs, &in)
		if err := fs.Parse(rest); err != nil {
			return err
		}
		return a.emit(unwrap(a.client.CreateServiceType(ctx, in)))
	case "update":
		id, rest, err := idArg(rest)
		if err != nil {
			return err
		}
		list, err := unwrap(a.client.GetServiceTypes(ctx))
		if err != nil {
			return err
		}
		current, err := find(list, id, func(t models.ServiceType) string { return t.ID })
		if err != nil {
			return err
		}
		in := current.Input()
		fs := a.flags("service-types update")
		serviceTypeFlags(fs, &in)
		if err := fs.Parse(rest); err != nil {
			return err
		}
		return a.emit(unwrap(a.client.UpdateServiceType(ctx, id, in)))
	case "delete":
		id, _, err := idArg(rest)
		if err != nil {
			return err
		}
		return a.done(a.client.DeleteServiceType(ctx, id))
	}
	return errUsage
}

// Orders, payments and tickets

func (a *app) listFlags(name string, args []string, withPriority bool) (models.ListOptions, error) {
	var opts models.ListOptions
	fs := a.flags(name)
	fs.IntVar(&opts.Page, "page", models.DefaultPage, "page number")
	fs.IntVar(&opts.Limit, "limit", models.DefaultLimit, "items per page")
	fs.StringVar(&opts.Status, "status", "", "filter by status")
	if withPriority {
		fs.StringVar(&opts.Priority, "priority", "", "filter by priority")
	}
	err := fs.Parse(args)
	return opts, err
}

func statusArgs(args []string) (string, string, error) {
	if len(args) != 2 {
		return "", "", errors.New("expected <id> <status>")
	}
	return args[0], args[1], nil
}

func (a *app) orders(ctx context.Context, args []string) error {
	sub, rest, err := subcommand(args)
	if err != nil {
		return err
	}
	switch sub {
	case "list":
		opts, err := a.listFlags("orders list", rest, false)
		if err != nil {
			return err
		}
		page, err := unwrap(a.client.GetOrders(ctx, opts))
		if err != nil {
			return err
		}
		if err := a.print(page.Orders); err != nil {
			return err
		}
		a.footer(page.Pagination)
		return nil
	case "status":
		id, status, err := statusArgs(rest)
		if err != nil {
			return err
		}
		return a.emit(unwrap(a.client.UpdateOrderStatus(ctx, id, models.OrderStatus(status))))
	}
	return errUsage
}

func (a *app) payments(ctx context.Context, args []string) error {
	sub, rest, err := subcommand(args)
	if err != nil {
		return err
	}
	switch sub {
	case "list":
		opts, err := a.listFlags("payments list", rest, false)
		if err != nil {
			return err
		}
		page, err := unwrap(a.client.GetPayments(ctx, opts))
		if err != nil {
			return err
		}
		if err := a.print(page.Payments); err != nil {
			return err
		}
		a.footer(page.Pagination)
		return nil
	case "get":
		id, _, err := idArg(rest)
		if err != nil {
			return err
		}
		return a.emit(unwrap(a.client.GetPayment(ctx, id)))
	}
	return errUsage
}

func (a *app) tickets(ctx context.Context, args []string) error {
	sub, rest, err := subcommand(args)
	if err != nil {
		return err
	}
	switch sub {
	case "list":
		opts, err := a.listFlags("tickets list", rest, true)
		if err != nil {
			return err
		}
		page, err := unwrap(a.client.GetTickets(ctx, opts))
		if err != nil {
			return err
		}
		if err := a.print(page.Tickets); err != nil {
			return err
		}
		a.footer(page.Pagination)
		return nil
	case "status":
		id, status, err := statusArgs(rest)
		if err != nil {
			return err
		}
		return a.emit(unwrap(a.client.UpdateTicketStatus(ctx, id, models.TicketStatus(status))))
	case "reply":
		if len(rest) < 2 {
			return errors.New("expected <id> <message>")
		}
		return a.emit(unwrap(a.client.ReplyToTicket(ctx, rest[0], strings.Join(rest[1:], " "))))
	}
	return errUsage
}

// Admins

func adminFlags(fs *flag.FlagSet, in *models.AdminInput) {
	fs.StringVar(&in.Email, "email", in.Email, "email")
	fs.StringVar(&in.Name, "name", in.Name, "display name")
	fs.Func("role", "super_admin, admin or support", func(s string) error {
		in.Role = models.AdminRole(s)
		return nil
	})
	fs.BoolVar(&in.IsActive, "active", in.IsActive, "whether the account can log in")
	fs.StringVar(&in.Password, "password", "", "password (required on create)")
}

func (a *app) admins(ctx context.Context, args []string) error {
	sub, rest, err := subcommand(args)
	if err != nil {
		return err
	}
	switch sub {
	case "list":
		return a.emit(unwrap(a.client.GetAdmins(ctx)))
	case "create":
		in := models.AdminInput{Role: models.RoleAdmin, IsActive: true}
		fs := a.flags("admins create")
		adminFlags(fs, &in)
		if err := fs.Parse(rest); err != nil {
			return err
		}
		return a.emit(unwrap(a.client.CreateAdmin(ctx, in)))
	case "update":
		id, rest, err := idArg(rest)
		if err != nil {
			return err
		}
		list, err := unwrap(a.client.GetAdmins(ctx))
		if err != nil {
			return err
		}
		current, err := find(list, id, func(ad models.Admin) string { return ad.ID })
		if err != nil {
			return err
		}
		in := current.Input()
		fs := a.flags("admins update")
		adminFlags(fs, &in)
		if err := fs.Parse(rest); err != nil {
			return err
		}
		return a.emit(unwrap(a.client.UpdateAdmin(ctx, id, in)))
	case "delete":
		id, _, err := idArg(rest)
		if err != nil {
			return err
		}
		return a.done(a.client.DeleteAdmin(ctx, id))
	}
	return errUsage
}
