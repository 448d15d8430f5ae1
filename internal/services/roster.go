package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"brastech/internal/core"
	"brastech/internal/log"
	"brastech/internal/store"
)

// RosterService is the passthrough CRUD over clients and users. When a
// Book is attached, confirmed writes are merged into its view.
type RosterService struct {
	clients store.ClientStore
	users   store.UserStore
	book    *Book
	now     func() time.Time
	logger  *log.Logger
}

func NewRosterService(clients store.ClientStore, users store.UserStore, book *Book, logger *log.Logger) *RosterService {
	if logger == nil {
		logger = log.Default(log.ComponentRoster)
	}
	return &RosterService{
		clients: clients,
		users:   users,
		book:    book,
		now:     time.Now,
		logger:  logger.WithComponent(log.ComponentRoster),
	}
}

func (s *RosterService) ListClients(ctx context.Context) ([]core.Client, error) {
	out, err := s.clients.ListClients(ctx)
	if err != nil {
		return nil, fmt.Errorf("list clients: %w", err)
	}
	return out, nil
}

func (s *RosterService) CreateClient(ctx context.Context, sess core.Session, c core.Client) (core.Client, error) {
	if err := checkWrite(sess); err != nil {
		return core.Client{}, err
	}
	if c.Status == "" {
		c.Status = core.ClientAtivo
	}
	if c.RegistrationDate.IsEmpty() {
		c.RegistrationDate = core.DayOf(s.now())
	}
	if err := c.Validate(); err != nil {
		return core.Client{}, fmt.Errorf("validate client: %w", err)
	}
	created, err := s.clients.CreateClient(ctx, c)
	if err != nil {
		return core.Client{}, fmt.Errorf("create client: %w", err)
	}
	if s.book != nil {
		s.book.upsertClient(created)
	}
	return created, nil
}

func (s *RosterService) UpdateClient(ctx context.Context, sess core.Session, c core.Client) (core.Client, error) {
	if err := checkWrite(sess); err != nil {
		return core.Client{}, err
	}
	if err := c.Validate(); err != nil {
		return core.Client{}, fmt.Errorf("validate client: %w", err)
	}
	updated, err := s.clients.UpdateClient(ctx, c)
	if err != nil {
		return core.Client{}, fmt.Errorf("update client: %w", err)
	}
	if s.book != nil {
		s.book.upsertClient(updated)
	}
	return updated, nil
}

func (s *RosterService) DeleteClient(ctx context.Context, sess core.Session, id string) error {
	if err := checkWrite(sess); err != nil {
		return err
	}
	if err := s.clients.DeleteClient(ctx, id); err != nil {
		return fmt.Errorf("delete client: %w", err)
	}
	if s.book != nil {
		s.book.removeClient(id)
	}
	return nil
}

func (s *RosterService) ListUsers(ctx context.Context) ([]core.User, error) {
	out, err := s.users.ListUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return out, nil
}

func (s *RosterService) CreateUser(ctx context.Context, sess core.Session, u core.User) (core.User, error) {
	if err := checkWrite(sess); err != nil {
		return core.User{}, err
	}
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	if u.Status == "" {
		u.Status = core.UserAtivo
	}
	if u.Role == "" {
		u.Role = core.RoleViewer
	}
	if err := u.Validate(); err != nil {
		return core.User{}, fmt.Errorf("validate user: %w", err)
	}
	created, err := s.users.CreateUser(ctx, u)
	if err != nil {
		return core.User{}, fmt.Errorf("create user: %w", err)
	}
	if s.book != nil {
		s.book.upsertUser(created)
	}
	return created, nil
}

func (s *RosterService) UpdateUser(ctx context.Context, sess core.Session, u core.User) (core.User, error) {
	if err := checkWrite(sess); err != nil {
		return core.User{}, err
	}
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	if err := u.Validate(); err != nil {
		return core.User{}, fmt.Errorf("validate user: %w", err)
	}
	updated, err := s.users.UpdateUser(ctx, u)
	if err != nil {
		return core.User{}, fmt.Errorf("update user: %w", err)
	}
	if s.book != nil {
		s.book.upsertUser(updated)
	}
	return updated, nil
}

func (s *RosterService) DeleteUser(ctx context.Context, sess core.Session, id string) error {
	if err := checkWrite(sess); err != nil {
		return err
	}
	if err := s.users.DeleteUser(ctx, id); err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if s.book != nil {
		s.book.removeUser(id)
	}
	return nil
}

func (s *RosterService) lookup(ctx context.Context, email string) (core.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	users, err := s.users.ListUsers(ctx)
	if err != nil {
		return core.User{}, fmt.Errorf("list users: %w", err)
	}
	for _, u := range users {
		if strings.ToLower(u.Email) != email {
			continue
		}
		if u.Status == core.UserSuspenso {
			return core.User{}, fmt.Errorf("%w: %s", ErrSuspendedUser, email)
		}
		return u, nil
	}
	return core.User{}, fmt.Errorf("%w: %s", ErrUnknownUser, email)
}

// Resolve builds a session for an already authenticated email.
func (s *RosterService) Resolve(ctx context.Context, email string) (core.Session, error) {
	u, err := s.lookup(ctx, email)
	if err != nil {
		return core.Session{}, err
	}
	return core.Session{User: u, StartedAt: s.now()}, nil
}

// Login is Resolve plus recording the access time. Suspended users are
// refused. Credentials are checked upstream.
func (s *RosterService) Login(ctx context.Context, email string) (core.Session, error) {
	u, err := s.lookup(ctx, email)
	if err != nil {
		return core.Session{}, err
	}
	now := s.now()
	u.LastAccess = now.Format(time.RFC3339)
	if updated, err := s.users.UpdateUser(ctx, u); err != nil {
		s.logger.WarnContext(ctx, "Failed to record last access", log.FieldUserEmail, u.Email, log.FieldError, err)
	} else {
		u = updated
	}
	if s.book != nil {
		s.book.upsertUser(u)
	}
	s.logger.InfoContext(ctx, "User logged in", log.FieldUserEmail, u.Email, "role", u.Role)
	return core.Session{User: u, StartedAt: now}, nil
}

// EnsureAdmin creates an ADMIN user with email when the roster is empty,
// so a fresh install can be used at all.
func (s *RosterService) EnsureAdmin(ctx context.Context, name, email string) (bool, error) {
	users, err := s.users.ListUsers(ctx)
	if err != nil {
		return false, fmt.Errorf("list users: %w", err)
	}
	if len(users) > 0 {
		return false, nil
	}
	if strings.TrimSpace(name) == "" {
		name = "Admin"
	}
	u := core.User{
		Name:   name,
		Email:  strings.ToLower(strings.TrimSpace(email)),
		Role:   core.RoleAdmin,
		Status: core.UserAtivo,
	}
	if err := u.Validate(); err != nil {
		return false, fmt.Errorf("validate bootstrap admin: %w", err)
	}
	created, err := s.users.CreateUser(ctx, u)
	if err != nil {
		return false, fmt.Errorf("create bootstrap admin: %w", err)
	}
	if s.book != nil {
		s.book.upsertUser(created)
	}
	s.logger.InfoContext(ctx, "Bootstrap admin created", log.FieldUserEmail, created.Email)
	return true, nil
}
