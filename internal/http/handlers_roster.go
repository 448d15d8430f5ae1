package http

import (
	"net/http"
	"strings"

	"brastech/internal/core"
)

func (s *Server) handleListClients(w http.ResponseWriter, r *http.Request) {
	clients := s.deps.Book.Clients()
	if clients == nil {
		clients = []core.Client{}
	}
	NewJSONResponse().Data(map[string]any{"clients": clients, "count": len(clients)}).Write(w)
}

func (s *Server) handleCreateClient(w http.ResponseWriter, r *http.Request) {
	var c core.Client
	if err := decodeJSON(w, r, &c); err != nil {
		s.writeError(w, r, err)
		return
	}
	c.ID = ""
	created, err := s.deps.Roster.CreateClient(r.Context(), sessionFrom(r.Context()), cleanClient(c))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	NewJSONResponse().Status(http.StatusCreated).Data(created).Write(w)
}

func (s *Server) handleUpdateClient(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var c core.Client
	if err := decodeJSON(w, r, &c); err != nil {
		s.writeError(w, r, err)
		return
	}
	c.ID = id
	updated, err := s.deps.Roster.UpdateClient(r.Context(), sessionFrom(r.Context()), cleanClient(c))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	NewJSONResponse().Data(updated).Write(w)
}

func (s *Server) handleDeleteClient(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.deps.Roster.DeleteClient(r.Context(), sessionFrom(r.Context()), id); err != nil {
		s.writeError(w, r, err)
		return
	}
	NoContent(w)
}

func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request) {
	users := s.deps.Book.Users()
	if users == nil {
		users = []core.User{}
	}
	NewJSONResponse().Data(map[string]any{"users": users, "count": len(users)}).Write(w)
}

func (s *Server) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	var u core.User
	if err := decodeJSON(w, r, &u); err != nil {
		s.writeError(w, r, err)
		return
	}
	u.ID = ""
	created, err := s.deps.Roster.CreateUser(r.Context(), sessionFrom(r.Context()), cleanUser(u))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	NewJSONResponse().Status(http.StatusCreated).Data(created).Write(w)
}

func (s *Server) handleUpdateUser(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var u core.User
	if err := decodeJSON(w, r, &u); err != nil {
		s.writeError(w, r, err)
		return
	}
	u.ID = id
	updated, err := s.deps.Roster.UpdateUser(r.Context(), sessionFrom(r.Context()), cleanUser(u))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	NewJSONResponse().Data(updated).Write(w)
}

func (s *Server) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.deps.Roster.DeleteUser(r.Context(), sessionFrom(r.Context()), id); err != nil {
		s.writeError(w, r, err)
		return
	}
	NoContent(w)
}

func cleanClient(c core.Client) core.Client {
	c.Name = sanitizeInput(c.Name)
	c.Phone = sanitizeInput(c.Phone)
	c.CPF = sanitizeInput(c.CPF)
	c.Address = sanitizeInput(c.Address)
	c.Observation = sanitizeInput(c.Observation)
	c.Consultant = sanitizeInput(c.Consultant)
	c.DueDate = sanitizeInput(c.DueDate)
	c.Status = core.ClientStatus(strings.ToUpper(strings.TrimSpace(string(c.Status))))
	return c
}

func cleanUser(u core.User) core.User {
	u.Name = sanitizeInput(u.Name)
	u.Email = sanitizeInput(u.Email)
	u.Role = core.UserRole(strings.ToUpper(strings.TrimSpace(string(u.Role))))
	u.Status = core.UserStatus(strings.ToUpper(strings.TrimSpace(string(u.Status))))
	return u
}
