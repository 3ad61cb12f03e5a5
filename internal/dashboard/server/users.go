package server

import (
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
	"github.com/seatbelt-tracker/seatbelt-admin/internal/common/httpx"
	"github.com/seatbelt-tracker/seatbelt-admin/internal/common/paging"
	"github.com/seatbelt-tracker/seatbelt-admin/internal/survey"
)

func (s *DashboardServer) mountUserHandlers(r chi.Router) {
	r.Get("/", httpx.WrapHttpRsp(s.listUsers))
	r.Post("/", httpx.WrapHttpRsp(s.createUser))
	r.Get("/{email}", httpx.WrapHttpRsp(s.getUser))
	r.Put("/{email}", httpx.WrapHttpRsp(s.updateUser))
	r.Delete("/{email}", httpx.WrapHttpRsp(s.deleteUser))
}

func (s *DashboardServer) listUsers(r *http.Request) (*httpx.Response, error) {
	number, size, err := pageParams(r)
	if err != nil {
		return nil, err
	}
	users, err := s.client.ListUsers(r.Context())
	if err != nil {
		return nil, err
	}
	q := r.URL.Query()
	users = survey.FilterUsers(users, q.Get("search"), q.Get("role"))
	return ok(paging.Paginate(users, number, size)), nil
}

func (s *DashboardServer) getUser(r *http.Request) (*httpx.Response, error) {
	u, err := s.client.GetUser(r.Context(), chi.URLParam(r, "email"))
	if err != nil {
		return nil, err
	}
	return ok(u), nil
}

func (s *DashboardServer) createUser(r *http.Request) (*httpx.Response, error) {
	var u survey.User
	if err := httpx.GetRequestData(r, &u); err != nil {
		return nil, err
	}
	if err := s.client.CreateUser(r.Context(), u); err != nil {
		return nil, err
	}
	return done(http.StatusCreated, u.Email, "/api/users/"+url.PathEscape(u.Email)), nil
}

func (s *DashboardServer) updateUser(r *http.Request) (*httpx.Response, error) {
	email := chi.URLParam(r, "email")
	var u survey.User
	if err := httpx.GetRequestData(r, &u); err != nil {
		return nil, err
	}
	if u.Email == "" {
		u.Email = email
	}
	if err := s.client.UpdateUser(r.Context(), email, u); err != nil {
		return nil, err
	}
	return done(http.StatusOK, email, ""), nil
}

func (s *DashboardServer) deleteUser(r *http.Request) (*httpx.Response, error) {
	email := chi.URLParam(r, "email")
	if err := s.client.DeleteUser(r.Context(), email); err != nil {
		return nil, err
	}
	return done(http.StatusOK, email, ""), nil
}
