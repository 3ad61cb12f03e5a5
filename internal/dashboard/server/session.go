package server

import (
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/seatbelt-tracker/seatbelt-admin/internal/auth"
	"github.com/seatbelt-tracker/seatbelt-admin/internal/common/httpx"
	"github.com/seatbelt-tracker/seatbelt-admin/internal/identity"
)

type SessionRsp struct {
	State     string     `json:"state"`
	Access    string     `json:"access"`
	Identity  string     `json:"identity,omitempty"`
	ExpiresAt *time.Time `json:"expiresAt,omitempty"`
}

func (s *DashboardServer) sessionRsp() *SessionRsp {
	rsp := &SessionRsp{
		Access: auth.NewGuard(s.provider).Check().String(),
		State:  s.provider.State().String(),
	}
	if sess, ok := s.provider.Session(); ok {
		rsp.Identity = sess.Identity
		exp := sess.ExpiresAt
		rsp.ExpiresAt = &exp
	}
	return rsp
}

func (s *DashboardServer) getSession(r *http.Request) (*httpx.Response, error) {
	return &httpx.Response{
		StatusCode: http.StatusOK,
		Response:   s.sessionRsp(),
	}, nil
}

func (s *DashboardServer) login(r *http.Request) (*httpx.Response, error) {
	var creds identity.Credentials
	if err := httpx.GetRequestData(r, &creds); err != nil {
		return nil, err
	}
	err := s.provider.Login(r.Context(), creds)
	s.metrics.observeLogin(err)
	if err != nil {
		return nil, err
	}
	return &httpx.Response{
		StatusCode: http.StatusOK,
		Response:   s.sessionRsp(),
	}, nil
}

func (s *DashboardServer) logout(r *http.Request) (*httpx.Response, error) {
	if err := s.provider.Logout(r.Context()); err != nil {
		log.Ctx(r.Context()).Error().Err(err).Msg("logout failed")
		return nil, httpx.ErrApplicationError("Unable to sign out. Please try again.")
	}
	return &httpx.Response{
		StatusCode: http.StatusOK,
		Response:   s.sessionRsp(),
	}, nil
}
