package server

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/seatbelt-tracker/seatbelt-admin/internal/common/httpx"
	"github.com/seatbelt-tracker/seatbelt-admin/internal/common/paging"
	"github.com/seatbelt-tracker/seatbelt-admin/internal/survey"
)

func (s *DashboardServer) mountSiteHandlers(r chi.Router) {
	r.Get("/", httpx.WrapHttpRsp(s.listSites))
	r.Post("/", httpx.WrapHttpRsp(s.createSite))
	r.Get("/counties", httpx.WrapHttpRsp(s.listCounties))
	r.Get("/{name}", httpx.WrapHttpRsp(s.getSite))
	r.Put("/{name}", httpx.WrapHttpRsp(s.updateSite))
	r.Delete("/{name}", httpx.WrapHttpRsp(s.deleteSite))
}

func (s *DashboardServer) listSites(r *http.Request) (*httpx.Response, error) {
	number, size, err := pageParams(r)
	if err != nil {
		return nil, err
	}
	dir, err := s.client.ListSites(r.Context())
	if err != nil {
		return nil, err
	}
	q := r.URL.Query()
	var sites []survey.Site
	if county := q.Get("county"); county != "" {
		for _, c := range dir.Counties() {
			if strings.EqualFold(c, county) {
				sites = dir[c]
			}
		}
	} else {
		sites = dir.All()
	}
	sites = survey.FilterSites(sites, q.Get("search"))
	return ok(paging.Paginate(sites, number, size)), nil
}

func (s *DashboardServer) listCounties(r *http.Request) (*httpx.Response, error) {
	dir, err := s.client.ListSites(r.Context())
	if err != nil {
		return nil, err
	}
	return ok(dir.Counties()), nil
}

type SiteRsp struct {
	survey.Site
	MapsURL string `json:"mapsUrl,omitempty"`
}

func (s *DashboardServer) getSite(r *http.Request) (*httpx.Response, error) {
	site, err := s.client.GetSite(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		return nil, err
	}
	return ok(SiteRsp{Site: *site, MapsURL: site.MapsURL()}), nil
}

func (s *DashboardServer) createSite(r *http.Request) (*httpx.Response, error) {
	var site survey.Site
	if err := httpx.GetRequestData(r, &site); err != nil {
		return nil, err
	}
	if err := s.client.CreateSite(r.Context(), site); err != nil {
		return nil, err
	}
	return done(http.StatusCreated, site.Name, "/api/sites/"+url.PathEscape(site.Name)), nil
}

func (s *DashboardServer) updateSite(r *http.Request) (*httpx.Response, error) {
	name := chi.URLParam(r, "name")
	var site survey.Site
	if err := httpx.GetRequestData(r, &site); err != nil {
		return nil, err
	}
	if site.Name == "" {
		site.Name = name
	}
	if err := s.client.UpdateSite(r.Context(), name, site); err != nil {
		return nil, err
	}
	return done(http.StatusOK, name, ""), nil
}

func (s *DashboardServer) deleteSite(r *http.Request) (*httpx.Response, error) {
	name := chi.URLParam(r, "name")
	if err := s.client.DeleteSite(r.Context(), name); err != nil {
		return nil, err
	}
	return done(http.StatusOK, name, ""), nil
}
