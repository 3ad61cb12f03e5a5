package server

import (
	"net/http"
	"path/filepath"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/seatbelt-tracker/seatbelt-admin/internal/apiclient"
	"github.com/seatbelt-tracker/seatbelt-admin/internal/common/httpx"
	"github.com/seatbelt-tracker/seatbelt-admin/internal/common/paging"
	"github.com/seatbelt-tracker/seatbelt-admin/internal/survey"
)

func (s *DashboardServer) mountDataHandlers(r chi.Router) {
	r.Get("/", httpx.WrapHttpRsp(s.listData))
	r.Get("/summary", httpx.WrapHttpRsp(s.summarizeData))
	r.Get("/counties", httpx.WrapHttpRsp(s.dataCounties))
	r.Get("/export", httpx.WrapHttpRsp(s.exportData))
	r.Get("/export/years", httpx.WrapHttpRsp(s.exportYears))
	r.Post("/upload/{collectionID}", httpx.WrapHttpRsp(s.uploadData))
	r.Get("/collections/{collectionID}", httpx.WrapHttpRsp(s.getCollection))
}

// listData pages observations, or volume counts when volume=true.
func (s *DashboardServer) listData(r *http.Request) (*httpx.Response, error) {
	number, size, err := pageParams(r)
	if err != nil {
		return nil, err
	}
	ds, err := s.client.GetCollections(r.Context())
	if err != nil {
		return nil, err
	}
	q := r.URL.Query()
	county, search := q.Get("county"), q.Get("search")
	if volume, _ := strconv.ParseBool(q.Get("volume")); volume {
		return ok(paging.Paginate(survey.FilterVolume(ds.Volume, county, search), number, size)), nil
	}
	return ok(paging.Paginate(survey.FilterObservations(ds.Collections, county, search), number, size)), nil
}

type SummaryRsp struct {
	Dimension    survey.Dimension     `json:"dimension"`
	Observations int                  `json:"observations"`
	Usage        []survey.Usage       `json:"usage"`
	Volume       []survey.VolumeTotal `json:"volume"`
}

func (s *DashboardServer) summarizeData(r *http.Request) (*httpx.Response, error) {
	q := r.URL.Query()
	dim, valid := survey.ParseDimension(q.Get("by"))
	if !valid {
		return nil, httpx.ErrInvalidRequest("by must be county, vehicle or gender")
	}
	ds, err := s.client.GetCollections(r.Context())
	if err != nil {
		return nil, err
	}
	county := q.Get("county")
	obs := survey.FilterObservations(ds.Collections, county, "")
	return ok(SummaryRsp{
		Dimension:    dim,
		Observations: len(obs),
		Usage:        survey.UsageBy(obs, dim),
		Volume:       survey.VolumeTotals(survey.FilterVolume(ds.Volume, county, "")),
	}), nil
}

func (s *DashboardServer) dataCounties(r *http.Request) (*httpx.Response, error) {
	ds, err := s.client.GetCollections(r.Context())
	if err != nil {
		return nil, err
	}
	return ok(survey.Counties(*ds)), nil
}

func (s *DashboardServer) exportYears(r *http.Request) (*httpx.Response, error) {
	return ok(apiclient.ExportYears(s.now().Year())), nil
}

func (s *DashboardServer) exportData(r *http.Request) (*httpx.Response, error) {
	current := s.now().Year()
	year, err := intParam(r, "year", current)
	if err != nil {
		return nil, err
	}
	if year < apiclient.FirstExportYear || year > current {
		return nil, httpx.ErrInvalidRequest("year must be between " +
			strconv.Itoa(apiclient.FirstExportYear) + " and " + strconv.Itoa(current))
	}
	data, err := s.client.ExportData(r.Context(), year)
	if err != nil {
		return nil, err
	}
	return &httpx.Response{
		StatusCode:  http.StatusOK,
		ContentType: apiclient.XLSXContentType,
		Body:        data,
		Filename:    apiclient.ExportFileName(year),
	}, nil
}

func (s *DashboardServer) uploadData(r *http.Request) (*httpx.Response, error) {
	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		return nil, httpx.ErrUnableToParseReqData()
	}
	f, hdr, err := r.FormFile("file")
	if err != nil {
		return nil, httpx.ErrInvalidRequest("a file is required")
	}
	defer f.Close()

	res, err := s.client.UploadData(r.Context(), chi.URLParam(r, "collectionID"), filepath.Base(hdr.Filename), f)
	if err != nil {
		return nil, err
	}
	return &httpx.Response{StatusCode: http.StatusCreated, Response: res}, nil
}

func (s *DashboardServer) getCollection(r *http.Request) (*httpx.Response, error) {
	c, err := s.client.GetCollection(r.Context(), chi.URLParam(r, "collectionID"))
	if err != nil {
		return nil, err
	}
	return ok(c), nil
}

func (s *DashboardServer) getStats(r *http.Request) (*httpx.Response, error) {
	stats, err := s.client.GetStats(r.Context())
	if err != nil {
		return nil, err
	}
	return ok(stats), nil
}
