package server

import (
	"mime"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
	"github.com/seatbelt-tracker/seatbelt-admin/internal/common/httpx"
	"github.com/seatbelt-tracker/seatbelt-admin/internal/survey"
)

const maxUploadMemory = 32 << 20

func (s *DashboardServer) mountImageHandlers(r chi.Router) {
	r.Get("/", httpx.WrapHttpRsp(s.listImages))
	r.Post("/", httpx.WrapHttpRsp(s.uploadImage))
	r.Put("/", httpx.WrapHttpRsp(s.replaceImage))
	r.Delete("/", httpx.WrapHttpRsp(s.deleteImages))
}

func (s *DashboardServer) listImages(r *http.Request) (*httpx.Response, error) {
	q := r.URL.Query()
	county, site := q.Get("county"), q.Get("site")
	if county == "" || site == "" {
		return nil, httpx.ErrInvalidRequest("county and site are required")
	}
	images, err := s.client.ListImages(r.Context(), county, site)
	if err != nil {
		return nil, err
	}
	return ok(images), nil
}

func (s *DashboardServer) uploadImage(r *http.Request) (*httpx.Response, error) {
	return s.sendImage(r, false)
}

func (s *DashboardServer) replaceImage(r *http.Request) (*httpx.Response, error) {
	return s.sendImage(r, true)
}

// sendImage reads a multipart form with county, siteName, an optional
// fileName and the image itself in the "file" part.
func (s *DashboardServer) sendImage(r *http.Request, replace bool) (*httpx.Response, error) {
	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		log.Ctx(r.Context()).Debug().Err(err).Msg("unable to parse upload")
		return nil, httpx.ErrUnableToParseReqData()
	}
	f, hdr, err := r.FormFile("file")
	if err != nil {
		return nil, httpx.ErrInvalidRequest("an image file is required")
	}
	defer f.Close()

	ref := survey.ImageRef{
		County:   r.FormValue("county"),
		SiteName: r.FormValue("siteName"),
		FileName: r.FormValue("fileName"),
	}
	if ref.FileName == "" {
		ref.FileName = filepath.Base(hdr.Filename)
	}
	ct := partContentType(hdr.Header.Get("Content-Type"), hdr.Filename)
	if !strings.HasPrefix(ct, "image/") {
		return nil, httpx.ErrInvalidRequest(ref.FileName + " is not an image")
	}

	if replace {
		err = s.client.ReplaceImage(r.Context(), ref, ct, f)
	} else {
		err = s.client.UploadImage(r.Context(), ref, ct, f)
	}
	if err != nil {
		return nil, err
	}
	if replace {
		return done(http.StatusOK, ref.FileName, ""), nil
	}
	return done(http.StatusCreated, ref.FileName, ""), nil
}

func partContentType(declared, fileName string) string {
	if declared != "" && declared != "application/octet-stream" {
		return declared
	}
	return mime.TypeByExtension(strings.ToLower(filepath.Ext(fileName)))
}

type DeleteImagesReq struct {
	Images []survey.ImageRef `json:"images"`
}

func (s *DashboardServer) deleteImages(r *http.Request) (*httpx.Response, error) {
	if r.Body == nil {
		return nil, httpx.ErrUnableToParseReqData()
	}
	// DELETE carries a body here, which GetRequestData does not accept.
	var req DeleteImagesReq
	if err := decodeJSON(r, &req); err != nil {
		return nil, err
	}
	if len(req.Images) == 0 {
		return nil, httpx.ErrInvalidRequest("no images to delete")
	}
	if err := s.client.DeleteImages(r.Context(), req.Images); err != nil {
		return nil, err
	}
	return ok(DoneRsp{Result: 1}), nil
}
