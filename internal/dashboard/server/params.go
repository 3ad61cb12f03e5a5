package server

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/seatbelt-tracker/seatbelt-admin/internal/common/httpx"
	"github.com/seatbelt-tracker/seatbelt-admin/internal/common/paging"
)

// pageParams reads the page and pageSize query parameters. Missing values
// select the first page of the default size.
func pageParams(r *http.Request) (int, int, error) {
	number, err := intParam(r, "page", 1)
	if err != nil {
		return 0, 0, err
	}
	size, err := intParam(r, "pageSize", paging.DefaultPageSize)
	if err != nil {
		return 0, 0, err
	}
	return number, size, nil
}

func intParam(r *http.Request, name string, def int) (int, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, httpx.ErrInvalidRequest("invalid " + name)
	}
	return n, nil
}

func ok(v any) *httpx.Response {
	return &httpx.Response{StatusCode: http.StatusOK, Response: v}
}

type DoneRsp struct {
	Result int    `json:"result"`
	Name   string `json:"name,omitempty"`
}

func done(status int, name, location string) *httpx.Response {
	return &httpx.Response{
		StatusCode: status,
		Location:   location,
		Response:   DoneRsp{Result: 1, Name: name},
	}
}

func decodeJSON(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return httpx.ErrUnableToParseReqData()
	}
	return nil
}
