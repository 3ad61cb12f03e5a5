package apiclient

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"

	"github.com/seatbelt-tracker/seatbelt-admin/internal/survey"
)

// XLSXContentType is the media type of the yearly export.
const XLSXContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// FirstExportYear is the earliest year the backend holds data for.
const FirstExportYear = 2022

// GetCollections returns all observations and volume counts.
func (c *Client) GetCollections(ctx context.Context) (*survey.DataSet, error) {
	res, err := c.Request(ctx, Descriptor{Name: "data.collections", Method: http.MethodGet, Path: "/admin/data/read-collections"})
	if err != nil {
		return nil, err
	}
	if err := checkShape(res, "collections", dataSetSchema); err != nil {
		return nil, err
	}
	ds := &survey.DataSet{}
	if err := res.Decode(ds); err != nil {
		return nil, err
	}
	return ds, nil
}

// ExportData downloads the spreadsheet of one year's data.
func (c *Client) ExportData(ctx context.Context, year int) ([]byte, error) {
	res, err := c.Request(ctx, Descriptor{
		Name:    "data.export",
		Method:  http.MethodGet,
		Path:    "/admin/data/export-data",
		Query:   url.Values{"year": {strconv.Itoa(year)}},
		Headers: map[string]string{"Accept": XLSXContentType},
	})
	if err != nil {
		return nil, err
	}
	return res.Body, nil
}

// ExportFileName is the name a yearly export is saved under.
func ExportFileName(year int) string {
	return fmt.Sprintf("seatbelt-data-%d.xlsx", year)
}

// ExportYears lists the years that can be exported, up to current.
func ExportYears(current int) []int {
	var years []int
	for y := FirstExportYear; y <= current; y++ {
		years = append(years, y)
	}
	return years
}

// Stats is the backend's dashboard summary. Its fields are not fixed.
type Stats map[string]any

// GetStats returns the dashboard summary.
func (c *Client) GetStats(ctx context.Context) (Stats, error) {
	res, err := c.Request(ctx, Descriptor{Name: "stats", Method: http.MethodGet, Path: "/admin/stats"})
	if err != nil {
		return nil, err
	}
	if res.IsText() {
		return Stats{"message": res.Text()}, nil
	}
	stats := Stats{}
	if err := res.Decode(&stats); err != nil {
		return nil, err
	}
	return stats, nil
}

// GetCollection returns one collection document.
func (c *Client) GetCollection(ctx context.Context, id string) (map[string]any, error) {
	res, err := c.Request(ctx, Descriptor{Name: "collections.get", Method: http.MethodGet, Path: "/collections/" + url.PathEscape(id)})
	if err != nil {
		return nil, err
	}
	doc := map[string]any{}
	if err := res.Decode(&doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// UploadResult is the backend's answer to a collection upload.
type UploadResult struct {
	Success bool   `json:"success"`
	FileURL string `json:"fileUrl"`
}

// UploadData sends a file to a collection as a multipart form with a single
// "file" part.
func (c *Client) UploadData(ctx context.Context, collectionID, fileName string, r io.Reader) (*UploadResult, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", fileName)
	if err != nil {
		return nil, ErrInvalidRequest.MsgErr("unable to build upload", err)
	}
	if _, err := io.Copy(part, r); err != nil {
		return nil, ErrInvalidRequest.MsgErr("unable to read upload", err)
	}
	if err := mw.Close(); err != nil {
		return nil, ErrInvalidRequest.MsgErr("unable to build upload", err)
	}

	res, err := c.Request(ctx, Descriptor{
		Name:    "collections.upload",
		Method:  http.MethodPost,
		Path:    "/collections/" + url.PathEscape(collectionID) + "/upload",
		Payload: &buf,
		Headers: map[string]string{"Content-Type": mw.FormDataContentType()},
	})
	if err != nil {
		return nil, err
	}
	if err := checkShape(res, "upload", uploadResultSchema); err != nil {
		return nil, err
	}
	out := &UploadResult{}
	if err := res.Decode(out); err != nil {
		return nil, err
	}
	return out, nil
}
