package apiclient

import (
	"context"
	"net/http"
	"net/url"

	"github.com/seatbelt-tracker/seatbelt-admin/internal/survey"
)

const sitesPath = "/admin/sites"

// ListSites returns sites grouped by county. The backend answers with either
// a county keyed object or a flat array.
func (c *Client) ListSites(ctx context.Context) (survey.SiteDirectory, error) {
	res, err := c.Request(ctx, Descriptor{Name: "sites.list", Method: http.MethodGet, Path: sitesPath + "/read"})
	if err != nil {
		return nil, err
	}
	if err := checkShape(res, "sites", siteListSchema); err != nil {
		return nil, err
	}

	if _, isArray := res.Value.([]any); isArray {
		var sites []survey.Site
		if err := res.Decode(&sites); err != nil {
			return nil, err
		}
		return survey.GroupSites(sites), nil
	}

	dir := survey.SiteDirectory{}
	if err := res.Decode(&dir); err != nil {
		return nil, err
	}
	for county, sites := range dir {
		for i := range sites {
			if sites[i].County == "" {
				sites[i].County = county
			}
		}
	}
	return dir, nil
}

// GetSite fetches one site by name.
func (c *Client) GetSite(ctx context.Context, name string) (*survey.Site, error) {
	res, err := c.Request(ctx, Descriptor{Name: "sites.get", Method: http.MethodGet, Path: sitePath("read", name)})
	if err != nil {
		return nil, err
	}
	s := &survey.Site{}
	if err := res.Decode(s); err != nil {
		return nil, err
	}
	if s.Name == "" {
		s.Name = name
	}
	return s, nil
}

func (c *Client) CreateSite(ctx context.Context, s survey.Site) error {
	if err := survey.ValidateSite(s); err != nil {
		return err
	}
	_, err := c.Request(ctx, Descriptor{Name: "sites.create", Method: http.MethodPost, Path: sitesPath + "/create", Body: s})
	return err
}

func (c *Client) UpdateSite(ctx context.Context, name string, s survey.Site) error {
	if err := survey.ValidateSite(s); err != nil {
		return err
	}
	_, err := c.Request(ctx, Descriptor{Name: "sites.update", Method: http.MethodPut, Path: sitePath("update", name), Body: s})
	return err
}

func (c *Client) DeleteSite(ctx context.Context, name string) error {
	_, err := c.Request(ctx, Descriptor{Name: "sites.delete", Method: http.MethodDelete, Path: sitePath("delete", name)})
	return err
}

func sitePath(op, name string) string {
	return sitesPath + "/" + op + "/" + url.PathEscape(name)
}
