package apiclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"slices"
	"strings"

	"github.com/seatbelt-tracker/seatbelt-admin/internal/survey"
)

const usersPath = "/admin/users"

// ListUsers returns all users ordered by email. The backend answers with
// either an array or an object keyed by email.
func (c *Client) ListUsers(ctx context.Context) ([]survey.User, error) {
	res, err := c.Request(ctx, Descriptor{Name: "users.list", Method: http.MethodGet, Path: usersPath + "/read"})
	if err != nil {
		return nil, err
	}
	if err := checkShape(res, "users", userListSchema); err != nil {
		return nil, err
	}

	var users []survey.User
	if _, isArray := res.Value.([]any); isArray {
		if err := res.Decode(&users); err != nil {
			return nil, err
		}
	} else {
		var byEmail map[string]survey.User
		if err := res.Decode(&byEmail); err != nil {
			return nil, err
		}
		for email, u := range byEmail {
			u.Email = email
			users = append(users, u)
		}
	}
	slices.SortFunc(users, func(a, b survey.User) int {
		return strings.Compare(a.Email, b.Email)
	})
	return users, nil
}

// GetUser fetches one user by email.
func (c *Client) GetUser(ctx context.Context, email string) (*survey.User, error) {
	res, err := c.Request(ctx, Descriptor{Name: "users.get", Method: http.MethodGet, Path: userPath("read", email)})
	if err != nil {
		return nil, err
	}
	u := &survey.User{}
	if err := res.Decode(u); err != nil {
		return nil, err
	}
	if u.Email == "" {
		u.Email = email
	}
	return u, nil
}

// CreateUser validates u, password included, and creates it.
func (c *Client) CreateUser(ctx context.Context, u survey.User) error {
	if err := survey.ValidateUser(u, true); err != nil {
		return err
	}
	_, err := c.Request(ctx, Descriptor{Name: "users.create", Method: http.MethodPost, Path: usersPath + "/create", Body: u})
	return err
}

// UpdateUser replaces the user stored under email. A password is only sent
// when set.
func (c *Client) UpdateUser(ctx context.Context, email string, u survey.User) error {
	if err := survey.ValidateUser(u, false); err != nil {
		return err
	}
	_, err := c.Request(ctx, Descriptor{Name: "users.update", Method: http.MethodPut, Path: userPath("update", email), Body: u})
	return err
}

// DeleteUser removes the user stored under email.
func (c *Client) DeleteUser(ctx context.Context, email string) error {
	_, err := c.Request(ctx, Descriptor{Name: "users.delete", Method: http.MethodDelete, Path: userPath("delete", email)})
	return err
}

// RawUser returns the user document as sent by the backend, for callers that
// patch individual fields.
func (c *Client) RawUser(ctx context.Context, email string) (json.RawMessage, error) {
	res, err := c.Request(ctx, Descriptor{Name: "users.get", Method: http.MethodGet, Path: userPath("read", email)})
	if err != nil {
		return nil, err
	}
	if res.JSON() == nil {
		return nil, ErrTextResponse.Msg("expected a JSON response, got text")
	}
	return json.RawMessage(res.JSON()), nil
}

func userPath(op, email string) string {
	return usersPath + "/" + op + "/" + url.PathEscape(email)
}
