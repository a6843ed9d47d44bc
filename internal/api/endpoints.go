package api

import (
	"context"
	"fmt"
	"net/http"

	"golang.org/x/oauth2"

	"github.com/GoBizAdmin/GoBizAdmin/internal/domain"
	"github.com/GoBizAdmin/GoBizAdmin/internal/permission"
)

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string          `json:"token"`
	User  domain.Identity `json:"user"`
}

type permissionsRequest struct {
	Permissions []string `json:"permissions"`
}

// Login exchanges credentials for a token. Rejected credentials return domain.ErrUnauthorized.
func (c *Client) Login(ctx context.Context, username, password string) (string, domain.Identity, error) {
	var resp loginResponse

	err := c.do(ctx, c.base, http.MethodPost, "/auth/login", loginRequest{Username: username, Password: password}, &resp)
	if err != nil {
		return "", domain.Identity{}, err
	}

	if resp.Token == "" {
		return "", domain.Identity{}, &StatusError{StatusCode: http.StatusOK, Message: "login response without token"}
	}

	return resp.Token, resp.User, nil
}

// FetchIdentity resolves token into the identity it belongs to.
func (c *Client) FetchIdentity(ctx context.Context, token string) (domain.Identity, error) {
	var identity domain.Identity

	hc := c.bearerClient(oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token, TokenType: "Bearer"}))

	if err := c.do(ctx, hc, http.MethodGet, "/auth/me", nil, &identity); err != nil {
		return domain.Identity{}, err
	}

	return identity, nil
}

// FetchAuthorizedLocations lists the locations the identity may operate in, in remote order.
func (c *Client) FetchAuthorizedLocations(ctx context.Context, identityID int64) ([]domain.Location, error) {
	var locations []domain.Location

	if err := c.do(ctx, c.authed, http.MethodGet, fmt.Sprintf("/users/%d/businesses", identityID), nil, &locations); err != nil {
		return nil, err
	}

	return locations, nil
}

// CreateLocation creates a location.
func (c *Client) CreateLocation(ctx context.Context, in domain.LocationInput) (domain.Location, error) {
	var loc domain.Location

	if err := c.do(ctx, c.authed, http.MethodPost, "/businesses", in, &loc); err != nil {
		return domain.Location{}, err
	}

	return loc, nil
}

// UpdateLocation replaces the editable fields of a location.
func (c *Client) UpdateLocation(ctx context.Context, id int64, in domain.LocationInput) (domain.Location, error) {
	var loc domain.Location

	if err := c.do(ctx, c.authed, http.MethodPut, fmt.Sprintf("/businesses/%d", id), in, &loc); err != nil {
		return domain.Location{}, err
	}

	return loc, nil
}

// DeleteLocation deletes a location.
func (c *Client) DeleteLocation(ctx context.Context, id int64) error {
	return c.do(ctx, c.authed, http.MethodDelete, fmt.Sprintf("/businesses/%d", id), nil, nil)
}

// FetchPermissions returns the permission records of an identity at a location.
func (c *Client) FetchPermissions(ctx context.Context, identityID, locationID int64) ([]permission.Record, error) {
	var records []permission.Record

	path := fmt.Sprintf("/businesses/%d/users/%d/permissions", locationID, identityID)
	if err := c.do(ctx, c.authed, http.MethodGet, path, nil, &records); err != nil {
		return nil, err
	}

	return records, nil
}

// GrantPermissions grants the named permissions to an identity at a location.
func (c *Client) GrantPermissions(ctx context.Context, identityID, locationID int64, names []string) error {
	path := fmt.Sprintf("/businesses/%d/users/%d/permissions/grant", locationID, identityID)

	return c.do(ctx, c.authed, http.MethodPost, path, permissionsRequest{Permissions: names}, nil)
}

// RevokePermissions revokes the named explicit grants of an identity at a location.
func (c *Client) RevokePermissions(ctx context.Context, identityID, locationID int64, names []string) error {
	path := fmt.Sprintf("/businesses/%d/users/%d/permissions/revoke", locationID, identityID)

	return c.do(ctx, c.authed, http.MethodPost, path, permissionsRequest{Permissions: names}, nil)
}

// Employees lists the members of a location.
func (c *Client) Employees(ctx context.Context, locationID int64) ([]domain.Employee, error) {
	var employees []domain.Employee

	if err := c.do(ctx, c.authed, http.MethodGet, fmt.Sprintf("/businesses/%d/employees", locationID), nil, &employees); err != nil {
		return nil, err
	}

	return employees, nil
}

// Catalog lists the suppliers, units or categories of a location.
func (c *Client) Catalog(ctx context.Context, locationID int64, kind domain.CatalogKind) ([]domain.CatalogItem, error) {
	if !kind.Valid() {
		return nil, fmt.Errorf("catalog %q: %w", kind, domain.ErrNotFound)
	}

	var items []domain.CatalogItem

	if err := c.do(ctx, c.authed, http.MethodGet, fmt.Sprintf("/businesses/%d/%s", locationID, kind), nil, &items); err != nil {
		return nil, err
	}

	return items, nil
}
