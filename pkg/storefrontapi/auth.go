package storefrontapi

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
)

// Login authenticates and, when credentials are attached, stores the token
// and user for later requests.
func (c *Client) Login(ctx context.Context, req LoginRequest) (*Envelope[*AuthData], error) {
	var out Envelope[*AuthData]
	if _, err := c.do(ctx, call{
		method:   http.MethodPost,
		path:     "/auth/login",
		body:     req,
		fallback: "login failed",
	}, &out); err != nil {
		return nil, err
	}
	if out.Data != nil && out.Data.Token != "" && c.credentials != nil {
		if err := c.credentials.Save(ctx, out.Data.Token, out.Data.User); err != nil {
			return nil, err
		}
	}
	return &out, nil
}

// Register creates an account. Optional address and avatar are omitted when
// blank.
func (c *Client) Register(ctx context.Context, req RegisterRequest) (*Envelope[*AuthData], error) {
	if req.Gender != GenderMale && req.Gender != GenderFemale {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "gender must be MALE or FEMALE")
	}
	req.Address = strings.TrimSpace(req.Address)
	req.AvatarURL = strings.TrimSpace(req.AvatarURL)

	var out Envelope[*AuthData]
	if _, err := c.do(ctx, call{
		method:   http.MethodPost,
		path:     "/auth/register",
		body:     req,
		fallback: "registration failed",
	}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Logout forgets the stored credentials.
func (c *Client) Logout(ctx context.Context) error {
	if c.credentials == nil {
		return nil
	}
	return c.credentials.Clear(ctx)
}

// GetProfile fetches the user's profile from the backend.
func (c *Client) GetProfile(ctx context.Context, userID int64) (*Envelope[*User], error) {
	var out Envelope[*User]
	if _, err := c.do(ctx, call{
		method:   http.MethodGet,
		path:     fmt.Sprintf("/v1/users/%d", userID),
		fallback: "failed to load profile",
	}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateProfile merges the edit into the stored user. The display name is
// rebuilt from first and last name.
func (c *Client) UpdateProfile(ctx context.Context, update ProfileUpdate) (*User, error) {
	update.FirstName = strings.TrimSpace(update.FirstName)
	update.LastName = strings.TrimSpace(update.LastName)
	update.Email = strings.TrimSpace(update.Email)
	update.PhoneNumber = strings.TrimSpace(update.PhoneNumber)
	if update.FirstName == "" || update.LastName == "" || update.Email == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "first name, last name and email are required")
	}
	if c.credentials == nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "no stored user")
	}

	user, err := c.credentials.User(ctx)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "no stored user")
	}

	user.FirstName = update.FirstName
	user.LastName = update.LastName
	user.Name = update.FirstName + " " + update.LastName
	user.Email = update.Email
	user.PhoneNumber = update.PhoneNumber
	if update.Gender != "" {
		user.Gender = update.Gender
	}
	if err := c.credentials.SaveUser(ctx, *user); err != nil {
		return nil, err
	}
	return user, nil
}

// CurrentUser returns the stored user, or nil when nobody is signed in.
func (c *Client) CurrentUser(ctx context.Context) (*User, error) {
	if c.credentials == nil {
		return nil, nil
	}
	return c.credentials.User(ctx)
}
