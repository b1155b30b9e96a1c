package controllers

import (
	"context"
	"net/http"
	"strings"

	"github.com/angelmondragon/storefront/api/responses"
	"github.com/angelmondragon/storefront/api/validators"
	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
	"github.com/angelmondragon/storefront/pkg/logger"
	"github.com/angelmondragon/storefront/pkg/storefrontapi"
)

type sessionManager interface {
	Login(ctx context.Context, req storefrontapi.LoginRequest) (*storefrontapi.Envelope[*storefrontapi.AuthData], error)
	Logout(ctx context.Context) error
	CurrentUser(ctx context.Context) (*storefrontapi.User, error)
	UpdateProfile(ctx context.Context, update storefrontapi.ProfileUpdate) (*storefrontapi.User, error)
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type profileRequest struct {
	FirstName   string `json:"first_name" validate:"required"`
	LastName    string `json:"last_name" validate:"required"`
	Email       string `json:"email" validate:"required,email"`
	Gender      string `json:"gender" validate:"omitempty,oneof=MALE FEMALE"`
	PhoneNumber string `json:"phone_number"`
}

// SessionLogin signs in against the storefront API. The token never leaves
// this service; callers only see the user.
func SessionLogin(sessions sessionManager, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if sessions == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "session manager unavailable"))
			return
		}

		var req loginRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		env, err := sessions.Login(ctx, storefrontapi.LoginRequest{
			Email:    strings.TrimSpace(req.Email),
			Password: req.Password,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		if env.Data == nil || env.Data.Token == "" {
			msg := env.Message
			if msg == "" {
				msg = "login failed"
			}
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, msg))
			return
		}

		responses.WriteSuccess(w, map[string]any{"user": env.Data.User})
	}
}

func SessionLogout(sessions sessionManager, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if sessions == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "session manager unavailable"))
			return
		}
		if err := sessions.Logout(ctx); err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "clear credentials"))
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "logged_out"})
	}
}

func SessionCurrent(sessions sessionManager, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if sessions == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "session manager unavailable"))
			return
		}
		user, err := sessions.CurrentUser(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		if user == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "not signed in"))
			return
		}
		responses.WriteSuccess(w, map[string]any{"user": user})
	}
}

// SessionUpdateProfile edits the stored user locally.
func SessionUpdateProfile(sessions sessionManager, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if sessions == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "session manager unavailable"))
			return
		}

		var req profileRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		user, err := sessions.UpdateProfile(ctx, storefrontapi.ProfileUpdate{
			FirstName:   req.FirstName,
			LastName:    req.LastName,
			Email:       req.Email,
			Gender:      storefrontapi.Gender(req.Gender),
			PhoneNumber: req.PhoneNumber,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"user": user})
	}
}
