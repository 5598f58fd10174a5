package handler

import (
	"net/http"
	"strings"

	"gatherlocal/internal/app/notice"
	"gatherlocal/internal/pkg/errs"
	"gatherlocal/internal/pkg/logx"
	"gatherlocal/internal/pkg/req"
	"gatherlocal/internal/pkg/resp"
)

type LoginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type RegisterInput struct {
	FullName string `json:"fullName"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// HandleGetSession returns the current session snapshot.
func HandleGetSession(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp.RespondSuccess(w, r, deps.Session.Snapshot())
	}
}

// HandleLogin signs in with email and password.
func HandleLogin(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var input LoginInput
		if customErr := req.BindJSON(r, &input); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		input.Email = strings.TrimSpace(input.Email)
		if input.Email == "" || input.Password == "" {
			resp.RespondError(w, r, errs.NewError(errs.ErrInvalidParams))
			return
		}

		if err := deps.Session.Login(r.Context(), input.Email, input.Password); err != nil {
			logx.Info("Login rejected", "code", errs.From(err).Code)
			resp.RespondErr(w, r, err)
			return
		}

		resp.RespondSuccess(w, r, deps.Session.Snapshot())
	}
}

// HandleRegister creates an account and signs in with it.
func HandleRegister(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var input RegisterInput
		if customErr := req.BindJSON(r, &input); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		input.FullName = strings.TrimSpace(input.FullName)
		input.Email = strings.TrimSpace(input.Email)
		if input.Email == "" || input.Password == "" {
			resp.RespondError(w, r, errs.NewError(errs.ErrInvalidParams))
			return
		}

		if err := deps.Session.Register(r.Context(), input.FullName, input.Email, input.Password); err != nil {
			logx.Info("Registration rejected", "code", errs.From(err).Code)
			resp.RespondErr(w, r, err)
			return
		}

		resp.RespondSuccess(w, r, deps.Session.Snapshot())
	}
}

// HandleLogout signs out. It always succeeds.
func HandleLogout(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		deps.Session.Logout()
		if deps.Notices != nil {
			deps.Notices.Publish(notice.Success("Logged out successfully"))
		}
		resp.RespondSuccess(w, r, deps.Session.Snapshot())
	}
}
