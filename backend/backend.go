// Package backend serves the workflow engine as a JSON API.
package backend

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/alexedwards/scs/v2"
	"github.com/julienschmidt/httprouter"
	"github.com/wansing/editorial/core"
	"github.com/wansing/editorial/sqldb"
)

var (
	ErrForbidden = errors.New("forbidden")
	ErrLogin     = errors.New("not logged in")
)

// handlerContext is created for every request
type handlerContext struct {
	db       *core.CoreDB
	sessions *scs.SessionManager
	req      *http.Request
	UserName string // empty if not logged in
}

func (ctx *handlerContext) LoggedIn() bool {
	return ctx.UserName != ""
}

// UserRoles returns the role names of the logged-in user.
func (ctx *handlerContext) UserRoles() ([]string, error) {
	return ctx.db.RoleNames(ctx.req.Context(), ctx.UserName)
}

type handler func(w http.ResponseWriter, req *http.Request, ctx *handlerContext, params httprouter.Params) error

func middleware(db *core.CoreDB, sessions *scs.SessionManager, requireLoggedIn bool, f handler) httprouter.Handle {
	return func(w http.ResponseWriter, req *http.Request, params httprouter.Params) {

		var ctx = &handlerContext{
			db:       db,
			sessions: sessions,
			req:      req,
			UserName: sessions.GetString(req.Context(), "user"),
		}

		if requireLoggedIn && !ctx.LoggedIn() {
			writeError(w, ErrLogin)
			return
		}

		if err := f(w, req, ctx, params); err != nil {
			if status(err) == http.StatusInternalServerError {
				db.Logger.Error("request failed", "method", req.Method, "path", req.URL.Path, "user", ctx.UserName, "err", err)
			}
			writeError(w, err)
		}
	}
}

// NewBackendRouter returns a handler for the JSON API. It must be wrapped by sessions.LoadAndSave.
func NewBackendRouter(db *core.CoreDB, sessions *scs.SessionManager) http.Handler {

	var router = httprouter.New()

	// public
	router.POST("/login", middleware(db, sessions, false, login))
	router.GET("/logout", middleware(db, sessions, false, logout))

	// private
	router.GET("/actions", middleware(db, sessions, true, getActions))
	router.POST("/actions", middleware(db, sessions, true, postActions))
	router.GET("/approvals", middleware(db, sessions, true, approvals))
	router.POST("/approve", middleware(db, sessions, true, approve))
	router.GET("/workflows", middleware(db, sessions, true, workflows))
	router.GET("/workflow/:id", middleware(db, sessions, true, workflow))
	router.GET("/workflow/:id/state/:state/public", middleware(db, sessions, true, isPublic))

	return router
}

func status(err error) int {
	switch {
	case errors.Is(err, ErrLogin), errors.Is(err, sqldb.ErrAuth):
		return http.StatusUnauthorized
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, core.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, core.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, core.ErrAlreadyVoted):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, err error) {
	var code = status(err)
	var message = err.Error()
	if code == http.StatusInternalServerError {
		message = http.StatusText(code) // don't reveal internals
	}
	writeJSON(w, code, map[string]string{"error": message})
}

func writeJSON(w http.ResponseWriter, code int, v interface{}) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	return json.NewEncoder(w).Encode(v)
}
