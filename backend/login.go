package backend

import (
	"net/http"

	"github.com/julienschmidt/httprouter"
)

func login(w http.ResponseWriter, req *http.Request, ctx *handlerContext, _ httprouter.Params) error {

	user, err := ctx.db.LoginUser(req.Context(), req.PostFormValue("username"), req.PostFormValue("password"))
	if err != nil {
		return err
	}

	if err := ctx.sessions.RenewToken(req.Context()); err != nil {
		return err
	}
	ctx.sessions.Put(req.Context(), "user", user.Name)

	return writeJSON(w, http.StatusOK, user)
}

func logout(w http.ResponseWriter, req *http.Request, ctx *handlerContext, _ httprouter.Params) error {
	if err := ctx.sessions.Destroy(req.Context()); err != nil {
		return err
	}
	w.WriteHeader(http.StatusNoContent)
	return nil
}
