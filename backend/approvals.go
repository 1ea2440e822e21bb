package backend

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/julienschmidt/httprouter"
	"github.com/wansing/editorial/core"
)

// approvals lists the votes of an item or of the session user.
func approvals(w http.ResponseWriter, req *http.Request, ctx *handlerContext, _ httprouter.Params) error {

	var query = req.URL.Query()
	var list []core.ContentApproval
	var err error

	if content := query.Get("content"); content != "" {
		contentID, convErr := strconv.Atoi(content)
		if convErr != nil {
			return &core.ValidationError{Field: "content", Reason: "not a number"}
		}
		list, err = ctx.db.Ledger.FindByItem(req.Context(), contentID)
	} else {
		if user := query.Get("user"); user != "" && core.CleanUserName(user) != core.CleanUserName(ctx.UserName) {
			return ErrForbidden
		}
		list, err = ctx.db.Ledger.FindByUser(req.Context(), ctx.UserName)
	}
	if err != nil {
		return err
	}

	if list == nil {
		list = []core.ContentApproval{}
	}
	return writeJSON(w, http.StatusOK, list)
}

type approveRequest struct {
	ContentID    int `json:"contentId"`
	TransitionID int `json:"transitionId"`
}

func approve(w http.ResponseWriter, req *http.Request, ctx *handlerContext, _ httprouter.Params) error {

	var body approveRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		return &core.ValidationError{Field: "body", Reason: err.Error()}
	}

	roles, err := ctx.UserRoles()
	if err != nil {
		return err
	}
	if roles == nil {
		roles = []string{}
	}

	if err := ctx.db.Vote(req.Context(), body.ContentID, body.TransitionID, ctx.UserName, roles); err != nil {
		return err
	}

	w.WriteHeader(http.StatusNoContent)
	return nil
}
