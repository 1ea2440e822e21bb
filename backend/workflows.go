package backend

import (
	"net/http"
	"strconv"

	"github.com/julienschmidt/httprouter"
	"github.com/wansing/editorial/core"
)

func intParam(params httprouter.Params, name string) (int, error) {
	value, err := strconv.Atoi(params.ByName(name))
	if err != nil {
		return 0, &core.ValidationError{Field: name, Reason: "not a number"}
	}
	return value, nil
}

func workflows(w http.ResponseWriter, req *http.Request, ctx *handlerContext, _ httprouter.Params) error {
	found, err := ctx.db.Store.FindByName(req.Context(), req.URL.Query().Get("name"))
	if err != nil {
		return err
	}
	if found == nil {
		found = []*core.Workflow{}
	}
	return writeJSON(w, http.StatusOK, found)
}

func workflow(w http.ResponseWriter, req *http.Request, ctx *handlerContext, params httprouter.Params) error {
	id, err := intParam(params, "id")
	if err != nil {
		return err
	}
	wf, err := ctx.db.Store.LoadCached(req.Context(), id)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, wf)
}

func isPublic(w http.ResponseWriter, req *http.Request, ctx *handlerContext, params httprouter.Params) error {
	id, err := intParam(params, "id")
	if err != nil {
		return err
	}
	stateID, err := intParam(params, "state")
	if err != nil {
		return err
	}
	public, err := ctx.db.Machine.IsPublic(req.Context(), id, stateID)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, map[string]bool{"public": public})
}
