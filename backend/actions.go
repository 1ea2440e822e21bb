package backend

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/julienschmidt/httprouter"
	"github.com/wansing/editorial/core"
)

// parseContentIDs reads one or more content ids, either repeated or comma-separated.
func parseContentIDs(values []string) ([]int, error) {
	var ids []int
	for _, value := range values {
		for _, field := range strings.Split(value, ",") {
			field = strings.TrimSpace(field)
			if field == "" {
				continue
			}
			id, err := strconv.Atoi(field)
			if err != nil {
				return nil, &core.ValidationError{Field: "content", Reason: "not a number: " + field}
			}
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		return nil, &core.ValidationError{Field: "content", Reason: "empty"}
	}
	return ids, nil
}

// getActions resolves the assignment types of the session user.
func getActions(w http.ResponseWriter, req *http.Request, ctx *handlerContext, _ httprouter.Params) error {

	ids, err := parseContentIDs(req.URL.Query()["content"])
	if err != nil {
		return err
	}

	roles, err := ctx.UserRoles()
	if err != nil {
		return err
	}

	actions, err := ctx.db.Calculator.ActionsFor(req.Context(), ids, ctx.UserName, roles, req.URL.Query().Get("locale"))
	if err != nil {
		return err
	}

	return writeJSON(w, http.StatusOK, actions)
}

type actionsRequest struct {
	ContentIDs      []int                 `json:"contentIds"`
	AssignmentTypes []core.AssignmentType `json:"assignmentTypes"`
	Locale          string                `json:"locale"`
}

type actionsResponse struct {
	Actions []core.Action `json:"actions"`
	Faults  []string      `json:"faults"`
}

// postActions takes explicit assignment types. User name and roles are those of the session user.
// The assignment types can only lower those which the session user actually has.
func postActions(w http.ResponseWriter, req *http.Request, ctx *handlerContext, _ httprouter.Params) error {

	var body actionsRequest
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

	if len(body.ContentIDs) != len(body.AssignmentTypes) {
		return &core.ValidationError{Field: "assignment types", Reason: fmt.Sprintf("got %d for %d items", len(body.AssignmentTypes), len(body.ContentIDs))}
	}
	if ctx.db.Calculator.Resolver == nil {
		return errors.New("no assignment resolver configured")
	}
	resolved, err := ctx.db.Calculator.Resolver.AssignmentTypes(req.Context(), body.ContentIDs, ctx.UserName, roles)
	if err != nil {
		return err
	}
	for i := range body.AssignmentTypes {
		body.AssignmentTypes[i] = min(body.AssignmentTypes[i], resolved[i])
	}

	res, err := ctx.db.Calculator.Compute(req.Context(), core.Request{
		ContentIDs:      body.ContentIDs,
		AssignmentTypes: body.AssignmentTypes,
		UserName:        ctx.UserName,
		UserRoles:       roles,
		Locale:          body.Locale,
	})
	if err != nil {
		return err
	}

	var faults = make([]string, len(res.Faults))
	for i := range res.Faults {
		faults[i] = res.Faults[i].Error()
	}

	return writeJSON(w, http.StatusOK, actionsResponse{
		Actions: res.Actions,
		Faults:  faults,
	})
}
