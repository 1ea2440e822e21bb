package core

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
)

// ItemInfo is what the calculator knows about one item during one computation.
type ItemInfo struct {
	ContentID     int
	Assignment    AssignmentType
	WorkflowID    int
	StateID       int
	CheckoutOwner string
}

func (info ItemInfo) status() ContentStatus {
	return ContentStatus{
		ContentID:     info.ContentID,
		CheckoutOwner: info.CheckoutOwner,
		WorkflowID:    info.WorkflowID,
		StateID:       info.StateID,
	}
}

// A Request asks which actions a user can apply to all of the given items.
// AssignmentTypes[i] belongs to ContentIDs[i].
type Request struct {
	ContentIDs      []int            `json:"contentIds"`
	AssignmentTypes []AssignmentType `json:"assignmentTypes"`
	UserName        string           `json:"userName"`
	UserRoles       []string         `json:"userRoles"`
	Locale          string           `json:"locale,omitempty"`
}

func (r *Request) validate() error {
	if strings.TrimSpace(r.UserName) == "" {
		return &ValidationError{Field: "user name", Reason: "empty"}
	}
	if len(r.ContentIDs) == 0 {
		return &ValidationError{Field: "content ids", Reason: "empty"}
	}
	if len(r.ContentIDs) != len(r.AssignmentTypes) {
		return &ValidationError{Field: "assignment types", Reason: fmt.Sprintf("got %d for %d items", len(r.AssignmentTypes), len(r.ContentIDs))}
	}
	if r.UserRoles == nil {
		return &ValidationError{Field: "user roles", Reason: "missing"}
	}
	for i, a := range r.AssignmentTypes {
		if !a.Valid() {
			return &ValidationError{Field: "assignment types", Reason: fmt.Sprintf("invalid value %d for content %d", a, r.ContentIDs[i])}
		}
	}
	return nil
}

// A Result contains the actions which apply to the whole batch.
// Faults lists the items which could not be evaluated, as *NotFoundError or *IntegrityError.
type Result struct {
	Actions []Action `json:"actions"`
	Faults  []error  `json:"-"`

	faulted map[ItemInfo]struct{} // reported once per item, workflow and state
}

// An AssignmentResolver computes the assignment types of a user on items.
type AssignmentResolver interface {
	AssignmentTypes(ctx context.Context, contentIDs []int, userName string, userRoles []string) ([]AssignmentType, error)
}

// A Calculator computes the checkin, checkout and transition actions which a user can apply to a batch of items.
//
// It holds no state between calls. Run a computation inside one read snapshot of the underlying stores if votes must not change during it.
type Calculator struct {
	Store      *WorkflowStore
	Ledger     *ApprovalLedger
	Content    ContentDB
	Resolver   AssignmentResolver // required by ActionsFor only
	Translator Translator         // optional
	Logger     *slog.Logger       // optional
}

// Actions returns the checkin/checkout action and the transition actions which apply to all items, in this order.
func (c *Calculator) Actions(ctx context.Context, req Request) ([]Action, error) {
	res, err := c.Compute(ctx, req)
	if err != nil {
		return nil, err
	}
	return res.Actions, nil
}

// ActionsFor resolves the assignment types of the user and calls Actions.
func (c *Calculator) ActionsFor(ctx context.Context, contentIDs []int, userName string, userRoles []string, locale string) ([]Action, error) {
	if c.Resolver == nil {
		return nil, errors.New("no assignment resolver configured")
	}
	assignmentTypes, err := c.Resolver.AssignmentTypes(ctx, contentIDs, userName, userRoles)
	if err != nil {
		return nil, fmt.Errorf("resolving assignment types: %w", err)
	}
	return c.Actions(ctx, Request{
		ContentIDs:      contentIDs,
		AssignmentTypes: assignmentTypes,
		UserName:        userName,
		UserRoles:       userRoles,
		Locale:          locale,
	})
}

// Compute is like Actions, but reports the items which could not be evaluated.
func (c *Calculator) Compute(ctx context.Context, req Request) (*Result, error) {

	if err := req.validate(); err != nil {
		return nil, err
	}

	var res = &Result{}

	infos, err := c.itemInfos(ctx, req, res)
	if err != nil {
		return nil, err
	}

	ciao, err := c.ciaoActions(ctx, infos, req, res)
	if err != nil {
		return nil, err
	}

	transitions, err := c.transitionActions(ctx, infos, req, res)
	if err != nil {
		return nil, err
	}

	res.Actions = append(ciao, transitions...)
	return res, nil
}

// CheckinCheckoutActions returns the checkin, checkout or force-checkin action which applies to all items, if any.
func (c *Calculator) CheckinCheckoutActions(ctx context.Context, req Request) ([]Action, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}
	var res = &Result{}
	infos, err := c.itemInfos(ctx, req, res)
	if err != nil {
		return nil, err
	}
	return c.ciaoActions(ctx, infos, req, res)
}

// TransitionActions returns the transitions which the user can apply to all items.
func (c *Calculator) TransitionActions(ctx context.Context, req Request) ([]Action, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}
	var res = &Result{}
	infos, err := c.itemInfos(ctx, req, res)
	if err != nil {
		return nil, err
	}
	return c.transitionActions(ctx, infos, req, res)
}

// itemInfos looks up the status of each item. Items which don't exist are skipped and reported as faults.
func (c *Calculator) itemInfos(ctx context.Context, req Request, res *Result) ([]ItemInfo, error) {
	var infos = make([]ItemInfo, 0, len(req.ContentIDs))
	for i, contentID := range req.ContentIDs {
		status, err := c.Content.GetStatus(ctx, contentID)
		if IsNotFound(err) {
			c.logger().Warn("skipping unknown item", "content", contentID, "err", err)
			res.Faults = append(res.Faults, err)
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("getting status of content %d: %w", contentID, err)
		}
		infos = append(infos, ItemInfo{
			ContentID:     contentID,
			Assignment:    req.AssignmentTypes[i],
			WorkflowID:    status.WorkflowID,
			StateID:       status.StateID,
			CheckoutOwner: status.CheckoutOwner,
		})
	}
	return infos, nil
}

func (c *Calculator) ciaoActions(ctx context.Context, infos []ItemInfo, req Request, res *Result) ([]Action, error) {

	var machine = NewStateMachine(c.Store)
	var common ActionKind // zero means none

	for i, info := range infos {
		kind, err := c.ciaoKind(ctx, machine, info, req.UserName, res)
		if err != nil {
			return nil, err
		}
		if i == 0 {
			common = kind
		} else if kind != common {
			common = 0
		}
		if common == 0 {
			break
		}
	}

	switch common {
	case ActionCheckin:
		return []Action{newCIAOAction(ActionCheckin, c.translate(KeyCheckin, "Check In", req.Locale))}, nil
	case ActionCheckout:
		return []Action{newCIAOAction(ActionCheckout, c.translate(KeyCheckout, "Check Out", req.Locale))}, nil
	case ActionForceCheckin:
		return []Action{newCIAOAction(ActionForceCheckin, c.translate(KeyForceCheckin, "Force Check In", req.Locale))}, nil
	default:
		return []Action{}, nil
	}
}

// ciaoKind determines the checkin/checkout action of a single item. The first matching rule wins.
func (c *Calculator) ciaoKind(ctx context.Context, machine *StateMachine, info ItemInfo, userName string, res *Result) (ActionKind, error) {

	var status = info.status()

	switch {
	case status.IsCheckedOutBy(userName):
		return ActionCheckin, nil
	case status.IsCheckedOut():
		if info.Assignment.AtLeast(AssignAdmin) {
			return ActionForceCheckin, nil
		}
		return 0, nil
	case info.Assignment.AtLeast(AssignAssignee):
		public, err := machine.IsPublic(ctx, info.WorkflowID, info.StateID)
		if IsNotFound(err) {
			c.integrityFault(info, err, res)
			return 0, nil
		}
		if err != nil {
			return 0, err
		}
		if public {
			return 0, nil
		}
		return ActionCheckout, nil
	default:
		return 0, nil
	}
}

func (c *Calculator) transitionActions(ctx context.Context, infos []ItemInfo, req Request, res *Result) ([]Action, error) {

	var common []Action

	for i, info := range infos {

		actions, ok, err := c.itemTransitionActions(ctx, info, req, res)
		if err != nil {
			return nil, err
		}
		if !ok {
			return []Action{}, nil
		}

		if i == 0 {
			common = actions
		} else {
			// adhoc assignment is for single items only
			common = retainAll(common, withoutAdhoc(actions))
		}

		if len(common) == 0 {
			break
		}
	}

	if common == nil {
		common = []Action{}
	}
	return common, nil
}

// itemTransitionActions returns the transitions which the user can apply to one item.
// ok is false if the state of the item can't be loaded.
// An item the user can't act on yields an empty list, which empties the intersection of the whole batch.
func (c *Calculator) itemTransitionActions(ctx context.Context, info ItemInfo, req Request, res *Result) (actions []Action, ok bool, err error) {

	actions = []Action{}

	if !info.Assignment.AtLeast(AssignAssignee) {
		return actions, true, nil
	}

	var isAdmin = info.Assignment.AtLeast(AssignAdmin)

	if info.status().IsCheckedOut() && !info.status().IsCheckedOutBy(req.UserName) && !isAdmin {
		return actions, true, nil
	}

	workflow, err := c.Store.LoadCached(ctx, info.WorkflowID)
	if IsNotFound(err) {
		c.integrityFault(info, err, res)
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	state := workflow.State(info.StateID)
	if state == nil {
		c.integrityFault(info, NewNotFoundError(KindState, fmt.Sprintf("%d/%d", info.WorkflowID, info.StateID)), res)
		return nil, false, nil
	}

	acted, err := c.Ledger.HasUserActed(ctx, req.UserName, info.WorkflowID, info.StateID, info.ContentID)
	if err != nil {
		return nil, false, err
	}
	if acted {
		return actions, true, nil // wait for the other votes
	}

	var roleIDs = workflow.RoleIDs(req.UserRoles)
	var approvals []ContentApproval
	var approvalsLoaded bool

	for _, t := range TransitionsFrom(state) {

		if !isAdmin && !t.AllowAllRoles {
			if !approvalsLoaded {
				approvals, err = c.Ledger.FindByItemState(ctx, info.ContentID, info.WorkflowID, info.StateID)
				if err != nil {
					return nil, false, err
				}
				approvalsLoaded = true
			}
			if !CanActInRole(t, roleIDs, approvals) {
				continue
			}
		}

		target, err := TargetState(workflow, t)
		if err != nil {
			c.integrityFault(info, err, res)
			continue
		}

		var label = c.translate(TransitionLabelKey(workflow.ID, t.ID, t.Label), t.Label, req.Locale)
		actions = append(actions, newTransitionAction(t, target, label))
	}

	return actions, true, nil
}

func (c *Calculator) integrityFault(info ItemInfo, err error, res *Result) {
	var key = ItemInfo{ContentID: info.ContentID, WorkflowID: info.WorkflowID, StateID: info.StateID}
	if _, ok := res.faulted[key]; ok {
		return
	}
	if res.faulted == nil {
		res.faulted = make(map[ItemInfo]struct{})
	}
	res.faulted[key] = struct{}{}
	c.logger().Error("workflow data missing", "content", info.ContentID, "workflow", info.WorkflowID, "state", info.StateID, "err", err)
	res.Faults = append(res.Faults, &IntegrityError{
		ContentID:  info.ContentID,
		WorkflowID: info.WorkflowID,
		StateID:    info.StateID,
		Err:        err,
	})
}

func (c *Calculator) translate(key, defaultLabel, locale string) string {
	if c.Translator == nil {
		return defaultLabel
	}
	return c.Translator.Translate(key, defaultLabel, locale)
}

func (c *Calculator) logger() *slog.Logger {
	if c.Logger == nil {
		return slog.Default()
	}
	return c.Logger
}
