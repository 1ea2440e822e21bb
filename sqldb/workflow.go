package sqldb

import (
	"context"
	"database/sql"

	"github.com/wansing/editorial/core"
)

type WorkflowDB struct {
	*sql.DB
	delete          *sql.Stmt
	find            *sql.Stmt
	get             *sql.Stmt
	insert          *sql.Stmt
	insertWithID    *sql.Stmt
	update          *sql.Stmt
	roles           *sql.Stmt
	states          *sql.Stmt
	stateRoles      *sql.Stmt
	transitions     *sql.Stmt
	transitionRoles *sql.Stmt

	clearRoles           *sql.Stmt
	clearStates          *sql.Stmt
	clearStateRoles      *sql.Stmt
	clearTransitions     *sql.Stmt
	clearTransitionRoles *sql.Stmt

	pushRole           *sql.Stmt
	pushState          *sql.Stmt
	pushStateRole      *sql.Stmt
	pushTransition     *sql.Stmt
	pushTransitionRole *sql.Stmt
}

func NewWorkflowDB(db *sql.DB) *WorkflowDB {

	mustExec(db,
		`CREATE TABLE IF NOT EXISTS workflow (
			workflowId `+idColumn+`,
			workflowName varchar(64) NOT NULL,
			startingStateId int(11) NOT NULL DEFAULT 0,
			UNIQUE (workflowName)
		);`,
		`CREATE TABLE IF NOT EXISTS workflow_role (
			workflowId int(11) NOT NULL,
			roleId int(11) NOT NULL,
			roleName varchar(64) NOT NULL,
			PRIMARY KEY (workflowId, roleId)
		);`,
		`CREATE TABLE IF NOT EXISTS state (
			workflowId int(11) NOT NULL,
			stateId int(11) NOT NULL,
			position int(11) NOT NULL,
			stateName varchar(64) NOT NULL,
			publishable bool NOT NULL,
			adhocEnabled bool NOT NULL,
			PRIMARY KEY (workflowId, stateId)
		);`,
		`CREATE TABLE IF NOT EXISTS state_role (
			workflowId int(11) NOT NULL,
			stateId int(11) NOT NULL,
			roleId int(11) NOT NULL,
			assignment int(11) NOT NULL,
			adhoc bool NOT NULL,
			PRIMARY KEY (workflowId, stateId, roleId)
		);`,
		`CREATE TABLE IF NOT EXISTS transition (
			workflowId int(11) NOT NULL,
			transitionId int(11) NOT NULL,
			stateId int(11) NOT NULL,
			position int(11) NOT NULL,
			targetStateId int(11) NOT NULL,
			triggerName varchar(64) NOT NULL,
			label varchar(128) NOT NULL,
			allowAllRoles bool NOT NULL,
			comment int(11) NOT NULL,
			PRIMARY KEY (workflowId, transitionId)
		);`,
		`CREATE TABLE IF NOT EXISTS transition_role (
			workflowId int(11) NOT NULL,
			transitionId int(11) NOT NULL,
			roleId int(11) NOT NULL,
			allowed bool NOT NULL,
			PRIMARY KEY (workflowId, transitionId, roleId)
		);`)

	var workflowDB = &WorkflowDB{}
	workflowDB.DB = db
	workflowDB.delete = mustPrepare(db, "DELETE FROM workflow WHERE workflowId = ?")
	workflowDB.find = mustPrepare(db, "SELECT workflowId FROM workflow WHERE LOWER(workflowName) LIKE LOWER(?) ORDER BY LOWER(workflowName)")
	workflowDB.get = mustPrepare(db, "SELECT workflowName, startingStateId FROM workflow WHERE workflowId = ? LIMIT 1")
	workflowDB.insert = mustPrepare(db, "INSERT INTO workflow (workflowName, startingStateId) VALUES (?, ?)")
	workflowDB.insertWithID = mustPrepare(db, "INSERT INTO workflow (workflowId, workflowName, startingStateId) VALUES (?, ?, ?)")
	workflowDB.update = mustPrepare(db, "UPDATE workflow SET workflowName = ?, startingStateId = ? WHERE workflowId = ?")
	workflowDB.roles = mustPrepare(db, "SELECT roleId, roleName FROM workflow_role WHERE workflowId = ?")
	workflowDB.states = mustPrepare(db, "SELECT stateId, stateName, publishable, adhocEnabled FROM state WHERE workflowId = ? ORDER BY position")
	workflowDB.stateRoles = mustPrepare(db, "SELECT stateId, roleId, assignment, adhoc FROM state_role WHERE workflowId = ? ORDER BY roleId")
	workflowDB.transitions = mustPrepare(db, "SELECT transitionId, stateId, targetStateId, triggerName, label, allowAllRoles, comment FROM transition WHERE workflowId = ? ORDER BY position")
	workflowDB.transitionRoles = mustPrepare(db, "SELECT transitionId, roleId, allowed FROM transition_role WHERE workflowId = ? ORDER BY roleId")

	workflowDB.clearRoles = mustPrepare(db, "DELETE FROM workflow_role WHERE workflowId = ?")
	workflowDB.clearStates = mustPrepare(db, "DELETE FROM state WHERE workflowId = ?")
	workflowDB.clearStateRoles = mustPrepare(db, "DELETE FROM state_role WHERE workflowId = ?")
	workflowDB.clearTransitions = mustPrepare(db, "DELETE FROM transition WHERE workflowId = ?")
	workflowDB.clearTransitionRoles = mustPrepare(db, "DELETE FROM transition_role WHERE workflowId = ?")

	workflowDB.pushRole = mustPrepare(db, "INSERT INTO workflow_role (workflowId, roleId, roleName) VALUES (?, ?, ?)")
	workflowDB.pushState = mustPrepare(db, "INSERT INTO state (workflowId, stateId, position, stateName, publishable, adhocEnabled) VALUES (?, ?, ?, ?, ?, ?)")
	workflowDB.pushStateRole = mustPrepare(db, "INSERT INTO state_role (workflowId, stateId, roleId, assignment, adhoc) VALUES (?, ?, ?, ?, ?)")
	workflowDB.pushTransition = mustPrepare(db, "INSERT INTO transition (workflowId, transitionId, stateId, position, targetStateId, triggerName, label, allowAllRoles, comment) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)")
	workflowDB.pushTransitionRole = mustPrepare(db, "INSERT INTO transition_role (workflowId, transitionId, roleId, allowed) VALUES (?, ?, ?, ?)")
	return workflowDB
}

func (db *WorkflowDB) GetWorkflow(ctx context.Context, id int) (*core.Workflow, error) {

	var w = &core.Workflow{
		ID:    id,
		Roles: make(map[int]string),
	}

	err := db.get.QueryRowContext(ctx, id).Scan(&w.Name, &w.StartingStateID)
	if err == sql.ErrNoRows {
		return nil, core.NewNotFoundError(core.KindWorkflow, id)
	}
	if err != nil {
		return nil, err
	}

	if err := db.loadRoles(ctx, w); err != nil {
		return nil, err
	}

	states, err := db.loadStates(ctx, w)
	if err != nil {
		return nil, err
	}

	if err := db.loadStateRoles(ctx, w, states); err != nil {
		return nil, err
	}

	if err := db.loadTransitions(ctx, w, states); err != nil {
		return nil, err
	}

	return w, nil
}

func (db *WorkflowDB) loadRoles(ctx context.Context, w *core.Workflow) error {
	rows, err := db.roles.QueryContext(ctx, w.ID)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var id int
		var name string
		if err = rows.Scan(&id, &name); err != nil {
			return err
		}
		w.Roles[id] = name
	}
	return rows.Err()
}

// loadStates returns state id -> state
func (db *WorkflowDB) loadStates(ctx context.Context, w *core.Workflow) (map[int]*core.State, error) {
	rows, err := db.states.QueryContext(ctx, w.ID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var states = make(map[int]*core.State)
	for rows.Next() {
		var s = &core.State{
			WorkflowID:  w.ID,
			Roles:       []core.StateRole{},
			Transitions: []*core.Transition{},
		}
		if err = rows.Scan(&s.ID, &s.Name, &s.Publishable, &s.AdhocEnabled); err != nil {
			return nil, err
		}
		w.States = append(w.States, s)
		states[s.ID] = s
	}
	return states, rows.Err()
}

func (db *WorkflowDB) loadStateRoles(ctx context.Context, w *core.Workflow, states map[int]*core.State) error {
	rows, err := db.stateRoles.QueryContext(ctx, w.ID)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var stateID int
		var sr core.StateRole
		if err = rows.Scan(&stateID, &sr.RoleID, &sr.Assignment, &sr.Adhoc); err != nil {
			return err
		}
		if s, ok := states[stateID]; ok {
			s.Roles = append(s.Roles, sr)
		}
	}
	return rows.Err()
}

func (db *WorkflowDB) loadTransitions(ctx context.Context, w *core.Workflow, states map[int]*core.State) error {

	var transitions = make(map[int]*core.Transition)

	rows, err := db.transitions.QueryContext(ctx, w.ID)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var t = &core.Transition{}
		if err = rows.Scan(&t.ID, &t.StateID, &t.TargetStateID, &t.Trigger, &t.Label, &t.AllowAllRoles, &t.Comment); err != nil {
			return err
		}
		if s, ok := states[t.StateID]; ok {
			s.Transitions = append(s.Transitions, t)
			transitions[t.ID] = t
		}
	}
	if err = rows.Err(); err != nil {
		return err
	}

	roleRows, err := db.transitionRoles.QueryContext(ctx, w.ID)
	if err != nil {
		return err
	}
	defer roleRows.Close()

	for roleRows.Next() {
		var transitionID int
		var tr core.TransitionRole
		if err = roleRows.Scan(&transitionID, &tr.RoleID, &tr.Allowed); err != nil {
			return err
		}
		if t, ok := transitions[transitionID]; ok {
			t.Roles = append(t.Roles, tr)
		}
	}
	return roleRows.Err()
}

func (db *WorkflowDB) FindWorkflowIDs(ctx context.Context, pattern string) ([]int, error) {

	rows, err := db.find.QueryContext(ctx, pattern)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids = []int{}
	for rows.Next() {
		var id int
		if err = rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// SaveWorkflow replaces the stored graph of w. If w.ID is zero, the workflow is inserted and w.ID is set.
func (db *WorkflowDB) SaveWorkflow(ctx context.Context, w *core.Workflow) error {

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback() // no effect after commit

	if w.ID == 0 {
		res, err := tx.StmtContext(ctx, db.insert).ExecContext(ctx, w.Name, w.StartingStateID)
		if err != nil {
			return err
		}
		id, err := res.LastInsertId()
		if err != nil {
			return err
		}
		w.ID = int(id)
	} else {
		res, err := tx.StmtContext(ctx, db.update).ExecContext(ctx, w.Name, w.StartingStateID, w.ID)
		if err != nil {
			return err
		}
		if n, err := res.RowsAffected(); err != nil {
			return err
		} else if n == 0 {
			if _, err := tx.StmtContext(ctx, db.insertWithID).ExecContext(ctx, w.ID, w.Name, w.StartingStateID); err != nil {
				return err
			}
		}
	}

	if err := db.clear(ctx, tx, w.ID); err != nil {
		return err
	}

	for roleID, roleName := range w.Roles {
		if _, err := tx.StmtContext(ctx, db.pushRole).ExecContext(ctx, w.ID, roleID, roleName); err != nil {
			return err
		}
	}

	var transitionPosition = 0

	for statePosition, s := range w.States {

		if _, err := tx.StmtContext(ctx, db.pushState).ExecContext(ctx, w.ID, s.ID, statePosition, s.Name, s.Publishable, s.AdhocEnabled); err != nil {
			return err
		}

		for _, sr := range s.Roles {
			if _, err := tx.StmtContext(ctx, db.pushStateRole).ExecContext(ctx, w.ID, s.ID, sr.RoleID, int(sr.Assignment), sr.Adhoc); err != nil {
				return err
			}
		}

		for _, t := range s.Transitions {
			if _, err := tx.StmtContext(ctx, db.pushTransition).ExecContext(ctx, w.ID, t.ID, s.ID, transitionPosition, t.TargetStateID, t.Trigger, t.Label, t.AllowAllRoles, int(t.Comment)); err != nil {
				return err
			}
			transitionPosition++
			for _, tr := range t.Roles {
				if _, err := tx.StmtContext(ctx, db.pushTransitionRole).ExecContext(ctx, w.ID, t.ID, tr.RoleID, tr.Allowed); err != nil {
					return err
				}
			}
		}
	}

	return tx.Commit()
}

func (db *WorkflowDB) clear(ctx context.Context, tx *sql.Tx, workflowID int) error {
	for _, stmt := range []*sql.Stmt{db.clearRoles, db.clearStates, db.clearStateRoles, db.clearTransitions, db.clearTransitionRoles} {
		if _, err := tx.StmtContext(ctx, stmt).ExecContext(ctx, workflowID); err != nil {
			return err
		}
	}
	return nil
}

func (db *WorkflowDB) DeleteWorkflow(ctx context.Context, id int) error {

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	if err = db.clear(ctx, tx, id); err != nil {
		tx.Rollback()
		return err
	}

	if _, err = tx.StmtContext(ctx, db.delete).ExecContext(ctx, id); err != nil {
		tx.Rollback()
		return err
	}

	return tx.Commit()
}
