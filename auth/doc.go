/*
Package auth computes what a user may do with an item in its current workflow state.

# Assignment types

Every state of a workflow maps some of the workflow roles to an assignment type:
none, reader, assignee or admin. A user gets the highest assignment type of all roles the user is a member of.

	Example state "review": editors -> reader, reviewers -> assignee, editor-in-chief -> admin

# Adhoc assignment

If a state has adhoc assignment enabled, roles of the state can be marked as adhoc roles.
Members of an adhoc role are only readers, unless they have been assigned to the item for that role.
An adhoc assignment makes the user an assignee of that single item.
*/
package auth
