package core

import "context"

// ContentStatus is the workflow position and lock of a content item.
type ContentStatus struct {
	ContentID     int    `json:"contentId"`
	CheckoutOwner string `json:"checkoutOwner"` // empty if not checked out
	WorkflowID    int    `json:"workflowId"`
	StateID       int    `json:"stateId"`
}

// IsCheckedOut returns whether anybody has checked out the item.
func (s ContentStatus) IsCheckedOut() bool {
	return s.CheckoutOwner != ""
}

// IsCheckedOutBy returns whether the given user has checked out the item. Case is ignored.
func (s ContentStatus) IsCheckedOutBy(userName string) bool {
	return s.IsCheckedOut() && CleanUserName(s.CheckoutOwner) == CleanUserName(userName)
}

// A ContentDB tells where items are in their workflow and who has checked them out.
type ContentDB interface {
	GetStatus(ctx context.Context, contentID int) (ContentStatus, error) // *NotFoundError if absent
	SetStatus(ctx context.Context, status ContentStatus) error
	SetCheckoutOwner(ctx context.Context, contentID int, userName string) error // empty userName checks in
}

// ContentAdhocUser assigns a user to a role for one item, outside of the normal role membership.
type ContentAdhocUser struct {
	ContentID int    `json:"contentId"`
	RoleID    int    `json:"roleId"`
	UserName  string `json:"userName"`
}

type AdhocDB interface {
	DeleteAdhocUser(ctx context.Context, a ContentAdhocUser) error
	DeleteAdhocUsers(ctx context.Context, contentID int) error
	FindAdhocUsers(ctx context.Context, contentID int) ([]ContentAdhocUser, error)
	InsertAdhocUser(ctx context.Context, a ContentAdhocUser) error
}
