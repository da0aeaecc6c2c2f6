package domain

type Role string

const (
	RoleClient  Role = "client"
	RoleOps     Role = "ops"
	RoleFinance Role = "finance"
	RoleAdmin   Role = "admin"
)

// Actor is the opaque identity the core enforces its rules against.
// Issuing sessions and proving who the caller is happens upstream.
type Actor struct {
	ID   int64
	Name string
	Role Role
}

// CanOperate gates the operations-side actions: status overrides and
// full booking listings.
func (a Actor) CanOperate() bool {
	return a.Role == RoleOps || a.Role == RoleAdmin
}

// CanVerify gates the finance-side actions: payment verification and
// the ledger views.
func (a Actor) CanVerify() bool {
	return a.Role == RoleFinance || a.Role == RoleAdmin
}
