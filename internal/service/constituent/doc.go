// Package constituent implements constituent record management.
//
// The service layer owns the create-or-merge rule: a create for an email that
// already exists updates the stored record and keeps its original signup
// date. It depends on the Repository interface defined in this package and
// should never import net/http or database/sql.
//
// Repository implementations live in repository/sqlstore/.
package constituent
