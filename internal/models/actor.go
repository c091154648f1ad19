package models

// Actor is the authenticated identity extracted from the user service's JWT.
type Actor struct {
	ID    string
	Role  Role
	Name  string
	Phone string
}
