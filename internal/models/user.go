package models

// UserRole represents the dashboard roles issued by the identity provider.
type UserRole string

const (
	RoleAdmin   UserRole = "ADMIN"
	RoleManager UserRole = "MANAGER"
	RoleTeacher UserRole = "TEACHER"
	RoleStudent UserRole = "STUDENT"
)

// OperatorRoles may rank candidates and commit assignments.
func OperatorRoles() []UserRole {
	return []UserRole{RoleAdmin, RoleManager}
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}
