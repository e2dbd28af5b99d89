package model

import "github.com/golang-jwt/jwt/v5"

// Roles carried in subject tokens.
const (
	RoleStudent = "student"
	RoleParent  = "parent"
	RoleTeacher = "teacher"
	RoleAdmin   = "admin"
)

// SubjectClaims are JWT claims identifying the caller.
type SubjectClaims struct {
	SubjectID string `json:"subjectId"`
	Role      string `json:"role"`
	jwt.RegisteredClaims
}
