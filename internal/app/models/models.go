// Package models holds the persistence models of the portal.
package models

import "github.com/oaustech/docportal/internal/workflow"

// Departments lists the department codes a student can register under
var Departments = []string{
	"CSC", "NUR", "MCB", "CVE", "ME", "MTH", "FST", "AEE", "PHY", "GPY",
	"GEO", "BOT", "ICH", "BCH", "ZOO", "STA", "MLS", "PH", "ACC",
}

// RoleType is the role stored on a user row
type RoleType = workflow.Role

const (
	RoleStudent = workflow.RoleStudent
	RoleAdmin   = workflow.RoleAdmin
)

// IsDepartment reports whether code is one of Departments.
func IsDepartment(code string) bool {
	for _, d := range Departments {
		if d == code {
			return true
		}
	}
	return false
}
