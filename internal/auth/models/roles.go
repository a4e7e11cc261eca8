package models

// Role is the fixed set of account roles. Assigned at creation (always
// RoleClient at self-registration) and never self-escalated.
type Role string

const (
	RoleClient          Role = "client"
	RoleStaff           Role = "staff"
	RoleOutreach        Role = "outreach"
	RoleAdmin           Role = "admin"
	RoleServiceProvider Role = "service_provider"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	switch r {
	case RoleClient, RoleStaff, RoleOutreach, RoleAdmin, RoleServiceProvider:
		return true
	}
	return false
}

// Permission enumerates capabilities granted to roles.
type Permission string

const (
	PermViewOwnProfile     Permission = "view_own_profile"
	PermEditOwnProfile     Permission = "edit_own_profile"
	PermViewOwnCases       Permission = "view_own_cases"
	PermViewClients        Permission = "view_clients"
	PermEditClients        Permission = "edit_clients"
	PermCreateCases        Permission = "create_cases"
	PermEditCases          Permission = "edit_cases"
	PermEditOwnCases       Permission = "edit_own_cases"
	PermViewAllCases       Permission = "view_all_cases"
	PermSendMessages       Permission = "send_messages"
	PermCreateAppointments Permission = "create_appointments"
	PermLogVisits          Permission = "log_visits"
	PermOrderSupplies      Permission = "order_supplies"
	PermViewReferrals      Permission = "view_referrals"
	PermUpdateReferrals    Permission = "update_referrals"
	PermViewAuditLog       Permission = "view_audit_log"
	PermManageUsers        Permission = "manage_users"
)

var allPermissions = []Permission{
	PermViewOwnProfile, PermEditOwnProfile, PermViewOwnCases,
	PermViewClients, PermEditClients,
	PermCreateCases, PermEditCases, PermEditOwnCases, PermViewAllCases,
	PermSendMessages, PermCreateAppointments,
	PermLogVisits, PermOrderSupplies,
	PermViewReferrals, PermUpdateReferrals,
	PermViewAuditLog, PermManageUsers,
}

var rolePermissions = map[Role][]Permission{
	RoleClient: {
		PermViewOwnProfile, PermEditOwnProfile, PermViewOwnCases, PermSendMessages,
	},
	RoleStaff: {
		PermViewClients, PermEditClients, PermCreateCases, PermEditCases,
		PermViewAllCases, PermSendMessages, PermCreateAppointments,
	},
	RoleOutreach: {
		PermViewClients, PermCreateCases, PermEditOwnCases, PermLogVisits,
		PermOrderSupplies, PermSendMessages,
	},
	RoleServiceProvider: {
		PermViewReferrals, PermUpdateReferrals, PermSendMessages,
	},
}

// Permissions returns the capability set for the role. Admin gets the
// exhaustive set - there is no wildcard value in the model.
func (r Role) Permissions() []Permission {
	if r == RoleAdmin {
		return append([]Permission{}, allPermissions...)
	}
	return append([]Permission{}, rolePermissions[r]...)
}

// Can reports whether the role holds the permission.
func (r Role) Can(p Permission) bool {
	if r == RoleAdmin {
		return true
	}
	for _, held := range rolePermissions[r] {
		if held == p {
			return true
		}
	}
	return false
}
