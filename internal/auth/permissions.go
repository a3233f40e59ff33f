package auth

// Permission represents a named capability in the system, formatted as an
// opaque action:resource token (e.g. "create:task").
type Permission string

// Task permissions.
const (
	PermTaskCreate Permission = "create:task"
	PermTaskRead   Permission = "read:task"
	PermTaskUpdate Permission = "update:task"
	PermTaskDelete Permission = "delete:task"
)

// Schedule permissions.
const (
	PermScheduleCreate  Permission = "create:schedule"
	PermScheduleRead    Permission = "read:schedule"
	PermScheduleDelete  Permission = "delete:schedule"
	PermScheduleExecute Permission = "execute:schedule"
)

// Automation permissions.
const (
	PermAutomationCreate  Permission = "create:automation"
	PermAutomationRead    Permission = "read:automation"
	PermAutomationUpdate  Permission = "update:automation"
	PermAutomationDelete  Permission = "delete:automation"
	PermAutomationExecute Permission = "execute:automation"
)

// Device permissions.
const (
	PermDeviceCreate   Permission = "create:device"
	PermDeviceRead     Permission = "read:device"
	PermDeviceUpdate   Permission = "update:device"
	PermDeviceDelete   Permission = "delete:device"
	PermCommandExecute Permission = "execute:command"
)

// Role and user management permissions.
const (
	PermRoleCreate Permission = "create:role"
	PermRoleRead   Permission = "read:role"
	PermRoleAssign Permission = "assign:role"
	PermRoleRemove Permission = "remove:role"
	PermUserCreate Permission = "create:user"
	PermUserRead   Permission = "read:user"
	PermUserUpdate Permission = "update:user"
)

// Miscellaneous permissions.
const (
	PermNotificationCreate Permission = "create:notification"
	PermProfileReadOwn     Permission = "read:own_profile"
)

// Default role names created at bootstrap.
const (
	RoleNameUser  = "user"
	RoleNameAdmin = "admin"
)

// DefaultUserPermissions are granted to the bootstrap "user" role: read
// access plus management of the member's own tasks.
func DefaultUserPermissions() []Permission {
	return []Permission{
		PermProfileReadOwn,
		PermTaskCreate,
		PermTaskRead,
		PermTaskUpdate,
		PermTaskDelete,
		PermScheduleRead,
		PermAutomationRead,
		PermDeviceRead,
	}
}

// AdminPermissions is the full permission superset granted to the
// bootstrap "admin" role.
func AdminPermissions() []Permission {
	return []Permission{
		PermTaskCreate, PermTaskRead, PermTaskUpdate, PermTaskDelete,
		PermScheduleCreate, PermScheduleRead, PermScheduleDelete, PermScheduleExecute,
		PermAutomationCreate, PermAutomationRead, PermAutomationUpdate,
		PermAutomationDelete, PermAutomationExecute,
		PermDeviceCreate, PermDeviceRead, PermDeviceUpdate, PermDeviceDelete,
		PermCommandExecute,
		PermRoleCreate, PermRoleRead, PermRoleAssign, PermRoleRemove,
		PermUserCreate, PermUserRead, PermUserUpdate,
		PermNotificationCreate,
		PermProfileReadOwn,
	}
}
