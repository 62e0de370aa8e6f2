package cache

import "fmt"

// Entry kinds, used as metric labels.
const (
	KindUserByName = "user_by_name"
	KindUserByID   = "user_by_id"
	KindRole       = "role"
	KindUserRole   = "user_role"
)

// RoleKey holds the definition of a named role. These keys live in a
// namespace shared with every other client of the cache instance.
func RoleKey(name string) string {
	return "role:" + name
}

// UserRoleKey holds the effective role of a user.
func UserRoleKey(userID uint) string {
	return fmt.Sprintf("user_role:%d", userID)
}

// UserNameKey holds a user snapshot looked up by name. It shares the user:
// prefix with UserIDKey.
func UserNameKey(userName string) string {
	return "user:" + userName
}

// UserIDKey holds a user snapshot looked up by id.
func UserIDKey(userID uint) string {
	return fmt.Sprintf("user:%d", userID)
}
