//go:build !darwin

package screen

// HasPermission 非 macOS 平台不需要单独授权
func HasPermission() bool {
	return true
}

// OpenPermissionSettings 非 macOS 平台无操作
func OpenPermissionSettings() {}

// PermissionHint 非 macOS 平台无提示
func PermissionHint() string {
	return ""
}
