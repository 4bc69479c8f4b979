package auth

// GetPermissionModel 获取 OpenFGA 权限模型定义
func GetPermissionModel() string {
	return `model
  schema 1.1

type user

type template
  relations
    define owner: [user]
    define editor: [user] or owner
    define viewer: [user] or editor

type report
  relations
    define writer: [user]
    define approver: [user]
    define reference: [user]
    define viewer: [user] or writer or approver or reference`
}
