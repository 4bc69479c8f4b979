package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/kimjiwon0450/Front-HRHub-sub000/internal/config"
	"github.com/kimjiwon0450/Front-HRHub-sub000/internal/workflow"
)

const (
	// HeaderEmployeeID header 模式下的员工 ID
	HeaderEmployeeID = "X-Employee-ID"
	// HeaderEmployeeName header 模式下的员工姓名
	HeaderEmployeeName = "X-Employee-Name"

	sessionKey = "session"
)

// HeaderAuthMiddleware 开发环境使用的认证,直接信任请求头中的员工身份
func HeaderAuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		employeeID := strings.TrimSpace(c.GetHeader(HeaderEmployeeID))
		if employeeID == "" {
			unauthorized(c, "missing "+HeaderEmployeeID+" header", "")
			return
		}
		name := strings.TrimSpace(c.GetHeader(HeaderEmployeeName))
		if name == "" {
			name = employeeID
		}
		setIdentity(c, employeeID, name, nil)
		c.Next()
	}
}

// Middleware 按配置选择认证方式
func Middleware(cfg config.AuthConfig) gin.HandlerFunc {
	if cfg.Mode == "keycloak" {
		return KeycloakAuthMiddleware(NewKeycloakTokenValidator(cfg.Keycloak.Issuer, cfg.Keycloak.JWKSURL))
	}
	return HeaderAuthMiddleware()
}

// SessionFromContext 取出认证中间件写入的调用者身份
func SessionFromContext(c *gin.Context) (workflow.Session, bool) {
	v, ok := c.Get(sessionKey)
	if !ok {
		return workflow.Session{}, false
	}
	s, ok := v.(workflow.Session)
	return s, ok
}

func setIdentity(c *gin.Context, employeeID, name string, roles []string) {
	session := workflow.Session{EmployeeID: employeeID, Name: name, Roles: roles}
	c.Set(sessionKey, session)
	c.Set("user_id", employeeID)
	c.Set("name", name)
	c.Set("roles", roles)
}

func unauthorized(c *gin.Context, message, detail string) {
	body := gin.H{
		"code":    http.StatusUnauthorized,
		"message": message,
	}
	if detail != "" {
		body["detail"] = detail
	}
	c.AbortWithStatusJSON(http.StatusUnauthorized, body)
}
