package api

import (
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// APIVersion 当前 API 版本
const APIVersion = "v1"

// DeprecatedVersionInfo 废弃版本信息
type DeprecatedVersionInfo struct {
	Version         string
	DeprecationDate time.Time
	SunsetDate      time.Time
	MigrationPath   string
}

// 版本兼容性配置
var (
	deprecatedVersions = make(map[string]DeprecatedVersionInfo)
	deprecatedMu       sync.RWMutex
)

// VersionMiddleware API 版本中间件
// 版本来自 URL 路径 /api/v1/...,请求头 API-Version 优先
func VersionMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		version := versionFromPath(c.Request.URL.Path)
		if headerVersion := c.GetHeader("API-Version"); headerVersion != "" {
			version = headerVersion
		}

		deprecatedMu.RLock()
		info, isDeprecated := deprecatedVersions[version]
		deprecatedMu.RUnlock()

		if isDeprecated {
			c.Header("X-API-Deprecated", "true")
			c.Header("X-API-Deprecation-Date", info.DeprecationDate.Format("2006-01-02"))
			c.Header("X-API-Sunset-Date", info.SunsetDate.Format("2006-01-02"))
			if info.MigrationPath != "" {
				c.Header("X-API-Migration-Path", info.MigrationPath)
			}
		}

		c.Set("api_version", version)
		c.Header("X-API-Version", version)
		c.Next()
	}
}

func versionFromPath(path string) string {
	rest := strings.TrimPrefix(path, "/api/")
	if rest == path {
		return APIVersion
	}
	segment := strings.SplitN(rest, "/", 2)[0]
	if len(segment) > 1 && segment[0] == 'v' {
		return segment
	}
	return APIVersion
}

// GetAPIVersion 从上下文获取 API 版本
func GetAPIVersion(c *gin.Context) string {
	if v := c.GetString("api_version"); v != "" {
		return v
	}
	return APIVersion
}

// RegisterDeprecatedVersion 注册废弃版本信息
func RegisterDeprecatedVersion(info DeprecatedVersionInfo) {
	deprecatedMu.Lock()
	defer deprecatedMu.Unlock()
	deprecatedVersions[info.Version] = info
}
