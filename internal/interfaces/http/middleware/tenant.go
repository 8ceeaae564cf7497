package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/erp/payables/internal/infrastructure/logger"
)

const (
	// TenantIDKey is the gin context key holding the tenant ID.
	TenantIDKey = "tenant_id"
	// TenantHeaderKey is the header clients use to identify the tenant.
	TenantHeaderKey = "X-Tenant-ID"
)

// TenantConfig controls tenant extraction.
type TenantConfig struct {
	// HeaderEnabled enables X-Tenant-ID header extraction.
	HeaderEnabled bool
	// SubdomainEnabled enables subdomain extraction against BaseDomain.
	SubdomainEnabled bool
	// BaseDomain is the base domain for subdomain extraction (e.g. "erp.example.com").
	BaseDomain string
	// SkipPaths bypass tenant extraction entirely (health probes etc.).
	SkipPaths []string
	// Required rejects requests without a tenant with 401.
	Required bool
	// Logger is optional; extraction is logged at debug level when set.
	Logger *zap.Logger
}

// DefaultTenantConfig returns the configuration used by the server:
// header extraction only, tenant optional so handlers can fall back to
// the development tenant.
func DefaultTenantConfig() TenantConfig {
	return TenantConfig{
		HeaderEnabled: true,
		SkipPaths:     []string{"/health", "/system"},
		Required:      false,
	}
}

// Tenant extracts tenant identity from the request and stores it in both
// the gin context and the request context, so the service layer sees a
// tenant-enriched logger.
func Tenant() gin.HandlerFunc {
	return TenantWithConfig(DefaultTenantConfig())
}

// TenantWithConfig returns tenant middleware with custom configuration.
func TenantWithConfig(cfg TenantConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.Request.URL.Path
		for _, skip := range cfg.SkipPaths {
			if path == skip || strings.HasPrefix(path, skip+"/") {
				c.Next()
				return
			}
		}

		var tenantID string
		if cfg.HeaderEnabled {
			tenantID = c.GetHeader(TenantHeaderKey)
		}
		if tenantID == "" && cfg.SubdomainEnabled && cfg.BaseDomain != "" {
			tenantID = tenantFromSubdomain(c.Request.Host, cfg.BaseDomain)
		}

		if tenantID != "" {
			if _, err := uuid.Parse(tenantID); err != nil {
				abortUnauthorized(c, "Invalid tenant ID format")
				return
			}
		}

		if tenantID == "" && cfg.Required {
			abortUnauthorized(c, "Tenant identification required")
			return
		}

		if tenantID != "" {
			c.Set(TenantIDKey, tenantID)

			ctx := c.Request.Context()
			log := logger.FromContext(ctx)
			ctx, _ = logger.WithTenantID(ctx, log, tenantID)
			c.Request = c.Request.WithContext(ctx)

			if cfg.Logger != nil {
				cfg.Logger.Debug("Tenant identified", zap.String("tenant_id", tenantID))
			}
		}

		c.Next()
	}
}

// tenantFromSubdomain extracts the tenant from the host, e.g.
// "acme.erp.example.com" with base "erp.example.com" yields "acme".
func tenantFromSubdomain(host, baseDomain string) string {
	if idx := strings.Index(host, ":"); idx != -1 {
		host = host[:idx]
	}
	if !strings.HasSuffix(host, baseDomain) {
		return ""
	}
	sub := strings.TrimSuffix(host, "."+baseDomain)
	if sub == host || sub == "" || sub == "www" {
		return ""
	}
	return strings.Split(sub, ".")[0]
}

func abortUnauthorized(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"success": false,
		"error": gin.H{
			"code":    "ERR_UNAUTHORIZED",
			"message": message,
		},
	})
}

// GetTenantID retrieves the tenant ID from the gin context.
func GetTenantID(c *gin.Context) string {
	return c.GetString(TenantIDKey)
}

// GetTenantUUID retrieves the tenant ID as a UUID, uuid.Nil when absent.
func GetTenantUUID(c *gin.Context) (uuid.UUID, error) {
	tenantID := GetTenantID(c)
	if tenantID == "" {
		return uuid.Nil, nil
	}
	return uuid.Parse(tenantID)
}
