package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"delivery_costs_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

func newTestEngine(roles ...string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	group := engine.Group("", AuthMiddleware())
	if len(roles) > 0 {
		group.Use(RoleAuthMiddleware(roles...))
	}
	group.GET("/whoami", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"tenant_id": c.GetInt64("tenantID"), "role": c.GetString("userRole")})
	})
	return engine
}

func token(t *testing.T, tenantID int64, role string) string {
	t.Helper()
	signed, err := utils.GenerateAccessToken(1, tenantID, "ana", role, time.Hour)
	if err != nil {
		t.Fatalf("GenerateAccessToken returned error: %v", err)
	}
	return signed
}

func TestAuthMiddleware(t *testing.T) {
	utils.SetJWTSecret("middleware-test-secret")

	tests := []struct {
		name       string
		header     string
		roles      []string
		wantStatus int
	}{
		{name: "missing header", header: "", wantStatus: http.StatusUnauthorized},
		{name: "wrong scheme", header: "Basic abc", wantStatus: http.StatusUnauthorized},
		{name: "garbage token", header: "Bearer not-a-token", wantStatus: http.StatusUnauthorized},
		{name: "valid token", header: "Bearer " + token(t, 7, RoleStaff), wantStatus: http.StatusOK},
		{name: "role allowed", header: "Bearer " + token(t, 7, "staff"), roles: []string{RoleAdmin, RoleStaff}, wantStatus: http.StatusOK},
		{name: "role denied", header: "Bearer " + token(t, 7, RoleStaff), roles: []string{RoleAdmin}, wantStatus: http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			newTestEngine(tt.roles...).ServeHTTP(w, req)
			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d (body %s)", w.Code, tt.wantStatus, w.Body.String())
			}
		})
	}
}
