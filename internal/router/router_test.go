package router

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"delivery_costs_backend/internal/models"
	"delivery_costs_backend/internal/services"
	"delivery_costs_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

type fakeReports struct{}

func (fakeReports) GetCostReport(tenantID int64, params models.ReportRequestParams) (*models.CostReport, error) {
	return &models.CostReport{}, nil
}

func newTestEngine() *gin.Engine {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	Setup(engine, &services.Container{Reports: fakeReports{}})
	return engine
}

func TestSetup_Routes(t *testing.T) {
	utils.SetJWTSecret("router-test-secret")
	admin, _ := utils.GenerateAccessToken(1, 7, "admin", "Admin", time.Hour)
	staff, _ := utils.GenerateAccessToken(2, 7, "staff", "Staff", time.Hour)

	tests := []struct {
		name       string
		method     string
		path       string
		token      string
		wantStatus int
	}{
		{name: "liveness", method: http.MethodGet, path: "/ping", wantStatus: http.StatusOK},
		{name: "anonymous rules", method: http.MethodGet, path: "/api/v1/cost-rules", wantStatus: http.StatusUnauthorized},
		{name: "staff cannot create rules", method: http.MethodPost, path: "/api/v1/cost-rules", token: staff, wantStatus: http.StatusForbidden},
		{name: "staff cannot read reports", method: http.MethodGet, path: "/api/v1/reports/costs", token: staff, wantStatus: http.StatusForbidden},
		{name: "admin reads reports", method: http.MethodGet, path: "/api/v1/reports/costs", token: admin, wantStatus: http.StatusOK},
		{name: "unknown route", method: http.MethodGet, path: "/api/v1/nothing", token: admin, wantStatus: http.StatusNotFound},
	}
	engine := newTestEngine()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, nil)
			if tt.token != "" {
				req.Header.Set("Authorization", "Bearer "+tt.token)
			}
			w := httptest.NewRecorder()
			engine.ServeHTTP(w, req)
			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d (body %s)", w.Code, tt.wantStatus, w.Body.String())
			}
		})
	}
}
