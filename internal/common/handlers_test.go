package common_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"MessAPI/internal/common"
	"MessAPI/internal/databases"

	"github.com/gin-gonic/gin"
)

func TestStatus(t *testing.T) {
	gin.SetMode(gin.TestMode)
	db, err := databases.Open(databases.DriverCGO, filepath.Join(t.TempDir(), "mess.db"))
	if err != nil {
		t.Fatal(err)
	}

	router := gin.New()
	common.RegisterRoutes(router.Group("/api"), common.NewHandler(db))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/status", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
	}
	var body struct {
		Data common.StatusResponse `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body.Data.Database != "ok" || body.Data.Uptime == "" {
		t.Errorf("data = %+v", body.Data)
	}

	db.Close()
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/status", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("closed db status = %d, want 503", rec.Code)
	}
}
