package storage_test

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/reelhouse/reeld/internal/api/storage"
	"github.com/reelhouse/reeld/internal/reel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockService struct {
	report *reel.ClearReport
	err    error
}

func (service *mockService) ClearStorage() (*reel.ClearReport, error) {
	return service.report, service.err
}

func newTestServer(service storage.Service) *echo.Echo {
	ec := echo.New()
	ec.Pre(middleware.AddTrailingSlash())
	storage.New(service).SetRoutes(ec.Group("/storage"))
	return ec
}

func Test_Clear_ReportsRemovalCounts(t *testing.T) {
	server := newTestServer(&mockService{report: &reel.ClearReport{
		VideosRemoved:  3,
		AudioRemoved:   2,
		TmpRemoved:     1,
		RecordsRemoved: 3,
	}})

	req := httptest.NewRequest(http.MethodPost, "/storage/clear/", nil)
	rec := httptest.NewRecorder()
	server.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var report reel.ClearReport
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
	assert.Equal(t, 3, report.VideosRemoved)
	assert.Equal(t, 2, report.AudioRemoved)
	assert.Equal(t, 1, report.TmpRemoved)
	assert.Equal(t, int64(3), report.RecordsRemoved)
}

func Test_Clear_SurfacesStoreErrors(t *testing.T) {
	server := newTestServer(&mockService{err: errors.New("db offline")})

	req := httptest.NewRequest(http.MethodPost, "/storage/clear/", nil)
	rec := httptest.NewRecorder()
	server.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
