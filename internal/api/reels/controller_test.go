package reels_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/reelhouse/reeld/internal/api/reels"
	"github.com/reelhouse/reeld/internal/reel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockService struct {
	reels      map[string]*reel.Reel
	createErr  error
	cancelled  []string
	createdUrl string
}

func (service *mockService) CreateReel(ctx context.Context, sourceUrl string) (*reel.Reel, error) {
	if service.createErr != nil {
		return nil, service.createErr
	}

	service.createdUrl = sourceUrl
	id := reel.ID(sourceUrl)
	model := &reel.Reel{ID: id, SourceURL: sourceUrl, VideoPath: "/tmp/" + id + ".mp4"}
	service.reels[id] = model
	return model, nil
}

func (service *mockService) GetReel(id string) (*reel.Reel, error) {
	if model, ok := service.reels[id]; ok {
		return model, nil
	}

	return nil, reel.ErrReelNotFound
}

func (service *mockService) ListReels() ([]*reel.Reel, error) {
	output := make([]*reel.Reel, 0, len(service.reels))
	for _, model := range service.reels {
		output = append(output, model)
	}

	return output, nil
}

func (service *mockService) Job(id string) (*reel.Job, error) {
	return nil, reel.ErrJobNotFound
}

func (service *mockService) CancelJob(id string) error {
	service.cancelled = append(service.cancelled, id)
	return nil
}

func newTestServer(service reels.Service) *echo.Echo {
	ec := echo.New()
	ec.Pre(middleware.AddTrailingSlash())
	reels.New(validator.New(), service).SetRoutes(ec.Group("/reel"))
	return ec
}

func Test_Create_ReturnsReelDto(t *testing.T) {
	service := &mockService{reels: make(map[string]*reel.Reel)}
	server := newTestServer(service)

	req := httptest.NewRequest(http.MethodPost, "/reel/", strings.NewReader(`{"url": "https://example.com/watch?v=abc"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	server.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "https://example.com/watch?v=abc", service.createdUrl)

	var dto reels.ReelDto
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &dto))
	assert.Equal(t, reel.ID("https://example.com/watch?v=abc"), dto.ID)
	assert.Equal(t, "/reel/"+dto.ID+".mp4", dto.VideoUrl)
	assert.Nil(t, dto.AudioUrl)
}

func Test_Create_RejectsInvalidBodies(t *testing.T) {
	tests := []struct {
		summary string
		body    string
	}{
		{"missing url", `{}`},
		{"blank url", `{"url": ""}`},
		{"not a url", `{"url": "definitely not a url"}`},
	}

	for _, test := range tests {
		t.Run(test.summary, func(t *testing.T) {
			service := &mockService{reels: make(map[string]*reel.Reel)}
			server := newTestServer(service)

			req := httptest.NewRequest(http.MethodPost, "/reel/", strings.NewReader(test.body))
			req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
			rec := httptest.NewRecorder()
			server.ServeHTTP(rec, req)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Empty(t, service.createdUrl, "service must not be called for invalid bodies")
		})
	}
}

func Test_Create_SurfacesPipelineTroubleAsServerError(t *testing.T) {
	service := &mockService{
		reels:     make(map[string]*reel.Reel),
		createErr: reel.NewTrouble(reel.DownloadFailure, "abc123", errors.New("boom")),
	}
	server := newTestServer(service)

	req := httptest.NewRequest(http.MethodPost, "/reel/", strings.NewReader(`{"url": "https://example.com/watch?v=abc"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	server.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "DOWNLOAD_FAILURE")
}

func Test_Get_ServesVideoArtifactWithRangeSupport(t *testing.T) {
	videoPath := filepath.Join(t.TempDir(), "abc123.mp4")
	require.NoError(t, os.WriteFile(videoPath, []byte("0123456789"), 0o644))

	service := &mockService{reels: map[string]*reel.Reel{
		"abc123": {ID: "abc123", VideoPath: videoPath},
	}}
	server := newTestServer(service)

	req := httptest.NewRequest(http.MethodGet, "/reel/abc123.mp4/", nil)
	req.Header.Set("Range", "bytes=0-3")
	rec := httptest.NewRecorder()
	server.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusPartialContent, rec.Code)
	assert.Equal(t, "0123", rec.Body.String())
	assert.Equal(t, "bytes", rec.Header().Get("Accept-Ranges"))
}

func Test_Get_ReturnsNotFoundForUnknownReel(t *testing.T) {
	service := &mockService{reels: make(map[string]*reel.Reel)}
	server := newTestServer(service)

	for _, target := range []string{"/reel/missing.mp4/", "/reel/missing.wav/", "/reel/missing/"} {
		req := httptest.NewRequest(http.MethodGet, target, nil)
		rec := httptest.NewRecorder()
		server.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusNotFound, rec.Code, "expected 404 for %s", target)
	}
}

func Test_Get_ReturnsNotFoundWhenReelHasNoAudio(t *testing.T) {
	service := &mockService{reels: map[string]*reel.Reel{
		"abc123": {ID: "abc123", VideoPath: "/tmp/abc123.mp4"},
	}}
	server := newTestServer(service)

	req := httptest.NewRequest(http.MethodGet, "/reel/abc123.wav/", nil)
	rec := httptest.NewRecorder()
	server.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "no audio track")
}

func Test_Get_ReturnsMetadataForBareID(t *testing.T) {
	audioPath := "/tmp/abc123.wav"
	service := &mockService{reels: map[string]*reel.Reel{
		"abc123": {ID: "abc123", VideoPath: "/tmp/abc123.mp4", AudioPath: &audioPath, DurationSecs: 12.5, Width: 720, Height: 1280},
	}}
	server := newTestServer(service)

	req := httptest.NewRequest(http.MethodGet, "/reel/abc123/", nil)
	rec := httptest.NewRecorder()
	server.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var dto reels.ReelDto
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &dto))
	assert.Equal(t, 12.5, dto.Duration)
	assert.Equal(t, 720, dto.Width)
	require.NotNil(t, dto.AudioUrl)
	assert.Equal(t, "/reel/abc123.wav", *dto.AudioUrl)
}

func Test_Cancel_ForwardsToService(t *testing.T) {
	service := &mockService{reels: make(map[string]*reel.Reel)}
	server := newTestServer(service)

	req := httptest.NewRequest(http.MethodDelete, "/reel/abc123/", nil)
	rec := httptest.NewRecorder()
	server.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"abc123"}, service.cancelled)
}
