package api

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/apk-analysis/droid-detective/internal/config"
	"github.com/apk-analysis/droid-detective/internal/domain"
	"github.com/apk-analysis/droid-detective/internal/model"
	"github.com/apk-analysis/droid-detective/internal/service"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

type stubDetector struct{}

func (stubDetector) Scan(context.Context, string, string, ...service.ScanOption) (*service.ScanResult, error) {
	return nil, service.ErrInvalidPackage
}

func (stubDetector) History(context.Context, int) ([]*domain.ScanRecord, error) {
	return nil, service.ErrHistoryDisabled
}

func (stubDetector) TrainingRuns(context.Context, int) ([]*domain.TrainingRun, error) {
	return nil, service.ErrHistoryDisabled
}

func (stubDetector) ModelInfo() (*model.Header, error) {
	return &model.Header{Name: model.Name, FormatVersion: model.FormatVersion}, nil
}

func TestSetupRouter(t *testing.T) {
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	cfg := &config.Config{}
	cfg.Server.Mode = "debug"
	cfg.Server.APIToken = "s3cret"
	cfg.Server.InboundDir = t.TempDir()
	cfg.Server.MaxUploadMB = 1

	r := SetupRouter(cfg, logger, stubDetector{}, nil, nil)

	tests := []struct {
		name   string
		method string
		path   string
		token  string
		want   int
	}{
		{"health is public", http.MethodGet, "/api/health", "", http.StatusOK},
		{"model needs token", http.MethodGet, "/api/model", "", http.StatusUnauthorized},
		{"model with token", http.MethodGet, "/api/model", "s3cret", http.StatusOK},
		{"history disabled", http.MethodGet, "/api/scans", "s3cret", http.StatusServiceUnavailable},
		{"preflight", http.MethodOptions, "/api/scan", "", http.StatusNoContent},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, nil)
			if tt.token != "" {
				req.Header.Set("Authorization", "Bearer "+tt.token)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			assert.Equal(t, tt.want, w.Code)
		})
	}
}
