package handlers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/apk-analysis/droid-detective/internal/domain"
	"github.com/apk-analysis/droid-detective/internal/model"
	"github.com/apk-analysis/droid-detective/internal/predictor"
	"github.com/apk-analysis/droid-detective/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Detector 检测服务
type Detector interface {
	Scan(ctx context.Context, apkPath, reportPath string, opts ...service.ScanOption) (*service.ScanResult, error)
	History(ctx context.Context, limit int) ([]*domain.ScanRecord, error)
	TrainingRuns(ctx context.Context, limit int) ([]*domain.TrainingRun, error)
	ModelInfo() (*model.Header, error)
}

// ScanHandler 检测接口
type ScanHandler struct {
	detector    Detector
	logger      *logrus.Logger
	inboundPath string
	maxSize     int64
}

// NewScanHandler 创建检测接口处理器
func NewScanHandler(detector Detector, logger *logrus.Logger, inboundPath string, maxUploadMB int) *ScanHandler {
	if maxUploadMB <= 0 {
		maxUploadMB = 200
	}
	return &ScanHandler{
		detector:    detector,
		logger:      logger,
		inboundPath: inboundPath,
		maxSize:     int64(maxUploadMB) * 1024 * 1024,
	}
}

// ScanResponse 检测结果
type ScanResponse struct {
	ID          string  `json:"id"`
	FileName    string  `json:"file_name"`
	Package     string  `json:"package"`
	AppName     string  `json:"app_name,omitempty"`
	IsMalware   bool    `json:"is_malware"`
	Probability float64 `json:"probability"`
	Message     string  `json:"message"`
}

// Scan 上传并检测 APK
// POST /api/scan
func (h *ScanHandler) Scan(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "missing multipart field 'file'",
		})
		return
	}

	filename := filepath.Base(file.Filename)
	if !strings.HasSuffix(filename, ".apk") {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "only .apk files are accepted",
		})
		return
	}

	if file.Size > h.maxSize {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{
			"error": fmt.Sprintf("file exceeds upload limit (%dMB)", h.maxSize/(1024*1024)),
		})
		return
	}

	if err := os.MkdirAll(h.inboundPath, 0o755); err != nil {
		h.logger.WithError(err).Error("Failed to create inbound directory")
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "failed to store upload",
		})
		return
	}

	// 落盘时使用随机文件名，避免同名覆盖
	destPath := filepath.Join(h.inboundPath, uuid.New().String()+".apk")
	if err := saveUpload(file, destPath); err != nil {
		h.logger.WithError(err).WithField("file", filename).Error("Failed to store upload")
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "failed to store upload",
		})
		return
	}
	defer os.Remove(destPath)

	result, err := h.detector.Scan(c.Request.Context(), destPath, "",
		service.WithSource(domain.ScanSourceAPI),
		service.WithDisplayName(filename))
	if err != nil {
		status := scanErrorStatus(err)
		h.logger.WithError(err).WithField("file", filename).Warn("Scan failed")
		c.JSON(status, gin.H{
			"error": err.Error(),
		})
		return
	}

	message := "identified as not malware."
	if result.IsMalware {
		message = "identified as malware!"
	}
	c.JSON(http.StatusOK, ScanResponse{
		ID:          result.ID,
		FileName:    filename,
		Package:     result.Package,
		AppName:     result.AppName,
		IsMalware:   result.IsMalware,
		Probability: result.Probability,
		Message:     fmt.Sprintf("Analysed file '%s', %s", filename, message),
	})
}

// ListScans 最近的检测记录
// GET /api/scans?limit=50
func (h *ScanHandler) ListScans(c *gin.Context) {
	limit := parseLimit(c, 50)
	records, err := h.detector.History(c.Request.Context(), limit)
	if err != nil {
		h.historyError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"scans": records,
		"count": len(records),
	})
}

// ListTrainings 最近的训练记录
// GET /api/trainings?limit=20
func (h *ScanHandler) ListTrainings(c *gin.Context) {
	limit := parseLimit(c, 20)
	runs, err := h.detector.TrainingRuns(c.Request.Context(), limit)
	if err != nil {
		h.historyError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"trainings": runs,
		"count":     len(runs),
	})
}

// GetModel 当前模型信息
// GET /api/model
func (h *ScanHandler) GetModel(c *gin.Context) {
	header, err := h.detector.ModelInfo()
	if err != nil {
		if errors.Is(err, model.ErrModelNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"error": "no model trained yet",
			})
			return
		}
		h.logger.WithError(err).Error("Failed to read model header")
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, header)
}

func (h *ScanHandler) historyError(c *gin.Context, err error) {
	if errors.Is(err, service.ErrHistoryDisabled) {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error": "history is disabled, set database.enabled to true",
		})
		return
	}
	h.logger.WithError(err).Error("Failed to query history")
	c.JSON(http.StatusInternalServerError, gin.H{
		"error": "failed to query history",
	})
}

func scanErrorStatus(err error) int {
	switch {
	case errors.Is(err, service.ErrInvalidPackage):
		return http.StatusBadRequest
	case errors.Is(err, model.ErrModelNotFound), errors.Is(err, service.ErrCorpusMissing):
		return http.StatusServiceUnavailable
	case errors.Is(err, model.ErrCorruptModel),
		errors.Is(err, model.ErrUnsupportedVersion),
		errors.Is(err, predictor.ErrCatalogMismatch),
		errors.As(err, new(*fs.PathError)):
		// 模型或本地文件故障
		return http.StatusInternalServerError
	default:
		return http.StatusUnprocessableEntity
	}
}

func parseLimit(c *gin.Context, def int) int {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(def)))
	if err != nil || limit <= 0 {
		return def
	}
	if limit > 500 {
		return 500
	}
	return limit
}

func saveUpload(file *multipart.FileHeader, destPath string) error {
	src, err := file.Open()
	if err != nil {
		return err
	}
	defer src.Close()

	dst, err := os.Create(destPath)
	if err != nil {
		return err
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		os.Remove(destPath)
		return err
	}
	return dst.Close()
}
