package repository

import (
	"context"
	"errors"

	"github.com/apk-analysis/droid-detective/internal/domain"
	"gorm.io/gorm"
)

// ErrNotFound 记录不存在
var ErrNotFound = errors.New("record not found")

// ScanRepository 检测记录 Repository
type ScanRepository interface {
	Create(ctx context.Context, record *domain.ScanRecord) error
	FindByID(ctx context.Context, id string) (*domain.ScanRecord, error)
	FindBySHA256(ctx context.Context, sha256 string) ([]*domain.ScanRecord, error)
	ListRecent(ctx context.Context, limit int) ([]*domain.ScanRecord, error)
	CountByVerdict(ctx context.Context) (malware int64, benign int64, err error)
}

type scanRepo struct {
	db *gorm.DB
}

// NewScanRepository 创建检测记录 Repository
func NewScanRepository(db *gorm.DB) ScanRepository {
	return &scanRepo{db: db}
}

// Create 保存检测记录
func (r *scanRepo) Create(ctx context.Context, record *domain.ScanRecord) error {
	return r.db.WithContext(ctx).Create(record).Error
}

// FindByID 按 ID 查询
func (r *scanRepo) FindByID(ctx context.Context, id string) (*domain.ScanRecord, error) {
	var record domain.ScanRecord
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &record, nil
}

// FindBySHA256 同一文件的历史检测记录，最新的在前
func (r *scanRepo) FindBySHA256(ctx context.Context, sha256 string) ([]*domain.ScanRecord, error) {
	var records []*domain.ScanRecord
	err := r.db.WithContext(ctx).
		Where("sha256 = ?", sha256).
		Order("scanned_at DESC").
		Find(&records).Error
	return records, err
}

// ListRecent 最近的检测记录
func (r *scanRepo) ListRecent(ctx context.Context, limit int) ([]*domain.ScanRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	var records []*domain.ScanRecord
	err := r.db.WithContext(ctx).
		Order("scanned_at DESC").
		Limit(limit).
		Find(&records).Error
	return records, err
}

// CountByVerdict 恶意 / 良性记录数
func (r *scanRepo) CountByVerdict(ctx context.Context) (int64, int64, error) {
	var malware, benign int64
	if err := r.db.WithContext(ctx).Model(&domain.ScanRecord{}).Where("is_malware = ?", true).Count(&malware).Error; err != nil {
		return 0, 0, err
	}
	if err := r.db.WithContext(ctx).Model(&domain.ScanRecord{}).Where("is_malware = ?", false).Count(&benign).Error; err != nil {
		return 0, 0, err
	}
	return malware, benign, nil
}
