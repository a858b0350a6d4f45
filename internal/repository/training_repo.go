package repository

import (
	"context"
	"errors"

	"github.com/apk-analysis/droid-detective/internal/domain"
	"gorm.io/gorm"
)

// TrainingRepository 训练记录 Repository
type TrainingRepository interface {
	Create(ctx context.Context, run *domain.TrainingRun) error
	Latest(ctx context.Context) (*domain.TrainingRun, error)
	List(ctx context.Context, limit int) ([]*domain.TrainingRun, error)
}

type trainingRepo struct {
	db *gorm.DB
}

// NewTrainingRepository 创建训练记录 Repository
func NewTrainingRepository(db *gorm.DB) TrainingRepository {
	return &trainingRepo{db: db}
}

func (r *trainingRepo) Create(ctx context.Context, run *domain.TrainingRun) error {
	return r.db.WithContext(ctx).Create(run).Error
}

// Latest 最近一次训练
func (r *trainingRepo) Latest(ctx context.Context) (*domain.TrainingRun, error) {
	var run domain.TrainingRun
	err := r.db.WithContext(ctx).Order("created_at DESC").Order("id DESC").First(&run).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &run, nil
}

func (r *trainingRepo) List(ctx context.Context, limit int) ([]*domain.TrainingRun, error) {
	if limit <= 0 {
		limit = 20
	}
	var runs []*domain.TrainingRun
	err := r.db.WithContext(ctx).Order("created_at DESC").Order("id DESC").Limit(limit).Find(&runs).Error
	return runs, err
}
