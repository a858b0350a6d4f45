package domain

import "time"

// TrainingRun 一次模型训练的记录
type TrainingRun struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	ModelPath      string    `gorm:"type:varchar(512)" json:"model_path"`
	Fingerprint    string    `gorm:"type:varchar(64)" json:"catalog_fingerprint"`
	BenignSamples  int       `json:"benign_samples"`
	MalwareSamples int       `json:"malware_samples"`
	SkippedSamples int       `json:"skipped_samples"`
	TrainSamples   int       `json:"train_samples"`
	TestSamples    int       `json:"test_samples"`
	Accuracy       float64   `json:"accuracy"`
	Recall         float64   `json:"recall"`
	Precision      float64   `json:"precision"`
	F1             float64   `json:"f1"`
	OOBScore       float64   `json:"oob_score"`
	DurationMs     int64     `json:"duration_ms"`
	CreatedAt      time.Time `gorm:"index" json:"created_at"`
}

// TableName 指定表名
func (TrainingRun) TableName() string {
	return "training_runs"
}
