package domain

import (
	"time"
)

// ScanSource 检测请求来源
type ScanSource string

const (
	ScanSourceCLI     ScanSource = "cli"
	ScanSourceAPI     ScanSource = "api"
	ScanSourceWatcher ScanSource = "watcher"
)

// ScanRecord 单次检测记录
type ScanRecord struct {
	ID             string     `gorm:"primaryKey;type:varchar(36)" json:"id"`
	PackageName    string     `gorm:"type:varchar(255);index" json:"package_name"`
	AppName        string     `gorm:"type:varchar(255)" json:"app_name"`
	FileName       string     `gorm:"type:varchar(255)" json:"file_name"`
	FileSize       int64      `json:"file_size"`
	SHA256         string     `gorm:"type:varchar(64);index" json:"sha256"`
	IsMalware      bool       `gorm:"index" json:"is_malware"`
	Probability    float64    `json:"probability"`
	PermissionCnt  int        `json:"permission_count"`
	Source         ScanSource `gorm:"type:varchar(16)" json:"source"`
	ReportPath     string     `gorm:"type:varchar(512)" json:"report_path,omitempty"`
	ModelCreatedAt time.Time  `json:"model_created_at"`
	ScannedAt      time.Time  `gorm:"index" json:"scanned_at"`
}

// TableName 指定表名
func (ScanRecord) TableName() string {
	return "scan_records"
}

// Verdict 检测结论
func (r *ScanRecord) Verdict() string {
	if r.IsMalware {
		return "malware"
	}
	return "benign"
}
