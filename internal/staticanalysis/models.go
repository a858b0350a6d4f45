package staticanalysis

import (
	"context"
	"errors"
)

// ErrManifestNotFound APK 中没有 AndroidManifest.xml
var ErrManifestNotFound = errors.New("AndroidManifest.xml not found in APK")

// Extractor 从 APK 中提取静态元数据
type Extractor interface {
	Extract(ctx context.Context, apkPath string) (*Metadata, error)
}

// ExtractorFunc 函数适配器
type ExtractorFunc func(ctx context.Context, apkPath string) (*Metadata, error)

// Extract 调用函数本身
func (f ExtractorFunc) Extract(ctx context.Context, apkPath string) (*Metadata, error) {
	return f(ctx, apkPath)
}

// Metadata APK 静态元数据
type Metadata struct {
	// 文件信息
	FileName string `json:"file_name"`
	FileSize int64  `json:"file_size"`
	MD5      string `json:"md5"`
	SHA256   string `json:"sha256"`

	// 应用基本信息
	Package     string `json:"package"`
	AppName     string `json:"package_name"`
	Icon        string `json:"icon,omitempty"`
	VersionCode string `json:"android_version_code"`
	VersionName string `json:"android_version_name"`

	// SDK 版本
	MinSDK             int `json:"min_sdk_version"`
	MaxSDK             int `json:"max_sdk_version,omitempty"`
	TargetSDK          int `json:"target_sdk_version"`
	EffectiveTargetSDK int `json:"effective_sdk_version"`

	Activities []string `json:"activities"`

	// 申请的权限，保留重复项和未知权限
	Permissions []string `json:"permissions"`
}

// AndroidManifest 解析后的 Manifest 结构
type AndroidManifest struct {
	Package     string
	VersionName string
	VersionCode string

	UsesSdk struct {
		MinSdkVersion    int
		TargetSdkVersion int
		MaxSdkVersion    int
	}

	Application struct {
		Label      string
		Icon       string
		Activities []string
	}

	UsesPermissions []string
}

// effectiveTargetSDK 未声明 targetSdkVersion 时取 minSdkVersion，再缺省为 1
func effectiveTargetSDK(target, min int) int {
	if target > 0 {
		return target
	}
	if min > 0 {
		return min
	}
	return 1
}
