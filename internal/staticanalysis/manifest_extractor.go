package staticanalysis

import (
	"context"
	"crypto/md5"
	"crypto/sha256"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/shogo82148/androidbinary/apk"
	"github.com/sirupsen/logrus"
)

// aapt2 xmltree 输出的匹配规则
var (
	pkgRe         = regexp.MustCompile(`A: package="([^"]+)"`)
	versionNameRe = regexp.MustCompile(`A: (?:android|http://schemas.android.com/apk/res/android):versionName\([^)]*\)="([^"]+)"`)
	versionCodeRe = regexp.MustCompile(`A: (?:android|http://schemas.android.com/apk/res/android):versionCode\([^)]*\)=(\(type 0x10\)0x[0-9a-f]+|[0-9]+)`)
	minSdkRe      = regexp.MustCompile(`A: (?:android|http://schemas.android.com/apk/res/android):minSdkVersion\([^)]*\)=(\(type 0x10\)0x[0-9a-f]+|[0-9]+)`)
	targetSdkRe   = regexp.MustCompile(`A: (?:android|http://schemas.android.com/apk/res/android):targetSdkVersion\([^)]*\)=(\(type 0x10\)0x[0-9a-f]+|[0-9]+)`)
	maxSdkRe      = regexp.MustCompile(`E: uses-sdk[^E]*?A: (?:android|http://schemas.android.com/apk/res/android):maxSdkVersion\([^)]*\)=(\(type 0x10\)0x[0-9a-f]+|[0-9]+)`)
	appLabelRe    = regexp.MustCompile(`E: application[^E]*?A: (?:android|http://schemas.android.com/apk/res/android):label\([^)]*\)="([^"]+)"`)
	appIconRe     = regexp.MustCompile(`E: application[^E]*?A: (?:android|http://schemas.android.com/apk/res/android):icon\([^)]*\)=@?([^\s]+)`)
	activityRe    = regexp.MustCompile(`E: activity[^E]*?A: (?:android|http://schemas.android.com/apk/res/android):name\([^)]*\)="([^"]+)"`)
	permRe        = regexp.MustCompile(`E: uses-permission(?:-sdk-23|-sdk-m)?[^E]*?A: (?:android|http://schemas.android.com/apk/res/android):name\([^)]*\)="([^"]+)"`)
)

// ManifestExtractor 基于 Manifest 的元数据提取器
//
// 优先调用 aapt2 解析，aapt2 不可用或失败时回退到纯 Go 的二进制 XML 解析。
type ManifestExtractor struct {
	logger   *logrus.Logger
	aaptPath string
	useAapt  bool
}

// ManifestExtractorConfig 提取器配置
type ManifestExtractorConfig struct {
	AaptPath string // 为空时从 PATH 查找 aapt2
	UseAapt  bool
}

// NewManifestExtractor 创建提取器
func NewManifestExtractor(cfg ManifestExtractorConfig, logger *logrus.Logger) *ManifestExtractor {
	me := &ManifestExtractor{
		logger:   logger,
		aaptPath: cfg.AaptPath,
		useAapt:  cfg.UseAapt,
	}
	if me.aaptPath == "" {
		me.aaptPath = "aapt2"
	}

	if me.useAapt {
		if err := me.checkAapt(); err != nil {
			me.logger.WithError(err).Warn("aapt2 not available, will use binary manifest parser")
			me.useAapt = false
		}
	}

	return me
}

// checkAapt 检查 aapt2 是否可用
func (me *ManifestExtractor) checkAapt() error {
	cmd := exec.Command(me.aaptPath, "version")
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("aapt2 not found: %w", err)
	}
	return nil
}

// Extract 提取 APK 元数据
func (me *ManifestExtractor) Extract(ctx context.Context, apkPath string) (*Metadata, error) {
	startTime := time.Now()

	fileInfo, err := os.Stat(apkPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat APK file: %w", err)
	}

	meta := &Metadata{
		FileName: filepath.Base(apkPath),
		FileSize: fileInfo.Size(),
	}

	// 哈希与 Manifest 解析并行
	type hashResult struct {
		md5, sha256 string
		err         error
	}
	hashChan := make(chan hashResult, 1)
	go func() {
		m, s, err := calculateHashes(apkPath)
		hashChan <- hashResult{md5: m, sha256: s, err: err}
	}()

	manifest, err := me.extractManifest(ctx, apkPath)
	if err != nil {
		<-hashChan
		return nil, fmt.Errorf("failed to extract manifest: %w", err)
	}

	meta.Package = manifest.Package
	meta.AppName = manifest.Application.Label
	meta.Icon = manifest.Application.Icon
	meta.VersionCode = manifest.VersionCode
	meta.VersionName = manifest.VersionName
	meta.MinSDK = manifest.UsesSdk.MinSdkVersion
	meta.MaxSDK = manifest.UsesSdk.MaxSdkVersion
	meta.TargetSDK = manifest.UsesSdk.TargetSdkVersion
	meta.EffectiveTargetSDK = effectiveTargetSDK(meta.TargetSDK, meta.MinSDK)
	meta.Activities = manifest.Application.Activities
	meta.Permissions = manifest.UsesPermissions
	if meta.Permissions == nil {
		meta.Permissions = []string{}
	}

	hashes := <-hashChan
	if hashes.err != nil {
		me.logger.WithError(hashes.err).Warn("Failed to calculate hashes")
	}
	meta.MD5 = hashes.md5
	meta.SHA256 = hashes.sha256

	me.logger.WithFields(logrus.Fields{
		"package":     meta.Package,
		"permissions": len(meta.Permissions),
		"duration_ms": time.Since(startTime).Milliseconds(),
	}).Debug("Manifest extracted")

	return meta, nil
}

// calculateHashes 一次读取同时计算 MD5 和 SHA256
func calculateHashes(apkPath string) (string, string, error) {
	file, err := os.Open(apkPath)
	if err != nil {
		return "", "", err
	}
	defer file.Close()

	md5Hash := md5.New()
	sha256Hash := sha256.New()
	if _, err := io.Copy(io.MultiWriter(md5Hash, sha256Hash), file); err != nil {
		return "", "", err
	}

	return fmt.Sprintf("%x", md5Hash.Sum(nil)), fmt.Sprintf("%x", sha256Hash.Sum(nil)), nil
}

// extractManifest 从 APK 中提取 AndroidManifest.xml
func (me *ManifestExtractor) extractManifest(ctx context.Context, apkPath string) (*AndroidManifest, error) {
	if me.useAapt {
		manifest, err := me.parseManifestWithAapt2(ctx, apkPath)
		if err == nil {
			return manifest, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		me.logger.WithError(err).WithField("apk_path", apkPath).Warn("aapt2 failed, falling back to binary manifest parser")
	}

	return parseBinaryManifest(apkPath)
}

// parseManifestWithAapt2 使用 aapt2 解析 Manifest
func (me *ManifestExtractor) parseManifestWithAapt2(ctx context.Context, apkPath string) (*AndroidManifest, error) {
	cmd := exec.CommandContext(ctx, me.aaptPath, "dump", "xmltree", apkPath, "--file", "AndroidManifest.xml")
	output, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("aapt2 command failed: %w", err)
	}

	return parseAaptOutput(string(output))
}

// parseAaptOutput 解析 aapt2 xmltree 输出
func parseAaptOutput(output string) (*AndroidManifest, error) {
	manifest := &AndroidManifest{}

	match := pkgRe.FindStringSubmatch(output)
	if len(match) < 2 {
		return nil, fmt.Errorf("package attribute missing from manifest dump")
	}
	manifest.Package = match[1]

	if match := versionNameRe.FindStringSubmatch(output); len(match) > 1 {
		manifest.VersionName = match[1]
	}
	if match := versionCodeRe.FindStringSubmatch(output); len(match) > 1 {
		manifest.VersionCode = strconv.Itoa(parseAaptInt(match[1]))
	}
	if match := minSdkRe.FindStringSubmatch(output); len(match) > 1 {
		manifest.UsesSdk.MinSdkVersion = parseAaptInt(match[1])
	}
	if match := targetSdkRe.FindStringSubmatch(output); len(match) > 1 {
		manifest.UsesSdk.TargetSdkVersion = parseAaptInt(match[1])
	}
	if match := maxSdkRe.FindStringSubmatch(output); len(match) > 1 {
		manifest.UsesSdk.MaxSdkVersion = parseAaptInt(match[1])
	}
	if match := appLabelRe.FindStringSubmatch(output); len(match) > 1 {
		manifest.Application.Label = match[1]
	}
	if match := appIconRe.FindStringSubmatch(output); len(match) > 1 {
		manifest.Application.Icon = match[1]
	}

	for _, match := range activityRe.FindAllStringSubmatch(output, -1) {
		manifest.Application.Activities = append(manifest.Application.Activities, match[1])
	}
	for _, match := range permRe.FindAllStringSubmatch(output, -1) {
		manifest.UsesPermissions = append(manifest.UsesPermissions, match[1])
	}

	return manifest, nil
}

// parseAaptInt 解析 "(type 0x10)0x1c" 或十进制数值
func parseAaptInt(raw string) int {
	if strings.HasPrefix(raw, "(type 0x10)0x") {
		v, err := strconv.ParseInt(strings.TrimPrefix(raw, "(type 0x10)0x"), 16, 64)
		if err != nil {
			return 0
		}
		return int(v)
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0
	}
	return v
}

// parseBinaryManifest 纯 Go 解析二进制 AndroidManifest.xml
func parseBinaryManifest(apkPath string) (*AndroidManifest, error) {
	pkg, err := apk.OpenFile(apkPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open APK: %w", err)
	}
	defer pkg.Close()

	raw := pkg.Manifest()
	manifest := &AndroidManifest{}

	manifest.Package = pkg.PackageName()
	if manifest.Package == "" {
		return nil, ErrManifestNotFound
	}
	manifest.VersionName, _ = raw.VersionName.String()
	if code, err := raw.VersionCode.Int32(); err == nil {
		manifest.VersionCode = strconv.Itoa(int(code))
	}
	if v, err := raw.SDK.Min.Int32(); err == nil {
		manifest.UsesSdk.MinSdkVersion = int(v)
	}
	if v, err := raw.SDK.Target.Int32(); err == nil {
		manifest.UsesSdk.TargetSdkVersion = int(v)
	}
	if v, err := raw.SDK.Max.Int32(); err == nil {
		manifest.UsesSdk.MaxSdkVersion = int(v)
	}

	if label, err := pkg.Label(nil); err == nil {
		manifest.Application.Label = label
	}
	manifest.Application.Icon, _ = raw.App.Icon.String()

	for _, activity := range raw.App.Activities {
		if name, err := activity.Name.String(); err == nil && name != "" {
			manifest.Application.Activities = append(manifest.Application.Activities, name)
		}
	}
	for _, perm := range raw.UsesPermissions {
		if name, err := perm.Name.String(); err == nil && name != "" {
			manifest.UsesPermissions = append(manifest.UsesPermissions, name)
		}
	}

	return manifest, nil
}
