package features

import (
	"errors"
	"fmt"

	"github.com/apk-analysis/droid-detective/internal/catalog"
	"github.com/apk-analysis/droid-detective/internal/staticanalysis"
)

// Label 样本标签
type Label int

const (
	LabelNone    Label = -1 // 推理时不带标签
	LabelBenign  Label = 0
	LabelMalware Label = 1
)

func (l Label) String() string {
	switch l {
	case LabelNone:
		return "none"
	case LabelBenign:
		return "benign"
	case LabelMalware:
		return "malware"
	default:
		return fmt.Sprintf("label(%d)", int(l))
	}
}

// ErrMissingMetadata 元数据为空
var ErrMissingMetadata = errors.New("package metadata is missing")

// Vector 特征向量，列顺序与权限目录一致
type Vector []float64

// Vectorizer 将 APK 元数据编码为特征向量
type Vectorizer struct {
	catalog *catalog.Catalog
}

// NewVectorizer 创建向量化器
func NewVectorizer(cat *catalog.Catalog) *Vectorizer {
	return &Vectorizer{catalog: cat}
}

// Catalog 返回使用的权限目录
func (v *Vectorizer) Catalog() *catalog.Catalog {
	return v.catalog
}

// Width 向量长度
func (v *Vectorizer) Width(label Label) int {
	if label == LabelNone {
		return v.catalog.Len() - 1
	}
	return v.catalog.Len()
}

// Vectorize 编码元数据
//
// 已知权限置 1（重复不累加），未知权限每出现一次 other_permission 加 1，
// num_of_permissions 为申请的权限总数（含重复和未知权限）。
// label 为 LabelNone 时不输出标签列。
func (v *Vectorizer) Vectorize(meta *staticanalysis.Metadata, label Label) (Vector, error) {
	if meta == nil {
		return nil, ErrMissingMetadata
	}
	if label != LabelNone && label != LabelBenign && label != LabelMalware {
		return nil, fmt.Errorf("invalid label %d", int(label))
	}

	vec := make(Vector, v.catalog.Len())

	other := 0
	for _, perm := range meta.Permissions {
		if i, ok := v.catalog.Index(perm); ok {
			vec[i] = 1
			continue
		}
		other++
	}

	vec[v.catalog.OtherPermissionIndex()] = float64(other)
	vec[v.catalog.NumOfPermissionsIndex()] = float64(len(meta.Permissions))

	if label == LabelNone {
		return vec[:v.catalog.LabelIndex()], nil
	}

	vec[v.catalog.LabelIndex()] = float64(label)
	return vec, nil
}
