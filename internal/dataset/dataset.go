package dataset

import (
	"fmt"

	"github.com/apk-analysis/droid-detective/internal/features"
)

// Dataset 带标签的特征矩阵，行之间无顺序语义
type Dataset struct {
	Rows   [][]float64 // 特征列（不含标签列）
	Labels []int
	Width  int
}

// New 创建空数据集，width 为特征列数
func New(width int) *Dataset {
	return &Dataset{Width: width}
}

// Append 追加一个带标签的向量（最后一列为标签）
func (d *Dataset) Append(vec features.Vector) error {
	if len(vec) != d.Width+1 {
		return fmt.Errorf("labeled vector has %d columns, expected %d", len(vec), d.Width+1)
	}
	label := int(vec[len(vec)-1])
	if label != int(features.LabelBenign) && label != int(features.LabelMalware) {
		return fmt.Errorf("invalid label value %v", vec[len(vec)-1])
	}

	row := make([]float64, d.Width)
	copy(row, vec[:d.Width])
	d.Rows = append(d.Rows, row)
	d.Labels = append(d.Labels, label)
	return nil
}

// Len 样本数量
func (d *Dataset) Len() int {
	return len(d.Rows)
}

// ClassCounts 返回良性 / 恶意样本数
func (d *Dataset) ClassCounts() (benign, malware int) {
	for _, l := range d.Labels {
		if l == int(features.LabelMalware) {
			malware++
		} else {
			benign++
		}
	}
	return benign, malware
}

// Subset 按下标取子集
func (d *Dataset) Subset(idx []int) *Dataset {
	out := &Dataset{
		Rows:   make([][]float64, 0, len(idx)),
		Labels: make([]int, 0, len(idx)),
		Width:  d.Width,
	}
	for _, i := range idx {
		out.Rows = append(out.Rows, d.Rows[i])
		out.Labels = append(out.Labels, d.Labels[i])
	}
	return out
}
