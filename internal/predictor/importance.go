package predictor

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
)

// Importance 单个特征的重要性
type Importance struct {
	Feature string  `json:"feature"`
	Score   float64 `json:"score"`
}

// rankImportances 按位置配对特征名和重要性，升序排列，分数相同时按名称
func rankImportances(names []string, scores []float64) []Importance {
	n := len(names)
	if len(scores) < n {
		n = len(scores)
	}

	out := make([]Importance, n)
	for i := 0; i < n; i++ {
		out[i] = Importance{Feature: names[i], Score: scores[i]}
	}
	sort.SliceStable(out, func(a, b int) bool {
		if out[a].Score != out[b].Score {
			return out[a].Score < out[b].Score
		}
		return out[a].Feature < out[b].Feature
	})
	return out
}

// marshalImportances 输出保持顺序的 JSON 对象，缩进 4 个空格
func marshalImportances(items []Importance) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, item := range items {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(item.Feature)
		if err != nil {
			return nil, err
		}
		value, err := json.Marshal(item.Score)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(value)
	}
	buf.WriteByte('}')

	var out bytes.Buffer
	if err := json.Indent(&out, buf.Bytes(), "", "    "); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}

// writeImportances 覆盖写入重要性报告
func writeImportances(path string, items []Importance) error {
	data, err := marshalImportances(items)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	if err := tmp.Chmod(0o644); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), path)
}
