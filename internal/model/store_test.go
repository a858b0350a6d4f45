package model

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/apk-analysis/droid-detective/internal/forest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func trainedModel(t *testing.T) *TrainedModel {
	t.Helper()
	x := [][]float64{{0, 1}, {0, 0}, {1, 1}, {1, 0}, {0, 1}, {1, 0}}
	y := []int{0, 0, 1, 1, 0, 1}
	f, err := forest.Fit(x, y, forest.Config{NumTrees: 5, MaxFeatures: 2, Seed: 3})
	require.NoError(t, err)

	return &TrainedModel{
		Name:               Name,
		CatalogFingerprint: "abc123",
		CreatedAt:          time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
		Metrics:            Metrics{Accuracy: 0.9, Recall: 0.8, Precision: 0.75, F1: 0.77, OOBScore: 0.85},
		TrainSamples:       5,
		TestSamples:        1,
		Classifier:         f,
	}
}

// TestStore_SaveLoad 测试保存后加载
func TestStore_SaveLoad(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "apk_malware.model"))
	assert.False(t, store.Exists())

	m := trainedModel(t)
	require.NoError(t, store.Save(m))
	assert.True(t, store.Exists())

	loaded, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, Name, loaded.Name)
	assert.Equal(t, FormatVersion, loaded.FormatVersion)
	assert.Equal(t, "abc123", loaded.CatalogFingerprint)
	assert.True(t, m.CreatedAt.Equal(loaded.CreatedAt))
	assert.Equal(t, m.Metrics, loaded.Metrics)
	assert.Equal(t, 5, loaded.TrainSamples)
	assert.Equal(t, 1, loaded.TestSamples)

	rows := [][]float64{{0, 0}, {1, 1}, {0, 1}, {1, 0}}
	want, err := m.Classifier.PredictBatch(rows)
	require.NoError(t, err)
	got, err := loaded.Classifier.PredictBatch(rows)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

// TestStore_ReadHeader 测试只读头部
func TestStore_ReadHeader(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "m.model"))
	require.NoError(t, store.Save(trainedModel(t)))

	h, err := store.ReadHeader()
	require.NoError(t, err)
	assert.Equal(t, Name, h.Name)
	assert.Equal(t, payloadEncoding, h.PayloadEncoding)
	assert.Equal(t, 0.9, h.Metrics().Accuracy)
}

// TestStore_Overwrite 测试覆盖保存且不残留临时文件
func TestStore_Overwrite(t *testing.T) {
	dir := t.TempDir()
	store := NewStore(filepath.Join(dir, "m.model"))

	first := trainedModel(t)
	require.NoError(t, store.Save(first))

	second := trainedModel(t)
	second.Metrics.Accuracy = 0.5
	require.NoError(t, store.Save(second))

	h, err := store.ReadHeader()
	require.NoError(t, err)
	assert.Equal(t, 0.5, h.Accuracy)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

// TestStore_NotFound 测试文件不存在
func TestStore_NotFound(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "missing.model"))

	_, err := store.Load()
	assert.ErrorIs(t, err, ErrModelNotFound)

	_, err = store.ReadHeader()
	assert.ErrorIs(t, err, ErrModelNotFound)
}

// TestStore_Corrupt 测试损坏的文件
func TestStore_Corrupt(t *testing.T) {
	dir := t.TempDir()

	cases := map[string][]byte{
		"empty":     {},
		"bad_magic": []byte("NOTAMODEL-----------"),
		"truncated": append(append([]byte{}, magic...), 0, 0, 0, 50, '{'),
		"bad_json":  append(append([]byte{}, magic...), 0, 0, 0, 1, '{'),
	}

	for name, data := range cases {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(dir, name+".model")
			require.NoError(t, os.WriteFile(path, data, 0o644))

			_, err := NewStore(path).Load()
			assert.ErrorIs(t, err, ErrCorruptModel)
			assert.NotErrorIs(t, err, ErrModelNotFound)
		})
	}
}

// TestStore_CorruptPayload 测试分类器数据损坏
func TestStore_CorruptPayload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "m.model")
	store := NewStore(path)
	require.NoError(t, store.Save(trainedModel(t)))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	// 保留头部，替换压缩数据
	headerEnd := len(magic) + 4 + int(binary.BigEndian.Uint32(data[len(magic):]))
	broken := append(append([]byte{}, data[:headerEnd]...), []byte("not a zstd frame")...)
	require.NoError(t, os.WriteFile(path, broken, 0o644))

	_, err = store.Load()
	assert.ErrorIs(t, err, ErrCorruptModel)

	// 头部仍可读
	_, err = store.ReadHeader()
	assert.NoError(t, err)
}

// TestStore_NewerVersion 测试更高版本
func TestStore_NewerVersion(t *testing.T) {
	path := filepath.Join(t.TempDir(), "m.model")
	header := []byte(`{"name":"model","format_version":99,"payload_encoding":"gob+zstd"}`)
	data := append([]byte{}, magic...)
	data = append(data, 0, 0, 0, byte(len(header)))
	data = append(data, header...)
	require.NoError(t, os.WriteFile(path, data, 0o644))

	_, err := NewStore(path).ReadHeader()
	assert.ErrorIs(t, err, ErrUnsupportedVersion)
}

// TestStore_SaveWithoutClassifier 测试空模型
func TestStore_SaveWithoutClassifier(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "m.model"))
	assert.Error(t, store.Save(&TrainedModel{Name: Name}))
	assert.False(t, store.Exists())
}
