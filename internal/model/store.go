package model

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

var (
	// ErrModelNotFound 模型文件不存在
	ErrModelNotFound = errors.New("model not found")
	// ErrCorruptModel 模型文件无法解析
	ErrCorruptModel = errors.New("model artifact is corrupt")
	// ErrUnsupportedVersion 产物格式版本高于当前程序支持的版本
	ErrUnsupportedVersion = errors.New("unsupported model format version")
)

var magic = []byte("DDMODEL\x00")

// 头部上限，避免损坏文件导致超大分配
const maxHeaderSize = 1 << 20

// Store 模型文件存储
//
// 文件布局：magic | uint32 头部长度（大端）| JSON 头部 | zstd(gob(forest))
type Store struct {
	path string
}

// NewStore 创建存储
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Path 模型文件路径
func (s *Store) Path() string {
	return s.path
}

// Exists 模型文件是否存在
func (s *Store) Exists() bool {
	info, err := os.Stat(s.path)
	return err == nil && !info.IsDir()
}

// Save 原子写入模型：先写同目录临时文件，再 rename 覆盖
func (s *Store) Save(m *TrainedModel) error {
	if m == nil || m.Classifier == nil {
		return errors.New("model has no classifier")
	}

	payload, err := encodeClassifier(m.Classifier)
	if err != nil {
		return err
	}

	header, err := json.Marshal(headerOf(m))
	if err != nil {
		return fmt.Errorf("encode header: %w", err)
	}

	var buf bytes.Buffer
	buf.Grow(len(magic) + 4 + len(header) + len(payload))
	buf.Write(magic)
	var size [4]byte
	binary.BigEndian.PutUint32(size[:], uint32(len(header)))
	buf.Write(size[:])
	buf.Write(header)
	buf.Write(payload)

	return writeAtomic(s.path, buf.Bytes())
}

// Load 读取完整模型
func (s *Store) Load() (*TrainedModel, error) {
	f, err := s.open()
	if err != nil {
		return nil, err
	}
	defer f.Close()

	header, err := readHeader(f)
	if err != nil {
		return nil, err
	}

	payload, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", s.path, err)
	}
	classifier, err := decodeClassifier(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: classifier payload: %v", ErrCorruptModel, err)
	}

	return &TrainedModel{
		Name:               header.Name,
		FormatVersion:      header.FormatVersion,
		CatalogFingerprint: header.CatalogFingerprint,
		CreatedAt:          header.CreatedAt,
		Metrics:            header.Metrics(),
		TrainSamples:       header.TrainSamples,
		TestSamples:        header.TestSamples,
		Classifier:         classifier,
	}, nil
}

// ReadHeader 只读取头部
func (s *Store) ReadHeader() (*Header, error) {
	f, err := s.open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return readHeader(f)
}

func (s *Store) open() (*os.File, error) {
	f, err := os.Open(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrModelNotFound, s.path)
		}
		return nil, err
	}
	return f, nil
}

func readHeader(r io.Reader) (*Header, error) {
	prefix := make([]byte, len(magic)+4)
	if _, err := io.ReadFull(r, prefix); err != nil {
		return nil, fmt.Errorf("%w: short file", ErrCorruptModel)
	}
	if !bytes.Equal(prefix[:len(magic)], magic) {
		return nil, fmt.Errorf("%w: bad magic", ErrCorruptModel)
	}

	size := binary.BigEndian.Uint32(prefix[len(magic):])
	if size == 0 || size > maxHeaderSize {
		return nil, fmt.Errorf("%w: header size %d", ErrCorruptModel, size)
	}

	raw := make([]byte, size)
	if _, err := io.ReadFull(r, raw); err != nil {
		return nil, fmt.Errorf("%w: truncated header", ErrCorruptModel)
	}

	var h Header
	if err := json.Unmarshal(raw, &h); err != nil {
		return nil, fmt.Errorf("%w: header: %v", ErrCorruptModel, err)
	}
	if h.FormatVersion > FormatVersion {
		return nil, fmt.Errorf("%w: %d (supported %d)", ErrUnsupportedVersion, h.FormatVersion, FormatVersion)
	}
	if h.FormatVersion <= 0 {
		return nil, fmt.Errorf("%w: format version %d", ErrCorruptModel, h.FormatVersion)
	}
	if h.PayloadEncoding != payloadEncoding {
		return nil, fmt.Errorf("%w: payload encoding %q", ErrCorruptModel, h.PayloadEncoding)
	}
	return &h, nil
}

// writeAtomic 同目录临时文件 + rename
func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create model dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write model: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("sync model: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close model: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace model: %w", err)
	}
	return nil
}
