package report

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// ErrInvalidDestination 报告文件扩展名不是 .json
var ErrInvalidDestination = errors.New("report destination must be a .json file")

// ErrMalformedReport 报告内容不是 JSON 对象
var ErrMalformedReport = errors.New("report is not a JSON object")

// ValidateDestination 检查报告路径扩展名（不区分大小写）
func ValidateDestination(dest string) error {
	if !strings.EqualFold(filepath.Ext(dest), ".json") {
		return fmt.Errorf("%w: %s", ErrInvalidDestination, dest)
	}
	return nil
}

// Read 读取报告；文件不存在或为空时返回空映射
func Read(dest string) (map[string]bool, error) {
	data, err := os.ReadFile(dest)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return map[string]bool{}, nil
		}
		return nil, err
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return map[string]bool{}, nil
	}

	results := map[string]bool{}
	if err := json.Unmarshal(data, &results); err != nil {
		return nil, fmt.Errorf("decode report %s: %w", dest, err)
	}
	if results == nil {
		return nil, fmt.Errorf("decode report %s: %w", dest, ErrMalformedReport)
	}
	return results, nil
}

// Record 把包名和检测结果合并进报告，已有的同名键被覆盖
func Record(pkg string, isMalware bool, dest string) error {
	if err := ValidateDestination(dest); err != nil {
		return err
	}

	results, err := Read(dest)
	if err != nil {
		return err
	}
	results[pkg] = isMalware

	// encoding/json 对 map 键排序，输出稳定
	data, err := json.MarshalIndent(results, "", "    ")
	if err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	return writeAtomic(dest, data)
}

func writeAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp report: %w", err)
	}
	tmpName := tmp.Name()

	if err := tmp.Chmod(0o644); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write report: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace report: %w", err)
	}
	return nil
}
