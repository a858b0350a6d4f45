package catalog

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
)

// 派生特征列，固定追加在权限列之后
const (
	OtherPermission   = "other_permission"
	NumOfPermissions  = "num_of_permissions"
	LabelColumn       = "is_malware"
	derivedSlotsCount = 3
)

// Catalog 权限目录：决定特征向量的长度与每一列的含义
//
// Catalog 创建后不可修改。同一个模型的训练和推理必须使用同一份目录，
// 目录变化会使所有已训练的模型失效（通过 Fingerprint 检测）。
type Catalog struct {
	columns     []string
	index       map[string]int
	fingerprint string
}

var defaultCatalog = mustNew(knownPermissions[:])

// Default 返回内置的权限目录
func Default() *Catalog {
	return defaultCatalog
}

// New 根据权限列表创建目录，派生列自动追加
func New(permissions []string) (*Catalog, error) {
	columns := make([]string, 0, len(permissions)+derivedSlotsCount)
	index := make(map[string]int, len(permissions))

	for i, perm := range permissions {
		if perm == "" {
			return nil, fmt.Errorf("empty permission at position %d", i)
		}
		if perm == OtherPermission || perm == NumOfPermissions || perm == LabelColumn {
			return nil, fmt.Errorf("permission %q collides with a derived column", perm)
		}
		if _, dup := index[perm]; dup {
			return nil, fmt.Errorf("duplicate permission %q", perm)
		}
		index[perm] = i
		columns = append(columns, perm)
	}
	columns = append(columns, OtherPermission, NumOfPermissions, LabelColumn)

	sum := sha256.Sum256([]byte(strings.Join(columns, "\n")))

	return &Catalog{
		columns:     columns,
		index:       index,
		fingerprint: hex.EncodeToString(sum[:]),
	}, nil
}

func mustNew(permissions []string) *Catalog {
	c, err := New(permissions)
	if err != nil {
		panic(err)
	}
	return c
}

// Len 目录总长度（含 3 个派生列）
func (c *Catalog) Len() int {
	return len(c.columns)
}

// PermissionCount 已知权限数量
func (c *Catalog) PermissionCount() int {
	return len(c.columns) - derivedSlotsCount
}

// Index 返回权限所在列，未知权限返回 false
func (c *Catalog) Index(permission string) (int, bool) {
	i, ok := c.index[permission]
	return i, ok
}

// OtherPermissionIndex other_permission 列下标
func (c *Catalog) OtherPermissionIndex() int {
	return len(c.columns) - 3
}

// NumOfPermissionsIndex num_of_permissions 列下标
func (c *Catalog) NumOfPermissionsIndex() int {
	return len(c.columns) - 2
}

// LabelIndex 标签列下标
func (c *Catalog) LabelIndex() int {
	return len(c.columns) - 1
}

// Columns 返回全部列名的副本
func (c *Catalog) Columns() []string {
	out := make([]string, len(c.columns))
	copy(out, c.columns)
	return out
}

// FeatureNames 返回特征列名（不含标签列），与分类器的特征下标一一对应
func (c *Catalog) FeatureNames() []string {
	out := make([]string, len(c.columns)-1)
	copy(out, c.columns[:len(c.columns)-1])
	return out
}

// Fingerprint 目录指纹（列名顺序敏感）
func (c *Catalog) Fingerprint() string {
	return c.fingerprint
}
