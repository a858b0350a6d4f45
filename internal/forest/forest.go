// Package forest implements a random forest classifier (bagged CART trees with
// Gini impurity) with out-of-bag scoring and mean-decrease-in-impurity feature
// importances.
package forest

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"time"
)

// ErrNotFitted 模型尚未训练
var ErrNotFitted = errors.New("forest is not fitted")

// Config 随机森林参数
type Config struct {
	NumTrees        int   // 树的数量
	MaxDepth        int   // 最大深度，<= 0 表示不限制
	MaxFeatures     int   // 每次分裂候选特征数，<= 0 表示 sqrt(特征数)
	MinSamplesSplit int   // 节点最少样本数，小于该值不再分裂
	OOBScore        bool  // 是否计算袋外得分
	Seed            int64 // 随机种子，0 表示按时间生成
	NumClasses      int   // 类别数下限，训练集缺少某类时仍保留该类的概率位
}

// DefaultConfig 默认参数（100 棵树，深度 50，开启 OOB）
func DefaultConfig() Config {
	return Config{
		NumTrees:        100,
		MaxDepth:        50,
		MinSamplesSplit: 2,
		OOBScore:        true,
	}
}

// Node 树节点，Feature < 0 表示叶子
type Node struct {
	Feature   int
	Threshold float64
	Left      int
	Right     int
	Probs     []float64
}

// Tree 单棵决策树，节点按先序存放，0 为根
type Tree struct {
	Nodes []Node
}

// Forest 训练好的随机森林
type Forest struct {
	Trees       []Tree
	NumFeatures int
	NumClasses  int
	Importances []float64
	OOBScore    float64
	HasOOBScore bool
}

// Fit 训练随机森林，y 的取值为 0..K-1
func Fit(x [][]float64, y []int, cfg Config) (*Forest, error) {
	if len(x) == 0 {
		return nil, errors.New("empty training set")
	}
	if len(x) != len(y) {
		return nil, fmt.Errorf("feature rows (%d) and labels (%d) differ", len(x), len(y))
	}

	numFeatures := len(x[0])
	if numFeatures == 0 {
		return nil, errors.New("training rows have no features")
	}
	numClasses := 0
	for i, row := range x {
		if len(row) != numFeatures {
			return nil, fmt.Errorf("row %d has %d features, expected %d", i, len(row), numFeatures)
		}
		if y[i] < 0 {
			return nil, fmt.Errorf("row %d has negative label %d", i, y[i])
		}
		if y[i]+1 > numClasses {
			numClasses = y[i] + 1
		}
	}

	if cfg.NumClasses > numClasses {
		numClasses = cfg.NumClasses
	}
	if cfg.NumTrees <= 0 {
		cfg.NumTrees = 100
	}
	if cfg.MaxDepth <= 0 {
		cfg.MaxDepth = math.MaxInt32
	}
	if cfg.MaxFeatures <= 0 || cfg.MaxFeatures > numFeatures {
		cfg.MaxFeatures = int(math.Max(1, math.Floor(math.Sqrt(float64(numFeatures)))))
	}
	if cfg.MinSamplesSplit < 2 {
		cfg.MinSamplesSplit = 2
	}
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))

	f := &Forest{
		Trees:       make([]Tree, 0, cfg.NumTrees),
		NumFeatures: numFeatures,
		NumClasses:  numClasses,
		Importances: make([]float64, numFeatures),
	}

	n := len(x)
	// oobVotes[i] 累加未使用样本 i 训练的树给出的概率
	var oobVotes [][]float64
	if cfg.OOBScore {
		oobVotes = make([][]float64, n)
	}

	treeImportance := make([]float64, numFeatures)
	for t := 0; t < cfg.NumTrees; t++ {
		inBag := make([]bool, n)
		sample := make([]int, n)
		for i := range sample {
			j := rng.Intn(n)
			sample[i] = j
			inBag[j] = true
		}

		for i := range treeImportance {
			treeImportance[i] = 0
		}
		b := &builder{
			x:           x,
			y:           y,
			cfg:         cfg,
			rng:         rng,
			numClasses:  numClasses,
			importances: treeImportance,
		}
		b.grow(sample, 0)
		f.Trees = append(f.Trees, b.tree)

		// 每棵树的重要性先归一化再累加
		total := 0.0
		for _, v := range treeImportance {
			total += v
		}
		if total > 0 {
			for i, v := range treeImportance {
				f.Importances[i] += v / total
			}
		}

		if cfg.OOBScore {
			for i := 0; i < n; i++ {
				if inBag[i] {
					continue
				}
				if oobVotes[i] == nil {
					oobVotes[i] = make([]float64, numClasses)
				}
				for c, p := range b.tree.predict(x[i]) {
					oobVotes[i][c] += p
				}
			}
		}
	}

	total := 0.0
	for _, v := range f.Importances {
		total += v
	}
	if total > 0 {
		for i := range f.Importances {
			f.Importances[i] /= total
		}
	}

	if cfg.OOBScore {
		correct, scored := 0, 0
		for i, votes := range oobVotes {
			if votes == nil {
				continue
			}
			scored++
			if argmax(votes) == y[i] {
				correct++
			}
		}
		if scored > 0 {
			f.OOBScore = float64(correct) / float64(scored)
			f.HasOOBScore = true
		}
	}

	return f, nil
}

// PredictProba 返回各类别的平均概率
func (f *Forest) PredictProba(row []float64) ([]float64, error) {
	if f == nil || len(f.Trees) == 0 {
		return nil, ErrNotFitted
	}
	if len(row) != f.NumFeatures {
		return nil, fmt.Errorf("sample has %d features, model expects %d", len(row), f.NumFeatures)
	}

	probs := make([]float64, f.NumClasses)
	for i := range f.Trees {
		for c, p := range f.Trees[i].predict(row) {
			probs[c] += p
		}
	}
	for c := range probs {
		probs[c] /= float64(len(f.Trees))
	}
	return probs, nil
}

// Predict 单样本预测
func (f *Forest) Predict(row []float64) (int, error) {
	probs, err := f.PredictProba(row)
	if err != nil {
		return 0, err
	}
	return argmax(probs), nil
}

// PredictBatch 批量预测
func (f *Forest) PredictBatch(rows [][]float64) ([]int, error) {
	out := make([]int, len(rows))
	for i, row := range rows {
		label, err := f.Predict(row)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
		out[i] = label
	}
	return out, nil
}

// FeatureImportances 返回特征重要性副本（总和为 1，或全部为 0）
func (f *Forest) FeatureImportances() []float64 {
	out := make([]float64, len(f.Importances))
	copy(out, f.Importances)
	return out
}

func (t *Tree) predict(row []float64) []float64 {
	i := 0
	for {
		node := &t.Nodes[i]
		if node.Feature < 0 {
			return node.Probs
		}
		if row[node.Feature] <= node.Threshold {
			i = node.Left
		} else {
			i = node.Right
		}
	}
}

// argmax 并列时取下标较小的类别
func argmax(values []float64) int {
	best := 0
	for i, v := range values {
		if v > values[best] {
			best = i
		}
	}
	return best
}
