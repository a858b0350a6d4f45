package forest

import (
	"math/rand"
	"sort"
)

// builder 单棵树的构建状态
type builder struct {
	x           [][]float64
	y           []int
	cfg         Config
	rng         *rand.Rand
	numClasses  int
	importances []float64
	tree        Tree
}

type split struct {
	feature   int
	threshold float64
	gain      float64
}

type valueLabel struct {
	value float64
	label int
}

// grow 递归构建子树，返回节点下标
func (b *builder) grow(idx []int, depth int) int {
	counts := b.classCounts(idx)

	nodeID := len(b.tree.Nodes)
	b.tree.Nodes = append(b.tree.Nodes, Node{Feature: -1})

	if depth >= b.cfg.MaxDepth || len(idx) < b.cfg.MinSamplesSplit || isPure(counts) {
		b.tree.Nodes[nodeID].Probs = toProbs(counts, len(idx))
		return nodeID
	}

	best, ok := b.bestSplit(idx, counts)
	if !ok {
		b.tree.Nodes[nodeID].Probs = toProbs(counts, len(idx))
		return nodeID
	}

	left := make([]int, 0, len(idx))
	right := make([]int, 0, len(idx))
	for _, i := range idx {
		if b.x[i][best.feature] <= best.threshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}

	b.importances[best.feature] += best.gain

	l := b.grow(left, depth+1)
	r := b.grow(right, depth+1)

	// append 可能导致底层数组重新分配，最后再写回
	b.tree.Nodes[nodeID] = Node{
		Feature:   best.feature,
		Threshold: best.threshold,
		Left:      l,
		Right:     r,
	}
	return nodeID
}

// bestSplit 在随机抽取的候选特征上寻找 Gini 下降最大的切分点
//
// 常量特征不计入候选数；若候选特征都找不到合法切分，会继续检查其余特征。
func (b *builder) bestSplit(idx []int, counts []int) (split, bool) {
	n := len(idx)
	parentImpurity := gini(counts, n)

	var best split
	found := false
	visited := 0

	pairs := make([]valueLabel, n)
	leftCounts := make([]int, b.numClasses)
	rightCounts := make([]int, b.numClasses)

	for _, f := range b.rng.Perm(len(b.x[0])) {
		if visited >= b.cfg.MaxFeatures && found {
			break
		}

		for k, i := range idx {
			pairs[k] = valueLabel{value: b.x[i][f], label: b.y[i]}
		}
		sort.Slice(pairs, func(a, c int) bool { return pairs[a].value < pairs[c].value })
		if pairs[0].value == pairs[n-1].value {
			continue
		}
		visited++

		for c := range leftCounts {
			leftCounts[c] = 0
			rightCounts[c] = counts[c]
		}

		for k := 0; k < n-1; k++ {
			leftCounts[pairs[k].label]++
			rightCounts[pairs[k].label]--
			if pairs[k].value == pairs[k+1].value {
				continue
			}

			nl, nr := k+1, n-k-1
			gain := float64(n)*parentImpurity -
				float64(nl)*gini(leftCounts, nl) -
				float64(nr)*gini(rightCounts, nr)

			if !found || gain > best.gain {
				best = split{
					feature:   f,
					threshold: (pairs[k].value + pairs[k+1].value) / 2,
					gain:      gain,
				}
				found = true
			}
		}
	}

	return best, found
}

func (b *builder) classCounts(idx []int) []int {
	counts := make([]int, b.numClasses)
	for _, i := range idx {
		counts[b.y[i]]++
	}
	return counts
}

func gini(counts []int, n int) float64 {
	if n == 0 {
		return 0
	}
	sum := 0.0
	for _, c := range counts {
		p := float64(c) / float64(n)
		sum += p * p
	}
	return 1 - sum
}

func isPure(counts []int) bool {
	nonZero := 0
	for _, c := range counts {
		if c > 0 {
			nonZero++
		}
	}
	return nonZero <= 1
}

func toProbs(counts []int, n int) []float64 {
	probs := make([]float64, len(counts))
	if n == 0 {
		return probs
	}
	for c, v := range counts {
		probs[c] = float64(v) / float64(n)
	}
	return probs
}
