package service

import (
	"fmt"
	"sort"

	"github.com/meili-next/internal/models"
)

// sponsorNode 谱系树节点
type sponsorNode struct {
	dealer   models.Dealer
	parentID *uint
	children []uint
}

// SponsorTree 经销商谱系树（森林），构建后只读
type SponsorTree struct {
	nodes map[uint]*sponsorNode
	roots []uint
}

// BuildSponsorTree 从经销商列表构建谱系树，校验悬空上级与环
func BuildSponsorTree(dealers []models.Dealer) (*SponsorTree, error) {
	tree := &SponsorTree{
		nodes: make(map[uint]*sponsorNode, len(dealers)),
		roots: make([]uint, 0),
	}
	for _, dealer := range dealers {
		tree.nodes[dealer.ID] = &sponsorNode{
			dealer:   dealer,
			parentID: dealer.ParentID,
			children: make([]uint, 0),
		}
	}
	for id, node := range tree.nodes {
		if node.parentID == nil {
			tree.roots = append(tree.roots, id)
			continue
		}
		parent, ok := tree.nodes[*node.parentID]
		if !ok {
			return nil, fmt.Errorf("%w: 经销商 %d 的上级 %d 不存在", ErrSponsorTreeOrphan, id, *node.parentID)
		}
		parent.children = append(parent.children, id)
	}
	// 子节点与根按ID排序，保证遍历顺序确定
	for _, node := range tree.nodes {
		sort.Slice(node.children, func(i, j int) bool { return node.children[i] < node.children[j] })
	}
	sort.Slice(tree.roots, func(i, j int) bool { return tree.roots[i] < tree.roots[j] })

	if err := tree.detectCycle(); err != nil {
		return nil, err
	}
	return tree, nil
}

// detectCycle 沿上级链走访每个节点，发现环即失败
func (t *SponsorTree) detectCycle() error {
	state := make(map[uint]int, len(t.nodes)) // 0 未访问 1 访问中 2 已完成
	for id := range t.nodes {
		cursor := id
		path := make([]uint, 0, 8)
		for {
			if state[cursor] == 2 {
				break
			}
			if state[cursor] == 1 {
				return fmt.Errorf("%w: 经销商 %d", ErrSponsorTreeCycle, cursor)
			}
			state[cursor] = 1
			path = append(path, cursor)
			parentID := t.nodes[cursor].parentID
			if parentID == nil {
				break
			}
			cursor = *parentID
		}
		for _, visited := range path {
			state[visited] = 2
		}
	}
	return nil
}

// Contains 判断经销商是否在树中
func (t *SponsorTree) Contains(id uint) bool {
	_, ok := t.nodes[id]
	return ok
}

// Dealer 获取节点上的经销商
func (t *SponsorTree) Dealer(id uint) (models.Dealer, bool) {
	node, ok := t.nodes[id]
	if !ok {
		return models.Dealer{}, false
	}
	return node.dealer, true
}

// AncestorsOf 由近及远返回上级链（不含自身）
func (t *SponsorTree) AncestorsOf(id uint) ([]uint, error) {
	node, ok := t.nodes[id]
	if !ok {
		return nil, ErrNotFound
	}
	ancestors := make([]uint, 0, 8)
	for node.parentID != nil {
		parentID := *node.parentID
		ancestors = append(ancestors, parentID)
		node = t.nodes[parentID]
	}
	return ancestors, nil
}

// ChildrenOf 直接下级ID列表
func (t *SponsorTree) ChildrenOf(id uint) []uint {
	node, ok := t.nodes[id]
	if !ok {
		return []uint{}
	}
	children := make([]uint, len(node.children))
	copy(children, node.children)
	return children
}

// DescendantsOf 全部传递下级ID集合（不含自身）
func (t *SponsorTree) DescendantsOf(id uint) []uint {
	node, ok := t.nodes[id]
	if !ok {
		return []uint{}
	}
	result := make([]uint, 0)
	stack := make([]uint, len(node.children))
	copy(stack, node.children)
	for len(stack) > 0 {
		current := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		result = append(result, current)
		stack = append(stack, t.nodes[current].children...)
	}
	sort.Slice(result, func(i, j int) bool { return result[i] < result[j] })
	return result
}

// BottomUpOrder 后序遍历ID序列，保证子节点先于父节点，供一次遍历聚合团队业绩
func (t *SponsorTree) BottomUpOrder() []uint {
	order := make([]uint, 0, len(t.nodes))
	var walk func(id uint)
	walk = func(id uint) {
		for _, child := range t.nodes[id].children {
			walk(child)
		}
		order = append(order, id)
	}
	for _, root := range t.roots {
		walk(root)
	}
	return order
}

// Size 节点数
func (t *SponsorTree) Size() int {
	return len(t.nodes)
}
