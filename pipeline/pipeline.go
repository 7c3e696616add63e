package pipeline

import (
	"context"
	"fmt"

	"github.com/karthikbhavasarsr/ML-Service-Recommender/core"
)

// Pipeline 把一次推荐拆成可组合的 Node 链：Rank → Filter → ReRank → PostProcess。
// Pipeline 本身无状态，可被多个请求并发 Run。
type Pipeline struct {
	Nodes []Node
}

func (p *Pipeline) Run(
	ctx context.Context,
	rctx *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	cur := items
	for _, node := range p.Nodes {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		next, err := node.Process(ctx, rctx, cur)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", node.Name(), err)
		}
		cur = next
	}
	return cur, nil
}

// NodeNames 返回节点名称列表，用于日志。
func (p *Pipeline) NodeNames() []string {
	names := make([]string, len(p.Nodes))
	for i, n := range p.Nodes {
		names[i] = n.Name()
	}
	return names
}
