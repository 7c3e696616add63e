// Package servicerec 是一个基于内容相似度的服务推荐器。
//
// 设计要点：
// - Fit once: 目录加载后一次性拟合取值表与排序引擎，之后只读，可并发推荐
// - Pipeline-first: 一次推荐由 Node 串联（Rank → Filter → ReRank → PostProcess）
// - Labels-first: labels 全链路透传，用于解释与观测
package servicerec

import (
	"github.com/karthikbhavasarsr/ML-Service-Recommender/core"
	"github.com/karthikbhavasarsr/ML-Service-Recommender/pipeline"
	"github.com/karthikbhavasarsr/ML-Service-Recommender/recommender"
)

// 轻量 facade：便于直接 import 根包使用核心抽象。
type (
	Recommender    = recommender.Recommender
	Recommendation = recommender.Recommendation
	Option         = recommender.Option
	Profile        = core.Profile
	Pipeline       = pipeline.Pipeline
	Node           = pipeline.Node
	Kind           = pipeline.Kind
)

const (
	KindFilter      = pipeline.KindFilter
	KindRank        = pipeline.KindRank
	KindReRank      = pipeline.KindReRank
	KindPostProcess = pipeline.KindPostProcess
)

// New 创建 Recommender，见 recommender.New。
func New(opts ...Option) *Recommender { return recommender.New(opts...) }
