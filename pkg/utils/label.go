package utils

import "strings"

// Label 是推荐链路中的一等公民：可解释、可追踪、可透传。
// Value 与 Source 的语义由各 Node 自定义；这里只提供标准化的合并规则。
type Label struct {
	Value  string `json:"value"`
	Source string `json:"source"` // rank / filter / rerank / explain ...
}

// MergeLabel 用于合并同名 Label，遵循“保留历史、可追踪”的默认策略。
// - Value: 以 '|' 累积
// - Source: 以 ',' 累积，相同来源不重复
func MergeLabel(existing Label, incoming Label) Label {
	if existing.Value == "" {
		return incoming
	}
	if incoming.Value == "" {
		return existing
	}

	merged := existing
	merged.Value = existing.Value + "|" + incoming.Value
	switch {
	case existing.Source == "":
		merged.Source = incoming.Source
	case incoming.Source == "" || containsPart(existing.Source, incoming.Source, ","):
		merged.Source = existing.Source
	default:
		merged.Source = existing.Source + "," + incoming.Source
	}
	return merged
}

// SplitValues 拆分合并后的 Value。
func SplitValues(lbl Label) []string {
	if lbl.Value == "" {
		return nil
	}
	return strings.Split(lbl.Value, "|")
}

func containsPart(joined, part, sep string) bool {
	for _, p := range strings.Split(joined, sep) {
		if p == part {
			return true
		}
	}
	return false
}
