package catalog

// Service 是目录中的一条服务记录。加载后不可变。
type Service struct {
	ID                 int64  `json:"Service_ID"`
	Name               string `json:"Service_Name"`
	Description        string `json:"Description"`
	TargetBusinessType string `json:"Target_Business_Type"`
	PriceCategory      string `json:"Price_Category"`
	LocationArea       string `json:"Location_Area"`
	LanguageSupport    string `json:"Language_Support"`
	MatchQuality       string `json:"Match_Quality"`
}

// Attr 按列名读取类别属性，非类别列返回 ok=false。
func (s Service) Attr(col string) (string, bool) {
	switch col {
	case ColTargetBusinessType:
		return s.TargetBusinessType, true
	case ColPriceCategory:
		return s.PriceCategory, true
	case ColLocationArea:
		return s.LocationArea, true
	case ColLanguageSupport:
		return s.LanguageSupport, true
	case ColMatchQuality:
		return s.MatchQuality, true
	default:
		return "", false
	}
}

// Fields 返回全部列（含 ID/名称/描述），供过滤表达式与输出使用。
func (s Service) Fields() map[string]any {
	return map[string]any{
		ColServiceID:          s.ID,
		ColServiceName:        s.Name,
		ColDescription:        s.Description,
		ColTargetBusinessType: s.TargetBusinessType,
		ColPriceCategory:      s.PriceCategory,
		ColLocationArea:       s.LocationArea,
		ColLanguageSupport:    s.LanguageSupport,
		ColMatchQuality:       s.MatchQuality,
	}
}

// setAttr 在加载阶段按列名写入字段。
func (s *Service) setAttr(col, value string) {
	switch col {
	case ColServiceName:
		s.Name = value
	case ColDescription:
		s.Description = value
	case ColTargetBusinessType:
		s.TargetBusinessType = value
	case ColPriceCategory:
		s.PriceCategory = value
	case ColLocationArea:
		s.LocationArea = value
	case ColLanguageSupport:
		s.LanguageSupport = value
	case ColMatchQuality:
		s.MatchQuality = value
	}
}
