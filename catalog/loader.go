package catalog

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/karthikbhavasarsr/ML-Service-Recommender/core"
)

// Loader 加载并清洗服务目录。
type Loader interface {
	Load(ctx context.Context) (*Catalog, error)
}

// CSVLoader 从 CSV 文件加载目录。
//
// 清洗规则：
//   - 列按表头名称匹配，列顺序无关，未知列忽略
//   - 表头无 Service_ID 时，按清洗后的行顺序分配 1..n
//   - Service_ID 为空或非整数的行被丢弃
//   - Service_Name 为空的行被丢弃
//   - 类别列为空时填充 "Unknown"，描述为空时保持空串
//   - 内容完全相同的重复行只保留第一条；Service_ID 相同但内容不同视为输入错误
type CSVLoader struct {
	Path string
}

func NewCSVLoader(path string) *CSVLoader {
	return &CSVLoader{Path: path}
}

func (l *CSVLoader) Load(ctx context.Context) (*Catalog, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := os.Open(l.Path)
	if err != nil {
		return nil, fmt.Errorf("open catalog: %w", err)
	}
	defer f.Close()

	c, err := ReadCSV(f)
	if err != nil {
		return nil, fmt.Errorf("load catalog %s: %w", l.Path, err)
	}
	return c, nil
}

// StaticLoader 直接返回内存中的记录，用于测试与嵌入式场景。
type StaticLoader struct {
	Services []Service
}

func (l *StaticLoader) Load(ctx context.Context) (*Catalog, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return New(l.Services)
}

// ReadCSV 解析并清洗 CSV 目录。
func ReadCSV(r io.Reader) (*Catalog, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return New(nil)
	}
	if err != nil {
		return nil, core.NewInvalidInput(core.ModuleCatalog, "read_csv", fmt.Sprintf("read header: %v", err))
	}

	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.TrimPrefix(strings.TrimSpace(name), "\ufeff")] = i
	}
	idCol, hasID := cols[ColServiceID]

	cell := func(record []string, col string) string {
		i, ok := cols[col]
		if !ok || i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}

	var (
		rows    []Service
		seen    = make(map[string]bool)
		seenIDs = make(map[int64]string)
		line    = 1
	)
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return nil, core.NewInvalidInput(core.ModuleCatalog, "read_csv", fmt.Sprintf("line %d: %v", line, err))
		}

		var s Service
		if hasID {
			raw := strings.TrimSpace(record[idCol])
			id, err := strconv.ParseInt(raw, 10, 64)
			if err != nil {
				continue
			}
			s.ID = id
		}
		for _, col := range []string{ColServiceName, ColDescription} {
			s.setAttr(col, cell(record, col))
		}
		for _, col := range categoricalColumns {
			v := cell(record, col)
			if v == "" {
				v = UnknownValue
			}
			s.setAttr(col, v)
		}

		key := contentKey(s)
		if seen[key] {
			continue
		}
		if hasID {
			if prev, ok := seenIDs[s.ID]; ok && prev != key {
				return nil, core.NewInvalidInput(core.ModuleCatalog, "read_csv",
					fmt.Sprintf("line %d: Service_ID %d already used by a different service", line, s.ID))
			}
			seenIDs[s.ID] = key
		}
		seen[key] = true
		rows = append(rows, s)
	}

	if !hasID {
		for i := range rows {
			rows[i].ID = int64(i + 1)
		}
	}
	return New(rows)
}

// contentKey 用于去重。包含 ID，所以无 ID 列时只按内容去重。
func contentKey(s Service) string {
	return strings.Join([]string{
		strconv.FormatInt(s.ID, 10),
		s.Name,
		s.Description,
		s.TargetBusinessType,
		s.PriceCategory,
		s.LocationArea,
		s.LanguageSupport,
		s.MatchQuality,
	}, "\x1f")
}
