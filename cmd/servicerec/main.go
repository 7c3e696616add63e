// Command servicerec 从 CSV 目录加载服务，并为命令行给出的画像打印推荐结果。
//
//	servicerec -catalog data/service_recommendation_data.csv \
//	    -business-type "Tech Startup" -price High -location Remote -language Both -n 5
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"text/tabwriter"

	"github.com/goccy/go-json"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
	"github.com/rs/zerolog"

	"github.com/karthikbhavasarsr/ML-Service-Recommender/catalog"
	"github.com/karthikbhavasarsr/ML-Service-Recommender/config"
	"github.com/karthikbhavasarsr/ML-Service-Recommender/core"
	"github.com/karthikbhavasarsr/ML-Service-Recommender/pipeline"
	"github.com/karthikbhavasarsr/ML-Service-Recommender/pkg/logging"
	"github.com/karthikbhavasarsr/ML-Service-Recommender/recommender"
	"github.com/karthikbhavasarsr/ML-Service-Recommender/store"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	os.Exit(run(ctx, os.Args[1:], os.Stdout, os.Stderr))
}

type options struct {
	configPath   string
	catalogPath  string
	pipelinePath string
	n            int
	businessType string
	price        string
	location     string
	language     string
	quality      string
	format       string
	describe     bool
	metrics      bool
}

func parseFlags(args []string, stderr io.Writer) (*options, error) {
	fs := flag.NewFlagSet("servicerec", flag.ContinueOnError)
	fs.SetOutput(stderr)
	o := &options{}
	fs.StringVar(&o.configPath, "config", "", "config file (default: $SERVICEREC_CONFIG or ./servicerec.yaml)")
	fs.StringVar(&o.catalogPath, "catalog", "", "catalog CSV path (overrides catalog.path)")
	fs.StringVar(&o.pipelinePath, "pipeline", "", "pipeline YAML/JSON path (overrides pipeline_path)")
	fs.IntVar(&o.n, "n", 0, "number of recommendations (overrides recommender.n_recommendations)")
	fs.StringVar(&o.businessType, "business-type", "", "Target_Business_Type")
	fs.StringVar(&o.price, "price", "", "Price_Category")
	fs.StringVar(&o.location, "location", "", "Location_Area")
	fs.StringVar(&o.language, "language", "", "Language_Support")
	fs.StringVar(&o.quality, "match-quality", "", "Match_Quality (explanations only)")
	fs.StringVar(&o.format, "format", "table", "output format: table or json")
	fs.BoolVar(&o.describe, "describe", false, "print the fitted feature space as JSON and exit")
	fs.BoolVar(&o.metrics, "metrics", false, "print collected metrics to stderr in Prometheus text format")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if o.format != "table" && o.format != "json" {
		return nil, fmt.Errorf("unknown -format %q", o.format)
	}
	if o.n < 0 {
		return nil, fmt.Errorf("-n must be >= 0")
	}
	return o, nil
}

func (o *options) profile() core.Profile {
	p := core.Profile{}
	for col, v := range map[string]string{
		catalog.ColTargetBusinessType: o.businessType,
		catalog.ColPriceCategory:      o.price,
		catalog.ColLocationArea:       o.location,
		catalog.ColLanguageSupport:    o.language,
		catalog.ColMatchQuality:       o.quality,
	} {
		if strings.TrimSpace(v) != "" {
			p[col] = v
		}
	}
	return p
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	o, err := parseFlags(args, stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		fmt.Fprintln(stderr, err)
		return 2
	}

	cfg, err := config.Load(o.configPath)
	if err != nil {
		fmt.Fprintf(stderr, "load config: %v\n", err)
		return 1
	}
	if o.catalogPath != "" {
		cfg.Catalog.Path = o.catalogPath
	}
	if o.pipelinePath != "" {
		cfg.PipelinePath = o.pipelinePath
	}
	if o.n > 0 {
		cfg.Recommender.NRecommendations = o.n
	}

	logger := logging.WithComponent(logging.New(cfg.Log.Level, cfg.Log.Format, stderr), "servicerec")

	reg := prometheus.NewRegistry()
	r, err := newRecommender(cfg, logger, reg)
	if err != nil {
		logger.Error().Err(err).Msg("init failed")
		return 1
	}
	defer func() {
		if err := r.Close(); err != nil {
			logger.Warn().Err(err).Msg("close")
		}
	}()

	if err := r.Setup(ctx); err != nil {
		logger.Error().Err(err).Str("catalog", cfg.Catalog.Path).Msg("setup failed")
		return 1
	}

	if o.describe {
		meta, err := r.Metadata()
		if err != nil {
			logger.Error().Err(err).Msg("describe failed")
			return 1
		}
		return writeJSON(stdout, meta, logger)
	}

	recs, err := r.Recommend(ctx, o.profile())
	if err != nil {
		logger.Error().Err(err).Msg("recommend failed")
		return 1
	}
	code := 0
	if o.format == "json" {
		code = writeJSON(stdout, recs, logger)
	} else if err := writeTable(stdout, recs); err != nil {
		logger.Error().Err(err).Msg("write output")
		code = 1
	}
	if o.metrics {
		if err := writeMetrics(stderr, reg); err != nil {
			logger.Error().Err(err).Msg("write metrics")
			code = 1
		}
	}
	return code
}

func newRecommender(cfg *config.AppConfig, logger zerolog.Logger, reg prometheus.Registerer) (*recommender.Recommender, error) {
	s, err := store.New(store.Config{
		Driver:    cfg.Store.Driver,
		RedisAddr: cfg.Store.RedisAddr,
		RedisDB:   cfg.Store.RedisDB,
	})
	if err != nil {
		return nil, fmt.Errorf("store: %w", err)
	}

	opts := []recommender.Option{
		recommender.WithLoader(catalog.NewCSVLoader(cfg.Catalog.Path)),
		recommender.WithRecommendConfig(cfg.Recommender),
		recommender.WithFilterExpr(cfg.Recommender.FilterExpr),
		recommender.WithExcludeIDs(cfg.Recommender.ExcludeIDs...),
		recommender.WithParams(cfg.Recommender.Params),
		recommender.WithLogger(logging.WithComponent(logger, "recommender")),
		recommender.WithMonitor(recommender.NewPrometheusMonitor(reg)),
	}
	if s != nil {
		opts = append(opts, recommender.WithStore(s, cfg.Recommender.CacheTTL))
	}
	if cfg.PipelinePath != "" {
		pcfg, err := loadPipeline(cfg.PipelinePath)
		if err != nil {
			return nil, err
		}
		opts = append(opts, recommender.WithPipelineConfig(pcfg))
	}
	return recommender.New(opts...), nil
}

func loadPipeline(path string) (*pipeline.Config, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return pipeline.LoadFromJSON(path)
	default:
		return pipeline.LoadFromYAML(path)
	}
}

func writeJSON(w io.Writer, v any, logger zerolog.Logger) int {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		logger.Error().Err(err).Msg("encode output")
		return 1
	}
	return 0
}

func writeTable(w io.Writer, recs []recommender.Recommendation) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "RANK\tID\tSERVICE\tTYPE\tPRICE\tLOCATION\tLANGUAGE\tSCORE\tEXPLANATION")
	for i, rec := range recs {
		fmt.Fprintf(tw, "%d\t%d\t%s\t%s\t%s\t%s\t%s\t%.4f\t%s\n",
			i+1, rec.ID, rec.Name, rec.TargetBusinessType, rec.PriceCategory,
			rec.LocationArea, rec.LanguageSupport, rec.SimilarityScore, rec.Explanation)
	}
	return tw.Flush()
}

func writeMetrics(w io.Writer, g prometheus.Gatherer) error {
	families, err := g.Gather()
	if err != nil {
		return err
	}
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return err
		}
	}
	return nil
}
