package commands

import (
	"errors"
	"fmt"
	"os"
	"time"

	"brutto-netto/lib/configutil"
	"brutto-netto/lib/scrapers/wynagrodzenia"

	"github.com/spf13/cobra"
)

const defaultConfigName = "brutto-netto.json5"

// Config is what can be set in brutto-netto.json5 (and its .local
// override), flags take precedence over it.
type Config struct {
	BaseUrl     string `json:"base_url"`
	TaskTimeout string `json:"task_timeout"`
	HttpTimeout string `json:"http_timeout"`
	Concurrency int    `json:"concurrency"`
	DropCents   bool   `json:"drop_cents"`
	UserAgent   string `json:"user_agent"`
	DumpDir     string `json:"dump_dir"`
	Chart       string `json:"chart"`
	ChartOut    string `json:"chart_out"`
	Output      string `json:"output"`
	Db          string `json:"db"`

	// calculator form fields, unset fields keep their defaults
	Parameters wynagrodzenia.Parameters `json:"parameters"`
}

func defaultConfig() Config {
	return Config{
		BaseUrl:     wynagrodzenia.DefaultBaseUrl,
		TaskTimeout: "10s",
		HttpTimeout: "30s",
		Chart:       chartTerminal,
		ChartOut:    "chart.html",
		Output:      outputText,
		Parameters:  wynagrodzenia.DefaultParameters(),
	}
}

const (
	chartTerminal = "terminal"
	chartHtml     = "html"
	chartNone     = "none"

	outputText  = "text"
	outputTable = "table"
	outputJson  = "json"
)

type settings struct {
	Config
	taskTimeout time.Duration
	httpTimeout time.Duration
}

type flagValues struct {
	config      string
	baseUrl     string
	taskTimeout time.Duration
	httpTimeout time.Duration
	concurrency int
	dropCents   bool
	dumpDir     string
	chart       string
	chartOut    string
	output      string
	db          string
	verbose     bool
}

func readConfigFile(cmd *cobra.Command, path string) (Config, error) {
	var cfg Config
	var err error
	if cmd.Flags().Changed("config") {
		cfg, err = configutil.ReadConfig[Config](path)
		if errors.Is(err, os.ErrNotExist) {
			return cfg, fmt.Errorf("config file %s does not exist", path)
		}
	} else {
		cfg, err = configutil.ReadRecursively[Config](path)
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
	}
	return cfg, err
}

func loadSettings(cmd *cobra.Command, flags *flagValues) (settings, error) {
	fileCfg, err := readConfigFile(cmd, flags.config)
	if err != nil {
		return settings{}, fmt.Errorf("read config: %w", err)
	}
	cfg, err := configutil.WithDefaults(fileCfg, defaultConfig())
	if err != nil {
		return settings{}, err
	}

	f := cmd.Flags()
	if f.Changed("base-url") {
		cfg.BaseUrl = flags.baseUrl
	}
	if f.Changed("timeout") {
		cfg.TaskTimeout = flags.taskTimeout.String()
	}
	if f.Changed("http-timeout") {
		cfg.HttpTimeout = flags.httpTimeout.String()
	}
	if f.Changed("concurrency") {
		cfg.Concurrency = flags.concurrency
	}
	if f.Changed("drop-cents") {
		cfg.DropCents = flags.dropCents
	}
	if f.Changed("dump-dir") {
		cfg.DumpDir = flags.dumpDir
	}
	if f.Changed("chart") {
		cfg.Chart = flags.chart
	}
	if f.Changed("chart-out") {
		cfg.ChartOut = flags.chartOut
	}
	if f.Changed("output") {
		cfg.Output = flags.output
	}
	if f.Changed("db") {
		cfg.Db = flags.db
	}

	s := settings{Config: cfg}
	s.taskTimeout, err = time.ParseDuration(cfg.TaskTimeout)
	if err != nil {
		return settings{}, fmt.Errorf("task timeout: %w", err)
	}
	s.httpTimeout, err = time.ParseDuration(cfg.HttpTimeout)
	if err != nil {
		return settings{}, fmt.Errorf("http timeout: %w", err)
	}

	switch cfg.Chart {
	case chartTerminal, chartHtml, chartNone:
	default:
		return settings{}, fmt.Errorf("unknown chart kind %q", cfg.Chart)
	}
	switch cfg.Output {
	case outputText, outputTable, outputJson:
	default:
		return settings{}, fmt.Errorf("unknown output format %q", cfg.Output)
	}
	if cfg.Concurrency < 0 {
		return settings{}, fmt.Errorf("concurrency must not be negative")
	}

	return s, nil
}
