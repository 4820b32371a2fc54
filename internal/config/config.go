package config

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

type Config struct {
	Search              SearchConfig        `yaml:"search"`
	Crawl               CrawlConfig         `yaml:"crawl"`
	Output              OutputConfig        `yaml:"output"`
	Browser             BrowserConfig       `yaml:"browser"`
	Backoff             BackoffConfig       `yaml:"backoff"`
	RobotsCacheTTLHours int                 `yaml:"robots_cache_ttl_hours"`
	HTTP                HttpConfig          `yaml:"http"`
	RateLimit           RateLimitConfig     `yaml:"rate_limit"`
	SelectorsFile       string              `yaml:"selectors_file"`
	Normalize           NormalizeConfig     `yaml:"normalize"`
	Storage             StorageConfig       `yaml:"storage"`
	Upload              UploadConfig        `yaml:"upload"`
	Scheduler           SchedulerConfig     `yaml:"scheduler"`
	Observability       ObservabilityConfig `yaml:"observability"`
}

type SearchConfig struct {
	Phrase     string `yaml:"phrase"`
	Categories string `yaml:"categories"`
	MonthsBack int    `yaml:"months_back"`
	MaxRecords int    `yaml:"max_records"`
}

// CategoryList splits the comma separated category option, dropping blanks.
func (s SearchConfig) CategoryList() []string {
	var out []string
	for _, c := range strings.Split(s.Categories, ",") {
		if c = strings.TrimSpace(c); c != "" {
			out = append(out, c)
		}
	}
	return out
}

type CrawlConfig struct {
	DateParsePolicy string `yaml:"date_parse_policy"`
}

type OutputConfig struct {
	Dir            string `yaml:"dir"`
	ExcelFilename  string `yaml:"excel_filename"`
	ClearBeforeRun bool   `yaml:"clear_before_run"`
}

type BrowserConfig struct {
	SiteURL         string `yaml:"site_url"`
	ChromePath      string `yaml:"chrome_path"`
	Headless        bool   `yaml:"headless"`
	Stealth         bool   `yaml:"stealth"`
	PageTimeoutS    int    `yaml:"page_timeout_s"`
	ElementTimeoutS int    `yaml:"element_timeout_s"`
	WaitStableMS    int    `yaml:"wait_stable_ms"`
	SlowMotionMS    int    `yaml:"slow_motion_ms"`
}

type BackoffConfig struct {
	MinMS     int `yaml:"min_ms"`
	MaxMS     int `yaml:"max_ms"`
	JitterPct int `yaml:"jitter_pct"`
}

type HttpConfig struct {
	UserAgent        string `yaml:"user_agent"`
	ConnectTimeoutMS int    `yaml:"connect_timeout_ms"`
	TotalTimeoutMS   int    `yaml:"total_timeout_ms"`
	MaxRetries       int    `yaml:"max_retries"`
	MaxImageBytes    int64  `yaml:"max_image_bytes"`
	RespectRobots    bool   `yaml:"respect_robots"`
}

type RateLimitConfig struct {
	MaxConcurrentPerHost int `yaml:"max_concurrent_per_host"`
	RPM                  int `yaml:"rpm"`
}

type NormalizeConfig struct {
	TrimNBSP        bool `yaml:"trim_nbsp"`
	CollapseSpaces  bool `yaml:"collapse_spaces"`
	MaxPreviewChars int  `yaml:"max_preview_chars"`
}

type StorageConfig struct {
	Enabled          bool   `yaml:"enabled"`
	Driver           string `yaml:"driver"`
	DSN              string `yaml:"dsn"`
	CommandTimeoutMS int    `yaml:"command_timeout_ms"`
}

type UploadConfig struct {
	Enabled      bool   `yaml:"enabled"`
	Bucket       string `yaml:"bucket"`
	Prefix       string `yaml:"prefix"`
	Region       string `yaml:"region"`
	Profile      string `yaml:"profile"`
	UsePathStyle bool   `yaml:"use_path_style"`
}

type SchedulerConfig struct {
	Mode      string `yaml:"mode"`
	IntervalS int    `yaml:"interval_s"`
	CronExpr  string `yaml:"cron_expr"`
}

type ObservabilityConfig struct {
	LogPath       string `yaml:"log_path"`
	LogLevel      string `yaml:"log_level"`
	LogMaxSizeMB  int    `yaml:"log_max_size_mb"`
	LogMaxBackups int    `yaml:"log_max_backups"`
}

// Default returns the configuration used when a key is absent from the file.
func Default() *Config {
	return &Config{
		Search: SearchConfig{
			Phrase:     "Dollar",
			Categories: "Books,Technology,Travel",
			MonthsBack: 2,
			MaxRecords: 25,
		},
		Crawl: CrawlConfig{DateParsePolicy: "abort"},
		Output: OutputConfig{
			Dir:            "downloads",
			ExcelFilename:  "news.xlsx",
			ClearBeforeRun: true,
		},
		Browser: BrowserConfig{
			SiteURL:         "https://www.nytimes.com/",
			Headless:        true,
			PageTimeoutS:    60,
			ElementTimeoutS: 15,
			WaitStableMS:    500,
		},
		Backoff:             BackoffConfig{MinMS: 250, MaxMS: 4000, JitterPct: 20},
		RobotsCacheTTLHours: 12,
		HTTP: HttpConfig{
			UserAgent:        "rpa-news-robot/1.0",
			ConnectTimeoutMS: 5000,
			TotalTimeoutMS:   30000,
			MaxRetries:       2,
			MaxImageBytes:    1000000,
		},
		RateLimit:     RateLimitConfig{MaxConcurrentPerHost: 2, RPM: 120},
		SelectorsFile: "",
		Normalize:     NormalizeConfig{TrimNBSP: true, CollapseSpaces: true, MaxPreviewChars: 400},
		Storage:       StorageConfig{Driver: "mssql", CommandTimeoutMS: 5000},
		Scheduler:     SchedulerConfig{Mode: "oneshot"},
		Observability: ObservabilityConfig{
			LogPath:       "robot.log",
			LogLevel:      "info",
			LogMaxSizeMB:  1,
			LogMaxBackups: 2,
		},
	}
}

// Validation
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Search.Phrase) == "" {
		return fmt.Errorf("search.phrase is required")
	}
	if c.Search.MonthsBack < 0 {
		return fmt.Errorf("search.months_back must be >= 0")
	}
	if c.Search.MaxRecords <= 0 {
		return fmt.Errorf("search.max_records must be > 0")
	}
	if c.Crawl.DateParsePolicy != "abort" && c.Crawl.DateParsePolicy != "skip" {
		return fmt.Errorf("crawl.date_parse_policy must be 'abort' or 'skip'")
	}
	if c.Output.Dir == "" {
		return fmt.Errorf("output.dir is required")
	}
	if c.Output.ExcelFilename == "" {
		return fmt.Errorf("output.excel_filename is required")
	}
	if c.Browser.SiteURL == "" {
		return fmt.Errorf("browser.site_url is required")
	}
	if c.Browser.PageTimeoutS <= 0 {
		return fmt.Errorf("browser.page_timeout_s must be > 0")
	}
	if c.Browser.ElementTimeoutS <= 0 {
		return fmt.Errorf("browser.element_timeout_s must be > 0")
	}
	if c.HTTP.UserAgent == "" {
		return fmt.Errorf("http.user_agent is required")
	}
	if c.HTTP.ConnectTimeoutMS <= 0 {
		return fmt.Errorf("http.connect_timeout_ms must be > 0")
	}
	if c.HTTP.TotalTimeoutMS <= 0 {
		return fmt.Errorf("http.total_timeout_ms must be > 0")
	}
	if c.HTTP.MaxRetries < 0 {
		return fmt.Errorf("http.max_retries must be >= 0")
	}
	if c.HTTP.MaxImageBytes < 0 {
		return fmt.Errorf("http.max_image_bytes must be >= 0")
	}
	if c.RateLimit.MaxConcurrentPerHost <= 0 {
		return fmt.Errorf("rate_limit.max_concurrent_per_host must be > 0")
	}
	if c.RateLimit.RPM <= 0 {
		return fmt.Errorf("rate_limit.rpm must be > 0")
	}
	if c.RobotsCacheTTLHours <= 0 {
		return fmt.Errorf("robots_cache_ttl_hours must be > 0")
	}
	if c.Backoff.MinMS <= 0 {
		return fmt.Errorf("backoff.min_ms must be > 0")
	}
	if c.Backoff.MaxMS <= 0 {
		return fmt.Errorf("backoff.max_ms must be > 0")
	}
	if c.Backoff.MinMS > c.Backoff.MaxMS {
		return fmt.Errorf("backoff.min_ms must be <= backoff.max_ms")
	}
	if c.Backoff.JitterPct < 0 || c.Backoff.JitterPct > 100 {
		return fmt.Errorf("backoff.jitter_pct must be between 0 and 100")
	}
	if c.Storage.Enabled {
		if c.Storage.Driver != "mssql" {
			return fmt.Errorf("storage.driver must be 'mssql'")
		}
		if c.Storage.DSN == "" {
			return fmt.Errorf("storage.dsn is required when storage.enabled is true")
		}
		if c.Storage.CommandTimeoutMS <= 0 {
			return fmt.Errorf("storage.command_timeout_ms must be > 0")
		}
	}
	if c.Upload.Enabled && c.Upload.Bucket == "" {
		return fmt.Errorf("upload.bucket is required when upload.enabled is true")
	}
	if c.Scheduler.Mode != "interval" && c.Scheduler.Mode != "cron" && c.Scheduler.Mode != "oneshot" {
		return fmt.Errorf("scheduler.mode must be 'interval', 'cron' or 'oneshot'")
	}
	if c.Scheduler.Mode == "interval" && c.Scheduler.IntervalS <= 0 {
		return fmt.Errorf("scheduler.interval_s must be > 0 when mode is 'interval'")
	}
	if c.Scheduler.Mode == "cron" && c.Scheduler.CronExpr == "" {
		return fmt.Errorf("scheduler.cron_expr must be set when mode is 'cron'")
	}
	if c.Observability.LogLevel == "" {
		return fmt.Errorf("observability.log_level is required")
	}
	return nil
}

// Getters
func (c *Config) GetConnectTimeout() time.Duration {
	return time.Duration(c.HTTP.ConnectTimeoutMS) * time.Millisecond
}

func (c *Config) GetTotalTimeout() time.Duration {
	return time.Duration(c.HTTP.TotalTimeoutMS) * time.Millisecond
}

func (c *Config) GetBackoffMin() time.Duration {
	return time.Duration(c.Backoff.MinMS) * time.Millisecond
}

func (c *Config) GetBackoffMax() time.Duration {
	return time.Duration(c.Backoff.MaxMS) * time.Millisecond
}

func (c *Config) GetCommandTimeout() time.Duration {
	return time.Duration(c.Storage.CommandTimeoutMS) * time.Millisecond
}

func (c *Config) GetSchedulerInterval() time.Duration {
	return time.Duration(c.Scheduler.IntervalS) * time.Second
}

func (c *Config) GetRobotsCacheTTL() time.Duration {
	return time.Duration(c.RobotsCacheTTLHours) * time.Hour
}

func (c *Config) GetBrowserPageTimeout() time.Duration {
	return time.Duration(c.Browser.PageTimeoutS) * time.Second
}

func (c *Config) GetBrowserElementTimeout() time.Duration {
	return time.Duration(c.Browser.ElementTimeoutS) * time.Second
}

func (c *Config) GetBrowserWaitStable() time.Duration {
	return time.Duration(c.Browser.WaitStableMS) * time.Millisecond
}

func (c *Config) GetBrowserSlowMotion() time.Duration {
	return time.Duration(c.Browser.SlowMotionMS) * time.Millisecond
}

// ExcelPath is where the report table is written.
func (c *Config) ExcelPath() string {
	if filepath.IsAbs(c.Output.ExcelFilename) {
		return c.Output.ExcelFilename
	}
	return filepath.Join(c.Output.Dir, c.Output.ExcelFilename)
}
