// Package config loads run settings from flags, an optional YAML or JSON
// file and built-in defaults, in that order of precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/FranksOps/serprank/internal/fingerprint"
	"github.com/FranksOps/serprank/internal/serp"
	"github.com/FranksOps/serprank/pkg/delay"
)

// Missing required inputs. Callers log these and stop without output.
var (
	ErrMissingDomain   = errors.New("config: no target domain given (use --domain or the domain key)")
	ErrMissingKeywords = errors.New("config: no keywords given (use --keywords or the keywords/keywords_list keys)")
)

// Keys, as used in config files.
const (
	KeyDomain       = "domain"
	KeyKeywords     = "keywords"
	KeyKeywordsList = "keywords_list"
	KeyRegion       = "region"
	KeySearchEngine = "search_engine"
	KeyPages        = "pages"
	KeyDelayMin     = "delay_min"
	KeyDelayMax     = "delay_max"
	KeyOutput       = "output"
	KeyUseBrowser   = "use_browser"
	KeyLanguage     = "language"
	KeyVisitMatches = "visit_matches"
	KeyTLSProfile   = "tls_profile"
	KeyTimeout      = "timeout"
	KeyLogFile      = "log_file"
	KeyLogLevel     = "log_level"
	KeyHistory      = "history"
	KeySummaryJSON  = "summary_json"
	KeyMetricsPort  = "metrics_port"
)

// DefaultFile is read when --config is not given.
const DefaultFile = "config.yaml"

// Config is the immutable setting set for one run.
type Config struct {
	Domain       string
	Keywords     []string
	Region       string
	SearchEngine string
	Pages        int
	// DelayMin and DelayMax are in seconds.
	DelayMin     float64
	DelayMax     float64
	Output       string
	UseBrowser   bool
	Language     string
	VisitMatches bool
	TLSProfile   string
	Timeout      time.Duration
	LogFile      string
	LogLevel     string
	History      string
	SummaryJSON  string
	MetricsPort  int

	// File is the config file that was read, or "" when none was.
	File string
	// FileMissing reports that the requested config file does not exist.
	FileMissing bool
}

// DelayBounds returns DelayMin and DelayMax as durations.
func (c Config) DelayBounds() (time.Duration, time.Duration) {
	return delay.Seconds(c.DelayMin), delay.Seconds(c.DelayMax)
}

// flagNames maps config keys to their command-line flags.
var flagNames = map[string]string{
	KeyDomain:       "domain",
	KeyKeywords:     "keywords",
	KeyRegion:       "region",
	KeySearchEngine: "search-engine",
	KeyPages:        "pages",
	KeyDelayMin:     "delay-min",
	KeyDelayMax:     "delay-max",
	KeyOutput:       "output",
	KeyUseBrowser:   "use-browser",
	KeyLanguage:     "language",
	KeyVisitMatches: "visit-matches",
	KeyTLSProfile:   "tls-profile",
	KeyTimeout:      "timeout",
	KeyLogFile:      "log-file",
	KeyLogLevel:     "log-level",
	KeyHistory:      "history",
	KeySummaryJSON:  "summary-json",
	KeyMetricsPort:  "metrics-port",
}

// RegisterFlags defines the run flags on fs.
func RegisterFlags(fs *pflag.FlagSet) {
	fs.StringP("domain", "d", "", "target domain to look for, e.g. example.com")
	fs.StringP("keywords", "k", "", "comma-separated keywords")
	fs.StringP("region", "r", "com", "Google domain suffix, e.g. com, com.hk, co.jp")
	fs.StringP("search-engine", "s", serp.Google, "search engine: "+strings.Join(serp.Names(), ", "))
	fs.IntP("pages", "p", 3, "result pages to check per keyword")
	fs.Float64("delay-min", 2.0, "minimum delay between pages, seconds")
	fs.Float64("delay-max", 5.0, "maximum delay between pages, seconds")
	fs.StringP("output", "o", "seo_analysis_results.xlsx", "spreadsheet output path")
	fs.Bool("use-browser", false, "fetch result pages with headless Chrome")
	fs.String("language", "en", "interface language (hl parameter)")
	fs.Bool("visit-matches", false, "open the matched result in the browser after it is found")
	fs.String("tls-profile", string(fingerprint.ProfileChrome), "TLS fingerprint for direct requests: "+strings.Join(fingerprint.Profiles(), ", "))
	fs.Duration("timeout", 10*time.Second, "timeout per direct request")
	fs.String("log-file", "seo_research.log", "log file path, empty to log to stdout only")
	fs.String("log-level", "info", "log level: debug, info, warn, error")
	fs.String("history", "", "rank history store: sqlite://path, postgres://..., json://path")
	fs.String("summary-json", "", "write the run summary as JSON to this path")
	fs.Int("metrics-port", 0, "serve Prometheus metrics on this port, 0 to disable")
}

// BindFlags binds the flags defined by RegisterFlags to their config keys,
// so a flag set on the command line overrides the file.
func BindFlags(v *viper.Viper, fs *pflag.FlagSet) error {
	for key, name := range flagNames {
		f := fs.Lookup(name)
		if f == nil {
			return fmt.Errorf("config: flag --%s is not registered", name)
		}
		if err := v.BindPFlag(key, f); err != nil {
			return fmt.Errorf("config: bind --%s: %w", name, err)
		}
	}
	return nil
}

// SetDefaults installs the built-in defaults on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault(KeyRegion, "com")
	v.SetDefault(KeySearchEngine, serp.Google)
	v.SetDefault(KeyPages, 3)
	v.SetDefault(KeyDelayMin, 2.0)
	v.SetDefault(KeyDelayMax, 5.0)
	v.SetDefault(KeyOutput, "seo_analysis_results.xlsx")
	v.SetDefault(KeyLanguage, "en")
	v.SetDefault(KeyTLSProfile, string(fingerprint.ProfileChrome))
	v.SetDefault(KeyTimeout, 10*time.Second)
	v.SetDefault(KeyLogFile, "seo_research.log")
	v.SetDefault(KeyLogLevel, "info")
}

// Load reads path into v, if it exists, and decodes the merged settings.
// A missing file is not an error; it is reported through FileMissing.
func Load(v *viper.Viper, path string) (Config, error) {
	SetDefaults(v)

	var cfg Config
	if path != "" {
		v.SetConfigFile(path)
		err := v.ReadInConfig()
		var notFound viper.ConfigFileNotFoundError
		switch {
		case err == nil:
			cfg.File = v.ConfigFileUsed()
		case errors.Is(err, fs.ErrNotExist), errors.As(err, &notFound):
			cfg.FileMissing = true
		default:
			return Config{}, fmt.Errorf("config: read %s: %w", path, err)
		}
	}

	cfg.Domain = strings.TrimSpace(v.GetString(KeyDomain))
	cfg.Keywords = keywords(v)
	cfg.Region = strings.TrimSpace(v.GetString(KeyRegion))
	cfg.SearchEngine = strings.ToLower(strings.TrimSpace(v.GetString(KeySearchEngine)))
	cfg.Pages = v.GetInt(KeyPages)
	cfg.DelayMin = v.GetFloat64(KeyDelayMin)
	cfg.DelayMax = v.GetFloat64(KeyDelayMax)
	cfg.Output = v.GetString(KeyOutput)
	cfg.UseBrowser = v.GetBool(KeyUseBrowser)
	cfg.Language = v.GetString(KeyLanguage)
	cfg.VisitMatches = v.GetBool(KeyVisitMatches)
	cfg.TLSProfile = v.GetString(KeyTLSProfile)
	cfg.Timeout = v.GetDuration(KeyTimeout)
	cfg.LogFile = v.GetString(KeyLogFile)
	cfg.LogLevel = v.GetString(KeyLogLevel)
	cfg.History = v.GetString(KeyHistory)
	cfg.SummaryJSON = v.GetString(KeySummaryJSON)
	cfg.MetricsPort = v.GetInt(KeyMetricsPort)
	return cfg, nil
}

// keywords accepts "a, b" or a list under keywords, then falls back to the
// keywords_list key. Blank entries are dropped.
func keywords(v *viper.Viper) []string {
	out := splitKeywords(v.Get(KeyKeywords))
	if len(out) == 0 {
		out = splitKeywords(v.Get(KeyKeywordsList))
	}
	return out
}

func splitKeywords(raw any) []string {
	var parts []string
	switch val := raw.(type) {
	case string:
		parts = strings.Split(val, ",")
	case []string:
		parts = val
	case []any:
		for _, p := range val {
			parts = append(parts, fmt.Sprint(p))
		}
	}

	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Validate checks the settings once at startup. Missing inputs return
// ErrMissingDomain or ErrMissingKeywords.
func (c Config) Validate() error {
	if c.Domain == "" {
		return ErrMissingDomain
	}
	if len(c.Keywords) == 0 {
		return ErrMissingKeywords
	}
	if _, err := serp.New(c.SearchEngine, serp.Options{}); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if c.Pages < 1 {
		return fmt.Errorf("config: pages must be at least 1, got %d", c.Pages)
	}
	if c.DelayMin < 0 || c.DelayMax < 0 {
		return fmt.Errorf("config: delays must not be negative (min %.2f, max %.2f)", c.DelayMin, c.DelayMax)
	}
	if c.DelayMin > c.DelayMax {
		return fmt.Errorf("config: delay_min %.2f exceeds delay_max %.2f", c.DelayMin, c.DelayMax)
	}
	if _, err := fingerprint.ParseProfile(c.TLSProfile); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("config: timeout must be positive, got %s", c.Timeout)
	}
	if c.MetricsPort < 0 || c.MetricsPort > 65535 {
		return fmt.Errorf("config: metrics_port %d out of range", c.MetricsPort)
	}
	return nil
}
