package tagfilter

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the top-level tagfilter configuration.
type Config struct {
	Trigger    TriggerConfig `yaml:"trigger"`
	Poll       PollConfig    `yaml:"poll"`
	Layout     LayoutConfig  `yaml:"layout"`
	AlertColor string        `yaml:"alert_color"` // used when a highlighted tag has no inline color
	Sanitize   bool          `yaml:"sanitize"`    // run upstream markup through bluemonday before use
	Fetch      FetchConfig   `yaml:"fetch"`
	Browser    BrowserConfig `yaml:"browser"`
	Server     ServerConfig  `yaml:"server"`
}

// TriggerConfig lists the pages the filter activates on.
type TriggerConfig struct {
	Host   string        `yaml:"host"`
	Routes []RouteConfig `yaml:"routes"`
}

// RouteConfig matches a path and a prefix of its "mode" query parameter.
type RouteConfig struct {
	Path string `yaml:"path"`
	Mode string `yaml:"mode"`
}

// PollConfig controls how Bootstrap waits for rows.
type PollConfig struct {
	Interval    time.Duration `yaml:"interval"`
	MaxAttempts int           `yaml:"max_attempts"` // 0 = unbounded
}

// LayoutConfig holds the selectors of both page layouts.
type LayoutConfig struct {
	// MobileStylesheet is a substring of a <link href> whose presence
	// selects the compact layout.
	MobileStylesheet string                `yaml:"mobile_stylesheet"`
	Standard         StandardLayoutConfig `yaml:"standard"`
	Compact          CompactLayoutConfig  `yaml:"compact"`
}

// StandardLayoutConfig describes the desktop markup: one anchor per tag.
type StandardLayoutConfig struct {
	RowSelector       string `yaml:"row_selector"`
	ContainerSelector string `yaml:"container_selector"`
	TagSelector       string `yaml:"tag_selector"`
	AlertClass        string `yaml:"alert_class"`
}

// CompactLayoutConfig describes the mobile markup: a labelled paragraph of
// space separated tags.
type CompactLayoutConfig struct {
	RowSelector       string   `yaml:"row_selector"`
	ParagraphSelector string   `yaml:"paragraph_selector"`
	Labels            []string `yaml:"labels"`
	AlertClass        string   `yaml:"alert_class"`
}

// FetchConfig controls the HTTP source.
type FetchConfig struct {
	UserAgent string        `yaml:"user_agent"`
	Timeout   time.Duration `yaml:"timeout"`
	MaxBytes  int64         `yaml:"max_bytes"`
}

// BrowserConfig controls the headless Chrome source.
type BrowserConfig struct {
	Enabled          bool          `yaml:"enabled"`
	Remote           string        `yaml:"remote"` // websocket URL of an external Chrome
	Stealth          bool          `yaml:"stealth"`
	ResourceBlocking []string      `yaml:"resource_blocking"`
	NavigateTimeout  time.Duration `yaml:"navigate_timeout"`
}

// ServerConfig controls the tagview session server.
type ServerConfig struct {
	Addr             string        `yaml:"addr"`
	SessionTTL       time.Duration `yaml:"session_ttl"`
	BootstrapTimeout time.Duration `yaml:"bootstrap_timeout"`
	MaxSessions      int           `yaml:"max_sessions"`
}

// DefaultConfig returns the Hameln configuration.
func DefaultConfig() *Config {
	c := &Config{}
	c.defaults()
	return c
}

func (c *Config) defaults() {
	if c.Trigger.Host == "" {
		c.Trigger.Host = "syosetu.org"
	}
	if len(c.Trigger.Routes) == 0 {
		c.Trigger.Routes = []RouteConfig{
			{Path: "/", Mode: "rank"},
			{Path: "/search/", Mode: "search"},
		}
	}
	if c.Poll.Interval <= 0 {
		c.Poll.Interval = 500 * time.Millisecond
	}
	if c.Layout.MobileStylesheet == "" {
		c.Layout.MobileStylesheet = "mobile"
	}
	std := &c.Layout.Standard
	if std.RowSelector == "" {
		std.RowSelector = ".section3"
	}
	if std.ContainerSelector == "" {
		std.ContainerSelector = ".all_keyword"
	}
	if std.TagSelector == "" {
		std.TagSelector = "a"
	}
	if std.AlertClass == "" {
		std.AlertClass = "alert_color"
	}
	cmp := &c.Layout.Compact
	if cmp.RowSelector == "" {
		cmp.RowSelector = ".search_box"
	}
	if cmp.ParagraphSelector == "" {
		cmp.ParagraphSelector = "p"
	}
	if len(cmp.Labels) == 0 {
		cmp.Labels = []string{"タグ：", "キーワード："}
	}
	if cmp.AlertClass == "" {
		cmp.AlertClass = "alert_color"
	}
	if c.AlertColor == "" {
		c.AlertColor = "#ff0000"
	}
	if c.Fetch.UserAgent == "" {
		c.Fetch.UserAgent = "Mozilla/5.0 (compatible; tagfilter/1.0)"
	}
	if c.Fetch.Timeout <= 0 {
		c.Fetch.Timeout = 30 * time.Second
	}
	if c.Fetch.MaxBytes <= 0 {
		c.Fetch.MaxBytes = 10 << 20
	}
	if c.Browser.NavigateTimeout <= 0 {
		c.Browser.NavigateTimeout = 30 * time.Second
	}
	if c.Server.Addr == "" {
		c.Server.Addr = ":8088"
	}
	if c.Server.SessionTTL <= 0 {
		c.Server.SessionTTL = 30 * time.Minute
	}
	if c.Server.BootstrapTimeout <= 0 {
		c.Server.BootstrapTimeout = 20 * time.Second
	}
	if c.Server.MaxSessions <= 0 {
		c.Server.MaxSessions = 256
	}
}

// LoadConfigFile reads a YAML configuration file. Missing fields take the
// DefaultConfig values.
func LoadConfigFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	cfg.defaults()
	return &cfg, nil
}
