package config

type Config struct {
	ConfigVersion int             `yaml:"configVersion"`
	Server        ServerConfig    `yaml:"server"`
	Normalize     NormalizeConfig `yaml:"normalize"`
	Sets          []SetConfig     `yaml:"sets"`
	Logging       LoggingConfig   `yaml:"logging"`
	Metrics       MetricsConfig   `yaml:"metrics"`

	path    string `yaml:"-"`
	baseDir string `yaml:"-"`
}

type ServerConfig struct {
	Listen       string          `yaml:"listen"`
	MaxBodyBytes int64           `yaml:"maxBodyBytes"`
	RateLimit    RateLimitConfig `yaml:"rateLimit"`
}

type RateLimitConfig struct {
	Enabled bool    `yaml:"enabled"`
	RPS     float64 `yaml:"rps"`
	Burst   int     `yaml:"burst"`
}

type NormalizeConfig struct {
	MaxDecodeDepth int  `yaml:"maxDecodeDepth"`
	Lowercase      bool `yaml:"lowercase"`
	HTMLEntity     bool `yaml:"htmlEntity"`
}

// SetConfig describes one named group of phrases matched with one strategy.
type SetConfig struct {
	Name        string   `yaml:"name"`
	Strategy    string   `yaml:"strategy"`
	Output      string   `yaml:"output"`
	Tags        []string `yaml:"tags"`
	PhrasesFile string   `yaml:"phrasesFile"`
	Phrases     []string `yaml:"phrases"`
}

type LoggingConfig struct {
	Level    string `yaml:"level"`
	Format   string `yaml:"format"`
	MatchLog string `yaml:"matchLog"`
}

type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Listen  string `yaml:"listen"`
}

const (
	StrategyAho = "aho"
	StrategyKMP = "kmp"
)

const (
	OutputRaw      = "raw"
	OutputResolved = "resolved"
	OutputChunks   = "chunks"
)

const DefaultMaxBodyBytes = 1 << 20

// Path is the file the config was loaded from, if any.
func (c *Config) Path() string {
	return c.path
}

func (c *Config) ResolvePath(path string) string {
	return c.resolvePath(path)
}

// Files lists the config file and every phrase file it references.
func (c *Config) Files() []string {
	var files []string
	if c.path != "" {
		files = append(files, c.path)
	}
	for _, set := range c.Sets {
		if set.PhrasesFile != "" {
			files = append(files, c.resolvePath(set.PhrasesFile))
		}
	}
	return files
}
