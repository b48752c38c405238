package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"jobfeed-engine/internal/domain"
)

// CompanyEntry is one tracked company. Platform and status are normally
// inferred at runtime; the yaml fields pin them when inference is wrong
// or a portal needs to be forced off.
type CompanyEntry struct {
	Name       string `yaml:"name"`
	CareersURL string `yaml:"careers_url"`
	Country    string `yaml:"country,omitempty"`
	Platform   string `yaml:"platform,omitempty"`
	Status     string `yaml:"status,omitempty"`
	Note       string `yaml:"note,omitempty"`
}

type Config struct {
	App struct {
		Port    int    `yaml:"port"`
		DataDir string `yaml:"data_dir"`
	} `yaml:"app"`

	Store struct {
		// Backend is "sqlite" or "memory".
		Backend string `yaml:"backend"`
	} `yaml:"store"`

	Cache struct {
		TTLSeconds int `yaml:"ttl_seconds"`
	} `yaml:"cache"`

	Aggregation struct {
		Concurrency           int     `yaml:"concurrency"`
		PerCompanySeconds     int     `yaml:"per_company_seconds"`
		BatchSeconds          int     `yaml:"batch_seconds"`
		RequestsPerHostPerSec float64 `yaml:"requests_per_host_per_sec"`
		ScheduleMinutes       int     `yaml:"schedule_minutes"`
	} `yaml:"aggregation"`

	Actor struct {
		BaseURL        string `yaml:"base_url"`
		ActorID        string `yaml:"actor_id"`
		PollSeconds    int    `yaml:"poll_seconds"`
		TimeoutSeconds int    `yaml:"timeout_seconds"`
		MaxItems       int    `yaml:"max_items"`
		TokenAccount   string `yaml:"token_account"`
	} `yaml:"actor"`

	Companies []CompanyEntry `yaml:"companies"`
}

func Load(path string) (Config, error) {
	var cfg Config
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	err = yaml.Unmarshal(b, &cfg)
	return cfg, err
}

func (c Config) CacheTTL() time.Duration {
	if c.Cache.TTLSeconds <= 0 {
		return 5 * time.Minute
	}
	return time.Duration(c.Cache.TTLSeconds) * time.Second
}

// DomainCompanies maps the yaml entries to runtime companies.
func (c Config) DomainCompanies() []domain.Company {
	out := make([]domain.Company, 0, len(c.Companies))
	for _, e := range c.Companies {
		out = append(out, domain.Company{
			ID:         domain.CompanyID(e.Name),
			Name:       e.Name,
			CareersURL: e.CareersURL,
			Country:    e.Country,
		})
	}
	return out
}
