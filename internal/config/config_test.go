package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() Config {
	var cfg Config
	cfg.App.Port = 8787
	cfg.Store.Backend = "sqlite"
	cfg.Cache.TTLSeconds = 300
	cfg.Aggregation.Concurrency = 4
	cfg.Companies = []CompanyEntry{
		{Name: "Acme Robotics", CareersURL: "https://boards.greenhouse.io/acmerobotics", Country: "DK"},
	}
	return cfg
}

func TestLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, SaveAtomic(path, validConfig()))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 8787, cfg.App.Port)
	require.Len(t, cfg.Companies, 1)
	assert.Equal(t, "Acme Robotics", cfg.Companies[0].Name)
	assert.Equal(t, 5*time.Minute, cfg.CacheTTL())
}

func TestNormalizeAndValidate(t *testing.T) {
	cfg := validConfig()
	cfg.Store.Backend = ""
	cfg.Companies = append(cfg.Companies, CompanyEntry{
		Name:       "  Globex  ",
		CareersURL: "https://globex.emply.com/careers",
		Country:    "se",
		Platform:   "Emply",
	})

	out, res := NormalizeAndValidate(cfg)
	require.True(t, res.OK(), "errors: %v", res.Errors)
	assert.Equal(t, "sqlite", out.Store.Backend)
	assert.Equal(t, "Globex", out.Companies[1].Name)
	assert.Equal(t, "SE", out.Companies[1].Country)
	assert.Equal(t, "emply", out.Companies[1].Platform)
}

func TestValidateCatchesBadEntries(t *testing.T) {
	cfg := validConfig()
	cfg.App.Port = 0
	cfg.Store.Backend = "postgres"
	cfg.Companies = []CompanyEntry{
		{Name: "", CareersURL: "https://a.example"},
		{Name: "NoURL"},
		{Name: "BadURL", CareersURL: "not-a-url"},
		{Name: "BadCountry", CareersURL: "https://b.example", Country: "Denmark"},
		{Name: "BadPlatform", CareersURL: "https://c.example", Platform: "taleo"},
	}

	_, res := NormalizeAndValidate(cfg)
	assert.False(t, res.OK())
	assert.Len(t, res.Errors, 7)
}

func TestValidateWarnsOnDuplicateCompanies(t *testing.T) {
	cfg := validConfig()
	cfg.Companies = append(cfg.Companies, CompanyEntry{
		Name:       "acme robotics",
		CareersURL: "https://boards.greenhouse.io/acmerobotics",
	})

	_, res := NormalizeAndValidate(cfg)
	assert.True(t, res.OK())
	require.Len(t, res.Warnings, 1)
	assert.Contains(t, res.Warnings[0], "collides")
}

func TestSaveAtomicRejectsInvalid(t *testing.T) {
	cfg := validConfig()
	cfg.App.Port = -1
	err := SaveAtomic(filepath.Join(t.TempDir(), "config.yml"), cfg)
	assert.Error(t, err)
}

func TestSaveAtomicKeepsBackup(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, SaveAtomic(path, validConfig()))

	cfg2 := validConfig()
	cfg2.App.Port = 9900
	require.NoError(t, SaveAtomic(path, cfg2))

	_, err := os.Stat(path + ".bak")
	assert.NoError(t, err)

	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 9900, got.App.Port)
}

func TestEnsureUserConfig(t *testing.T) {
	dataDir := t.TempDir()
	def := filepath.Join(t.TempDir(), "default.yml")
	require.NoError(t, SaveAtomic(def, validConfig()))

	userPath, err := EnsureUserConfig(dataDir, def)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dataDir, "config.yml"), userPath)

	// second call must not clobber user edits
	cfg := validConfig()
	cfg.App.Port = 9999
	require.NoError(t, SaveAtomic(userPath, cfg))

	again, err := EnsureUserConfig(dataDir, def)
	require.NoError(t, err)
	got, err := Load(again)
	require.NoError(t, err)
	assert.Equal(t, 9999, got.App.Port)
}

func TestDomainCompanies(t *testing.T) {
	cfg := validConfig()
	cos := cfg.DomainCompanies()
	require.Len(t, cos, 1)
	assert.Equal(t, "acme-robotics", cos[0].ID)
	assert.Equal(t, "DK", cos[0].Country)
}
