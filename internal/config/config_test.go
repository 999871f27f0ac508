package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
)

func TestBuildDefaults(t *testing.T) {
	cfg := build(viper.New())

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "http", cfg.Upstream.Mode)
	assert.Equal(t, 500, cfg.Upstream.PageSize)
	assert.Equal(t, 3, cfg.Upstream.MaxRetries)
	assert.Equal(t, 30*time.Second, cfg.Upstream.Timeout())
	assert.Equal(t, time.Second, cfg.Upstream.RetryBackoff())
	assert.False(t, cfg.Cache.Enabled)
	assert.Equal(t, 10, cfg.Report.ParetoLimit)
	assert.Contains(t, cfg.Report.InternalCustomerKeywords, "EMPLOYEE")
}

func TestBuildReadsEnvironment(t *testing.T) {
	t.Setenv("UPSTREAM_BASE_URL", "https://cms.example.com/")
	t.Setenv("UPSTREAM_PAGE_SIZE", "-5")
	t.Setenv("UPSTREAM_MODE", " Postgres ")
	t.Setenv("REPORT_INTERNAL_CUSTOMER_KEYWORDS", "walk in, staff")

	cfg := build(viper.New())

	assert.Equal(t, "https://cms.example.com", cfg.Upstream.BaseURL)
	assert.Equal(t, 500, cfg.Upstream.PageSize, "non-positive page size falls back to default")
	assert.Equal(t, "postgres", cfg.Upstream.Mode)
	assert.Equal(t, []string{"walk in", "staff"}, cfg.Report.InternalCustomerKeywords)
}
