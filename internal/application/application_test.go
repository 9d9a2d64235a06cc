package application

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/psds-microservice/complaint-service/internal/config"
)

func TestProfileCacheSize_RequiresScopeBus(t *testing.T) {
	cfg := &config.Config{ProfileCacheSize: 1024}

	assert.Equal(t, 0, profileCacheSize(cfg, false))
	assert.Equal(t, 1024, profileCacheSize(cfg, true))
}
