package main

import (
	"bytes"
	"context"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/concierge/internal/common"
	"github.com/Veraticus/concierge/internal/compliance"
	"github.com/Veraticus/concierge/internal/config"
	"github.com/Veraticus/concierge/internal/model"
	"github.com/Veraticus/concierge/internal/storage"
	"github.com/Veraticus/concierge/internal/testutil"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		Database: config.DatabaseConfig{
			Driver: config.DriverSQLite,
			Path:   filepath.Join(t.TempDir(), "concierge.db"),
		},
		Discovery: config.DiscoveryConfig{MemoryCacheSize: 16},
	}
}

func TestValidateFormat(t *testing.T) {
	tests := []struct {
		format  string
		wantErr bool
	}{
		{"text", false},
		{"json", false},
		{"yaml", true},
		{"", true},
	}

	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			err := validateFormat(tt.format)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestOpenStorage_MigratesSQLite(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t)

	store, err := openStorage(ctx, cfg.Database)
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	counter, ok := store.(rowCounter)
	require.True(t, ok)

	var buf bytes.Buffer
	require.NoError(t, printTableStatus(ctx, &buf, counter))
	for _, table := range storage.Tables {
		assert.Contains(t, buf.String(), table)
	}
}

func TestBuildApp_WithoutCredentials(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t)
	logger := slog.New(slog.DiscardHandler)

	a, err := buildApp(ctx, cfg, logger)
	require.NoError(t, err)
	defer a.Close()

	assert.Nil(t, a.gateway)

	_, err = a.discovery.Discover(ctx, model.DiscoveryRequest{Requirements: "private jet charter"})
	assert.ErrorIs(t, err, common.ErrAIUnavailable)

	partner := testutil.CleanPartner
	require.NoError(t, a.store.SaveEntity(ctx, &partner))

	result, err := a.compliance.Check(ctx, compliance.CheckRequest{
		EntityType: partner.Type,
		EntityID:   partner.ID,
		Trigger:    "manual",
	})
	require.NoError(t, err)
	assert.Equal(t, model.StatusApproved, result.Status)
	assert.Equal(t, 0, result.RiskScore)
}
