package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/courier-gateway/app/models"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "gateway.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestUseDefaults(t *testing.T) {
	UseDefaults()

	assert.Equal(t, "https://app.bosta.co", C.Endpoints.BostaURL)
	assert.Equal(t, 24*time.Hour, C.Cache.ResolutionTTL)
	assert.Len(t, C.Policies, 3)

	bosta := C.Policies[models.CourierBosta]
	assert.True(t, bosta.RequiresCityMatch)
	assert.Equal(t, 0.70, bosta.DistrictThreshold)
	assert.Equal(t, "Default - %s", bosta.FallbackDistrictTemplate)

	aramex := C.Policies[models.CourierAramex]
	assert.False(t, aramex.RequiresCityMatch)
	assert.Equal(t, 0.80, aramex.CityThreshold)
	assert.Equal(t, "Cairo", aramex.SpecialCaseCity)
	assert.Equal(t, 0.65, aramex.SpecialDistrictThreshold)
	assert.Equal(t, "Downtown Cairo", aramex.SpecialFallbackDistrict)

	khazenly := C.Policies[models.CourierKhazenly]
	assert.Equal(t, "Cairo", khazenly.FallbackCity)
	assert.Empty(t, khazenly.SpecialCaseCity)
}

func TestLoadOverridesEndpointsKeepsPolicyDefaults(t *testing.T) {
	path := writeConfig(t, `
endpoints:
  bosta_url: http://localhost:9001
cache:
  resolution_size: 128
`)

	require.NoError(t, Load(path))

	assert.Equal(t, "http://localhost:9001", C.Endpoints.BostaURL)
	assert.Equal(t, "https://ws.aramex.net", C.Endpoints.AramexURL)
	assert.Equal(t, 128, C.Cache.ResolutionSize)
	assert.Equal(t, 256, C.Cache.ReferenceSize)

	// Policies untouched by a partial file
	assert.Equal(t, 0.70, C.Policies[models.CourierBosta].DistrictThreshold)
}

func TestLoadReplacesWholePolicy(t *testing.T) {
	path := writeConfig(t, `
policies:
  khazenly:
    courier: khazenly
    city_threshold: 0.9
    city_cutoff: 0.4
    district_cutoff: 0.1
    fallback_city: Giza
`)

	require.NoError(t, Load(path))

	khazenly := C.Policies[models.CourierKhazenly]
	assert.Equal(t, 0.9, khazenly.CityThreshold)
	assert.Equal(t, "Giza", khazenly.FallbackCity)
}

func TestLoadRejectsInvalidPolicy(t *testing.T) {
	path := writeConfig(t, `
policies:
  bosta:
    courier: bosta
    requires_city_match: true
    district_threshold: 1.5
    city_cutoff: 0.4
    district_cutoff: 0.1
    fallback_district_template: "Default - %s"
`)

	err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bosta")
}

func TestLoadMissingFile(t *testing.T) {
	err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
