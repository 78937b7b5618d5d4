package target_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cory-johannsen/hunter/internal/game/target"
)

const chickenYAML = `
id: chicken
name: Chicken
attack_action: "Attack Chicken"
signature:
  red: 236
  green: 232
  blue: 224
  tolerance: 12
  min_cluster_px: 24
search_radius_tiles: 8
`

func TestLoadProfileFromBytes(t *testing.T) {
	p, err := target.LoadProfileFromBytes([]byte(chickenYAML))
	require.NoError(t, err)
	assert.Equal(t, "chicken", p.ID)
	assert.Equal(t, "Attack Chicken", p.AttackAction)
	assert.Equal(t, 236, p.Signature.Red)
	assert.Equal(t, 24, p.Signature.MinClusterPx)
	assert.Equal(t, 8, p.SearchRadiusTiles)
}

func TestLoadProfileFromBytes_InvalidYAML(t *testing.T) {
	_, err := target.LoadProfileFromBytes([]byte("id: [unclosed"))
	assert.Error(t, err)
}

func TestProfile_Validate(t *testing.T) {
	valid := func() target.Profile {
		return target.Profile{
			ID:           "rat",
			Name:         "Giant Rat",
			AttackAction: "Attack Giant Rat",
			Signature: target.Signature{
				Red: 120, Green: 90, Blue: 70, Tolerance: 10, MinClusterPx: 16,
			},
			SearchRadiusTiles: 6,
		}
	}

	tests := []struct {
		name   string
		mutate func(*target.Profile)
	}{
		{"empty id", func(p *target.Profile) { p.ID = "" }},
		{"empty name", func(p *target.Profile) { p.Name = "" }},
		{"empty attack action", func(p *target.Profile) { p.AttackAction = "" }},
		{"zero search radius", func(p *target.Profile) { p.SearchRadiusTiles = 0 }},
		{"channel out of range", func(p *target.Profile) { p.Signature.Red = 300 }},
		{"negative tolerance", func(p *target.Profile) { p.Signature.Tolerance = -1 }},
		{"zero cluster size", func(p *target.Profile) { p.Signature.MinClusterPx = 0 }},
	}

	p := valid()
	require.NoError(t, p.Validate())

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := valid()
			tt.mutate(&p)
			assert.Error(t, p.Validate())
		})
	}
}

func writeProfile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func TestLoadProfiles(t *testing.T) {
	dir := t.TempDir()
	writeProfile(t, dir, "chicken.yaml", chickenYAML)
	writeProfile(t, dir, "rat.yml", `
id: rat
name: Giant Rat
attack_action: "Attack Giant Rat"
signature:
  red: 120
  green: 90
  blue: 70
  tolerance: 10
  min_cluster_px: 16
search_radius_tiles: 6
`)
	writeProfile(t, dir, "notes.txt", "not a profile")

	profiles, err := target.LoadProfiles(dir)
	require.NoError(t, err)
	require.Len(t, profiles, 2, "non-YAML files are skipped")

	p, ok := target.FindProfile(profiles, "rat")
	require.True(t, ok)
	assert.Equal(t, "Giant Rat", p.Name)

	_, ok = target.FindProfile(profiles, "dragon")
	assert.False(t, ok)
}

func TestLoadProfiles_DuplicateID(t *testing.T) {
	dir := t.TempDir()
	writeProfile(t, dir, "a.yaml", chickenYAML)
	writeProfile(t, dir, "b.yaml", chickenYAML)

	_, err := target.LoadProfiles(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate target profile id")
}

func TestLoadProfiles_InvalidFileNamed(t *testing.T) {
	dir := t.TempDir()
	writeProfile(t, dir, "broken.yaml", "id: nameless")

	_, err := target.LoadProfiles(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broken.yaml")
}

func TestLoadProfiles_MissingDirectory(t *testing.T) {
	_, err := target.LoadProfiles(filepath.Join(t.TempDir(), "nope"))
	assert.Error(t, err)
}
