package routing

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

const singleSchemeYAML = `name: wires
rules:
  - name: sports-wire
    filter: filter-sports
    schedule:
      day_of_week: [MON, TUE, WED, THU, FRI]
      hour_of_day_from: "08:00:00"
      hour_of_day_to: "18:00:00"
    actions:
      fetch:
        - desk: sports
          stage: incoming
      exit: true
`

const multiSchemeYAML = `schemes:
  - name: pictures
    rules:
      - name: all-pictures
        schedule:
          day_of_week: [MON, TUE, WED, THU, FRI, SAT, SUN]
          hour_of_day_from: "00:00:00"
          hour_of_day_to: "23:55:00"
        actions:
          fetch:
            - desk: photo
              stage: incoming
  - name: regional
    rules:
      - name: local-news
        schedule:
          day_of_week: [MON]
          hour_of_day_from: "00:00:00"
          hour_of_day_to: "23:55:00"
        actions:
          publish:
            - desk: regional
              stage: publish
              target_subscribers: [sub-9]
`

func writeScheme(t *testing.T, dir, name, body string) {
	t.Helper()
	schemesDir := filepath.Join(dir, "schemes")
	if err := os.MkdirAll(schemesDir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(schemesDir, name), []byte(body), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func TestLoadDir(t *testing.T) {
	dir := t.TempDir()
	writeScheme(t, dir, "wires.yaml", singleSchemeYAML)
	writeScheme(t, dir, "more.yaml", multiSchemeYAML)
	writeScheme(t, dir, "ignored.txt", "not yaml")

	set, err := LoadDir(dir)
	assert.NoError(t, err)
	assert.Equal(t, []string{"pictures", "regional", "wires"}, set.Names())

	wires := set.Schemes["wires"]
	if assert.NotNil(t, wires) && assert.Len(t, wires.Rules, 1) {
		rule := wires.Rules[0]
		assert.Equal(t, "filter-sports", rule.FilterID)
		assert.Equal(t, "08:00:00", rule.Schedule.HourFrom)
		assert.True(t, rule.Actions.Exit)
	}

	regional := set.Schemes["regional"]
	if assert.NotNil(t, regional) && assert.Len(t, regional.Rules, 1) {
		assert.Equal(t, []string{"sub-9"}, regional.Rules[0].Actions.Publish[0].TargetSubscribers)
	}
}

func TestLoadDirMissingIsEmptySet(t *testing.T) {
	set, err := LoadDir(t.TempDir())
	assert.NoError(t, err)
	assert.Empty(t, set.Schemes)
	assert.NotEmpty(t, set.Fingerprint)
}

func TestLoadDirRejectsInvalidScheme(t *testing.T) {
	dir := t.TempDir()
	writeScheme(t, dir, "bad.yaml", `name: broken
rules:
  - name: no-stage
    schedule:
      day_of_week: [MON]
      hour_of_day_from: "00:00:00"
      hour_of_day_to: "23:55:00"
    actions:
      fetch:
        - desk: sports
`)

	_, err := LoadDir(dir)
	assert.ErrorContains(t, err, "desk and stage are required")
}

func TestLoadDirRejectsDuplicateSchemeName(t *testing.T) {
	dir := t.TempDir()
	writeScheme(t, dir, "a.yaml", singleSchemeYAML)
	writeScheme(t, dir, "b.yaml", singleSchemeYAML)

	_, err := LoadDir(dir)
	assert.ErrorContains(t, err, `duplicate scheme name "wires"`)
}

func TestFingerprintStableAcrossFileLayout(t *testing.T) {
	split := t.TempDir()
	writeScheme(t, split, "wires.yaml", singleSchemeYAML)
	writeScheme(t, split, "more.yaml", multiSchemeYAML)

	combined := t.TempDir()
	writeScheme(t, combined, "everything.yaml", multiSchemeYAML+`  - name: wires
    rules:
      - name: sports-wire
        filter: filter-sports
        schedule:
          day_of_week: [MON, TUE, WED, THU, FRI]
          hour_of_day_from: "08:00:00"
          hour_of_day_to: "18:00:00"
        actions:
          fetch:
            - desk: sports
              stage: incoming
          exit: true
`)

	a, err := LoadDir(split)
	assert.NoError(t, err)
	b, err := LoadDir(combined)
	assert.NoError(t, err)

	assert.Equal(t, a.Fingerprint, b.Fingerprint)

	changed := t.TempDir()
	writeScheme(t, changed, "more.yaml", multiSchemeYAML)
	c, err := LoadDir(changed)
	assert.NoError(t, err)
	assert.NotEqual(t, a.Fingerprint, c.Fingerprint)
}
