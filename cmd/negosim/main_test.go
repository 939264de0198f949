package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/Ananth-NQI/carnego-backend/internal/negotiation"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestReplayScenario(t *testing.T) {
	sc, err := LoadScenario(filepath.Join("testdata", "duster_reject.yaml"))
	require.NoError(t, err)

	report, err := Replay(sc, negotiation.DefaultPolicy())
	require.NoError(t, err)
	require.Len(t, report.Turns, 3)
	assert.False(t, report.Failed(), "%+v", report.Turns)
	assert.Equal(t, 214500.0, *report.Turns[0].Price)
	assert.Equal(t, 209000.0, *report.Turns[1].Price)
	assert.Nil(t, report.Turns[2].Price)
}

func TestRunCommandPasses(t *testing.T) {
	out, err := execute(t, "run", "-j", "2", "-v",
		filepath.Join("testdata", "duster_reject.yaml"),
		filepath.Join("testdata", "duster_accept.yaml"))
	require.NoError(t, err, out)
	assert.Contains(t, out, "PASS duster-reject (3 turns)")
	assert.Contains(t, out, "PASS duster-accept (2 turns)")
	assert.Contains(t, out, "last_chance_offer")
}

func TestRunCommandReportsFailures(t *testing.T) {
	out, err := execute(t, "run", filepath.Join("testdata", "wrong_expectation.yaml"))
	assert.ErrorIs(t, err, errScenariosFailed)
	assert.Contains(t, out, "FAIL wrong-expectation")
	assert.Contains(t, out, "price: want 150000, got 214500")
}

func TestRunCommandBadInput(t *testing.T) {
	_, err := execute(t, "run")
	assert.Error(t, err)

	_, err = execute(t, "run", filepath.Join("testdata", "missing.yaml"))
	assert.Error(t, err)

	empty := filepath.Join(t.TempDir(), "empty.yaml")
	require.NoError(t, os.WriteFile(empty, []byte("name: empty\n"), 0o644))
	_, err = execute(t, "run", empty)
	assert.ErrorContains(t, err, "no turns")
}

func TestPolicyCommandPrintsDefaults(t *testing.T) {
	out, err := execute(t, "policy")
	require.NoError(t, err)

	var p negotiation.Policy
	require.NoError(t, yaml.Unmarshal([]byte(out), &p))
	assert.Equal(t, negotiation.DefaultPolicy(), p)
}
