package main

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/apk-analysis/droid-detective/internal/report"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
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

func TestRootArgs(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"no args", nil},
		{"not a package", []string{"sample.zip"}},
		{"upper case extension", []string{"sample.APK"}},
		{"too many", []string{"a.apk", "r.json", "extra"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := execute(t, tt.args...)
			require.Error(t, err)
			assert.Contains(t, out, "Usage:")
		})
	}
}

func TestRootArgs_BadReport(t *testing.T) {
	_, err := execute(t, "a.apk", "report.txt")
	assert.ErrorIs(t, err, report.ErrInvalidDestination)
}

func TestValidateScanArgs(t *testing.T) {
	assert.NoError(t, validateScanArgs(nil, []string{"a.apk"}))
	assert.NoError(t, validateScanArgs(nil, []string{"a.apk", "out/REPORT.JSON"}))
	assert.Error(t, validateScanArgs(nil, []string{"a.apk", "report"}))
}

func TestVersionCmd(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "DroidDetective "+Version)
}

func TestInspect_NoModel(t *testing.T) {
	t.Setenv("DD_MODEL_PATH", filepath.Join(t.TempDir(), "missing.model"))
	cfgFile, logLevel = "", ""

	_, err := execute(t, "inspect")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "run 'droiddetective train' first")
}
