package main

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/runixer/botapi/internal/config"
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

func TestVersionCmd(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "echobot "+Version+"\n", out)
}

func TestConfigCmd(t *testing.T) {
	out, err := execute(t, "config")
	require.NoError(t, err)
	assert.Equal(t, string(config.DefaultConfigBytes()), out)
}

func TestRunCmd_InvalidConfig(t *testing.T) {
	t.Setenv("BOTAPI_TELEGRAM_TOKEN", "")
	missing := filepath.Join(t.TempDir(), "missing.yaml")

	_, err := execute(t, "run", "--config", missing)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "telegram.token is required")
}

func TestHealthcheckCmd(t *testing.T) {
	var status atomic.Int32
	status.Store(http.StatusOK)
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/healthz", r.URL.Path)
		w.WriteHeader(int(status.Load()))
	}))
	defer ts.Close()

	u, err := url.Parse(ts.URL)
	require.NoError(t, err)
	t.Setenv("BOTAPI_SERVER_PORT", u.Port())
	missing := filepath.Join(t.TempDir(), "missing.yaml")

	out, err := execute(t, "healthcheck", "--config", missing, "--host", u.Hostname())
	require.NoError(t, err)
	assert.Contains(t, out, "ok")

	status.Store(http.StatusServiceUnavailable)
	_, err = execute(t, "healthcheck", "--config", missing, "--host", u.Hostname())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "503")
}

func TestHealthcheckCmd_Unreachable(t *testing.T) {
	ts := httptest.NewServer(http.NotFoundHandler())
	u, err := url.Parse(ts.URL)
	require.NoError(t, err)
	ts.Close()

	t.Setenv("BOTAPI_SERVER_PORT", u.Port())
	_, err = execute(t, "healthcheck", "--config", filepath.Join(t.TempDir(), "missing.yaml"), "--host", u.Hostname())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "healthcheck failed")
}
