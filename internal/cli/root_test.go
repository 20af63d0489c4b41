package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shinji-kodama/notesync/internal/config"
	"github.com/shinji-kodama/notesync/internal/model"
)

// fakeAPI serves the Zendesk and Shopify endpoints notesync calls, under
// /zd and /shop prefixes of one test server.
type fakeAPI struct {
	mu        sync.Mutex
	comments  string
	orders    string
	noteWrite map[string]any
	requests  []string
}

func newFakeAPI(t *testing.T) (*fakeAPI, *httptest.Server) {
	t.Helper()
	api := &fakeAPI{
		comments: `{"comments":[
			{"id":3,"body":"Thanks!","public":true,"author_id":1,"created_at":"2024-03-02T10:00:00Z"},
			{"id":2,"body":"Hello world, re A273302","public":false,"author_id":7,"created_at":"2024-03-01T15:04:00Z"}
		],"next_page":null}`,
		orders: `{"orders":[{"id":501,"name":"#A273302","note":"Prior note"}]}`,
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		api.mu.Lock()
		defer api.mu.Unlock()
		api.requests = append(api.requests, r.Method+" "+r.URL.Path)

		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/zd/api/v2/tickets/123456/comments.json":
			fmt.Fprint(w, api.comments)
		case r.Method == http.MethodGet && r.URL.Path == "/zd/api/v2/users/7.json":
			fmt.Fprint(w, `{"user":{"id":7,"name":"Dana"}}`)
		case r.Method == http.MethodGet && r.URL.Path == "/shop/orders.json":
			assert.Equal(t, "shpat_test", r.Header.Get("X-Shopify-Access-Token"))
			fmt.Fprint(w, api.orders)
		case r.Method == http.MethodPut && r.URL.Path == "/shop/orders/501.json":
			body, _ := io.ReadAll(r.Body)
			assert.NoError(t, json.Unmarshal(body, &api.noteWrite))
			fmt.Fprint(w, `{"order":{"id":501}}`)
		default:
			w.WriteHeader(http.StatusNotFound)
			fmt.Fprint(w, `{"error":"not found"}`)
		}
	}))
	t.Cleanup(server.Close)
	return api, server
}

// writeConfig writes a YAML config pointing both clients at server.
func writeConfig(t *testing.T, server *httptest.Server) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "notesync.yaml")
	content := fmt.Sprintf(`zendesk:
  base_url: %[1]s/zd/api/v2
  email: agent@acme.test
shopify:
  base_url: %[1]s/shop
http:
  timeout: 5s
`, server.URL)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

// testEnv returns the secrets the config file leaves out.
func testEnv() map[string]string {
	return map[string]string{
		config.EnvZendeskAPIToken:   "zd_test",
		config.EnvShopifyAdminToken: "shpat_test",
	}
}

// executeRoot runs a fresh root command with args against env and returns
// its stdout, stderr, and error. Package globals are restored afterwards.
func executeRoot(t *testing.T, env map[string]string, args ...string) (string, string, error) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())

	prevEnv := lookupEnv
	lookupEnv = func(key string) string { return env[key] }
	t.Cleanup(func() {
		lookupEnv = prevEnv
		jsonOutput, verbose, configPath = false, false, ""
		resolved, loadErr, runID = nil, nil, ""
	})

	var stdout, stderr bytes.Buffer
	cmd := NewRootCommand()
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)

	err := cmd.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

const wantBlock = "#123456 | Dana | 2024-03-01 15:04 UTC\n\nHello world, re A273302\n\n---\n"

// TestSync_WritesNote verifies the end-to-end sync against fake APIs.
func TestSync_WritesNote(t *testing.T) {
	api, server := newFakeAPI(t)

	stdout, stderr, err := executeRoot(t, testEnv(), "123456", "--config", writeConfig(t, server))
	require.NoError(t, err)

	assert.Equal(t, "[OK] Updated Shopify order #A273302 (ID 501) note.\n", stdout)
	assert.Contains(t, stderr, "detected order reference")
	assert.Contains(t, stderr, "run_id=")

	require.NotNil(t, api.noteWrite)
	order := api.noteWrite["order"].(map[string]any)
	assert.Equal(t, "Prior note\n\n"+wantBlock, order["note"])
	assert.EqualValues(t, 501, order["id"])
}

// TestSync_DryRun verifies no write is sent and the preview is printed.
func TestSync_DryRun(t *testing.T) {
	api, server := newFakeAPI(t)

	stdout, _, err := executeRoot(t, testEnv(), "123456", "--dry-run", "--config", writeConfig(t, server))
	require.NoError(t, err)

	assert.Nil(t, api.noteWrite)
	for _, req := range api.requests {
		assert.False(t, strings.HasPrefix(req, http.MethodPut), "unexpected write %s", req)
	}
	rule := strings.Repeat("=", 48)
	assert.Equal(t, "[DRY RUN] Would update order note of #A273302 (ID 501):\n"+
		rule+"\n"+
		"Prior note\n\n"+wantBlock+
		rule+"\n", stdout)
}

// TestSync_JSONOutput verifies the machine-readable result.
func TestSync_JSONOutput(t *testing.T) {
	_, server := newFakeAPI(t)

	stdout, _, err := executeRoot(t, testEnv(), "#123456", "--json", "--dry-run", "--config", writeConfig(t, server))
	require.NoError(t, err)

	var result model.SyncResult
	require.NoError(t, json.Unmarshal([]byte(stdout), &result))
	assert.Equal(t, "123456", result.TicketID)
	assert.Equal(t, model.OrderReference("A273302"), result.Reference)
	assert.Equal(t, int64(501), result.OrderID)
	assert.Equal(t, "Dana", result.AgentName)
	assert.Equal(t, wantBlock, result.Block)
	assert.True(t, result.DryRun)
	assert.Len(t, result.RunID, 36)
}

// TestSync_Failures verifies each failure maps to its exit code and that
// no write happens.
func TestSync_Failures(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		env      func() map[string]string
		mutate   func(api *fakeAPI)
		exitCode model.ExitCode
	}{
		{
			name:     "invalid ticket id",
			args:     []string{"abc"},
			exitCode: model.ExitGeneralError,
		},
		{
			name: "missing credentials",
			args: []string{"123456"},
			env: func() map[string]string {
				return map[string]string{config.EnvZendeskAPIToken: "zd_test"}
			},
			exitCode: model.ExitConfigError,
		},
		{
			name:     "unknown ticket",
			args:     []string{"999"},
			exitCode: model.ExitTransportError,
		},
		{
			name: "no internal comment",
			args: []string{"123456"},
			mutate: func(api *fakeAPI) {
				api.comments = `{"comments":[{"id":1,"body":"A273302","public":true,"author_id":7}],"next_page":null}`
			},
			exitCode: model.ExitNotFound,
		},
		{
			name: "empty internal comment",
			args: []string{"123456"},
			mutate: func(api *fakeAPI) {
				api.comments = `{"comments":[{"id":1,"body":"   ","public":false,"author_id":7}],"next_page":null}`
			},
			exitCode: model.ExitEmptyContent,
		},
		{
			name: "no order reference",
			args: []string{"123456"},
			mutate: func(api *fakeAPI) {
				api.comments = `{"comments":[{"id":1,"body":"call back","public":false,"author_id":7}],"next_page":null}`
			},
			exitCode: model.ExitNotFound,
		},
		{
			name: "order not found",
			args: []string{"123456"},
			mutate: func(api *fakeAPI) {
				api.orders = `{"orders":[{"id":9,"name":"#A2733021","note":null}]}`
			},
			exitCode: model.ExitNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api, server := newFakeAPI(t)
			if tt.mutate != nil {
				tt.mutate(api)
			}
			env := testEnv()
			if tt.env != nil {
				env = tt.env()
			}

			args := append(tt.args, "--config", writeConfig(t, server))
			_, _, err := executeRoot(t, env, args...)
			require.Error(t, err)
			assert.Equal(t, tt.exitCode, model.ExitCodeFor(err))
			assert.Nil(t, api.noteWrite)
		})
	}
}

// TestRoot_RequiresOneArgument verifies cobra argument validation.
func TestRoot_RequiresOneArgument(t *testing.T) {
	_, _, err := executeRoot(t, testEnv())
	assert.Error(t, err)

	_, _, err = executeRoot(t, testEnv(), "1", "2")
	assert.Error(t, err)
}

// TestConfigCommand verifies the redacted display and validity reporting.
func TestConfigCommand(t *testing.T) {
	_, server := newFakeAPI(t)
	path := writeConfig(t, server)

	stdout, _, err := executeRoot(t, testEnv(), "config", "--config", path)
	require.NoError(t, err)
	assert.Contains(t, stdout, "********")
	assert.NotContains(t, stdout, "zd_test")
	assert.NotContains(t, stdout, "shpat_test")
	assert.Contains(t, stdout, "Configuration OK.")

	stdout, _, err = executeRoot(t, map[string]string{}, "config", "--json", "--config", path)
	assert.Equal(t, model.ExitConfigError, model.ExitCodeFor(err))

	var report struct {
		Valid bool   `json:"valid"`
		Error string `json:"error"`
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &report))
	assert.False(t, report.Valid)
	assert.Contains(t, report.Error, config.EnvZendeskAPIToken)
}

// TestHandleError verifies message formatting and exit code selection.
func TestHandleError(t *testing.T) {
	t.Cleanup(func() { jsonOutput = false })

	tests := []struct {
		name     string
		json     bool
		err      error
		want     string
		exitCode model.ExitCode
	}{
		{
			name:     "nil",
			err:      nil,
			want:     "",
			exitCode: model.ExitSuccess,
		},
		{
			name:     "plain error",
			err:      errors.New("boom"),
			want:     "Error: boom\n",
			exitCode: model.ExitGeneralError,
		},
		{
			name:     "cli error with detail",
			err:      model.WrapCLIError(model.ExitGeneralError, "invalid ticket ID", errors.New("must be positive")),
			want:     "Error: invalid ticket ID: must be positive\n",
			exitCode: model.ExitGeneralError,
		},
		{
			name:     "not found",
			err:      &model.NotFoundError{Stage: model.StageOrder, Subject: "A273302"},
			want:     "Error: order with name A273302 not found\n",
			exitCode: model.ExitNotFound,
		},
		{
			name:     "json",
			json:     true,
			err:      model.WrapCLIError(model.ExitConfigError, "bad", errors.New("detail")),
			want:     "{\n  \"error\": {\n    \"detail\": \"detail\",\n    \"message\": \"bad\"\n  }\n}\n",
			exitCode: model.ExitConfigError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			jsonOutput = tt.json
			var buf bytes.Buffer
			assert.Equal(t, tt.exitCode, handleError(&buf, tt.err))
			assert.Equal(t, tt.want, buf.String())
		})
	}
}
