package app

import (
	"bytes"
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/json"
	"encoding/pem"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"snowbeat/internal/config"
	"snowbeat/internal/database"
)

// fakeDriver records calls and returns canned results.
type fakeDriver struct {
	connectErr error
	useErr     error
	execErr    error
	result     *database.QueryResult

	connected bool
	closed    bool
	usedWH    string
	gotSQL    string
	gotArgs   []any
}

func (f *fakeDriver) Connect(_ context.Context, _ database.ConnConfig) error {
	if f.connectErr != nil {
		return f.connectErr
	}
	f.connected = true
	return nil
}

func (f *fakeDriver) Close() error {
	f.closed = true
	return nil
}

func (f *fakeDriver) Ping(context.Context) error {
	return nil
}

func (f *fakeDriver) UseWarehouse(_ context.Context, name string) error {
	f.usedWH = name
	return f.useErr
}

func (f *fakeDriver) ExecuteQuery(_ context.Context, query string, args ...any) (*database.QueryResult, error) {
	f.gotSQL = query
	f.gotArgs = args
	if f.execErr != nil {
		return nil, f.execErr
	}
	return f.result, nil
}

func testLogger() *logrus.Entry {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logrus.NewEntry(logger)
}

func writeTestKey(t *testing.T) string {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	der, err := x509.MarshalPKCS8PrivateKey(key)
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "rsa_key.p8")
	data := pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: der})
	require.NoError(t, os.WriteFile(path, data, 0o600))
	return path
}

func testConfig(t *testing.T) config.Config {
	t.Helper()
	return config.Config{
		User:        "PROBE_USER",
		Account:     "ACME-XY12345",
		Warehouse:   "WH1",
		KeypairPath: writeTestKey(t),
		Query:       "sql_check_version",
	}
}

func TestRunSuccessEmitsRecords(t *testing.T) {
	driver := &fakeDriver{
		result: &database.QueryResult{
			Columns:  []string{"VERSION"},
			Rows:     [][]any{{"8.13.1"}},
			RowCount: 1,
		},
	}

	svc := NewService(driver, testLogger())
	svc.now = func() time.Time { return time.Date(2024, 3, 1, 10, 15, 30, 0, time.UTC) }

	var out bytes.Buffer
	require.NoError(t, svc.Run(context.Background(), testConfig(t), &out))

	assert.True(t, driver.connected)
	assert.True(t, driver.closed)
	assert.Equal(t, "WH1", driver.usedWH)
	assert.Contains(t, driver.gotSQL, "CURRENT_VERSION()")

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 1)

	var rec map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &rec))
	assert.Equal(t, "8.13.1", rec["VERSION"])
	assert.Equal(t, "WH1", rec["warehouse"])
	assert.Equal(t, "ACME-XY12345", rec["account"])
	assert.Equal(t, "2024-03-01 10:15:30", rec["execution_timestamp"])
}

func TestRunPassesWarehouseBindArg(t *testing.T) {
	driver := &fakeDriver{result: &database.QueryResult{}}
	svc := NewService(driver, testLogger())

	cfg := testConfig(t)
	cfg.Query = "sql_warehouse_load_history"

	var out bytes.Buffer
	require.NoError(t, svc.Run(context.Background(), cfg, &out))
	assert.Equal(t, []any{"WH1"}, driver.gotArgs)
	assert.Empty(t, out.String())
}

func TestRunUnknownQueryMakesNoConnection(t *testing.T) {
	driver := &fakeDriver{}
	svc := NewService(driver, testLogger())

	cfg := testConfig(t)
	cfg.Query = "sql_bogus"

	var out bytes.Buffer
	err := svc.Run(context.Background(), cfg, &out)
	require.Error(t, err)

	var unknown *ErrUnknownQuery
	assert.True(t, errors.As(err, &unknown))
	assert.False(t, driver.connected)
	assert.Empty(t, out.String())
}

func TestRunMissingKeyFileBeforeConnect(t *testing.T) {
	driver := &fakeDriver{}
	svc := NewService(driver, testLogger())

	cfg := testConfig(t)
	cfg.KeypairPath = filepath.Join(t.TempDir(), "missing.p8")

	err := svc.Run(context.Background(), cfg, io.Discard)
	require.Error(t, err)

	var keyFile *ErrKeyFile
	assert.True(t, errors.As(err, &keyFile))
	assert.False(t, driver.connected)
}

func TestRunBadKeyMaterial(t *testing.T) {
	driver := &fakeDriver{}
	svc := NewService(driver, testLogger())

	cfg := testConfig(t)
	path := filepath.Join(t.TempDir(), "rsa_key.p8")
	require.NoError(t, os.WriteFile(path, []byte("garbage"), 0o600))
	cfg.KeypairPath = path

	err := svc.Run(context.Background(), cfg, io.Discard)
	require.Error(t, err)

	var keyFormat *ErrKeyFormat
	assert.True(t, errors.As(err, &keyFormat))
	assert.False(t, driver.connected)
}

func TestRunConnectFailure(t *testing.T) {
	driver := &fakeDriver{connectErr: errors.New("dial tcp: no such host")}
	svc := NewService(driver, testLogger())

	err := svc.Run(context.Background(), testConfig(t), io.Discard)
	require.Error(t, err)

	var connErr *ErrConnection
	assert.True(t, errors.As(err, &connErr))
	assert.False(t, driver.closed)
}

func TestRunQueryFailureEmitsNothingAndCloses(t *testing.T) {
	driver := &fakeDriver{execErr: errors.New("SQL compilation error")}
	svc := NewService(driver, testLogger())

	var out bytes.Buffer
	err := svc.Run(context.Background(), testConfig(t), &out)
	require.Error(t, err)

	var queryErr *ErrQuery
	assert.True(t, errors.As(err, &queryErr))
	assert.Empty(t, out.String())
	assert.True(t, driver.closed)
}

func TestRunUseWarehouseFailureCloses(t *testing.T) {
	driver := &fakeDriver{useErr: errors.New("object does not exist")}
	svc := NewService(driver, testLogger())

	err := svc.Run(context.Background(), testConfig(t), io.Discard)
	require.Error(t, err)
	assert.True(t, driver.closed)
	assert.Empty(t, driver.gotSQL)
}
