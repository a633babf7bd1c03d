package configuration

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogrusLogLevel(t *testing.T) {
	t.Parallel()

	cases := map[string]logrus.Level{
		"silent": logrus.PanicLevel,
		"error":  logrus.ErrorLevel,
		"warn":   logrus.WarnLevel,
		"info":   logrus.InfoLevel,
		"debug":  logrus.DebugLevel,
		"bogus":  logrus.InfoLevel,
		"":       logrus.InfoLevel,
	}

	for in, want := range cases {
		c := &Configuration{LogLevel: in}
		assert.Equal(t, want, c.LogrusLogLevel(), "LogLevel=%q", in)
	}
}

func TestAMQPOptionsValidate(t *testing.T) {
	t.Parallel()

	valid := AMQPOptions{QueueName: "parcel_queue", MaxRedeliveries: 5, Prefetch: 1}
	assert.NoError(t, valid.Validate())

	noQueue := valid
	noQueue.QueueName = ""
	assert.Error(t, noQueue.Validate())

	zeroBound := valid
	zeroBound.MaxRedeliveries = 0
	assert.Error(t, zeroBound.Validate())

	negativePrefetch := valid
	negativePrefetch.Prefetch = -1
	assert.Error(t, negativePrefetch.Validate())
}

func TestDatabaseConnectionString(t *testing.T) {
	t.Parallel()

	d := DatabaseOptions{
		Name:     "parceld",
		Host:     "db.internal",
		Port:     "5433",
		User:     "svc",
		Password: "pw",
	}
	assert.Equal(t,
		"host=db.internal port=5433 user=svc dbname=parceld password=pw sslmode=disable",
		d.ConnectionString(),
	)
}

func TestLoadEnvSkipsMissingFiles(t *testing.T) {
	dir := t.TempDir()

	envFile := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("PARCELD_TEST_ONLY_KEY=from-env-file\n"), 0o600))
	t.Cleanup(func() { _ = os.Unsetenv("PARCELD_TEST_ONLY_KEY") })

	n, err := LoadEnv([]string{envFile, filepath.Join(dir, ".env.local")})
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, "from-env-file", os.Getenv("PARCELD_TEST_ONLY_KEY"))

	n, err = LoadEnv([]string{filepath.Join(dir, "nothing-here")})
	require.NoError(t, err)
	assert.Zero(t, n)
}
