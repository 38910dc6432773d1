package main

import (
	"bytes"
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"creatorhub/internal/config"
)

func setDevEnv(t *testing.T) {
	t.Helper()
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("ENVIRONMENT", "development")
	t.Setenv("STORE_DRIVER", "memory")
	t.Setenv("EVENTS_BACKEND", "none")
	t.Setenv("SECRET_MANAGER_ENABLED", "false")
}

// execute runs the root command in-process and returns its stdout.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetFlags := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	userCreateCmd.Flags().VisitAll(resetFlags)

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
	})
	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestUserCreate(t *testing.T) {
	setDevEnv(t)

	out, err := execute(t, "user", "create",
		"--id", "u-1", "--email", "Ops@Example.com", "--password", "hunter22!", "--credits", "25", "--plan", "Pro")
	require.NoError(t, err)
	assert.Equal(t, "created user u-1 (ops@example.com) with 25 credits on Pro\n", out)
}

func TestUserCreate_Defaults(t *testing.T) {
	setDevEnv(t)

	out, err := execute(t, "user", "create", "--id", "u-2", "--email", "new@example.com", "--password", "longenough")
	require.NoError(t, err)
	assert.Equal(t, "created user u-2 (new@example.com) with 10 credits on Basic\n", out)
}

func TestUserCreate_RejectsShortPassword(t *testing.T) {
	setDevEnv(t)

	_, err := execute(t, "user", "create", "--email", "new@example.com", "--password", "short")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "password must be at least 8 characters")
}

func TestUserCreate_RequiresEmail(t *testing.T) {
	setDevEnv(t)

	_, err := execute(t, "user", "create", "--password", "longenough")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"email"`)
}

func TestMigrate_RequiresPostgres(t *testing.T) {
	setDevEnv(t)

	_, err := execute(t, "migrate", "up")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "STORE_DRIVER=postgres")
}

func TestOpenStore(t *testing.T) {
	store, err := openStore(context.Background(), &config.Config{StoreDriver: config.StoreMemory}, zerolog.Nop())
	require.NoError(t, err)
	require.NotNil(t, store.Users)
	assert.NoError(t, store.Close())

	_, err = openStore(context.Background(), &config.Config{StoreDriver: "sqlite"}, zerolog.Nop())
	assert.EqualError(t, err, `unknown store driver "sqlite"`)
}

func TestOpenPublisher_DefaultsToNoop(t *testing.T) {
	p, topic, err := openPublisher(context.Background(), &config.Config{EventsBackend: config.EventsNone})
	require.NoError(t, err)
	assert.Empty(t, topic)
	id, err := p.Publish(context.Background(), topic, []byte("{}"))
	require.NoError(t, err)
	assert.Empty(t, id)
}
