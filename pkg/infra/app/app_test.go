package app

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kart-io/tripplanner/pkg/infra/app/cliflag"
)

type testServerOptions struct {
	Addr   string `mapstructure:"addr"`
	Nights int    `mapstructure:"nights"`
	Model  string `mapstructure:"model"`
}

type testOptions struct {
	Server    *testServerOptions `mapstructure:"server"`
	completed bool
	invalid   error
}

func newTestOptions() *testOptions {
	return &testOptions{Server: &testServerOptions{Addr: ":8080", Nights: 4, Model: "gpt-4o-mini"}}
}

func (o *testOptions) Flags() (fss cliflag.NamedFlagSets) {
	fs := fss.FlagSet("server")
	fs.StringVar(&o.Server.Addr, "server.addr", o.Server.Addr, "listen address")
	fs.IntVar(&o.Server.Nights, "server.nights", o.Server.Nights, "nights")
	fs.StringVar(&o.Server.Model, "server.model", o.Server.Model, "model")
	return fss
}

func (o *testOptions) Complete() error {
	o.completed = true
	return nil
}

func (o *testOptions) Validate() error { return o.invalid }

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "planner.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestRunLoadsConfigWithFlagPrecedence(t *testing.T) {
	t.Setenv("TEST_PLANNER_MODEL_NAME", "deepseek-chat")
	path := writeConfig(t, "server:\n  addr: \":9090\"\n  nights: 6\n  model: ${TEST_PLANNER_MODEL_NAME}\n")

	opts := newTestOptions()
	ran := false
	a := NewApp(
		WithName("planner-test"),
		WithOptions(opts),
		WithNoVersion(),
		WithRunFunc(func() error {
			ran = true
			return nil
		}),
	)
	a.Command().SetArgs([]string{"--config", path, "--server.nights", "3"})
	require.NoError(t, a.Command().Execute())

	assert.True(t, ran)
	assert.True(t, opts.completed)
	assert.Equal(t, ":9090", opts.Server.Addr)
	assert.Equal(t, 3, opts.Server.Nights)
	assert.Equal(t, "deepseek-chat", opts.Server.Model)
}

func TestRunReadsPrefixedEnvironment(t *testing.T) {
	t.Setenv("PLANNER_TEST_SERVER_ADDR", ":7070")

	opts := newTestOptions()
	a := NewApp(WithName("planner-test"), WithOptions(opts), WithNoVersion())
	a.Command().SetArgs([]string{"--config", writeConfig(t, "server:\n  nights: 5\n")})
	require.NoError(t, a.Command().Execute())

	assert.Equal(t, ":7070", opts.Server.Addr)
	assert.Equal(t, 5, opts.Server.Nights)
}

func TestRunStopsOnValidationError(t *testing.T) {
	opts := newTestOptions()
	opts.invalid = errors.New("server.addr is required")
	ran := false
	a := NewApp(
		WithName("planner-test"),
		WithOptions(opts),
		WithNoVersion(),
		WithNoConfig(),
		WithSilence(),
		WithRunFunc(func() error {
			ran = true
			return nil
		}),
	)
	a.Command().SetArgs([]string{})

	err := a.Command().Execute()
	assert.EqualError(t, err, "server.addr is required")
	assert.False(t, ran)
}

func TestGlobalFlagsRegistered(t *testing.T) {
	a := NewApp(WithName("planner-test"), WithOptions(newTestOptions()))
	flags := a.Command().Flags()

	for _, name := range []string{"config", "help", "server.addr"} {
		assert.NotNil(t, flags.Lookup(name), name)
	}
	var seen []string
	flags.VisitAll(func(f *pflag.Flag) { seen = append(seen, f.Name) })
	assert.Contains(t, seen, "server.nights")
}
