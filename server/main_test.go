package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bridge-lin/server/config"
	"bridge-lin/server/lin"
)

func TestRunDecode(t *testing.T) {
	raw, want := sampleLIN(t)
	dir := t.TempDir()
	good := filepath.Join(dir, "good.lin")
	require.NoError(t, os.WriteFile(good, []byte(raw), 0o644))

	var out bytes.Buffer
	err := runDecode(context.Background(), strings.NewReader(raw), &out, []string{good, "-"}, lin.DefaultOptions(), true, nil)
	require.NoError(t, err)

	dec := json.NewDecoder(&out)
	for i := 0; i < 2; i++ {
		var got map[string]any
		require.NoError(t, dec.Decode(&got))
		assert.Equal(t, float64(want.Board()), got["board"])
		assert.Equal(t, "1D", got["contract"])
	}

	out.Reset()
	err = runDecode(context.Background(), strings.NewReader("<html>"), &out, []string{good, "-", filepath.Join(dir, "missing.lin")}, lin.DefaultOptions(), false, nil)
	assert.EqualError(t, err, "2 of 3 files failed to decode")
	assert.Contains(t, out.String(), "good.lin")
}

func TestDecodeReader(t *testing.T) {
	res := decodeReader(strings.NewReader("pn|a,b,c,d|"), lin.DefaultOptions())
	assert.False(t, res.OK())
	assert.Equal(t, lin.KindIncomplete, res.Kind)

	raw, _ := sampleLIN(t)
	raw = strings.Replace(raw, "ah|Board 1|", "ah|Board 2|", 1)
	raw = raw[:strings.Index(raw, "pc|")] + "mc|7|"
	res = decodeReader(strings.NewReader(raw), lin.DefaultOptions())
	require.True(t, res.OK(), "%v", res.Err)
	require.Len(t, res.Warnings, 1)

	var out bytes.Buffer
	printResult(&out, res)
	assert.Contains(t, out.String(), "warn md at offset")
}

func TestVersionCommand(t *testing.T) {
	cmd := rootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"version"})
	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), appName+" version "+Version)
}

func TestDecodeCommand(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	raw, _ := sampleLIN(t)
	file := filepath.Join(t.TempDir(), "x.lin")
	require.NoError(t, os.WriteFile(file, []byte(raw), 0o644))

	cmd := rootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"decode", "--log-level", "error", "--dealer-rule", "board", file})
	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), `"contract": "1D"`)

	cmd = rootCmd()
	cmd.SetArgs([]string{"decode", "--seating", "NNNN", file})
	assert.Error(t, cmd.Execute())
}

func TestDecodeCommand_SeatingFromDealer(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	raw, _ := sampleLIN(t)
	dir := t.TempDir()
	file := filepath.Join(dir, "x.lin")
	require.NoError(t, os.WriteFile(file, []byte(raw), 0o644))
	cfgPath := filepath.Join(dir, "bridge-lin.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("decoder:\n  seating_from_dealer: true\n"), 0o644))

	// North deals, so rotating puts the first listed player in the north seat.
	northPlayer := func(args ...string) string {
		t.Helper()
		cmd := rootCmd()
		var out bytes.Buffer
		cmd.SetOut(&out)
		cmd.SetArgs(append([]string{"decode", "--log-level", "error", "--config", cfgPath}, append(args, file)...))
		require.NoError(t, cmd.Execute())
		var got struct {
			Players map[string]string `json:"players"`
		}
		require.NoError(t, json.Unmarshal(out.Bytes(), &got))
		return got.Players["N"]
	}

	assert.Equal(t, "south", northPlayer())
	assert.Equal(t, "north", northPlayer("--seating-from-dealer=false"))
	assert.Equal(t, "south", northPlayer("--seating-from-dealer"))
}

func TestConfigCommands(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	dir := t.TempDir()
	t.Chdir(dir)

	run := func(args ...string) (string, error) {
		cmd := rootCmd()
		var out bytes.Buffer
		cmd.SetOut(&out)
		cmd.SetArgs(args)
		err := cmd.Execute()
		return out.String(), err
	}

	out, err := run("config", "init")
	require.NoError(t, err)
	assert.Contains(t, out, "wrote bridge-lin.yaml")
	written, err := config.LoadFromFile(filepath.Join(dir, config.ProjectConfigFile))
	require.NoError(t, err)
	want := config.DefaultConfig()
	want.Decoder.SeatingFromDealer = config.Bool(false)
	assert.Equal(t, want, written)

	_, err = run("config", "init")
	assert.ErrorContains(t, err, "use --force")
	_, err = run("config", "init", "--force")
	assert.NoError(t, err)

	custom := filepath.Join(dir, "etc", "lin.yaml")
	_, err = run("config", "init", custom)
	require.NoError(t, err)
	assert.FileExists(t, custom)

	t.Setenv("LIN_DECLARER_RULE", "first-named")
	out, err = run("config", "show", "--log-level", "error")
	require.NoError(t, err)
	assert.Contains(t, out, "declarer_rule: first-named")
	assert.Contains(t, out, "seating_from_dealer: false")
}

func TestNewLogger(t *testing.T) {
	for _, format := range []string{"json", "console", ""} {
		l, err := newLogger("debug", format)
		require.NoError(t, err, format)
		assert.NotNil(t, l)
	}
	_, err := newLogger("loud", "json")
	assert.Error(t, err)
	_, err = newLogger("info", "xml")
	assert.Error(t, err)
}
