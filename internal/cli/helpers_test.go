package cli_test

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rshade/boqlca/internal/cli"
	"github.com/rshade/boqlca/internal/config"
)

const catalogYAML = `schema_version: "1.0.0"
entries:
  - id: c1
    name: Concrete C30/37
    density: 2400
    gwp_per_kg: 0.12345
    burden_per_kg: 150
    energy_per_kg: 0.9
  - id: s1
    name: Reinforcing steel
    density: 7850
    gwp_per_kg: 0.68
    burden_per_kg: 3300
    energy_per_kg: 13.1
  - id: s2
    name: Steel profile
    density: 7850
    gwp_per_kg: 0.68
`

const inventoryCSV = "element;material;quantity;unit\n" +
	"Wall;Concrete C30/37;2,5;m3\n" +
	"Wall;Wall area;10;m2\n"

// setupCLITest isolates the global config directory and project overlay and
// resets global state afterwards.
func setupCLITest(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv(config.EnvHome, home)
	t.Setenv(config.EnvProjectDir, filepath.Join(t.TempDir(), config.ProjectDirName))
	t.Setenv(config.EnvLogLevel, "error")
	t.Cleanup(func() {
		config.ResetGlobalConfigForTest()
		config.SetResolvedProjectDir("")
	})
	return home
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

// run executes the root command with args and returns stdout and stderr.
func run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := cli.NewRootCmd("test")
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}
