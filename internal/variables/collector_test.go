package variables_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/temirov/roleaudit/internal/filesystem"
	"github.com/temirov/roleaudit/internal/variables"
)

func writeFixture(testInstance *testing.T, rootPath string, relativePath string, contents string) {
	testInstance.Helper()
	targetPath := filepath.Join(rootPath, relativePath)
	require.NoError(testInstance, os.MkdirAll(filepath.Dir(targetPath), 0o755))
	require.NoError(testInstance, os.WriteFile(targetPath, []byte(contents), 0o644))
}

func TestCollectorCollectsEverySource(testInstance *testing.T) {
	rootPath := testInstance.TempDir()
	writeFixture(testInstance, rootPath, "vars/main.yml", "root_var: 1\nnested:\n  deep_key: true\n")
	writeFixture(testInstance, rootPath, "vars/extra.json", `{"json_var": 1}`)
	writeFixture(testInstance, rootPath, "inventory/hosts.yml", "all:\n  vars:\n    inventory_var: x\n")
	writeFixture(testInstance, rootPath, "inventory/hosts.ini", "[web]\nweb1 ansible_host=10.0.0.1 http_port=80\n\n[web:vars]\nweb_group_var=1\n")
	writeFixture(testInstance, rootPath, "group_vars/all/main.yml", "group_var: 1\n")
	writeFixture(testInstance, rootPath, "group_vars/web", "extensionless_group_var: 1\n")
	writeFixture(testInstance, rootPath, "host_vars/web1.yml", "host_var: 1\n")
	writeFixture(testInstance, rootPath, "roles/sample/defaults/main.yml", "role_default: 1\n")
	writeFixture(testInstance, rootPath, "roles/sample/vars/nested/main.yml", "role_var: 1\n")

	collector := variables.NewCollector(filesystem.NewOSFileSystem(), zap.NewNop())
	definedNames := collector.Collect(rootPath, []string{filepath.Join(rootPath, "roles", "sample")})

	for _, expectedName := range []string{
		"root_var", "nested", "deep_key", "json_var",
		"all", "vars", "inventory_var",
		"ansible_host", "http_port", "web_group_var",
		"group_var", "extensionless_group_var", "host_var",
		"role_default", "role_var",
	} {
		require.Truef(testInstance, definedNames.Contains(expectedName), "expected %s to be defined", expectedName)
	}
	require.False(testInstance, definedNames.Contains("web1"))
}

func TestCollectorSkipsBrokenSources(testInstance *testing.T) {
	rootPath := testInstance.TempDir()
	writeFixture(testInstance, rootPath, "vars/broken.yml", "key: [unterminated\n")
	writeFixture(testInstance, rootPath, "vars/valid.yml", "survivor: 1\n")

	observedCore, observedLogs := observer.New(zapcore.WarnLevel)
	collector := variables.NewCollector(filesystem.NewOSFileSystem(), zap.New(observedCore))

	definedNames := collector.Collect(rootPath, nil)
	require.Equal(testInstance, []string{"survivor"}, definedNames.Sorted())
	require.Equal(testInstance, 1, observedLogs.FilterField(zap.String("path", filepath.Join(rootPath, "vars", "broken.yml"))).Len())
}

func TestCollectorToleratesAbsentSources(testInstance *testing.T) {
	rootPath := testInstance.TempDir()

	observedCore, observedLogs := observer.New(zapcore.WarnLevel)
	collector := variables.NewCollector(filesystem.NewOSFileSystem(), zap.New(observedCore))

	definedNames := collector.Collect(rootPath, []string{filepath.Join(rootPath, "roles", "missing")})
	require.Empty(testInstance, definedNames)
	require.Zero(testInstance, observedLogs.Len())
}

func TestCollectorEmptyFileDefinesNothing(testInstance *testing.T) {
	rootPath := testInstance.TempDir()
	writeFixture(testInstance, rootPath, "roles/sample/defaults/main.yml", "---\n# intentionally empty\n")

	collector := variables.NewCollector(filesystem.NewOSFileSystem(), zap.NewNop())
	definedNames := collector.Collect(rootPath, []string{filepath.Join(rootPath, "roles", "sample")})
	require.Empty(testInstance, definedNames)
}

func TestParseINIInventory(testInstance *testing.T) {
	data := []byte("ungrouped_host\n\n[db]\ndb1 ansible_port=5432 replica=false\n\n[db:vars]\ndb_name = main\n\n[all:children]\ndb\n")
	definedNames, parseError := variables.ParseINIInventory("hosts", data)
	require.NoError(testInstance, parseError)
	require.Equal(testInstance, []string{"ansible_port", "db_name", "replica"}, definedNames.Sorted())
}
