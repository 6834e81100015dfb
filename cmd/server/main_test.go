package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd(viper.New())
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestRenderCommand(t *testing.T) {
	data := writeFile(t, "output.csv", "Sex,Year,value\nF,2021,1.5\nM,2021,2\nF,2022,3\n")
	layout := writeFile(t, "layout.yaml", "rows: [{name: Sex, labels: {F: Female}}]\ncols: [{name: Year}]\n")

	out, err := run(t, "render", data, "--layout", layout, "--log-level", "error", "--plain")
	require.NoError(t, err)
	assert.Contains(t, out, "Female")
	assert.Contains(t, out, "2022")
	assert.Contains(t, out, "1.5")
}

func TestRenderCommandNoData(t *testing.T) {
	_, err := run(t, "render", "--log-level", "error")
	assert.Error(t, err)
}

func TestLogsCommand(t *testing.T) {
	path := writeFile(t, "logs.json", `[{"Status":"ready","Kind":"model","ModelDigest":"abc","RunDigest":"","WorksetName":"",
"IsFolder":true,"Folder":"m","FolderModTime":0,"IsZip":false,"ZipFileName":"","ZipModTime":0,"ZipSize":0,
"LogFileName":"m.ready.download.log","LogModTime":0,"Lines":[]}]`)

	out, err := run(t, "logs", path)
	require.NoError(t, err)
	assert.Contains(t, out, "abc")
	assert.Contains(t, out, "ready: 1")

	bad := writeFile(t, "bad.json", `{"Status":"ready"}`)
	_, err = run(t, "logs", bad)
	assert.ErrorIs(t, err, errNotDownloadLogs)
}

func TestFilesCommand(t *testing.T) {
	path := writeFile(t, "tree.json", `[{"Path":"m","IsDir":true,"Size":0,"ModTime":0},{"Path":"m/a.csv","IsDir":false,"Size":1500,"ModTime":0}]`)

	out, err := run(t, "files", path)
	require.NoError(t, err)
	assert.Contains(t, out, "m/a.csv")
	assert.Contains(t, out, "1.5 kB")

	_, err = run(t, "files", writeFile(t, "bad.json", `[1]`))
	assert.ErrorIs(t, err, errNotPathTree)
}
