package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmptyDownloadLogShape(t *testing.T) {
	b, err := json.Marshal(EmptyDownloadLog())
	require.NoError(t, err)
	assert.True(t, IsDownloadLog(b))
	assert.JSONEq(t, `{
		"Status": "", "Kind": "", "ModelDigest": "", "RunDigest": "", "WorksetName": "",
		"IsFolder": false, "Folder": "", "FolderModTime": 0,
		"IsZip": false, "ZipFileName": "", "ZipModTime": 0, "ZipSize": 0,
		"LogFileName": "", "LogModTime": 0, "Lines": []
	}`, string(b))
}

func TestIsDownloadLog(t *testing.T) {
	d := EmptyDownloadLog()
	d.Status = StatusReady
	d.Kind = KindRun
	d.Lines = []string{"Run Digest: abc"}
	b, err := json.Marshal(d)
	require.NoError(t, err)
	assert.True(t, IsDownloadLog(b))

	assert.False(t, IsDownloadLog(json.RawMessage(`{"Status":"ready"}`)), "missing fields")
	assert.False(t, IsDownloadLog(json.RawMessage(`null`)))
	assert.False(t, IsDownloadLog(json.RawMessage(``)))
	assert.False(t, IsDownloadLog(json.RawMessage(`[1]`)))

	var m map[string]any
	require.NoError(t, json.Unmarshal(b, &m))
	m["Lines"] = "not an array"
	bad, err := json.Marshal(m)
	require.NoError(t, err)
	assert.False(t, IsDownloadLog(bad))
}

func TestDecodeDownloadLogList(t *testing.T) {
	a := EmptyDownloadLog()
	a.Status = StatusProgress
	b := EmptyDownloadLog()
	b.Status = StatusError
	raw, err := json.Marshal([]DownloadStatusLog{a, b})
	require.NoError(t, err)

	assert.True(t, IsDownloadLogList(raw))
	logs := DecodeDownloadLogList(raw)
	require.Len(t, logs, 2)
	assert.Equal(t, StatusError, logs[1].Status)

	assert.True(t, IsDownloadLogList(json.RawMessage(`[]`)))
	assert.False(t, IsDownloadLogList(json.RawMessage(`{}`)))
	assert.False(t, IsDownloadLogList(json.RawMessage(`[{}]`)))
	assert.Equal(t, []DownloadStatusLog{}, DecodeDownloadLogList(json.RawMessage(`[{}]`)), "invalid list degrades to empty")
}

func TestIsPathItem(t *testing.T) {
	assert.True(t, IsPathItem(json.RawMessage(`{"Path":"a/b.csv","IsDir":false,"Size":12,"ModTime":1700000000000}`)))
	assert.True(t, IsPathItem(json.RawMessage(`{"Path":"","IsDir":true,"Size":0,"ModTime":-1}`)))
	assert.False(t, IsPathItem(json.RawMessage(`{"Path":1,"IsDir":false,"Size":12,"ModTime":1}`)))
	assert.False(t, IsPathItem(json.RawMessage(`{"Path":"a","IsDir":"no","Size":12,"ModTime":1}`)))
	assert.False(t, IsPathItem(json.RawMessage(`{"Path":"a","IsDir":false,"Size":"12","ModTime":1}`)))
	assert.False(t, IsPathItem(json.RawMessage(`{"Path":"a","IsDir":false,"Size":12}`)))

	b, err := json.Marshal(EmptyPathItem())
	require.NoError(t, err)
	assert.JSONEq(t, `{"Path":"","IsDir":false,"Size":0,"ModTime":0}`, string(b))
}

func TestDecodePathItemTree(t *testing.T) {
	raw := json.RawMessage(`[{"Path":"d","IsDir":true,"Size":0,"ModTime":5},{"Path":"d/f","IsDir":false,"Size":3,"ModTime":6}]`)
	assert.True(t, IsPathItemTree(raw))
	assert.Equal(t, []PathItem{{Path: "d", IsDir: true, ModTime: 5}, {Path: "d/f", Size: 3, ModTime: 6}}, DecodePathItemTree(raw))

	assert.False(t, IsPathItemTree(json.RawMessage(`[{"Path":"d"}]`)))
	assert.Empty(t, DecodePathItemTree(json.RawMessage(`"x"`)))
}

func TestServiceConfig(t *testing.T) {
	c := EmptyConfig()
	b, err := json.Marshal(c)
	require.NoError(t, err)
	assert.True(t, IsServiceConfig(b))
	assert.Equal(t, int64(100), c.RowPageMaxSize)
	assert.Equal(t, "mpi.ModelRun.template.txt", c.RunCatalog.DefaultMpiTemplate)

	c.Env["OM_CFG_DEFAULT_RUN_TMPL"] = "run.template.txt"
	b, err = json.Marshal(c)
	require.NoError(t, err)
	got := DecodeServiceConfig(b)
	assert.Equal(t, "run.template.txt", got.EnvValue("OM_CFG_DEFAULT_RUN_TMPL"))
	assert.Equal(t, "", got.EnvValue("NONE"))

	assert.False(t, IsServiceConfig(json.RawMessage(`{"RootDir":""}`)))
	assert.False(t, IsServiceConfig(json.RawMessage(`{"RootDir":"","RowPageMaxSize":1,"AllowUserHome":false,"AllowDownload":false,"Env":{},
		"ModelCatalog":{"ModelDir":"","ModelLogDir":"","IsLogDirEnabled":false},
		"RunCatalog":{"RunTemplates":null,"DefaultMpiTemplate":"","MpiTemplates":[]}}`)), "templates must be arrays")
	assert.Equal(t, EmptyConfig(), DecodeServiceConfig(json.RawMessage(`[]`)))
}
