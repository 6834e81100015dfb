package models

import (
	"bytes"
	"encoding/json"
)

var downloadLogFields = []string{
	"Status", "Kind", "ModelDigest", "RunDigest", "WorksetName",
	"IsFolder", "Folder", "FolderModTime",
	"IsZip", "ZipFileName", "ZipModTime", "ZipSize",
	"LogFileName", "LogModTime", "Lines",
}

// jsonKind returns first significant byte of JSON value:
// '{' object, '[' array, '"' string, 't' or 'f' boolean, 'n' null, '0' number, 0 if empty.
func jsonKind(raw json.RawMessage) byte {
	b := bytes.TrimSpace(raw)
	if len(b) == 0 {
		return 0
	}
	switch c := b[0]; {
	case c == '-' || (c >= '0' && c <= '9'):
		return '0'
	default:
		return c
	}
}

func asObject(raw json.RawMessage) (map[string]json.RawMessage, bool) {
	if jsonKind(raw) != '{' {
		return nil, false
	}
	var m map[string]json.RawMessage
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, false
	}
	return m, true
}

func asArray(raw json.RawMessage) ([]json.RawMessage, bool) {
	if jsonKind(raw) != '[' {
		return nil, false
	}
	var a []json.RawMessage
	if err := json.Unmarshal(raw, &a); err != nil {
		return nil, false
	}
	return a, true
}

func hasAll(m map[string]json.RawMessage, names ...string) bool {
	for _, n := range names {
		if _, ok := m[n]; !ok {
			return false
		}
	}
	return true
}

// IsDownloadLog returns true if raw is a download log status info (it can be empty or incomplete)
func IsDownloadLog(raw json.RawMessage) bool {
	m, ok := asObject(raw)
	if !ok || !hasAll(m, downloadLogFields...) {
		return false
	}
	return jsonKind(m["Lines"]) == '['
}

// IsDownloadLogList returns true if raw is an array and each element IsDownloadLog
func IsDownloadLogList(raw json.RawMessage) bool {
	a, ok := asArray(raw)
	if !ok {
		return false
	}
	for _, d := range a {
		if !IsDownloadLog(d) {
			return false
		}
	}
	return true
}

// IsPathItem returns true if raw is a path item with fields of expected types
func IsPathItem(raw json.RawMessage) bool {
	m, ok := asObject(raw)
	if !ok || !hasAll(m, "Path", "IsDir", "Size", "ModTime") {
		return false
	}
	isDir := jsonKind(m["IsDir"])
	return jsonKind(m["Path"]) == '"' &&
		(isDir == 't' || isDir == 'f') &&
		jsonKind(m["Size"]) == '0' &&
		jsonKind(m["ModTime"]) == '0'
}

// IsPathItemTree returns true if raw is an array of path items
func IsPathItemTree(raw json.RawMessage) bool {
	a, ok := asArray(raw)
	if !ok {
		return false
	}
	for _, p := range a {
		if !IsPathItem(p) {
			return false
		}
	}
	return true
}

// IsServiceConfig returns true if raw is a service config (it can be empty)
func IsServiceConfig(raw json.RawMessage) bool {
	m, ok := asObject(raw)
	if !ok || !hasAll(m, "RootDir", "RowPageMaxSize", "AllowUserHome", "AllowDownload", "Env", "ModelCatalog", "RunCatalog") {
		return false
	}
	mc, ok := asObject(m["ModelCatalog"])
	if !ok || !hasAll(mc, "ModelDir", "ModelLogDir", "IsLogDirEnabled") {
		return false
	}
	rc, ok := asObject(m["RunCatalog"])
	if !ok || !hasAll(rc, "RunTemplates", "DefaultMpiTemplate", "MpiTemplates") {
		return false
	}
	return jsonKind(rc["RunTemplates"]) == '[' && jsonKind(rc["MpiTemplates"]) == '['
}

// DecodeDownloadLogList returns download logs or empty list if raw is not a valid list.
func DecodeDownloadLogList(raw json.RawMessage) []DownloadStatusLog {
	var dst []DownloadStatusLog
	if !IsDownloadLogList(raw) || json.Unmarshal(raw, &dst) != nil {
		return []DownloadStatusLog{}
	}
	for k := range dst {
		if dst[k].Lines == nil {
			dst[k].Lines = []string{}
		}
	}
	return dst
}

// DecodePathItemTree returns path items or empty list if raw is not a valid tree.
func DecodePathItemTree(raw json.RawMessage) []PathItem {
	var dst []PathItem
	if !IsPathItemTree(raw) || json.Unmarshal(raw, &dst) != nil {
		return []PathItem{}
	}
	return dst
}

// DecodeServiceConfig returns service config or EmptyConfig if raw is not a config.
func DecodeServiceConfig(raw json.RawMessage) ServiceConfig {
	c := EmptyConfig()
	if !IsServiceConfig(raw) || json.Unmarshal(raw, &c) != nil {
		return EmptyConfig()
	}
	if c.Env == nil {
		c.Env = map[string]string{}
	}
	return c
}
