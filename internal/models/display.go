package models

import (
	"time"

	"github.com/dustin/go-humanize"
)

// TimeStampLayout is the display format of file times.
const TimeStampLayout = "2006-01-02 15:04:05"

// TimeStamp formats milliseconds since epoch in local time, empty if not positive.
func TimeStamp(ms int64) string {
	if ms <= 0 {
		return ""
	}
	return time.UnixMilli(ms).Format(TimeStampLayout)
}

// FileSize is a human readable file size, for example: 82 MB.
func FileSize(size int64) string {
	if size < 0 {
		return ""
	}
	return humanize.Bytes(uint64(size))
}

// LogCounts is the number of download logs by status.
type LogCounts struct {
	Total    int
	Ready    int
	Progress int
	Error    int
}

// CountLogs counts download logs by status.
func CountLogs(logs []DownloadStatusLog) LogCounts {
	c := LogCounts{Total: len(logs)}
	for _, d := range logs {
		switch d.Status {
		case StatusReady:
			c.Ready++
		case StatusProgress:
			c.Progress++
		case StatusError:
			c.Error++
		}
	}
	return c
}

// IsKnownKind is true for model, run and workset downloads.
func IsKnownKind(kind string) bool {
	return kind == KindModel || kind == KindRun || kind == KindWorkset
}
