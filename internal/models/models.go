package models

// Download status and kind values of DownloadStatusLog.
const (
	StatusProgress = "progress"
	StatusReady    = "ready"
	StatusError    = "error"

	KindModel   = "model"
	KindRun     = "run"
	KindWorkset = "workset"
	KindDelete  = "delete"
)

// DownloadStatusLog is download status info and content of log file
type DownloadStatusLog struct {
	Status        string   // if not empty then one of: progress ready error
	Kind          string   // if not empty then one of: model, run, workset or delete
	ModelDigest   string   // content of "Model Digest:"
	RunDigest     string   // content of "Run  Digest:"
	WorksetName   string   // content of "Scenario Name:"
	IsFolder      bool     // if true then download folder exist
	Folder        string   // content of "Folder:"
	FolderModTime int64    // folder modification time in milliseconds since epoch
	IsZip         bool     // if true then download zip exist
	ZipFileName   string   // zip file name
	ZipModTime    int64    // zip modification time in milliseconds since epoch
	ZipSize       int64    // zip file size
	LogFileName   string   // log file name
	LogModTime    int64    // log file modification time in milliseconds since epoch
	Lines         []string // file content
}

// EmptyDownloadLog returns download log with all fields set to zero values and empty Lines.
func EmptyDownloadLog() DownloadStatusLog {
	return DownloadStatusLog{Lines: []string{}}
}

// PathItem is a file info after tree walk: relative path, size and modification time
type PathItem struct {
	Path    string // file path in / slash form
	IsDir   bool   // if true then it is a directory
	Size    int64  // file size (may be zero for directories)
	ModTime int64  // file modification time in milliseconds since epoch
}

// EmptyPathItem returns zero path item
func EmptyPathItem() PathItem { return PathItem{} }

// ServiceConfig is the model server configuration visible to the UI.
type ServiceConfig struct {
	RootDir        string
	RowPageMaxSize int64
	AllowUserHome  bool
	AllowDownload  bool
	Env            map[string]string
	ModelCatalog   ModelCatalogConfig
	RunCatalog     RunCatalogConfig
}

type ModelCatalogConfig struct {
	ModelDir        string
	ModelLogDir     string
	IsLogDirEnabled bool
	LastTimeStamp   string
}

type RunCatalogConfig struct {
	RunTemplates       []string
	DefaultMpiTemplate string
	MpiTemplates       []string
}

const (
	defaultRowPageMaxSize = 100
	defaultMpiTemplate    = "mpi.ModelRun.template.txt"
)

// EmptyConfig returns service configuration defaults
func EmptyConfig() ServiceConfig {
	return ServiceConfig{
		RowPageMaxSize: defaultRowPageMaxSize,
		Env:            map[string]string{},
		RunCatalog: RunCatalogConfig{
			RunTemplates:       []string{},
			DefaultMpiTemplate: defaultMpiTemplate,
			MpiTemplates:       []string{},
		},
	}
}

// EnvValue returns server environment variable by key or empty string.
func (c ServiceConfig) EnvValue(key string) string {
	return c.Env[key]
}
