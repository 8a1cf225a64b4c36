package app

const (
	Name                = "cellwatch"
	SourceURL           = "https://github.com/detekto/cellwatch"
	ConfigFilename      = "config.json"
	DBFilename          = "app.db"
	LogFilename         = "app.log"
	WriterQueueCapacity = 128
)
