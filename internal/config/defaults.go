package config

const (
	defaultStagingDir = "~/.cache/radiobank/staging"
	defaultLogDir     = "~/.local/share/radiobank/logs"
	defaultReportDB   = "~/.local/share/radiobank/report.db"

	defaultCatalogSource     = "ubuweb"
	defaultIndexURL          = "https://www.ubu.com/sound/index.html"
	defaultRequestTimeout    = 60
	defaultRequestsPerSecond = 4.0

	// Layout of the Radio Music module: 16 banks of 12 stations, each
	// roughly half an hour, clips drawn from 5 distinct sections.
	defaultBanks        = 16
	defaultStations     = 12
	defaultMinutes      = 30
	defaultDiversity    = 5
	defaultMinFillRatio = 0.0

	// Sample format the module firmware reads.
	defaultSampleRate       = 44100
	defaultBitDepth         = 16
	defaultChannels         = 1
	defaultCrossfadeSeconds = 2
	defaultSoxBinary        = "sox"

	defaultWorkers = 1

	defaultLogLevel  = "info"
	defaultLogFormat = "console"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			StagingDir: defaultStagingDir,
			LogDir:     defaultLogDir,
			ReportDB:   defaultReportDB,
		},
		Catalog: Catalog{
			Source:            defaultCatalogSource,
			IndexURL:          defaultIndexURL,
			RequestTimeout:    defaultRequestTimeout,
			RequestsPerSecond: defaultRequestsPerSecond,
		},
		Bank: Bank{
			Banks:        defaultBanks,
			Stations:     defaultStations,
			Minutes:      defaultMinutes,
			Diversity:    defaultDiversity,
			MinFillRatio: defaultMinFillRatio,
		},
		Audio: Audio{
			SampleRate:       defaultSampleRate,
			BitDepth:         defaultBitDepth,
			Channels:         defaultChannels,
			CrossfadeSeconds: defaultCrossfadeSeconds,
			SoxBinary:        defaultSoxBinary,
		},
		Run: Run{
			Workers: defaultWorkers,
		},
		Log: Log{
			Level:  defaultLogLevel,
			Format: defaultLogFormat,
		},
	}
}
