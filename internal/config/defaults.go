package config

const (
	defaultRegion              = 0
	defaultFieldTimeoutSeconds = 30
	defaultWorkers             = 4
	defaultCacheTTLMinutes     = 24 * 60
	defaultHTTPTimeoutSeconds  = 15
	defaultProbeTimeoutSeconds = 60
	defaultLogLevel            = "info"
	defaultLogFormat           = "text"
	defaultLogRetentionDays    = 30
	defaultGroupsDir           = "~/.movie-meta/groups"
)

// Default returns a configuration populated with default values.
func Default() *Config {
	return &Config{
		TMDB: TMDB{Languages: []string{"en-US"}},
		IMDb: IMDb{Languages: []string{"en-US"}},
		MediaInfo: MediaInfo{
			ProbeTimeoutSeconds: defaultProbeTimeoutSeconds,
		},
		Scrape: Scrape{
			Region:              defaultRegion,
			FieldTimeoutSeconds: defaultFieldTimeoutSeconds,
			Workers:             defaultWorkers,
			GroupsDir:           defaultGroupsDir,
			CacheTTLMinutes:     defaultCacheTTLMinutes,
			HTTPTimeoutSeconds:  defaultHTTPTimeoutSeconds,
		},
		Logging: Logging{
			Level:         defaultLogLevel,
			Format:        defaultLogFormat,
			RetentionDays: defaultLogRetentionDays,
		},
	}
}
