package config

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Storage.DatabasePath == "" {
		cfg.Storage.DatabasePath = "/usr/local/var/binders/data/db/binders.db"
	}
	if cfg.Storage.BleveIndexPath == "" {
		cfg.Storage.BleveIndexPath = "/usr/local/var/binders/data/indices/bleve"
	}
	if cfg.Editor.TrackChanges == nil {
		t := true
		cfg.Editor.TrackChanges = &t
	}
	if cfg.Editor.ConflictRetries == 0 {
		cfg.Editor.ConflictRetries = 3
	}
	if cfg.Editor.ImportWorkers <= 0 {
		cfg.Editor.ImportWorkers = 4
	}
	if cfg.Editor.ChunkWords == 0 {
		cfg.Editor.ChunkWords = 120
	}
	if cfg.Editor.DefaultFitBehaviour == "" {
		cfg.Editor.DefaultFitBehaviour = "fit"
	}
	if cfg.Editor.DefaultBgColor == "" {
		cfg.Editor.DefaultBgColor = "transparent"
	}
	if cfg.Search.DefaultLimit == 0 {
		cfg.Search.DefaultLimit = 10
	}
	if cfg.Search.MaxLimit == 0 {
		cfg.Search.MaxLimit = 100
	}
	if cfg.Search.TitleBoost == 0 {
		cfg.Search.TitleBoost = 10.0
	}
	if cfg.Search.Fuzziness == 0 {
		cfg.Search.Fuzziness = 1
	}
	if cfg.Watch.Extensions == nil {
		cfg.Watch.Extensions = []string{".json"}
	}
	// Recursive defaults to true when unset (nil).
	if len(cfg.Watch.Directories) > 0 && cfg.Watch.Recursive == nil {
		t := true
		cfg.Watch.Recursive = &t
	}
}
