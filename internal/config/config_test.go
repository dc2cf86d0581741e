package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, content string) (string, string) {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	return dir, path
}

func TestLoad(t *testing.T) {
	tests := []struct {
		name    string
		content string
		check   func(t *testing.T, cfg *Config)
	}{
		{
			name:    "server and storage",
			content: "server:\n  host: \"127.0.0.1\"\n  port: 9000\nstorage:\n  database_path: \"binders.db\"\n",
			check: func(t *testing.T, cfg *Config) {
				if cfg.Server.Host != "127.0.0.1" || cfg.Server.Port != 9000 {
					t.Errorf("unexpected server config: %+v", cfg.Server)
				}
				if cfg.Storage.DatabasePath == "" || cfg.Storage.BleveIndexPath == "" {
					t.Errorf("storage paths should be set: %+v", cfg.Storage)
				}
				if cfg.Debug {
					t.Error("debug should default to false when unset")
				}
			},
		},
		{
			name:    "debug",
			content: "debug: true\n",
			check: func(t *testing.T, cfg *Config) {
				if !cfg.Debug {
					t.Error("debug should be true when set in config")
				}
			},
		},
		{
			name:    "empty file gets defaults",
			content: "",
			check: func(t *testing.T, cfg *Config) {
				if cfg.Server.Port != 8080 || cfg.Editor.ChunkWords != 120 {
					t.Errorf("defaults not applied: %+v", cfg)
				}
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, path := writeConfig(t, tt.content)
			cfg, err := Load(path)
			if err != nil {
				t.Fatal(err)
			}
			tt.check(t, cfg)
		})
	}
}

func TestLoad_invalidYAML(t *testing.T) {
	_, path := writeConfig(t, "server: [unclosed\n")
	if _, err := Load(path); err == nil {
		t.Error("expected parse error")
	}
}

func TestLoad_expandPathDotSlashRelativeToConfigDir(t *testing.T) {
	dir, path := writeConfig(t, `
server:
  host: "localhost"
  port: 8080
storage:
  database_path: "./data/db/binders.db"
watch:
  directories: ["./dev/inbox"]
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	wantDB := filepath.Join(dir, "data", "db", "binders.db")
	if cfg.Storage.DatabasePath != wantDB {
		t.Errorf("database_path = %s, want %s", cfg.Storage.DatabasePath, wantDB)
	}
	if len(cfg.Watch.Directories) != 1 {
		t.Fatalf("watch directories: got %d", len(cfg.Watch.Directories))
	}
	wantWatch := filepath.Join(dir, "dev", "inbox")
	if cfg.Watch.Directories[0] != wantWatch {
		t.Errorf("watch directory = %s, want %s", cfg.Watch.Directories[0], wantWatch)
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)
	if cfg.Server.Host != "localhost" {
		t.Errorf("default host: got %s", cfg.Server.Host)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("default port: got %d", cfg.Server.Port)
	}
	if cfg.Search.DefaultLimit != 10 {
		t.Errorf("default limit: got %d", cfg.Search.DefaultLimit)
	}
	if cfg.Search.TitleBoost != 10.0 {
		t.Errorf("default title_boost: got %f, want 10.0", cfg.Search.TitleBoost)
	}
	if cfg.Search.Fuzziness != 1 {
		t.Errorf("default fuzziness: got %d, want 1", cfg.Search.Fuzziness)
	}
	if !cfg.Editor.TrackChangesOrDefault() {
		t.Error("track_changes should default to true")
	}
	if cfg.Editor.Retries() != 3 {
		t.Errorf("default conflict_retries: got %d, want 3", cfg.Editor.Retries())
	}
	if cfg.Editor.ImportWorkers != 4 {
		t.Errorf("default import_workers: got %d, want 4", cfg.Editor.ImportWorkers)
	}
	if cfg.Editor.ChunkWords != 120 {
		t.Errorf("default chunk_words: got %d, want 120", cfg.Editor.ChunkWords)
	}
	if cfg.Editor.DefaultFitBehaviour != "fit" || cfg.Editor.DefaultBgColor != "transparent" {
		t.Errorf("default visual: got fit=%q bg=%q", cfg.Editor.DefaultFitBehaviour, cfg.Editor.DefaultBgColor)
	}
	if len(cfg.Watch.Extensions) != 1 || cfg.Watch.Extensions[0] != ".json" {
		t.Errorf("watch extensions: got %v", cfg.Watch.Extensions)
	}
}

func TestEditorConfig_Overrides(t *testing.T) {
	_, path := writeConfig(t, `
editor:
  track_changes: false
  conflict_retries: -1
  default_bg_color: "#000000"
  chunk_words: -1
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Editor.TrackChangesOrDefault() {
		t.Error("track_changes should stay false when set")
	}
	if cfg.Editor.Retries() != 0 {
		t.Errorf("negative conflict_retries should disable retries, got %d", cfg.Editor.Retries())
	}
	if cfg.Editor.DefaultBgColor != "#000000" {
		t.Errorf("default_bg_color = %q", cfg.Editor.DefaultBgColor)
	}
	if cfg.Editor.DefaultFitBehaviour != "fit" {
		t.Errorf("default_fit_behaviour = %q, want fit", cfg.Editor.DefaultFitBehaviour)
	}
	if cfg.Editor.ChunkWords != -1 {
		t.Errorf("chunk_words = %d, want -1 kept", cfg.Editor.ChunkWords)
	}
}

func TestApplyDefaults_WatchRecursiveWhenDirectoriesSet(t *testing.T) {
	cfg := &Config{Watch: WatchConfig{Directories: []string{"/tmp/inbox"}}}
	ApplyDefaults(cfg)
	if cfg.Watch.Recursive == nil || !*cfg.Watch.Recursive {
		t.Error("recursive should default to true when directories are set")
	}
}

func TestWatchConfig_RecursiveOrDefault(t *testing.T) {
	yes, no := true, false
	for _, tt := range []struct {
		name string
		v    *bool
		want bool
	}{
		{"unset", nil, true},
		{"true", &yes, true},
		{"false", &no, false},
	} {
		w := &WatchConfig{Recursive: tt.v}
		if got := w.RecursiveOrDefault(); got != tt.want {
			t.Errorf("%s: RecursiveOrDefault() = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestSave_PersistsWatchDirectories(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "saved.yaml")
	inbox := filepath.Join(dir, "inbox")
	cfg := &Config{
		Server:  ServerConfig{Host: "localhost", Port: 9090},
		Storage: StorageConfig{DatabasePath: filepath.Join(dir, "binders.db")},
		Watch:   WatchConfig{Directories: []string{inbox}, Extensions: []string{".json"}},
	}
	if err := Save(path, cfg); err != nil {
		t.Fatal(err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.Server.Port != 9090 {
		t.Errorf("loaded port: got %d", loaded.Server.Port)
	}
	if len(loaded.Watch.Directories) != 1 || loaded.Watch.Directories[0] != inbox {
		t.Errorf("watch directories: got %v", loaded.Watch.Directories)
	}
}
