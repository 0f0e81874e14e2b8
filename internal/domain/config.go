package domain

import "time"

// Config represents the application configuration
type Config struct {
	Server       ServerConfig       `mapstructure:"server"`
	Download     DownloadConfig     `mapstructure:"download"`
	Queue        QueueConfig        `mapstructure:"queue"`
	Notification NotificationConfig `mapstructure:"notification"`
	Logging      LoggingConfig      `mapstructure:"logging"`
}

// ServerConfig contains server-related configuration
type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

// DownloadConfig contains download-related configuration
type DownloadConfig struct {
	OutputDir      string        `mapstructure:"output_dir"`
	LogsDir        string        `mapstructure:"logs_dir"`
	YTDLPBinary    string        `mapstructure:"ytdlp_binary"`
	FFmpegLocation string        `mapstructure:"ffmpeg_location"`
	WorkerCount    int           `mapstructure:"worker_count"`
	KillGrace      time.Duration `mapstructure:"kill_grace"`
	LimitRate      string        `mapstructure:"limit_rate"`
	ThrottledRate  string        `mapstructure:"throttled_rate"`
	CustomOptions  string        `mapstructure:"custom_options"`
}

// QueueConfig contains queue-related configuration
type QueueConfig struct {
	DatabasePath string        `mapstructure:"database_path"`
	FetchTimeout time.Duration `mapstructure:"fetch_timeout"` // describe/list query deadline
}

// NotificationConfig contains notification-related configuration
type NotificationConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Method  string `mapstructure:"method"` // osascript, notify-send
}

// LoggingConfig contains logging-related configuration
type LoggingConfig struct {
	Level      string `mapstructure:"level"`       // debug, info, warn, error
	Format     string `mapstructure:"format"`      // json, console
	OutputPath string `mapstructure:"output_path"` // stdout, stderr, or file path
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host: "localhost",
			Port: 8090,
		},
		Download: DownloadConfig{
			OutputDir:   "$HOME/Downloads",
			LogsDir:     "$HOME/.ytq/logs",
			YTDLPBinary: "yt-dlp",
			WorkerCount: 1,
			KillGrace:   4 * time.Second,
		},
		Queue: QueueConfig{
			DatabasePath: "$HOME/.ytq/queue.db",
			FetchTimeout: 2 * time.Minute,
		},
		Notification: NotificationConfig{
			Enabled: false,
			Method:  "notify-send",
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "console",
			OutputPath: "stdout",
		},
	}
}
