package config

const (
	defaultConfigPath        = "~/.config/subremux/config.toml"
	defaultMediaDir          = "~/media/videos"
	defaultUploadDir         = "~/media/subs"
	defaultLogDir            = "~/.local/share/subremux/logs"
	defaultAPIBind           = "127.0.0.1:7488"
	defaultFFmpegBinary      = "ffmpeg"
	defaultProgressInterval  = 5
	defaultStderrLimitKiB    = 64
	defaultNameMaxLength     = 60
	defaultErrorDetailLength = 200
	defaultFallbackEncoding  = "windows-1251"
	defaultMaxUploadMiB      = 32
	defaultLogFormat         = "console"
	defaultLogLevel          = "info"
	defaultLogRetentionDays  = 30
	defaultNtfyTimeout       = 10
	apiTokenEnv              = "SUBREMUX_API_TOKEN"
	ffmpegBinaryEnv          = "SUBREMUX_FFMPEG"
)

var (
	defaultAllowedExtensions = []string{"srt", "sub"}
	defaultMediaExtensions   = []string{".mkv", ".mp4", ".avi", ".srt"}
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			MediaDir:  defaultMediaDir,
			UploadDir: defaultUploadDir,
			LogDir:    defaultLogDir,
			APIBind:   defaultAPIBind,
		},
		FFmpeg: FFmpeg{
			Binary:           defaultFFmpegBinary,
			ProgressInterval: defaultProgressInterval,
			StderrLimitKiB:   defaultStderrLimitKiB,
		},
		Jobs: Jobs{
			NameMaxLength:     defaultNameMaxLength,
			ErrorDetailLength: defaultErrorDetailLength,
		},
		Uploads: Uploads{
			AllowedExtensions: append([]string(nil), defaultAllowedExtensions...),
			FallbackEncoding:  defaultFallbackEncoding,
			MaxUploadMiB:      defaultMaxUploadMiB,
		},
		Library: Library{
			MediaExtensions: append([]string(nil), defaultMediaExtensions...),
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultLogRetentionDays,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNtfyTimeout,
		},
	}
}
