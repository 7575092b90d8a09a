package config

const (
	defaultConfigPath      = "~/.config/tubesync/config.toml"
	defaultStageDir        = "~/.local/share/tubesync/stage"
	defaultQueueFile       = "~/.config/tubesync/queue.txt"
	defaultArchiveFile     = "~/.local/share/tubesync/archive.txt"
	defaultLockFile        = "~/.local/state/tubesync/tubesync.lock"
	defaultLogDir          = "~/.local/state/tubesync/logs"
	defaultFetchBinary     = "yt-dlp"
	defaultFetchFormat     = "bestvideo*+bestaudio/best"
	defaultOutputTemplate  = "%(title)s [%(id)s].%(ext)s"
	defaultDirectoryField  = FieldPlaylistTitle
	defaultDirectoryValue  = "NA"
	defaultStripPrefix     = "Uploads_from_"
	defaultXAttrTool       = "setfattr"
	defaultSubtitleFormat  = "srt/best"
	defaultRelocateBinary  = "rclone"
	defaultRelocateMode    = ModeMove
	defaultRelocateMinimum = "1.43"
	defaultLogFormat       = "console"
	defaultLogLevel        = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			StageDir:    defaultStageDir,
			QueueFile:   defaultQueueFile,
			ArchiveFile: defaultArchiveFile,
			LockFile:    defaultLockFile,
			LogDir:      defaultLogDir,
		},
		Fetch: Fetch{
			Binary:           defaultFetchBinary,
			Format:           defaultFetchFormat,
			OutputTemplate:   defaultOutputTemplate,
			DirectoryField:   defaultDirectoryField,
			DirectoryDefault: defaultDirectoryValue,
			StripPrefix:      defaultStripPrefix,
			XAttrTool:        defaultXAttrTool,
		},
		Subtitles: Subtitles{
			Languages: []string{"en"},
			Format:    defaultSubtitleFormat,
			Manual:    true,
		},
		Relocate: Relocate{
			Binary:     defaultRelocateBinary,
			Mode:       defaultRelocateMode,
			MinVersion: defaultRelocateMinimum,
		},
		Preflight: Preflight{
			RequiredTools: []string{"ffmpeg"},
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
