package application

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync"
)

const (
	// AppName is the application name used for directories and identification
	AppName = "gitmon"
)

var (
	once   sync.Once
	appDir string
	errDir error
)

// ConfigDirectory returns the gitmon configuration directory path.
// Linux: ~/.config/gitmon (via os.UserConfigDir)
// Windows: C:\Users\{username}\AppData\Local\gitmon (via os.UserCacheDir)
func ConfigDirectory() (string, error) {
	once.Do(lazyLoad)

	if errDir != nil {
		return "", errDir
	}

	return appDir, nil
}

// LogDirectory returns the directory used for log files.
// Linux/macOS: ~/.local/share/gitmon; elsewhere it falls back to the config dir.
func LogDirectory() (string, error) {
	if runtime.GOOS == "linux" || runtime.GOOS == "darwin" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}

		return filepath.Join(home, ".local", "share", AppName), nil
	}

	return ConfigDirectory()
}

func lazyLoad() {
	var (
		baseDir string
		err     error
	)

	switch runtime.GOOS {
	case "windows":
		// Windows: use AppData\Local (via UserCacheDir)
		baseDir, err = os.UserCacheDir()
	default:
		// Linux/others: use ~/.config (via UserConfigDir)
		baseDir, err = os.UserConfigDir()
	}

	if err != nil {
		errDir = fmt.Errorf("failed to get config directory: %w", err)
		return
	}

	appDir = filepath.Join(baseDir, AppName)
}
