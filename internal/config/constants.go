package config

import (
	"os"
	"path/filepath"
)

const (
	// Temporary directory name under the system temp dir
	WorkDirName = "captioner"

	// Padding subtracted from the frame width when fitting caption text
	DefaultTextPadding = 40

	// Caption style applied to cues that leave it unset
	DefaultFontSize    = 36
	DefaultTextColor   = "#FFFFFF"
	DefaultStrokeColor = "#000000"
	DefaultStrokeWidth = 2
)

func DefaultWorkDir() string {
	return filepath.Join(os.TempDir(), WorkDirName)
}
