package fsutil

import (
	"fmt"
	"os"
	"path/filepath"
)

// ChannelDir creates the session-private directory that holds the
// channel pipes. The session ID keeps concurrent hosts apart even if
// the system temp dir is shared.
func ChannelDir(sessionID string) (string, error) {
	dir, err := os.MkdirTemp("", "gonwjs-"+sessionID+"-")
	if err != nil {
		return "", fmt.Errorf("creating channel directory: %w", err)
	}
	return dir, nil
}

// FindUp walks from dir toward the filesystem root looking for a file
// with the given name and returns its containing directory, or "" if
// no ancestor has one. Used to locate an app root by its package.json.
func FindUp(name, dir string) string {
	curDir := dir
	for {
		if _, err := os.Stat(filepath.Join(curDir, name)); err == nil {
			return curDir
		}
		newDir := filepath.Dir(curDir)
		if newDir == curDir {
			return ""
		}
		curDir = newDir
	}
}
