package fileproc

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
)

// EnsureMP3 returns a path to an mp3 rendition of the audio file. When the
// input is already mp3 the original path is returned with a no-op cleanup;
// otherwise ffmpeg converts into a sibling temp file and cleanup removes it.
func EnsureMP3(path string) (string, func(), error) {
	if strings.EqualFold(filepath.Ext(path), ".mp3") {
		return path, func() {}, nil
	}

	converted := strings.TrimSuffix(path, filepath.Ext(path)) + "_conv.mp3"
	cmd := exec.Command("ffmpeg", "-y", "-i", path, "-acodec", "libmp3lame", converted)
	if out, err := cmd.CombinedOutput(); err != nil {
		return "", nil, fmt.Errorf("ffmpeg conversion failed: %w: %s", err, string(out))
	}

	cleanup := func() {
		if err := os.Remove(converted); err != nil && !os.IsNotExist(err) {
			logrus.WithError(err).Warnf("failed to remove converted audio %s", converted)
		}
	}
	return converted, cleanup, nil
}
