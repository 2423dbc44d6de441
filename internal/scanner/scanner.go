// Package scanner recursively enumerates a registered folder's media files,
// classifying each by extension into video/photo/audio, generalizing the
// teacher's internal/scanner media-extension walk into the three media
// types FindIt indexes.
package scanner

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/findit-app/findit/internal/models"
)

var videoExt = map[string]bool{
	".mp4": true, ".mkv": true, ".mov": true, ".avi": true, ".m4v": true,
	".wmv": true, ".webm": true, ".ts": true, ".m2ts": true, ".mpg": true,
	".mpeg": true, ".r3d": true, ".braw": true,
}

var photoExt = map[string]bool{
	".jpg": true, ".jpeg": true, ".png": true, ".heic": true, ".gif": true,
	".webp": true, ".bmp": true, ".tiff": true,
}

var audioExt = map[string]bool{
	".mp3": true, ".flac": true, ".aac": true, ".ogg": true, ".wav": true,
	".m4a": true, ".m4b": true, ".opus": true,
}

// Classify returns the MediaType for a file extension, and ok=false when
// the extension is not part of the indexed media set at all.
func Classify(path string) (models.MediaType, bool) {
	ext := strings.ToLower(filepath.Ext(path))
	switch {
	case videoExt[ext]:
		return models.MediaTypeVideo, true
	case photoExt[ext]:
		return models.MediaTypePhoto, true
	case audioExt[ext]:
		return models.MediaTypeAudio, true
	}
	return "", false
}

// IsMediaExtension reports whether ext (including the dot) belongs to any
// of the three indexed media sets. Used by the watcher to filter events.
func IsMediaExtension(ext string) bool {
	ext = strings.ToLower(ext)
	return videoExt[ext] || photoExt[ext] || audioExt[ext]
}

// Entry is one discovered file, already classified.
type Entry struct {
	Path      string
	MediaType models.MediaType
	ByteSize  int64
	ModTime   int64
}

// Walk recursively enumerates root, skipping the `.clip-index/` management
// directory and any path component that is not a regular media file.
func Walk(root string) ([]Entry, error) {
	var out []Entry
	err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil // skip inaccessible entries, don't abort the whole walk
		}
		if info.IsDir() {
			if info.Name() == ".clip-index" {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.Contains(path, string(filepath.Separator)+".clip-index"+string(filepath.Separator)) {
			return nil
		}
		mt, ok := Classify(path)
		if !ok {
			return nil
		}
		out = append(out, Entry{Path: path, MediaType: mt, ByteSize: info.Size(), ModTime: info.ModTime().Unix()})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
