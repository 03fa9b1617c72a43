package fileproc

import (
	"path/filepath"
	"strings"
)

// Kind buckets an uploaded file by what the bot can do with it.
type Kind string

const (
	KindText     Kind = "text"
	KindImage    Kind = "image"
	KindAudio    Kind = "audio"
	KindDocument Kind = "document"
	KindUnknown  Kind = "unknown"
)

var extensionKinds = map[string]Kind{
	".txt":  KindText,
	".csv":  KindText,
	".json": KindText,
	".xml":  KindText,
	".html": KindText,
	".md":   KindText,

	".jpg":  KindImage,
	".jpeg": KindImage,
	".png":  KindImage,
	".gif":  KindImage,
	".bmp":  KindImage,
	".tiff": KindImage,

	".mp3":  KindAudio,
	".wav":  KindAudio,
	".ogg":  KindAudio,
	".flac": KindAudio,
	".aac":  KindAudio,
	".m4a":  KindAudio,

	".pdf":  KindDocument,
	".doc":  KindDocument,
	".docx": KindDocument,
	".xls":  KindDocument,
	".xlsx": KindDocument,
	".ppt":  KindDocument,
	".pptx": KindDocument,
}

// Classify maps a file name to a Kind by extension, case-insensitively.
// Unrecognized extensions classify as KindUnknown.
func Classify(name string) Kind {
	ext := strings.ToLower(filepath.Ext(name))
	if kind, ok := extensionKinds[ext]; ok {
		return kind
	}
	return KindUnknown
}
