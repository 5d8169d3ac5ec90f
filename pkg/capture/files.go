package capture

import (
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
)

// OSFile is a File on the local filesystem. Its type comes from the file
// extension, falling back to content sniffing.
type OSFile struct {
	Path string
}

// Name implements File.
func (f OSFile) Name() string { return filepath.Base(f.Path) }

// Type implements File.
func (f OSFile) Type() string {
	if t := mime.TypeByExtension(filepath.Ext(f.Path)); t != "" {
		mediaType, _, err := mime.ParseMediaType(t)
		if err == nil {
			return mediaType
		}
		return t
	}

	fh, err := os.Open(f.Path)
	if err != nil {
		return ""
	}
	defer fh.Close()

	head := make([]byte, 512)
	n, _ := io.ReadFull(fh, head)
	mediaType, _, err := mime.ParseMediaType(http.DetectContentType(head[:n]))
	if err != nil {
		return ""
	}
	return mediaType
}

// Open implements File.
func (f OSFile) Open() (io.ReadCloser, error) {
	return os.Open(f.Path)
}

// MultipartFile adapts an uploaded form file.
type MultipartFile struct {
	Header *multipart.FileHeader
}

// Name implements File.
func (f MultipartFile) Name() string { return f.Header.Filename }

// Type implements File. It is the Content-Type the client declared.
func (f MultipartFile) Type() string {
	mediaType, _, err := mime.ParseMediaType(f.Header.Header.Get("Content-Type"))
	if err != nil {
		return ""
	}
	return mediaType
}

// Open implements File.
func (f MultipartFile) Open() (io.ReadCloser, error) {
	return f.Header.Open()
}
