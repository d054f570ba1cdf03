package service

import (
	"bytes"
	"fmt"
	"mime"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/h2non/filetype"
	"github.com/ledongthuc/pdf"
)

const (
	mimePDF         = "application/pdf"
	mimeOctetStream = "application/octet-stream"
)

// normalizeMime lowercases a Content-Type and drops its parameters.
func normalizeMime(ct string) string {
	ct = strings.TrimSpace(strings.ToLower(ct))
	if mt, _, err := mime.ParseMediaType(ct); err == nil {
		return mt
	}
	if idx := strings.Index(ct, ";"); idx >= 0 {
		ct = strings.TrimSpace(ct[:idx])
	}
	return ct
}

// sniffMime returns the MIME type recognised from the content's magic
// numbers, or "" when filetype does not know it.
func sniffMime(data []byte) string {
	head := data
	if len(head) > 8192 {
		head = head[:8192]
	}
	kind, err := filetype.Match(head)
	if err != nil || kind == filetype.Unknown {
		return ""
	}
	return kind.MIME.Value
}

// detectContentType guesses from the file extension.
func detectContentType(fileName string) string {
	ext := strings.ToLower(filepath.Ext(fileName))
	types := map[string]string{
		".pdf":  mimePDF,
		".png":  "image/png",
		".jpg":  "image/jpeg",
		".jpeg": "image/jpeg",
		".gif":  "image/gif",
		".doc":  "application/msword",
		".docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
		".txt":  "text/plain",
		".zip":  "application/zip",
	}
	if ct, ok := types[ext]; ok {
		return ct
	}
	return mimeOctetStream
}

// resolveMime decides the effective type of an upload. A generic or
// missing declared type is replaced by what the content says, then by
// the extension. A declared type that the content contradicts is
// reported as the sniffed type so policy checks see the truth.
func resolveMime(declared, fileName string, data []byte) string {
	declared = normalizeMime(declared)
	sniffed := sniffMime(data)
	if declared == "" || declared == mimeOctetStream {
		if sniffed != "" {
			return sniffed
		}
		return detectContentType(fileName)
	}
	if sniffed != "" && sniffed != declared {
		return sniffed
	}
	return declared
}

// extensionFor returns the stored-name extension, preferring the original
// file's own extension when it is plain ASCII alphanumerics.
func extensionFor(fileName, mimeType string) string {
	ext := strings.ToLower(filepath.Ext(fileName))
	if len(ext) > 1 && len(ext) <= 10 && plainExt(ext[1:]) {
		return ext
	}
	if mimeType == mimePDF {
		return ".pdf"
	}
	if exts, _ := mime.ExtensionsByType(mimeType); len(exts) > 0 {
		return exts[0]
	}
	return ".bin"
}

func plainExt(s string) bool {
	for _, c := range s {
		if (c < 'a' || c > 'z') && (c < '0' || c > '9') {
			return false
		}
	}
	return true
}

// pdfPageCount parses data as PDF and returns its page count. The PDF
// reader panics on some malformed input, so that is treated as unparsable.
func pdfPageCount(data []byte) (pages int, err error) {
	defer func() {
		if r := recover(); r != nil {
			pages, err = 0, fmt.Errorf("pdf: %v", r)
		}
	}()
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return 0, err
	}
	return r.NumPage(), nil
}

// sanitizeFilename strips directory parts and control characters from a
// client-supplied name.
func sanitizeFilename(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	if idx := strings.LastIndex(name, "/"); idx >= 0 {
		name = name[idx+1:]
	}
	name = strings.Map(func(r rune) rune {
		if r < 0x20 || r == 0x7f {
			return -1
		}
		return r
	}, name)
	name = strings.Trim(name, " .")
	if len(name) > 255 {
		ext := filepath.Ext(name)
		if len(ext) > 16 {
			ext = ""
		}
		cut := 255 - len(ext)
		for cut > 0 && !utf8.RuneStart(name[cut]) {
			cut--
		}
		name = name[:cut] + ext
	}
	if name == "" {
		name = "unnamed"
	}
	return name
}
