package mcpserver

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
)

const (
	maxAttachmentSize = 10 << 20 // 10 MB
	// fetchTimeout bounds how long a remote image URL may take to respond
	// before the upload gives up.
	fetchTimeout = 5 * time.Second
)

var (
	allowedExtensions = map[string]bool{
		".png": true, ".jpg": true, ".jpeg": true,
		".gif": true, ".webp": true, ".svg": true, ".pdf": true,
	}

	mimeToExt = map[string]string{
		"image/png":       ".png",
		"image/jpeg":      ".jpg",
		"image/gif":       ".gif",
		"image/webp":      ".webp",
		"image/svg+xml":   ".svg",
		"application/pdf": ".pdf",
	}

	safeFilenameRe = regexp.MustCompile(`[^a-zA-Z0-9._-]`)
)

type uploadResult struct {
	SavedPath     string `json:"savedPath"`
	MarkdownImage string `json:"markdownImage"`
}

func (s *Server) uploadAttachment(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	rawURL, err := req.RequireString("url")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	filename := req.GetString("filename", "")

	var data []byte
	var detectedExt string

	if strings.HasPrefix(rawURL, "data:") {
		data, detectedExt, err = decodeDataURI(rawURL)
	} else {
		data, detectedExt, err = fetchHTTP(ctx, rawURL)
	}
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if len(data) > maxAttachmentSize {
		return mcp.NewToolResultError(fmt.Sprintf("file too large: %d bytes (max %d)", len(data), maxAttachmentSize)), nil
	}

	if filename == "" {
		filename = filenameFromURL(rawURL, detectedExt)
	}
	filename = sanitizeFilename(filename)

	ext := strings.ToLower(filepath.Ext(filename))
	if !allowedExtensions[ext] {
		return mcp.NewToolResultError(fmt.Sprintf("unsupported file extension: %s (allowed: png, jpg, jpeg, gif, webp, svg, pdf)", ext)), nil
	}

	if err := validateMagicBytes(data, ext); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	savePath := path.Join("attachments", filename)
	if err := s.store.Write(savePath, data); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("save failed: %v", err)), nil
	}

	out, _ := json.MarshalIndent(uploadResult{
		SavedPath:     savePath,
		MarkdownImage: fmt.Sprintf("![](%s)", savePath),
	}, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

// fetchHTTP downloads the URL with a hard timeout and returns the body plus
// the extension implied by the Content-Type header.
func fetchHTTP(ctx context.Context, rawURL string) ([]byte, string, error) {
	u, err := url.Parse(rawURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return nil, "", fmt.Errorf("invalid URL: %s", rawURL)
	}

	ctx, cancel := context.WithTimeout(ctx, fetchTimeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, "", fmt.Errorf("build request: %w", err)
	}

	resp, err := http.DefaultClient.Do(httpReq)
	if err != nil {
		return nil, "", fmt.Errorf("fetch %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("fetch %s: status %d", rawURL, resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxAttachmentSize+1))
	if err != nil {
		return nil, "", fmt.Errorf("read body: %w", err)
	}

	mime := strings.TrimSpace(strings.SplitN(resp.Header.Get("Content-Type"), ";", 2)[0])
	return data, mimeToExt[mime], nil
}

// decodeDataURI parses a data: URI and returns its payload plus the extension
// implied by its MIME type.
func decodeDataURI(uri string) ([]byte, string, error) {
	rest := strings.TrimPrefix(uri, "data:")
	comma := strings.Index(rest, ",")
	if comma < 0 {
		return nil, "", fmt.Errorf("malformed data URI")
	}
	meta, payload := rest[:comma], rest[comma+1:]

	mime := meta
	base64Encoded := false
	if i := strings.Index(meta, ";"); i >= 0 {
		mime = meta[:i]
		base64Encoded = strings.Contains(meta[i:], "base64")
	}

	var data []byte
	var err error
	if base64Encoded {
		data, err = base64.StdEncoding.DecodeString(payload)
	} else {
		var unescaped string
		unescaped, err = url.QueryUnescape(payload)
		data = []byte(unescaped)
	}
	if err != nil {
		return nil, "", fmt.Errorf("decode data URI: %w", err)
	}
	return data, mimeToExt[mime], nil
}

// filenameFromURL derives a filename from the URL path, falling back to a
// generated name when the URL has none. detectedExt is appended when the
// name lacks an extension.
func filenameFromURL(rawURL, detectedExt string) string {
	name := ""
	if u, err := url.Parse(rawURL); err == nil {
		name = path.Base(u.Path)
	}
	if name == "" || name == "." || name == "/" {
		name = "upload-" + uuid.NewString()[:8]
	}
	if filepath.Ext(name) == "" && detectedExt != "" {
		name += detectedExt
	}
	return name
}

// sanitizeFilename strips anything but safe filename characters.
func sanitizeFilename(name string) string {
	name = filepath.Base(name)
	return safeFilenameRe.ReplaceAllString(name, "_")
}

// validateMagicBytes checks that the payload's leading bytes match the
// claimed extension, so a mislabelled file cannot masquerade as an image.
func validateMagicBytes(data []byte, ext string) error {
	ok := true
	switch ext {
	case ".png":
		ok = bytes.HasPrefix(data, []byte("\x89PNG\r\n\x1a\n"))
	case ".jpg", ".jpeg":
		ok = bytes.HasPrefix(data, []byte{0xFF, 0xD8, 0xFF})
	case ".gif":
		ok = bytes.HasPrefix(data, []byte("GIF87a")) || bytes.HasPrefix(data, []byte("GIF89a"))
	case ".webp":
		ok = len(data) >= 12 && bytes.Equal(data[0:4], []byte("RIFF")) && bytes.Equal(data[8:12], []byte("WEBP"))
	case ".pdf":
		ok = bytes.HasPrefix(data, []byte("%PDF"))
	case ".svg":
		head := bytes.TrimSpace(data)
		ok = bytes.HasPrefix(head, []byte("<")) &&
			(bytes.Contains(head[:min(len(head), 512)], []byte("<svg")) || bytes.HasPrefix(head, []byte("<?xml")))
	}
	if !ok {
		return fmt.Errorf("file content does not match extension %s", ext)
	}
	return nil
}
