// Package storage defines the vault file-system abstraction.
package storage

import "github.com/davidvkimball/cardbase/internal/models"

// Vault is the capability set for vault file operations. Notes, attachments,
// and folders are all addressed by slash-separated paths relative to the
// vault root.
type Vault interface {
	// List returns metadata for every .md file under dir (relative to vault root).
	List(dir string) ([]models.FileMeta, error)
	// ListFolder returns the relative path of every file (any type)
	// transitively contained in dir.
	ListFolder(dir string) ([]string, error)
	// Read returns the raw bytes of the file at path.
	Read(path string) ([]byte, error)
	// Write atomically writes content to path.
	Write(path string, content []byte) error
	// Delete removes the file at path.
	Delete(path string) error
	// DeleteFolder recursively removes the folder at path.
	DeleteFolder(path string) error
	// Exists reports whether a file or folder exists at path.
	Exists(path string) bool
	// Resolve maps a link target (wikilink text, relative path, or
	// vault-absolute path) to a vault-relative file path. contextPath is the
	// note the link appears in. Returns "" when the target does not resolve
	// to an existing file.
	Resolve(link, contextPath string) string
}
