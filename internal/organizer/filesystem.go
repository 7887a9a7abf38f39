package organizer

import "io/fs"

// FilesystemManager abstracts the filesystem mutations the executor, restorer,
// and sweeper perform, so the core can be tested against a scratch directory
// or a fake.
type FilesystemManager interface {
	// Stat returns file info for a path.
	Stat(path string) (fs.FileInfo, error)

	// Exists reports whether anything exists at path.
	Exists(path string) bool

	// Move relocates a file. Implementations must attempt an atomic rename
	// first and fall back to copy-then-verify-size-then-remove when source and
	// destination are on different volumes. Parent directories of the
	// destination are created as needed. Move never overwrites an existing
	// destination.
	Move(source, destination string) error

	// RemoveDir removes an empty directory. It fails if the directory is not
	// empty.
	RemoveDir(path string) error
}
