// Package uri defines the opaque asset-path type shared by every
// provider, plus the data-source and change-notification interfaces
// the asset pipeline depends on (owned by the windowing/filesystem
// layer, out of scope for this module).
package uri

import (
	"path"
	"strings"

	"github.com/kestrel3d/kestrel/pkg/hashcombine"
)

// URI identifies an asset within a mounted data source. Two URIs
// compare equal iff they resolve to the same bytes within a run.
type URI string

// Join appends a path segment to the parent URI, following the same
// slash-joining rules as a filesystem path.
func (u URI) Join(segment string) URI {
	if u == "" {
		return URI(segment)
	}
	return URI(path.Join(string(u), segment))
}

// Parent returns the URI with its final path segment removed.
func (u URI) Parent() URI {
	dir := path.Dir(string(u))
	if dir == "." {
		return ""
	}
	return URI(dir)
}

// Ext returns the lowercased file extension, without the leading dot.
func (u URI) Ext() string {
	return strings.ToLower(strings.TrimPrefix(path.Ext(string(u)), "."))
}

func (u URI) String() string { return string(u) }

func (u URI) IsEmpty() bool { return u == "" }

// Hash returns a process-stable hash of the URI's bytes, used as a
// cache key by providers that index by more than string equality
// (e.g. a secondary hash set for dependency tracking).
func (u URI) Hash() uint64 {
	return hashcombine.New().CombineBytes([]byte(u)).Sum()
}

// DataSource is the read-only file-system layer the engine mounts
// assets against. Implemented by the host application; the engine
// never opens files directly.
type DataSource interface {
	Read(uri URI) ([]byte, error)
	ReadText(uri URI) (string, error)
	ReadJSON(uri URI, out any) error
	MountPoint() string
	TrimToURI(absolutePath string) (URI, bool)
}

// Monitor observes a mounted data source for changes and lets
// providers subscribe to a single URI's modification signal.
type Monitor interface {
	// OnModified returns a channel that receives a value every time
	// uri's backing file changes. The channel is closed when the
	// subscription is dropped via Unsubscribe.
	OnModified(uri URI) <-chan struct{}
	Unsubscribe(uri URI, ch <-chan struct{})
}
