// Package artifact indexes the executables a build run produced, so they can
// be listed, downloaded and expired through the HTTP surface.
package artifact

// Store defines interface to track build artifacts
type Store interface {
	Add(name, path string) (string, error) // Add registers an artifact under the store dir, returns id
	Remove(id string) bool                 // Remove deletes an artifact by id
	Get(id string) (string, string)        // Get returns name and path by id, empty if not exists
	List() map[string]string               // List returns id to name mapping
}
