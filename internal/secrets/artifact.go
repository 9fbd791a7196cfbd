package secrets

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/systmms/gsksync/internal/logging"
)

// ArtifactWriter persists intermediate secret documents to disk as a
// debugging aid. When no directory is configured every write is a no-op:
// the sync pipeline itself only ever hands documents off in memory.
type ArtifactWriter struct {
	dir    string
	logger *logging.Logger
}

// NewArtifactWriter creates a writer rooted at dir. An empty dir
// disables artifact output entirely.
func NewArtifactWriter(dir string, logger *logging.Logger) *ArtifactWriter {
	return &ArtifactWriter{dir: dir, logger: logger}
}

// Enabled reports whether artifacts will actually be written.
func (w *ArtifactWriter) Enabled() bool {
	return w != nil && w.dir != ""
}

// WriteRaw records the unparsed output fetched from a backend, named
// <backend>_<secretID>.yaml.
func (w *ArtifactWriter) WriteRaw(backend, secretID string, data []byte) {
	if !w.Enabled() {
		return
	}
	w.write(fmt.Sprintf("%s_%s.yaml", backend, secretID), data)
}

// WriteDocument records the normalized form of a decoded document, named
// <backend>_res.yaml.
func (w *ArtifactWriter) WriteDocument(backend string, doc Document) {
	if !w.Enabled() {
		return
	}
	data, err := EncodeYAML(doc)
	if err != nil {
		w.logger.Warn("skipping artifact for %s: %v", backend, err)
		return
	}
	w.write(fmt.Sprintf("%s_res.yaml", backend), data)
}

// write is best-effort: a failed artifact never fails the operation.
func (w *ArtifactWriter) write(name string, data []byte) {
	if err := os.MkdirAll(w.dir, 0o700); err != nil {
		w.logger.Warn("cannot create artifact dir %s: %v", w.dir, err)
		return
	}
	path := filepath.Join(w.dir, name)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		w.logger.Warn("cannot write artifact %s: %v", path, err)
		return
	}
	w.logger.Debug("wrote artifact %s", path)
}
