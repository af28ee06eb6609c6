package ledger

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
)

// FileStore persists the chain as indented JSON in a single file. Writes
// go to a temp file in the same directory and are renamed over the target,
// so a crash mid-write leaves the previous ledger intact.
type FileStore struct {
	path   string
	logger *zap.Logger
}

// NewFileStore creates a FileStore writing to path.
func NewFileStore(path string, logger *zap.Logger) *FileStore {
	return &FileStore{path: path, logger: logger}
}

// Persist implements Store.
func (s *FileStore) Persist(_ context.Context, blocks []*Block) error {
	data, err := json.MarshalIndent(blocks, "", "    ")
	if err != nil {
		return fmt.Errorf("marshal chain: %w", err)
	}

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp ledger file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write ledger: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close ledger temp file: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace ledger file: %w", err)
	}

	s.logger.Debug("ledger persisted", zap.String("path", s.path), zap.Int("blocks", len(blocks)))
	return nil
}

// Load implements Store. A missing file is a fresh install and yields an
// empty chain. A file that exists but cannot be parsed also yields an
// empty chain (fail open, with a loud warning) so the service boots and
// re-creates genesis instead of refusing to start.
func (s *FileStore) Load(_ context.Context) ([]*Block, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read ledger file: %w", err)
	}

	var blocks []*Block
	if err := json.Unmarshal(data, &blocks); err != nil {
		s.logger.Warn("ledger file is corrupt, starting with empty chain",
			zap.String("path", s.path),
			zap.Error(err),
		)
		return nil, nil
	}
	return blocks, nil
}
