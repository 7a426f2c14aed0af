package travel

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// LocalKey is the single namespaced record under which all locally-backed
// visited sets are stored.
const LocalKey = "trailmark.visited"

// localSets is the persisted layout: three plain id arrays.
type localSets struct {
	States       []string `json:"states"`
	MLBBallparks []string `json:"mlb_ballparks"`
	NFLStadiums  []string `json:"nfl_stadiums"`
}

// KV is the injected key/value capability backing the local preference
// store. Get returns (nil, nil) for an absent key.
type KV interface {
	Get(key string) ([]byte, error)
	Set(key string, value []byte) error
}

// Navigator is the injected redirect capability used by the session-expiry
// path.
type Navigator interface {
	ToLogin()
}

// FileKV stores each key as a JSON file in a directory. It is the CLI's
// stand-in for browser local storage.
type FileKV struct {
	Dir string
}

func NewFileKV(dir string) (*FileKV, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("ensure kv dir: %w", err)
	}
	return &FileKV{Dir: dir}, nil
}

func (f *FileKV) path(key string) string {
	return filepath.Join(f.Dir, key+".json")
}

func (f *FileKV) Get(key string) ([]byte, error) {
	data, err := os.ReadFile(f.path(key))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("kv get %s: %w", key, err)
	}
	return data, nil
}

func (f *FileKV) Set(key string, value []byte) error {
	if err := os.WriteFile(f.path(key), value, 0o644); err != nil {
		return fmt.Errorf("kv set %s: %w", key, err)
	}
	return nil
}

// MemKV is an in-memory KV for tests.
type MemKV struct {
	data map[string][]byte
}

func NewMemKV() *MemKV {
	return &MemKV{data: make(map[string][]byte)}
}

func (m *MemKV) Get(key string) ([]byte, error) {
	v, ok := m.data[key]
	if !ok {
		return nil, nil
	}
	return v, nil
}

func (m *MemKV) Set(key string, value []byte) error {
	m.data[key] = append([]byte(nil), value...)
	return nil
}

func decodeLocalSets(data []byte) (localSets, error) {
	var ls localSets
	if len(data) == 0 {
		return ls, nil
	}
	if err := json.Unmarshal(data, &ls); err != nil {
		return localSets{}, fmt.Errorf("decode local sets: %w", err)
	}
	return ls, nil
}
