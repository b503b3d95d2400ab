// Package production provides production integrations: snapshot persistence,
// lifecycle publishing and trace storage, and sensitivity-graph visualization.
package production

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/comalice/simkernel/internal/core"
)

// JSONPersister is a file-based persister using JSON serialization.
type JSONPersister struct {
	dir string
}

// NewJSONPersister creates a JSONPersister, ensuring the directory exists.
func NewJSONPersister(dir string) (*JSONPersister, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("mkdir %s: %w", dir, err)
	}
	return &JSONPersister{dir: dir}, nil
}

func (p *JSONPersister) Save(ctx context.Context, snapshot core.SimSnapshot) error {
	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return fmt.Errorf("json marshal: %w", err)
	}
	return writeSnapshot(ctx, filepath.Join(p.dir, snapshot.SimID+".json"), data)
}

func (p *JSONPersister) Load(ctx context.Context, simID string) (core.SimSnapshot, error) {
	data, err := readSnapshot(ctx, filepath.Join(p.dir, simID+".json"), simID)
	if err != nil {
		return core.SimSnapshot{}, err
	}

	var snapshot core.SimSnapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return core.SimSnapshot{}, fmt.Errorf("json unmarshal: %w", err)
	}
	snapshot.SimID = simID
	return snapshot, nil
}

// YAMLPersister is a file-based persister using YAML serialization.
type YAMLPersister struct {
	dir string
}

// NewYAMLPersister creates a YAMLPersister, ensuring the directory exists.
func NewYAMLPersister(dir string) (*YAMLPersister, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("mkdir %s: %w", dir, err)
	}
	return &YAMLPersister{dir: dir}, nil
}

func (p *YAMLPersister) Save(ctx context.Context, snapshot core.SimSnapshot) error {
	data, err := yaml.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("yaml marshal: %w", err)
	}
	return writeSnapshot(ctx, filepath.Join(p.dir, snapshot.SimID+".yaml"), data)
}

func (p *YAMLPersister) Load(ctx context.Context, simID string) (core.SimSnapshot, error) {
	data, err := readSnapshot(ctx, filepath.Join(p.dir, simID+".yaml"), simID)
	if err != nil {
		return core.SimSnapshot{}, err
	}

	var snapshot core.SimSnapshot
	if err := yaml.Unmarshal(data, &snapshot); err != nil {
		return core.SimSnapshot{}, fmt.Errorf("yaml unmarshal: %w", err)
	}
	snapshot.SimID = simID
	return snapshot, nil
}

// NewPersister returns the persister for format ("json" or "yaml").
func NewPersister(format, dir string) (core.Persister, error) {
	switch format {
	case "json", "":
		return NewJSONPersister(dir)
	case "yaml", "yml":
		return NewYAMLPersister(dir)
	default:
		return nil, fmt.Errorf("unknown snapshot format %q", format)
	}
}

func writeSnapshot(ctx context.Context, fn string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.WriteFile(fn, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", fn, err)
	}
	return nil
}

func readSnapshot(ctx context.Context, fn, simID string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(fn)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("sim %q: %w", simID, os.ErrNotExist)
		}
		return nil, fmt.Errorf("read %s: %w", fn, err)
	}
	return data, nil
}
