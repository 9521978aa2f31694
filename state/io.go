package state

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

type IOFactory interface {
	New(name string) StateIO
}

type DiskStateIOFactory struct {
	dataFolder string
}

func NewDiskStateIOFactory(folder string) IOFactory {
	return &DiskStateIOFactory{dataFolder: folder}
}

func (f *DiskStateIOFactory) New(name string) StateIO {
	return &DiskStateIO{
		name:       name,
		dataFolder: f.dataFolder,
	}
}

type StateIO interface {
	WriteState(ctx context.Context, content []byte, checkpoint uint64) error
	ReadState(ctx context.Context, checkpoint uint64) ([]byte, error)
	LastState(ctx context.Context) (checkpoint uint64, found bool, err error)
}

type DiskStateIO struct {
	name       string
	dataFolder string
}

func (d *DiskStateIO) WriteState(ctx context.Context, content []byte, checkpoint uint64) error {
	if err := os.MkdirAll(d.dataFolder, 0755); err != nil {
		return fmt.Errorf("creating state folder %s: %w", d.dataFolder, err)
	}

	path := filepath.Join(d.dataFolder, GetStateFileName(d.name, checkpoint))
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, content, 0644); err != nil {
		return fmt.Errorf("writing %s kv at block %d: %w", d.name, checkpoint, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("moving %s kv at block %d in place: %w", d.name, checkpoint, err)
	}

	return nil
}

func (d *DiskStateIO) ReadState(ctx context.Context, checkpoint uint64) ([]byte, error) {
	path := filepath.Join(d.dataFolder, GetStateFileName(d.name, checkpoint))
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("file %s does not exist: %w", path, err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading file %s: %w", path, err)
	}

	return data, nil
}

func (d *DiskStateIO) LastState(ctx context.Context) (uint64, bool, error) {
	entries, err := os.ReadDir(d.dataFolder)
	if errors.Is(err, os.ErrNotExist) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("listing %s: %w", d.dataFolder, err)
	}

	suffix := fmt.Sprintf("-%s.kv", d.name)

	var last uint64
	var found bool
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), suffix) {
			continue
		}

		blockNum, err := strconv.ParseUint(strings.TrimSuffix(entry.Name(), suffix), 10, 64)
		if err != nil {
			continue
		}
		if !found || blockNum > last {
			last = blockNum
			found = true
		}
	}
	return last, found, nil
}

func GetStateFileName(name string, checkpoint uint64) string {
	return fmt.Sprintf("%d-%s.kv", checkpoint, name)
}
