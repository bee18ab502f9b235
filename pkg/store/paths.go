// Package store owns the on-disk layout shared by the key registry,
// contract store, and user store: a data directory with contracts/,
// keys/, and users/ subdirectories, each holding one JSON document per
// record.
package store

import (
	"encoding/json"
	"os"
	"path/filepath"
)

// Layout is the filesystem root the process persists everything under.
type Layout struct {
	Root string
}

// MustDataDir resolves the data directory from the DATA_DIR environment
// variable (default "./data"), creates the contracts/, keys/, and users/
// subdirectories if missing, and panics if it cannot.
func MustDataDir() Layout {
	root := os.Getenv("DATA_DIR")
	if root == "" {
		root = "./data"
	}
	l := Layout{Root: root}
	for _, sub := range []string{"contracts", "keys", "users"} {
		if err := os.MkdirAll(l.dir(sub), 0o755); err != nil {
			panic(err)
		}
	}
	return l
}

func (l Layout) dir(sub string) string { return filepath.Join(l.Root, sub) }

func (l Layout) ContractsDir() string { return l.dir("contracts") }
func (l Layout) KeysDir() string      { return l.dir("keys") }
func (l Layout) UsersDir() string     { return l.dir("users") }

func (l Layout) ContractFile(uuid string) string {
	return filepath.Join(l.ContractsDir(), uuid+".json")
}

func (l Layout) KeyFile(pubKeyHex string) string {
	return filepath.Join(l.KeysDir(), pubKeyHex+".json")
}

func (l Layout) ContractKeyMapFile() string {
	return filepath.Join(l.KeysDir(), "contract-pubkey-mapping.json")
}

func (l Layout) UserFile(uuid string) string {
	return filepath.Join(l.UsersDir(), uuid+".json")
}

// WriteAtomic serializes v as stable, indented JSON and writes it to path
// via a temp-file-then-rename so readers never observe a partial write.
func WriteAtomic(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

// ReadJSON loads and decodes the JSON document at path into dst. It
// returns os.ErrNotExist (wrapped) unchanged so callers can use
// os.IsNotExist / errors.Is(err, os.ErrNotExist) directly.
func ReadJSON(path string, dst any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, dst)
}
