// Package contractstore implements the local, file-based contract
// store: one JSON document per contract, written atomically, read back
// as either a full Contract or a reduced Summary for listing.
package contractstore

import (
	"os"
	"sort"

	"github.com/samber/lo"
	"go.uber.org/zap"

	"covenant/pkg/covenant"
	"covenant/pkg/store"
)

// Store is the local, authoritative contract store.
type Store struct {
	layout store.Layout
	log    *zap.SugaredLogger
}

func New(layout store.Layout, log *zap.SugaredLogger) *Store {
	return &Store{layout: layout, log: log}
}

// Save writes c to disk, overwriting any existing document for the same
// UUID. The write is atomic (temp file, then rename) so a reader never
// observes a half-written document.
func (s *Store) Save(c *covenant.Contract) error {
	if err := store.WriteAtomic(s.layout.ContractFile(c.UUID), c); err != nil {
		return err
	}
	if s.log != nil {
		s.log.Debugw("contract saved", "contract_id", c.UUID, "checksum", checksum(c))
	}
	return nil
}

// Load reads the contract with the given UUID. It returns
// covenant.ErrNotFound (not the raw os error) when the document is
// missing, so callers can use errors.Is uniformly regardless of
// backend.
func (s *Store) Load(uuid string) (*covenant.Contract, error) {
	var c covenant.Contract
	if err := store.ReadJSON(s.layout.ContractFile(uuid), &c); err != nil {
		if os.IsNotExist(err) {
			return nil, covenant.ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}

// Delete removes the contract's document. Deleting an already-absent
// contract is not an error: delete is idempotent by design, matching
// the boundary case where a caller retries a delete whose response was
// lost.
func (s *Store) Delete(uuid string) error {
	err := os.Remove(s.layout.ContractFile(uuid))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// List returns a summary of every contract on disk whose participant
// list includes participantPubKey, sorted by UpdatedAt descending. An
// empty participantPubKey returns every contract.
func (s *Store) List(participantPubKey string) ([]covenant.Summary, error) {
	entries, err := os.ReadDir(s.layout.ContractsDir())
	if err != nil {
		return nil, err
	}

	summaries := make([]covenant.Summary, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		var c covenant.Contract
		if err := store.ReadJSON(s.layout.ContractsDir()+"/"+e.Name(), &c); err != nil {
			if s.log != nil {
				s.log.Warnw("skipping unreadable contract document", "file", e.Name(), "err", err)
			}
			continue
		}
		if participantPubKey != "" && !lo.Contains(c.Participants, participantPubKey) {
			continue
		}
		summaries = append(summaries, c.Summary())
	}

	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].UpdatedAt.After(summaries[j].UpdatedAt)
	})
	return summaries, nil
}
