package covenant

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"covenant/pkg/bdoclient"
	"covenant/pkg/keyregistry"
	"covenant/pkg/signature"
)

// LocalStore is the subset of the local contract store the replicated
// store needs. Implemented by *contractstore.Store; declared here to
// avoid an import cycle (contractstore already imports this package for
// the Contract type).
type LocalStore interface {
	Save(c *Contract) error
	Load(uuid string) (*Contract, error)
	Delete(uuid string) error
	List(participantPubKey string) ([]Summary, error)
}

// ReplicatedStore composes the local contract store, the per-contract
// key registry, and the remote object-store adapter into the write-
// through/read-through-preferred replication policy: local is
// authoritative, remote is a best-effort replica. No remote failure is
// ever fatal to a caller.
type ReplicatedStore struct {
	Local  LocalStore
	Remote *bdoclient.Client
	Keys   *keyregistry.Registry
	Log    *zap.SugaredLogger

	RemoteTimeout time.Duration

	locks sync.Map // contract uuid -> *sync.Mutex
}

func NewReplicatedStore(local LocalStore, remote *bdoclient.Client, keys *keyregistry.Registry, log *zap.SugaredLogger) *ReplicatedStore {
	return &ReplicatedStore{Local: local, Remote: remote, Keys: keys, Log: log, RemoteTimeout: 5 * time.Second}
}

func (s *ReplicatedStore) ctx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), s.RemoteTimeout)
}

// lockFor returns the mutex serializing every mutating operation on the
// contract identified by uuid, minting one on first use. One mutex per
// contract keeps unrelated contracts fully concurrent while still
// serializing the Load-modify-Save cycle for any single contract.
func (s *ReplicatedStore) lockFor(uuid string) *sync.Mutex {
	actual, _ := s.locks.LoadOrStore(uuid, &sync.Mutex{})
	return actual.(*sync.Mutex)
}

func (s *ReplicatedStore) warnRemote(op, contractUUID string, err error) {
	if s.Log != nil {
		s.Log.Warnw("remote object store call failed, continuing on local state", "op", op, "contract_id", contractUUID, "err", err)
	}
}

// Create validates in, mints and binds a new keypair for the contract,
// attempts to create the remote replica, and always persists locally
// last.
func (s *ReplicatedStore) Create(in CreateInput) (*Contract, error) {
	if err := Validate(in); err != nil {
		return nil, err
	}
	c := NewContract(in)

	mu := s.lockFor(c.UUID)
	mu.Lock()
	defer mu.Unlock()

	kp, err := s.Keys.Mint(c.UUID)
	if err != nil {
		return nil, err
	}
	c.PubKey = kp.PublicKeyHex

	ctx, cancel := s.ctx()
	defer cancel()
	if loc, err := s.Remote.CreateRecord(ctx, kp, c.UUID, c); err != nil {
		s.warnRemote("create", c.UUID, err)
	} else {
		c.BDOLocation = loc
	}

	if err := s.Local.Save(c); err != nil {
		return nil, err
	}
	return c, nil
}

// Get reads a contract, preferring the remote replica and falling back
// to the local copy when the remote is unavailable or the contract has
// no remote location yet.
func (s *ReplicatedStore) Get(uuid string) (*Contract, error) {
	local, err := s.Local.Load(uuid)
	if err != nil {
		return nil, err
	}

	kp, err := s.Keys.Lookup(uuid)
	if err != nil || local.BDOLocation == "" {
		return local, nil
	}

	ctx, cancel := s.ctx()
	defer cancel()
	var remote Contract
	if err := s.Remote.GetRecord(ctx, kp, local.BDOLocation, &remote); err != nil {
		s.warnRemote("get", uuid, err)
		return local, nil
	}
	return &remote, nil
}

// Update looks up (never re-mints) the contract's bound keypair,
// overlays in onto the local copy, attempts to push the change to the
// remote replica, and always saves locally regardless of the remote
// outcome.
func (s *ReplicatedStore) Update(uuid, callerUUID string, in UpdateInput) (*Contract, error) {
	mu := s.lockFor(uuid)
	mu.Lock()
	defer mu.Unlock()

	c, err := s.Local.Load(uuid)
	if err != nil {
		return nil, err
	}
	if err := ApplyUpdate(c, callerUUID, in); err != nil {
		return nil, err
	}

	kp, err := s.Keys.Lookup(uuid)
	if err != nil {
		return nil, err
	}
	c.PubKey = kp.PublicKeyHex
	s.pushRemote("update", c, kp)

	if err := s.Local.Save(c); err != nil {
		return nil, err
	}
	return c, nil
}

// SignStep attaches a participant's signature to a step, then follows
// the same push-remote/save-local-regardless policy as Update.
func (s *ReplicatedStore) SignStep(uuid string, in SignStepInput, verify func(pubKey, message, sig string) bool) (*SignStepResult, error) {
	mu := s.lockFor(uuid)
	mu.Lock()
	defer mu.Unlock()

	c, err := s.Local.Load(uuid)
	if err != nil {
		return nil, err
	}
	result, err := SignStep(c, in, verify)
	if err != nil {
		return nil, err
	}

	kp, err := s.Keys.Lookup(uuid)
	if err != nil {
		return nil, err
	}
	c.PubKey = kp.PublicKeyHex
	s.pushRemote("sign-step", c, kp)

	if err := s.Local.Save(c); err != nil {
		return nil, err
	}
	return result, nil
}

func (s *ReplicatedStore) pushRemote(op string, c *Contract, kp signature.KeyPair) {
	ctx, cancel := s.ctx()
	defer cancel()
	if c.BDOLocation == "" {
		if loc, err := s.Remote.CreateRecord(ctx, kp, c.UUID, c); err != nil {
			s.warnRemote(op, c.UUID, err)
		} else {
			c.BDOLocation = loc
		}
		return
	}
	if err := s.Remote.UpdateRecord(ctx, kp, c.BDOLocation, c); err != nil {
		s.warnRemote(op, c.UUID, err)
	}
}

// Delete authorizes callerUUID as the contract's creator, attempts a
// remote delete regardless of outcome, and always removes the local
// copy. Key material bound to the contract is never deleted.
func (s *ReplicatedStore) Delete(uuid, callerUUID string) error {
	mu := s.lockFor(uuid)
	mu.Lock()
	defer mu.Unlock()

	c, err := s.Local.Load(uuid)
	if err != nil {
		return err
	}
	if err := CanDelete(c, callerUUID); err != nil {
		return err
	}

	if kp, err := s.Keys.Lookup(uuid); err == nil && c.BDOLocation != "" {
		ctx, cancel := s.ctx()
		if err := s.Remote.DeleteRecord(ctx, kp, c.BDOLocation); err != nil {
			s.warnRemote("delete", uuid, err)
		}
		cancel()
	}

	return s.Local.Delete(uuid)
}

// List delegates to the local store: the remote replica is not
// independently indexed, so listing is always a local-authoritative
// operation.
func (s *ReplicatedStore) List(participantPubKey string) ([]Summary, error) {
	return s.Local.List(participantPubKey)
}
