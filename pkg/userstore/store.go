// Package userstore is the minimal file-based store for user records
// (§6 of the persisted-state layout: users/<uuid>.json). A user record
// is just an identity binding — a UUID to the public key that
// identifies it in the coordination protocol — since authorization and
// authentication are both keyed off of public keys, not accounts.
package userstore

import (
	"errors"
	"os"
	"time"

	"github.com/google/uuid"

	"covenant/pkg/store"
)

var ErrNotFound = errors.New("userstore: user not found")

type User struct {
	UUID      string    `json:"uuid"`
	PubKey    string    `json:"pubKey"`
	CreatedAt time.Time `json:"createdAt"`
}

type Store struct {
	layout store.Layout
}

func New(layout store.Layout) *Store { return &Store{layout: layout} }

func (s *Store) Create(pubKey string) (*User, error) {
	u := &User{UUID: uuid.NewString(), PubKey: pubKey, CreatedAt: time.Now().UTC()}
	if err := store.WriteAtomic(s.layout.UserFile(u.UUID), u); err != nil {
		return nil, err
	}
	return u, nil
}

func (s *Store) Load(uuid string) (*User, error) {
	var u User
	if err := store.ReadJSON(s.layout.UserFile(uuid), &u); err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}
