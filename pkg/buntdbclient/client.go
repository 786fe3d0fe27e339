// Copyright 2018 The ACH Authors
// Use of this source code is governed by an Apache License
// license that can be found in the LICENSE file.

// buntdbclient implements ClientStore from gopkg.in/oauth2.v3
// using BuntDB (https://github.com/tidwall/buntdb).
//
// Each registered app client is one JSON document under "client:<id>".
package buntdbclient

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/tidwall/buntdb"
	"github.com/tidwall/gjson"
	"gopkg.in/oauth2.v3"
	"gopkg.in/oauth2.v3/models"
)

var (
	// DefaultTTL is the value used as TTL on buntdb.SetOptions. Zero keeps
	// clients until they're deleted.
	DefaultTTL time.Duration = 0

	ErrNotFound = errors.New("client not found")
)

const keyPrefix = "client:"

func key(id string) string {
	return keyPrefix + id
}

// New opens (or creates) the BuntDB file at path. ":memory:" keeps
// everything in memory.
func New(path string) (*ClientStore, error) {
	db, err := buntdb.Open(path)
	if err != nil {
		return nil, err
	}
	return &ClientStore{
		db:  db,
		ttl: DefaultTTL,
	}, nil
}

type ClientStore struct {
	db  *buntdb.DB
	ttl time.Duration
}

var _ oauth2.ClientStore = (*ClientStore)(nil)

type document struct {
	ID     string `json:"id"`
	Secret string `json:"secret"`
	Domain string `json:"domain"`
	UserID string `json:"userId"`
}

func (cs *ClientStore) Close() error {
	return cs.db.Close()
}

func (cs *ClientStore) GetByID(id string) (oauth2.ClientInfo, error) {
	var raw string
	err := cs.db.View(func(tx *buntdb.Tx) error {
		v, err := tx.Get(key(id))
		if err != nil {
			return err
		}
		raw = v
		return nil
	})
	if err != nil {
		if err == buntdb.ErrNotFound {
			err = ErrNotFound
		}
		return &models.Client{}, fmt.Errorf("problem reading %s: %w", id, err)
	}
	return decode(raw)
}

// GetByUserID returns every client registered for userId. A nil slice
// is returned when there are none.
func (cs *ClientStore) GetByUserID(userId string) ([]oauth2.ClientInfo, error) {
	var raws []string
	err := cs.db.View(func(tx *buntdb.Tx) error {
		return tx.AscendKeys(keyPrefix+"*", func(k, v string) bool {
			if gjson.Get(v, "userId").String() == userId {
				raws = append(raws, v)
			}
			return true
		})
	})
	if err != nil {
		return nil, fmt.Errorf("problem scanning for userId=%s: %v", userId, err)
	}
	var out []oauth2.ClientInfo
	for i := range raws {
		cli, err := decode(raws[i])
		if err != nil {
			return nil, err
		}
		out = append(out, cli)
	}
	return out, nil
}

func (cs *ClientStore) Set(id string, cli oauth2.ClientInfo) error {
	if inc := cli.GetID(); id != inc {
		return fmt.Errorf("ClientStore: id's don't match, id=%s and cli=%s", id, inc)
	}
	bs, err := json.Marshal(document{
		ID:     cli.GetID(),
		Secret: cli.GetSecret(),
		Domain: cli.GetDomain(),
		UserID: cli.GetUserID(),
	})
	if err != nil {
		return err
	}

	err = cs.db.Update(func(tx *buntdb.Tx) error {
		var opts *buntdb.SetOptions
		if cs.ttl > 0 {
			opts = &buntdb.SetOptions{Expires: true, TTL: cs.ttl}
		}
		_, _, err := tx.Set(key(id), string(bs), opts)
		return err
	})
	if err != nil {
		return fmt.Errorf("problem updating %s: %v", id, err)
	}
	return nil
}

// DeleteByID removes a client. Deleting an unknown id isn't an error.
func (cs *ClientStore) DeleteByID(id string) error {
	err := cs.db.Update(func(tx *buntdb.Tx) error {
		_, err := tx.Delete(key(id))
		return err
	})
	if err != nil && err != buntdb.ErrNotFound {
		return fmt.Errorf("problem deleting %s: %v", id, err)
	}
	return nil
}

func decode(raw string) (oauth2.ClientInfo, error) {
	var doc document
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		return &models.Client{}, fmt.Errorf("problem decoding client: %v", err)
	}
	return &models.Client{
		ID:     doc.ID,
		Secret: doc.Secret,
		Domain: doc.Domain,
		UserID: doc.UserID,
	}, nil
}
