// Copyright 2018 The ACH Authors
// Use of this source code is governed by an Apache License
// license that can be found in the LICENSE file.

package buntdbclient

import (
	"errors"
	"flag"
	"os"
	"path/filepath"
	"testing"

	"gopkg.in/oauth2.v3/models"
)

var (
	flagDebug = flag.Bool("debug", false, "Create db inside project dir for tests")
)

func makeCS(t *testing.T) *ClientStore {
	t.Helper()

	filename := "client_test.db"
	if *flagDebug {
		os.Remove(filename)
	} else {
		filename = filepath.Join(t.TempDir(), filename)
	}
	cs, err := New(filename)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { cs.Close() })
	return cs
}

func TestClientStore(t *testing.T) {
	cs := makeCS(t)
	id := "fishnet-app"

	// get nothing
	cli, err := cs.GetByID(id)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("got %#v", err)
	}
	if cli.GetID() != "" {
		t.Errorf("got %#v", cli)
	}

	// set something
	err = cs.Set(id, &models.Client{
		ID:     id,
		Secret: "secret",
		Domain: "domain",
		UserID: "userId",
	})
	if err != nil {
		t.Errorf("got %v", err)
	}

	// get something
	cli, err = cs.GetByID(id)
	if err != nil {
		t.Errorf("got %v", err)
	}
	if cli.GetID() != id {
		t.Errorf("got %s", cli.GetID())
	}
	if cli.GetSecret() != "secret" {
		t.Errorf("got %s", cli.GetSecret())
	}
	if cli.GetDomain() != "domain" {
		t.Errorf("got %s", cli.GetDomain())
	}
	if cli.GetUserID() != "userId" {
		t.Errorf("got %s", cli.GetUserID())
	}

	// mismatched ids
	if err := cs.Set("other", &models.Client{ID: id}); err == nil {
		t.Error("expected error")
	}
}

func TestClientStore__scan(t *testing.T) {
	cs := makeCS(t)
	id, userId := "fishnet", "user-id"

	// scan nothing
	results, err := cs.GetByUserID(userId)
	if results != nil || err != nil {
		t.Errorf("got results=%v, err=%#v", results, err)
	}

	// write something
	clients := []*models.Client{
		{ID: id, Secret: "secret", Domain: "domain", UserID: userId},
		{ID: id + "2", Secret: "secret", Domain: "domain", UserID: userId + "2"},
		{ID: "other-id", Secret: "secret", Domain: "domain", UserID: "other-user"},
	}
	for i := range clients {
		if err := cs.Set(clients[i].ID, clients[i]); err != nil {
			t.Errorf("got %v", err)
		}
	}

	// scan something
	results, err = cs.GetByUserID(userId)
	if err != nil {
		t.Error(err)
	}
	if v := len(results); v != 1 {
		t.Fatalf("got %d", v)
	}
	if v := results[0].GetID(); v != id {
		t.Errorf("got %q", v)
	}
}

func TestClientStore__delete(t *testing.T) {
	cs := makeCS(t)
	id := "fishnet"

	cs.Set(id, &models.Client{
		ID:     id,
		Secret: "secret",
		Domain: "domain",
		UserID: "userId",
	})

	cli, err := cs.GetByID(id)
	if err != nil || cli == nil {
		t.Errorf("got cli=%v, err=%#v", cli, err)
	}

	// delete
	if err := cs.DeleteByID(id); err != nil {
		t.Error(err)
	}
	if err := cs.DeleteByID(id); err != nil {
		t.Errorf("second delete: %v", err)
	}

	// get nothing :-(
	_, err = cs.GetByID(id)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("got %#v", err)
	}
}

func TestClientStore__memory(t *testing.T) {
	cs, err := New(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	defer cs.Close()

	if err := cs.Set("a", &models.Client{ID: "a", Secret: "s"}); err != nil {
		t.Fatal(err)
	}
	cli, err := cs.GetByID("a")
	if err != nil || cli.GetSecret() != "s" {
		t.Errorf("got cli=%v, err=%v", cli, err)
	}
}
