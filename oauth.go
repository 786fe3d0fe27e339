// Copyright 2018 The ACH Authors
// Use of this source code is governed by an Apache License
// license that can be found in the LICENSE file.

package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/go-kit/kit/log"
	"github.com/google/uuid"
	"gopkg.in/oauth2.v3"
	"gopkg.in/oauth2.v3/manage"
	"gopkg.in/oauth2.v3/models"
	"gopkg.in/oauth2.v3/store"

	"github.com/naveen978980/Fishnet-app/pkg/buntdbclient"
)

// sessionConfig describes the app client sessions are issued through.
type sessionConfig struct {
	ClientID     string
	ClientSecret string
	Domain       string
	Secret       string
	TTL          time.Duration
}

// sessions issues and checks bearer tokens. Tokens are JWTs but are
// always looked up in the token store, so revoking one takes effect
// immediately.
type sessions struct {
	manager *manage.Manager
	tokens  oauth2.TokenStore
	clients *buntdbclient.ClientStore

	clientID     string
	clientSecret string

	logger log.Logger
}

func setupSessions(logger log.Logger, cfg sessionConfig, tokens oauth2.TokenStore, clients *buntdbclient.ClientStore) (*sessions, error) {
	if cfg.ClientID == "" || cfg.ClientSecret == "" {
		return nil, errors.New("sessions: missing app client id or secret")
	}
	if cfg.TTL <= 0 {
		cfg.TTL = 30 * 24 * time.Hour
	}
	if cfg.Domain == "" {
		cfg.Domain = "http://localhost"
	}

	err := clients.Set(cfg.ClientID, &models.Client{
		ID:     cfg.ClientID,
		Secret: cfg.ClientSecret,
		Domain: cfg.Domain,
	})
	if err != nil {
		return nil, fmt.Errorf("sessions: register app client: %v", err)
	}

	manager := manage.NewDefaultManager()
	manager.SetPasswordTokenCfg(&manage.Config{
		AccessTokenExp:    cfg.TTL,
		IsGenerateRefresh: false,
	})
	manager.MapTokenStorage(tokens)
	manager.MapClientStorage(clients)
	manager.MapAccessGenerate(&jwtAccessGenerate{key: []byte(cfg.Secret), method: jwt.SigningMethodHS512})

	return &sessions{
		manager:      manager,
		tokens:       tokens,
		clients:      clients,
		clientID:     cfg.ClientID,
		clientSecret: cfg.ClientSecret,
		logger:       logger,
	}, nil
}

// fileTokenStore keeps tokens in a BuntDB file at path.
func fileTokenStore(path string) (oauth2.TokenStore, error) {
	ts, err := store.NewFileTokenStore(path)
	if err != nil {
		return nil, fmt.Errorf("problem creating token store: %v", err)
	}
	return ts, nil
}

// issue creates a new access token for accountID.
func (s *sessions) issue(accountID string) (string, error) {
	ti, err := s.manager.GenerateAccessToken(oauth2.PasswordCredentials, &oauth2.TokenGenerateRequest{
		ClientID:     s.clientID,
		ClientSecret: s.clientSecret,
		UserID:       accountID,
	})
	if err != nil {
		return "", fmt.Errorf("sessions: generate token: %v", err)
	}
	tokenGenerations.With("method", "password").Add(1)
	return ti.GetAccess(), nil
}

// lookup returns the account id a token was issued for, or
// errInvalidToken when it's unknown, expired or revoked.
func (s *sessions) lookup(access string) (string, error) {
	if access == "" {
		return "", errInvalidToken
	}
	ti, err := s.manager.LoadAccessToken(access)
	if err != nil || ti == nil || ti.GetUserID() == "" {
		return "", errInvalidToken
	}
	return ti.GetUserID(), nil
}

// revoke removes a token so it no longer authenticates.
func (s *sessions) revoke(access string) error {
	if err := s.manager.RemoveAccessToken(access); err != nil {
		return fmt.Errorf("sessions: revoke: %v", err)
	}
	authInactivations.With("method", "bearer").Add(1)
	return nil
}

// jwtAccessGenerate signs access tokens as JWTs. Each token carries a
// random id so two logins within the same second still differ.
type jwtAccessGenerate struct {
	key    []byte
	method jwt.SigningMethod
}

func (g *jwtAccessGenerate) Token(data *oauth2.GenerateBasic, isGenRefresh bool) (string, string, error) {
	created := data.CreateAt
	claims := jwt.StandardClaims{
		Audience:  data.Client.GetID(),
		Subject:   data.UserID,
		Id:        uuid.NewString(),
		IssuedAt:  created.Unix(),
		ExpiresAt: created.Add(data.TokenInfo.GetAccessExpiresIn()).Unix(),
	}
	access, err := jwt.NewWithClaims(g.method, claims).SignedString(g.key)
	if err != nil {
		return "", "", err
	}
	refresh := ""
	if isGenRefresh {
		refresh = uuid.NewString()
	}
	return access, refresh, nil
}
