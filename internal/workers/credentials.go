// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package workers

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/MKhiriev/wallet-cloud-sync/internal/adapter"
	"github.com/MKhiriev/wallet-cloud-sync/internal/logger"
	"github.com/MKhiriev/wallet-cloud-sync/internal/utils"
	"github.com/cenkalti/backoff/v5"
	"github.com/fsnotify/fsnotify"
)

const (
	defaultCredentialInterval = time.Minute

	// expirySkew treats tokens about to expire as expired.
	expirySkew = 30 * time.Second

	loginAttempts = 4
)

// CredentialConfig configures a CredentialMonitor.
type CredentialConfig struct {
	// File holds the bearer token. It is watched for external updates and
	// rewritten after every login.
	File string

	// Login and AuthHash are used when the file has no usable token. Empty
	// Login disables automatic login.
	Login    string
	AuthHash string

	Interval time.Duration
}

// CredentialMonitor keeps a valid bearer token in the record store client.
// It reads the credentials file, logs in again when the token is missing,
// expired or rejected by the server, and tells listeners whether the
// client has usable credentials.
type CredentialMonitor struct {
	cfg     CredentialConfig
	holder  TokenHolder
	auth    Authenticator
	logger  *logger.Logger
	now     func() time.Time
	backoff func() backoff.BackOff

	listeners []CredentialsListener
	recheck   chan struct{}

	mu        sync.Mutex
	ok        bool
	reported  bool
	rejected  string
	rechecked bool // listeners were told the token failed; report the next success
}

func NewCredentialMonitor(cfg CredentialConfig, holder TokenHolder, auth Authenticator, logger *logger.Logger, listeners ...CredentialsListener) *CredentialMonitor {
	if cfg.Interval <= 0 {
		cfg.Interval = defaultCredentialInterval
	}
	return &CredentialMonitor{
		cfg:       cfg,
		holder:    holder,
		auth:      auth,
		logger:    logger,
		now:       time.Now,
		backoff:   func() backoff.BackOff { return backoff.NewExponentialBackOff() },
		listeners: listeners,
		recheck:   make(chan struct{}, 1),
	}
}

// Recheck marks the current token as rejected and schedules a check. The
// next successful check is reported even if the last one succeeded too. It
// never blocks.
func (m *CredentialMonitor) Recheck() {
	m.mu.Lock()
	m.rejected = m.holder.Token()
	m.rechecked = true
	m.mu.Unlock()

	select {
	case m.recheck <- struct{}{}:
	default:
	}
}

// HasCredentials reports the last check result.
func (m *CredentialMonitor) HasCredentials() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ok
}

// Check runs one credential check now.
func (m *CredentialMonitor) Check(ctx context.Context) bool {
	ok := m.check(ctx)

	m.mu.Lock()
	changed := !m.reported || ok != m.ok || (m.rechecked && ok)
	m.ok, m.reported = ok, true
	if ok {
		m.rechecked = false
	}
	m.mu.Unlock()

	if changed {
		m.logger.Info().Bool("ok", ok).Msg("credentials changed")
		for _, l := range m.listeners {
			l.CredentialsChanged(ok)
		}
	}
	return ok
}

func (m *CredentialMonitor) Run(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("credential monitor: %w", err)
	}
	defer watcher.Close()

	var fileEvents <-chan fsnotify.Event
	var watchErrors <-chan error
	if m.cfg.File != "" {
		// the directory survives atomic replaces of the file
		if err := watcher.Add(filepath.Dir(m.cfg.File)); err != nil {
			m.logger.Warn().Err(err).Str("file", m.cfg.File).Msg("credentials file is not watched")
		} else {
			fileEvents, watchErrors = watcher.Events, watcher.Errors
		}
	}

	ticker := time.NewTicker(m.cfg.Interval)
	defer ticker.Stop()

	m.Check(ctx)
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev := <-fileEvents:
			if filepath.Clean(ev.Name) != filepath.Clean(m.cfg.File) || !ev.Has(fsnotify.Write|fsnotify.Create) {
				continue
			}
			m.logger.Debug().Str("op", ev.Op.String()).Msg("credentials file changed")
		case err := <-watchErrors:
			m.logger.Warn().Err(err).Msg("credentials watcher error")
			continue
		case <-m.recheck:
		case <-ticker.C:
		}
		m.Check(ctx)
	}
}

func (m *CredentialMonitor) check(ctx context.Context) bool {
	m.mu.Lock()
	rejected := m.rejected
	m.mu.Unlock()

	if token, ok := m.readToken(); ok && token != rejected {
		if token != m.holder.Token() {
			m.holder.SetToken(token)
		}
		return true
	}

	if m.cfg.Login == "" {
		return false
	}

	token, err := m.login(ctx)
	if err != nil {
		m.logger.Err(err).Str("login", m.cfg.Login).Msg("login failed")
		return false
	}

	m.holder.SetToken(token)
	m.mu.Lock()
	m.rejected = ""
	m.mu.Unlock()

	if err := m.writeToken(token); err != nil {
		m.logger.Warn().Err(err).Str("file", m.cfg.File).Msg("cannot store token")
	}
	return true
}

// readToken returns the token of the credentials file, or of the client
// when there is no file, if it is not about to expire.
func (m *CredentialMonitor) readToken() (string, bool) {
	token := m.holder.Token()
	if m.cfg.File != "" {
		raw, err := os.ReadFile(m.cfg.File)
		if err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				m.logger.Warn().Err(err).Str("file", m.cfg.File).Msg("cannot read credentials file")
			}
			return "", false
		}
		token = strings.TrimSpace(string(raw))
	}
	if token == "" {
		return "", false
	}

	parsed, err := utils.ParseUnverified(token)
	if err != nil {
		m.logger.Debug().Err(err).Msg("credentials file holds no valid token")
		return "", false
	}
	if exp := parsed.ExpiresAt(); !exp.IsZero() && !m.now().Add(expirySkew).Before(exp) {
		return "", false
	}
	return token, true
}

func (m *CredentialMonitor) login(ctx context.Context) (string, error) {
	return backoff.Retry(ctx, func() (string, error) {
		token, err := m.auth.Login(ctx, m.cfg.Login, m.cfg.AuthHash)
		if errors.Is(err, adapter.ErrInvalidCredentials) {
			return "", backoff.Permanent(err)
		}
		return token, err
	}, backoff.WithBackOff(m.backoff()), backoff.WithMaxTries(loginAttempts))
}

// StoreToken installs a token obtained outside the monitor, for example by
// registration, and persists it to the credentials file.
func (m *CredentialMonitor) StoreToken(token string) error {
	m.holder.SetToken(token)
	m.mu.Lock()
	m.rejected = ""
	m.mu.Unlock()

	if err := m.writeToken(token); err != nil {
		return fmt.Errorf("store token: %w", err)
	}
	return nil
}

func (m *CredentialMonitor) writeToken(token string) error {
	if m.cfg.File == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(m.cfg.File), 0o700); err != nil {
		return err
	}

	tmp := m.cfg.File + ".tmp"
	if err := os.WriteFile(tmp, []byte(token+"\n"), 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, m.cfg.File)
}
