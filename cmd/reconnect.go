// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"errors"
	"sync"
	"time"

	"github.com/charmbracelet/log"
)

// ErrReconnecting is returned by writes while the connection is down
var ErrReconnecting = errors.New("connection lost, reconnecting")

const (
	reconnectBackoff    = 1 * time.Second
	reconnectMaxBackoff = 30 * time.Second
)

// reconnectingConnection keeps a Connection open. When a write fails the
// connection is closed and reopened in the background with exponential
// backoff; writes made in the meantime are dropped.
type reconnectingConnection struct {
	open   func() (Connection, error)
	logger *log.Logger

	mu           sync.Mutex
	conn         Connection
	reconnecting bool
	done         chan struct{}
	closeOnce    sync.Once

	// sleep is replaced in tests
	sleep func(d time.Duration, done <-chan struct{}) bool
}

func newReconnectingConnection(open func() (Connection, error), logger *log.Logger) (*reconnectingConnection, error) {
	conn, err := open()
	if err != nil {
		return nil, err
	}
	return &reconnectingConnection{
		open:   open,
		logger: logger,
		conn:   conn,
		done:   make(chan struct{}),
		sleep:  sleepOrDone,
	}, nil
}

func (r *reconnectingConnection) Write(p []byte) (int, error) {
	r.mu.Lock()
	conn := r.conn
	r.mu.Unlock()
	if conn == nil {
		return 0, ErrReconnecting
	}

	n, err := conn.Write(p)
	if err != nil {
		r.lost(conn, err)
	}
	return n, err
}

// lost starts a reconnection unless one is already running
func (r *reconnectingConnection) lost(conn Connection, err error) {
	r.mu.Lock()
	if r.reconnecting || r.conn != conn {
		r.mu.Unlock()
		return
	}
	r.reconnecting = true
	r.conn = nil
	r.mu.Unlock()

	r.logger.Warn("connection lost", "err", err)
	conn.Close()
	go r.reconnect()
}

func (r *reconnectingConnection) reconnect() {
	backoff := reconnectBackoff
	for {
		if !r.sleep(backoff, r.done) {
			return
		}

		conn, err := r.open()
		if err == nil {
			r.mu.Lock()
			select {
			case <-r.done:
				r.mu.Unlock()
				conn.Close()
				return
			default:
			}
			r.conn = conn
			r.reconnecting = false
			r.mu.Unlock()
			r.logger.Info("reconnected")
			return
		}
		r.logger.Debug("reconnect failed", "err", err, "backoff", backoff)

		backoff *= 2
		if backoff > reconnectMaxBackoff {
			backoff = reconnectMaxBackoff
		}
	}
}

func (r *reconnectingConnection) Close() error {
	var err error
	r.closeOnce.Do(func() {
		close(r.done)
		r.mu.Lock()
		defer r.mu.Unlock()
		if r.conn != nil {
			err = r.conn.Close()
			r.conn = nil
		}
	})
	return err
}

// sleepOrDone waits for d and reports false if done closed first
func sleepOrDone(d time.Duration, done <-chan struct{}) bool {
	select {
	case <-done:
		return false
	case <-time.After(d):
		return true
	}
}
