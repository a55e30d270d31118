// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"bufio"
	"context"
	"crypto/tls"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/gorilla/websocket"
	"go.bug.st/serial"
	"golang.org/x/term"
)

// Connection is where decoded characters are written
type Connection interface {
	io.Writer
	io.Closer
}

// SerialConnection wraps a serial port
type SerialConnection struct {
	port serial.Port
}

func (s *SerialConnection) Write(p []byte) (int, error) {
	return s.port.Write(p)
}

func (s *SerialConnection) Close() error {
	return s.port.Close()
}

// ErrConnectionClosed is returned when writing to a closed WebSocket connection
var ErrConnectionClosed = errors.New("websocket connection closed")

// WebSocketConnection sends each write as one text message
type WebSocketConnection struct {
	conn   *websocket.Conn
	closed atomic.Bool
}

// readLoop discards incoming messages so control frames are handled, and
// marks the connection closed when the peer goes away
func (w *WebSocketConnection) readLoop() {
	for {
		if _, _, err := w.conn.ReadMessage(); err != nil {
			w.closed.Store(true)
			return
		}
	}
}

func (w *WebSocketConnection) Write(p []byte) (int, error) {
	if w.closed.Load() {
		return 0, ErrConnectionClosed
	}
	if err := w.conn.WriteMessage(websocket.TextMessage, p); err != nil {
		w.closed.Store(true)
		return 0, err
	}
	return len(p), nil
}

func (w *WebSocketConnection) Close() error {
	w.closed.Store(true)
	return w.conn.Close()
}

// stdoutConnection writes to standard output and is never closed
type stdoutConnection struct{}

func (stdoutConnection) Write(p []byte) (int, error) { return os.Stdout.Write(p) }
func (stdoutConnection) Close() error                { return nil }

// OpenSerialConnection opens a serial port connection
func OpenSerialConnection(portName string, baudRate int) (Connection, error) {
	mode := &serial.Mode{
		BaudRate: baudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}

	port, err := serial.Open(portName, mode)
	if err != nil {
		return nil, fmt.Errorf("failed to open serial port %s: %w", portName, err)
	}

	return &SerialConnection{port: port}, nil
}

// OpenWebSocketConnection opens a WebSocket connection with HTTP Basic auth
func OpenWebSocketConnection(wsURL, username, password string, skipSSLVerify bool) (Connection, error) {
	u, err := url.Parse(wsURL)
	if err != nil {
		return nil, fmt.Errorf("invalid URL: %w", err)
	}

	switch u.Scheme {
	case "ws", "wss":
	default:
		return nil, fmt.Errorf("unsupported URL scheme: %s (use ws:// or wss://)", u.Scheme)
	}

	dialer := websocket.Dialer{
		HandshakeTimeout: 10 * time.Second,
	}
	if u.Scheme == "wss" {
		dialer.TLSClientConfig = &tls.Config{
			InsecureSkipVerify: skipSSLVerify,
		}
	}

	headers := http.Header{}
	if username != "" && password != "" {
		credentials := base64.StdEncoding.EncodeToString([]byte(username + ":" + password))
		headers.Set("Authorization", "Basic "+credentials)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	conn, resp, err := dialer.DialContext(ctx, wsURL, headers)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("WebSocket connection failed (HTTP %d): %w", resp.StatusCode, err)
		}
		return nil, fmt.Errorf("WebSocket connection failed: %w", err)
	}

	w := &WebSocketConnection{conn: conn}
	go w.readLoop()
	return w, nil
}

// GetPassword retrieves the password from the environment or prompts for it
func GetPassword() (string, error) {
	if pw := os.Getenv("SOUNDER_PASSWORD"); pw != "" {
		return pw, nil
	}

	fmt.Fprint(os.Stderr, "Password: ")

	passwordBytes, err := term.ReadPassword(int(syscall.Stdin))
	if err != nil {
		// Not a terminal
		reader := bufio.NewReader(os.Stdin)
		password, err := reader.ReadString('\n')
		if err != nil {
			return "", fmt.Errorf("failed to read password: %w", err)
		}
		fmt.Fprintln(os.Stderr)
		return strings.TrimSpace(password), nil
	}

	fmt.Fprintln(os.Stderr)
	return string(passwordBytes), nil
}

// OpenConnection opens the output named by the configuration: WebSocket,
// serial port, or stdout when neither is set. The password is asked
// for once and reused on reconnection.
func OpenConnection(c Config) (Connection, string, error) {
	if c.URL != "" {
		password := ""
		if c.Username != "" {
			var err error
			password, err = GetPassword()
			if err != nil {
				return nil, "", err
			}
		}
		open := func() (Connection, error) {
			return OpenWebSocketConnection(c.URL, c.Username, password, c.NoSSLVerify)
		}
		conn, err := newReconnectingConnection(open, logger)
		if err != nil {
			return nil, "", err
		}
		return conn, fmt.Sprintf("WebSocket: %s", c.URL), nil
	}

	if c.Port != "" {
		open := func() (Connection, error) {
			return OpenSerialConnection(c.Port, c.Baud)
		}
		conn, err := newReconnectingConnection(open, logger)
		if err != nil {
			return nil, "", err
		}
		return conn, fmt.Sprintf("Serial: %s @ %d baud", c.Port, c.Baud), nil
	}

	return stdoutConnection{}, "stdout", nil
}
