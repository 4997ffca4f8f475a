package realtime

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

// Scopes needed to read and write a Firebase realtime database with a service account.
var remoteScopes = []string{
	"https://www.googleapis.com/auth/firebase.database",
	"https://www.googleapis.com/auth/userinfo.email",
}

const (
	defaultRetry = time.Second
	maxRetry     = 30 * time.Second
)

// errStreamCancelled is sent by the server when the rules deny the listener.
var errStreamCancelled = errors.New("stream cancelled by server")

// RemoteStore talks to a Firebase-style realtime database over its REST API:
// GET/PUT {base}/{path}.json and text/event-stream for subscriptions.
type RemoteStore struct {
	baseURL string
	client  *http.Client
	retry   time.Duration
}

// NewRemoteStore creates a client for the database at baseURL. A nil client
// uses http.DefaultClient.
func NewRemoteStore(baseURL string, client *http.Client) *RemoteStore {
	if client == nil {
		client = http.DefaultClient
	}
	return &RemoteStore{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  client,
		retry:   defaultRetry,
	}
}

// NewGoogleHTTPClient returns an HTTP client that authenticates with the
// given service-account JSON and refreshes its token as needed.
func NewGoogleHTTPClient(ctx context.Context, credentialsJSON []byte) (*http.Client, error) {
	creds, err := google.CredentialsFromJSON(ctx, credentialsJSON, remoteScopes...)
	if err != nil {
		return nil, fmt.Errorf("invalid service account credentials: %w", err)
	}
	return oauth2.NewClient(ctx, creds.TokenSource), nil
}

func (s *RemoteStore) endpoint(path string, query url.Values) string {
	segs := Segments(path)
	for i, seg := range segs {
		segs[i] = url.PathEscape(seg)
	}
	u := s.baseURL + "/" + strings.Join(segs, "/") + ".json"
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return u
}

func (s *RemoteStore) do(ctx context.Context, method, endpoint string, body io.Reader, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("realtime request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("realtime API error %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decoding realtime response: %w", err)
	}
	return nil
}

func (s *RemoteStore) Get(ctx context.Context, path string) (any, error) {
	var value any
	if err := s.do(ctx, http.MethodGet, s.endpoint(path, nil), nil, &value); err != nil {
		return nil, err
	}
	return value, nil
}

func (s *RemoteStore) Set(ctx context.Context, path string, value any) error {
	if value == nil {
		return s.do(ctx, http.MethodDelete, s.endpoint(path, nil), nil, nil)
	}
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encoding value: %w", err)
	}
	return s.do(ctx, http.MethodPut, s.endpoint(path, nil), bytes.NewReader(data), nil)
}

func (s *RemoteStore) LastKeys(ctx context.Context, path string, n int) ([]string, error) {
	if n <= 0 {
		return []string{}, nil
	}
	query := url.Values{
		"orderBy":     {`"$key"`},
		"limitToLast": {strconv.Itoa(n)},
	}
	var children map[string]json.RawMessage
	if err := s.do(ctx, http.MethodGet, s.endpoint(path, query), nil, &children); err != nil {
		return nil, err
	}
	keys := make([]string, 0, len(children))
	for k := range children {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	if len(keys) > n {
		keys = keys[len(keys)-n:]
	}
	return keys, nil
}

// Subscribe opens a streaming listener on path. The first server event
// carries the current value. Dropped connections are retried with backoff
// until Unsubscribe is called or the server cancels the listener.
func (s *RemoteStore) Subscribe(ctx context.Context, path string, fn func(any)) (Unsubscribe, error) {
	// The listener outlives the caller's (possibly time-bounded) context.
	ctx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	done := make(chan struct{})

	go func() {
		defer close(done)
		backoff := s.retry
		for {
			connected, err := s.stream(ctx, path, fn)
			if ctx.Err() != nil {
				return
			}
			if errors.Is(err, errStreamCancelled) {
				log.Printf("realtime: listener on %q cancelled by server", path)
				return
			}
			if connected {
				backoff = s.retry
			}
			log.Printf("realtime: stream on %q ended: %v; retrying in %s", path, err, backoff)
			select {
			case <-ctx.Done():
				return
			case <-time.After(backoff):
			}
			if backoff < maxRetry {
				backoff *= 2
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			cancel()
			<-done
		})
	}, nil
}

type streamPayload struct {
	Path string `json:"path"`
	Data any    `json:"data"`
}

// stream runs one connection. connected reports whether the server accepted it.
func (s *RemoteStore) stream(ctx context.Context, path string, fn func(any)) (connected bool, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.endpoint(path, nil), nil)
	if err != nil {
		return false, err
	}
	req.Header.Set("Accept", "text/event-stream")

	resp, err := s.client.Do(req)
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return false, fmt.Errorf("realtime API error %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}

	var tree any
	var event string
	var data strings.Builder

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case line == "":
			next, changed, err := applyEvent(tree, event, data.String())
			if err != nil {
				return true, err
			}
			if changed {
				tree = next
				fn(tree)
			}
			event = ""
			data.Reset()
		case strings.HasPrefix(line, "event:"):
			event = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
		case strings.HasPrefix(line, "data:"):
			if data.Len() > 0 {
				data.WriteByte('\n')
			}
			data.WriteString(strings.TrimSpace(strings.TrimPrefix(line, "data:")))
		}
	}
	if err := scanner.Err(); err != nil {
		return true, err
	}
	return true, io.EOF
}

// applyEvent folds one server event into the local copy of the subtree.
func applyEvent(tree any, event, data string) (any, bool, error) {
	switch event {
	case "put", "patch":
		var payload streamPayload
		if err := json.Unmarshal([]byte(data), &payload); err != nil {
			return tree, false, fmt.Errorf("decoding %s event: %w", event, err)
		}
		at := Segments(payload.Path)
		if event == "put" {
			return SetAt(tree, at, payload.Data), true, nil
		}
		fields, ok := payload.Data.(map[string]any)
		if !ok {
			return tree, false, nil
		}
		keys := make([]string, 0, len(fields))
		for k := range fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			tree = SetAt(tree, append(append([]string{}, at...), Segments(k)...), fields[k])
		}
		return tree, true, nil
	case "cancel":
		return tree, false, errStreamCancelled
	case "auth_revoked":
		return tree, false, errors.New("credential expired")
	default:
		// keep-alive and unknown events
		return tree, false, nil
	}
}

//This project is the mess dashboard backend for the OpenSourceDUTH team. Attendance, meal ratings and complaint triage for the university dining hall.
//API Copyright (C) 2025 OpenSourceDUTH
//This program is free software: you can redistribute it and/or modify
//it under the terms of the GNU General Public License as published by
//the Free Software Foundation, either version 3 of the License, or
//(at your option) any later version.
//
//This program is distributed in the hope that it will be useful,
//but WITHOUT ANY WARRANTY; without even the implied warranty of
//MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
//GNU General Public License for more details.
//
//You should have received a copy of the GNU General Public License
//along with this program.  If not, see <https://www.gnu.org/licenses/>.
