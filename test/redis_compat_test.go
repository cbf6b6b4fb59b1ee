//go:build integration
// +build integration

package test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"testing"

	goSession "github.com/MrEthical07/goSession"
	"github.com/MrEthical07/goSession/internal/testserver"
)

func TestRedisTokenStoreAcrossBackends(t *testing.T) {
	for _, mode := range redisModes(t) {
		t.Run(mode.name, func(t *testing.T) {
			rdb, done := mode.setup(t)
			defer done()

			srv := testserver.New(testserver.Options{})
			defer srv.Close()
			c := newRedisClient(t, srv, rdb, newSharedJar(t, srv), "compat")
			ctx := context.Background()

			resp, err := c.Post(ctx, testserver.PathLogin, map[string]string{"userId": "user-1"})
			if err != nil {
				t.Fatalf("login failed: %v", err)
			}
			resp.Body.Close()

			if keys := rdb.Keys(ctx, "gs:compat:*").Val(); len(keys) != 2 {
				t.Fatalf("expected csrf and front keys, got %v", keys)
			}

			srv.ExpireAccessTokens()
			resp, err = c.Get(ctx, "/")
			if err != nil {
				t.Fatalf("refresh and retry failed: %v", err)
			}
			body, _ := io.ReadAll(resp.Body)
			resp.Body.Close()
			if resp.StatusCode != http.StatusOK || string(body) != "user-1" {
				t.Fatalf("unexpected response %d %q", resp.StatusCode, body)
			}

			srv.RevokeAll()
			srv.ExpireAccessTokens()
			resp, err = c.Get(ctx, "/")
			if err == nil {
				resp.Body.Close()
			}
			if !errors.Is(err, goSession.ErrSessionExpired) {
				t.Fatalf("expected session expired, got %v", err)
			}
			if keys := rdb.Keys(ctx, "gs:compat:*").Val(); len(keys) != 0 {
				t.Fatalf("expected tokens cleaned from redis, got %v", keys)
			}
		})
	}
}

func TestRedisTokenStoreSharedBetweenClients(t *testing.T) {
	for _, mode := range redisModes(t) {
		t.Run(mode.name, func(t *testing.T) {
			rdb, done := mode.setup(t)
			defer done()

			srv := testserver.New(testserver.Options{})
			defer srv.Close()
			jar := newSharedJar(t, srv)
			a := newRedisClient(t, srv, rdb, jar, "shared")
			b := newRedisClient(t, srv, rdb, jar, "shared")
			ctx := context.Background()

			resp, err := a.Post(ctx, testserver.PathLogin, map[string]string{"userId": "user-1"})
			if err != nil {
				t.Fatalf("login failed: %v", err)
			}
			resp.Body.Close()

			uid, err := b.GetUserID(ctx)
			if err != nil || uid != "user-1" {
				t.Fatalf("expected second client to see the session, got %q (%v)", uid, err)
			}
			resp, err = b.Get(ctx, "/")
			if err != nil {
				t.Fatalf("second client request failed: %v", err)
			}
			resp.Body.Close()
			if resp.StatusCode != http.StatusOK {
				t.Fatalf("expected the shared anti-csrf token to be accepted, got %d", resp.StatusCode)
			}
		})
	}
}
