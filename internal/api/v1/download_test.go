package v1

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestBuildDownloadContentDisposition(t *testing.T) {
	t.Parallel()

	got := buildDownloadContentDisposition("SKU模板-list.xlsx")
	want := "attachment; filename=\"SKU-list.xlsx\"; filename*=UTF-8''SKU%E6%A8%A1%E6%9D%BF-list.xlsx"
	if got != want {
		t.Fatalf("content-disposition mismatch:\n got: %s\nwant: %s", got, want)
	}
}

func TestBuildDownloadContentDispositionAllNonASCII(t *testing.T) {
	t.Parallel()

	got := buildDownloadContentDisposition("模板.xlsx")
	want := "attachment; filename=\"download.xlsx\"; filename*=UTF-8''%E6%A8%A1%E6%9D%BF.xlsx"
	if got != want {
		t.Fatalf("content-disposition mismatch:\n got: %s\nwant: %s", got, want)
	}
}

func TestTransformDownloadStoreOneTimeUse(t *testing.T) {
	t.Parallel()

	s := newTransformDownloadStore()
	token := s.put("/tmp/out.xlsx", "SKU模板-a.xlsx", time.Minute)
	if token == "" {
		t.Fatal("put returned empty token")
	}

	item, ok := s.take(token)
	if !ok {
		t.Fatal("take should find freshly stored token")
	}
	if item.filePath != "/tmp/out.xlsx" || item.filename != "SKU模板-a.xlsx" {
		t.Fatalf("item = %+v", item)
	}

	// 令牌取出即作废
	if _, ok := s.take(token); ok {
		t.Fatal("token should be gone after first take")
	}
}

func TestTransformDownloadStoreExpiry(t *testing.T) {
	t.Parallel()

	s := newTransformDownloadStore()
	token := s.put("/tmp/out.xlsx", "a.xlsx", -time.Second)

	if _, ok := s.take(token); ok {
		t.Fatal("expired token should not resolve")
	}
}

// TestTransformDownloadStoreTakeOnceUnderConcurrency 并发取同一令牌只能成功一次
func TestTransformDownloadStoreTakeOnceUnderConcurrency(t *testing.T) {
	t.Parallel()

	s := newTransformDownloadStore()
	token := s.put("/tmp/out.xlsx", "a.xlsx", time.Minute)

	var wg sync.WaitGroup
	var hits int32
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, ok := s.take(token); ok {
				atomic.AddInt32(&hits, 1)
			}
		}()
	}
	wg.Wait()

	if hits != 1 {
		t.Fatalf("token resolved %d times, want exactly once", hits)
	}
}

func TestTransformDownloadStoreTokensUnique(t *testing.T) {
	t.Parallel()

	s := newTransformDownloadStore()
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		token := s.put("/tmp/out.xlsx", "a.xlsx", time.Minute)
		if seen[token] {
			t.Fatalf("duplicate token generated: %s", token)
		}
		seen[token] = true
	}
}
