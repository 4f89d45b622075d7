package v1

import (
	"crypto/rand"
	"encoding/base64"
	"sync"
	"time"
)

type transformDownload struct {
	filePath  string
	filename  string
	expiresAt time.Time
}

type transformDownloadStore struct {
	mu    sync.Mutex
	items map[string]transformDownload
}

func newTransformDownloadStore() *transformDownloadStore {
	return &transformDownloadStore{
		items: make(map[string]transformDownload),
	}
}

func (s *transformDownloadStore) put(filePath, filename string, ttl time.Duration) (token string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.purgeExpiredLocked(time.Now())

	token = newRandomToken(24)
	s.items[token] = transformDownload{
		filePath:  filePath,
		filename:  filename,
		expiresAt: time.Now().Add(ttl),
	}
	return token
}

// take 取出并立即作废令牌，同一令牌的并发请求只有一个能拿到文件
func (s *transformDownloadStore) take(token string) (transformDownload, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.purgeExpiredLocked(time.Now())

	v, ok := s.items[token]
	if !ok {
		return transformDownload{}, false
	}
	delete(s.items, token)
	return v, true
}

func (s *transformDownloadStore) purgeExpiredLocked(now time.Time) {
	for k, v := range s.items {
		if now.After(v.expiresAt) {
			delete(s.items, k)
		}
	}
}

func newRandomToken(n int) string {
	b := make([]byte, n)
	_, _ = rand.Read(b)
	return base64.RawURLEncoding.EncodeToString(b)
}
