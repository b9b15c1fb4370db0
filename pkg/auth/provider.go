package auth

import (
	"fmt"
	"os"
	"strings"
	"sync"
)

// TokenProvider supplies the bearer token attached to outgoing requests.
// An empty token with a nil error means "no session": the request proceeds
// without an Authorization header. A non-nil error rejects the request.
type TokenProvider interface {
	Token() (string, error)
}

// TokenProviderFunc adapts a plain lookup function to TokenProvider.
type TokenProviderFunc func() (string, error)

func (f TokenProviderFunc) Token() (string, error) {
	return f()
}

// StaticProvider always returns the same token. Useful for tests and for
// tooling holding a token obtained out of band.
func StaticProvider(token string) TokenProvider {
	return TokenProviderFunc(func() (string, error) {
		return token, nil
	})
}

// NoneProvider never returns a token. Requests go out unauthenticated.
func NoneProvider() TokenProvider {
	return TokenProviderFunc(func() (string, error) {
		return "", nil
	})
}

// FileProvider reads the token from a file on every lookup, mirroring how
// the browser client re-reads its persistent storage per request. A missing
// file means no session, not an error.
type FileProvider struct {
	path string

	mu sync.Mutex
}

func NewFileProvider(path string) (*FileProvider, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("token file path is required")
	}
	return &FileProvider{path: path}, nil
}

func (p *FileProvider) Token() (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	raw, err := os.ReadFile(p.path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", fmt.Errorf("reading token file: %w", err)
	}
	return strings.TrimSpace(string(raw)), nil
}
