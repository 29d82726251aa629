package identity

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// FileCookieJar keeps the cookie string in a file, one "k=v; k2=v2" line.
type FileCookieJar struct {
	path string
	mu   sync.Mutex
}

func NewFileCookieJar(path string) *FileCookieJar {
	return &FileCookieJar{path: path}
}

func (j *FileCookieJar) Cookie() (string, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	set, err := j.load()
	if err != nil {
		return "", err
	}
	return set.String(), nil
}

func (j *FileCookieJar) SetCookie(cookie string) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	set, err := j.load()
	if err != nil {
		return err
	}
	if err := set.apply(cookie, time.Now()); err != nil {
		return err
	}
	return j.save(set)
}

func (j *FileCookieJar) load() (*cookieSet, error) {
	b, err := os.ReadFile(j.path)
	if errors.Is(err, fs.ErrNotExist) {
		return newCookieSet(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read cookie file: %w", err)
	}
	return parseCookieSet(string(b)), nil
}

func (j *FileCookieJar) save(set *cookieSet) error {
	tmp, err := os.CreateTemp(filepath.Dir(j.path), filepath.Base(j.path)+".*")
	if err != nil {
		return fmt.Errorf("write cookie file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.WriteString(set.String() + "\n"); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write cookie file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write cookie file: %w", err)
	}
	if err := os.Rename(tmp.Name(), j.path); err != nil {
		return fmt.Errorf("write cookie file: %w", err)
	}
	return nil
}
