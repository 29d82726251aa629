package identity

import (
	"fmt"
	"net/http"
	"strings"
	"time"
)

// LookupCookie finds key in a "k1=v1; k2=v2" cookie string. Chunks without
// "=" are skipped and whitespace around names and values is ignored.
func LookupCookie(cookie, key string) (string, bool) {
	for _, chunk := range strings.Split(cookie, ";") {
		name, value, ok := strings.Cut(chunk, "=")
		if !ok {
			continue
		}
		if strings.TrimSpace(name) == key {
			value = strings.TrimSpace(value)
			return value, value != ""
		}
	}
	return "", false
}

// cookieSet is an ordered name=value set with Set-Cookie update rules.
type cookieSet struct {
	names  []string
	values map[string]string
}

func newCookieSet() *cookieSet {
	return &cookieSet{values: make(map[string]string)}
}

// apply updates the set from a Set-Cookie style string. Max-Age<=0 or an
// expiry in the past removes the cookie.
func (s *cookieSet) apply(setCookie string, now time.Time) error {
	ck, err := http.ParseSetCookie(setCookie)
	if err != nil {
		return fmt.Errorf("parse cookie %q: %w", setCookie, err)
	}

	expired := ck.MaxAge < 0 || (!ck.Expires.IsZero() && ck.Expires.Before(now))
	_, exists := s.values[ck.Name]

	switch {
	case expired && exists:
		delete(s.values, ck.Name)
		for i, n := range s.names {
			if n == ck.Name {
				s.names = append(s.names[:i], s.names[i+1:]...)
				break
			}
		}
	case expired:
	case exists:
		s.values[ck.Name] = ck.Value
	default:
		s.names = append(s.names, ck.Name)
		s.values[ck.Name] = ck.Value
	}
	return nil
}

func (s *cookieSet) String() string {
	pairs := make([]string, 0, len(s.names))
	for _, n := range s.names {
		pairs = append(pairs, n+"="+s.values[n])
	}
	return strings.Join(pairs, "; ")
}

func parseCookieSet(raw string) *cookieSet {
	s := newCookieSet()
	for _, chunk := range strings.Split(raw, ";") {
		name, value, ok := strings.Cut(chunk, "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			continue
		}
		if _, dup := s.values[name]; !dup {
			s.names = append(s.names, name)
		}
		s.values[name] = strings.TrimSpace(value)
	}
	return s
}
