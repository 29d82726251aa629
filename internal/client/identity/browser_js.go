//go:build js && wasm

package identity

import (
	"context"
	"errors"
	"syscall/js"
)

var errNoBrowserStorage = errors.New("browser storage unavailable")

// LocalStorage is a KeyValueStore over window.localStorage.
type LocalStorage struct {
	v js.Value
}

func NewLocalStorage() (*LocalStorage, error) {
	v := js.Global().Get("localStorage")
	if v.IsUndefined() || v.IsNull() {
		return nil, errNoBrowserStorage
	}
	return &LocalStorage{v: v}, nil
}

func (l *LocalStorage) Get(_ context.Context, key string) ([]byte, error) {
	v := l.v.Call("getItem", key)
	if v.IsNull() || v.IsUndefined() {
		return nil, nil
	}
	return []byte(v.String()), nil
}

func (l *LocalStorage) Set(_ context.Context, key string, value []byte) error {
	l.v.Call("setItem", key, string(value))
	return nil
}

func (l *LocalStorage) Delete(_ context.Context, key string) error {
	l.v.Call("removeItem", key)
	return nil
}

// DocumentCookie is a CookieJar over document.cookie.
type DocumentCookie struct {
	doc js.Value
}

func NewDocumentCookie() (*DocumentCookie, error) {
	doc := js.Global().Get("document")
	if doc.IsUndefined() || doc.IsNull() {
		return nil, errNoBrowserStorage
	}
	return &DocumentCookie{doc: doc}, nil
}

func (d *DocumentCookie) Cookie() (string, error) {
	return d.doc.Get("cookie").String(), nil
}

func (d *DocumentCookie) SetCookie(cookie string) error {
	d.doc.Set("cookie", cookie)
	return nil
}
