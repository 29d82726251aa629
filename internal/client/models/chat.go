// Package models defines the typed chat records the client works with. Live
// query results are decoded into these types in one mapping step.
package models

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// User is a registered chat participant. CreatedAt is Unix milliseconds.
type User struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	CreatedAt int64  `json:"created_at"`
}

// Channel is a named room. Messages arrive unordered.
type Channel struct {
	ID       string    `json:"id"`
	Name     string    `json:"name"`
	Messages []Message `json:"messages,omitempty"`
}

// Message is a chat line. Author is resolved through the reverse
// users.messages link and is exposed as "user" in query results.
type Message struct {
	ID        string `json:"id"`
	Body      string `json:"body"`
	Timestamp int64  `json:"timestamp"`
	Author    *User  `json:"user"`
}

// UnmarshalJSON accepts the author as an object, null, or a one-element list.
func (m *Message) UnmarshalJSON(b []byte) error {
	type plain Message
	var raw struct {
		plain
		User json.RawMessage `json:"user"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	*m = Message(raw.plain)
	m.Author = nil

	author := bytes.TrimSpace(raw.User)
	switch {
	case len(author) == 0 || bytes.Equal(author, []byte("null")):
		return nil
	case author[0] == '[':
		var users []User
		if err := json.Unmarshal(author, &users); err != nil {
			return fmt.Errorf("message %s author: %w", m.ID, err)
		}
		if len(users) == 1 {
			m.Author = &users[0]
		}
		return nil
	default:
		var u User
		if err := json.Unmarshal(author, &u); err != nil {
			return fmt.Errorf("message %s author: %w", m.ID, err)
		}
		m.Author = &u
		return nil
	}
}

// ChannelDirectory is the live result of the all-channels query.
type ChannelDirectory struct {
	Channels []Channel `json:"channels"`
}

// UserDirectory is the live result of the all-users query.
type UserDirectory struct {
	Users []User `json:"users"`
}

// ActiveChannel is the live result of the selected-channel query. A nil
// Channel means no channel is active.
type ActiveChannel struct {
	Channel *Channel `json:"channel"`
}

// HasName reports whether a user with exactly this name exists.
func (d UserDirectory) HasName(name string) bool {
	for _, u := range d.Users {
		if u.Name == name {
			return true
		}
	}
	return false
}

// Find returns the user with the given id.
func (d UserDirectory) Find(id string) (User, bool) {
	if id == "" {
		return User{}, false
	}
	for _, u := range d.Users {
		if u.ID == id {
			return u, true
		}
	}
	return User{}, false
}

// Names lists channel names in directory order.
func (d ChannelDirectory) Names() []string {
	names := make([]string, 0, len(d.Channels))
	for _, c := range d.Channels {
		names = append(names, c.Name)
	}
	return names
}
