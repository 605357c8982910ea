package domain

import (
	"encoding/base64"
	"fmt"
	"net/url"
	"strings"

	"github.com/google/uuid"
)

// Kind names an entity type in a key path.
type Kind string

const (
	KindProfile    Kind = "Profile"
	KindConference Kind = "Conference"
	KindSession    Kind = "Session"
	KindSpeaker    Kind = "Speaker"
)

func (k Kind) valid() bool {
	switch k {
	case KindProfile, KindConference, KindSession, KindSpeaker:
		return true
	}
	return false
}

// Key identifies an entity. A key may have a parent, which makes the
// entity part of its parent's group (a Session belongs to a Conference,
// a Conference to the organizer's Profile). Keys travel to clients in
// their websafe encoded form.
type Key struct {
	Kind   Kind
	ID     string
	Parent *Key
}

func NewKey(kind Kind, id string, parent *Key) *Key {
	return &Key{Kind: kind, ID: id, Parent: parent}
}

// AllocateKey returns a key with a freshly generated, time-ordered id.
func AllocateKey(kind Kind, parent *Key) *Key {
	id, err := uuid.NewV7()
	if err != nil {
		id = uuid.New()
	}
	return NewKey(kind, id.String(), parent)
}

// ProfileKey is the key of the profile owned by userID.
func ProfileKey(userID string) *Key {
	return NewKey(KindProfile, userID, nil)
}

func (k *Key) path() []string {
	var segs []string
	for cur := k; cur != nil; cur = cur.Parent {
		segs = append([]string{url.PathEscape(string(cur.Kind)) + "," + url.PathEscape(cur.ID)}, segs...)
	}
	return segs
}

// Encode returns the websafe form of k.
func (k *Key) Encode() string {
	if k == nil {
		return ""
	}
	return base64.RawURLEncoding.EncodeToString([]byte(strings.Join(k.path(), "/")))
}

func (k *Key) String() string { return k.Encode() }

// Equal compares full key paths.
func (k *Key) Equal(o *Key) bool {
	if k == nil || o == nil {
		return k == o
	}
	return k.Encode() == o.Encode()
}

// Root returns the top ancestor of k.
func (k *Key) Root() *Key {
	cur := k
	for cur != nil && cur.Parent != nil {
		cur = cur.Parent
	}
	return cur
}

func (k *Key) MarshalText() ([]byte, error) {
	return []byte(k.Encode()), nil
}

func (k *Key) UnmarshalText(b []byte) error {
	parsed, err := ParseKey(string(b))
	if err != nil {
		return err
	}
	*k = *parsed
	return nil
}

// ParseKey decodes a websafe key.
func ParseKey(s string) (*Key, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, fmt.Errorf("%w: empty key", ErrInvalidInput)
	}
	raw, err := base64.RawURLEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("%w: malformed key %q", ErrInvalidInput, s)
	}
	var key *Key
	for _, seg := range strings.Split(string(raw), "/") {
		kindPart, idPart, ok := strings.Cut(seg, ",")
		if !ok {
			return nil, fmt.Errorf("%w: malformed key %q", ErrInvalidInput, s)
		}
		kind, err := url.PathUnescape(kindPart)
		if err != nil {
			return nil, fmt.Errorf("%w: malformed key %q", ErrInvalidInput, s)
		}
		id, err := url.PathUnescape(idPart)
		if err != nil || id == "" || !Kind(kind).valid() {
			return nil, fmt.Errorf("%w: malformed key %q", ErrInvalidInput, s)
		}
		key = NewKey(Kind(kind), id, key)
	}
	return key, nil
}

// ParseKeyOfKind decodes a websafe key and checks that it names kind.
func ParseKeyOfKind(s string, kind Kind) (*Key, error) {
	key, err := ParseKey(s)
	if err != nil {
		return nil, err
	}
	if key.Kind != kind {
		return nil, fmt.Errorf("%w: key %q is not a %s key", ErrInvalidInput, s, kind)
	}
	return key, nil
}

// EncodeKeys returns the websafe forms of keys.
func EncodeKeys(keys []*Key) []string {
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		out = append(out, k.Encode())
	}
	return out
}

// ParseKeys decodes a list of websafe keys.
func ParseKeys(ss []string) ([]*Key, error) {
	out := make([]*Key, 0, len(ss))
	for _, s := range ss {
		k, err := ParseKey(s)
		if err != nil {
			return nil, err
		}
		out = append(out, k)
	}
	return out, nil
}

// ContainsKey reports whether keys holds a key equal to k.
func ContainsKey(keys []*Key, k *Key) bool {
	return IndexKey(keys, k) >= 0
}

// IndexKey returns the position of k in keys, or -1.
func IndexKey(keys []*Key, k *Key) int {
	for i, cur := range keys {
		if cur.Equal(k) {
			return i
		}
	}
	return -1
}

// RemoveKey returns keys without any element equal to k.
func RemoveKey(keys []*Key, k *Key) []*Key {
	out := make([]*Key, 0, len(keys))
	for _, cur := range keys {
		if !cur.Equal(k) {
			out = append(out, cur)
		}
	}
	return out
}
