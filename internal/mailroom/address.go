package mailroom

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/mailgatehq/mailgate/internal/mailparse"
)

// keyPlaceholder marks where the routing key sits in the configured incoming
// address, e.g. "reply+%{key}@mail.example.com".
const keyPlaceholder = "%{key}"

const keyPattern = `[A-Za-z0-9][A-Za-z0-9._-]*`

// KeyScheme recovers routing keys from recipient addresses and, as a
// fallback, from referenced message ids of the form reply-<key>@<host>.
type KeyScheme struct {
	addressBefore string
	addressAfter  string
	addressRe     *regexp.Regexp
	messageIDRe   *regexp.Regexp
}

func NewKeyScheme(addressTemplate, replyHost string) (*KeyScheme, error) {
	before, after, found := strings.Cut(addressTemplate, keyPlaceholder)
	if !found {
		return nil, fmt.Errorf("incoming address %q has no %s placeholder", addressTemplate, keyPlaceholder)
	}
	addressRe, err := regexp.Compile(`(?i)\A` + regexp.QuoteMeta(before) + `(` + keyPattern + `)` + regexp.QuoteMeta(after) + `\z`)
	if err != nil {
		return nil, fmt.Errorf("compile address matcher: %w", err)
	}
	s := &KeyScheme{
		addressBefore: before,
		addressAfter:  after,
		addressRe:     addressRe,
	}
	if replyHost != "" {
		s.messageIDRe, err = regexp.Compile(`(?i)\Areply-(` + keyPattern + `)@` + regexp.QuoteMeta(replyHost) + `\z`)
		if err != nil {
			return nil, fmt.Errorf("compile message id matcher: %w", err)
		}
	}
	return s, nil
}

// FormatAddress renders the incoming address that routes to key.
func (s *KeyScheme) FormatAddress(key string) string {
	return s.addressBefore + key + s.addressAfter
}

// AddressKey extracts the routing key from one recipient address.
func (s *KeyScheme) AddressKey(address string) (string, bool) {
	m := s.addressRe.FindStringSubmatch(strings.TrimSpace(address))
	if m == nil {
		return "", false
	}
	return m[1], true
}

// MessageIDKey extracts the routing key from one referenced message id.
func (s *KeyScheme) MessageIDKey(id string) (string, bool) {
	if s.messageIDRe == nil {
		return "", false
	}
	id = strings.TrimSpace(id)
	id = strings.TrimPrefix(id, "<")
	id = strings.TrimSuffix(id, ">")
	m := s.messageIDRe.FindStringSubmatch(id)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// Resolve returns the first routing key found in the message. Recipient
// addresses are tried exhaustively, in header order, before any referenced
// message id is consulted.
func (s *KeyScheme) Resolve(msg *mailparse.Message) (string, bool) {
	for _, addr := range msg.To {
		if key, ok := s.AddressKey(addr); ok {
			return key, true
		}
	}
	for _, id := range msg.References {
		if key, ok := s.MessageIDKey(id); ok {
			return key, true
		}
	}
	return "", false
}
