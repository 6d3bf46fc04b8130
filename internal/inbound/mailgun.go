package inbound

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"

	"github.com/mailgatehq/mailgate/internal/config"
)

var (
	// ErrBadSignature marks a webhook post whose HMAC did not verify.
	ErrBadSignature = errors.New("webhook signature verification failed")
	// ErrIntakeDisabled marks a post to a webhook that is switched off in config.
	ErrIntakeDisabled = errors.New("mailgun intake is disabled")
)

// MailgunWebhook authenticates forwarded messages from a Mailgun route and
// extracts the raw MIME they carry. The route must be configured to post the
// full MIME body.
type MailgunWebhook struct {
	enabled    bool
	signingKey string
}

func NewMailgunWebhook(cfg config.MailgunInbound) *MailgunWebhook {
	return &MailgunWebhook{enabled: cfg.Enabled, signingKey: cfg.SigningKey}
}

// Parse verifies the form signature and returns the body-mime field. An empty
// signing key skips verification; that is for local setups only.
func (w *MailgunWebhook) Parse(r *http.Request) ([]byte, error) {
	if !w.enabled {
		return nil, ErrIntakeDisabled
	}

	if err := r.ParseMultipartForm(10 << 20); err != nil {
		if err2 := r.ParseForm(); err2 != nil {
			return nil, fmt.Errorf("parse form: %w", err2)
		}
	}

	if w.signingKey != "" {
		timestamp := r.FormValue("timestamp")
		token := r.FormValue("token")
		signature := r.FormValue("signature")
		mac := hmac.New(sha256.New, []byte(w.signingKey))
		mac.Write([]byte(timestamp + token))
		expected := hex.EncodeToString(mac.Sum(nil))
		if !hmac.Equal([]byte(expected), []byte(signature)) {
			return nil, ErrBadSignature
		}
	}

	raw := r.FormValue("body-mime")
	if raw == "" {
		return nil, errors.New("missing body-mime form field")
	}
	return []byte(raw), nil
}
