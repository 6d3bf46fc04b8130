// Package mailparse decodes raw RFC 5322 message bytes into the structured
// form the mailroom pipeline consumes.
package mailparse

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"github.com/emersion/go-message"
	_ "github.com/emersion/go-message/charset"
	"github.com/emersion/go-message/mail"
)

// ErrEncoding marks input that cannot be decoded into a message at all.
var ErrEncoding = errors.New("email encoding is not decodable")

// Message is the decoded view of one inbound email. Address and reference
// slices preserve header order.
type Message struct {
	MessageID   string
	From        []string
	To          []string
	References  []string
	Subject     string
	HeaderBlob  string
	Body        string
	Attachments []Attachment
	Date        time.Time
}

// Attachment is a decoded attachment part.
type Attachment struct {
	Filename    string
	ContentType string
	Content     []byte
}

type Parser struct {
	logger *slog.Logger
}

func NewParser(log *slog.Logger) *Parser {
	if log == nil {
		log = slog.Default()
	}
	return &Parser{logger: log.With(slog.String("component", "mailparse"))}
}

// Parse decodes raw bytes. Unknown charsets are tolerated where the body is
// still recoverable; anything structurally undecodable returns ErrEncoding.
func (p *Parser) Parse(raw []byte) (*Message, error) {
	mr, err := mail.CreateReader(bytes.NewReader(raw))
	if err != nil && !message.IsUnknownCharset(err) {
		return nil, fmt.Errorf("%w: %v", ErrEncoding, err)
	}
	if mr == nil {
		return nil, fmt.Errorf("%w: empty reader", ErrEncoding)
	}
	defer mr.Close()

	msg := &Message{
		From:       addressList(&mr.Header, "From"),
		To:         addressList(&mr.Header, "To"),
		HeaderBlob: headerBlob(raw),
	}
	if id, err := mr.Header.MessageID(); err == nil {
		msg.MessageID = id
	}
	if refs, err := mr.Header.MsgIDList("References"); err == nil {
		msg.References = refs
	}
	if subject, err := mr.Header.Subject(); err == nil {
		msg.Subject = subject
	}
	if date, err := mr.Header.Date(); err == nil {
		msg.Date = date
	}

	var textBody, htmlBody string
	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil && !message.IsUnknownCharset(err) {
			return nil, fmt.Errorf("%w: %v", ErrEncoding, err)
		}
		if part == nil {
			break
		}

		switch h := part.Header.(type) {
		case *mail.InlineHeader:
			ctype, _, _ := h.ContentType()
			data, readErr := io.ReadAll(part.Body)
			if readErr != nil {
				p.logger.Debug("skip unreadable inline part", slog.String("content_type", ctype), slog.Any("error", readErr))
				continue
			}
			switch {
			case strings.HasPrefix(ctype, "text/plain") && textBody == "":
				textBody = string(data)
			case strings.HasPrefix(ctype, "text/html") && htmlBody == "":
				htmlBody = string(data)
			}
		case *mail.AttachmentHeader:
			filename, _ := h.Filename()
			ctype, _, _ := h.ContentType()
			data, readErr := io.ReadAll(part.Body)
			if readErr != nil {
				p.logger.Debug("skip unreadable attachment", slog.String("filename", filename), slog.Any("error", readErr))
				continue
			}
			msg.Attachments = append(msg.Attachments, Attachment{
				Filename:    filename,
				ContentType: ctype,
				Content:     data,
			})
		}
	}

	msg.Body = textBody
	if msg.Body == "" && htmlBody != "" {
		msg.Body = markdownFromHTML(htmlBody)
	}
	return msg, nil
}

func addressList(h *mail.Header, key string) []string {
	list, err := h.AddressList(key)
	if err != nil {
		// Malformed address headers yield no candidates rather than a parse
		// failure; routing falls through to the remaining headers.
		return nil
	}
	out := make([]string, 0, len(list))
	for _, addr := range list {
		if strings.TrimSpace(addr.Address) != "" {
			out = append(out, addr.Address)
		}
	}
	return out
}

// headerBlob returns the raw header section, used for auto-generated marker
// detection without re-encoding decoded header values.
func headerBlob(raw []byte) string {
	if i := bytes.Index(raw, []byte("\r\n\r\n")); i >= 0 {
		return string(raw[:i])
	}
	if i := bytes.Index(raw, []byte("\n\n")); i >= 0 {
		return string(raw[:i])
	}
	return string(raw)
}

func markdownFromHTML(html string) string {
	md, err := htmltomarkdown.ConvertString(html)
	if err != nil {
		return html
	}
	return md
}
