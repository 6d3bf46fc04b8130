package mailparse

import (
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestParser() *Parser {
	return NewParser(slog.Default())
}

func TestParsePlainText(t *testing.T) {
	raw := strings.Join([]string{
		"From: Jake Dean <jake@adventure.test>",
		"To: reply+a1b2c3@mail.example.com, support@example.com",
		"Subject: Re: Broken pipeline",
		"Message-ID: <m1@adventure.test>",
		"References: <issue_1@mail.example.com> <reply-d4e5f6@mail.example.com>",
		"MIME-Version: 1.0",
		"Content-Type: text/plain; charset=utf-8",
		"",
		"Looks good to me.",
		"",
		"> quoted original",
	}, "\r\n")

	msg, err := newTestParser().Parse([]byte(raw))
	require.NoError(t, err)
	require.Equal(t, []string{"jake@adventure.test"}, msg.From)
	require.Equal(t, []string{"reply+a1b2c3@mail.example.com", "support@example.com"}, msg.To)
	require.Equal(t, []string{"issue_1@mail.example.com", "reply-d4e5f6@mail.example.com"}, msg.References)
	require.Equal(t, "Re: Broken pipeline", msg.Subject)
	require.Contains(t, msg.Body, "Looks good to me.")
	require.Contains(t, msg.HeaderBlob, "Message-ID: <m1@adventure.test>")
	require.Empty(t, msg.Attachments)
}

func TestParseMultipartWithAttachment(t *testing.T) {
	raw := strings.Join([]string{
		"From: jake@adventure.test",
		"To: reply+a1b2c3@mail.example.com",
		"Subject: logs attached",
		"MIME-Version: 1.0",
		`Content-Type: multipart/mixed; boundary="xyzzy"`,
		"",
		"--xyzzy",
		"Content-Type: text/plain; charset=utf-8",
		"",
		"See the attached log.",
		"--xyzzy",
		"Content-Type: text/plain",
		`Content-Disposition: attachment; filename="run.log"`,
		"",
		"line one",
		"line two",
		"--xyzzy--",
		"",
	}, "\r\n")

	msg, err := newTestParser().Parse([]byte(raw))
	require.NoError(t, err)
	require.Contains(t, msg.Body, "See the attached log.")
	require.Len(t, msg.Attachments, 1)
	require.Equal(t, "run.log", msg.Attachments[0].Filename)
	require.Contains(t, string(msg.Attachments[0].Content), "line one")
}

func TestParseHTMLOnlyBodyConvertsToMarkdown(t *testing.T) {
	raw := strings.Join([]string{
		"From: jake@adventure.test",
		"To: reply+a1b2c3@mail.example.com",
		"Subject: hi",
		"MIME-Version: 1.0",
		"Content-Type: text/html; charset=utf-8",
		"",
		"<p>Looks <strong>good</strong> to me.</p>",
	}, "\r\n")

	msg, err := newTestParser().Parse([]byte(raw))
	require.NoError(t, err)
	require.Contains(t, msg.Body, "**good**")
}

func TestParseGarbageFailsWithEncodingError(t *testing.T) {
	_, err := newTestParser().Parse([]byte("\x00\x01 not a mail message"))
	require.ErrorIs(t, err, ErrEncoding)
}
