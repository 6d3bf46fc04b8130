// Package bounce renders rejection notices and mails them back to the
// sender of an email the engine refused.
package bounce

import (
	"context"
	"embed"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/mailgatehq/mailgate/internal/mailroom"
)

//go:embed templates/*.md
var builtin embed.FS

const defaultSubject = "Your email could not be processed"

// Template is one rejection notice, keyed by the rejection kind its file is
// named after.
type Template struct {
	Subject string
	Body    string
}

// parseTemplate splits a template file into YAML frontmatter and body.
// Format:
//
//	---
//	subject: Subject line of the notice
//	---
//	Body, with %{detail} and %{reasons} placeholders.
func parseTemplate(raw, fallbackSubject string) Template {
	trimmed := strings.TrimSpace(raw)
	result := Template{Subject: fallbackSubject, Body: trimmed}
	if !strings.HasPrefix(trimmed, "---") {
		return result
	}

	// Find closing "---".
	rest := trimmed[3:]
	rest = strings.TrimLeft(rest, " \t")
	if len(rest) > 0 && rest[0] == '\n' {
		rest = rest[1:]
	} else if len(rest) > 1 && rest[0] == '\r' && rest[1] == '\n' {
		rest = rest[2:]
	}
	closingIdx := strings.Index(rest, "\n---")
	if closingIdx < 0 {
		return result
	}

	frontmatterRaw := rest[:closingIdx]
	result.Body = strings.TrimSpace(rest[closingIdx+4:])

	var fm struct {
		Subject string `yaml:"subject"`
	}
	if err := yaml.Unmarshal([]byte(frontmatterRaw), &fm); err != nil {
		return result
	}
	if strings.TrimSpace(fm.Subject) != "" {
		result.Subject = strings.TrimSpace(fm.Subject)
	}
	return result
}

// loadTemplates reads the built-in notices and then any overrides from dir.
// Files are named <kind>.md.
func loadTemplates(dir string) (map[string]Template, error) {
	templates := make(map[string]Template)

	entries, err := builtin.ReadDir("templates")
	if err != nil {
		return nil, fmt.Errorf("read built-in templates: %w", err)
	}
	for _, entry := range entries {
		raw, err := builtin.ReadFile("templates/" + entry.Name())
		if err != nil {
			return nil, fmt.Errorf("read built-in template %s: %w", entry.Name(), err)
		}
		templates[strings.TrimSuffix(entry.Name(), ".md")] = parseTemplate(string(raw), defaultSubject)
	}

	if dir == "" {
		return templates, nil
	}
	overrides, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read template dir %s: %w", dir, err)
	}
	for _, entry := range overrides {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".md") {
			continue
		}
		raw, err := os.ReadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("read template %s: %w", entry.Name(), err)
		}
		templates[strings.TrimSuffix(entry.Name(), ".md")] = parseTemplate(string(raw), defaultSubject)
	}
	return templates, nil
}

// Notifier matches rejections to templates and hands the rendered notice to
// a Sender.
type Notifier struct {
	logger    *slog.Logger
	sender    Sender
	templates map[string]Template
}

// NewNotifier loads the notice templates, applying overrides from
// templateDir when it is non-empty.
func NewNotifier(log *slog.Logger, sender Sender, templateDir string) (*Notifier, error) {
	if log == nil {
		log = slog.Default()
	}
	templates, err := loadTemplates(templateDir)
	if err != nil {
		return nil, err
	}
	return &Notifier{
		logger:    log.With(slog.String("component", "bounce")),
		sender:    sender,
		templates: templates,
	}, nil
}

// Notify sends the notice matching the rejection kind back to the sender
// recorded on the receipt. Kinds without a template are dropped silently.
func (n *Notifier) Notify(ctx context.Context, receipt *mailroom.Receipt, rej *mailroom.Rejection) error {
	kind := mailroom.Kind(rej)
	if receipt.From == "" {
		n.logger.Debug("no sender address, dropping rejection notice", slog.String("kind", kind))
		return nil
	}
	tpl, ok := n.templates[kind]
	if !ok {
		n.logger.Debug("no template for rejection kind", slog.String("kind", kind))
		return nil
	}

	notice := Notice{
		To:        receipt.From,
		Subject:   tpl.Subject,
		Body:      renderBody(tpl.Body, rej),
		InReplyTo: receipt.MessageID,
	}
	if err := n.sender.Send(ctx, notice); err != nil {
		return fmt.Errorf("send rejection notice: %w", err)
	}
	n.logger.Info("rejection notice sent", slog.String("kind", kind), slog.String("to", notice.To))
	return nil
}

var blankRunRe = regexp.MustCompile(`\n{3,}`)

func renderBody(body string, rej *mailroom.Rejection) string {
	out := strings.ReplaceAll(body, "%{detail}", rej.Detail)
	out = strings.ReplaceAll(out, "%{reasons}", formatReasons(rej.Reasons))
	out = blankRunRe.ReplaceAllString(out, "\n\n")
	return strings.TrimSpace(out) + "\n"
}

func formatReasons(reasons []string) string {
	lines := make([]string, 0, len(reasons))
	for _, reason := range reasons {
		lines = append(lines, "- "+reason)
	}
	return strings.Join(lines, "\n")
}
