// Package mailroom decides what to do with one inbound email: route it as a
// reply to an existing conversation, as a request to open a new issue, or
// reject it with a typed verdict.
package mailroom

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/mailgatehq/mailgate/internal/issues"
	"github.com/mailgatehq/mailgate/internal/mailparse"
	"github.com/mailgatehq/mailgate/internal/notes"
	"github.com/mailgatehq/mailgate/internal/notifications"
	"github.com/mailgatehq/mailgate/internal/projects"
	"github.com/mailgatehq/mailgate/internal/users"
)

// Parser turns raw message bytes into a structured message.
type Parser interface {
	Parse(raw []byte) (*mailparse.Message, error)
}

// ReplyStripper separates fresh reply text from quoted history.
type ReplyStripper interface {
	ExtractReply(msg *mailparse.Message) string
}

// UserFinder resolves acting users. Absence is users.ErrUserNotFound.
type UserFinder interface {
	FindByAnyEmail(ctx context.Context, email string) (*users.User, error)
	FindByID(ctx context.Context, id string) (*users.User, error)
}

// ProjectFinder resolves target projects. Absence is projects.ErrProjectNotFound.
type ProjectFinder interface {
	FindByReplyKey(ctx context.Context, key string) (*projects.Project, error)
	FindByID(ctx context.Context, id string) (*projects.Project, error)
}

// ContextStore looks up the conversation a routing key was minted for.
// Absence, including an expired entry, is notifications.ErrNotificationNotFound.
type ContextStore interface {
	FindByReplyKey(ctx context.Context, key string) (*notifications.SentNotification, error)
}

// AuthorizationPolicy decides whether a user may act on a project.
type AuthorizationPolicy interface {
	HasCapability(ctx context.Context, user *users.User, projectID string, capability users.Capability) (bool, error)
}

// AttachmentUploader persists attachments and returns one display reference
// per stored file, in input order.
type AttachmentUploader interface {
	Process(ctx context.Context, projectID string, attachments []mailparse.Attachment) ([]string, error)
}

type NoteCreator interface {
	NoteableExists(ctx context.Context, noteableType, noteableID, commitID string) (bool, error)
	CreateNote(ctx context.Context, params notes.CreateParams) (notes.Result, error)
}

type IssueCreator interface {
	CreateIssue(ctx context.Context, params issues.CreateParams) (issues.Result, error)
}

// Collaborators bundles the lookup, policy, and persistence dependencies the
// Receiver drives. Any of them may block on a data store; the Receiver adds
// no timeout or retry of its own.
type Collaborators struct {
	Users    UserFinder
	Projects ProjectFinder
	Contexts ContextStore
	Policy   AuthorizationPolicy
	Uploads  AttachmentUploader
	Notes    NoteCreator
	Issues   IssueCreator
}

// Route classifies what the engine decided an email is.
type Route string

const (
	RouteUnknown Route = "unknown"
	RouteReply   Route = "reply"
	RouteNewItem Route = "new_issue"
)

// Receipt records what the engine established about one email, including on
// rejection, for auditing and bounce addressing.
type Receipt struct {
	MessageID string
	From      string
	Route     Route
	NoteID    string
	IssueID   string
}

// Receiver runs the routing and authorization pipeline. It is stateless
// between invocations; concurrent calls are independent.
type Receiver struct {
	logger   *slog.Logger
	scheme   *KeyScheme
	parser   Parser
	stripper ReplyStripper
	collab   Collaborators
}

func NewReceiver(log *slog.Logger, scheme *KeyScheme, parser Parser, stripper ReplyStripper, collab Collaborators) *Receiver {
	if log == nil {
		log = slog.Default()
	}
	return &Receiver{
		logger:   log.With(slog.String("component", "mailroom")),
		scheme:   scheme,
		parser:   parser,
		stripper: stripper,
		collab:   collab,
	}
}

// Process routes one raw email. The returned Receipt is valid even when the
// error is non-nil and carries whatever was established before the failure.
// A *Rejection error is a permanent verdict on this input; any other error is
// an infrastructure failure the caller may retry.
func (r *Receiver) Process(ctx context.Context, raw []byte) (*Receipt, error) {
	receipt := &Receipt{Route: RouteUnknown}
	if len(bytes.TrimSpace(raw)) == 0 {
		return receipt, reject(ErrEmptyInput, "")
	}

	msg, err := r.parser.Parse(raw)
	if err != nil {
		return receipt, reject(ErrUnparsable, err.Error())
	}
	receipt.MessageID = msg.MessageID
	if len(msg.From) > 0 {
		receipt.From = msg.From[0]
	}

	key, found := r.scheme.Resolve(msg)
	if !found {
		return receipt, reject(ErrRoutingNotFound, "")
	}

	conversation, err := r.collab.Contexts.FindByReplyKey(ctx, key)
	switch {
	case err == nil:
		receipt.Route = RouteReply
		return receipt, r.processReply(ctx, receipt, msg, conversation)
	case !errors.Is(err, notifications.ErrNotificationNotFound):
		return receipt, fmt.Errorf("look up conversation for key %q: %w", key, err)
	}

	project, err := r.collab.Projects.FindByReplyKey(ctx, key)
	switch {
	case err == nil:
		receipt.Route = RouteNewItem
		return receipt, r.processNewItem(ctx, receipt, msg, project)
	case errors.Is(err, projects.ErrProjectNotFound):
		return receipt, reject(ErrRoutingNotFound, fmt.Sprintf("key %q matches no conversation or project", key))
	default:
		return receipt, fmt.Errorf("look up project for key %q: %w", key, err)
	}
}

func (r *Receiver) processReply(ctx context.Context, receipt *Receipt, msg *mailparse.Message, conversation *notifications.SentNotification) error {
	if isAutoGenerated(msg.HeaderBlob) {
		return reject(ErrAutoGenerated, "")
	}

	recipient, err := r.collab.Users.FindByID(ctx, conversation.RecipientID)
	switch {
	case errors.Is(err, users.ErrUserNotFound):
		recipient = nil
	case err != nil:
		return fmt.Errorf("look up recipient %s: %w", conversation.RecipientID, err)
	}

	project, err := r.collab.Projects.FindByID(ctx, conversation.ProjectID)
	switch {
	case errors.Is(err, projects.ErrProjectNotFound):
		project = nil
	case err != nil:
		return fmt.Errorf("look up project %s: %w", conversation.ProjectID, err)
	}

	if err := r.authorize(ctx, recipient, project, users.CapabilityCreateNote); err != nil {
		return err
	}

	exists, err := r.collab.Notes.NoteableExists(ctx, conversation.NoteableType, conversation.NoteableID, conversation.CommitID)
	if err != nil {
		return fmt.Errorf("look up noteable %s: %w", conversation.NoteableType, err)
	}
	if !exists {
		return reject(ErrNoteableNotFound, "")
	}

	body, err := r.extractBody(ctx, msg, project.ID)
	if err != nil {
		return err
	}

	result, err := r.collab.Notes.CreateNote(ctx, notes.CreateParams{
		ProjectID:    project.ID,
		AuthorID:     recipient.ID,
		NoteableType: conversation.NoteableType,
		NoteableID:   conversation.NoteableID,
		CommitID:     conversation.CommitID,
		LineCode:     conversation.LineCode,
		Body:         body,
	})
	if err != nil {
		return fmt.Errorf("create note: %w", err)
	}
	if !result.Persisted {
		return &Rejection{Reason: ErrInvalidNote, Reasons: result.Errors}
	}

	receipt.NoteID = result.ID
	r.logger.Info("created note from reply",
		slog.String("note_id", result.ID),
		slog.String("project_id", project.ID),
		slog.String("message_id", receipt.MessageID))
	return nil
}

func (r *Receiver) processNewItem(ctx context.Context, receipt *Receipt, msg *mailparse.Message, project *projects.Project) error {
	var author *users.User
	for _, addr := range msg.From {
		u, err := r.collab.Users.FindByAnyEmail(ctx, addr)
		if errors.Is(err, users.ErrUserNotFound) {
			continue
		}
		if err != nil {
			return fmt.Errorf("look up sender %q: %w", addr, err)
		}
		author = u
		break
	}

	if err := r.authorize(ctx, author, project, users.CapabilityCreateIssue); err != nil {
		return err
	}

	body, err := r.extractBody(ctx, msg, project.ID)
	if err != nil {
		return err
	}

	result, err := r.collab.Issues.CreateIssue(ctx, issues.CreateParams{
		ProjectID:   project.ID,
		AuthorID:    author.ID,
		Title:       msg.Subject,
		Description: body,
	})
	if err != nil {
		return fmt.Errorf("create issue: %w", err)
	}
	if !result.Persisted {
		return &Rejection{Reason: ErrInvalidIssue, Reasons: result.Errors}
	}

	receipt.IssueID = result.ID
	r.logger.Info("created issue from email",
		slog.String("issue_id", result.ID),
		slog.String("project_id", project.ID),
		slog.String("message_id", receipt.MessageID))
	return nil
}

// authorize gates one action. The checks run in a fixed order: a missing user
// wins over a blocked one, a blocked user wins over a missing capability.
func (r *Receiver) authorize(ctx context.Context, user *users.User, project *projects.Project, capability users.Capability) error {
	if user == nil {
		return reject(ErrUserNotFound, "")
	}
	if user.Blocked() {
		return reject(ErrUserBlocked, "")
	}
	if project == nil {
		return reject(ErrUserNotAuthorized, "")
	}
	allowed, err := r.collab.Policy.HasCapability(ctx, user, project.ID, capability)
	if err != nil {
		return fmt.Errorf("check %s capability: %w", capability, err)
	}
	if !allowed {
		return reject(ErrUserNotAuthorized, "")
	}
	return nil
}

// extractBody strips quoted history, rejects blank results, and appends one
// display reference per stored attachment, each separated by a blank line.
// Attachment persistence is a side effect; this must run at most once per
// message.
func (r *Receiver) extractBody(ctx context.Context, msg *mailparse.Message, projectID string) (string, error) {
	body := strings.TrimSpace(r.stripper.ExtractReply(msg))
	if body == "" {
		return "", reject(ErrEmptyReply, "")
	}
	refs, err := r.collab.Uploads.Process(ctx, projectID, msg.Attachments)
	if err != nil {
		return "", fmt.Errorf("store attachments: %w", err)
	}
	for _, ref := range refs {
		body += "\n\n" + ref
	}
	return body, nil
}

var (
	autoSubmittedRe = regexp.MustCompile(`(?im)^auto-submitted:\s*(\S+)\s*$`)
	autoRepliedRe   = regexp.MustCompile(`(?im)^x-autoreply:\s*yes\s*$`)
)

// isAutoGenerated reports whether the raw header text carries an
// auto-generated or auto-replied marker. "Auto-Submitted: no" is the one
// value that does not count.
func isAutoGenerated(headerBlob string) bool {
	if m := autoSubmittedRe.FindStringSubmatch(headerBlob); m != nil && !strings.EqualFold(m[1], "no") {
		return true
	}
	return autoRepliedRe.MatchString(headerBlob)
}
