package delivery

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strings"

	"github.com/yungbote/neurobridge-credentials/internal/clients/redis"
	types "github.com/yungbote/neurobridge-credentials/internal/domain"
	"github.com/yungbote/neurobridge-credentials/internal/platform/logger"
	"github.com/yungbote/neurobridge-credentials/internal/platform/sendgrid"
)

const EventCredentialIssued = "credential.issued"

type emailNotifier struct {
	log    *logger.Logger
	client sendgrid.Client
}

// NewEmailNotifier sends the learner a congratulation email with the certificate attached.
func NewEmailNotifier(log *logger.Logger, client sendgrid.Client) Notifier {
	return &emailNotifier{log: log.With("service", "CertificateEmailNotifier"), client: client}
}

func (n *emailNotifier) Notify(ctx context.Context, note Notification) error {
	to := strings.TrimSpace(note.Email)
	if to == "" {
		return fmt.Errorf("recipient email is required")
	}
	kind := "course"
	if note.AchievementType == types.AchievementLearningPath {
		kind = "learning path"
	}

	var text strings.Builder
	fmt.Fprintf(&text, "Congratulations %s!\n\n", displayName(note.RecipientName))
	fmt.Fprintf(&text, "You completed the %s %q.\n", kind, note.AchievementName)
	fmt.Fprintf(&text, "Credential ID: %s\n", note.CredentialID)
	if note.ArtifactURL != "" {
		fmt.Fprintf(&text, "Download: %s\n", note.ArtifactURL)
	}
	if note.VerifyURL != "" {
		fmt.Fprintf(&text, "Verify: %s\n", note.VerifyURL)
	}

	var body strings.Builder
	fmt.Fprintf(&body, "<p>Congratulations %s!</p>", html.EscapeString(displayName(note.RecipientName)))
	fmt.Fprintf(&body, "<p>You completed the %s <strong>%s</strong>.</p>", kind, html.EscapeString(note.AchievementName))
	fmt.Fprintf(&body, "<p>Credential ID: <code>%s</code></p>", html.EscapeString(note.CredentialID))
	if note.ArtifactURL != "" {
		fmt.Fprintf(&body, `<p><a href="%s">Download your certificate</a></p>`, html.EscapeString(note.ArtifactURL))
	}
	if note.VerifyURL != "" {
		fmt.Fprintf(&body, `<p><a href="%s">Verify this credential</a></p>`, html.EscapeString(note.VerifyURL))
	}

	req := sendgrid.SendEmailRequest{
		To:         []sendgrid.EmailAddress{{Email: to, Name: strings.TrimSpace(note.RecipientName)}},
		Subject:    fmt.Sprintf("Your certificate for %s", note.AchievementName),
		Text:       text.String(),
		HTML:       body.String(),
		Categories: []string{"certificate"},
		CustomArgs: map[string]string{"credential_id": note.CredentialID},
	}
	if len(note.Artifact) > 0 {
		req.Attachments = []sendgrid.Attachment{{
			Filename: note.CredentialID + ".png",
			MIMEType: "image/png",
			Content:  note.Artifact,
		}}
	}

	res, err := n.client.Send(ctx, req)
	if err != nil {
		return fmt.Errorf("send certificate email: %w", err)
	}
	n.log.Debug("certificate email sent", "credential_id", note.CredentialID, "message_id", res.MessageID)
	return nil
}

type eventNotifier struct {
	bus redis.EventBus
}

// NewEventNotifier publishes a credential.issued event.
func NewEventNotifier(bus redis.EventBus) Notifier {
	return &eventNotifier{bus: bus}
}

func (n *eventNotifier) Notify(ctx context.Context, note Notification) error {
	return n.bus.Publish(ctx, redis.Event{
		Type: EventCredentialIssued,
		Data: map[string]any{
			"credential_id":    note.CredentialID,
			"achievement_type": string(note.AchievementType),
			"achievement_name": note.AchievementName,
			"artifact_url":     note.ArtifactURL,
		},
	})
}

type namedNotifier struct {
	name string
	n    Notifier
}

// MultiNotifier fans out to every member. A failing member is logged and does not
// stop the others; the joined error is returned.
type MultiNotifier struct {
	log     *logger.Logger
	members []namedNotifier
}

func NewMultiNotifier(log *logger.Logger) *MultiNotifier {
	return &MultiNotifier{log: log.With("service", "MultiNotifier")}
}

func (m *MultiNotifier) Add(name string, n Notifier) *MultiNotifier {
	if n != nil {
		m.members = append(m.members, namedNotifier{name: name, n: n})
	}
	return m
}

func (m *MultiNotifier) Len() int { return len(m.members) }

func (m *MultiNotifier) Notify(ctx context.Context, note Notification) error {
	var errs []error
	for _, member := range m.members {
		if err := member.n.Notify(ctx, note); err != nil {
			m.log.Warn("notifier failed (ignored)",
				"notifier", member.name,
				"credential_id", note.CredentialID,
				"error", err,
			)
			errs = append(errs, fmt.Errorf("%s: %w", member.name, err))
		}
	}
	return errors.Join(errs...)
}

func displayName(name string) string {
	if name = strings.TrimSpace(name); name != "" {
		return name
	}
	return "there"
}
