// Package notify delivers review-workflow notifications. Delivery is best
// effort: a failed send is logged, never surfaced to the submitting user.
package notify

import (
	"context"
	"fmt"

	"gopkg.in/gomail.v2"
	"k8s.io/klog/v2"

	"github.com/backlinkflow/backend/pkg/config"
	"github.com/backlinkflow/backend/pkg/model"
)

type Notifier interface {
	// PlatformSubmitted tells the reviewers a new platform is waiting in
	// pending_review.
	PlatformSubmitted(ctx context.Context, platform model.Platform, submitter model.User) error
}

// New returns an SMTP notifier, or a no-op one when SMTP is not configured.
func New() Notifier {
	smtp := config.GetConfig().SMTP
	if smtp.Host == "" || smtp.Notify == "" {
		klog.Info("smtp not configured, submission notifications disabled")
		return &noopNotifier{}
	}
	return &smtpNotifier{
		dialer: gomail.NewDialer(smtp.Host, smtp.Port, smtp.User, smtp.Password),
		from:   smtp.User,
		to:     smtp.Notify,
	}
}

type smtpNotifier struct {
	dialer *gomail.Dialer
	from   string
	to     string
}

func (n *smtpNotifier) PlatformSubmitted(_ context.Context, platform model.Platform, submitter model.User) error {
	m := gomail.NewMessage()
	m.SetHeader("From", n.from)
	m.SetHeader("To", n.to)
	m.SetHeader("Subject", fmt.Sprintf("New platform submission: %s", platform.Name))
	m.SetBody("text/plain", fmt.Sprintf(
		"%s (%s) submitted %q for review.\n\nURL: %s\nDescription: %s\n",
		submitter.Name, submitter.Email, platform.Name, platform.WebsiteURL, platform.Description,
	))
	if err := n.dialer.DialAndSend(m); err != nil {
		klog.Errorf("send submission notification: %v", err)
		return err
	}
	return nil
}

type noopNotifier struct{}

func (*noopNotifier) PlatformSubmitted(context.Context, model.Platform, model.User) error {
	return nil
}
