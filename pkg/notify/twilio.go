package notify

import (
	"context"
	"errors"
	"fmt"

	"github.com/twilio/twilio-go"
	api "github.com/twilio/twilio-go/rest/api/v2010"

	"github.com/harunnryd/latentstage/pkg/errorsx"
	"github.com/harunnryd/latentstage/pkg/store"
)

type messageCreator interface {
	CreateMessage(params *api.CreateMessageParams) (*api.ApiV2010Message, error)
}

type TwilioConfig struct {
	AccountSID string
	AuthToken  string
	From       string
	To         string
}

// TwilioSMS texts the host's closing summary to the show operator once a
// game ends.
type TwilioSMS struct {
	cfg    TwilioConfig
	client messageCreator
}

func NewTwilioSMS(cfg TwilioConfig) *TwilioSMS {
	return &TwilioSMS{cfg: cfg}
}

func (n *TwilioSMS) Name() string { return "twilio_sms" }

func (n *TwilioSMS) GameFinished(ctx context.Context, rec store.Record) error {
	_ = ctx
	if n.cfg.To == "" || n.cfg.From == "" {
		return errorsx.Wrap(errors.New("to/from required"), errorsx.ReasonNotifySend)
	}
	if n.cfg.AccountSID == "" || n.cfg.AuthToken == "" {
		return errorsx.Wrap(errors.New("missing twilio credentials"), errorsx.ReasonNotifySend)
	}
	client := n.client
	if client == nil {
		rest := twilio.NewRestClientWithParams(twilio.ClientParams{
			Username: n.cfg.AccountSID,
			Password: n.cfg.AuthToken,
		})
		client = rest.Api
	}
	params := &api.CreateMessageParams{}
	params.SetTo(n.cfg.To)
	params.SetFrom(n.cfg.From)
	params.SetBody(smsBody(rec))
	resp, err := client.CreateMessage(params)
	if err != nil {
		return errorsx.Wrap(err, errorsx.ReasonNotifySend)
	}
	if resp == nil || resp.Sid == nil {
		return errorsx.Wrap(errors.New("missing message sid"), errorsx.ReasonNotifySend)
	}
	return nil
}

func smsBody(rec store.Record) string {
	user := rec.User
	if user == "" {
		user = "Dost"
	}
	return fmt.Sprintf("Show finished: %s played %d rounds. Summary: %s", user, len(rec.GameData.History), rec.HostSummary)
}

var _ Notifier = (*TwilioSMS)(nil)
