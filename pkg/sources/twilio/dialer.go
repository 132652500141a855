package twilio

import (
	"fmt"

	"github.com/twilio/twilio-go"
	api "github.com/twilio/twilio-go/rest/api/v2010"
)

// Dialer places outbound calls that connect back to this module's own
// TwiML webhook, which in turn opens the Media Stream this Source
// consumes. It is unchanged in spirit from a conversational voice
// agent's outbound dialer: only the destination of the resulting media
// stream differs.
type Dialer struct {
	client  *twilio.RestClient
	fromNum string
}

type DialOptions struct {
	StatusCallbackURL string
}

func NewDialer(accountSid, authToken, fromNumber string) *Dialer {
	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: accountSid,
		Password: authToken,
	})
	return &Dialer{client: client, fromNum: fromNumber}
}

// Dial places a call to toNumber whose TwiML webhook is twimlURL.
func (d *Dialer) Dial(toNumber, twimlURL string) (string, error) {
	return d.DialWithOptions(toNumber, twimlURL, DialOptions{})
}

func (d *Dialer) DialWithOptions(toNumber, twimlURL string, opts DialOptions) (string, error) {
	params := &api.CreateCallParams{}
	params.SetTo(toNumber)
	params.SetFrom(d.fromNum)
	params.SetUrl(twimlURL)
	if opts.StatusCallbackURL != "" {
		params.SetStatusCallback(opts.StatusCallbackURL)
		params.SetStatusCallbackEvent([]string{"initiated", "ringing", "answered", "completed"})
	}

	resp, err := d.client.Api.CreateCall(params)
	if err != nil {
		return "", fmt.Errorf("twilio: create call: %w", err)
	}
	if resp.Sid == nil {
		return "", fmt.Errorf("twilio: create call: missing call sid in response")
	}
	return *resp.Sid, nil
}
