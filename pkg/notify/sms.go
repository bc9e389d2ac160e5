package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"applicant-api-io/api/pkg/util"

	"github.com/pkg/errors"
)

type SMSSender interface {
	SendSMS(ctx context.Context, to, message string) error
}

type httpSMS struct {
	cfg    util.SMSConfig
	client *http.Client
}

func NewSMSSender(cfg util.SMSConfig) SMSSender {
	return &httpSMS{cfg: cfg, client: &http.Client{Timeout: 15 * time.Second}}
}

// FormatNumber rewrites local 01XXXXXXXXX numbers to the 8801XXXXXXXXX
// international form.
func FormatNumber(to string) string {
	to = strings.TrimPrefix(to, "+")
	if strings.HasPrefix(to, "01") {
		return "88" + to
	}
	return to
}

type smsRequest struct {
	APIKey string `json:"api_key"`
	Msg    string `json:"msg"`
	To     string `json:"to"`
}

type smsResponse struct {
	Error int    `json:"error"`
	Msg   string `json:"msg"`
}

// SendSMS posts the message to the gateway. The gateway reports success
// with error=0 in its JSON body.
func (s *httpSMS) SendSMS(ctx context.Context, to, message string) error {
	body, err := json.Marshal(smsRequest{APIKey: s.cfg.APIKey, Msg: message, To: FormatNumber(to)})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.cfg.APIURL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return errors.Wrap(err, "sms gateway")
	}
	defer resp.Body.Close()

	var out smsResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return errors.Wrapf(err, "sms gateway status %d", resp.StatusCode)
	}
	if out.Error != 0 {
		if out.Msg == "" {
			out.Msg = "SMS sending failed"
		}
		return errors.New(out.Msg)
	}
	return nil
}
