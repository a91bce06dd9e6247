package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

const defaultSenderName = "EncryptShare"

// MailjetConfig holds credentials and addressing for the Mailjet send API.
type MailjetConfig struct {
	APIURL      string // defaults to the v3.1 send endpoint
	PublicKey   string
	PrivateKey  string
	FromEmail   string
	DownloadURL string // public page the mail links to
}

// Mailjet implements Notifier over the Mailjet REST API (v3.1 send).
type Mailjet struct {
	cfg    MailjetConfig
	client *http.Client
}

func NewMailjet(cfg MailjetConfig) *Mailjet {
	if cfg.APIURL == "" {
		cfg.APIURL = "https://api.mailjet.com/v3.1/send"
	}
	return &Mailjet{
		cfg:    cfg,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

type mailjetMessage struct {
	From     mailjetAddress   `json:"From"`
	To       []mailjetAddress `json:"To"`
	Subject  string           `json:"Subject"`
	TextPart string           `json:"TextPart"`
}

type mailjetAddress struct {
	Email string `json:"Email"`
	Name  string `json:"Name,omitempty"`
}

type mailjetPayload struct {
	Messages []mailjetMessage `json:"Messages"`
}

// Send posts a notification email containing the transfer id and the
// download page. The passphrase is deliberately absent: the sender hands
// it over out-of-band.
func (m *Mailjet) Send(ctx context.Context, contact, transferID, senderName string) error {
	if senderName == "" {
		senderName = defaultSenderName
	}

	text := fmt.Sprintf(
		"Hello,\n\nYou have received a secure file from %s.\n\nFile ID: %s\nDownload page: %s\n\n"+
			"For security reasons the password is not shared by email. Please contact the sender directly.\n",
		senderName, transferID, m.cfg.DownloadURL)

	payload := mailjetPayload{Messages: []mailjetMessage{{
		From:     mailjetAddress{Email: m.cfg.FromEmail, Name: senderName},
		To:       []mailjetAddress{{Email: contact}},
		Subject:  "You've received a secure file",
		TextPart: text,
	}}}

	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.cfg.APIURL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.SetBasicAuth(m.cfg.PublicKey, m.cfg.PrivateKey)

	resp, err := m.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("mailjet: unexpected status %d", resp.StatusCode)
	}
	return nil
}
