package sms

import (
	"strings"

	"github.com/flashbites/flashbites/internal/config"
	"github.com/flashbites/flashbites/internal/logger"

	"github.com/twilio/twilio-go"
	twilioapi "github.com/twilio/twilio-go/rest/api/v2010"
)

// Sender 短信通道
type Sender interface {
	Send(phone, body string) error
}

// TwilioSender Twilio 短信通道
type TwilioSender struct {
	client *twilio.RestClient
	from   string
}

// ConsoleSender 控制台短信通道（未配置 Twilio 时的本地回落，仅记录日志）
type ConsoleSender struct{}

// NewSender 按配置创建短信通道。未启用时返回 nil；
// 启用但缺少 Twilio 凭据时回落到控制台通道。
func NewSender(cfg *config.SMSConfig) Sender {
	if cfg == nil || !cfg.Enabled {
		return nil
	}
	sid := strings.TrimSpace(cfg.TwilioAccountSID)
	token := strings.TrimSpace(cfg.TwilioAuthToken)
	from := strings.TrimSpace(cfg.TwilioFromNumber)
	if sid == "" || token == "" || from == "" {
		return &ConsoleSender{}
	}
	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: sid,
		Password: token,
	})
	return &TwilioSender{client: client, from: from}
}

// Send 通过 Twilio 发送短信
func (s *TwilioSender) Send(phone, body string) error {
	params := &twilioapi.CreateMessageParams{}
	params.SetTo(phone)
	params.SetFrom(s.from)
	params.SetBody(body)
	_, err := s.client.Api.CreateMessage(params)
	return err
}

// Send 控制台通道仅记录，不实际发送
func (s *ConsoleSender) Send(phone, body string) error {
	logger.Infow("sms console fallback", "phone", phone, "body", body)
	return nil
}
