package push

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/flashbites/flashbites/internal/config"
	"github.com/flashbites/flashbites/internal/models"

	webpush "github.com/SherClockHolmes/webpush-go"
)

// ErrSubscriptionGone 推送端点已失效（网关返回 404/410），
// 调用方应据此停用订阅。
var ErrSubscriptionGone = errors.New("push subscription gone")

// Sender 推送通道
type Sender interface {
	Send(ctx context.Context, sub *models.PushSubscription, payload []byte) error
}

// WebPushSender 基于 Web Push 协议（VAPID）的推送通道
type WebPushSender struct {
	subscriber string
	publicKey  string
	privateKey string
	ttlSeconds int
}

// NewWebPushSender 创建 Web Push 通道。未配置 VAPID 密钥时返回 nil，
// 表示推送通道未启用。
func NewWebPushSender(cfg *config.PushConfig) *WebPushSender {
	if cfg == nil || !cfg.Enabled {
		return nil
	}
	if strings.TrimSpace(cfg.VAPIDPublicKey) == "" || strings.TrimSpace(cfg.VAPIDPrivateKey) == "" {
		return nil
	}
	ttl := cfg.TTLSeconds
	if ttl <= 0 {
		ttl = 3600
	}
	return &WebPushSender{
		subscriber: strings.TrimSpace(cfg.Subscriber),
		publicKey:  strings.TrimSpace(cfg.VAPIDPublicKey),
		privateKey: strings.TrimSpace(cfg.VAPIDPrivateKey),
		ttlSeconds: ttl,
	}
}

// Send 向单个订阅端点发送推送
func (s *WebPushSender) Send(ctx context.Context, sub *models.PushSubscription, payload []byte) error {
	if s == nil || sub == nil {
		return nil
	}
	target := &webpush.Subscription{
		Endpoint: sub.Endpoint,
		Keys: webpush.Keys{
			P256dh: sub.P256dh,
			Auth:   sub.Auth,
		},
	}
	resp, err := webpush.SendNotificationWithContext(ctx, payload, target, &webpush.Options{
		Subscriber:      s.subscriber,
		VAPIDPublicKey:  s.publicKey,
		VAPIDPrivateKey: s.privateKey,
		TTL:             s.ttlSeconds,
	})
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()
	switch resp.StatusCode {
	case http.StatusNotFound, http.StatusGone:
		return ErrSubscriptionGone
	}
	if resp.StatusCode >= 400 {
		return errors.New("push gateway status " + resp.Status)
	}
	return nil
}
