package auth

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"AgentKit-Chain/internal/config"
	"AgentKit-Chain/pkg/logger"
)

type apiKey struct {
	digest  [sha256.Size]byte
	subject *Subject
}

// Service 负责 HTTP 端点的身份验证和授权。
type Service struct {
	mode  Mode
	keys  []apiKey
	audit *slog.Logger
}

// NewService 构造身份认证服务实例。密钥仅保存摘要。
func NewService(cfg config.AuthConfig) (*Service, error) {
	mode := Mode(strings.ToLower(strings.TrimSpace(cfg.Mode)))
	if mode == "" {
		mode = ModeDisabled
	}
	svc := &Service{mode: mode, audit: logger.Audit()}

	switch mode {
	case ModeDisabled:
		return svc, nil
	case ModeAPIKey:
		if len(cfg.Keys) == 0 {
			return nil, errors.New("api_key mode requires at least one key")
		}
		for _, k := range cfg.Keys {
			if strings.TrimSpace(k.Key) == "" {
				return nil, fmt.Errorf("api key %s is empty", k.Name)
			}
			subject := &Subject{Name: k.Name, Permissions: append([]string(nil), k.Permissions...)}
			subject.normalise()
			svc.keys = append(svc.keys, apiKey{digest: sha256.Sum256([]byte(k.Key)), subject: subject})
		}
		return svc, nil
	default:
		return nil, fmt.Errorf("unsupported auth mode: %s", cfg.Mode)
	}
}

// Mode 返回当前身份认证服务的工作模式。
func (s *Service) Mode() Mode {
	if s == nil {
		return ModeDisabled
	}
	return s.mode
}

// AuthenticateRequest 解析 Authorization 头并返回对应主体。
func (s *Service) AuthenticateRequest(_ context.Context, header string) (*Subject, error) {
	if s == nil || s.mode == ModeDisabled {
		return nil, nil
	}
	token := strings.TrimSpace(header)
	if token == "" {
		return nil, ErrMissingToken
	}
	scheme, value, ok := strings.Cut(token, " ")
	if !ok || !strings.EqualFold(scheme, "bearer") || strings.TrimSpace(value) == "" {
		return nil, ErrInvalidToken
	}

	digest := sha256.Sum256([]byte(strings.TrimSpace(value)))
	var found *Subject
	for _, k := range s.keys {
		if subtle.ConstantTimeCompare(digest[:], k.digest[:]) == 1 {
			found = k.subject
		}
	}
	if found == nil {
		return nil, ErrInvalidToken
	}
	return found, nil
}
