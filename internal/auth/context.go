package auth

import "context"

type subjectKey struct{}

// WithSubject 把通过认证的 API Key 主体挂到请求上下文。
func WithSubject(ctx context.Context, subject *Subject) context.Context {
	if subject == nil {
		return ctx
	}
	subject.normalise()
	return context.WithValue(ctx, subjectKey{}, subject)
}

// SubjectFromContext 返回请求上下文中的主体，认证关闭时为 nil。
func SubjectFromContext(ctx context.Context) *Subject {
	if ctx == nil {
		return nil
	}
	subject, _ := ctx.Value(subjectKey{}).(*Subject)
	return subject
}

// CallerName 返回发起调用的 API Key 名称，用于调用审计；匿名调用返回空串。
func CallerName(ctx context.Context) string {
	if subject := SubjectFromContext(ctx); subject != nil {
		return subject.Name
	}
	return ""
}
