package ctxutil

import "context"

type languageKey struct{}

// WithLanguage records the language translations should be resolved in.
func WithLanguage(ctx context.Context, lang string) context.Context {
	return context.WithValue(ctx, languageKey{}, lang)
}

// Language returns the request language, or "" when none was given.
func Language(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	lang, _ := ctx.Value(languageKey{}).(string)
	return lang
}
