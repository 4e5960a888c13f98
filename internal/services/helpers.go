package services

import (
	"context"
	"net/url"
	"strings"
)

func ensureContext(ctx context.Context) context.Context {
	if ctx == nil {
		return context.Background()
	}
	return ctx
}

// actionLink builds "<base>/<path>?token=<token>". A relative link is returned when base is empty.
func actionLink(base, path, token string) string {
	base = strings.TrimRight(strings.TrimSpace(base), "/")
	query := url.Values{"token": []string{token}}.Encode()
	return base + "/" + strings.TrimLeft(path, "/") + "?" + query
}
