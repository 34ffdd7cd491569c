package middleware

import (
	"context"
	"net/http"
)

func contextWithRole(r *http.Request, role string) context.Context {
	return context.WithValue(r.Context(), UserRoleKey, role)
}
