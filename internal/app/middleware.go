package app

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/atlas-billing/atlas-billing/internal/shared"
)

// SessionMiddleware loads the session into the request context and commits
// it once the handler finished.
func SessionMiddleware(sm *shared.SessionManager, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess, err := sm.Load(r.Context(), r)
			if err != nil {
				logger.Error("load session failed", "error", err)
				http.Error(w, "Session error", http.StatusInternalServerError)
				return
			}

			ctx := shared.ContextWithSession(r.Context(), sess)
			cw := &commitWriter{ResponseWriter: w, sm: sm, sess: sess, r: r.WithContext(ctx), logger: logger}
			next.ServeHTTP(cw, r.WithContext(ctx))
			cw.commit()
		})
	}
}

// commitWriter persists the session right before the first byte of the
// response goes out, while headers can still be written.
type commitWriter struct {
	http.ResponseWriter
	sm        *shared.SessionManager
	sess      *shared.Session
	r         *http.Request
	logger    *slog.Logger
	committed bool
}

func (cw *commitWriter) WriteHeader(status int) {
	cw.commit()
	cw.ResponseWriter.WriteHeader(status)
}

func (cw *commitWriter) Write(b []byte) (int, error) {
	cw.commit()
	return cw.ResponseWriter.Write(b)
}

func (cw *commitWriter) commit() {
	if cw.committed {
		return
	}
	cw.committed = true
	if err := cw.sm.Commit(cw.r.Context(), cw.ResponseWriter, cw.r, cw.sess); err != nil {
		cw.logger.Error("commit session failed", "error", err)
	}
}

// CSRFMiddleware verifies the form token on every state changing request.
func CSRFMiddleware(csrf *shared.CSRFManager, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodGet, http.MethodHead, http.MethodOptions:
				next.ServeHTTP(w, r)
				return
			}

			sess := shared.SessionFromContext(r.Context())
			if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
				if err := r.ParseMultipartForm(8 << 20); err != nil {
					http.Error(w, "Bad request", http.StatusBadRequest)
					return
				}
			} else if err := r.ParseForm(); err != nil {
				http.Error(w, "Bad request", http.StatusBadRequest)
				return
			}
			token := r.PostFormValue(shared.CSRFFormField)
			if token == "" {
				token = r.Header.Get("X-CSRF-Token")
			}

			if err := csrf.VerifyToken(r.Context(), sess, token); err != nil {
				logger.Warn("csrf verification failed", "path", r.URL.Path, "error", err)
				http.Error(w, "Invalid or missing CSRF token", http.StatusForbidden)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
