package uow

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/apiforge/apiforge/pkg/common"
)

// txResponseWriter captures the status code so the middleware can decide
// between commit and rollback after the handler returns.
type txResponseWriter struct {
	http.ResponseWriter
	status int
}

func (w *txResponseWriter) WriteHeader(statusCode int) {
	if w.status == 0 {
		w.status = statusCode
	}
	w.ResponseWriter.WriteHeader(statusCode)
}

func (w *txResponseWriter) Write(b []byte) (int, error) {
	if w.status == 0 {
		w.status = http.StatusOK
	}
	return w.ResponseWriter.Write(b)
}

// Transaction returns a middleware that opens a transaction per request and
// commits it when the handler responds with a 2xx or 3xx status, rolling
// back otherwise. The transaction is reachable downstream through
// reqctx.Transaction.
func Transaction(u *UnitOfWork, logger *zap.Logger) common.Middleware {
	if logger == nil {
		logger = zap.NewNop()
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, tx, err := u.Begin(r.Context())
			if err != nil {
				logger.Error("failed to begin transaction",
					zap.String("method", r.Method),
					zap.String("path", r.URL.Path),
					zap.Error(err))
				http.Error(w, "Internal Server Error", http.StatusInternalServerError)
				return
			}

			cw := &txResponseWriter{ResponseWriter: w}
			next.ServeHTTP(cw, r.WithContext(ctx))

			status := cw.status
			if status == 0 {
				status = http.StatusOK
			}

			if status >= 200 && status < 400 {
				if err := tx.Commit(); err != nil {
					// The response is already written; all we can do is log.
					logger.Error("failed to commit transaction",
						zap.String("method", r.Method),
						zap.String("path", r.URL.Path),
						zap.Error(err))
				}
				return
			}

			if err := tx.Rollback(); err != nil {
				logger.Error("failed to rollback transaction",
					zap.String("method", r.Method),
					zap.String("path", r.URL.Path),
					zap.Error(err))
			}
		})
	}
}
