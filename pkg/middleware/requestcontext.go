package middleware

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/apiforge/apiforge/pkg/common"
	"github.com/apiforge/apiforge/pkg/reqctx"
	"github.com/google/uuid"
)

// Response headers stamped by the request context middleware.
const (
	HeaderRequestURN  = "X-Request-URN"
	HeaderProcessTime = "X-Process-Time"
)

// urnPrefix namespaces correlation identifiers so they are recognizable in
// logs aggregated from several services.
const urnPrefix = "urn:req:"

// URNGenerator precomputes correlation identifiers in a background goroutine
// so the hot path never waits on UUID generation.
type URNGenerator struct {
	idChan   chan string
	size     int
	initOnce sync.Once
}

var (
	defaultURNGenerator *URNGenerator
	defaultURNOnce      sync.Once
)

// defaultURNBufferSize is sized to absorb request bursts without draining.
const defaultURNBufferSize = 4096

// NewURNGenerator creates a generator with the given buffer size.
func NewURNGenerator(bufferSize int) *URNGenerator {
	g := &URNGenerator{
		idChan: make(chan string, bufferSize),
		size:   bufferSize,
	}
	g.init()
	return g
}

// DefaultURNGenerator returns the shared generator instance.
func DefaultURNGenerator() *URNGenerator {
	defaultURNOnce.Do(func() {
		defaultURNGenerator = NewURNGenerator(defaultURNBufferSize)
	})
	return defaultURNGenerator
}

// init fills the buffer and starts the background refiller.
func (g *URNGenerator) init() {
	g.initOnce.Do(func() {
		for i := 0; i < g.size; i++ {
			g.idChan <- urnPrefix + uuid.New().String()
		}
		go func() {
			for {
				select {
				case g.idChan <- urnPrefix + uuid.New().String():
				default:
					// Buffer is full, back off briefly.
					time.Sleep(time.Millisecond)
				}
			}
		}()
	})
}

// Next returns a precomputed URN without blocking. If the buffer is drained
// under extreme load it generates one on the spot rather than waiting.
func (g *URNGenerator) Next() string {
	select {
	case id := <-g.idChan:
		return id
	default:
		return urnPrefix + uuid.New().String()
	}
}

// stampingResponseWriter injects the correlation and timing headers just
// before the first byte of the response is committed. Headers cannot be set
// after WriteHeader, so stamping at commit time is the only point where the
// elapsed duration is both known and still attachable.
type stampingResponseWriter struct {
	http.ResponseWriter
	urn         string
	start       time.Time
	wroteHeader bool
}

func (w *stampingResponseWriter) stamp() {
	if w.wroteHeader {
		return
	}
	w.wroteHeader = true
	w.Header().Set(HeaderRequestURN, w.urn)
	w.Header().Set(HeaderProcessTime, strconv.FormatFloat(time.Since(w.start).Seconds(), 'f', 6, 64))
}

func (w *stampingResponseWriter) WriteHeader(statusCode int) {
	w.stamp()
	w.ResponseWriter.WriteHeader(statusCode)
}

func (w *stampingResponseWriter) Write(b []byte) (int, error) {
	w.stamp()
	return w.ResponseWriter.Write(b)
}

func (w *stampingResponseWriter) Flush() {
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// RequestContext creates the outermost pipeline stage. It assigns a
// correlation URN and start time to every request before any other stage
// runs, and guarantees the URN and elapsed-time headers are emitted on the
// return path regardless of what happens downstream.
func RequestContext(generator *URNGenerator) common.Middleware {
	if generator == nil {
		generator = DefaultURNGenerator()
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			urn := generator.Next()
			start := time.Now()

			ctx := reqctx.WithURN(r.Context(), urn, start)
			sw := &stampingResponseWriter{ResponseWriter: w, urn: urn, start: start}

			// Stamp even if downstream panics; the recovery middleware sits
			// inside this stage and writes through the same wrapper.
			defer sw.stamp()

			next.ServeHTTP(sw, r.WithContext(ctx))
		})
	}
}
