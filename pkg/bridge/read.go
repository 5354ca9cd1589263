package bridge

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/aretw0/bifrost/pkg/domain"
)

// readReply reads up to budget bytes from r.
// Before the first byte it waits for the total read budget; once data arrived,
// an empty read (the inter-byte interval elapsed) ends the reply.
func readReply(ctx context.Context, r io.Reader, budget int, timeouts domain.Timeouts, logger *slog.Logger) []byte {
	deadline := time.Now().Add(timeouts.ReadTotal(budget))
	reply := make([]byte, 0, budget)
	chunk := make([]byte, budget)

	for len(reply) < budget {
		if ctx.Err() != nil {
			logger.Debug("Reply cut short by context", "bytes", len(reply), "err", ctx.Err())
			break
		}
		if !time.Now().Before(deadline) {
			logger.Debug("Reply ended on total timeout", "bytes", len(reply), "err", domain.ErrTimeout)
			break
		}

		began := time.Now()
		n, err := r.Read(chunk[:budget-len(reply)])
		reply = append(reply, chunk[:n]...)

		if err != nil && !isTimeout(err) {
			if !errors.Is(err, io.EOF) {
				logger.Warn("Read failed, using partial reply", "bytes", len(reply), "err", err)
			}
			break
		}
		if n == 0 {
			if len(reply) > 0 {
				break
			}
			// readers that do not block for the interval themselves
			if wait := timeouts.ReadInterval - time.Since(began); wait > 0 {
				time.Sleep(wait)
			}
		}
	}
	return reply
}

func isTimeout(err error) bool {
	if errors.Is(err, os.ErrDeadlineExceeded) || errors.Is(err, domain.ErrTimeout) {
		return true
	}
	var te interface{ Timeout() bool }
	return errors.As(err, &te) && te.Timeout()
}
