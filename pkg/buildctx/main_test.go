package buildctx

import (
	"testing"

	"go.uber.org/goleak"
)

// The counter and chunker are synchronous; no test may leave goroutines behind.
func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}
