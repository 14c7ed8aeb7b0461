package workers

import (
	"time"

	"github.com/clinvault/clinvault/internal/logger"
)

// ChainChecker is the slice of the orchestrator the verifier needs.
type ChainChecker interface {
	VerifyAuditChain() error
	IsUnlocked() bool
}

// ChainVerifier periodically verifies the audit hash chain while the vault
// is unlocked, surfacing tampering early instead of only at export time.
type ChainVerifier struct {
	checker  ChainChecker
	interval time.Duration
	log      *logger.Logger

	stop chan struct{}
}

// NewChainVerifier constructs a verifier that checks every interval.
func NewChainVerifier(checker ChainChecker, interval time.Duration, log *logger.Logger) *ChainVerifier {
	if log == nil {
		log = logger.Nop()
	}
	return &ChainVerifier{
		checker:  checker,
		interval: interval,
		log:      log,
		stop:     make(chan struct{}),
	}
}

// Run implements [Worker]; the loop runs on its own goroutine.
func (c *ChainVerifier) Run() {
	go c.loop()
}

// Stop implements [Worker].
func (c *ChainVerifier) Stop() {
	select {
	case <-c.stop:
	default:
		close(c.stop)
	}
}

func (c *ChainVerifier) loop() {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-c.stop:
			return
		case <-ticker.C:
		}

		if !c.checker.IsUnlocked() {
			continue
		}
		if err := c.checker.VerifyAuditChain(); err != nil {
			c.log.Error().Err(err).Msg("audit chain verification failed")
			continue
		}
		c.log.Debug().Msg("audit chain verified")
	}
}
