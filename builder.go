package goNotes

import (
	"errors"
	"time"

	"github.com/MrEthical07/goNotes/internal/rate"
	"github.com/MrEthical07/goNotes/jwt"
	"github.com/MrEthical07/goNotes/password"
	"github.com/MrEthical07/goNotes/refresh"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// dummyPassword is hashed once at Build so logins for unknown emails can run
// a real verification.
const dummyPassword = "goNotes-timing-equalizer"

// Builder assembles an [Engine]. A Builder can be used for one Build only.
type Builder struct {
	config Config
	redis  redis.UniversalClient

	registry  refresh.Registry
	userStore UserStore
	noteStore NoteStore
	hasher    PasswordHasher
	auditSink AuditSink
	logger    zerolog.Logger
	clock     func() time.Time

	built bool
}

func New() *Builder {
	return &Builder{
		config: DefaultConfig(),
		logger: zerolog.Nop(),
	}
}

func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithRedis sets the client used for the refresh registry (unless
// [Builder.WithRegistry] overrides it) and for login throttling.
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.redis = client
	return b
}

func (b *Builder) WithRegistry(r refresh.Registry) *Builder {
	b.registry = r
	return b
}

func (b *Builder) WithUserStore(s UserStore) *Builder {
	b.userStore = s
	return b
}

// WithNoteStore is optional; without it the note operations return
// ErrEngineNotReady.
func (b *Builder) WithNoteStore(s NoteStore) *Builder {
	b.noteStore = s
	return b
}

// WithPasswordHasher replaces the hasher derived from Config.Password.
func (b *Builder) WithPasswordHasher(h PasswordHasher) *Builder {
	b.hasher = h
	return b
}

func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

func (b *Builder) WithLogger(logger zerolog.Logger) *Builder {
	b.logger = logger
	return b
}

// WithClock injects the time source used for token timestamps and audit
// events. Tests use it to step across expiry boundaries.
func (b *Builder) WithClock(now func() time.Time) *Builder {
	b.clock = now
	return b
}

func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

func (b *Builder) WithLatencyHistograms(enabled bool) *Builder {
	b.config.Metrics.EnableLatencyHistograms = enabled
	return b
}

// Build validates the configuration and wires the Engine. It performs no I/O.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := cloneConfig(b.config)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if b.userStore == nil {
		return nil, errors.New("user store required")
	}

	registry := b.registry
	if registry == nil {
		if b.redis == nil {
			return nil, errors.New("refresh registry or redis client required")
		}
		registry = refresh.NewRedisRegistry(b.redis, cfg.Registry.KeyPrefix)
	}

	if cfg.RateLimit.Enabled && b.redis == nil {
		return nil, errors.New("RateLimit requires redis client")
	}

	clock := b.clock
	if clock == nil {
		clock = time.Now
	}

	engine := &Engine{
		config:    cloneConfig(cfg),
		userStore: b.userStore,
		noteStore: b.noteStore,
		registry:  registry,
		logger:    b.logger,
		clock:     clock,
	}

	if cfg.RateLimit.Enabled {
		engine.rateLimiter = rate.New(b.redis, rate.Config{
			EnableIPThrottle:      cfg.RateLimit.EnableIPThrottle,
			MaxLoginAttempts:      cfg.RateLimit.MaxLoginAttempts,
			LoginCooldownDuration: cfg.RateLimit.LoginCooldown,
		})
	}
	engine.metrics = NewMetrics(cfg.Metrics)

	hasher := b.hasher
	if hasher == nil {
		h, err := password.New(cfg.passwordConfig())
		if err != nil {
			return nil, err
		}
		hasher = h
	}
	engine.hasher = hasher

	dummy, err := hasher.Hash(dummyPassword)
	if err != nil {
		return nil, err
	}
	engine.dummyHash = dummy

	method, err := jwt.ParseSigningMethod(cfg.JWT.SigningMethod)
	if err != nil {
		return nil, err
	}
	jm, err := jwt.NewManager(jwt.Config{
		SigningMethod: method,
		SecretKey:     cloneBytes(cfg.JWT.SecretKey),
		AccessTTL:     cfg.JWT.AccessTTL,
		RefreshTTL:    cfg.JWT.RefreshTTL,
		Issuer:        cfg.JWT.Issuer,
		Now:           clock,
	})
	if err != nil {
		return nil, err
	}
	engine.jwtManager = jm

	// Started last so a failed Build leaves no goroutine behind.
	engine.audit = newAuditDispatcher(cfg.Audit, b.auditSink, b.logger)
	engine.initFlows()
	b.built = true

	return engine, nil
}
