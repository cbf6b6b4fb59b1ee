package goSession

import (
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"golang.org/x/sync/singleflight"

	"github.com/MrEthical07/goSession/cookies"
	"github.com/MrEthical07/goSession/internal/flows"
	"github.com/MrEthical07/goSession/normalise"
	"github.com/MrEthical07/goSession/scope"
	"github.com/MrEthical07/goSession/tokens"
)

// Builder assembles a [Client]. A Builder is single-use.
type Builder struct {
	config Config

	transport      Transport
	httpClient     *http.Client
	cookieStore    cookies.Store
	tokenStore     tokens.Store
	redis          redis.UniversalClient
	logger         *slog.Logger
	tracerProvider trace.TracerProvider
	eventSink      EventSink
	now            func() time.Time

	built bool
}

// New returns a Builder starting from [DefaultConfig].
func New() *Builder {
	return &Builder{
		config: DefaultConfig(),
	}
}

// WithConfig sets the configuration validated by Build.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithTransport sets the transport used for every request, the refresh call included.
// It takes precedence over WithHTTPClient.
func (b *Builder) WithTransport(t Transport) *Builder {
	b.transport = t
	return b
}

// WithHTTPClient sends requests through hc. When hc has a cookie jar and no cookie store
// is configured, the session identifier is kept in that jar and hc manages credentials.
func (b *Builder) WithHTTPClient(hc *http.Client) *Builder {
	b.httpClient = hc
	return b
}

// WithCookieStore sets where the session identifier is kept.
func (b *Builder) WithCookieStore(s cookies.Store) *Builder {
	b.cookieStore = s
	return b
}

// WithTokenStore sets where anti-CSRF and front tokens are kept. It takes precedence
// over WithRedis.
func (b *Builder) WithTokenStore(s tokens.Store) *Builder {
	b.tokenStore = s
	return b
}

// WithRedis keeps the anti-CSRF and front tokens in Redis under Config.TokenStore, so
// that processes sharing one session identifier share its tokens. Ignored when a token
// store is set.
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.redis = client
	return b
}

// WithLogger sets the structured logger. Nil discards logs.
func (b *Builder) WithLogger(l *slog.Logger) *Builder {
	b.logger = l
	return b
}

// WithTracerProvider sets the provider spans are created from.
func (b *Builder) WithTracerProvider(tp trace.TracerProvider) *Builder {
	b.tracerProvider = tp
	return b
}

// WithEventSink receives session events when Config.Events.Enabled is set.
func (b *Builder) WithEventSink(sink EventSink) *Builder {
	b.eventSink = sink
	return b
}

// WithMetricsEnabled overrides Config.Metrics.Enabled.
func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

// WithLatencyHistograms overrides Config.Metrics.EnableLatencyHistograms.
func (b *Builder) WithLatencyHistograms(enabled bool) *Builder {
	b.config.Metrics.EnableLatencyHistograms = enabled
	return b
}

// Build validates the configuration and returns the client.
func (b *Builder) Build() (*Client, error) {
	if b.built {
		return nil, ErrBuilderUsed
	}

	cfg := cloneConfig(b.config)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	// -------- SCOPE --------
	sessionScope, err := cfg.resolvedSessionScope()
	if err != nil {
		return nil, configErrorf("SessionScope: %w", err)
	}
	decider, err := scope.New(cfg.APIDomain, cfg.CookieDomain)
	if err != nil {
		return nil, configErrorf("%w", err)
	}
	domain, err := normalise.Domain(cfg.APIDomain)
	if err != nil {
		return nil, configErrorf("APIDomain: %w", err)
	}
	apiBase, err := url.Parse(domain)
	if err != nil {
		return nil, configErrorf("%w: APIDomain %q", ErrInvalidURL, cfg.APIDomain)
	}

	// -------- TRANSPORT + COOKIES --------
	transport := b.transport
	hc := b.httpClient
	if transport == nil {
		if hc == nil {
			hc = &http.Client{}
		}
		transport = hc
	}

	cookieStore := b.cookieStore
	var credentialJar *cookies.JarStore
	switch {
	case cookieStore != nil:
		credentialJar, _ = cookieStore.(*cookies.JarStore)
	case b.transport == nil && hc.Jar != nil:
		js, err := cookies.NewJarStoreFromJar(hc.Jar, cfg.SessionIDCookieName, sessionScope)
		if err != nil {
			return nil, configErrorf("%w", err)
		}
		cookieStore = js
	default:
		js, err := cookies.NewJarStore(cfg.SessionIDCookieName, sessionScope)
		if err != nil {
			return nil, configErrorf("%w", err)
		}
		cookieStore, credentialJar = js, js
	}

	// -------- TOKENS --------
	tokenStore := b.tokenStore
	if tokenStore == nil {
		if b.redis != nil {
			tokenStore = tokens.NewRedisStore(b.redis, cfg.TokenStore.RedisPrefix, cfg.TokenStore.Namespace)
		} else {
			tokenStore = tokens.NewMemoryStore()
		}
	}

	// -------- OBSERVABILITY --------
	tp := b.tracerProvider
	if tp == nil {
		tp = noop.NewTracerProvider()
	}
	now := b.now
	if now == nil {
		now = time.Now
	}
	metrics := NewMetrics(cfg.Metrics)
	events := newEventDispatcher(cfg.Events, b.eventSink)

	c := &Client{
		cfg:           cfg,
		apiBase:       apiBase,
		decider:       decider,
		transport:     transport,
		credentialJar: credentialJar,
		cookies:       cookieStore,
		tokens:        tokenStore,
		metrics:       metrics,
		events:        events,
		logger:        componentLogger(b.logger),
		tracer:        tp.Tracer(tracerName),
		now:           now,
	}

	// -------- FLOWS --------
	session := flows.SessionDeps{
		Cookies:      cookieStore,
		Tokens:       tokenStore,
		SessionScope: sessionScope,
		Logger:       c.logger,
		MetricInc: func(id int) {
			metrics.Inc(MetricID(id))
		},
		Emit: events.emitFunc(now),
		Metrics: flows.Metrics{
			Attempt:             int(MetricRequestAttempt),
			ExpiredResponse:     int(MetricExpiredResponse),
			Retry:               int(MetricRetry),
			SessionExpired:      int(MetricSessionExpired),
			TransportError:      int(MetricTransportError),
			TokenCleanup:        int(MetricTokenCleanup),
			RefreshCall:         int(MetricRefreshCall),
			RefreshRetry:        int(MetricRefreshRetry),
			RefreshExpired:      int(MetricRefreshSessionExpired),
			RefreshAPIError:     int(MetricRefreshAPIError),
			RefreshFastPath:     int(MetricRefreshFastPath),
			RefreshDeduplicated: int(MetricRefreshDeduplicated),
		},
		Events: flows.Events{
			SessionCreated: string(EventSessionCreated),
			RefreshSession: string(EventRefreshSession),
			Unauthorised:   string(EventUnauthorised),
			SignOut:        string(EventSignOut),
			PayloadUpdated: string(EventAccessTokenPayloadUpdated),
		},
	}

	refreshHeaders := make(http.Header, len(cfg.RefreshAPICustomHeaders))
	for k, v := range cfg.RefreshAPICustomHeaders {
		refreshHeaders.Set(k, v)
	}

	c.flows = flows.New(flows.Deps{
		Refresh: flows.RefreshDeps{
			Session:           session,
			Endpoint:          cfg.RefreshEndpoint,
			Headers:           refreshHeaders,
			ExpiredStatus:     cfg.SessionExpiredStatusCode,
			MaxErrorBodyBytes: cfg.MaxErrorBodyBytes,
			Call:              c.refreshCall,
			ResponseOf:        responseOf,
			Group:             &singleflight.Group{},
			Errors: flows.RefreshErrors{
				Configuration: configErrorf("RefreshEndpoint is required"),
			},
		},
		Request: flows.RequestDeps{
			Session:            session,
			ExpiredStatus:      cfg.SessionExpiredStatusCode,
			AutoAddCredentials: cfg.AutoAddCredentials,
			Call:               c.send,
			ResponseOf:         responseOf,
			SessionExpiredError: func(status int) error {
				return &SessionExpiredError{StatusCode: status}
			},
			APIError: c.refreshError,
		},
	})

	b.built = true
	return c, nil
}
