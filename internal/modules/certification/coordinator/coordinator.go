// Package coordinator collapses concurrent certificate requests for the same learner
// and achievement into one generation sequence and fans the result out to every caller.
package coordinator

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	otelcodes "go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	types "github.com/yungbote/neurobridge-credentials/internal/domain"
	"github.com/yungbote/neurobridge-credentials/internal/modules/certification/delivery"
	"github.com/yungbote/neurobridge-credentials/internal/modules/certification/render"
	"github.com/yungbote/neurobridge-credentials/internal/observability"
	"github.com/yungbote/neurobridge-credentials/internal/platform/apperr"
	"github.com/yungbote/neurobridge-credentials/internal/platform/dbctx"
	"github.com/yungbote/neurobridge-credentials/internal/platform/logger"
)

type CompletionEvaluator interface {
	IsComplete(ctx context.Context, learnerID, achievementRef uuid.UUID, achievementType types.AchievementType) (bool, error)
}

type EntitlementChecker interface {
	IsEntitled(ctx context.Context, learnerID, achievementRef uuid.UUID, achievementType types.AchievementType) (bool, error)
}

// CredentialStore must be atomic create-if-absent across processes.
type CredentialStore interface {
	GetOrCreate(dbc dbctx.Context, row *types.Credential) (*types.Credential, bool, error)
	AttachArtifact(dbc dbctx.Context, credentialID string, url string, key string) error
}

type Renderer interface {
	Render(in render.Input) ([]byte, error)
}

// Directory resolves the display strings printed on the certificate.
type Directory interface {
	Recipient(ctx context.Context, learnerID uuid.UUID) (name string, email string, err error)
	AchievementName(ctx context.Context, achievementRef uuid.UUID, achievementType types.AchievementType) (string, error)
}

type Config struct {
	// TTL is how long a successful result is served from memory.
	TTL time.Duration
	// InFlightTimeout releases waiters if a sequence hangs.
	InFlightTimeout time.Duration
	NotifyTimeout   time.Duration
	// CredentialValidity of zero means credentials never expire.
	CredentialValidity time.Duration
	// VerifyBaseURL prefixes the credential id in the printed verification link.
	VerifyBaseURL string
}

func DefaultConfig() Config {
	return Config{
		TTL:             30 * time.Second,
		InFlightTimeout: 60 * time.Second,
		NotifyTimeout:   30 * time.Second,
	}
}

// Deps groups the collaborators. Notifier, Metrics, Tracer and Clock are optional.
type Deps struct {
	Completion  CompletionEvaluator
	Entitlement EntitlementChecker
	Credentials CredentialStore
	Renderer    Renderer
	Directory   Directory
	Artifacts   delivery.ArtifactStore
	Notifier    delivery.Notifier
	Metrics     *observability.CoordinatorMetrics
	Tracer      trace.Tracer
	Clock       func() time.Time
}

type entry struct {
	key       string
	createdAt time.Time
	attempt   int
	waiters   int

	done    chan struct{}
	settled bool
	result  *Result
	err     error

	timer  *time.Timer
	cancel context.CancelFunc
}

type attemptLog struct {
	count int
	last  time.Time
}

type Coordinator struct {
	log  *logger.Logger
	cfg  Config
	deps Deps
	now  func() time.Time

	mu       sync.Mutex
	entries  map[string]*entry
	attempts map[string]*attemptLog

	notifications sync.WaitGroup
}

func New(baseLog *logger.Logger, cfg Config, deps Deps) (*Coordinator, error) {
	var missing []string
	if deps.Completion == nil {
		missing = append(missing, "completion")
	}
	if deps.Entitlement == nil {
		missing = append(missing, "entitlement")
	}
	if deps.Credentials == nil {
		missing = append(missing, "credentials")
	}
	if deps.Renderer == nil {
		missing = append(missing, "renderer")
	}
	if deps.Directory == nil {
		missing = append(missing, "directory")
	}
	if deps.Artifacts == nil {
		missing = append(missing, "artifacts")
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("coordinator missing dependencies: %s", strings.Join(missing, ", "))
	}

	def := DefaultConfig()
	if cfg.TTL < 0 {
		cfg.TTL = 0
	}
	if cfg.InFlightTimeout <= 0 {
		cfg.InFlightTimeout = def.InFlightTimeout
	}
	if cfg.NotifyTimeout <= 0 {
		cfg.NotifyTimeout = def.NotifyTimeout
	}
	if deps.Tracer == nil {
		deps.Tracer = noop.NewTracerProvider().Tracer(observability.TracerName)
	}
	now := deps.Clock
	if now == nil {
		now = time.Now
	}

	return &Coordinator{
		log:      baseLog.With("service", "GenerationCoordinator"),
		cfg:      cfg,
		deps:     deps,
		now:      now,
		entries:  map[string]*entry{},
		attempts: map[string]*attemptLog{},
	}, nil
}

type request struct {
	learnerID       uuid.UUID
	achievementRef  uuid.UUID
	achievementType types.AchievementType
}

type joinMode int

const (
	joinStarted joinMode = iota
	joinInFlight
	joinCached
)

// RequestGeneration issues, or returns, the credential for one achievement. Typed
// outcomes, failures included, come back as a Result with a nil error. Cancelling ctx
// stops this caller's wait only; the shared sequence keeps running.
func (c *Coordinator) RequestGeneration(ctx context.Context, learnerID, achievementRef uuid.UUID, achievementType types.AchievementType) (*Result, error) {
	if learnerID == uuid.Nil || achievementRef == uuid.Nil {
		return nil, fmt.Errorf("%w: learner and achievement ids are required", apperr.ErrInvalidArgument)
	}
	if !achievementType.Valid() {
		return nil, fmt.Errorf("%w: achievement type %q", apperr.ErrInvalidArgument, achievementType)
	}

	c.Cleanup()

	req := request{learnerID: learnerID, achievementRef: achievementRef, achievementType: achievementType}
	e, mode := c.join(ctx, req)
	switch mode {
	case joinInFlight:
		c.deps.Metrics.RecordCoalesced(ctx)
		c.log.Debug("joined in-flight generation", "key", e.key, "attempt", e.attempt)
	case joinCached:
		c.log.Debug("serving cached generation result", "key", e.key)
	}
	return c.wait(ctx, e)
}

// join looks up or inserts the entry for req under one critical section. A started
// entry has its sequence running before the lock is released.
func (c *Coordinator) join(ctx context.Context, req request) (*entry, joinMode) {
	key := types.CredentialKey(req.learnerID, req.achievementRef)
	now := c.now()

	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[key]; ok {
		if !e.settled {
			e.waiters++
			return e, joinInFlight
		}
		if now.Sub(e.createdAt) <= c.cfg.TTL {
			return e, joinCached
		}
		delete(c.entries, key)
	}

	a := c.attempts[key]
	if a == nil {
		a = &attemptLog{}
		c.attempts[key] = a
	}
	a.count++
	a.last = now

	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	e := &entry{
		key:       key,
		createdAt: now,
		attempt:   a.count,
		waiters:   1,
		done:      make(chan struct{}),
		cancel:    cancel,
	}
	c.entries[key] = e
	e.timer = time.AfterFunc(c.cfg.InFlightTimeout, func() { c.expire(e) })
	go c.run(runCtx, e, req)
	return e, joinStarted
}

func (c *Coordinator) wait(ctx context.Context, e *entry) (*Result, error) {
	select {
	case <-e.done:
		return e.result, e.err
	default:
	}
	select {
	case <-e.done:
		return e.result, e.err
	case <-ctx.Done():
		c.mu.Lock()
		if !e.settled && e.waiters > 0 {
			e.waiters--
		}
		c.mu.Unlock()
		return nil, ctx.Err()
	}
}

// settle records the terminal outcome once. It reports false if the entry was
// already settled, e.g. by the in-flight timeout.
func (c *Coordinator) settle(e *entry, res *Result, err error) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if e.settled {
		return false
	}
	e.settled = true
	e.result = res
	e.err = err
	e.waiters = 0
	if e.timer != nil {
		e.timer.Stop()
	}
	if err != nil || !res.cacheable() || c.cfg.TTL == 0 {
		if c.entries[e.key] == e {
			delete(c.entries, e.key)
		}
	}
	close(e.done)
	e.cancel()
	return true
}

func (c *Coordinator) expire(e *entry) {
	if !c.settle(e, coordinationTimeout(), nil) {
		return
	}
	c.log.Warn("generation exceeded in-flight bound", "key", e.key, "attempt", e.attempt, "timeout", c.cfg.InFlightTimeout)
	c.deps.Metrics.RecordOutcome(context.Background(), string(CodeCoordinationTimeout), c.cfg.InFlightTimeout)
}

func (c *Coordinator) run(ctx context.Context, e *entry, req request) {
	start := time.Now()
	c.deps.Metrics.InflightInc(ctx)
	defer c.deps.Metrics.InflightDec(ctx)

	ctx, span := c.deps.Tracer.Start(ctx, "certification.generate", trace.WithAttributes(
		attribute.String("achievement_type", string(req.achievementType)),
		attribute.Int("attempt", e.attempt),
	))
	defer span.End()

	res, err := c.generateSafe(ctx, e, req)
	if !c.settle(e, res, err) {
		c.log.Warn("discarding generation result that finished after timeout", "key", e.key, "attempt", e.attempt)
		span.SetAttributes(attribute.Bool("discarded", true))
		return
	}

	code := outcomeLabel(res, err)
	span.SetAttributes(attribute.String("outcome", code))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		c.log.Error("generation failed unexpectedly", "key", e.key, "attempt", e.attempt, "error", err)
	}
	c.deps.Metrics.RecordOutcome(ctx, code, time.Since(start))
}

func (c *Coordinator) generateSafe(ctx context.Context, e *entry, req request) (res *Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			res = nil
			err = fmt.Errorf("generation panic: %v", r)
		}
	}()
	res, err = c.generate(ctx, e, req)
	if err == nil && res == nil {
		err = errors.New("generation produced no result")
	}
	return res, err
}

func (c *Coordinator) generate(ctx context.Context, e *entry, req request) (*Result, error) {
	log := c.log.With(
		"key", e.key,
		"attempt", e.attempt,
		"achievement_type", string(req.achievementType),
	)

	entitled, err := c.deps.Entitlement.IsEntitled(ctx, req.learnerID, req.achievementRef, req.achievementType)
	if err != nil {
		return nil, fmt.Errorf("check entitlement: %w", err)
	}
	if !entitled {
		log.Info("generation refused, learner not entitled")
		return notEntitled(), nil
	}

	complete, err := c.deps.Completion.IsComplete(ctx, req.learnerID, req.achievementRef, req.achievementType)
	if err != nil {
		return nil, fmt.Errorf("evaluate completion: %w", err)
	}
	if !complete {
		return notCompleted(), nil
	}

	issuedAt := c.now().UTC()
	draft := &types.Credential{
		CredentialID:    NewCredentialID(issuedAt),
		LearnerID:       req.learnerID,
		AchievementRef:  req.achievementRef,
		AchievementType: req.achievementType,
		IssuedAt:        issuedAt,
	}
	if c.cfg.CredentialValidity > 0 {
		exp := issuedAt.Add(c.cfg.CredentialValidity)
		draft.ExpiresAt = &exp
	}
	cred, created, err := c.deps.Credentials.GetOrCreate(dbctx.Context{Ctx: ctx}, draft)
	if err != nil {
		return nil, fmt.Errorf("get or create credential: %w", err)
	}
	if cred == nil {
		return nil, errors.New("get or create credential: store returned no row")
	}
	log = log.With("credential_id", cred.CredentialID)

	if !created && cred.HasArtifact() {
		return alreadyIssued(cred.CredentialID, *cred.ArtifactURL), nil
	}
	if !created {
		log.Info("credential has no stored artifact, re-rendering")
	}

	art, err := c.produce(ctx, cred)
	if err != nil {
		log.Warn("certificate generation failed", "error", err)
		return generationFailed(cred.CredentialID, err), nil
	}
	c.notify(ctx, art)
	log.Info("certificate issued", "created", created, "artifact_url", art.url)
	return issued(cred.CredentialID, art.url), nil
}

type artifact struct {
	cred            *types.Credential
	recipientName   string
	email           string
	achievementName string
	verifyURL       string
	data            []byte
	url             string
}

// produce renders, stores and attaches the artifact. It never touches the credential
// row beyond attaching the URL, so failures leave the credential in place for repair.
func (c *Coordinator) produce(ctx context.Context, cred *types.Credential) (*artifact, error) {
	name, email, err := c.deps.Directory.Recipient(ctx, cred.LearnerID)
	if err != nil {
		return nil, fmt.Errorf("load recipient: %w", err)
	}
	achievementName, err := c.deps.Directory.AchievementName(ctx, cred.AchievementRef, cred.AchievementType)
	if err != nil {
		return nil, fmt.Errorf("load achievement name: %w", err)
	}

	art := &artifact{
		cred:            cred,
		recipientName:   name,
		email:           email,
		achievementName: achievementName,
		verifyURL:       c.verifyURL(cred.CredentialID),
	}
	art.data, err = c.deps.Renderer.Render(render.Input{
		CredentialID:    cred.CredentialID,
		RecipientName:   name,
		AchievementName: achievementName,
		AchievementType: cred.AchievementType,
		IssuedAt:        cred.IssuedAt,
		VerifyURL:       art.verifyURL,
	})
	if err != nil {
		return nil, fmt.Errorf("render certificate: %w", err)
	}

	key := delivery.ArtifactKey(cred.LearnerID, cred.CredentialID)
	art.url, err = c.deps.Artifacts.Store(ctx, art.data, key)
	if err != nil {
		return nil, fmt.Errorf("store certificate: %w", err)
	}
	if err := c.deps.Credentials.AttachArtifact(dbctx.Context{Ctx: ctx}, cred.CredentialID, art.url, key); err != nil {
		return nil, fmt.Errorf("attach artifact: %w", err)
	}
	return art, nil
}

// notify runs detached from the generation sequence; failures are logged only.
func (c *Coordinator) notify(ctx context.Context, art *artifact) {
	if c.deps.Notifier == nil {
		return
	}
	note := delivery.Notification{
		Email:           art.email,
		RecipientName:   art.recipientName,
		CredentialID:    art.cred.CredentialID,
		AchievementName: art.achievementName,
		AchievementType: art.cred.AchievementType,
		ArtifactURL:     art.url,
		VerifyURL:       art.verifyURL,
		Artifact:        art.data,
	}
	c.notifications.Add(1)
	go func() {
		defer c.notifications.Done()
		nctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.cfg.NotifyTimeout)
		defer cancel()
		if err := c.deps.Notifier.Notify(nctx, note); err != nil {
			c.log.Warn("certificate notification failed", "credential_id", note.CredentialID, "error", err)
		}
	}()
}

func (c *Coordinator) verifyURL(credentialID string) string {
	base := strings.TrimRight(strings.TrimSpace(c.cfg.VerifyBaseURL), "/")
	if base == "" {
		return ""
	}
	return base + "/" + credentialID
}

// Cleanup evicts settled entries older than the TTL and forgets attempt counts for
// keys that have been idle as long. It returns the number of entries evicted.
func (c *Coordinator) Cleanup() int {
	now := c.now()
	c.mu.Lock()
	evicted := 0
	for key, e := range c.entries {
		if e.settled && now.Sub(e.createdAt) > c.cfg.TTL {
			delete(c.entries, key)
			evicted++
		}
	}
	for key, a := range c.attempts {
		if _, live := c.entries[key]; live {
			continue
		}
		if now.Sub(a.last) > c.cfg.TTL {
			delete(c.attempts, key)
		}
	}
	c.mu.Unlock()

	if evicted > 0 {
		c.deps.Metrics.RecordEvictions(context.Background(), evicted)
		c.log.Debug("evicted stale generation entries", "count", evicted)
	}
	return evicted
}

// StartJanitor runs Cleanup every interval until ctx is done.
func (c *Coordinator) StartJanitor(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				c.Cleanup()
			}
		}
	}()
}

// Wait blocks until background notifications finish.
func (c *Coordinator) Wait() {
	c.notifications.Wait()
}

type EntryStatus struct {
	Key          string        `json:"key"`
	IsGenerating bool          `json:"is_generating"`
	Age          time.Duration `json:"-"`
	AgeMs        int64         `json:"age_ms"`
	Waiters      int           `json:"waiters"`
	Attempt      int           `json:"attempt"`
	Outcome      Code          `json:"outcome,omitempty"`
}

type Status struct {
	TotalEntries      int           `json:"total_entries"`
	ActiveGenerations int           `json:"active_generations"`
	Entries           []EntryStatus `json:"entries"`
}

// Status is a point-in-time snapshot of the cache, sorted by key.
func (c *Coordinator) Status() Status {
	now := c.now()
	c.mu.Lock()
	defer c.mu.Unlock()

	st := Status{Entries: make([]EntryStatus, 0, len(c.entries))}
	for _, e := range c.entries {
		age := now.Sub(e.createdAt)
		es := EntryStatus{
			Key:          e.key,
			IsGenerating: !e.settled,
			Age:          age,
			AgeMs:        age.Milliseconds(),
			Waiters:      e.waiters,
			Attempt:      e.attempt,
		}
		if e.settled && e.result != nil {
			es.Outcome = e.result.Code
		}
		if es.IsGenerating {
			st.ActiveGenerations++
		}
		st.Entries = append(st.Entries, es)
	}
	st.TotalEntries = len(st.Entries)
	sort.Slice(st.Entries, func(i, j int) bool { return st.Entries[i].Key < st.Entries[j].Key })
	return st
}

func outcomeLabel(res *Result, err error) string {
	if err != nil || res == nil {
		return "error"
	}
	return string(res.Code)
}

// NewCredentialID mints "CERT-<base36 millis>-<8 hex>". A fresh id is minted for every
// creation attempt, so a retried create never reuses one.
func NewCredentialID(now time.Time) string {
	ts := strings.ToUpper(strconv.FormatInt(now.UnixMilli(), 36))
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
	return "CERT-" + ts + "-" + suffix
}
