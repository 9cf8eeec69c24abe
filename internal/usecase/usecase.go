// Package usecase implements link creation, lookup, deletion and the
// redirect-with-click-tracking flow on top of the link store.
package usecase

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/go-playground/validator/v10"
	"github.com/vadimbarashkov/tinylink/internal/entity"
	"github.com/vadimbarashkov/tinylink/internal/metrics"
	"github.com/vadimbarashkov/tinylink/internal/shortcode"
)

type linkRepository interface {
	Save(ctx context.Context, code, target string) (*entity.Link, error)
	RetrieveByCode(ctx context.Context, code string) (*entity.Link, error)
	RetrieveAll(ctx context.Context) ([]entity.Link, error)
	Remove(ctx context.Context, code string) error
	IncrementClicks(ctx context.Context, id int64) (*entity.Link, error)
}

// linkCache holds the code to target mapping of the redirect path.
// Returned links carry only ID, Code and Target.
type linkCache interface {
	Get(ctx context.Context, code string) (*entity.Link, bool, error)
	Set(ctx context.Context, link *entity.Link) error
	Delete(ctx context.Context, code string) error
}

type Option func(*LinkUseCase)

// WithCodeLength sets the length of generated codes.
func WithCodeLength(n int) Option {
	return func(uc *LinkUseCase) {
		if n >= shortcode.MinLength && n <= shortcode.MaxLength {
			uc.codeLength = n
		}
	}
}

// WithGenerateAttempts sets how many generated codes are tried before a
// collision is reported as entity.ErrCodeExists.
func WithGenerateAttempts(n int) Option {
	return func(uc *LinkUseCase) {
		if n > 0 {
			uc.generateAttempts = n
		}
	}
}

func WithCache(cache linkCache) Option {
	return func(uc *LinkUseCase) {
		if cache != nil {
			uc.cache = cache
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(uc *LinkUseCase) {
		if logger != nil {
			uc.logger = logger
		}
	}
}

type LinkUseCase struct {
	linkRepo         linkRepository
	cache            linkCache // nil disables caching
	logger           *slog.Logger
	validate         *validator.Validate
	codeLength       int
	generateAttempts int
	generate         func(length int) (string, error)
}

func New(linkRepo linkRepository, opts ...Option) *LinkUseCase {
	uc := &LinkUseCase{
		linkRepo:         linkRepo,
		logger:           slog.New(slog.NewTextHandler(io.Discard, nil)),
		validate:         validator.New(),
		codeLength:       shortcode.DefaultLength,
		generateAttempts: 1,
		generate:         shortcode.Generate,
	}

	for _, opt := range opts {
		opt(uc)
	}

	return uc
}

// CreateLink stores a link to target under code, or under a generated code
// when code is empty. A taken code is reported as entity.ErrCodeExists and a
// code shadowed by a fixed route as entity.ErrInvalidCode.
func (uc *LinkUseCase) CreateLink(ctx context.Context, target, code string) (*entity.Link, error) {
	const op = "usecase.LinkUseCase.CreateLink"

	if err := uc.validate.Var(target, "required,url"); err != nil {
		return nil, fmt.Errorf("%s: %w", op, entity.ErrInvalidTarget)
	}

	if code != "" {
		if !shortcode.Valid(code) || shortcode.Reserved(code) {
			return nil, fmt.Errorf("%s: %w", op, entity.ErrInvalidCode)
		}

		link, err := uc.linkRepo.Save(ctx, code, target)
		if err != nil {
			return nil, fmt.Errorf("%s: failed to save link: %w", op, err)
		}

		metrics.LinksCreated.Inc()
		return link, nil
	}

	var lastErr error

	for i := 0; i < uc.generateAttempts; i++ {
		code, err := uc.generateCode()
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}

		link, err := uc.linkRepo.Save(ctx, code, target)
		if err == nil {
			metrics.LinksCreated.Inc()
			return link, nil
		}

		if !errors.Is(err, entity.ErrCodeExists) {
			return nil, fmt.Errorf("%s: failed to save link: %w", op, err)
		}

		lastErr = err
	}

	return nil, fmt.Errorf("%s: generated code collided %d time(s): %w", op, uc.generateAttempts, lastErr)
}

// generateCode draws codes until one is not reserved.
func (uc *LinkUseCase) generateCode() (string, error) {
	for {
		code, err := uc.generate(uc.codeLength)
		if err != nil {
			return "", err
		}

		if !shortcode.Reserved(code) {
			return code, nil
		}
	}
}

func (uc *LinkUseCase) ListLinks(ctx context.Context) ([]entity.Link, error) {
	const op = "usecase.LinkUseCase.ListLinks"

	links, err := uc.linkRepo.RetrieveAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to list links: %w", op, err)
	}

	return links, nil
}

func (uc *LinkUseCase) GetLinkStats(ctx context.Context, code string) (*entity.Link, error) {
	const op = "usecase.LinkUseCase.GetLinkStats"

	if !shortcode.Valid(code) {
		return nil, fmt.Errorf("%s: %w", op, entity.ErrInvalidCode)
	}

	link, err := uc.linkRepo.RetrieveByCode(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to get link stats: %w", op, err)
	}

	return link, nil
}

func (uc *LinkUseCase) DeleteLink(ctx context.Context, code string) error {
	const op = "usecase.LinkUseCase.DeleteLink"

	if !shortcode.Valid(code) {
		return fmt.Errorf("%s: %w", op, entity.ErrInvalidCode)
	}

	if err := uc.linkRepo.Remove(ctx, code); err != nil {
		return fmt.Errorf("%s: failed to delete link: %w", op, err)
	}

	uc.evict(ctx, op, code)

	return nil
}

// ResolveAndTrack returns the link behind code and records one click.
// A malformed code is reported as entity.ErrLinkNotFound. A failed click
// increment is logged and does not fail the redirect.
func (uc *LinkUseCase) ResolveAndTrack(ctx context.Context, code string) (*entity.Link, error) {
	const op = "usecase.LinkUseCase.ResolveAndTrack"

	if !shortcode.Valid(code) {
		return nil, fmt.Errorf("%s: %w", op, entity.ErrLinkNotFound)
	}

	link, cached, err := uc.lookup(ctx, op, code)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to resolve code: %w", op, err)
	}

	err = uc.track(ctx, op, link)
	if errors.Is(err, entity.ErrLinkNotFound) && cached {
		// The cached id may belong to a deleted link whose code was reused.
		uc.evict(ctx, op, code)

		link, err = uc.linkRepo.RetrieveByCode(ctx, code)
		if err != nil {
			return nil, fmt.Errorf("%s: failed to resolve code: %w", op, err)
		}

		uc.store(ctx, op, link)
		err = uc.track(ctx, op, link)
	}

	if err != nil {
		// Deleted after the lookup.
		uc.evict(ctx, op, code)
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	metrics.Redirects.Inc()

	return link, nil
}

// track records a click on link. Only entity.ErrLinkNotFound is returned,
// other failures are logged and counted.
func (uc *LinkUseCase) track(ctx context.Context, op string, link *entity.Link) error {
	_, err := uc.linkRepo.IncrementClicks(ctx, link.ID)
	if err == nil {
		return nil
	}

	if errors.Is(err, entity.ErrLinkNotFound) {
		return err
	}

	metrics.ClickTrackFailures.Inc()
	uc.logger.Warn("failed to track click",
		slog.String("op", op),
		slog.String("code", link.Code),
		slog.Any("err", err),
	)

	return nil
}

// lookup resolves code through the cache when one is configured. cached
// reports whether the link was served from the cache.
func (uc *LinkUseCase) lookup(ctx context.Context, op, code string) (link *entity.Link, cached bool, err error) {
	if uc.cache == nil {
		link, err = uc.linkRepo.RetrieveByCode(ctx, code)
		return link, false, err
	}

	link, ok, err := uc.cache.Get(ctx, code)
	switch {
	case err != nil:
		metrics.CacheLookups.WithLabelValues(metrics.CacheError).Inc()
		uc.logger.Warn("failed to read link from cache",
			slog.String("op", op),
			slog.String("code", code),
			slog.Any("err", err),
		)
	case ok:
		metrics.CacheLookups.WithLabelValues(metrics.CacheHit).Inc()
		return link, true, nil
	default:
		metrics.CacheLookups.WithLabelValues(metrics.CacheMiss).Inc()
	}

	link, err = uc.linkRepo.RetrieveByCode(ctx, code)
	if err != nil {
		return nil, false, err
	}

	uc.store(ctx, op, link)

	return link, false, nil
}

func (uc *LinkUseCase) store(ctx context.Context, op string, link *entity.Link) {
	if uc.cache == nil {
		return
	}

	if err := uc.cache.Set(ctx, link); err != nil {
		uc.logger.Warn("failed to write link to cache",
			slog.String("op", op),
			slog.String("code", link.Code),
			slog.Any("err", err),
		)
	}
}

func (uc *LinkUseCase) evict(ctx context.Context, op, code string) {
	if uc.cache == nil {
		return
	}

	if err := uc.cache.Delete(ctx, code); err != nil {
		uc.logger.Warn("failed to evict link from cache",
			slog.String("op", op),
			slog.String("code", code),
			slog.Any("err", err),
		)
	}
}
