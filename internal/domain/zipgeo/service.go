package zipgeo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/medroute/medroute/internal/platform/geo"
)

// ErrZipNotFound is returned when a ZIP code has no known centroid.
var ErrZipNotFound = errors.New("zip code not found")

// ErrInvalidZip is returned when the input is not a usable ZIP code.
var ErrInvalidZip = errors.New("invalid zip code")

const cacheTTL = 24 * time.Hour

type Service struct {
	zips  Repository
	cache *goredis.Client // nil disables caching
	log   zerolog.Logger
}

func NewService(zips Repository, cache *goredis.Client, log zerolog.Logger) *Service {
	return &Service{zips: zips, cache: cache, log: log}
}

// Normalize trims whitespace and reduces ZIP+4 input to the 5-digit prefix.
// Returns ErrInvalidZip when the result is not exactly 5 digits.
func Normalize(zip string) (string, error) {
	z := strings.TrimSpace(zip)
	if i := strings.IndexByte(z, '-'); i >= 0 {
		z = z[:i]
	}
	if len(z) != 5 {
		return "", ErrInvalidZip
	}
	for i := 0; i < len(z); i++ {
		if z[i] < '0' || z[i] > '9' {
			return "", ErrInvalidZip
		}
	}
	return z, nil
}

// Lookup resolves a ZIP code to its centroid, consulting the cache first.
// Cache failures are logged and the lookup falls through to the database.
func (s *Service) Lookup(ctx context.Context, zip string) (geo.Point, error) {
	z, err := Normalize(zip)
	if err != nil {
		return geo.Point{}, err
	}

	if pt, ok := s.cacheGet(ctx, z); ok {
		return pt, nil
	}

	row, err := s.zips.Get(ctx, z)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return geo.Point{}, ErrZipNotFound
		}
		return geo.Point{}, fmt.Errorf("zip lookup: %w", err)
	}

	pt := row.Point()
	s.cacheSet(ctx, z, pt)
	return pt, nil
}

// Get returns the full centroid row for a ZIP code.
func (s *Service) Get(ctx context.Context, zip string) (*ZipGeo, error) {
	z, err := Normalize(zip)
	if err != nil {
		return nil, err
	}
	row, err := s.zips.Get(ctx, z)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrZipNotFound
		}
		return nil, err
	}
	return row, nil
}

// Upsert stores a single centroid and invalidates its cache entry.
func (s *Service) Upsert(ctx context.Context, z *ZipGeo) error {
	norm, err := Normalize(z.Zip)
	if err != nil {
		return err
	}
	z.Zip = norm
	if err := s.zips.Upsert(ctx, z); err != nil {
		return err
	}
	s.cacheDel(ctx, norm)
	return nil
}

// ImportBatch stores a batch of centroids, skipping rows with unusable ZIP
// codes. Returns the number of rows written and the number skipped.
func (s *Service) ImportBatch(ctx context.Context, rows []*ZipGeo) (written, skipped int, err error) {
	var valid []*ZipGeo
	for _, z := range rows {
		norm, nerr := Normalize(z.Zip)
		if nerr != nil {
			skipped++
			continue
		}
		z.Zip = norm
		valid = append(valid, z)
	}
	if len(valid) == 0 {
		return 0, skipped, nil
	}
	written, err = s.zips.UpsertBatch(ctx, valid)
	if err != nil {
		return written, skipped, err
	}
	for _, z := range valid {
		s.cacheDel(ctx, z.Zip)
	}
	return written, skipped, nil
}

func (s *Service) Count(ctx context.Context) (int, error) {
	return s.zips.Count(ctx)
}

func cacheKey(zip string) string { return "zipgeo:" + zip }

func (s *Service) cacheGet(ctx context.Context, zip string) (geo.Point, bool) {
	if s.cache == nil {
		return geo.Point{}, false
	}
	raw, err := s.cache.Get(ctx, cacheKey(zip)).Bytes()
	if err != nil {
		if !errors.Is(err, goredis.Nil) {
			s.log.Debug().Err(err).Str("zip", zip).Msg("zipgeo cache read failed")
		}
		return geo.Point{}, false
	}
	var pt geo.Point
	if err := json.Unmarshal(raw, &pt); err != nil {
		return geo.Point{}, false
	}
	return pt, true
}

func (s *Service) cacheSet(ctx context.Context, zip string, pt geo.Point) {
	if s.cache == nil {
		return
	}
	raw, err := json.Marshal(pt)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, cacheKey(zip), raw, cacheTTL).Err(); err != nil {
		s.log.Debug().Err(err).Str("zip", zip).Msg("zipgeo cache write failed")
	}
}

func (s *Service) cacheDel(ctx context.Context, zip string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Del(ctx, cacheKey(zip)).Err(); err != nil {
		s.log.Debug().Err(err).Str("zip", zip).Msg("zipgeo cache invalidation failed")
	}
}
