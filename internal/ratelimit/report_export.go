package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	redis "github.com/redis/go-redis/v9"
	"github.com/smallbiznis/advocase/internal/config"
)

const (
	keyReportExportOrg  = "report:export:org:%s"
	keyReportExportLock = "report:export:lock:%s:%s"

	reportExportLockTTL = 30 * time.Second
)

// ReportExportLimiter throttles report downloads per organization and
// serializes concurrent generation of the same report.
type ReportExportLimiter struct {
	enabled bool

	bucket *TokenBucket
	locker *Locker

	rate  float64
	burst int
}

func NewReportExportLimiter(cfg config.Config) (*ReportExportLimiter, error) {
	limitCfg := cfg.RateLimit
	if !limitCfg.Enabled {
		return nil, nil
	}

	addr := strings.TrimSpace(limitCfg.RedisAddr)
	if addr == "" {
		return nil, errors.New("rate limit redis addr is required")
	}
	if limitCfg.ReportExportRate <= 0 || limitCfg.ReportExportBurst <= 0 {
		return nil, errors.New("report export rate limit must be positive")
	}

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: strings.TrimSpace(limitCfg.RedisPassword),
		DB:       limitCfg.RedisDB,
	})

	return &ReportExportLimiter{
		enabled: true,
		bucket:  NewTokenBucket(client),
		locker:  NewLocker(client),
		rate:    limitCfg.ReportExportRate,
		burst:   limitCfg.ReportExportBurst,
	}, nil
}

func (l *ReportExportLimiter) Enabled() bool {
	return l != nil && l.enabled
}

func (l *ReportExportLimiter) AllowOrg(ctx context.Context, orgID string) (bool, error) {
	if !l.Enabled() {
		return true, nil
	}
	return l.bucket.Allow(ctx, fmt.Sprintf(keyReportExportOrg, strings.TrimSpace(orgID)), l.rate, l.burst)
}

func (l *ReportExportLimiter) TryLockReport(ctx context.Context, orgID, reportName string) (string, bool, error) {
	if !l.Enabled() {
		return "", true, nil
	}
	key := fmt.Sprintf(keyReportExportLock, strings.TrimSpace(orgID), strings.TrimSpace(reportName))
	return l.locker.TryLock(ctx, key, reportExportLockTTL)
}

func (l *ReportExportLimiter) ReleaseReport(ctx context.Context, orgID, reportName, token string) error {
	if !l.Enabled() {
		return nil
	}
	key := fmt.Sprintf(keyReportExportLock, strings.TrimSpace(orgID), strings.TrimSpace(reportName))
	return l.locker.Release(ctx, key, token)
}
