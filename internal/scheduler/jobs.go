// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package scheduler

import (
	"context"
	"time"
)

// EventRetention is how long audit events are kept.
const EventRetention = 90 * 24 * time.Hour

// BlogPublisher publishes blogs whose scheduled time has passed.
type BlogPublisher interface {
	PublishDue(ctx context.Context, now time.Time) (int64, error)
}

// OTPPurger clears expired one-time codes.
type OTPPurger interface {
	PurgeExpiredOTPs(ctx context.Context, now time.Time) (int64, error)
}

// EventPruner deletes old audit events.
type EventPruner interface {
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// GeoIPReloader reloads the GeoIP database from disk.
type GeoIPReloader interface {
	Enabled() bool
	Reload() error
}

// Deps are the collaborators of the built-in jobs. Nil fields skip the job.
type Deps struct {
	Blogs  BlogPublisher
	Users  OTPPurger
	Events EventPruner
	GeoIP  GeoIPReloader
	Now    func() time.Time
}

// RegisterDefaults adds the built-in maintenance jobs.
func (s *Scheduler) RegisterDefaults(d Deps) error {
	now := d.Now
	if now == nil {
		now = time.Now
	}

	if d.Blogs != nil {
		err := s.Add("publish-scheduled-blogs", "Publish blogs whose scheduled time has passed", "* * * * *",
			func(ctx context.Context) error {
				n, err := d.Blogs.PublishDue(ctx, now())
				if n > 0 {
					s.logger.Info("published scheduled blogs", "category", "blog", "count", n)
				}
				return err
			})
		if err != nil {
			return err
		}
	}

	if d.Users != nil {
		err := s.Add("purge-expired-otps", "Clear expired verification and reset codes", "*/15 * * * *",
			func(ctx context.Context) error {
				n, err := d.Users.PurgeExpiredOTPs(ctx, now())
				if n > 0 {
					s.logger.Debug("cleared expired otps", "users", n)
				}
				return err
			})
		if err != nil {
			return err
		}
	}

	if d.Events != nil || d.GeoIP != nil {
		err := s.Add("daily-maintenance", "Prune old events and reload the GeoIP database", "@daily",
			func(ctx context.Context) error {
				if d.Events != nil {
					n, err := d.Events.DeleteOlderThan(ctx, now().Add(-EventRetention))
					if err != nil {
						return err
					}
					if n > 0 {
						s.logger.Info("pruned old events", "count", n)
					}
				}
				if d.GeoIP != nil && d.GeoIP.Enabled() {
					if err := d.GeoIP.Reload(); err != nil {
						return err
					}
				}
				return nil
			})
		if err != nil {
			return err
		}
	}
	return nil
}
