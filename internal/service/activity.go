package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/dtroode/podkeeper/internal/dataset"
	"github.com/dtroode/podkeeper/internal/locator"
	"github.com/dtroode/podkeeper/internal/logger"
	"github.com/dtroode/podkeeper/internal/model"
)

// activityEntry names the dataset entry a pod owner stamps when active.
const activityEntry = "active"

// Activity reads and stamps the activity resources of pods.
type Activity struct {
	gateway     model.Gateway
	logger      *logger.Logger
	concurrency int
	now         func() time.Time
}

// NewActivity returns an Activity running at most concurrency reads at a
// time. Zero or a negative value means no limit.
func NewActivity(gateway model.Gateway, logger *logger.Logger, concurrency int) *Activity {
	return &Activity{
		gateway:     gateway,
		logger:      logger,
		concurrency: concurrency,
		now:         time.Now,
	}
}

// RefreshActivity reads the last activity of every roster member. The result
// has one record per member in roster order. A member whose activity cannot
// be read gets a nil LastActive; that never affects the other members.
func (a *Activity) RefreshActivity(ctx context.Context, session model.Session, roster []model.UserIdentity) []model.ActivityRecord {
	log := a.logger.With("request_id", uuid.NewString())
	records := make([]model.ActivityRecord, len(roster))

	g, gctx := errgroup.WithContext(ctx)
	if a.concurrency > 0 {
		g.SetLimit(a.concurrency)
	}
	for i, user := range roster {
		i, user := i, user
		records[i].User = user
		g.Go(func() error {
			last, err := a.lastActive(gctx, session, user)
			if err != nil {
				log.Warn("Activity service: failed to read activity",
					"user", user.Identifier,
					"error", err)
				return nil
			}
			records[i].LastActive = last
			return nil
		})
	}
	// tasks never fail, Wait only joins them
	_ = g.Wait()

	log.Debug("Activity service: roster refreshed", "members", len(roster))
	return records
}

func (a *Activity) lastActive(ctx context.Context, session model.Session, user model.UserIdentity) (*time.Time, error) {
	root := ownerRoot(user)
	if root == "" {
		return nil, model.ErrMissingRoot
	}

	res, err := a.gateway.ReadResource(ctx, session, locator.ActivityURL(root))
	if err != nil {
		return nil, fmt.Errorf("failed to read activity resource: %w", err)
	}

	ds, err := dataset.Decode(res.Data)
	if err != nil {
		return nil, err
	}
	last, err := dataset.LatestModified(ds)
	if err != nil {
		return nil, err
	}
	if last == nil && !res.LastModified.IsZero() {
		modified := res.LastModified
		last = &modified
	}
	return last, nil
}

// MarkActive records now as the caller's last activity.
func (a *Activity) MarkActive(ctx context.Context, session model.Session) error {
	root := ownerRoot(session.Identity)
	if root == "" {
		return model.ErrMissingRoot
	}
	activityURL := locator.ActivityURL(root)
	log := a.logger.With("request_id", uuid.NewString(), "resource", activityURL)

	err := a.gateway.CreateContainer(ctx, session, parentContainer(activityURL))
	if err != nil && !errors.Is(err, model.ErrAlreadyExists) {
		return fmt.Errorf("failed to create public container: %w", err)
	}

	existing, err := a.gateway.ReadDataset(ctx, session, activityURL)
	if err != nil && !errors.Is(err, model.ErrNotFound) {
		return fmt.Errorf("failed to read activity resource: %w", err)
	}

	stamped, err := dataset.Stamp(existing, activityEntry, a.now())
	if err != nil {
		return err
	}
	if err := a.gateway.WriteDataset(ctx, session, activityURL, stamped); err != nil {
		log.Error("Activity service: failed to stamp activity", "error", err)
		return fmt.Errorf("failed to write activity resource: %w", err)
	}

	log.Debug("Activity service: activity stamped")
	return nil
}

func parentContainer(resourceURL string) string {
	return resourceURL[:strings.LastIndex(resourceURL, "/")+1]
}
