package classify

import (
	"context"
	"errors"
	"strings"

	"golang.org/x/sync/errgroup"

	"budgeteer/internal/core"
	applog "budgeteer/internal/log"
)

// BucketCreator creates buckets suggested by the model. Auto-created
// buckets start with no monthly limit.
type BucketCreator interface {
	CreateBucket(ctx context.Context, name string, limit float64) (core.Bucket, error)
}

// Coordinator runs a suggestion pass and reconciles the result: drafts
// get their suggested bucket, and bucket names the model invented are
// created in the store.
type Coordinator struct {
	suggester Suggester
	buckets   BucketCreator
	logger    *applog.Logger
}

func NewCoordinator(suggester Suggester, buckets BucketCreator, logger *applog.Logger) *Coordinator {
	return &Coordinator{
		suggester: suggester,
		buckets:   buckets,
		logger:    logger.WithComponent(applog.ComponentClassify),
	}
}

// Classify suggests a bucket for each draft and creates any buckets the
// model proposed that do not exist yet. Creation failures are logged and
// do not fail the batch; the affected drafts keep the suggested name and
// fall back to the default bucket at commit time if it still does not
// exist. The returned slice is a new copy, the input is not mutated.
func (c *Coordinator) Classify(ctx context.Context, drafts []core.DraftTransaction, existing []core.Bucket) ([]core.DraftTransaction, error) {
	mapping, err := c.suggester.Suggest(ctx, drafts, existing)
	if err != nil {
		return nil, err
	}

	out := make([]core.DraftTransaction, len(drafts))
	copy(out, drafts)
	for i := range out {
		if name, ok := mapping[out[i].ID]; ok && strings.TrimSpace(name) != "" {
			out[i].Bucket = strings.TrimSpace(name)
		}
	}

	c.ensureBuckets(ctx, out, existing)
	return out, nil
}

// ensureBuckets creates every suggested bucket name that is not already
// known. All creations run concurrently and every one is attempted even
// if siblings fail.
func (c *Coordinator) ensureBuckets(ctx context.Context, drafts []core.DraftTransaction, existing []core.Bucket) {
	known := make(map[string]bool, len(existing)+1)
	known[strings.ToLower(core.UncategorizedBucket)] = true
	for _, b := range existing {
		known[strings.ToLower(b.Name)] = true
	}

	var missing []string
	for _, d := range drafts {
		name := strings.TrimSpace(d.Bucket)
		if name == "" || known[strings.ToLower(name)] {
			continue
		}
		known[strings.ToLower(name)] = true
		missing = append(missing, name)
	}
	if len(missing) == 0 {
		return
	}

	var g errgroup.Group
	for _, name := range missing {
		g.Go(func() error {
			_, err := c.buckets.CreateBucket(ctx, name, 0)
			if err != nil && !errors.Is(err, core.ErrDuplicateBucket) {
				c.logger.Warn("failed to create suggested bucket",
					applog.FieldBucket, name,
					applog.FieldError, err)
			}
			return nil
		})
	}
	_ = g.Wait()
}
