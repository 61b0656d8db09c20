package ai

import (
	"context"
	"crypto/sha256"
	"encoding/hex"

	"github.com/sirupsen/logrus"
)

// CaptionStore persists captions keyed by image hash and task.
type CaptionStore interface {
	Find(ctx context.Context, imageHash, task string) (string, bool, error)
	Save(ctx context.Context, imageHash, task, caption string) error
}

// CachedDescriber consults Store before delegating to Next. Store failures
// are logged and otherwise ignored.
type CachedDescriber struct {
	Next   Describer
	Store  CaptionStore
	Logger logrus.FieldLogger
}

func (c *CachedDescriber) Describe(ctx context.Context, req Request) string {
	log := c.Logger
	if log == nil {
		log = logrus.StandardLogger()
	}
	key := requestKey(req)
	task := req.Task.String()
	if cached, ok, err := c.Store.Find(ctx, key, task); err != nil {
		log.WithError(err).Warn("caption cache lookup failed")
	} else if ok {
		return cached
	}
	out := c.Next.Describe(ctx, req)
	if out == "" {
		return ""
	}
	if err := c.Store.Save(ctx, key, task, out); err != nil {
		log.WithError(err).Warn("caption cache save failed")
	}
	return out
}

// requestKey hashes the image together with its context text.
func requestKey(req Request) string {
	if req.Context == "" {
		return ImageHash(req.Image)
	}
	b := make([]byte, 0, len(req.Image)+1+len(req.Context))
	b = append(b, req.Image...)
	b = append(b, 0)
	b = append(b, req.Context...)
	return ImageHash(b)
}

// ImageHash is the hex sha256 of the image bytes.
func ImageHash(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}
