package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/haraherri/LMS-System/internal/models"
)

// CourseCache keeps serialized public course details. Entries are short
// lived; any write to a course or its lectures invalidates the entry so
// stale structure is never served for long.
type CourseCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewCourseCache(client *redis.Client, ttl time.Duration) *CourseCache {
	return &CourseCache{client: client, ttl: ttl}
}

func detailKey(courseID uuid.UUID) string {
	return "course_detail:" + courseID.String()
}

// Detail returns the cached public detail, or (nil, nil) on a miss.
func (c *CourseCache) Detail(ctx context.Context, courseID uuid.UUID) (*models.CourseDetail, error) {
	data, err := c.client.Get(ctx, detailKey(courseID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}
	var detail models.CourseDetail
	if err := json.Unmarshal(data, &detail); err != nil {
		return nil, err
	}
	return &detail, nil
}

func (c *CourseCache) SetDetail(ctx context.Context, detail *models.CourseDetail) error {
	data, err := json.Marshal(detail)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, detailKey(detail.Course.ID), data, c.ttl).Err()
}

func (c *CourseCache) InvalidateDetail(ctx context.Context, courseID uuid.UUID) error {
	return c.client.Del(ctx, detailKey(courseID)).Err()
}
