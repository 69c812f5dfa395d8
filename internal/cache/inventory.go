package cache

import (
	"context"
	"fmt"
	"time"
)

const (
	UserKeyPrefix      = "user:%d"
	PostListKeyPrefix  = "posts:list:%s"
	BlogStatsKey       = "blogs:stats"
	CommentsPagePrefix = "comments:post:%d:page:%d"
)

const (
	UserTTL     = 5 * time.Minute
	PostListTTL = 1 * time.Minute
	CommentsTTL = 1 * time.Minute
	StatsTTL    = 2 * time.Minute
)

func UserKey(userID uint) string {
	return fmt.Sprintf(UserKeyPrefix, userID)
}

// PostListKey keys the default first-page listing per visibility class
// ("public" vs "admin"). Filtered or deep-paginated listings are not cached.
func PostListKey(class string) string {
	return fmt.Sprintf(PostListKeyPrefix, class)
}

func CommentsPageKey(postID uint, page int) string {
	return fmt.Sprintf(CommentsPagePrefix, postID, page)
}

func Invalidate(ctx context.Context, key string) {
	if client != nil {
		client.Del(ctx, key)
	}
}

func InvalidateUser(ctx context.Context, userID uint) {
	Invalidate(ctx, UserKey(userID))
}

// InvalidatePost drops the list and stats entries that embed post fields.
// Post detail reads are never cached: every read performs an atomic view
// increment that must show up immediately.
func InvalidatePost(ctx context.Context) {
	InvalidatePostLists(ctx)
	Invalidate(ctx, BlogStatsKey)
}

// InvalidateComments drops the cached first page for the post. Deeper pages
// are never cached.
func InvalidateComments(ctx context.Context, postID uint) {
	Invalidate(ctx, CommentsPageKey(postID, 1))
}

func InvalidatePostLists(ctx context.Context) {
	Invalidate(ctx, PostListKey("public"))
	Invalidate(ctx, PostListKey("admin"))
}
