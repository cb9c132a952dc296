// Package feed keeps a live, merged view of the gallery feed: every post
// plus its comment thread, rebuilt from store change notifications and
// fanned out to subscribers as full snapshots.
package feed

import (
	"context"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/edulink-id/parent-portal-api/internal/dto"
	"github.com/edulink-id/parent-portal-api/internal/models"
	"github.com/edulink-id/parent-portal-api/internal/repository"
	"github.com/edulink-id/parent-portal-api/internal/store"
)

const postsCollection = "posts"

// Observer receives each full feed snapshot. Snapshots replace each other;
// observers must not retain and patch them.
type Observer func(dto.FeedSnapshot)

// Unsubscribe detaches an observer. Safe to call more than once.
type Unsubscribe func()

// Metrics is the instrumentation consumed by the synchronizer.
type Metrics interface {
	RecordFeedRebuild()
	SetFeedSubscribers(count int)
}

// Synchronizer watches the posts collection and one comment sub-collection
// per live post. Comment subscriptions live in a registry keyed by post ID
// and are swept whenever a post disappears and when the synchronizer shuts
// down, so no watch outlives the post it belongs to.
type Synchronizer struct {
	store   store.Store
	metrics Metrics
	logger  *zap.Logger
	now     func() time.Time

	mu           sync.Mutex
	posts        map[string]models.Post
	comments     map[string][]models.Comment
	commentSubs  map[string]store.Unsubscribe
	observers    map[int]Observer
	nextObserver int
	unsubPosts   store.Unsubscribe
	started      bool
	closed       bool
}

// NewSynchronizer constructs a stopped synchronizer.
func NewSynchronizer(s store.Store, metrics Metrics, logger *zap.Logger) *Synchronizer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Synchronizer{
		store:       s,
		metrics:     metrics,
		logger:      logger,
		now:         time.Now,
		posts:       map[string]models.Post{},
		comments:    map[string][]models.Comment{},
		commentSubs: map[string]store.Unsubscribe{},
		observers:   map[int]Observer{},
	}
}

// Start attaches the posts watch. The first snapshot arrives synchronously
// or as soon as the store delivers it; Start itself does not block on it.
func (f *Synchronizer) Start(ctx context.Context) error {
	f.mu.Lock()
	if f.started || f.closed {
		f.mu.Unlock()
		return nil
	}
	f.started = true
	f.mu.Unlock()

	unsub, err := f.store.Watch(ctx, postsCollection, func(snap store.Snapshot) {
		f.onPosts(ctx, snap)
	})
	if err != nil {
		f.mu.Lock()
		f.started = false
		f.mu.Unlock()
		return err
	}

	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		unsub()
		return nil
	}
	f.unsubPosts = unsub
	f.mu.Unlock()
	return nil
}

// Close sweeps every subscription and drops all observers.
func (f *Synchronizer) Close() {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return
	}
	f.closed = true
	unsubPosts := f.unsubPosts
	f.unsubPosts = nil
	subs := f.commentSubs
	f.commentSubs = map[string]store.Unsubscribe{}
	f.observers = map[int]Observer{}
	f.posts = map[string]models.Post{}
	f.comments = map[string][]models.Comment{}
	f.mu.Unlock()

	if unsubPosts != nil {
		unsubPosts()
	}
	for _, unsub := range subs {
		if unsub != nil {
			unsub()
		}
	}
	if f.metrics != nil {
		f.metrics.SetFeedSubscribers(0)
	}
}

// Subscribe registers an observer and immediately delivers the current
// snapshot so late joiners never start empty-handed.
func (f *Synchronizer) Subscribe(obs Observer) Unsubscribe {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return func() {}
	}
	id := f.nextObserver
	f.nextObserver++
	f.observers[id] = obs
	count := len(f.observers)
	snapshot := f.buildSnapshotLocked()
	f.mu.Unlock()

	if f.metrics != nil {
		f.metrics.SetFeedSubscribers(count)
	}
	obs(snapshot)

	var once sync.Once
	return func() {
		once.Do(func() {
			f.mu.Lock()
			delete(f.observers, id)
			remaining := len(f.observers)
			f.mu.Unlock()
			if f.metrics != nil {
				f.metrics.SetFeedSubscribers(remaining)
			}
		})
	}
}

// Snapshot returns the current merged feed without subscribing.
func (f *Synchronizer) Snapshot() dto.FeedSnapshot {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.buildSnapshotLocked()
}

// onPosts rebuilds the post set from a full collection snapshot, then
// reconciles the comment subscription registry against it. Watch calls
// happen outside the lock because stores may deliver the initial comment
// snapshot synchronously.
func (f *Synchronizer) onPosts(ctx context.Context, snap store.Snapshot) {
	next := make(map[string]models.Post, len(snap.Documents))
	for _, doc := range snap.Documents {
		post := repository.ParsePost(doc)
		next[post.ID] = post
	}

	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return
	}
	f.posts = next

	var stale []store.Unsubscribe
	for postID, unsub := range f.commentSubs {
		if _, live := next[postID]; !live {
			stale = append(stale, unsub)
			delete(f.commentSubs, postID)
			delete(f.comments, postID)
		}
	}
	var missing []string
	for postID := range next {
		if _, ok := f.commentSubs[postID]; !ok {
			// Placeholder claims the slot so a concurrent rebuild
			// cannot double-subscribe.
			f.commentSubs[postID] = nil
			missing = append(missing, postID)
		}
	}
	f.mu.Unlock()

	for _, unsub := range stale {
		if unsub != nil {
			unsub()
		}
	}
	for _, postID := range missing {
		f.watchComments(ctx, postID)
	}

	if f.metrics != nil {
		f.metrics.RecordFeedRebuild()
	}
	f.emit()
}

func (f *Synchronizer) watchComments(ctx context.Context, postID string) {
	collection := store.ChildCollection(postsCollection, postID, "comments")
	unsub, err := f.store.Watch(ctx, collection, func(snap store.Snapshot) {
		f.onComments(postID, snap)
	})
	if err != nil {
		f.logger.Warn("comment watch failed", zap.String("post", postID), zap.Error(err))
		f.mu.Lock()
		delete(f.commentSubs, postID)
		f.mu.Unlock()
		return
	}

	f.mu.Lock()
	_, live := f.posts[postID]
	if !f.closed && live {
		f.commentSubs[postID] = unsub
		f.mu.Unlock()
		return
	}
	delete(f.commentSubs, postID)
	f.mu.Unlock()
	unsub()
}

func (f *Synchronizer) onComments(postID string, snap store.Snapshot) {
	comments := make([]models.Comment, 0, len(snap.Documents))
	for _, doc := range snap.Documents {
		comments = append(comments, repository.ParseComment(postID, doc))
	}
	sort.SliceStable(comments, func(i, j int) bool {
		return comments[i].CreatedAt.Before(comments[j].CreatedAt)
	})

	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return
	}
	if _, live := f.posts[postID]; !live {
		f.mu.Unlock()
		return
	}
	f.comments[postID] = comments
	f.mu.Unlock()

	f.emit()
}

func (f *Synchronizer) emit() {
	f.mu.Lock()
	snapshot := f.buildSnapshotLocked()
	observers := make([]Observer, 0, len(f.observers))
	for _, obs := range f.observers {
		observers = append(observers, obs)
	}
	f.mu.Unlock()

	for _, obs := range observers {
		obs(snapshot)
	}
}

// buildSnapshotLocked merges posts with their comment threads, newest post
// first. Caller holds f.mu.
func (f *Synchronizer) buildSnapshotLocked() dto.FeedSnapshot {
	posts := make([]dto.FeedPost, 0, len(f.posts))
	for id, post := range f.posts {
		thread := f.comments[id]
		comments := make([]models.Comment, len(thread))
		copy(comments, thread)
		posts = append(posts, dto.FeedPost{Post: post, Comments: comments})
	}
	sort.SliceStable(posts, func(i, j int) bool {
		if !posts[i].CreatedAt.Equal(posts[j].CreatedAt) {
			return posts[i].CreatedAt.After(posts[j].CreatedAt)
		}
		return posts[i].ID < posts[j].ID
	})
	return dto.FeedSnapshot{Posts: posts, GeneratedAt: f.now().UTC()}
}
