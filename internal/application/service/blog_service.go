package service

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/garyjia/firm-portal/internal/application/dispatcher"
	"github.com/garyjia/firm-portal/internal/domain/entity"
	"github.com/garyjia/firm-portal/internal/domain/event"
	"github.com/garyjia/firm-portal/internal/infrastructure/httpclient"
)

// VisitorSource returns the anonymous visitor id
type VisitorSource interface {
	VisitorID() string
}

// LikeResult is the backend's answer to a like
type LikeResult struct {
	Likes int  `json:"likes"`
	Liked bool `json:"liked"`
}

// BlogService manages blog posts for the CMS and the public site
type BlogService interface {
	Public(ctx context.Context) ([]entity.BlogPost, error)
	AdminAll(ctx context.Context) ([]entity.BlogPost, error)
	Create(ctx context.Context, post *entity.BlogPost) (*entity.BlogPost, error)
	Update(ctx context.Context, id string, post *entity.BlogPost) (*entity.BlogPost, error)
	Delete(ctx context.Context, id string) error
	Like(ctx context.Context, id string) (*LikeResult, error)
	HasLiked(post *entity.BlogPost) bool
}

type blogServiceImpl struct {
	backend
	visitor VisitorSource
}

// NewBlogService creates a new BlogService
func NewBlogService(client *httpclient.Client, visitor VisitorSource, events dispatcher.Dispatcher, logger Logger) BlogService {
	return &blogServiceImpl{
		backend: backend{client: client, events: events, logger: logger},
		visitor: visitor,
	}
}

func postPath(id string) string {
	return "/api/blogs/" + url.PathEscape(id)
}

func (s *blogServiceImpl) Public(ctx context.Context) ([]entity.BlogPost, error) {
	var posts []entity.BlogPost
	req := httpclient.Request{Method: http.MethodGet, Path: "/api/blogs/public"}
	if err := s.call(ctx, "", req, &posts); err != nil {
		return nil, err
	}
	return posts, nil
}

func (s *blogServiceImpl) AdminAll(ctx context.Context) ([]entity.BlogPost, error) {
	var posts []entity.BlogPost
	req := httpclient.Request{Method: http.MethodGet, Path: "/api/blogs/admin/all"}
	if err := s.call(ctx, entity.ScopeCMS, req, &posts); err != nil {
		return nil, err
	}
	return posts, nil
}

func (s *blogServiceImpl) Create(ctx context.Context, post *entity.BlogPost) (*entity.BlogPost, error) {
	if err := entity.Validate(post); err != nil {
		return nil, err
	}

	var created entity.BlogPost
	req := httpclient.Request{Method: http.MethodPost, Path: "/api/blogs", Body: post}
	if err := s.call(ctx, entity.ScopeCMS, req, &created); err != nil {
		s.logger.Error("Failed to create post", "title", post.Title, "error", err)
		return nil, err
	}
	s.logger.Info("Post created", "id", created.ID)
	return &created, nil
}

func (s *blogServiceImpl) Update(ctx context.Context, id string, post *entity.BlogPost) (*entity.BlogPost, error) {
	if err := entity.Validate(post); err != nil {
		return nil, err
	}

	var updated entity.BlogPost
	req := httpclient.Request{Method: http.MethodPut, Path: postPath(id), Body: post}
	if err := s.call(ctx, entity.ScopeCMS, req, &updated); err != nil {
		s.logger.Error("Failed to update post", "id", id, "error", err)
		return nil, err
	}
	return &updated, nil
}

func (s *blogServiceImpl) Delete(ctx context.Context, id string) error {
	req := httpclient.Request{Method: http.MethodDelete, Path: postPath(id)}
	if err := s.call(ctx, entity.ScopeCMS, req, nil); err != nil {
		s.logger.Error("Failed to delete post", "id", id, "error", err)
		return err
	}
	s.logger.Info("Post deleted", "id", id)
	return nil
}

func (s *blogServiceImpl) Like(ctx context.Context, id string) (*LikeResult, error) {
	visitorID := s.visitor.VisitorID()
	if visitorID == "" {
		return nil, ErrNoVisitor
	}

	var result LikeResult
	req := httpclient.Request{
		Method: http.MethodPost,
		Path:   postPath(id) + "/like",
		Body:   map[string]string{"visitorId": visitorID},
	}
	if err := s.call(ctx, "", req, &result); err != nil {
		return nil, fmt.Errorf("failed to like post %s: %w", id, err)
	}

	s.publish(ctx, event.New(event.TypeBlogLiked, "", id, map[string]any{
		event.KeyVisitorID: visitorID,
	}))
	return &result, nil
}

func (s *blogServiceImpl) HasLiked(post *entity.BlogPost) bool {
	return post.LikedByVisitor(s.visitor.VisitorID())
}
