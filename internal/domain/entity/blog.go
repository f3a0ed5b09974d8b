package entity

import "time"

// BlogPost is a news/blog article managed by the CMS
type BlogPost struct {
	ID            string     `json:"id"`
	Title         string     `json:"title" validate:"required,max=200"`
	Slug          string     `json:"slug,omitempty"`
	Excerpt       string     `json:"excerpt,omitempty" validate:"max=500"`
	Content       string     `json:"content" validate:"required"`
	CoverImageURL string     `json:"coverImageUrl,omitempty" validate:"omitempty,url"`
	Tags          []string   `json:"tags,omitempty"`
	Published     bool       `json:"published"`
	Likes         int        `json:"likes"`
	LikedBy       []string   `json:"likedBy,omitempty"`
	PublishedAt   *time.Time `json:"publishedAt,omitempty"`
	CreatedAt     time.Time  `json:"createdAt"`
}

// LikedByVisitor reports whether the anonymous visitor already liked the post
func (p *BlogPost) LikedByVisitor(visitorID string) bool {
	if visitorID == "" {
		return false
	}
	for _, id := range p.LikedBy {
		if id == visitorID {
			return true
		}
	}
	return false
}
