package model

type Post struct {
	UUIDBase
	UserID         string `gorm:"index;type:varchar(36);not null" json:"userId"`
	AuthorName     string `gorm:"size:100" json:"authorName"`
	AuthorPhotoURL string `gorm:"size:255" json:"authorPhotoUrl"`
	Title          string `gorm:"size:255;not null" json:"title"`
	Content        string `gorm:"type:text;not null" json:"content"`
	ImageURL       string `gorm:"size:255" json:"imageUrl"`
	Likes          int    `gorm:"default:0" json:"likes"`
	Comments       int    `gorm:"default:0" json:"comments"`
}

func (Post) TableName() string {
	return "posts"
}

// PostLike keeps one like per user and post
type PostLike struct {
	BaseModel
	UserID string `gorm:"type:varchar(36);uniqueIndex:idx_user_post"`
	PostID string `gorm:"type:varchar(36);uniqueIndex:idx_user_post"`
}

func (PostLike) TableName() string {
	return "post_likes"
}
