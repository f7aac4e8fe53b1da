package repository

import "gorm.io/gorm"

// withPostDetails selects posts with derived like and comment counts and the viewer's liked flag.
func withPostDetails(db *gorm.DB, viewerID uint) *gorm.DB {
	selectQuery := "posts.*, " +
		"(SELECT COUNT(*) FROM comments WHERE comments.post_id = posts.id) AS comments_count, " +
		"(SELECT COUNT(*) FROM post_likes WHERE post_likes.post_id = posts.id) AS likes_count"

	if viewerID != 0 {
		return db.Select(selectQuery+", EXISTS(SELECT 1 FROM post_likes WHERE post_likes.post_id = posts.id AND post_likes.user_id = ?) AS liked", viewerID)
	}
	return db.Select(selectQuery + ", false AS liked")
}

// withCommentDetails selects comments with their like count and the viewer's liked flag.
func withCommentDetails(db *gorm.DB, viewerID uint) *gorm.DB {
	selectQuery := "comments.*, " +
		"(SELECT COUNT(*) FROM comment_likes WHERE comment_likes.comment_id = comments.id) AS likes_count"

	if viewerID != 0 {
		return db.Select(selectQuery+", EXISTS(SELECT 1 FROM comment_likes WHERE comment_likes.comment_id = comments.id AND comment_likes.user_id = ?) AS liked", viewerID)
	}
	return db.Select(selectQuery + ", false AS liked")
}

// preloadComments attaches every comment of the loaded posts, oldest first, with authors.
func preloadComments(db *gorm.DB, viewerID uint) *gorm.DB {
	return db.
		Preload("Comments", func(tx *gorm.DB) *gorm.DB {
			return withCommentDetails(tx, viewerID).Order("comments.created_at ASC, comments.id ASC")
		}).
		Preload("Comments.Author")
}
