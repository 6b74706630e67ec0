package db

import (
	"context"
	"database/sql"
)

const createPost = `-- name: CreatePost :one
INSERT INTO posts (id, user_id, caption, image_url, created_at)
VALUES (?, ?, ?, ?, ?)
RETURNING id, user_id, caption, image_url, created_at, stress_level
`

type CreatePostParams struct {
	ID        string
	UserID    string
	Caption   sql.NullString
	ImageUrl  sql.NullString
	CreatedAt string
}

func (q *Queries) CreatePost(ctx context.Context, arg CreatePostParams) (Post, error) {
	row := q.db.QueryRowContext(ctx, createPost,
		arg.ID,
		arg.UserID,
		arg.Caption,
		arg.ImageUrl,
		arg.CreatedAt,
	)
	var i Post
	err := row.Scan(
		&i.ID,
		&i.UserID,
		&i.Caption,
		&i.ImageUrl,
		&i.CreatedAt,
		&i.StressLevel,
	)
	return i, err
}

const listPostsByUser = `-- name: ListPostsByUser :many
SELECT id, user_id, caption, image_url, created_at, stress_level
FROM posts
WHERE user_id = ?
ORDER BY created_at DESC, id DESC
`

func (q *Queries) ListPostsByUser(ctx context.Context, userID string) ([]Post, error) {
	rows, err := q.db.QueryContext(ctx, listPostsByUser, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Post
	for rows.Next() {
		var i Post
		if err := rows.Scan(
			&i.ID,
			&i.UserID,
			&i.Caption,
			&i.ImageUrl,
			&i.CreatedAt,
			&i.StressLevel,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const listFeedPosts = `-- name: ListFeedPosts :many
SELECT p.id, p.user_id, p.caption, p.image_url, p.created_at, p.stress_level,
       pr.username, pr.display_name, pr.profile_image_url
FROM posts p
JOIN profiles pr ON pr.id = p.user_id
ORDER BY p.created_at DESC, p.id DESC
`

type ListFeedPostsRow struct {
	ID              string
	UserID          string
	Caption         sql.NullString
	ImageUrl        sql.NullString
	CreatedAt       string
	StressLevel     sql.NullFloat64
	Username        string
	DisplayName     sql.NullString
	ProfileImageUrl sql.NullString
}

func (q *Queries) ListFeedPosts(ctx context.Context) ([]ListFeedPostsRow, error) {
	rows, err := q.db.QueryContext(ctx, listFeedPosts)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []ListFeedPostsRow
	for rows.Next() {
		var i ListFeedPostsRow
		if err := rows.Scan(
			&i.ID,
			&i.UserID,
			&i.Caption,
			&i.ImageUrl,
			&i.CreatedAt,
			&i.StressLevel,
			&i.Username,
			&i.DisplayName,
			&i.ProfileImageUrl,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const setPostStressLevel = `-- name: SetPostStressLevel :exec
UPDATE posts SET stress_level = ? WHERE id = ?
`

type SetPostStressLevelParams struct {
	StressLevel sql.NullFloat64
	ID          string
}

func (q *Queries) SetPostStressLevel(ctx context.Context, arg SetPostStressLevelParams) error {
	_, err := q.db.ExecContext(ctx, setPostStressLevel, arg.StressLevel, arg.ID)
	return err
}
