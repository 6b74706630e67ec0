package db

import (
	"context"
	"database/sql"
)

const createProfile = `-- name: CreateProfile :one
INSERT INTO profiles (id, username, display_name, bio, profile_image_url)
VALUES (?, ?, ?, ?, ?)
RETURNING id, username, display_name, bio, profile_image_url
`

type CreateProfileParams struct {
	ID              string
	Username        string
	DisplayName     sql.NullString
	Bio             sql.NullString
	ProfileImageUrl sql.NullString
}

func (q *Queries) CreateProfile(ctx context.Context, arg CreateProfileParams) (Profile, error) {
	row := q.db.QueryRowContext(ctx, createProfile,
		arg.ID,
		arg.Username,
		arg.DisplayName,
		arg.Bio,
		arg.ProfileImageUrl,
	)
	var i Profile
	err := row.Scan(
		&i.ID,
		&i.Username,
		&i.DisplayName,
		&i.Bio,
		&i.ProfileImageUrl,
	)
	return i, err
}

const getProfileByID = `-- name: GetProfileByID :one
SELECT id, username, display_name, bio, profile_image_url
FROM profiles
WHERE id = ?
`

func (q *Queries) GetProfileByID(ctx context.Context, id string) (Profile, error) {
	row := q.db.QueryRowContext(ctx, getProfileByID, id)
	var i Profile
	err := row.Scan(
		&i.ID,
		&i.Username,
		&i.DisplayName,
		&i.Bio,
		&i.ProfileImageUrl,
	)
	return i, err
}

const getProfileByUsername = `-- name: GetProfileByUsername :one
SELECT id, username, display_name, bio, profile_image_url
FROM profiles
WHERE username = ?
`

func (q *Queries) GetProfileByUsername(ctx context.Context, username string) (Profile, error) {
	row := q.db.QueryRowContext(ctx, getProfileByUsername, username)
	var i Profile
	err := row.Scan(
		&i.ID,
		&i.Username,
		&i.DisplayName,
		&i.Bio,
		&i.ProfileImageUrl,
	)
	return i, err
}

const updateProfile = `-- name: UpdateProfile :execrows
UPDATE profiles
SET display_name = ?,
    bio = ?,
    profile_image_url = COALESCE(?, profile_image_url)
WHERE id = ?
`

type UpdateProfileParams struct {
	DisplayName     sql.NullString
	Bio             sql.NullString
	ProfileImageUrl sql.NullString
	ID              string
}

func (q *Queries) UpdateProfile(ctx context.Context, arg UpdateProfileParams) (int64, error) {
	result, err := q.db.ExecContext(ctx, updateProfile,
		arg.DisplayName,
		arg.Bio,
		arg.ProfileImageUrl,
		arg.ID,
	)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
