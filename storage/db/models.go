package db

import (
	"database/sql"
)

type User struct {
	ID              string
	Email           string
	PasswordHash    string
	RawUserMetaData string
	CreatedAt       string
}

type Profile struct {
	ID              string
	Username        string
	DisplayName     sql.NullString
	Bio             sql.NullString
	ProfileImageUrl sql.NullString
}

type Post struct {
	ID          string
	UserID      string
	Caption     sql.NullString
	ImageUrl    sql.NullString
	CreatedAt   string
	StressLevel sql.NullFloat64
}
