package api

import "google.golang.org/protobuf/types/known/timestamppb"

// User is the public part of an account.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

func (u *User) GetID() string {
	if u == nil {
		return ""
	}
	return u.ID
}

func (u *User) GetEmail() string {
	if u == nil {
		return ""
	}
	return u.Email
}

type SignUpRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type SignUpResponse struct {
	UserID string `json:"user_id"`
}

type SignInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type SignInResponse struct {
	AccessToken string                 `json:"access_token"`
	ExpiresAt   *timestamppb.Timestamp `json:"expires_at,omitempty"`
	User        *User                  `json:"user,omitempty"`
}

func (r *SignInResponse) GetAccessToken() string {
	if r == nil {
		return ""
	}
	return r.AccessToken
}

func (r *SignInResponse) GetExpiresAt() *timestamppb.Timestamp {
	if r == nil {
		return nil
	}
	return r.ExpiresAt
}

func (r *SignInResponse) GetUser() *User {
	if r == nil {
		return nil
	}
	return r.User
}

type GetUserRequest struct{}

type GetUserResponse struct {
	User *User `json:"user,omitempty"`
}

func (r *GetUserResponse) GetUser() *User {
	if r == nil {
		return nil
	}
	return r.User
}

type SignOutRequest struct{}

type SignOutResponse struct{}

// Post mirrors a row of the posts table.
type Post struct {
	ID          string                 `json:"id"`
	Title       string                 `json:"title"`
	Description string                 `json:"description"`
	ImageURL    string                 `json:"image_url"`
	CreatedAt   *timestamppb.Timestamp `json:"created_at,omitempty"`
	UserID      string                 `json:"user_id"`
}

type InsertPostRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	ImageURL    string `json:"image_url"`
	UserID      string `json:"user_id"`
}

type InsertPostResponse struct {
	Post *Post `json:"post,omitempty"`
}

func (r *InsertPostResponse) GetPost() *Post {
	if r == nil {
		return nil
	}
	return r.Post
}

// MaxListPosts is the largest page ListPosts serves.
const MaxListPosts = 500

// ListPostsRequest orders by created_at; Limit <= 0 means the server default.
type ListPostsRequest struct {
	Ascending bool  `json:"ascending,omitempty"`
	Limit     int32 `json:"limit,omitempty"`
}

type ListPostsResponse struct {
	Posts []*Post `json:"posts"`
}

func (r *ListPostsResponse) GetPosts() []*Post {
	if r == nil {
		return nil
	}
	return r.Posts
}
