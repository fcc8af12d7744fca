package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/url"
	"strings"

	"github.com/arsu-cli/arsu/auth"
	"github.com/arsu-cli/arsu/constant"
	"github.com/samber/lo"
)

type Comment struct {
	ID        string    `json:"id"`
	VideoID   string    `json:"videoId"`
	UserID    string    `json:"userId"`
	Content   string    `json:"content"`
	CreatedAt Timestamp `json:"createdAt"`
}

type wireComment struct {
	ID        json.RawMessage `json:"id"`
	MongoID   json.RawMessage `json:"_id"`
	VideoID   string          `json:"videoId"`
	UserID    string          `json:"userId"`
	Content   string          `json:"content"`
	Text      string          `json:"text"`
	CreatedAt Timestamp       `json:"createdAt"`
}

func (w wireComment) comment() Comment {
	id := normalizeID(w.ID)
	if id == "" {
		id = normalizeID(w.MongoID)
	}
	content := w.Content
	if content == "" {
		content = w.Text
	}
	return Comment{ID: id, VideoID: w.VideoID, UserID: w.UserID, Content: content, CreatedAt: w.CreatedAt}
}

// Comments lists the comments on a video, oldest first as the server sends them.
func (c *Client) Comments(ctx context.Context, videoID string) ([]Comment, error) {
	if strings.TrimSpace(videoID) == "" {
		return nil, errors.New("empty video id")
	}

	data, err := c.getJSON(ctx, constant.RouteComments+"/"+url.PathEscape(videoID))
	if err != nil {
		return nil, err
	}

	var wire []wireComment
	if err := json.Unmarshal(data, &wire); err != nil {
		return nil, err
	}
	return lo.Map(wire, func(w wireComment, _ int) Comment { return w.comment() }), nil
}

// AddComment posts content on a video as the session user.
func (c *Client) AddComment(ctx context.Context, videoID, content string) (*Comment, error) {
	if !c.Session.Valid() {
		return nil, auth.ErrNoSession
	}
	if strings.TrimSpace(content) == "" {
		return nil, errors.New("empty comment")
	}

	in := Comment{VideoID: videoID, UserID: c.Session.UserID, Content: content}
	var w wireComment
	if err := c.postJSON(ctx, constant.RouteAddComment, in, &w); err != nil {
		return nil, err
	}

	out := w.comment()
	return &out, nil
}
