package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/arsu-cli/arsu/constant"
	"github.com/arsu-cli/arsu/log"
	"github.com/invopop/jsonschema"
	"github.com/samber/lo"
)

// Video is a listing entry. ID is always the normalized identifier.
type Video struct {
	ID          string    `json:"id" jsonschema:"required" jsonschema_description:"Opaque video identifier, normalized from id or _id"`
	Title       string    `json:"title" jsonschema_description:"Display title"`
	Description string    `json:"description,omitempty" jsonschema_description:"Free-form description"`
	URL         string    `json:"url,omitempty" jsonschema_description:"Storage location of the HLS renditions on the server"`
	Thumbnail   string    `json:"thumbnail,omitempty" jsonschema_description:"Thumbnail address"`
	UserID      string    `json:"userId,omitempty" jsonschema_description:"Uploader"`
	CreatedAt   Timestamp `json:"createdAt" jsonschema_description:"Creation time"`
	UpdatedAt   Timestamp `json:"updatedAt" jsonschema_description:"Last update time"`
}

func (v Video) String() string {
	if v.Title == "" {
		return v.ID
	}
	return v.Title
}

// Timestamp accepts epoch milliseconds or an ISO-8601 string.
type Timestamp struct {
	time.Time
}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.000-07:00",
	"2006-01-02T15:04:05.000Z0700",
	"2006-01-02T15:04:05",
	time.DateOnly,
}

func (t *Timestamp) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || string(data) == "null" {
		t.Time = time.Time{}
		return nil
	}

	if data[0] != '"' {
		ms, err := strconv.ParseInt(string(data), 10, 64)
		if err != nil {
			return fmt.Errorf("timestamp %s: %w", data, err)
		}
		t.Time = time.UnixMilli(ms).UTC()
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if s == "" {
		t.Time = time.Time{}
		return nil
	}

	for _, layout := range timeLayouts {
		if parsed, err := time.Parse(layout, s); err == nil {
			t.Time = parsed
			return nil
		}
	}
	return fmt.Errorf("timestamp %q: unknown format", s)
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(t.Format(time.RFC3339))
}

func (Timestamp) JSONSchema() *jsonschema.Schema {
	return &jsonschema.Schema{Type: "string", Format: "date-time"}
}

// wireVideo is a listing entry as the backend may send it.
type wireVideo struct {
	ID          json.RawMessage `json:"id"`
	MongoID     json.RawMessage `json:"_id"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	URL         string          `json:"url"`
	Thumbnail   string          `json:"thumbnail"`
	UserID      string          `json:"userId"`
	CreatedAt   Timestamp       `json:"createdAt"`
	UpdatedAt   Timestamp       `json:"updatedAt"`
}

func (w wireVideo) video() Video {
	id := normalizeID(w.ID)
	if id == "" {
		id = normalizeID(w.MongoID)
	}
	return Video{
		ID:          id,
		Title:       w.Title,
		Description: w.Description,
		URL:         w.URL,
		Thumbnail:   w.Thumbnail,
		UserID:      w.UserID,
		CreatedAt:   w.CreatedAt,
		UpdatedAt:   w.UpdatedAt,
	}
}

// normalizeID reads a string, a number or a {"$oid": "..."} object.
func normalizeID(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}

	var s string
	if json.Unmarshal(raw, &s) == nil {
		return strings.TrimSpace(s)
	}

	var oid struct {
		OID string `json:"$oid"`
	}
	if json.Unmarshal(raw, &oid) == nil && oid.OID != "" {
		return oid.OID
	}

	var n json.Number
	if json.Unmarshal(raw, &n) == nil {
		return n.String()
	}
	return ""
}

var errListingShape = errors.New("unrecognized listing")

// decodeVideos accepts a JSON array, a HAL document with _embedded.videos or
// a single object. Entries without an identifier are dropped.
func decodeVideos(data []byte) ([]Video, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return []Video{}, nil
	}

	var wire []wireVideo
	switch data[0] {
	case '[':
		if err := json.Unmarshal(data, &wire); err != nil {
			return nil, fmt.Errorf("%w: %v", errListingShape, err)
		}
	case '{':
		var hal struct {
			Embedded *struct {
				Videos []wireVideo `json:"videos"`
			} `json:"_embedded"`
		}
		if err := json.Unmarshal(data, &hal); err != nil {
			return nil, fmt.Errorf("%w: %v", errListingShape, err)
		}
		if hal.Embedded != nil {
			wire = hal.Embedded.Videos
			break
		}

		var single wireVideo
		if err := json.Unmarshal(data, &single); err != nil {
			return nil, fmt.Errorf("%w: %v", errListingShape, err)
		}
		wire = []wireVideo{single}
	default:
		return nil, errListingShape
	}

	videos := lo.FilterMap(wire, func(w wireVideo, i int) (Video, bool) {
		v := w.video()
		if v.ID == "" {
			log.WithFields(log.Fields{"index": i, "title": v.Title}).Warn("dropping video without id")
			return v, false
		}
		return v, true
	})
	return videos, nil
}

// Videos lists every video.
func (c *Client) Videos(ctx context.Context) ([]Video, error) {
	data, err := c.getJSON(ctx, constant.RouteVideos)
	if err != nil {
		return nil, err
	}
	return decodeVideos(data)
}

// VideosByUser lists the videos uploaded by userID.
func (c *Client) VideosByUser(ctx context.Context, userID string) ([]Video, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, errors.New("empty user id")
	}
	data, err := c.getJSON(ctx, constant.RouteUserVideos+"/"+url.PathEscape(userID))
	if err != nil {
		return nil, err
	}
	return decodeVideos(data)
}
