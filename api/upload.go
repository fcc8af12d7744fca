package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"
	"sync/atomic"

	"github.com/arsu-cli/arsu/constant"
	"github.com/arsu-cli/arsu/filesystem"
)

// Upload describes a video to publish.
type Upload struct {
	Title       string
	Description string
	Path        string
	// Progress, when set, is called with the bytes sent so far.
	Progress func(sent, total int64)
}

// Upload sends the file as multipart form data. The file is streamed, never
// held in memory, and the call is not bound by the client timeout.
func (c *Client) Upload(ctx context.Context, u Upload) (*Video, error) {
	if strings.TrimSpace(u.Title) == "" {
		return nil, errors.New("upload: title is required")
	}

	f, err := filesystem.API().Open(u.Path)
	if err != nil {
		return nil, fmt.Errorf("upload: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("upload: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("upload: %s is a directory", u.Path)
	}

	pr, pw := io.Pipe()
	form := multipart.NewWriter(pw)

	go func() {
		err := writeForm(form, u, &progressReader{r: f, total: info.Size(), fn: u.Progress})
		if err == nil {
			err = form.Close()
		}
		pw.CloseWithError(err)
	}()

	req, err := c.newRequest(ctx, http.MethodPost, constant.RouteUpload, pr)
	if err != nil {
		pr.Close()
		return nil, err
	}
	req.Header.Set("Content-Type", form.FormDataContentType())

	data, err := c.send(req)
	if err != nil {
		pr.Close()
		return nil, err
	}

	videos, err := decodeVideos(data)
	if err != nil {
		return nil, err
	}
	if len(videos) == 0 {
		return nil, errors.New("upload: server returned no video")
	}
	return &videos[0], nil
}

func writeForm(form *multipart.Writer, u Upload, file io.Reader) error {
	if err := form.WriteField("title", u.Title); err != nil {
		return err
	}
	if err := form.WriteField("description", u.Description); err != nil {
		return err
	}

	part, err := form.CreateFormFile("file", filepath.Base(u.Path))
	if err != nil {
		return err
	}
	_, err = io.Copy(part, file)
	return err
}

type progressReader struct {
	r     io.Reader
	total int64
	sent  atomic.Int64
	fn    func(sent, total int64)
}

func (p *progressReader) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)
	if n > 0 && p.fn != nil {
		p.fn(p.sent.Add(int64(n)), p.total)
	}
	return n, err
}
