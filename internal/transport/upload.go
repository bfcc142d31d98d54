package transport

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// sendFile streams a local file to the Bot API without buffering it in
// memory. The multipart body is produced by a writer goroutine feeding a
// pipe that the HTTP request reads from.
func (b *BotAPI) sendFile(ctx context.Context, method, field string, upload Upload) (Message, error) {
	if upload.ChatID == 0 {
		return Message{}, fmt.Errorf("upload has no chat ID")
	}
	file, err := os.Open(upload.Path)
	if err != nil {
		return Message{}, fmt.Errorf("open upload: %w", err)
	}
	defer file.Close()

	name := strings.TrimSpace(upload.FileName)
	if name == "" {
		name = filepath.Base(upload.Path)
	}

	pr, pw := io.Pipe()
	form := multipart.NewWriter(pw)
	go func() {
		if err := writeUploadForm(form, field, name, file, upload); err != nil {
			pw.CloseWithError(err)
			return
		}
		pw.CloseWithError(form.Close())
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.endpoint(method), pr)
	if err != nil {
		return Message{}, fmt.Errorf("build %s request: %w", method, err)
	}
	req.Header.Set("Content-Type", form.FormDataContentType())
	req.Header.Set("User-Agent", userAgent)

	resp, err := b.uploads.Do(req)
	if err != nil {
		return Message{}, fmt.Errorf("upload via %s: %w", method, err)
	}
	defer resp.Body.Close()

	var sent Message
	if err := decodeResponse(method, resp, &sent); err != nil {
		return Message{}, err
	}
	return sent, nil
}

func writeUploadForm(form *multipart.Writer, field, fileName string, file io.Reader, upload Upload) error {
	if err := form.WriteField("chat_id", strconv.FormatInt(upload.ChatID, 10)); err != nil {
		return fmt.Errorf("write chat_id field: %w", err)
	}
	if upload.Caption != "" {
		if err := form.WriteField("caption", upload.Caption); err != nil {
			return fmt.Errorf("write caption field: %w", err)
		}
	}
	if upload.ReplyTo > 0 {
		if err := form.WriteField("reply_to_message_id", strconv.Itoa(upload.ReplyTo)); err != nil {
			return fmt.Errorf("write reply field: %w", err)
		}
	}
	for name, value := range map[string]int{
		"width":    upload.Width,
		"height":   upload.Height,
		"duration": upload.Duration,
	} {
		if value <= 0 {
			continue
		}
		if err := form.WriteField(name, strconv.Itoa(value)); err != nil {
			return fmt.Errorf("write %s field: %w", name, err)
		}
	}
	if upload.SupportsStreaming {
		if err := form.WriteField("supports_streaming", "true"); err != nil {
			return fmt.Errorf("write streaming field: %w", err)
		}
	}
	part, err := form.CreateFormFile(field, fileName)
	if err != nil {
		return fmt.Errorf("create %s part: %w", field, err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return fmt.Errorf("stream upload data: %w", err)
	}
	return nil
}
