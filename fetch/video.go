// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package fetch

import (
	"context"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"net/url"
	"strings"

	"github.com/poiesic/parlance/core"
)

const (
	timedTextURL = "https://video.google.com/timedtext?lang=en&v="
	oembedURL    = "https://www.youtube.com/oembed?format=json&url="
)

// fetchVideo retrieves the English transcript of a YouTube video as one
// page of text, with the video title from the oembed endpoint.
func (f *Fetcher) fetchVideo(ctx context.Context, reference string) (*Result, error) {
	videoID, err := youtubeVideoID(reference)
	if err != nil {
		return nil, err
	}

	var transcript string
	err = withRetry(ctx, f.logger, f.attempts, f.retryWait, func() error {
		var opErr error
		transcript, opErr = f.fetchTranscript(ctx, videoID)
		return opErr
	})
	if err != nil {
		return nil, err
	}

	title := f.fetchVideoTitle(ctx, reference)

	f.logger.Info("video transcript fetched", "reference", reference, "video_id", videoID)
	return &Result{
		Kind:      core.SourceKindVideo,
		Reference: reference,
		Pages: []Page{{
			Source:  reference,
			Title:   title,
			Content: transcript,
		}},
	}, nil
}

type timedText struct {
	Texts []struct {
		Value string `xml:",chardata"`
	} `xml:"text"`
}

func (f *Fetcher) fetchTranscript(ctx context.Context, videoID string) (string, error) {
	body, err := f.get(ctx, timedTextURL+url.QueryEscape(videoID))
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(body) == "" {
		return "", permanentErr(videoID, ErrNoTranscript)
	}

	var tt timedText
	if err := xml.Unmarshal([]byte(body), &tt); err != nil {
		return "", permanentErr(videoID, fmt.Errorf("parsing transcript: %w", err))
	}

	var text strings.Builder
	for _, t := range tt.Texts {
		line := strings.TrimSpace(t.Value)
		if line == "" {
			continue
		}
		if text.Len() > 0 {
			text.WriteString(" ")
		}
		text.WriteString(line)
	}
	if text.Len() == 0 {
		return "", permanentErr(videoID, ErrNoTranscript)
	}
	return text.String(), nil
}

// fetchVideoTitle asks the oembed endpoint for the video title. Title
// lookup is best-effort; the transcript stands on its own.
func (f *Fetcher) fetchVideoTitle(ctx context.Context, reference string) string {
	body, err := f.get(ctx, oembedURL+url.QueryEscape(reference))
	if err != nil {
		f.logger.Debug("video title lookup failed", "reference", reference, "error", err)
		return ""
	}

	var meta struct {
		Title string `json:"title"`
	}
	if err := json.Unmarshal([]byte(body), &meta); err != nil {
		return ""
	}
	return meta.Title
}

// youtubeVideoID extracts the video ID from watch, share, shorts, and embed
// URL forms.
func youtubeVideoID(reference string) (string, error) {
	u, err := url.Parse(reference)
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedReference, reference)
	}

	host := strings.TrimPrefix(u.Hostname(), "www.")
	switch host {
	case "youtu.be":
		if id := strings.Trim(u.Path, "/"); id != "" {
			return id, nil
		}
	case "youtube.com", "m.youtube.com":
		if id := u.Query().Get("v"); id != "" {
			return id, nil
		}
		for _, prefix := range []string{"/shorts/", "/embed/", "/live/"} {
			if strings.HasPrefix(u.Path, prefix) {
				if id := strings.Trim(strings.TrimPrefix(u.Path, prefix), "/"); id != "" {
					return id, nil
				}
			}
		}
	}
	return "", fmt.Errorf("%w: not a recognized video URL: %s", ErrUnsupportedReference, reference)
}
