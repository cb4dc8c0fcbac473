package services

import (
	"context"
	"fmt"
	"time"

	yt "github.com/kkdai/youtube/v2"
)

// YouTubeDurationLookup resolves the length of externally hosted videos.
type YouTubeDurationLookup struct {
	client  *yt.Client
	timeout time.Duration
}

func NewYouTubeDurationLookup() *YouTubeDurationLookup {
	return &YouTubeDurationLookup{
		client:  &yt.Client{},
		timeout: 15 * time.Second,
	}
}

func (s *YouTubeDurationLookup) Duration(ctx context.Context, videoURL string) (time.Duration, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	video, err := s.client.GetVideoContext(ctx, videoURL)
	if err != nil {
		return 0, fmt.Errorf("failed to fetch YouTube video metadata: %w", err)
	}
	if video.Duration <= 0 {
		return 0, fmt.Errorf("YouTube video %s reports no duration", video.ID)
	}
	return video.Duration, nil
}
