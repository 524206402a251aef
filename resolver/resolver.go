// Package resolver turns a pasted music link into best-effort metadata
// (title, artist, thumbnail). Three source families are supported: YouTube /
// YouTube Music, Spotify, and Apple Music. Metadata comes from each
// platform's public endpoint; id extraction is pure string work and never
// touches the network.
package resolver

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/a0983528510-lang/newmood/apperr"
	"github.com/goccy/go-json"
	"github.com/sirupsen/logrus"
)

const (
	youtubeOEmbedURL = "https://www.youtube.com/oembed"
	spotifyOEmbedURL = "https://open.spotify.com/oembed"
	itunesLookupURL  = "https://itunes.apple.com/lookup"

	upstreamTimeout = 6 * time.Second
)

// Meta is the resolver output. All fields are best-effort: an empty string
// means the platform did not hand the value back.
type Meta struct {
	Title     string `json:"title"`
	Artist    string `json:"artist"`
	Thumbnail string `json:"thumbnail"`
}

// Service resolves links against the public metadata endpoints. Endpoint
// URLs are fields so tests can point them at local fakes.
type Service struct {
	Client        *http.Client
	Logger        *logrus.Logger
	YouTubeOEmbed string
	SpotifyOEmbed string
	ITunesLookup  string
}

func NewService(logger *logrus.Logger) *Service {
	return &Service{
		Client:        &http.Client{Timeout: upstreamTimeout},
		Logger:        logger,
		YouTubeOEmbed: youtubeOEmbedURL,
		SpotifyOEmbed: spotifyOEmbedURL,
		ITunesLookup:  itunesLookupURL,
	}
}

// Resolve classifies the link and fetches its metadata. A metadata call
// failure is non-fatal where a thumbnail could still be derived; an
// unrecognized source or a missing Apple identifier is fatal.
func (s *Service) Resolve(ctx context.Context, link string) (Meta, error) {
	switch {
	case strings.Contains(link, "youtube.com") || strings.Contains(link, "youtu.be"):
		return s.resolveYouTube(ctx, link)
	case strings.Contains(link, "open.spotify.com"):
		return s.resolveSpotify(ctx, link)
	case strings.Contains(link, "music.apple.com"):
		return s.resolveApple(ctx, link)
	default:
		return Meta{}, apperr.ErrUnsupportedSource
	}
}

// getJSON performs one bounded GET and decodes the body into out. A non-200
// status is reported separately from transport errors: callers treat the
// former as "platform said no" and the latter as upstream unavailability.
func (s *Service) getJSON(ctx context.Context, url string, out interface{}) (ok bool, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return false, err
	}
	resp, err := s.Client.Do(req)
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return false, err
	}
	if resp.StatusCode != http.StatusOK {
		if s.Logger != nil {
			s.Logger.WithFields(logrus.Fields{"url": url, "status": resp.StatusCode}).Debug("metadata endpoint refused")
		}
		return false, nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return false, fmt.Errorf("decode metadata response: %w", err)
	}
	return true, nil
}
