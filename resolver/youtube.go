package resolver

import (
	"context"
	"net/url"
	"regexp"

	"github.com/a0983528510-lang/newmood/apperr"
)

// YouTube video ids are exactly 11 characters. Patterns are tried in order;
// first match wins.
var youtubeIDPatterns = []*regexp.Regexp{
	regexp.MustCompile(`youtu\.be/([A-Za-z0-9_-]{11})`),
	regexp.MustCompile(`[?&]v=([A-Za-z0-9_-]{11})`),
	regexp.MustCompile(`/shorts/([A-Za-z0-9_-]{11})`),
}

// ExtractYouTubeID pulls the 11-character video id out of a YouTube or
// YouTube Music link.
func ExtractYouTubeID(link string) (string, bool) {
	for _, pat := range youtubeIDPatterns {
		if m := pat.FindStringSubmatch(link); m != nil {
			return m[1], true
		}
	}
	return "", false
}

// YouTubeThumbnail derives the hqdefault thumbnail for a video id. The URL
// shape is deterministic, no network call needed.
func YouTubeThumbnail(videoID string) string {
	return "https://img.youtube.com/vi/" + videoID + "/hqdefault.jpg"
}

// ThumbnailForLink derives a thumbnail from a stored link for YouTube-family
// links, and returns an empty string for everything else. Used at draw-read
// time, where only the link string was persisted.
func ThumbnailForLink(link string) string {
	if id, ok := ExtractYouTubeID(link); ok {
		return YouTubeThumbnail(id)
	}
	return ""
}

type youtubeOEmbedResponse struct {
	Title      string `json:"title"`
	AuthorName string `json:"author_name"`
}

func (s *Service) resolveYouTube(ctx context.Context, link string) (Meta, error) {
	var meta Meta
	if id, found := ExtractYouTubeID(link); found {
		meta.Thumbnail = YouTubeThumbnail(id)
	}

	var oembed youtubeOEmbedResponse
	ok, err := s.getJSON(ctx, s.YouTubeOEmbed+"?format=json&url="+url.QueryEscape(link), &oembed)
	if err != nil {
		// Non-fatal when the thumbnail alone made the resolution useful.
		if meta.Thumbnail != "" {
			return meta, nil
		}
		return Meta{}, apperr.Wrap(err, apperr.ErrUpstream, "youtube metadata lookup failed")
	}
	if ok {
		meta.Title = oembed.Title
		meta.Artist = oembed.AuthorName
	}
	return meta, nil
}
