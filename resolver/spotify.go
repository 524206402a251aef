package resolver

import (
	"context"
	"net/url"
	"strings"

	"github.com/a0983528510-lang/newmood/apperr"
)

type spotifyOEmbedResponse struct {
	Title        string `json:"title"`
	AuthorName   string `json:"author_name"`
	ThumbnailURL string `json:"thumbnail_url"`
}

// SplitSpotifyTitle splits Spotify's "<Song> · <Artist>" oEmbed title once
// on the middle dot. When no middle dot is present the whole string is the
// title and the artist is empty.
func SplitSpotifyTitle(title string) (song, artist string) {
	title = strings.TrimSpace(title)
	if song, artist, found := strings.Cut(title, "·"); found {
		return strings.TrimSpace(song), strings.TrimSpace(artist)
	}
	return title, ""
}

func (s *Service) resolveSpotify(ctx context.Context, link string) (Meta, error) {
	var oembed spotifyOEmbedResponse
	ok, err := s.getJSON(ctx, s.SpotifyOEmbed+"?url="+url.QueryEscape(link), &oembed)
	if err != nil {
		return Meta{}, apperr.Wrap(err, apperr.ErrUpstream, "spotify metadata lookup failed")
	}
	if !ok {
		// Endpoint refused the link; resolution still succeeds, empty.
		return Meta{}, nil
	}

	var meta Meta
	song, artist := SplitSpotifyTitle(oembed.Title)
	meta.Title = song
	// The explicit author_name wins over the split-off right-hand part.
	if oembed.AuthorName != "" {
		meta.Artist = oembed.AuthorName
	} else {
		meta.Artist = artist
	}
	// Spotify thumbnails come back square already, used as-is.
	meta.Thumbnail = oembed.ThumbnailURL
	return meta, nil
}
