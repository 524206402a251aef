package resolver

import (
	"context"
	"regexp"
	"strings"

	"github.com/a0983528510-lang/newmood/apperr"
)

// Apple Music links carry the track id in ?i=<digits> and the album id in
// /id<digits>; the track id takes precedence.
var appleIDPatterns = []*regexp.Regexp{
	regexp.MustCompile(`[?&]i=(\d+)`),
	regexp.MustCompile(`/id(\d+)`),
}

// ExtractAppleID pulls a numeric catalog id out of an Apple Music link.
func ExtractAppleID(link string) (string, bool) {
	for _, pat := range appleIDPatterns {
		if m := pat.FindStringSubmatch(link); m != nil {
			return m[1], true
		}
	}
	return "", false
}

type itunesLookupResponse struct {
	ResultCount int `json:"resultCount"`
	Results     []struct {
		TrackName      string `json:"trackName"`
		CollectionName string `json:"collectionName"`
		ArtistName     string `json:"artistName"`
		ArtworkURL100  string `json:"artworkUrl100"`
	} `json:"results"`
}

func (s *Service) resolveApple(ctx context.Context, link string) (Meta, error) {
	id, found := ExtractAppleID(link)
	if !found {
		return Meta{}, apperr.WithMessage(apperr.ErrIdentifierNotFound, "apple music id not found in link")
	}

	var lookup itunesLookupResponse
	ok, err := s.getJSON(ctx, s.ITunesLookup+"?id="+id, &lookup)
	if err != nil {
		return Meta{}, apperr.Wrap(err, apperr.ErrUpstream, "itunes lookup failed")
	}
	if !ok || lookup.ResultCount == 0 {
		// Unknown id: success with empty metadata, not an error.
		return Meta{}, nil
	}

	item := lookup.Results[0]
	var meta Meta
	meta.Title = item.TrackName
	if meta.Title == "" {
		meta.Title = item.CollectionName
	}
	meta.Artist = item.ArtistName
	if item.ArtworkURL100 != "" {
		// Ask the CDN for a bigger rendition of the 100x100 artwork.
		meta.Thumbnail = strings.Replace(item.ArtworkURL100, "100x100", "600x600", 1)
	}
	return meta, nil
}
