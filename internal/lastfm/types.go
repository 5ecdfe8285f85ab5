package lastfm

import "fmt"

// Tag is a user-applied Last.fm tag. Count is its weight for the artist,
// 100 for the strongest tag.
type Tag struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// envelope covers both shapes artist.getTopTags answers with: a tag list, or
// an error code with a message.
type envelope struct {
	TopTags *struct {
		Tags []Tag `json:"tag"`
	} `json:"toptags,omitempty"`

	Code    int    `json:"error,omitempty"`
	Message string `json:"message,omitempty"`
}

// remoteError is an error reported in a response body. Well-known codes
// match the package sentinels through errors.Is.
type remoteError struct {
	Code    int
	Message string
}

func (e *remoteError) Error() string {
	return fmt.Sprintf("last.fm error %d: %s", e.Code, e.Message)
}

func (e *remoteError) Is(target error) bool {
	switch e.Code {
	case codeInvalidAPIKey, codeSuspendedAPIKey:
		return target == ErrInvalidAPIKey
	case codeRateLimited:
		return target == ErrRateLimited
	}
	return false
}
