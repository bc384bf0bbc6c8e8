// Package scoring turns reputation-weighted actions into score deltas and
// records what was applied so it can be undone exactly.
package scoring

import "fmt"

type Action uint8

const (
	UpvotePost Action = iota + 1
	DownvotePost
	SharePost
	CreateComment
	UpvoteComment
	DownvoteComment
	ShareComment
	FollowSpace
	FollowAccount
)

var actionNames = map[Action]string{
	UpvotePost:      "UpvotePost",
	DownvotePost:    "DownvotePost",
	SharePost:       "SharePost",
	CreateComment:   "CreateComment",
	UpvoteComment:   "UpvoteComment",
	DownvoteComment: "DownvoteComment",
	ShareComment:    "ShareComment",
	FollowSpace:     "FollowSpace",
	FollowAccount:   "FollowAccount",
}

func (a Action) String() string {
	if name, ok := actionNames[a]; ok {
		return name
	}
	return fmt.Sprintf("Action(%d)", uint8(a))
}

func (a Action) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

func (a *Action) UnmarshalText(text []byte) error {
	for action, name := range actionNames {
		if name == string(text) {
			*a = action
			return nil
		}
	}
	return fmt.Errorf("unknown scoring action %q", text)
}

// Opposite returns the mutually exclusive counterpart, if the action has one.
func (a Action) Opposite() (Action, bool) {
	switch a {
	case UpvotePost:
		return DownvotePost, true
	case DownvotePost:
		return UpvotePost, true
	case UpvoteComment:
		return DownvoteComment, true
	case DownvoteComment:
		return UpvoteComment, true
	}
	return 0, false
}

// Weights holds the signed per-action multiplier.
type Weights struct {
	UpvotePost      int16
	DownvotePost    int16
	SharePost       int16
	CreateComment   int16
	UpvoteComment   int16
	DownvoteComment int16
	ShareComment    int16
	FollowSpace     int16
	FollowAccount   int16
}

func DefaultWeights() Weights {
	return Weights{
		UpvotePost:      5,
		DownvotePost:    -3,
		SharePost:       5,
		CreateComment:   5,
		UpvoteComment:   4,
		DownvoteComment: -2,
		ShareComment:    3,
		FollowSpace:     7,
		FollowAccount:   3,
	}
}

func (w Weights) Weight(a Action) int16 {
	switch a {
	case UpvotePost:
		return w.UpvotePost
	case DownvotePost:
		return w.DownvotePost
	case SharePost:
		return w.SharePost
	case CreateComment:
		return w.CreateComment
	case UpvoteComment:
		return w.UpvoteComment
	case DownvoteComment:
		return w.DownvoteComment
	case ShareComment:
		return w.ShareComment
	case FollowSpace:
		return w.FollowSpace
	case FollowAccount:
		return w.FollowAccount
	}
	return 0
}
