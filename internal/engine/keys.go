package engine

import (
	"gator-social/internal/models"
	"gator-social/internal/storage"

	"github.com/google/uuid"
)

var (
	heightKey = storage.NewKey("System", "Height")

	nextSpaceIDKey    = storage.NewKey("Spaces", "NextSpaceId")
	nextPostIDKey     = storage.NewKey("Posts", "NextPostId")
	nextCommentIDKey  = storage.NewKey("Comments", "NextCommentId")
	nextReactionIDKey = storage.NewKey("Reactions", "NextReactionId")

	spaceByIDKey       = storage.NewKey("Spaces", "SpaceById")
	spaceIDByHandleKey = storage.NewKey("Spaces", "SpaceIdByHandle")
	spaceIDsByOwnerKey = storage.NewKey("Spaces", "SpaceIdsByOwner")
	spaceFollowersKey  = storage.NewKey("Spaces", "SpaceFollowers")
	spacesFollowedKey  = storage.NewKey("Spaces", "SpacesFollowedBy")

	postByIDKey             = storage.NewKey("Posts", "PostById")
	postIDsBySpaceKey       = storage.NewKey("Posts", "PostIdsBySpaceId")
	sharedPostsByPostKey    = storage.NewKey("Posts", "SharedPostIdsByOriginalPostId")
	postSharesByActorKey    = storage.NewKey("Posts", "PostSharesByAccount")
	commentByIDKey          = storage.NewKey("Comments", "CommentById")
	commentIDsByPostKey     = storage.NewKey("Comments", "CommentIdsByPostId")
	replyIDsByCommentKey    = storage.NewKey("Comments", "ReplyIdsByCommentId")
	sharedPostsByCommentKey = storage.NewKey("Comments", "SharedPostIdsByOriginalCommentId")
	commentSharesByActorKey = storage.NewKey("Comments", "CommentSharesByAccount")

	reactionByIDKey           = storage.NewKey("Reactions", "ReactionById")
	reactionIDsByPostKey      = storage.NewKey("Reactions", "ReactionIdsByPostId")
	postReactionByActorKey    = storage.NewKey("Reactions", "PostReactionIdByAccount")
	reactionIDsByCommentKey   = storage.NewKey("Reactions", "ReactionIdsByCommentId")
	commentReactionByActorKey = storage.NewKey("Reactions", "CommentReactionIdByAccount")

	socialAccountKey     = storage.NewKey("Accounts", "SocialAccountById")
	accountFollowersKey  = storage.NewKey("Accounts", "AccountFollowers")
	accountsFollowedKey  = storage.NewKey("Accounts", "AccountsFollowedByAccount")
	accountByUsernameKey = storage.NewKey("Accounts", "AccountByProfileUsername")
)

func withActor(k storage.Key, a models.Actor) storage.Key {
	return k.Account(a.Account).U64(uint64(a.Space))
}

func withFollower(k storage.Key, f models.Follower) storage.Key {
	if f.IsSpace() {
		return k.Byte('s').U64(uint64(f.Space))
	}
	return k.Byte('a').Account(f.Account)
}

func spaceFollowerKey(space models.SpaceID, f models.Follower) storage.Key {
	return withFollower(spaceFollowersKey.U64(uint64(space)), f)
}

func spaceFollowedKey(f models.Follower, space models.SpaceID) storage.Key {
	return withFollower(spacesFollowedKey, f).U64(uint64(space))
}

func accountFollowerKey(account, follower uuid.UUID) storage.Key {
	return accountFollowersKey.Account(account).Account(follower)
}

func accountFollowedKey(follower, account uuid.UUID) storage.Key {
	return accountsFollowedKey.Account(follower).Account(account)
}

func handleKey(handle string) storage.Key {
	return spaceIDByHandleKey.Hashed([]byte(handle))
}

func usernameKey(username string) storage.Key {
	return accountByUsernameKey.Hashed([]byte(username))
}
