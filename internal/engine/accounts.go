package engine

import (
	"context"

	"gator-social/internal/events"
	"gator-social/internal/models"
	"gator-social/internal/scoring"
	"gator-social/internal/storage"
	"gator-social/internal/utils"

	"github.com/google/uuid"
)

// FollowAccount is always performed by the signing account, never on behalf of a space.
func (e *Engine) FollowAccount(ctx context.Context, actor models.Actor, account uuid.UUID) error {
	return e.exec(ctx, "follow_account", actor, func(o *op) error {
		o.actAsAccount()
		follower := o.actor.Account
		if follower == account {
			return utils.NewValidationError("account cannot follow itself")
		}
		followed, err := o.tx.Has(accountFollowedKey(follower, account))
		if err != nil {
			return err
		}
		if followed {
			return utils.NewConflictError("account %s is already followed", account)
		}

		followerAccount, err := o.account(follower)
		if err != nil {
			return err
		}
		followedAccount, err := o.account(account)
		if err != nil {
			return err
		}
		following, err := utils.Inc(followerAccount.FollowingAccts, "followed accounts")
		if err != nil {
			return err
		}
		followers, err := utils.Inc(followedAccount.Followers, "account followers")
		if err != nil {
			return err
		}
		followerAccount.FollowingAccts = following
		followedAccount.Followers = followers
		o.accounts.put(follower, followerAccount)
		o.accounts.put(account, followedAccount)

		if err := o.mark(accountFollowedKey(follower, account)); err != nil {
			return err
		}
		if err := o.mark(accountFollowerKey(account, follower)); err != nil {
			return err
		}
		if err := o.applyScore(o.accountScore(account), scoring.FollowAccount); err != nil {
			return err
		}
		o.emit(events.Event{Type: events.AccountFollowed, Account: account})
		return nil
	})
}

func (e *Engine) UnfollowAccount(ctx context.Context, actor models.Actor, account uuid.UUID) error {
	return e.exec(ctx, "unfollow_account", actor, func(o *op) error {
		o.actAsAccount()
		follower := o.actor.Account
		if follower == account {
			return utils.NewValidationError("account cannot unfollow itself")
		}
		followerAccount, err := o.existingAccount(follower)
		if err != nil {
			return err
		}
		followedAccount, err := o.existingAccount(account)
		if err != nil {
			return err
		}
		followed, err := o.tx.Has(accountFollowedKey(follower, account))
		if err != nil {
			return err
		}
		if !followed {
			return utils.NewConflictError("account %s is not followed", account)
		}

		following, err := utils.Dec(followerAccount.FollowingAccts, "followed accounts")
		if err != nil {
			return err
		}
		followers, err := utils.Dec(followedAccount.Followers, "account followers")
		if err != nil {
			return err
		}
		followerAccount.FollowingAccts = following
		followedAccount.Followers = followers
		o.accounts.put(follower, followerAccount)
		o.accounts.put(account, followedAccount)

		if err := o.revertScore(o.accountScore(account), scoring.FollowAccount); err != nil {
			return err
		}
		o.tx.Delete(accountFollowedKey(follower, account))
		o.tx.Delete(accountFollowerKey(account, follower))
		o.emit(events.Event{Type: events.AccountUnfollowed, Account: account})
		return nil
	})
}

func (e *Engine) CreateProfile(ctx context.Context, actor models.Actor, username, contentHash string) error {
	return e.exec(ctx, "create_profile", actor, func(o *op) error {
		o.actAsAccount()
		account, err := o.account(o.actor.Account)
		if err != nil {
			return err
		}
		if account.Profile != nil {
			return utils.NewConflictError("profile for this account already exists")
		}
		if err := o.checkUsername(username); err != nil {
			return err
		}
		if err := e.params.validateContentHash(contentHash); err != nil {
			return err
		}

		account.Profile = &models.Profile{
			Created:     o.change,
			Username:    username,
			ContentHash: contentHash,
		}
		o.accounts.put(o.actor.Account, account)
		if err := storage.Store(o.tx, usernameKey(username), o.actor.Account); err != nil {
			return err
		}
		o.emit(events.Event{Type: events.ProfileCreated, Account: o.actor.Account})
		return nil
	})
}

func (e *Engine) UpdateProfile(ctx context.Context, actor models.Actor, upd models.ProfileUpdate) error {
	return e.exec(ctx, "update_profile", actor, func(o *op) error {
		o.actAsAccount()
		account, err := o.existingAccount(o.actor.Account)
		if err != nil {
			return err
		}
		profile := account.Profile
		if profile == nil {
			return utils.NewNotFoundError("account has no profile yet")
		}

		var old models.ProfileUpdate
		if upd.Username != nil && *upd.Username != profile.Username {
			if err := o.checkUsername(*upd.Username); err != nil {
				return err
			}
			prev := profile.Username
			old.Username = &prev
		}
		if upd.ContentHash != nil && *upd.ContentHash != profile.ContentHash {
			if err := e.params.validateContentHash(*upd.ContentHash); err != nil {
				return err
			}
			prev := profile.ContentHash
			old.ContentHash = &prev
		}
		if old.Username == nil && old.ContentHash == nil {
			return utils.NewValidationError("nothing to update in profile")
		}

		if old.Username != nil {
			o.tx.Delete(usernameKey(profile.Username))
			if err := storage.Store(o.tx, usernameKey(*upd.Username), o.actor.Account); err != nil {
				return err
			}
			profile.Username = *upd.Username
		}
		if old.ContentHash != nil {
			profile.ContentHash = *upd.ContentHash
		}
		profile.EditHistory = append(profile.EditHistory, models.HistoryRecord[models.ProfileUpdate]{Edited: o.change, OldData: old})
		profile.Updated = o.stamp()
		o.accounts.put(o.actor.Account, account)

		o.emit(events.Event{Type: events.ProfileUpdated, Account: o.actor.Account})
		return nil
	})
}
