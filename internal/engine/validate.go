package engine

import (
	"gator-social/internal/utils"

	"github.com/ipfs/go-cid"
)

func isHandleChar(c byte) bool {
	return c >= '0' && c <= '9' || c >= 'a' && c <= 'z' || c == '_'
}

func isAlphanumeric(c byte) bool {
	return c >= '0' && c <= '9' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z'
}

func (p Params) validateHandle(handle string) error {
	if len(handle) < p.HandleMinLen {
		return utils.NewValidationError("space handle is too short")
	}
	if len(handle) > p.HandleMaxLen {
		return utils.NewValidationError("space handle is too long")
	}
	for i := 0; i < len(handle); i++ {
		if !isHandleChar(handle[i]) {
			return utils.NewValidationError("space handle may contain only lowercase letters, digits and underscores")
		}
	}
	return nil
}

func (p Params) validateContentHash(hash string) error {
	if len(hash) != p.ContentHashLen {
		return utils.NewValidationError("content hash must be %d bytes long", p.ContentHashLen)
	}
	if p.StrictCID {
		if _, err := cid.Decode(hash); err != nil {
			return utils.NewAppError(utils.ErrValidation, "content hash is not a valid CID", err)
		}
	}
	return nil
}

func (p Params) validateUsername(username string) error {
	if len(username) < p.UsernameMinLen {
		return utils.NewValidationError("username is too short")
	}
	if len(username) > p.UsernameMaxLen {
		return utils.NewValidationError("username is too long")
	}
	for i := 0; i < len(username); i++ {
		if !isAlphanumeric(username[i]) {
			return utils.NewValidationError("username is not alphanumeric")
		}
	}
	return nil
}

// checkHandle validates a handle and makes sure no space holds it.
func (o *op) checkHandle(handle string) error {
	if err := o.e.params.validateHandle(handle); err != nil {
		return err
	}
	taken, err := o.tx.Has(handleKey(handle))
	if err != nil {
		return err
	}
	if taken {
		return utils.NewValidationError("space handle %q is not unique", handle)
	}
	return nil
}

func (o *op) checkUsername(username string) error {
	if err := o.e.params.validateUsername(username); err != nil {
		return err
	}
	taken, err := o.tx.Has(usernameKey(username))
	if err != nil {
		return err
	}
	if taken {
		return utils.NewValidationError("username %q is busy", username)
	}
	return nil
}
