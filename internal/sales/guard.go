package sales

import "eventsales/internal/model"

// CanMutate reports whether the actor may change or delete a
// registration owned by ownerMemberID. Admins may touch anything; a
// member only their own. Anything else, including an empty actor id,
// denies.
func CanMutate(actor model.Identity, ownerMemberID string) bool {
	if actor.IsAdmin() {
		return true
	}
	return actor.ID != "" && actor.ID == ownerMemberID
}
