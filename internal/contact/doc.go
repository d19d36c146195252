// Package contact extracts per-recipient send policy from contact cards.
//
// A contact is stored as a cleartext vCard plus a signed vCard with a detached
// signature. Pinned keys and the X-PM-* override properties live in the signed
// card and are grouped with the EMAIL property they apply to:
//
//	ITEM1.EMAIL:bob@example.com
//	ITEM1.KEY;PREF=1:data:application/pgp-keys;base64,...
//	ITEM1.X-PM-ENCRYPT:true
//	ITEM1.X-PM-SCHEME:pgp-mime
//
// Extract resolves the group for one email and reads everything scoped to it in
// a single pass.
package contact
