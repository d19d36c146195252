// Package sealedsend decides, for every recipient of an outgoing message,
// whether and how the message is encrypted and signed, and builds the
// encrypted packages the mail server delivers.
//
// Resolution combines three inputs per recipient: the keys the key server
// publishes for the address, the send policy pinned on the recipient's
// contact card, and the account mail settings. The result is a
// SendPreference. The package factory then groups recipients by body MIME
// type and encrypts the body once per group.
//
// Basic usage:
//
//	client, err := sealedsend.New(sealedsend.WithSession(uid, accessToken))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	cr, err := sealedsend.NewAddressCrypto(sender, armoredPrivateKey, passphrase)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	prefs, err := client.FetchSendPreferences(ctx, cr, recipients)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	packages, err := client.BuildPackages(ctx, cr, draft, prefs, nil)
//	if err != nil {
//	    log.Fatal(err)
//	}
package sealedsend
