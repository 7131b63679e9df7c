// Package signal sends Signal messages through signal-cli.
//
// The client wraps the signal-cli command-line tool, which must be installed
// and registered for the sending number:
//
//  1. Install signal-cli: https://github.com/AsamK/signal-cli
//  2. Register your Signal account:
//     signal-cli -u YOUR_PHONE_NUMBER register
//  3. Verify your account with the SMS code:
//     signal-cli -u YOUR_PHONE_NUMBER verify CODE_RECEIVED
//
// Example usage:
//
//	client, err := signal.NewClient("+15551234567")
//	if err != nil {
//	    return err
//	}
//	err = client.SendGroupMessage(ctx, "Inbox Alerts", "🚨 New Email Alert")
package signal
